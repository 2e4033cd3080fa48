package middleware

import (
	"strconv"
	"time"

	"cuentame/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency labelled by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.TrackRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), start)
	}
}
