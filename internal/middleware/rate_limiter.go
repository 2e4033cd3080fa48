package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"cuentame/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana tracks the request count of one client IP in a fixed window.
type ventana struct {
	count     int
	windowEnd time.Time
}

// limiter is a per-IP fixed-window counter. Each middleware instance owns one.
type limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*ventana
	now     func() time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	l := &limiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*ventana),
		now:     time.Now,
	}
	go l.purgeLoop()
	return l
}

// allow counts one hit for ip and reports whether it is within the limit,
// plus the end of the current window.
func (l *limiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &ventana{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

const purgeInterval = 5 * time.Minute

// purgeLoop drops expired windows so IPs that never return don't accumulate.
func (l *limiter) purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := l.now()
		purged := 0
		for ip, e := range l.entries {
			if now.After(e.windowEnd) {
				delete(l.entries, ip)
				purged++
			}
		}
		remaining := len(l.entries)
		l.mu.Unlock()

		if purged > 0 {
			log.Debug().Int("purged", purged).Int("remaining", remaining).Msg("rate limiter entries purged")
		}
	}
}

// ── Login rate limiter ────────────────────────────────────────────────────────

// LoginRateLimiter limits login and OTP attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	l := newLimiter(20, time.Minute)
	return func(c *gin.Context) {
		if ok, _ := l.allow(c.ClientIP()); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiados intentos. Intente en 1 minuto."))
			return
		}
		c.Next()
	}
}

// ── General API rate limiter ──────────────────────────────────────────────────

// RateLimiter allows limit requests per window per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newLimiter(limit, window)
	return func(c *gin.Context) {
		ok, end := l.allow(c.ClientIP())
		if !ok {
			secs := int(time.Until(end).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}
