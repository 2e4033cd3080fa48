// Package metrics holds the prometheus collectors exported on GET /metrics.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const prefix = "cuentame"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Order metrics
	OrdenesCreadas = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_ordenes_creadas_total",
			Help: "Total number of purchase orders created",
		},
		[]string{"tipo_entrega"},
	)

	MontoOrdenes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_ordenes_total_monto",
			Help:    "Distribution of order totals in dollars",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500},
		},
	)

	// Background job metrics
	JobsProcesados = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_jobs_procesados_total",
			Help: "Total number of background jobs processed",
		},
		[]string{"queue", "resultado"},
	)

	DLQPendientes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_dlq_pendientes",
			Help: "Jobs waiting in a dead letter queue",
		},
		[]string{"queue"},
	)
)

// RecordOrden counts a created order and observes its total.
func RecordOrden(tipoEntrega string, total decimal.Decimal) {
	OrdenesCreadas.WithLabelValues(tipoEntrega).Inc()
	f, _ := total.Float64()
	MontoOrdenes.Observe(f)
}

// RecordJob counts one processed job; resultado is "ok", "retry" or "dlq".
func RecordJob(queue, resultado string) {
	JobsProcesados.WithLabelValues(queue, resultado).Inc()
}

// TrackRequest records the outcome of one HTTP request.
func TrackRequest(method, path, status string, start time.Time) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
