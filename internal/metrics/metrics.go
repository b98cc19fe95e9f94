// Package metrics собирает счётчики Prometheus для чат-сервера.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections считает открытые websocket-соединения.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aichat",
		Name:      "ws_active_connections",
		Help:      "Number of currently open websocket connections.",
	})

	// MessagesProcessed считает обработанные чат-кадры по типу.
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aichat",
		Name:      "messages_processed_total",
		Help:      "Total number of processed chat frames.",
	}, []string{"type"})

	// AIGatewayFailures считает сбои обращений к AI-серверу (любая причина).
	AIGatewayFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aichat",
		Name:      "ai_gateway_failures_total",
		Help:      "Total number of failed AI server requests resolved to a fallback reply.",
	})

	// LoginLockouts считает блокировки учётных записей после серии неудачных входов.
	LoginLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aichat",
		Name:      "login_lockouts_total",
		Help:      "Total number of accounts locked out after consecutive failed logins.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aichat",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, path and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// HTTPMiddleware пишет латентность каждого HTTP-запроса.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
