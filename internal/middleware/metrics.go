package middleware

import (
	"strconv"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics записывает HTTP-метрики по шаблону маршрута, а не по фактическому пути
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
