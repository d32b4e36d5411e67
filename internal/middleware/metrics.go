package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/service"
)

// Metrics records the method, route template, status, and latency of
// every request. The route template is preferred over the raw URL so
// that per-student paths collapse into a single metric series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
