package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"apex-server/router-api/internal/infrastructure/metrics"
)

// MetricsMiddleware times each request and records it under the matched
// route template. Unmatched paths fall back to the raw URL path so 404s
// still show up, at the cost of label cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}
