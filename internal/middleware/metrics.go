package middleware

import (
	"strconv"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request latency per method, route template, and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
