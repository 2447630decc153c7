package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/perflens/bottleneck-analyzer/pkg/metrics"
)

var httpRequestCounter = metrics.NewCounterVec("http_requests_total",
	"HTTP requests partitioned by method, route and status", []string{"method", "path", "status"})

func HandleMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestCounter.Inc(c.Request.Method, path, strconv.Itoa(c.Writer.Status()))
	}
}
