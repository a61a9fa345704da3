package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"emergency-service/internal/logging"
)

// RequestLoggingMiddleware logs one line per request with method, path,
// status and latency.
func RequestLoggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Infof("%s %s -> %d (%s)",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start))
	}
}
