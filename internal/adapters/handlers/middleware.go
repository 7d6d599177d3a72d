package handlers

import (
	"net/http"
	"time"

	"github.com/iwtcode/servoSweep/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware пишет по строке на запрос. GET-запросы идут на уровне debug.
func LoggingMiddleware(parentLogger *logging.Logger) gin.HandlerFunc {
	logger := parentLogger.WithPrefix("HTTP")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if c.Request.Method == http.MethodGet {
			logger.Debug("Request completed", fields...)
			return
		}
		logger.Info("Request completed", fields...)
	}
}
