package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

// RequestLogger logs one line per request after it completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []interface{}{
			"request_id", c.GetString(ContextRequestID),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			var err error
			if len(c.Errors) > 0 {
				err = c.Errors.Last().Err
			}
			log.Error(err, "server error", fields...)
		case status >= 400:
			log.Warn("client error", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
