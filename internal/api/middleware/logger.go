package middleware

import (
	"time"

	"eshop/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger writes one line per request. 5xx responses log as errors and 4xx
// as warnings.
func Logger(log *logger.Logger) gin.HandlerFunc {
	z := log.Zap().Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			z.Error("request", fields...)
		case status >= 400:
			z.Warn("request", fields...)
		default:
			z.Info("request", fields...)
		}
	}
}
