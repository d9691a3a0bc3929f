package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"eshop/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic into a 500 with the usual error envelope. Broken
// client connections are dropped without a response.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	z := log.Zap().Named("recovery")

	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(error); ok && brokenPipe(err) {
			z.Warn("client went away", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Abort()
			return
		}

		fields := []zap.Field{
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}
		if gin.IsDebugging() {
			fields = append(fields, zap.ByteString("stack", debug.Stack()))
		}
		z.Error("panic recovered", fields...)

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

func brokenPipe(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr.Err, &sysErr) {
		return false
	}
	message := strings.ToLower(sysErr.Error())
	return strings.Contains(message, "broken pipe") || strings.Contains(message, "connection reset by peer")
}
