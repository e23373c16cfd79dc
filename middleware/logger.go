package middleware

import (
	"time"

	"estate-listing/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger 通用请求日志中间件
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		}
		if uid := c.GetUint(CurrentUserIDKey); uid != 0 {
			fields = append(fields, zap.Uint("user_id", uid))
		}

		if c.Writer.Status() >= 500 {
			logger.L().Error("request", fields...)
		} else {
			logger.L().Info("request", fields...)
		}
	}
}
