package middleware

import (
	"sync"
	"time"

	"estate-listing/pkg/logger"
	"estate-listing/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PerformanceConfig 性能监控配置
type PerformanceConfig struct {
	SlowThreshold time.Duration // 慢请求阈值
	EnableLogging bool
	SkipPaths     []string
}

// DefaultPerformanceConfig 默认性能配置
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		SlowThreshold: 500 * time.Millisecond,
		EnableLogging: true,
		SkipPaths:     []string{"/health", "/health/live", "/health/ready", "/metrics", "/favicon.ico"},
	}
}

// Performance 性能监控中间件
func Performance(config ...PerformanceConfig) gin.HandlerFunc {
	cfg := DefaultPerformanceConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		if cfg.EnableLogging && latency > cfg.SlowThreshold {
			logger.L().Warn("slow request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("latency", latency),
				zap.String("request_id", c.GetString("request_id")))
		}

		if gin.Mode() == gin.DebugMode {
			c.Header("X-Response-Time", latency.String())
		}
	}
}

// RateLimit 线程安全的内存限流中间件，按IP每分钟 rpm 次
func RateLimit(rpm int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		requests = make(map[string][]time.Time)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()
		cutoff := now.Add(-time.Minute)

		mu.Lock()
		valid := requests[ip][:0]
		for _, ts := range requests[ip] {
			if ts.After(cutoff) {
				valid = append(valid, ts)
			}
		}
		if len(valid) >= rpm {
			requests[ip] = valid
			mu.Unlock()
			c.Header("Retry-After", "60")
			response.Abort(c, response.TOO_MANY_REQUESTS)
			return
		}
		requests[ip] = append(valid, now)
		mu.Unlock()

		c.Next()
	}
}
