package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"estate-listing/pkg/config"
	"estate-listing/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	rdb      *redis.Client
	initOnce sync.Once
	initErr  error
)

// InitRedis 初始化 Redis 客户端. An empty address leaves Redis disabled.
func InitRedis(ctx context.Context, cfg config.RedisConfig) error {
	if cfg.Addr == "" {
		logger.L().Info("redis disabled: no address configured")
		return nil
	}

	initOnce.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			PoolSize:     cfg.PoolSize,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			initErr = fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
			_ = client.Close()
			return
		}

		rdb = client
		logger.L().Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	})

	return initErr
}

// GetClient returns the client, or nil when Redis is disabled or unreachable.
func GetClient() *redis.Client {
	return rdb
}

// IsConnected 检查 Redis 是否已连接
func IsConnected(ctx context.Context) bool {
	if rdb == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return rdb.Ping(ctx).Err() == nil
}

// CloseRedis 关闭 Redis 连接
func CloseRedis() error {
	if rdb != nil {
		logger.L().Info("closing redis connection")
		return rdb.Close()
	}
	return nil
}
