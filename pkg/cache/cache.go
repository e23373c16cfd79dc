package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"estate-listing/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrCacheDisabled = errors.New("cache disabled")
)

// maxLocalTTL caps how long an entry lives in process memory.
const maxLocalTTL = 10 * time.Minute

// CacheManager two-tier cache: process memory first, then Redis when a client is set.
type CacheManager struct {
	redis   *redis.Client
	local   *LocalCache
	enabled atomic.Bool
	hits    atomic.Int64
	misses  atomic.Int64
	stop    chan struct{}
	once    sync.Once
}

// LocalCache 本地缓存
type LocalCache struct {
	data map[string]*CacheItem
	mu   sync.RWMutex
}

// CacheItem 缓存项
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

// NewCacheManager creates a cache. redisClient may be nil for a memory-only cache.
func NewCacheManager(redisClient *redis.Client) *CacheManager {
	cm := &CacheManager{
		redis: redisClient,
		local: &LocalCache{
			data: make(map[string]*CacheItem),
		},
		stop: make(chan struct{}),
	}
	cm.enabled.Store(true)

	go cm.cleanupLocalCache(5 * time.Minute)

	return cm
}

// Get decodes the cached value for key into dest.
func (cm *CacheManager) Get(ctx context.Context, key string, dest interface{}) error {
	if !cm.enabled.Load() {
		return ErrCacheDisabled
	}

	if value, found := cm.getFromLocal(key); found {
		cm.hits.Add(1)
		return json.Unmarshal(value, dest)
	}

	if cm.redis != nil {
		data, err := cm.redis.Get(ctx, key).Bytes()
		if err == nil {
			ttl := 5 * time.Minute
			if remaining, err := cm.redis.TTL(ctx, key).Result(); err == nil && remaining > 0 && remaining < ttl {
				ttl = remaining
			}
			cm.setToLocal(key, data, ttl)
			cm.hits.Add(1)
			return json.Unmarshal(data, dest)
		}
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("redis cache get failed", zap.String("key", key), zap.Error(err))
		}
	}

	cm.misses.Add(1)
	return ErrCacheMiss
}

// Set stores value under key in both tiers.
func (cm *CacheManager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !cm.enabled.Load() || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	localTTL := ttl
	if localTTL > maxLocalTTL {
		localTTL = maxLocalTTL
	}
	cm.setToLocal(key, data, localTTL)

	if cm.redis != nil {
		if err := cm.redis.Set(ctx, key, data, ttl).Err(); err != nil {
			return err
		}
	}

	return nil
}

// getFromLocal 从本地缓存获取
func (cm *CacheManager) getFromLocal(key string) ([]byte, bool) {
	cm.local.mu.RLock()
	defer cm.local.mu.RUnlock()

	item, exists := cm.local.data[key]
	if !exists || time.Now().After(item.ExpiresAt) {
		return nil, false
	}

	return item.Value, true
}

// setToLocal 设置本地缓存
func (cm *CacheManager) setToLocal(key string, value []byte, ttl time.Duration) {
	cm.local.mu.Lock()
	defer cm.local.mu.Unlock()

	cm.local.data[key] = &CacheItem{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// cleanupLocalCache 清理过期的本地缓存
func (cm *CacheManager) cleanupLocalCache(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.local.mu.Lock()
			now := time.Now()
			for key, item := range cm.local.data {
				if now.After(item.ExpiresAt) {
					delete(cm.local.data, key)
				}
			}
			cm.local.mu.Unlock()
		case <-cm.stop:
			return
		}
	}
}

// GetStats 获取缓存统计信息
func (cm *CacheManager) GetStats() map[string]interface{} {
	cm.local.mu.RLock()
	localItemCount := len(cm.local.data)
	cm.local.mu.RUnlock()

	hits, misses := cm.hits.Load(), cm.misses.Load()
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return map[string]interface{}{
		"enabled":         cm.enabled.Load(),
		"local_items":     localItemCount,
		"redis_connected": cm.redis != nil,
		"hits":            hits,
		"misses":          misses,
		"hit_rate":        hitRate,
	}
}

// Disable 禁用缓存，Get 返回 ErrCacheDisabled，Set 不再写入
func (cm *CacheManager) Disable() {
	cm.enabled.Store(false)
}

// Close stops the cleanup goroutine.
func (cm *CacheManager) Close() {
	cm.once.Do(func() { close(cm.stop) })
}
