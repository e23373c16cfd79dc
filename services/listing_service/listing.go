package listing_service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"estate-listing/inout"
	"estate-listing/model"
	"estate-listing/pkg/cache"
	"estate-listing/pkg/logger"
	"estate-listing/pkg/monitoring"
	"estate-listing/pkg/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PageSize 每页房源数量
const PageSize = 9

const cacheKeyPrefix = "listing:page:"

// ListingService 首页房源查询，只读
type ListingService struct {
	db       *gorm.DB
	cache    *cache.CacheManager
	cacheTTL time.Duration
	images   storage.ImageURLResolver
}

type Option func(*ListingService)

// WithCache 启用结果页缓存，ttl <= 0 时不缓存
func WithCache(cm *cache.CacheManager, ttl time.Duration) Option {
	return func(s *ListingService) {
		s.cache = cm
		s.cacheTTL = ttl
	}
}

// WithImageResolver 设置图片地址解析器
func WithImageResolver(r storage.ImageURLResolver) Option {
	return func(s *ListingService) {
		s.images = r
	}
}

func NewListingService(db *gorm.DB, opts ...Option) *ListingService {
	s := &ListingService{
		db:     db,
		images: storage.PublicResolver{BaseURL: "/uploads/"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPosts returns one page of posts matching filters, newest first.
// A page below 1 is treated as 1; a page past the end has no items.
func (s *ListingService) ListPosts(ctx context.Context, filters SearchFilters, page int) (*inout.PostPage, error) {
	start := time.Now()
	page = max(page, 1)

	cacheState := "off"
	key := ""
	if s.cache != nil && s.cacheTTL > 0 {
		key = pageCacheKey(filters, page)
		var cached inout.PostPage
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			monitoring.RecordListingQuery("hit", time.Since(start), cached.TotalItems)
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheDisabled) {
			logger.L().Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
		}
		cacheState = "miss"
	}

	query := s.db.WithContext(ctx).
		Model(&model.Post{}).
		Scopes(SearchScope(filters)).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	items := make([]model.Post, 0, PageSize)
	offset := (page - 1) * PageSize
	if int64(offset) < total {
		err := query.
			Preload("Author").
			Preload("Images", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC").Order("id ASC")
			}).
			Order("created_at DESC").
			Order("id DESC").
			Offset(offset).
			Limit(PageSize).
			Find(&items).Error
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
	}

	s.resolveImageURLs(ctx, items)
	result := newPostPage(items, page, total)

	if key != "" {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			logger.L().Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	monitoring.RecordListingQuery(cacheState, time.Since(start), total)
	return result, nil
}

// resolveImageURLs 填充图片地址，无图时使用占位图
func (s *ListingService) resolveImageURLs(ctx context.Context, posts []model.Post) {
	for i := range posts {
		post := &posts[i]
		for j := range post.Images {
			img := &post.Images[j]
			u, err := s.images.URL(ctx, img.Path)
			if err != nil {
				logger.L().Warn("image url resolve failed",
					zap.Uint("post_id", post.ID),
					zap.String("path", img.Path),
					zap.Error(err))
				u = storage.PlaceholderURL(post.Type)
			}
			img.URL = u
		}
		if len(post.Images) > 0 {
			post.CoverURL = post.Images[0].URL
		} else {
			post.CoverURL = storage.PlaceholderURL(post.Type)
		}
	}
}

func newPostPage(items []model.Post, page int, total int64) *inout.PostPage {
	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	result := &inout.PostPage{
		Items:       items,
		CurrentPage: page,
		PageSize:    PageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
	if len(items) > 0 {
		from := (page-1)*PageSize + 1
		to := from + len(items) - 1
		result.From = &from
		result.To = &to
	}
	return result
}

// pageCacheKey 缓存键：规范化过滤条件的 SHA-1 加页码
func pageCacheKey(filters SearchFilters, page int) string {
	normalized := filters
	normalized.SortBy = ""
	data, _ := json.Marshal(normalized)
	sum := sha1.Sum(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(page)
}
