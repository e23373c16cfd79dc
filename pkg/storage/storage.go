// Package storage turns stored image object keys into URLs the browser can load.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"estate-listing/pkg/config"

	"github.com/volcengine/ve-tos-golang-sdk/v2/tos"
	"github.com/volcengine/ve-tos-golang-sdk/v2/tos/enum"
)

// ImageURLResolver resolves an object key into a URL.
type ImageURLResolver interface {
	URL(ctx context.Context, path string) (string, error)
}

// New builds the resolver selected by cfg.Provider.
func New(cfg config.StorageConfig) (ImageURLResolver, error) {
	switch cfg.Provider {
	case "", "public":
		return PublicResolver{BaseURL: cfg.BaseURL}, nil
	case "tos":
		return NewTOSResolver(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// PublicResolver prefixes keys with a public base URL.
type PublicResolver struct {
	BaseURL string
}

func (r PublicResolver) URL(_ context.Context, path string) (string, error) {
	if isAbsoluteURL(path) {
		return path, nil
	}
	return joinURL(r.BaseURL, path), nil
}

type presigner interface {
	PreSignedURL(input *tos.PreSignedURLInput) (*tos.PreSignedURLOutput, error)
}

// TOSResolver issues presigned GET URLs for objects in a private TOS bucket.
type TOSResolver struct {
	client presigner
	closer func()
	bucket string
	expiry time.Duration
}

// NewTOSResolver 创建TOS客户端
func NewTOSResolver(cfg config.StorageConfig) (*TOSResolver, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.BucketName == "" {
		return nil, errors.New("incomplete TOS configuration")
	}

	credential := tos.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKeySecret)
	client, err := tos.NewClientV2(cfg.Endpoint,
		tos.WithCredentials(credential),
		tos.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to create TOS client: %w", err)
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &TOSResolver{
		client: client,
		closer: client.Close,
		bucket: cfg.BucketName,
		expiry: expiry,
	}, nil
}

func (r *TOSResolver) URL(_ context.Context, path string) (string, error) {
	if isAbsoluteURL(path) {
		return path, nil
	}
	key := strings.TrimLeft(path, "/")
	if key == "" {
		return "", errors.New("empty object key")
	}

	out, err := r.client.PreSignedURL(&tos.PreSignedURLInput{
		HTTPMethod: enum.HttpMethodGet,
		Bucket:     r.bucket,
		Key:        key,
		Expires:    int64(r.expiry.Seconds()),
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return out.SignedUrl, nil
}

// Close 关闭客户端并释放资源
func (r *TOSResolver) Close() {
	if r.closer != nil {
		r.closer()
	}
}

// PlaceholderURL is the image shown for listings without photos.
func PlaceholderURL(postType string) string {
	if postType == "" {
		postType = "default"
	}
	return "/placeholder/" + url.PathEscape(postType) + ".svg"
}

func isAbsoluteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func joinURL(base, path string) string {
	if base == "" {
		return "/" + strings.TrimLeft(path, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
