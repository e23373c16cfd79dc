package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate-listing/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volcengine/ve-tos-golang-sdk/v2/tos"
	"github.com/volcengine/ve-tos-golang-sdk/v2/tos/enum"
)

type fakePresigner struct {
	last *tos.PreSignedURLInput
	err  error
}

func (f *fakePresigner) PreSignedURL(input *tos.PreSignedURLInput) (*tos.PreSignedURLOutput, error) {
	f.last = input
	if f.err != nil {
		return nil, f.err
	}
	return &tos.PreSignedURLOutput{SignedUrl: "https://bucket.tos.example/" + input.Key + "?sig=1"}, nil
}

func TestPublicResolver(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{name: "relative base", base: "/uploads/", path: "posts/1/0.jpg", want: "/uploads/posts/1/0.jpg"},
		{name: "cdn base", base: "https://cdn.example.test", path: "/posts/1/0.jpg", want: "https://cdn.example.test/posts/1/0.jpg"},
		{name: "absolute path", base: "/uploads/", path: "https://img.example.test/a.jpg", want: "https://img.example.test/a.jpg"},
		{name: "empty base", base: "", path: "a.jpg", want: "/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PublicResolver{BaseURL: tt.base}.URL(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTOSResolverPresigns(t *testing.T) {
	fake := &fakePresigner{}
	r := &TOSResolver{client: fake, bucket: "listings", expiry: 15 * time.Minute}

	got, err := r.URL(context.Background(), "/posts/1/0.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.tos.example/posts/1/0.jpg?sig=1", got)
	require.NotNil(t, fake.last)
	assert.Equal(t, enum.HttpMethodGet, fake.last.HTTPMethod)
	assert.Equal(t, "listings", fake.last.Bucket)
	assert.Equal(t, int64(900), fake.last.Expires)

	_, err = r.URL(context.Background(), "/")
	assert.Error(t, err)

	fake.err = errors.New("denied")
	_, err = r.URL(context.Background(), "posts/2.jpg")
	assert.ErrorContains(t, err, "denied")
}

func TestNew(t *testing.T) {
	r, err := New(config.StorageConfig{Provider: "public", BaseURL: "/media/"})
	require.NoError(t, err)
	assert.IsType(t, PublicResolver{}, r)

	_, err = New(config.StorageConfig{Provider: "tos"})
	assert.Error(t, err)

	_, err = New(config.StorageConfig{Provider: "ftp"})
	assert.Error(t, err)
}

func TestPlaceholderURL(t *testing.T) {
	assert.Equal(t, "/placeholder/house.svg", PlaceholderURL("house"))
	assert.Equal(t, "/placeholder/default.svg", PlaceholderURL(""))
	assert.Equal(t, "/placeholder/maison%20de%20ville.svg", PlaceholderURL("maison de ville"))
}
