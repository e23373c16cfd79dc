package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *HealthController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.CheckHealth)
	r.GET("/health/live", h.CheckLiveness)
	r.GET("/health/ready", h.CheckReadiness)
	r.GET("/health/info", h.GetSystemInfo)
	return r
}

func get(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func ok(context.Context) error { return nil }

func TestHealthAllUp(t *testing.T) {
	h := NewHealthController("estate-listing", "test")
	h.AddCheck("database", true, ok)
	h.AddCheck("redis", false, ok)
	r := newRouter(h)

	w, body := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = get(t, r, "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestHealthOptionalComponentDown(t *testing.T) {
	h := NewHealthController("estate-listing", "test")
	h.AddCheck("database", true, ok)
	h.AddCheck("redis", false, func(context.Context) error { return errors.New("connection refused") })
	r := newRouter(h)

	w, body := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", body["status"])

	w, _ = get(t, r, "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthRequiredComponentDown(t *testing.T) {
	h := NewHealthController("estate-listing", "test")
	h.AddCheck("database", true, func(context.Context) error { return errors.New("ping failed") })
	r := newRouter(h)

	w, body := get(t, r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])

	w, body = get(t, r, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, []interface{}{"database: ping failed"}, body["issues"])

	w, body = get(t, r, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestSystemInfoIncludesStats(t *testing.T) {
	h := NewHealthController("estate-listing", "test")
	h.SetStatsProvider(func() map[string]interface{} {
		return map[string]interface{}{"cache": map[string]interface{}{"hits": 3}}
	})
	r := newRouter(h)

	w, body := get(t, r, "/health/info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "cache")
	assert.Contains(t, body, "memory")
}
