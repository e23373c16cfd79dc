package session

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"estate-listing/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore(config.SessionConfig{Store: "cookie"}, config.RedisConfig{})
	assert.Error(t, err)

	_, err = NewStore(config.SessionConfig{Store: "memcached", Secret: "s"}, config.RedisConfig{})
	assert.Error(t, err)

	store, err := NewStore(config.SessionConfig{Store: "cookie", Secret: "s", MaxAge: 60}, config.RedisConfig{})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestLoginRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := NewStore(config.SessionConfig{Store: "cookie", Secret: "test-secret", MaxAge: 60}, config.RedisConfig{})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware("estate_session", store))
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, Login(c, 12))
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		require.NoError(t, Logout(c))
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.FormatUint(uint64(UserID(c)), 10))
	})

	get := func(cookies []*http.Cookie) string {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Body.String()
	}

	assert.Equal(t, "0", get(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "12", get(cookies))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "0", get(w.Result().Cookies()))
}

func TestUserIDWithoutSessionMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, uint(0), UserID(c))
}
