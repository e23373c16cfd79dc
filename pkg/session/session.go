package session

import (
	"fmt"
	"net/http"

	"estate-listing/pkg/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
)

// UserIDKey 会话中保存登录用户ID的键
const UserIDKey = "user_id"

// NewStore 根据配置创建会话存储（cookie 或 redis）
func NewStore(cfg config.SessionConfig, redisCfg config.RedisConfig) (sessions.Store, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is empty")
	}

	var store sessions.Store
	switch cfg.Store {
	case "redis":
		s, err := redis.NewStoreWithDB(10, "tcp", redisCfg.Addr, redisCfg.Password, fmt.Sprintf("%d", redisCfg.DB), secret)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = s
	case "cookie", "":
		store = cookie.NewStore(secret)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Store)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   gin.Mode() == gin.ReleaseMode, // 生产环境仅HTTPS
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// Middleware 安装会话中间件
func Middleware(name string, store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(name, store)
}

// UserID 读取会话中的登录用户ID，未登录返回 0
func UserID(c *gin.Context) uint {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return 0
	}
	switch v := sessions.Default(c).Get(UserIDKey).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	case uint64:
		return uint(v)
	}
	return 0
}

// Login 将用户ID写入会话
func Login(c *gin.Context, userID uint) error {
	s := sessions.Default(c)
	s.Set(UserIDKey, userID)
	return s.Save()
}

// Logout 清除会话
func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	return s.Save()
}
