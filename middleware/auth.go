package middleware

import (
	"context"
	"strings"

	"estate-listing/model"
	"estate-listing/pkg/jwt"
	"estate-listing/pkg/logger"
	"estate-listing/pkg/response"
	"estate-listing/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 上下文中保存当前用户的键
const (
	CurrentUserKey   = "current_user"
	CurrentUserIDKey = "current_user_id"
)

// UserLoader 按ID加载用户
type UserLoader interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// CurrentUser resolves the signed-in user from the session or a bearer token.
// Anonymous requests pass through with no user set.
func CurrentUser(loader UserLoader, jwtManager *jwt.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := session.UserID(c)
		fromSession := userID != 0

		if userID == 0 && jwtManager.Enabled() {
			if token := getTokenFromRequest(c); token != "" {
				id, err := jwtManager.ExtractUserID(token)
				if err != nil {
					logger.L().Debug("ignoring invalid bearer token", zap.Error(err))
				} else {
					userID = id
				}
			}
		}

		if userID != 0 {
			user, err := loader.FindByID(c.Request.Context(), userID)
			if err != nil {
				logger.L().Warn("failed to load current user", zap.Uint("user_id", userID), zap.Error(err))
			} else if user != nil {
				c.Set(CurrentUserKey, user)
				c.Set(CurrentUserIDKey, user.ID)
			} else if fromSession {
				// 用户已被删除，清理失效会话
				if err := session.Logout(c); err != nil {
					logger.L().Warn("failed to clear stale session", zap.Uint("user_id", userID), zap.Error(err))
				}
			}
		}

		c.Next()
	}
}

// RequireUser 未登录时返回 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetCurrentUser(c) == nil {
			response.Abort(c, response.AUTH_ERROR)
			return
		}
		c.Next()
	}
}

// GetCurrentUser 获取当前登录用户，未登录返回 nil
func GetCurrentUser(c *gin.Context) *model.User {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// getTokenFromRequest 从 Authorization header 获取 bearer token
func getTokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
