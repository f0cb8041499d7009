package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/service"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// SessionStore redis.TokenRepository 实现
type SessionStore interface {
	GetUserToken(ctx context.Context, userID uint64) (string, error)
	ExtendUserToken(ctx context.Context, userID uint64) error
}

type Auth struct {
	issuer   *pkg.TokenIssuer
	sessions SessionStore
}

func NewAuth(issuer *pkg.TokenIssuer, sessions SessionStore) *Auth {
	return &Auth{issuer: issuer, sessions: sessions}
}

func bearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authenticate 校验 JWT，并确认与 redis 中保存的 token 一致
func (a *Auth) authenticate(c *gin.Context, tokenStr string) (int, string) {
	claims, err := a.issuer.ParseAccess(tokenStr)
	if err != nil {
		return http.StatusUnauthorized, "invalid or expired token"
	}

	// redis校验是否是正确的token
	origin, err := a.sessions.GetUserToken(c.Request.Context(), claims.UserID)
	if err != nil || origin != tokenStr {
		return http.StatusUnauthorized, "account has been logged in elsewhere"
	}

	// 校验通过后更新过期时间
	if err = a.sessions.ExtendUserToken(c.Request.Context(), claims.UserID); err != nil {
		return http.StatusInternalServerError, err.Error()
	}

	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextRoleKey, model.Role(claims.Role))
	return 0, ""
}

// RequireAuth 必须登录
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing or invalid authorization header"})
			return
		}
		if status, msg := a.authenticate(c, tokenStr); status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"msg": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuth 带 token 时解析身份，token 无效按匿名处理
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearer(c); ok {
			_, _ = a.authenticate(c, tokenStr)
		}
		c.Next()
	}
}

// RequireRole 放在 RequireAuth 之后；角色不足直接 403，不进入 handler
func RequireRole(min model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserIDKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
			return
		}
		if !CurrentRole(c).AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "forbidden"})
			return
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) uint64 {
	return c.GetUint64(ContextUserIDKey)
}

func CurrentRole(c *gin.Context) model.Role {
	if v, ok := c.Get(ContextRoleKey); ok {
		if r, ok := v.(model.Role); ok {
			return r
		}
	}
	return ""
}

// CurrentViewer 匿名请求返回零值
func CurrentViewer(c *gin.Context) service.Viewer {
	return service.Viewer{UserID: CurrentUserID(c), Role: CurrentRole(c)}
}
