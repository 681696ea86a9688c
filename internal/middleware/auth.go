package middleware

import (
	"context"
	"net/http"
	"strings"

	"hoodlink/internal/pkg"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextTokenKey  = "jti"
	ContextRoleKey   = "role"
)

// TokenVerifier 校验 token 签名、有效期以及会话是否仍在 redis 中
type TokenVerifier interface {
	Verify(ctx context.Context, tokenStr string) (*pkg.Claims, error)
}

func AuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, "未提供授權憑證")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			abort(c, "授權格式錯誤")
			return
		}

		claims, err := v.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(pkg.StatusOf(err), gin.H{"success": false, "message": pkg.PublicMessage(err)})
			return
		}

		// 注入 user_id
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextTokenKey, claims.ID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

// UserID 当前登录用户，未经过 AuthMiddleware 时为空
func UserID(c *gin.Context) string { return c.GetString(ContextUserIDKey) }

// TokenID 当前 token 的 jti
func TokenID(c *gin.Context) string { return c.GetString(ContextTokenKey) }
