package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SlpAus/daily-puzzle-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

// RequireAdminMiddleware 校验 Authorization: Bearer 头中的管理员会话令牌。
// 授权失败立即拒绝，并返回与"不需要轮换"等业务结果可区分的reason码。
func RequireAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "需要管理员身份",
				"reason": "missing-token",
			})
			return
		}

		payload, err := token.ValidateSessionToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			reason := "invalid-token"
			if errors.Is(err, token.ErrExpiredToken) {
				reason = "expired-token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "管理员令牌无效",
				"reason": reason,
			})
			return
		}
		if payload.Role != token.AdminRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "权限不足",
				"reason": "insufficient-role",
			})
			return
		}

		c.Next()
	}
}
