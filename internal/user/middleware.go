package user

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CookieName   = "participant-id"
	CookieMaxAge = 365 * 24 * 60 * 60
	// ParticipantIDKey 是参与者标识在Gin上下文中的键名
	ParticipantIDKey = "participantID"
)

// EnsureParticipantCookieMiddleware 确保客户端持有一个格式正确的participant-id cookie。
// 如果没有或格式不正确，生成一个新的标识并设置cookie。
// 核心逻辑对标识的来源不做任何假设，只要求它在一个周期内对同一参与者保持稳定。
func EnsureParticipantCookieMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantID, err := c.Cookie(CookieName)

		if err != nil || !IsValidUUID(participantID) {
			if err != nil && err != http.ErrNoCookie {
				fmt.Printf("检测到无效的参与者Cookie: %s, err: %v\n", participantID, err)
			}
			newID, genErr := NewParticipantID()
			if genErr != nil {
				fmt.Printf("生成参与者标识时发生错误: %v\n", genErr)
			} else {
				c.SetCookie(CookieName, newID, CookieMaxAge, "/", "", false, true)
				// 同一请求内也使用新分发的标识
				participantID = newID
			}
		}

		c.Set(ParticipantIDKey, participantID)
		c.Next()
	}
}

// LoadParticipantMiddleware 只读取cookie并将其值放入Gin上下文中，不负责分发。
func LoadParticipantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantID, _ := c.Cookie(CookieName)
		c.Set(ParticipantIDKey, participantID)
		c.Next()
	}
}
