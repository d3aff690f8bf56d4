package presence

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// PingHandler 处理参与者的在线心跳。尽力而为：任何失败都被吞掉，
// 以软性的 success=false 返回，绝不向调用方抛出错误。
func PingHandler(c *gin.Context) {
	participantID := c.GetString(user.ParticipantIDKey)
	if !user.IsValidUUID(participantID) {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	if err := Ping(participantID, time.Now()); err != nil {
		fmt.Printf("心跳写入失败（对调用方隐藏）: %v\n", err)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// OnlineCountHandler 返回当前在线的参与者数量。
func OnlineCountHandler(c *gin.Context) {
	threshold := time.Duration(config.Cfg.Game.PresenceThresholdSeconds) * time.Second
	count, err := CountLive(time.Now(), threshold)
	if err != nil {
		fmt.Printf("在线人数统计失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "暂时无法获取在线人数"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": count})
}
