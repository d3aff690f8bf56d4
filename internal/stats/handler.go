package stats

import (
	"fmt"
	"net/http"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/SlpAus/daily-puzzle-backend/internal/puzzle"
	"github.com/SlpAus/daily-puzzle-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SolveRequestBody 定义了提交猜测时请求体的JSON结构
type SolveRequestBody struct {
	Guess string `json:"guess" binding:"required"`
	// ClueIndex 是猜测时已披露到的线索序号（从0开始）
	ClueIndex *int `json:"clueIndex" binding:"required"`
}

// SolveResponse 是猜测提交的API响应模型
type SolveResponse struct {
	Correct bool `json:"correct"`
	// Accepted 表示本次猜中是否被计入统计；同一参与者每周期最多计入一次
	Accepted bool   `json:"accepted"`
	Name     string `json:"name,omitempty"` // 猜中后公开谜底
}

// SubmitGuess 处理玩家的猜测提交。
// 答案判定在服务端完成；猜中后通过SubmitSolve进行去重计数。
func SubmitGuess(c *gin.Context) {
	var body SolveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	participantID := c.GetString(user.ParticipantIDKey)
	if !user.IsValidUUID(participantID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少有效的参与者标识"})
		return
	}

	record, err := puzzle.GetDisplay(database.DB)
	if err != nil {
		fmt.Printf("读取展示记录失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "暂时无法处理猜测"})
		return
	}
	if record == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "当前没有可猜测的谜题"})
		return
	}

	clueIndex := *body.ClueIndex
	if clueIndex < 0 || clueIndex >= len(record.Document.Clues) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "线索序号超出范围"})
		return
	}

	if !puzzle.MatchesAnswer(&record.Document, body.Guess) {
		c.JSON(http.StatusOK, SolveResponse{Correct: false})
		return
	}

	accepted, err := SubmitSolve(participantID, record.SourceID, clueIndex)
	if err != nil {
		fmt.Printf("记录解谜贡献失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "猜中了，但统计暂时不可用，请稍后再试"})
		return
	}

	c.JSON(http.StatusOK, SolveResponse{
		Correct:  true,
		Accepted: accepted,
		Name:     record.Document.Name,
	})
}

// GetCurrentStats 返回当前周期的解谜计数（线索序号 -> 人数）。
func GetCurrentStats(c *gin.Context) {
	counters, err := GetCounters()
	if err != nil {
		fmt.Printf("读取解谜计数失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "暂时无法获取统计数据"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counters": counters})
}
