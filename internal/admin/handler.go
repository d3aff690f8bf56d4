package admin

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/puzzle"
	"github.com/SlpAus/daily-puzzle-backend/internal/rotation"
	"github.com/SlpAus/daily-puzzle-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

// sessionValidity 是管理员会话令牌的有效期。
const sessionValidity = 24 * time.Hour

// LoginRequestBody 定义了管理员登录请求体的JSON结构
type LoginRequestBody struct {
	Password string `json:"password" binding:"required"`
}

// Login 校验管理口令并签发会话令牌。
func Login(c *gin.Context) {
	var body LoginRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	expected := config.Cfg.Game.AdminPassword
	if expected == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "管理接口未启用", "reason": "admin-disabled"})
		return
	}

	// 时间恒定比较，避免通过响应时间猜测口令
	if subtle.ConstantTimeCompare([]byte(body.Password), []byte(expected)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "口令错误", "reason": "bad-credentials"})
		return
	}

	sessionToken, err := token.GenerateSessionToken(token.AdminRole, sessionValidity)
	if err != nil {
		fmt.Printf("签发管理员令牌失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法签发令牌"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": sessionToken, "expiresIn": int(sessionValidity.Seconds())})
}

// SubmissionResponse 是待审核投稿列表的API响应模型（管理员可见全部字段）。
type SubmissionResponse struct {
	ID             uint      `json:"id"`
	SourceID       string    `json:"sourceId"`
	Name           string    `json:"name"`
	SubmittedBy    string    `json:"submittedBy"`
	Clues          []string  `json:"clues"`
	AlternateNames []string  `json:"alternateNames"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// ListSubmissions 返回全部待审核投稿。
func ListSubmissions(c *gin.Context) {
	submissions, err := puzzle.ListPendingSubmissions()
	if err != nil {
		fmt.Printf("读取待审核投稿失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "暂时无法获取投稿列表"})
		return
	}

	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, s := range submissions {
		responses = append(responses, SubmissionResponse{
			ID:             s.ID,
			SourceID:       s.SourceID,
			Name:           s.Document.Name,
			SubmittedBy:    s.Document.SubmittedBy,
			Clues:          s.Document.Clues,
			AlternateNames: s.Document.AlternateNames,
			SubmittedAt:    s.Document.SubmittedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"submissions": responses})
}

// ApproveSubmission 批准一份投稿进入队列，并同步触发一次轮换检查。
// 入队触发器让新批准的谜题在展示位为空或已过期时立即上榜，
// 不必等到下一次定时触发。
func ApproveSubmission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "投稿ID无效"})
		return
	}

	entry, err := puzzle.ApproveSubmission(uint(id))
	if err != nil {
		if errors.Is(err, puzzle.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		fmt.Printf("批准投稿失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "批准操作失败"})
		return
	}

	// 入队触发器：幂等的轮换检查，失败不影响批准结果
	result, err := rotation.RotateIfNeeded(time.Now())
	if err != nil {
		fmt.Printf("入队触发的轮换检查失败: %v\n", err)
		result = rotation.Result{Rotated: false, Reason: rotation.ReasonNotExpired}
	}

	c.JSON(http.StatusOK, gin.H{
		"sourceId": entry.SourceID,
		"rotated":  result.Rotated,
	})
}

// RejectSubmission 删除一份未通过审核的投稿。
func RejectSubmission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "投稿ID无效"})
		return
	}

	if err := puzzle.RejectSubmission(uint(id)); err != nil {
		if errors.Is(err, puzzle.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		fmt.Printf("删除投稿失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除操作失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "投稿已删除"})
}
