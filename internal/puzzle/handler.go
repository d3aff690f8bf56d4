package puzzle

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// SubmitRequestBody 定义了前端投稿时请求体的JSON结构
type SubmitRequestBody struct {
	Name           string   `json:"name" binding:"required"`
	SubmittedBy    string   `json:"submittedBy" binding:"required"`
	Clues          []string `json:"clues" binding:"required,min=3,max=10"`
	AlternateNames []string `json:"alternateNames"`
}

// CurrentPuzzleResponse 是当前谜题查询的API响应模型。
// 谜底名称与备选写法不随展示记录下发，答案判定只在服务端进行。
type CurrentPuzzleResponse struct {
	Available   bool      `json:"available"`
	SourceID    string    `json:"sourceId,omitempty"`
	SubmittedBy string    `json:"submittedBy,omitempty"`
	Clues       []string  `json:"clues,omitempty"`
	DisplayedAt time.Time `json:"displayedAt,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
}

// ArchiveEntryResponse 是归档列表的API响应模型，归档后谜底公开。
// Stats 已经是JSON文本，用RawMessage原样内嵌，避免二次编码成字符串。
type ArchiveEntryResponse struct {
	SourceID    string          `json:"sourceId"`
	Name        string          `json:"name"`
	SubmittedBy string          `json:"submittedBy"`
	Clues       []string        `json:"clues"`
	DisplayedAt time.Time       `json:"displayedAt"`
	ArchivedAt  time.Time       `json:"archivedAt"`
	Stats       json.RawMessage `json:"stats"`
}

// SubmitPuzzle 处理前端的谜题投稿
func SubmitPuzzle(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	doc := Document{
		Name:           body.Name,
		SubmittedBy:    body.SubmittedBy,
		Clues:          body.Clues,
		AlternateNames: body.AlternateNames,
	}
	if err := ValidateDocument(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := CreateSubmission(doc)
	if err != nil {
		fmt.Printf("投稿写入失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "投稿暂时无法受理，请稍后再试"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sourceId": submission.SourceID,
		"message":  "投稿已收到，等待管理员审核",
	})
}

// GetCurrentPuzzle 返回当前展示位上的谜题；展示位为空时返回available=false。
func GetCurrentPuzzle(c *gin.Context) {
	record, err := GetDisplay(database.DB)
	if err != nil {
		fmt.Printf("读取展示记录失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "暂时无法获取当前谜题"})
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, CurrentPuzzleResponse{Available: false})
		return
	}

	c.JSON(http.StatusOK, CurrentPuzzleResponse{
		Available:   true,
		SourceID:    record.SourceID,
		SubmittedBy: record.Document.SubmittedBy,
		Clues:       record.Document.Clues,
		DisplayedAt: record.DisplayedAt,
		ExpiresAt:   record.ExpiresAt,
	})
}

// GetArchiveList 返回最近的归档谜题列表，limit参数控制数量（默认30，上限100）。
func GetArchiveList(c *gin.Context) {
	limit := 30
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数无效"})
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	entries, err := ListArchive(database.DB, limit)
	if err != nil {
		fmt.Printf("读取归档列表失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "暂时无法获取归档"})
		return
	}

	responses := make([]ArchiveEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ArchiveEntryResponse{
			SourceID:    entry.SourceID,
			Name:        entry.Document.Name,
			SubmittedBy: entry.Document.SubmittedBy,
			Clues:       entry.Document.Clues,
			DisplayedAt: entry.DisplayedAt,
			ArchivedAt:  entry.ArchivedAt,
			Stats:       json.RawMessage(entry.StatsJSON),
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": responses})
}
