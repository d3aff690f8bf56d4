package puzzle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 线索数量的硬性限制
const (
	MinClues = 3
	MaxClues = 10
)

// ErrSubmissionNotFound 表示指定的投稿不存在（可能已被处理）。
var ErrSubmissionNotFound = errors.New("投稿不存在或已被处理")

// ValidateDocument 校验投稿内容是否满足入库要求。
func ValidateDocument(doc *Document) error {
	doc.Name = strings.TrimSpace(doc.Name)
	doc.SubmittedBy = strings.TrimSpace(doc.SubmittedBy)
	if doc.Name == "" {
		return errors.New("谜底名称不能为空")
	}
	if len(doc.Clues) < MinClues || len(doc.Clues) > MaxClues {
		return fmt.Errorf("线索数量必须在%d到%d之间", MinClues, MaxClues)
	}
	for i, clue := range doc.Clues {
		doc.Clues[i] = strings.TrimSpace(clue)
		if doc.Clues[i] == "" {
			return errors.New("线索内容不能为空")
		}
	}
	for i, alt := range doc.AlternateNames {
		doc.AlternateNames[i] = strings.TrimSpace(alt)
	}
	return nil
}

// CreateSubmission 将一份通过校验的投稿写入待审核表，并分配不透明标识。
func CreateSubmission(doc Document) (*Submission, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成UUID v7: %w", err)
	}

	doc.SubmittedAt = time.Now()
	submission := Submission{
		SourceID: newUUID.String(),
		Document: doc,
	}
	if err := database.DB.Create(&submission).Error; err != nil {
		return nil, fmt.Errorf("无法写入投稿记录: %w", err)
	}
	return &submission, nil
}

// ListPendingSubmissions 按投稿时间升序返回全部待审核投稿。
func ListPendingSubmissions() ([]Submission, error) {
	var submissions []Submission
	err := database.DB.Order("id ASC").Find(&submissions).Error
	return submissions, err
}

// ApproveSubmission 批准一份投稿：在同一个事务中盖上批准时间、
// 复制为队列条目、删除待审核记录。返回新建的队列条目。
func ApproveSubmission(submissionID uint) (*QueueEntry, error) {
	var entry *QueueEntry
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var submission Submission
		if err := tx.First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		now := time.Now()
		submission.Document.ApprovedAt = now
		entry = &QueueEntry{
			SourceID:   submission.SourceID,
			Document:   submission.Document,
			EnqueuedAt: now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("无法创建队列条目: %w", err)
		}
		if err := tx.Delete(&submission).Error; err != nil {
			return fmt.Errorf("无法删除已批准的投稿: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RejectSubmission 删除一份未通过审核的投稿。
func RejectSubmission(submissionID uint) error {
	result := database.DB.Delete(&Submission{}, submissionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// normalizeAnswer 将答案归一化：去除首尾空白、压缩连续空白、统一小写。
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// MatchesAnswer 判断一个猜测是否命中谜底（含备选写法），匹配不区分大小写和多余空白。
func MatchesAnswer(doc *Document, guess string) bool {
	normalized := normalizeAnswer(guess)
	if normalized == "" {
		return false
	}
	if normalized == normalizeAnswer(doc.Name) {
		return true
	}
	for _, alt := range doc.AlternateNames {
		if normalized == normalizeAnswer(alt) {
			return true
		}
	}
	return false
}
