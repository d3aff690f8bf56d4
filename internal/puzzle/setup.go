package puzzle

import (
	"fmt"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
)

// PrimeDB 是puzzle模块的初始化总入口，负责迁移本模块的全部表结构。
func PrimeDB() error {
	err := database.DB.AutoMigrate(
		&Submission{},
		&QueueEntry{},
		&DisplayRecord{},
		&ArchiveEntry{},
	)
	if err != nil {
		return fmt.Errorf("无法迁移puzzle相关表: %w", err)
	}
	fmt.Println("Puzzle数据库表迁移成功。")
	return nil
}
