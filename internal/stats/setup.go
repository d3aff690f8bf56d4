package stats

import (
	"fmt"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
)

// migrateDB 负责自动迁移本模块的数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Solve{}, &Snapshot{}); err != nil {
		return fmt.Errorf("无法迁移stats相关表: %w", err)
	}
	fmt.Println("Stats数据库表迁移成功。")
	return nil
}

// PrimeCachedDB 是stats模块的初始化总入口：迁移表结构并预热Redis缓存。
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
