package startup

import (
	"fmt"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/presence"
	"github.com/SlpAus/daily-puzzle-backend/internal/puzzle"
	"github.com/SlpAus/daily-puzzle-backend/internal/rotation"
	"github.com/SlpAus/daily-puzzle-backend/internal/stats"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := puzzle.PrimeDB(); err != nil {
		return err
	}
	if err := stats.PrimeCachedDB(); err != nil {
		return err
	}

	// 启动补偿：停机期间展示位可能已经过期，立即做一次幂等的轮换检查
	if result, err := rotation.RotateIfNeeded(time.Now()); err != nil {
		fmt.Printf("警告: 启动时的轮换检查失败（将由兜底调度器重试）: %v\n", err)
	} else if result.Rotated {
		fmt.Println("启动时检测到展示位过期，已完成补偿轮换。")
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 在运行时热重建Redis缓存（用于Redis重启后的恢复）。
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	// 统计数据从SQLite中的快照恢复
	if err := stats.WarmupCache(); err != nil {
		return err
	}
	// 在线心跳是短暂状态，直接清空重新累积
	if err := presence.ResetCache(); err != nil {
		return err
	}

	fmt.Println("缓存热重建完成。")
	return nil
}
