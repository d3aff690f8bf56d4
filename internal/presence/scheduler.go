package presence

import (
	"fmt"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/SlpAus/daily-puzzle-backend/pkg/lifecycle"
)

// sweepInterval 是过期心跳清理的周期。
const sweepInterval = 1 * time.Minute

// StartSweepScheduler 启动一个后台Goroutine定期清理过期的在线心跳，
// 把活跃集合的体积维持在较小水平。
func StartSweepScheduler(handle *lifecycle.Handle) {
	defer handle.Close()
	fmt.Println("在线心跳清理调度器已启动。")

	threshold := time.Duration(config.Cfg.Game.PresenceThresholdSeconds) * time.Second

	for {
		if err := handle.Sleep(sweepInterval); err != nil {
			fmt.Printf("心跳清理调度器: 休眠被中断，正在关闭... (%v)\n", err)
			return
		}

		if !database.IsRedisHealthy() {
			continue
		}

		removed, err := SweepStale(time.Now(), threshold)
		if err != nil {
			fmt.Printf("心跳清理调度器错误: %v\n", err)
			continue
		}
		if removed > 0 {
			fmt.Printf("心跳清理调度器: 已清理 %d 条过期心跳。\n", removed)
		}
	}
}
