package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/SlpAus/daily-puzzle-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StartBackupScheduler 启动一个后台Goroutine来定期把活跃统计数据备份到SQLite。
// 它接收一个lifecycle.Handle来管理其生命周期。
func StartBackupScheduler(handle *lifecycle.Handle) {
	defer handle.Close()
	fmt.Println("统计数据备份调度器已启动。")

	interval := time.Duration(config.Cfg.Game.SnapshotIntervalMinutes) * time.Minute

	for {
		// 使用可中断的休眠，收到停机信号时立刻退出
		if err := handle.Sleep(interval); err != nil {
			fmt.Printf("备份调度器: 休眠被中断，正在关闭... (%v)\n", err)
			return
		}

		if !database.IsRedisHealthy() {
			fmt.Println("备份调度器: 检测到Redis不可用，跳过本次备份。")
			continue
		}

		if err := CreateSnapshotInDB(handle.Ctx()); err != nil {
			if err != context.Canceled && err != context.DeadlineExceeded {
				fmt.Printf("备份调度器错误: 执行快照备份失败: %v\n", err)
			}
		}
	}
}

// CreateSnapshotInDB 执行一次原子的统计数据快照备份。
func CreateSnapshotInDB(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// 1. 使用原子事务(TxPipeline)从Redis获取快照
	pipe := database.RDB.TxPipeline()
	countersCmd := pipe.HGetAll(database.Ctx, CountersKey)
	solversCmd := pipe.HGetAll(database.Ctx, SolversKey)
	if _, err := pipe.Exec(database.Ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("无法从Redis原子地获取统计快照: %w", err)
	}

	countersJSON, err := json.Marshal(countersCmd.Val())
	if err != nil {
		return fmt.Errorf("无法序列化计数快照: %w", err)
	}
	solversJSON, err := json.Marshal(solversCmd.Val())
	if err != nil {
		return fmt.Errorf("无法序列化去重标记快照: %w", err)
	}

	// 2. 覆盖写入SQLite中的快照单例行
	snapshot := Snapshot{
		ID:           SnapshotRowID,
		CountersJSON: string(countersJSON),
		SolversJSON:  string(solversJSON),
	}
	err = database.DB.Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&snapshot).Error
	if err != nil {
		return fmt.Errorf("无法写入统计快照: %w", err)
	}
	return nil
}

// ClearSnapshotInDB 把SQLite中的快照单例行覆盖为空状态。
// 周期边界必须调用它：否则快照里还留着上一周期的计数和去重标记，
// 若Redis在下一次定期备份前重启，热重建会把旧周期的统计复活到新周期。
func ClearSnapshotInDB() error {
	emptyState, _ := json.Marshal(map[string]string{})
	snapshot := Snapshot{
		ID:           SnapshotRowID,
		CountersJSON: string(emptyState),
		SolversJSON:  string(emptyState),
	}
	err := database.DB.Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&snapshot).Error
	if err != nil {
		return fmt.Errorf("无法清空统计快照: %w", err)
	}
	return nil
}

// BestEffortArchiveSnapshot 返回用于归档的统计快照JSON。
// 优先从Redis原子地读取；Redis不可用时退回SQLite中最近的备份快照；
// 两者都失败时返回空快照，保证轮换本身不被统计读取阻塞。
func BestEffortArchiveSnapshot() string {
	if database.IsRedisHealthy() {
		snapshotJSON, err := CaptureForArchive()
		if err == nil {
			return snapshotJSON
		}
		fmt.Printf("警告: 无法从Redis读取统计快照，退回备份数据: %v\n", err)
	}

	var snapshot Snapshot
	if err := database.DB.First(&snapshot, SnapshotRowID).Error; err == nil {
		counters := make(map[int]int64)
		var raw map[string]string
		if json.Unmarshal([]byte(snapshot.CountersJSON), &raw) == nil {
			for field, value := range raw {
				index, errA := strconv.Atoi(field)
				count, errB := strconv.ParseInt(value, 10, 64)
				if errA == nil && errB == nil {
					counters[index] = count
				}
			}
		}
		var solvers map[string]string
		_ = json.Unmarshal([]byte(snapshot.SolversJSON), &solvers)
		fallback := ArchiveSnapshot{
			Counters:    counters,
			SolverCount: len(solvers),
			CapturedAt:  time.Now(),
		}
		if fallbackJSON, err := json.Marshal(fallback); err == nil {
			return string(fallbackJSON)
		}
	}

	return "{}"
}

// WarmupCache 从SQLite中的快照恢复Redis里的活跃统计数据。
// 在应用启动和Redis重启恢复时调用。
func WarmupCache() error {
	var snapshot Snapshot
	err := database.DB.First(&snapshot, SnapshotRowID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			fmt.Println("无统计快照数据，无需预热统计缓存。")
			return nil
		}
		return fmt.Errorf("无法读取统计快照: %w", err)
	}

	var counters map[string]string
	var solvers map[string]string
	if err := json.Unmarshal([]byte(snapshot.CountersJSON), &counters); err != nil {
		return fmt.Errorf("无法解析计数快照: %w", err)
	}
	if err := json.Unmarshal([]byte(snapshot.SolversJSON), &solvers); err != nil {
		return fmt.Errorf("无法解析去重标记快照: %w", err)
	}

	// 先清空旧键再整体回填，保证缓存与快照一致
	pipe := database.RDB.TxPipeline()
	pipe.Del(database.Ctx, CountersKey, SolversKey)
	if len(counters) > 0 {
		flat := make([]interface{}, 0, len(counters)*2)
		for field, value := range counters {
			flat = append(flat, field, value)
		}
		pipe.HSet(database.Ctx, CountersKey, flat...)
	}
	if len(solvers) > 0 {
		flat := make([]interface{}, 0, len(solvers)*2)
		for field, value := range solvers {
			flat = append(flat, field, value)
		}
		pipe.HSet(database.Ctx, SolversKey, flat...)
	}
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热统计数据到Redis失败: %w", err)
	}

	fmt.Printf("成功预热统计缓存 (%d 个计数, %d 个去重标记)。\n", len(counters), len(solvers))
	return nil
}
