package presence

import (
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// Ping 记录或刷新一个参与者的在线心跳。
func Ping(participantID string, now time.Time) error {
	if participantID == "" {
		return fmt.Errorf("参与者标识为空")
	}
	err := database.RDB.ZAdd(database.Ctx, ActiveKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: participantID,
	}).Err()
	if err != nil {
		return fmt.Errorf("无法写入在线心跳: %w", err)
	}
	return nil
}

// CountLive 统计活跃阈值之内的在线参与者数量。纯读取，不做清理。
func CountLive(now time.Time, threshold time.Duration) (int64, error) {
	min := strconv.FormatInt(now.Add(-threshold).UnixMilli(), 10)
	count, err := database.RDB.ZCount(database.Ctx, ActiveKey, min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("无法统计在线人数: %w", err)
	}
	return count, nil
}

// SweepStale 删除所有超过活跃阈值的过期心跳记录，返回删除的数量。
// 由后台调度器周期性调用，不在读取路径上执行。
func SweepStale(now time.Time, threshold time.Duration) (int64, error) {
	max := strconv.FormatInt(now.Add(-threshold).UnixMilli(), 10)
	removed, err := database.RDB.ZRemRangeByScore(database.Ctx, ActiveKey, "-inf", max).Result()
	if err != nil {
		return 0, fmt.Errorf("无法清理过期心跳: %w", err)
	}
	return removed, nil
}

// ResetCache 清空全部在线心跳。心跳是短暂状态，Redis重启恢复后直接重新累积。
func ResetCache() error {
	if err := database.RDB.Del(database.Ctx, ActiveKey).Err(); err != nil {
		return fmt.Errorf("无法清空在线心跳: %w", err)
	}
	return nil
}
