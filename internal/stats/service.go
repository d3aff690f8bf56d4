package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// solveMaxRetries 是WATCH冲突时的最大重试次数。
const solveMaxRetries = 5

// SubmitSolve 是记录一次解谜贡献的核心函数。
// 它以参与者的去重标记为原子性依据：标记已存在时直接返回(false, nil)，
// 不做任何计数变更；标记不存在时，在同一个Redis事务中完成计数自增和
// 标记写入。即使同一参与者并发提交，也最多只有一次会被计入。
// WATCH监视的是整张去重标记表，不同参与者的并发提交也会相互触发
// 事务冲突；冲突的一方原地重试，不把冲突暴露给调用方。
func SubmitSolve(participantID, puzzleSourceID string, clueIndex int) (bool, error) {
	if participantID == "" {
		return false, fmt.Errorf("参与者标识为空")
	}

	for i := 0; i < solveMaxRetries; i++ {
		accepted, err := trySubmitSolve(participantID, puzzleSourceID, clueIndex)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return accepted, err
	}
	return false, fmt.Errorf("记录解谜贡献时事务冲突持续超过%d次，已放弃", solveMaxRetries)
}

// trySubmitSolve 执行单次WATCH事务尝试，冲突时错误链中带有redis.TxFailedErr。
func trySubmitSolve(participantID, puzzleSourceID string, clueIndex int) (bool, error) {
	accepted := false
	// 使用Redis的WATCH监视去重标记表，保证读-判-写的原子性
	err := database.RDB.Watch(database.Ctx, func(tx *redis.Tx) error {
		// 1. 检查该参与者在本周期是否已有去重标记
		exists, err := tx.HExists(database.Ctx, SolversKey, participantID).Result()
		if err != nil {
			return fmt.Errorf("无法读取去重标记: %w", err)
		}
		if exists {
			// 已贡献过，幂等地什么都不做
			return nil
		}

		marker := SolveMarker{
			Contributed: true,
			ClueIndex:   clueIndex,
			Timestamp:   time.Now().UnixMilli(),
		}
		markerJSON, _ := json.Marshal(marker)

		// 2. 在同一个事务中完成计数自增和标记写入
		_, err = tx.TxPipelined(database.Ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(database.Ctx, CountersKey, strconv.Itoa(clueIndex), 1)
			pipe.HSet(database.Ctx, SolversKey, participantID, markerJSON)
			return nil
		})
		if err != nil {
			return fmt.Errorf("执行Redis事务失败: %w", err)
		}

		// 3. Redis事务成功后，尝试将解谜记录写入SQLite
		if err := persistSolveRecord(participantID, puzzleSourceID, clueIndex); err != nil {
			fmt.Printf("警告: SQLite写入失败，正在回滚Redis更改: %v\n", err)
			revertRedisChanges(participantID, clueIndex)
			return fmt.Errorf("无法持久化解谜记录，操作已回滚: %w", err)
		}

		accepted = true
		return nil
	}, SolversKey)

	return accepted, err
}

// persistSolveRecord 将单条解谜记录写入SQLite
func persistSolveRecord(participantID, puzzleSourceID string, clueIndex int) error {
	newSolve := Solve{
		ParticipantID:  participantID,
		PuzzleSourceID: puzzleSourceID,
		ClueIndex:      clueIndex,
	}
	return database.DB.Create(&newSolve).Error
}

// revertRedisChanges 执行补偿事务，撤销本次解谜在Redis中的变更。
func revertRedisChanges(participantID string, clueIndex int) {
	pipe := database.RDB.Pipeline()
	pipe.HIncrBy(database.Ctx, CountersKey, strconv.Itoa(clueIndex), -1)
	pipe.HDel(database.Ctx, SolversKey, participantID)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		fmt.Printf("严重错误: Redis补偿事务执行失败: %v\n", err)
	}
}

// GetCounters 返回当前周期的计数映射（线索序号 -> 计数）。
// 纯读取，不涉及去重。
func GetCounters() (map[int]int64, error) {
	raw, err := database.RDB.HGetAll(database.Ctx, CountersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("无法读取解谜计数: %w", err)
	}

	counters := make(map[int]int64, len(raw))
	for field, value := range raw {
		index, err := strconv.Atoi(field)
		if err != nil {
			fmt.Printf("警告: 计数哈希表中存在非法字段 %q，已跳过。\n", field)
			continue
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			fmt.Printf("警告: 计数哈希表字段 %q 的值 %q 非法，已跳过。\n", field, value)
			continue
		}
		counters[index] = count
	}
	return counters, nil
}

// ArchiveSnapshot 是写入归档条目的统计快照文档。
type ArchiveSnapshot struct {
	Counters    map[int]int64 `json:"counters"`
	SolverCount int           `json:"solverCount"`
	CapturedAt  time.Time     `json:"capturedAt"`
}

// CaptureForArchive 原子地读取当前统计数据，序列化为归档用的JSON快照。
func CaptureForArchive() (string, error) {
	// 使用原子事务(TxPipeline)读取，保证计数和标记来自同一瞬间
	pipe := database.RDB.TxPipeline()
	countersCmd := pipe.HGetAll(database.Ctx, CountersKey)
	solverCountCmd := pipe.HLen(database.Ctx, SolversKey)
	if _, err := pipe.Exec(database.Ctx); err != nil && err != redis.Nil {
		return "", fmt.Errorf("无法从Redis原子地读取统计快照: %w", err)
	}

	raw := countersCmd.Val()
	counters := make(map[int]int64, len(raw))
	for field, value := range raw {
		index, errA := strconv.Atoi(field)
		count, errB := strconv.ParseInt(value, 10, 64)
		if errA != nil || errB != nil {
			continue
		}
		counters[index] = count
	}

	snapshot := ArchiveSnapshot{
		Counters:    counters,
		SolverCount: int(solverCountCmd.Val()),
		CapturedAt:  time.Now(),
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("无法序列化统计快照: %w", err)
	}
	return string(snapshotJSON), nil
}

// ResetLive 清空当前周期的统计数据，供轮换后开启新周期。
// 同时清空Redis中的活跃数据和SQLite中的备份快照：
// 两者必须一起归零，否则Redis故障恢复时热重建会从旧快照复活上一周期的统计。
func ResetLive() error {
	if err := database.RDB.Del(database.Ctx, CountersKey, SolversKey).Err(); err != nil {
		return fmt.Errorf("无法清空活跃统计数据: %w", err)
	}
	return ClearSnapshotInDB()
}
