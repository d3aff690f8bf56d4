package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStores(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	cfg := &config.Config{}
	cfg.Game.SnapshotIntervalMinutes = 10
	config.Cfg = cfg

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.DB = db
	require.NoError(t, database.DB.AutoMigrate(&Solve{}, &Snapshot{}))

	mr := miniredis.RunT(t)
	database.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr
}

func TestSubmitSolveDeduplicatesPerParticipant(t *testing.T) {
	setupTestStores(t)
	puzzleID := uuid.NewString()

	// 第一次提交被计入
	accepted, err := SubmitSolve("p1", puzzleID, 0)
	require.NoError(t, err)
	assert.True(t, accepted)

	counters, err := GetCounters()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counters[0])

	// 同一参与者重复提交不再计入，即使线索序号不同
	accepted, err = SubmitSolve("p1", puzzleID, 2)
	require.NoError(t, err)
	assert.False(t, accepted)

	counters, err = GetCounters()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counters[0])
	assert.Zero(t, counters[2])

	// 不同参与者正常计入
	accepted, err = SubmitSolve("p2", puzzleID, 0)
	require.NoError(t, err)
	assert.True(t, accepted)

	counters, err = GetCounters()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counters[0])

	// SQLite中只有两条被接受的记录
	var solveCount int64
	require.NoError(t, database.DB.Model(&Solve{}).Count(&solveCount).Error)
	assert.Equal(t, int64(2), solveCount)
}

func TestSubmitSolveRejectsEmptyParticipant(t *testing.T) {
	setupTestStores(t)

	accepted, err := SubmitSolve("", uuid.NewString(), 0)
	assert.Error(t, err)
	assert.False(t, accepted)
}

func TestCaptureForArchive(t *testing.T) {
	setupTestStores(t)

	require.NoError(t, database.RDB.HSet(database.Ctx, CountersKey, "0", 3, "2", 1).Err())
	require.NoError(t, database.RDB.HSet(database.Ctx, SolversKey, "p1", "{}", "p2", "{}").Err())

	snapshotJSON, err := CaptureForArchive()
	require.NoError(t, err)

	var snapshot ArchiveSnapshot
	require.NoError(t, json.Unmarshal([]byte(snapshotJSON), &snapshot))
	assert.Equal(t, int64(3), snapshot.Counters[0])
	assert.Equal(t, int64(1), snapshot.Counters[2])
	assert.Equal(t, 2, snapshot.SolverCount)
	assert.False(t, snapshot.CapturedAt.IsZero())
}

func TestResetLiveClearsBothKeys(t *testing.T) {
	setupTestStores(t)

	require.NoError(t, database.RDB.HSet(database.Ctx, CountersKey, "0", 1).Err())
	require.NoError(t, database.RDB.HSet(database.Ctx, SolversKey, "p1", "{}").Err())

	require.NoError(t, ResetLive())

	exists, err := database.RDB.Exists(database.Ctx, CountersKey, SolversKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestSnapshotBackupAndWarmupRoundTrip(t *testing.T) {
	mr := setupTestStores(t)

	_, err := SubmitSolve("p1", uuid.NewString(), 1)
	require.NoError(t, err)
	_, err = SubmitSolve("p2", uuid.NewString(), 1)
	require.NoError(t, err)

	require.NoError(t, CreateSnapshotInDB(context.Background()))

	// 模拟Redis数据丢失后重启恢复
	mr.FlushAll()
	require.NoError(t, WarmupCache())

	counters, err := GetCounters()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counters[1])

	solverCount, err := database.RDB.HLen(database.Ctx, SolversKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), solverCount)

	// 恢复后去重标记依然生效
	accepted, err := SubmitSolve("p1", uuid.NewString(), 1)
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestResetLiveClearsPersistedSnapshot(t *testing.T) {
	mr := setupTestStores(t)

	// 旧周期：一次贡献入账并被备份到SQLite
	_, err := SubmitSolve("p1", uuid.NewString(), 0)
	require.NoError(t, err)
	require.NoError(t, CreateSnapshotInDB(context.Background()))

	// 周期边界：清空活跃统计
	require.NoError(t, ResetLive())

	// 新周期内Redis重启，触发热重建
	mr.FlushAll()
	require.NoError(t, WarmupCache())

	// 旧周期的计数不得复活
	counters, err := GetCounters()
	require.NoError(t, err)
	assert.Empty(t, counters)

	// 旧周期的去重标记不得复活：p1在新周期的首次贡献必须被计入
	accepted, err := SubmitSolve("p1", uuid.NewString(), 1)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestSubmitSolveConcurrentParticipants(t *testing.T) {
	setupTestStores(t)
	puzzleID := uuid.NewString()

	// SQLite对并发写入只有库级锁，测试中把连接池收敛为单连接
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	// 不同参与者的并发提交会相互触发WATCH冲突，
	// 冲突方应重试成功，而不是把冲突作为错误返回
	const participants = 10
	type outcome struct {
		accepted bool
		err      error
	}
	outcomes := make(chan outcome, participants)
	for i := 0; i < participants; i++ {
		participantID := fmt.Sprintf("participant-%d", i)
		go func() {
			accepted, err := SubmitSolve(participantID, puzzleID, 0)
			outcomes <- outcome{accepted, err}
		}()
	}

	for i := 0; i < participants; i++ {
		o := <-outcomes
		require.NoError(t, o.err)
		assert.True(t, o.accepted)
	}

	counters, err := GetCounters()
	require.NoError(t, err)
	assert.Equal(t, int64(participants), counters[0])

	var solveCount int64
	require.NoError(t, database.DB.Model(&Solve{}).Count(&solveCount).Error)
	assert.Equal(t, int64(participants), solveCount)
}

func TestWarmupCacheWithoutSnapshotIsNoOp(t *testing.T) {
	setupTestStores(t)
	require.NoError(t, WarmupCache())

	exists, err := database.RDB.Exists(database.Ctx, CountersKey, SolversKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestBestEffortArchiveSnapshotFallsBackToBackup(t *testing.T) {
	setupTestStores(t)

	require.NoError(t, database.RDB.HSet(database.Ctx, CountersKey, "0", 5).Err())
	require.NoError(t, database.RDB.HSet(database.Ctx, SolversKey, "p1", "{}").Err())
	require.NoError(t, CreateSnapshotInDB(context.Background()))

	// Redis不可用期间应退回SQLite中的备份快照
	database.UpdateStatus(false, "")
	t.Cleanup(func() { database.UpdateStatus(true, "") })

	var snapshot ArchiveSnapshot
	require.NoError(t, json.Unmarshal([]byte(BestEffortArchiveSnapshot()), &snapshot))
	assert.Equal(t, int64(5), snapshot.Counters[0])
	assert.Equal(t, 1, snapshot.SolverCount)
}
