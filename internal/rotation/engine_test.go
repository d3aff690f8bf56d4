package rotation

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/SlpAus/daily-puzzle-backend/internal/puzzle"
	"github.com/SlpAus/daily-puzzle-backend/internal/stats"
	"github.com/SlpAus/daily-puzzle-backend/pkg/civilday"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testOffset = 8

// setupTestStores 为每个测试准备独立的内存SQLite和miniredis实例。
func setupTestStores(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	cfg := &config.Config{}
	cfg.Game.UTCOffsetHours = testOffset
	cfg.Game.FallbackIntervalMinutes = 60
	cfg.Game.PresenceThresholdSeconds = 300
	cfg.Game.SnapshotIntervalMinutes = 10
	config.Cfg = cfg

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.DB = db
	require.NoError(t, database.DB.AutoMigrate(
		&puzzle.Submission{},
		&puzzle.QueueEntry{},
		&puzzle.DisplayRecord{},
		&puzzle.ArchiveEntry{},
		&stats.Solve{},
		&stats.Snapshot{},
	))

	mr := miniredis.RunT(t)
	database.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr
}

func testDocument(name string) puzzle.Document {
	return puzzle.Document{
		Name:        name,
		SubmittedBy: "tester",
		Clues:       []string{"线索一", "线索二", "线索三"},
		SubmittedAt: time.Now(),
		ApprovedAt:  time.Now(),
	}
}

func enqueueTestPuzzle(t *testing.T, name string, enqueuedAt time.Time) puzzle.QueueEntry {
	t.Helper()
	entry := puzzle.QueueEntry{
		SourceID:   uuid.NewString(),
		Document:   testDocument(name),
		EnqueuedAt: enqueuedAt,
	}
	require.NoError(t, database.DB.Create(&entry).Error)
	return entry
}

func TestRotateEmptyQueueNoDisplay(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	result, err := RotateIfNeeded(now)
	require.NoError(t, err)
	assert.False(t, result.Rotated)
	assert.Equal(t, ReasonQueueEmpty, result.Reason)

	// 没有任何存储变更
	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	assert.Nil(t, display)

	var archiveCount int64
	require.NoError(t, database.DB.Model(&puzzle.ArchiveEntry{}).Count(&archiveCount).Error)
	assert.Zero(t, archiveCount)
}

func TestRotatePromotesOldestIntoEmptySlot(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	entryA := enqueueTestPuzzle(t, "甲", now.Add(-2*time.Hour))
	entryB := enqueueTestPuzzle(t, "乙", now.Add(-1*time.Hour))

	result, err := RotateIfNeeded(now)
	require.NoError(t, err)
	assert.True(t, result.Rotated)

	// 展示位变为最早入队的甲，过期时刻是"今天"的日终
	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	require.NotNil(t, display)
	assert.Equal(t, entryA.SourceID, display.SourceID)
	assert.Equal(t, "甲", display.Document.Name)
	expectedEnd := civilday.DayBounds(now, testOffset).End
	assert.Equal(t, expectedEnd.UnixMilli(), display.ExpiresAt.UnixMilli())

	// 甲已不在队列中，乙仍在
	var remaining []puzzle.QueueEntry
	require.NoError(t, database.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, entryB.SourceID, remaining[0].SourceID)

	// 之前没有展示中的谜题，归档不应有新条目
	var archiveCount int64
	require.NoError(t, database.DB.Model(&puzzle.ArchiveEntry{}).Count(&archiveCount).Error)
	assert.Zero(t, archiveCount)
}

func TestRotateArchivesExpiredDisplayWithStats(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	// 昨天上榜、昨天日终过期的谜题甲
	yesterday := now.Add(-24 * time.Hour)
	oldDisplay := puzzle.DisplayRecord{
		SourceID:    uuid.NewString(),
		Document:    testDocument("甲"),
		DisplayedAt: yesterday,
		ExpiresAt:   civilday.DayBounds(yesterday, testOffset).End,
	}
	require.NoError(t, puzzle.InstallDisplay(database.DB, &oldDisplay))
	entryB := enqueueTestPuzzle(t, "乙", now.Add(-time.Hour))

	// 本周期已有一些解谜统计
	require.NoError(t, database.RDB.HSet(database.Ctx, stats.CountersKey, "0", 2, "1", 1).Err())
	require.NoError(t, database.RDB.HSet(database.Ctx, stats.SolversKey, "p1", `{"contributed":true}`).Err())

	result, err := RotateIfNeeded(now)
	require.NoError(t, err)
	assert.True(t, result.Rotated)

	// 归档恰好增加一条，内容是此前展示的甲及其统计快照
	var archives []puzzle.ArchiveEntry
	require.NoError(t, database.DB.Find(&archives).Error)
	require.Len(t, archives, 1)
	assert.Equal(t, oldDisplay.SourceID, archives[0].SourceID)
	assert.Equal(t, "甲", archives[0].Document.Name)

	var snapshot stats.ArchiveSnapshot
	require.NoError(t, json.Unmarshal([]byte(archives[0].StatsJSON), &snapshot))
	assert.Equal(t, int64(2), snapshot.Counters[0])
	assert.Equal(t, int64(1), snapshot.Counters[1])
	assert.Equal(t, 1, snapshot.SolverCount)

	// 展示位变为乙，队列清空
	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	require.NotNil(t, display)
	assert.Equal(t, entryB.SourceID, display.SourceID)

	var queueCount int64
	require.NoError(t, database.DB.Model(&puzzle.QueueEntry{}).Count(&queueCount).Error)
	assert.Zero(t, queueCount)

	// 活跃统计已清空，新周期从零开始
	exists, err := database.RDB.Exists(database.Ctx, stats.CountersKey, stats.SolversKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRotateIsNoOpWithinUnexpiredWindow(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	enqueueTestPuzzle(t, "甲", now.Add(-2*time.Hour))
	enqueueTestPuzzle(t, "乙", now.Add(-time.Hour))

	first, err := RotateIfNeeded(now)
	require.NoError(t, err)
	require.True(t, first.Rotated)

	// 同一未过期窗口内的重复调用全部是空操作
	for i := 0; i < 3; i++ {
		again, err := RotateIfNeeded(now.Add(time.Duration(i) * time.Minute))
		require.NoError(t, err)
		assert.False(t, again.Rotated)
		assert.Equal(t, ReasonNotExpired, again.Reason)
	}

	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	require.NotNil(t, display)
	assert.Equal(t, "甲", display.Document.Name)
}

func TestRotateAfterExpiryPromotesNext(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	enqueueTestPuzzle(t, "甲", now.Add(-2*time.Hour))
	enqueueTestPuzzle(t, "乙", now.Add(-time.Hour))

	first, err := RotateIfNeeded(now)
	require.NoError(t, err)
	require.True(t, first.Rotated)

	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	require.NotNil(t, display)

	// 过期时刻之后的下一次检查完成轮换
	afterExpiry := display.ExpiresAt.Add(time.Second)
	second, err := RotateIfNeeded(afterExpiry)
	require.NoError(t, err)
	assert.True(t, second.Rotated)

	display, err = puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	require.NotNil(t, display)
	assert.Equal(t, "乙", display.Document.Name)

	var archiveCount int64
	require.NoError(t, database.DB.Model(&puzzle.ArchiveEntry{}).Count(&archiveCount).Error)
	assert.Equal(t, int64(1), archiveCount)
}

func TestRotateQueueEmptyClearsExpiredDisplay(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	yesterday := now.Add(-24 * time.Hour)
	oldDisplay := puzzle.DisplayRecord{
		SourceID:    uuid.NewString(),
		Document:    testDocument("甲"),
		DisplayedAt: yesterday,
		ExpiresAt:   civilday.DayBounds(yesterday, testOffset).End,
	}
	require.NoError(t, puzzle.InstallDisplay(database.DB, &oldDisplay))

	result, err := RotateIfNeeded(now)
	require.NoError(t, err)
	assert.False(t, result.Rotated)
	assert.Equal(t, ReasonQueueEmpty, result.Reason)

	// 过期的谜题被归档，展示位回到"无谜题"状态
	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	assert.Nil(t, display)

	var archives []puzzle.ArchiveEntry
	require.NoError(t, database.DB.Find(&archives).Error)
	require.Len(t, archives, 1)
	assert.Equal(t, oldDisplay.SourceID, archives[0].SourceID)
}

func TestForceRotateBypassesExpiryGate(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	enqueueTestPuzzle(t, "甲", now.Add(-2*time.Hour))
	enqueueTestPuzzle(t, "乙", now.Add(-time.Hour))

	first, err := RotateIfNeeded(now)
	require.NoError(t, err)
	require.True(t, first.Rotated)

	// 展示位未过期，但强制轮换仍然换上乙并归档甲
	result, err := ForceRotate(now)
	require.NoError(t, err)
	assert.True(t, result.Rotated)

	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	require.NotNil(t, display)
	assert.Equal(t, "乙", display.Document.Name)

	var archives []puzzle.ArchiveEntry
	require.NoError(t, database.DB.Find(&archives).Error)
	require.Len(t, archives, 1)
	assert.Equal(t, "甲", archives[0].Document.Name)
}

func TestRotateFIFOTieBrokenByID(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	sameInstant := now.Add(-time.Hour)
	first := enqueueTestPuzzle(t, "甲", sameInstant)
	enqueueTestPuzzle(t, "乙", sameInstant)

	result, err := RotateIfNeeded(now)
	require.NoError(t, err)
	require.True(t, result.Rotated)

	display, err := puzzle.GetDisplay(database.DB)
	require.NoError(t, err)
	require.NotNil(t, display)
	assert.Equal(t, first.SourceID, display.SourceID)
}

func TestConcurrentRotationTriggersRotateOnce(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	enqueueTestPuzzle(t, "甲", now.Add(-2*time.Hour))
	enqueueTestPuzzle(t, "乙", now.Add(-time.Hour))

	// 模拟四个独立触发源同时到达
	type attempt struct {
		result Result
		err    error
	}
	attempts := make(chan attempt, 4)
	for i := 0; i < 4; i++ {
		go func() {
			result, err := RotateIfNeeded(now)
			attempts <- attempt{result, err}
		}()
	}

	rotatedCount := 0
	for i := 0; i < 4; i++ {
		a := <-attempts
		require.NoError(t, a.err)
		if a.result.Rotated {
			rotatedCount++
		}
	}
	assert.Equal(t, 1, rotatedCount)

	// 只消耗了一个队列条目
	var queueCount int64
	require.NoError(t, database.DB.Model(&puzzle.QueueEntry{}).Count(&queueCount).Error)
	assert.Equal(t, int64(1), queueCount)
}
