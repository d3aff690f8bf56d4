package rotation

import (
	"testing"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/SlpAus/daily-puzzle-backend/internal/puzzle"
	"github.com/SlpAus/daily-puzzle-backend/pkg/civilday"
	"github.com/SlpAus/daily-puzzle-backend/pkg/lifecycle"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestBoundarySchedulerRotatesAtDayEnd(t *testing.T) {
	setupTestStores(t)
	now := time.Now()

	enqueueTestPuzzle(t, "甲", now.Add(-2*time.Hour))
	enqueueTestPuzzle(t, "乙", now.Add(-time.Hour))

	first, err := RotateIfNeeded(now)
	require.NoError(t, err)
	require.True(t, first.Rotated)

	fakeClock := clockwork.NewFakeClockAt(now)
	SetClockForTesting(fakeClock)
	t.Cleanup(func() { SetClockForTesting(clockwork.NewRealClock()) })

	manager := lifecycle.NewManager()
	handle, err := manager.NewServiceHandle("rotation-boundary")
	require.NoError(t, err)
	go StartBoundaryScheduler(handle)

	// 等待调度器为日终边界武装好定时器，再把时钟推过边界
	fakeClock.BlockUntil(1)
	bounds := civilday.DayBounds(now, testOffset)
	fakeClock.Advance(bounds.End.Sub(now) + boundaryGrace + time.Millisecond)

	require.Eventually(t, func() bool {
		display, err := puzzle.GetDisplay(database.DB)
		return err == nil && display != nil && display.Document.Name == "乙"
	}, 2*time.Second, 10*time.Millisecond, "日终触发后应换上队首的乙")

	manager.Shutdown()
	require.Nil(t, manager.WaitWithTimeout(time.Second))
}

func TestBoundarySchedulerStopsOnShutdown(t *testing.T) {
	setupTestStores(t)

	fakeClock := clockwork.NewFakeClockAt(time.Now())
	SetClockForTesting(fakeClock)
	t.Cleanup(func() { SetClockForTesting(clockwork.NewRealClock()) })

	manager := lifecycle.NewManager()
	handle, err := manager.NewServiceHandle("rotation-boundary")
	require.NoError(t, err)
	go StartBoundaryScheduler(handle)

	fakeClock.BlockUntil(1)
	manager.Shutdown()
	require.Nil(t, manager.WaitWithTimeout(time.Second))
}
