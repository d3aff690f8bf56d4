package rotation

import (
	"fmt"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/pkg/civilday"
	"github.com/SlpAus/daily-puzzle-backend/pkg/lifecycle"
	"github.com/jonboulle/clockwork"
)

// boundaryGrace 是日终定时器在自然日边界之后额外等待的余量，
// 避免定时器因时钟精度在边界前一瞬间触发而空转。
const boundaryGrace = 50 * time.Millisecond

// schedulerClock 是调度器使用的时钟。生产环境为真实时钟；
// 测试中可替换为clockwork的FakeClock以确定性地推进时间。
var schedulerClock clockwork.Clock = clockwork.NewRealClock()

// SetClockForTesting 替换调度器时钟，仅供测试使用。
func SetClockForTesting(clock clockwork.Clock) {
	schedulerClock = clock
}

// StartBoundaryScheduler 启动日终精确触发器：为下一个自然日边界安排一个
// 一次性定时器，触发后执行轮换检查并重新武装下一天的定时器。
func StartBoundaryScheduler(handle *lifecycle.Handle) {
	defer handle.Close()
	fmt.Println("日终轮换调度器已启动。")

	for {
		now := schedulerClock.Now()
		bounds := civilday.DayBounds(now, config.Cfg.Game.UTCOffsetHours)
		wait := bounds.End.Sub(now) + boundaryGrace

		timer := schedulerClock.NewTimer(wait)
		select {
		case <-handle.Done():
			stopAndDrainTimer(timer)
			fmt.Println("日终轮换调度器: 收到停机信号，正在关闭...")
			return
		case <-timer.Chan():
			if _, err := RotateIfNeeded(schedulerClock.Now()); err != nil {
				fmt.Printf("日终轮换调度器错误: 轮换尝试失败: %v\n", err)
			}
		}
	}
}

// StartFallbackScheduler 启动兜底触发器：以固定间隔重复执行轮换检查，
// 用于弥补日终触发器因停机或时钟跳变而错过的触发。
// 轮换检查本身是幂等的，多余的调用只会命中过期闸门。
func StartFallbackScheduler(handle *lifecycle.Handle) {
	defer handle.Close()
	fmt.Println("兜底轮换调度器已启动。")

	interval := time.Duration(config.Cfg.Game.FallbackIntervalMinutes) * time.Minute

	for {
		if err := handle.Sleep(interval); err != nil {
			fmt.Printf("兜底轮换调度器: 休眠被中断，正在关闭... (%v)\n", err)
			return
		}

		if _, err := RotateIfNeeded(time.Now()); err != nil {
			fmt.Printf("兜底轮换调度器错误: 轮换尝试失败: %v\n", err)
		}
	}
}

// stopAndDrainTimer 安全地停止定时器并清空其channel，避免Goroutine泄漏。
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
