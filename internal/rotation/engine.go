package rotation

import (
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/SlpAus/daily-puzzle-backend/internal/puzzle"
	"github.com/SlpAus/daily-puzzle-backend/internal/stats"
	"github.com/SlpAus/daily-puzzle-backend/pkg/civilday"
	"gorm.io/gorm"
)

// Result 是一次轮换尝试的结果。
type Result struct {
	Rotated bool   `json:"rotated"`
	Reason  string `json:"reason"`
}

// Reason 的取值。queue-empty 是正常的终态，不是错误。
const (
	ReasonRotated    = "rotated"
	ReasonNotExpired = "not-expired"
	ReasonQueueEmpty = "queue-empty"
)

// rotateMu 在进程内串行化所有轮换尝试。
// 四个触发源（日终定时、兜底定时、批准入队、公开触发）都会汇聚到这里；
// 配合下面的数据库事务，保证并发的冗余触发不会产生重复轮换。
var rotateMu sync.Mutex

// RotateIfNeeded 检查展示位是否过期，需要时执行一次轮换。
// 展示位不存在或已过期才会轮换；否则这是一个幂等的空操作。
// 可以被任意频繁地重复调用。
func RotateIfNeeded(now time.Time) (Result, error) {
	return rotate(now, false)
}

// ForceRotate 无条件执行一次轮换（管理员操作），跳过过期判定。
func ForceRotate(now time.Time) (Result, error) {
	return rotate(now, true)
}

// rotate 在一个数据库事务中完成完整的轮换序列：
// 过期判定 -> 归档旧谜题（带统计快照） -> 出队最早的谜题 -> 安装新展示记录 -> 删除队列条目。
// 事务保证失败时存储只会停留在合法状态（无展示、旧展示、新展示三者之一），
// 绝不会出现半写入的记录。
func rotate(now time.Time, force bool) (Result, error) {
	rotateMu.Lock()
	defer rotateMu.Unlock()

	var result Result
	var installedSourceID string
	archivedOld := false

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// 1. 读取展示位
		display, err := puzzle.GetDisplay(tx)
		if err != nil {
			return fmt.Errorf("无法读取展示记录: %w", err)
		}

		// 2. 幂等闸门：展示位存在且未过期时，除非强制，否则不轮换
		if display != nil && !force && !now.After(display.ExpiresAt) {
			result = Result{Rotated: false, Reason: ReasonNotExpired}
			return nil
		}

		// 3. 归档即将下榜的谜题，连同统计数据的最终快照
		if display != nil {
			archive := puzzle.ArchiveEntry{
				SourceID:    display.SourceID,
				Document:    display.Document,
				DisplayedAt: display.DisplayedAt,
				ArchivedAt:  now,
				StatsJSON:   stats.BestEffortArchiveSnapshot(),
			}
			if err := tx.Create(&archive).Error; err != nil {
				return fmt.Errorf("无法写入归档条目: %w", err)
			}
			archivedOld = true
		}

		// 4. 读取队首（FIFO，按入队时间升序，并列按ID升序）
		head, err := puzzle.PeekQueueHead(tx)
		if err != nil {
			return fmt.Errorf("无法读取队列队首: %w", err)
		}
		if head == nil {
			// 队列为空：清空展示位并停在"无谜题"状态，这是预期中的正常情况
			if display != nil {
				if err := puzzle.ClearDisplay(tx); err != nil {
					return fmt.Errorf("无法清空展示位: %w", err)
				}
			}
			result = Result{Rotated: false, Reason: ReasonQueueEmpty}
			return nil
		}

		// 5. 过期时刻取"此刻"所在自然日的日终，而不是谜题入队当天的日终
		bounds := civilday.DayBounds(now, config.Cfg.Game.UTCOffsetHours)

		// 6. 用出队的谜题覆盖展示位单例行
		newDisplay := puzzle.DisplayRecord{
			SourceID:    head.SourceID,
			Document:    head.Document,
			DisplayedAt: now,
			ExpiresAt:   bounds.End,
		}
		if err := puzzle.InstallDisplay(tx, &newDisplay); err != nil {
			return fmt.Errorf("无法安装新的展示记录: %w", err)
		}

		// 7. 从队列中删除已上榜的条目
		if err := tx.Delete(&puzzle.QueueEntry{}, head.ID).Error; err != nil {
			return fmt.Errorf("无法删除队列条目: %w", err)
		}

		installedSourceID = head.SourceID
		result = Result{Rotated: true, Reason: ReasonRotated}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// 8. 事务提交后清空活跃统计数据，让新周期从零开始。
	// 失败只记录不回滚：快照已随归档持久化，残留计数会被下一次清理覆盖。
	if archivedOld || result.Rotated {
		if err := stats.ResetLive(); err != nil {
			fmt.Printf("警告: 轮换后清空统计数据失败: %v\n", err)
		}
	}

	if result.Rotated {
		fmt.Printf("轮换完成: 新谜题已上榜 (source_id=%s)。\n", installedSourceID)
	}
	return result, nil
}
