package stats

import (
	"gorm.io/gorm"
)

// Solve 定义了单次有效解谜在SQLite中的追加式记录。
// 它是审计与重建统计的依据，去重之后才会写入。
type Solve struct {
	gorm.Model

	// ParticipantID 是解谜者的不透明标识
	ParticipantID string `gorm:"type:varchar(36);index"`

	// PuzzleSourceID 是被解开谜题的标识
	PuzzleSourceID string `gorm:"type:varchar(36);index"`

	// ClueIndex 是猜中时已披露到的线索序号
	ClueIndex int
}

// Snapshot 定义了活跃统计数据在SQLite中的备份快照。
// 这张表中只有一行（固定主键SnapshotRowID），定期由备份调度器覆盖更新。
type Snapshot struct {
	ID uint `gorm:"primarykey"`

	// CountersJSON 是计数哈希表的JSON序列化
	CountersJSON string

	// SolversJSON 是去重标记哈希表的JSON序列化
	SolversJSON string
}

// SnapshotRowID 是快照单例行使用的固定主键。
const SnapshotRowID uint = 1
