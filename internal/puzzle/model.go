package puzzle

import (
	"time"
)

// Document 定义了一个谜题的核心内容。
// 它在提交、排队、展示、归档四个阶段之间整体流转，内容一经批准不再修改。
type Document struct {
	// Name 是谜底名称
	Name string `json:"name"`

	// SubmittedBy 是投稿人署名
	SubmittedBy string `json:"submittedBy"`

	// Clues 是按披露顺序排列的线索，数量限定为3到10条
	Clues []string `json:"clues" gorm:"serializer:json"`

	// AlternateNames 是谜底的备选写法，用于答案判定
	AlternateNames []string `json:"alternateNames" gorm:"serializer:json"`

	// SubmittedAt 是投稿时刻
	SubmittedAt time.Time `json:"submittedAt"`

	// ApprovedAt 是管理员批准入队的时刻，未批准时为零值
	ApprovedAt time.Time `json:"approvedAt"`
}

// Submission 定义了等待管理员审核的投稿在SQLite中的持久化模型。
type Submission struct {
	ID uint `gorm:"primarykey"`

	// SourceID 是谜题在整个生命周期中保持不变的不透明标识
	SourceID string `gorm:"type:varchar(36);uniqueIndex"`

	Document Document `gorm:"embedded"`
}

// QueueEntry 定义了已批准、等待轮换上榜的谜题队列条目。
// 出队顺序严格按EnqueuedAt升序（FIFO），同刻并列时按自增ID升序。
type QueueEntry struct {
	ID uint `gorm:"primarykey"`

	SourceID string `gorm:"type:varchar(36);uniqueIndex"`

	Document Document `gorm:"embedded"`

	// EnqueuedAt 是入队时刻，是FIFO排序的唯一依据
	EnqueuedAt time.Time `gorm:"index"`
}

// DisplayRecord 定义了当前展示位的单例记录。
// 表中最多只存在一行（固定主键DisplaySlotID）；该行不存在是合法状态，表示当前无谜题。
type DisplayRecord struct {
	ID uint `gorm:"primarykey"`

	SourceID string `gorm:"type:varchar(36)"`

	Document Document `gorm:"embedded"`

	// DisplayedAt 是本条记录被安装到展示位的时刻
	DisplayedAt time.Time

	// ExpiresAt 是安装时刻所在自然日的日终，安装后不再重算
	ExpiresAt time.Time
}

// DisplaySlotID 是展示位单例行使用的固定主键。
const DisplaySlotID uint = 1

// ArchiveEntry 定义了过期谜题的归档记录，只追加、不修改。
type ArchiveEntry struct {
	ID uint `gorm:"primarykey"`

	SourceID string `gorm:"type:varchar(36)"`

	Document Document `gorm:"embedded"`

	// DisplayedAt 是该谜题当初上榜的时刻
	DisplayedAt time.Time

	// ArchivedAt 是归档发生的时刻
	ArchivedAt time.Time `gorm:"index"`

	// StatsJSON 是归档瞬间统计数据的最终快照（JSON文本）
	StatsJSON string
}
