package puzzle

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetDisplay 读取展示位单例行。
// 行不存在时返回(nil, nil)，这是"当前无谜题"的合法状态，不是错误。
func GetDisplay(db *gorm.DB) (*DisplayRecord, error) {
	var record DisplayRecord
	err := db.Where("id = ?", DisplaySlotID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// PeekQueueHead 读取队列中最早入队的条目（FIFO队首），并列时按ID升序决胜。
// 队列为空时返回(nil, nil)。
func PeekQueueHead(db *gorm.DB) (*QueueEntry, error) {
	var entry QueueEntry
	err := db.Order("enqueued_at ASC, id ASC").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// InstallDisplay 将一条新的展示记录写入单例行（不存在则创建，存在则整行覆盖）。
func InstallDisplay(db *gorm.DB, record *DisplayRecord) error {
	record.ID = DisplaySlotID
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(record).Error
}

// ClearDisplay 删除展示位单例行，使展示位回到"无谜题"状态。
func ClearDisplay(db *gorm.DB) error {
	return db.Delete(&DisplayRecord{}, DisplaySlotID).Error
}

// QueueLength 返回当前排队中的谜题数量。
func QueueLength(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&QueueEntry{}).Count(&count).Error
	return count, err
}

// ListArchive 按归档时间倒序返回最近的归档条目。
func ListArchive(db *gorm.DB, limit int) ([]ArchiveEntry, error) {
	var entries []ArchiveEntry
	err := db.Order("archived_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
