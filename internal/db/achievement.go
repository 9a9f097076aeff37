package db

import (
	"time"

	"gorm.io/gorm"
)

// Achievement 记录某个 session 已完成的成就。
// 多选一成就直接以所选分支的名称写入 Name；(session_id, category, name) 唯一，保证重复勾选幂等。
// Slot 是成就本身的标识（单名成就即名称，多选一成就为全部分支拼接），(session_id, category, slot) 唯一，
// 同一成就的不同分支因此只能占一行。
type Achievement struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID string    `gorm:"size:64;not null;index;uniqueIndex:idx_achievement_unique,priority:1;uniqueIndex:idx_achievement_slot,priority:1"`
	Category  string    `gorm:"size:64;not null;uniqueIndex:idx_achievement_unique,priority:2;uniqueIndex:idx_achievement_slot,priority:2"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_achievement_unique,priority:3"`
	Slot      string    `gorm:"size:1024;not null;default:'';uniqueIndex:idx_achievement_slot,priority:3"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName keeps the table name used by existing deployments.
func (Achievement) TableName() string {
	return "achievement"
}

// BeforeCreate 单名成就的 slot 即其名称
func (a *Achievement) BeforeCreate(*gorm.DB) error {
	if a.Slot == "" {
		a.Slot = a.Name
	}
	return nil
}
