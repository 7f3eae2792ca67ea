package model

import (
	"time"

	"gorm.io/gorm"
)

// Tag is a user-scoped label.
type Tag struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index:idx_user_tag_name,unique"`
	Name      string `gorm:"index:idx_user_tag_name,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TaskTag links a task to a tag.
type TaskTag struct {
	TaskID    string `gorm:"primaryKey"`
	TagID     string `gorm:"primaryKey"`
	CreatedAt time.Time
}
