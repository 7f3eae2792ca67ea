package model

import (
	"time"

	"gorm.io/gorm"
)

// ChecklistItem is a sub-item of a task, ordered by Position.
type ChecklistItem struct {
	ID        string `gorm:"primaryKey"`
	TaskID    string `gorm:"index"`
	Title     string
	Position  int
	Completed bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
