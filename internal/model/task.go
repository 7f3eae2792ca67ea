package model

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusInbox     TaskStatus = "inbox"
	TaskStatusScheduled TaskStatus = "scheduled"
	TaskStatusSomeday   TaskStatus = "someday"
	TaskStatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusInbox, TaskStatusScheduled, TaskStatusSomeday, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Task is a single actionable item. A task spawned from a repeating rule
// carries the rule id as a back-reference; apart from that it is a normal,
// freely editable record.
type Task struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	Title         string
	Notes         string
	Status        TaskStatus `gorm:"default:inbox"`
	ScheduledDate *time.Time `gorm:"uniqueIndex:idx_task_rule_date,priority:2,where:deleted_at IS NULL"`
	Placement     Placement  `gorm:"embedded"`
	// At most one non-trashed task exists per (RepeatingRuleID, ScheduledDate)
	// pair. The materializer's check-existing step maintains this; the partial
	// unique index enforces it in the schema. NULL rule ids never collide.
	RepeatingRuleID *string `gorm:"uniqueIndex:idx_task_rule_date,priority:1,where:deleted_at IS NULL"`
	Position        int
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}
