package model

import (
	"time"

	"gorm.io/gorm"
)

// Area is a long-lived sphere of responsibility (work, health, home).
type Area struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Title     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
