package model

import (
	"time"

	"gorm.io/gorm"
)

// Project groups tasks toward a common outcome, optionally inside an area.
type Project struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Title     string
	Notes     string
	AreaID    *string `gorm:"index"`
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Heading is a named section inside a project.
type Heading struct {
	ID        string `gorm:"primaryKey"`
	ProjectID string `gorm:"index"`
	Title     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
