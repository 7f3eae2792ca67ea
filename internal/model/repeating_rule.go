package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type RuleStatus string

const (
	RuleStatusActive RuleStatus = "active"
	RuleStatusPaused RuleStatus = "paused"
)

func (s RuleStatus) IsValid() bool {
	switch s {
	case RuleStatusActive, RuleStatusPaused:
		return true
	default:
		return false
	}
}

// RepeatingRule is the persistent template a recurring task is spawned from.
// It is not itself a task: the materializer turns it into concrete Task
// records, one per occurrence, and keeps NextOccurrence pointing at the first
// date not yet materialized.
type RepeatingRule struct {
	ID     string `gorm:"primaryKey"`
	UserID string `gorm:"index"`
	// Recurrence is the encoded repeat expression, parsed by
	// internal/recurrence.
	Recurrence     string
	NextOccurrence time.Time  `gorm:"index"`
	Status         RuleStatus `gorm:"default:active"`

	// Content snapshot copied onto each spawned task.
	Title             string
	Notes             string
	Placement         Placement `gorm:"embedded"`
	ChecklistTemplate string    // JSON array of checklist item titles, in order
	TagTemplate       string    // JSON array of tag ids

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (r *RepeatingRule) ChecklistTitles() ([]string, error) {
	titles, err := DecodeStringList(r.ChecklistTemplate)
	if err != nil {
		return nil, fmt.Errorf("checklist template: %w", err)
	}
	return titles, nil
}

func (r *RepeatingRule) SetChecklistTitles(titles []string) error {
	raw, err := EncodeStringList(titles)
	if err != nil {
		return fmt.Errorf("checklist template: %w", err)
	}
	r.ChecklistTemplate = raw
	return nil
}

func (r *RepeatingRule) TagIDs() ([]string, error) {
	ids, err := DecodeStringList(r.TagTemplate)
	if err != nil {
		return nil, fmt.Errorf("tag template: %w", err)
	}
	return ids, nil
}

func (r *RepeatingRule) SetTagIDs(ids []string) error {
	raw, err := EncodeStringList(ids)
	if err != nil {
		return fmt.Errorf("tag template: %w", err)
	}
	r.TagTemplate = raw
	return nil
}

// EncodeStringList serializes an ordered list for storage in a TEXT column.
// An empty list encodes to the empty string.
func EncodeStringList(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func DecodeStringList(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
