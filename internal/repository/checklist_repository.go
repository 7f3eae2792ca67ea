package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielfrg/things-sub001/internal/model"
)

// ChecklistRepository manages checklist items under tasks.
type ChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

func (r *ChecklistRepository) CreateItem(ctx context.Context, taskID, title string, position int) (*model.ChecklistItem, error) {
	item := model.ChecklistItem{
		ID:       uuid.NewString(),
		TaskID:   taskID,
		Title:    title,
		Position: position,
	}
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create checklist item: %w", err)
	}
	return &item, nil
}

func (r *ChecklistRepository) ListByTask(ctx context.Context, taskID string) ([]model.ChecklistItem, error) {
	var items []model.ChecklistItem
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
