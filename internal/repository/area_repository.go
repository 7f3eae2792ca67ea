package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielfrg/things-sub001/internal/model"
)

// AreaRepository manages areas.
type AreaRepository struct {
	db *gorm.DB
}

func NewAreaRepository(db *gorm.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

func (r *AreaRepository) GetOrCreate(ctx context.Context, userID, title string) (*model.Area, error) {
	if title == "" {
		return nil, nil
	}

	var area model.Area
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND title = ?", userID, title).First(&area).Error
	switch {
	case err == nil:
		return &area, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		area = model.Area{ID: uuid.NewString(), UserID: userID, Title: title}
		if err := db.Create(&area).Error; err != nil {
			return nil, fmt.Errorf("create area: %w", err)
		}
		return &area, nil
	default:
		return nil, fmt.Errorf("find area: %w", err)
	}
}

func (r *AreaRepository) ListByUser(ctx context.Context, userID string) ([]model.Area, error) {
	var areas []model.Area
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("position ASC, created_at ASC").
		Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}
