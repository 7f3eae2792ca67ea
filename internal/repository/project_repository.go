package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielfrg/things-sub001/internal/model"
)

// ProjectRepository manages projects.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetOrCreate(ctx context.Context, userID, title string) (*model.Project, error) {
	if title == "" {
		return nil, nil
	}

	var project model.Project
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND title = ?", userID, title).First(&project).Error
	switch {
	case err == nil:
		return &project, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		project = model.Project{ID: uuid.NewString(), UserID: userID, Title: title}
		if err := db.Create(&project).Error; err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
		return &project, nil
	default:
		return nil, fmt.Errorf("find project: %w", err)
	}
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("position ASC, created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}
