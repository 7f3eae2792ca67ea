package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielfrg/things-sub001/internal/model"
	"github.com/danielfrg/things-sub001/internal/recurrence"
)

// RuleRepository handles CRUD for repeating rules.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create persists a new rule. The caller-supplied NextOccurrence (the anchor
// date) is stored as-is, normalized to day granularity: the anchor itself is
// the first occurrence to spawn.
func (r *RuleRepository) Create(ctx context.Context, rule *model.RepeatingRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Status == "" {
		rule.Status = model.RuleStatusActive
	}
	rule.NextOccurrence = recurrence.Day(rule.NextOccurrence)
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// RuleChanges is a partial update; nil fields are left untouched. A non-nil
// Placement replaces project/heading/area as a unit.
type RuleChanges struct {
	Recurrence        *string
	NextOccurrence    *time.Time
	Status            *model.RuleStatus
	Title             *string
	Notes             *string
	Placement         *model.Placement
	ChecklistTemplate *string
	TagTemplate       *string
}

func (r *RuleRepository) Update(ctx context.Context, userID, id string, changes RuleChanges) error {
	updates := map[string]any{}
	if changes.Recurrence != nil {
		updates["recurrence"] = *changes.Recurrence
	}
	if changes.NextOccurrence != nil {
		updates["next_occurrence"] = recurrence.Day(*changes.NextOccurrence)
	}
	if changes.Status != nil {
		updates["status"] = *changes.Status
	}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.Notes != nil {
		updates["notes"] = *changes.Notes
	}
	if changes.Placement != nil {
		updates["project_id"] = changes.Placement.ProjectID
		updates["heading_id"] = changes.Placement.HeadingID
		updates["area_id"] = changes.Placement.AreaID
	}
	if changes.ChecklistTemplate != nil {
		updates["checklist_template"] = *changes.ChecklistTemplate
	}
	if changes.TagTemplate != nil {
		updates["tag_template"] = *changes.TagTemplate
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.RepeatingRule{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a rule deleted. Deleted rules keep their history but drop
// out of every listing and due-check.
func (r *RuleRepository) SoftDelete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.RepeatingRule{})
	if res.Error != nil {
		return fmt.Errorf("delete rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, userID, id string) (*model.RepeatingRule, error) {
	var rule model.RepeatingRule
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find rule: %w", err)
	}
	return &rule, nil
}

func (r *RuleRepository) ListByUser(ctx context.Context, userID string) ([]model.RepeatingRule, error) {
	var rules []model.RepeatingRule
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// DueRules returns all active rules for the owner whose next occurrence has
// arrived. Ordering is unspecified; the materializer treats rules
// independently.
func (r *RuleRepository) DueRules(ctx context.Context, userID string, today time.Time) ([]model.RepeatingRule, error) {
	var rules []model.RepeatingRule
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND next_occurrence <= ?",
			userID, model.RuleStatusActive, recurrence.Day(today)).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Owners returns the distinct owner ids of all active rules.
func (r *RuleRepository) Owners(ctx context.Context) ([]string, error) {
	var owners []string
	if err := r.db.WithContext(ctx).Model(&model.RepeatingRule{}).
		Where("status = ?", model.RuleStatusActive).
		Distinct().
		Pluck("user_id", &owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}
