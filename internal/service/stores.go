package service

import (
	"context"
	"time"

	"github.com/danielfrg/things-sub001/internal/model"
	"github.com/danielfrg/things-sub001/internal/repository"
)

// Store interfaces consumed by the scheduling core. internal/repository
// satisfies them; they are declared here so the core depends on behavior, not
// on a concrete store.

type RuleStore interface {
	Create(ctx context.Context, rule *model.RepeatingRule) error
	GetByID(ctx context.Context, userID, id string) (*model.RepeatingRule, error)
	Update(ctx context.Context, userID, id string, changes repository.RuleChanges) error
	SoftDelete(ctx context.Context, userID, id string) error
	DueRules(ctx context.Context, userID string, today time.Time) ([]model.RepeatingRule, error)
	Owners(ctx context.Context) ([]string, error)
}

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	FindByRuleAndDate(ctx context.Context, ruleID string, date time.Time) (*model.Task, error)
	Trash(ctx context.Context, id string) error
}

type ChecklistStore interface {
	CreateItem(ctx context.Context, taskID, title string, position int) (*model.ChecklistItem, error)
	ListByTask(ctx context.Context, taskID string) ([]model.ChecklistItem, error)
}

type TagStore interface {
	CreateTaskTag(ctx context.Context, taskID, tagID string) error
	ListTagIDsByTask(ctx context.Context, taskID string) ([]string, error)
}
