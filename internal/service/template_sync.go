package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danielfrg/things-sub001/internal/model"
	"github.com/danielfrg/things-sub001/internal/recurrence"
	"github.com/danielfrg/things-sub001/internal/repository"
)

// TemplateSync keeps a rule's content snapshot consistent with the tasks it
// spawns, in both directions: promoting a task into a new rule, and pushing
// edits on a spawned instance back into its template.
type TemplateSync struct {
	rules      RuleStore
	tasks      TaskStore
	checklists ChecklistStore
	tags       TagStore
}

func NewTemplateSync(rules RuleStore, tasks TaskStore, checklists ChecklistStore, tags TagStore) *TemplateSync {
	return &TemplateSync{rules: rules, tasks: tasks, checklists: checklists, tags: tags}
}

// Promote converts an existing task into a new repeating rule, capturing the
// task's current content as the template and trashing the original instance.
// The first occurrence is strictly after startDate, never startDate itself.
func (s *TemplateSync) Promote(ctx context.Context, taskID, recurrenceSpec string, startDate time.Time) (string, error) {
	rec, err := recurrence.Parse(recurrenceSpec)
	if err != nil {
		return "", err
	}
	first, ok := rec.NextAfter(startDate)
	if !ok {
		return "", recurrence.ErrNoFurtherOccurrence
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	titles, tagIDs, err := s.snapshot(ctx, taskID)
	if err != nil {
		return "", err
	}

	rule := &model.RepeatingRule{
		UserID:         task.UserID,
		Recurrence:     recurrenceSpec,
		NextOccurrence: first,
		Status:         model.RuleStatusActive,
		Title:          task.Title,
		Notes:          task.Notes,
		Placement:      task.Placement,
	}
	if err := rule.SetChecklistTitles(titles); err != nil {
		return "", err
	}
	if err := rule.SetTagIDs(tagIDs); err != nil {
		return "", err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return "", err
	}

	// The original is superseded by the template; future instances come from
	// the rule.
	if err := s.tasks.Trash(ctx, taskID); err != nil {
		return "", fmt.Errorf("trash promoted task: %w", err)
	}
	return rule.ID, nil
}

// SyncFromTask overwrites the owning rule's content snapshot with the task's
// current content, so the next spawned instance inherits the edits. A task
// without an owning rule is a no-op.
func (s *TemplateSync) SyncFromTask(ctx context.Context, taskID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.RepeatingRuleID == nil {
		return nil
	}

	titles, tagIDs, err := s.snapshot(ctx, taskID)
	if err != nil {
		return err
	}
	checklistTemplate, err := model.EncodeStringList(titles)
	if err != nil {
		return fmt.Errorf("checklist template: %w", err)
	}
	tagTemplate, err := model.EncodeStringList(tagIDs)
	if err != nil {
		return fmt.Errorf("tag template: %w", err)
	}

	placement := task.Placement
	changes := repository.RuleChanges{
		Title:             &task.Title,
		Notes:             &task.Notes,
		Placement:         &placement,
		ChecklistTemplate: &checklistTemplate,
		TagTemplate:       &tagTemplate,
	}
	return s.rules.Update(ctx, task.UserID, *task.RepeatingRuleID, changes)
}

func (s *TemplateSync) snapshot(ctx context.Context, taskID string) (titles, tagIDs []string, err error) {
	items, err := s.checklists.ListByTask(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("list checklist: %w", err)
	}
	titles = make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}

	tagIDs, err = s.tags.ListTagIDsByTask(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("list tags: %w", err)
	}
	return titles, tagIDs, nil
}
