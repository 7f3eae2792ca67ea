package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielfrg/things-sub001/internal/model"
	"github.com/danielfrg/things-sub001/internal/recurrence"
	"github.com/danielfrg/things-sub001/internal/repository"
)

// Materializer converts due repeating rules into concrete task instances,
// exactly once per (rule, occurrence) pair, and advances each rule's schedule
// pointer.
type Materializer struct {
	rules      RuleStore
	tasks      TaskStore
	checklists ChecklistStore
	tags       TagStore
	log        logrus.FieldLogger
}

func NewMaterializer(rules RuleStore, tasks TaskStore, checklists ChecklistStore, tags TagStore, log logrus.FieldLogger) *Materializer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Materializer{rules: rules, tasks: tasks, checklists: checklists, tags: tags, log: log}
}

// MaterializeResult reports one materialization pass.
type MaterializeResult struct {
	CreatedTaskIDs []string
	Failures       []RuleFailure
}

type RuleFailure struct {
	RuleID string
	Err    error
}

// MaterializeDue runs the per-rule state machine for every due rule of the
// owner. Rules are processed independently: a failure on one rule is recorded
// and the batch continues. Safe to invoke more than once per day; a repeat
// pass finds the already-created instances and creates nothing.
func (m *Materializer) MaterializeDue(ctx context.Context, userID string, today time.Time) (MaterializeResult, error) {
	due, err := m.rules.DueRules(ctx, userID, today)
	if err != nil {
		return MaterializeResult{}, fmt.Errorf("due rules: %w", err)
	}

	var res MaterializeResult
	for _, rule := range due {
		createdID, err := m.materializeRule(ctx, rule)
		if createdID != "" {
			res.CreatedTaskIDs = append(res.CreatedTaskIDs, createdID)
		}
		if err != nil {
			m.log.WithFields(logrus.Fields{
				"rule_id":    rule.ID,
				"user_id":    rule.UserID,
				"occurrence": recurrence.Day(rule.NextOccurrence).Format("2006-01-02"),
			}).WithError(err).Warn("materialize rule failed")
			res.Failures = append(res.Failures, RuleFailure{RuleID: rule.ID, Err: err})
		}
	}
	return res, nil
}

// MaterializeAll runs MaterializeDue for every owner with active rules.
func (m *Materializer) MaterializeAll(ctx context.Context, today time.Time) (MaterializeResult, error) {
	owners, err := m.rules.Owners(ctx)
	if err != nil {
		return MaterializeResult{}, fmt.Errorf("rule owners: %w", err)
	}

	var total MaterializeResult
	for _, owner := range owners {
		res, err := m.MaterializeDue(ctx, owner, today)
		if err != nil {
			m.log.WithField("user_id", owner).WithError(err).Error("materialize pass failed")
			continue
		}
		total.CreatedTaskIDs = append(total.CreatedTaskIDs, res.CreatedTaskIDs...)
		total.Failures = append(total.Failures, res.Failures...)
	}
	return total, nil
}

// CatchUp runs MaterializeAll repeatedly until a pass creates no tasks. A
// single pass spawns one occurrence per rule, so occurrences that accrued
// over several days without a pass need one pass per missed day; each pass
// strictly advances every rule it spawns for, which bounds the loop by the
// deepest backlog. A rule that fails on every pass is reported once.
func (m *Materializer) CatchUp(ctx context.Context, today time.Time) (MaterializeResult, error) {
	var total MaterializeResult
	failed := map[string]bool{}
	for {
		res, err := m.MaterializeAll(ctx, today)
		if err != nil {
			return total, err
		}
		total.CreatedTaskIDs = append(total.CreatedTaskIDs, res.CreatedTaskIDs...)
		for _, failure := range res.Failures {
			if failed[failure.RuleID] {
				continue
			}
			failed[failure.RuleID] = true
			total.Failures = append(total.Failures, failure)
		}
		if len(res.CreatedTaskIDs) == 0 {
			return total, nil
		}
	}
}

// materializeRule runs check-existing, spawn, advance for a single rule. It
// returns the id of the task it created, if any, alongside the error: a spawn
// can succeed and the advance still fail.
func (m *Materializer) materializeRule(ctx context.Context, rule model.RepeatingRule) (string, error) {
	// An unparseable expression fails the rule before any task is created.
	rec, err := recurrence.Parse(rule.Recurrence)
	if err != nil {
		return "", err
	}

	occurrence := recurrence.Day(rule.NextOccurrence)

	existing, err := m.tasks.FindByRuleAndDate(ctx, rule.ID, occurrence)
	if err != nil {
		return "", fmt.Errorf("find existing instance: %w", err)
	}

	var createdID string
	if existing == nil {
		task, err := m.spawn(ctx, rule, occurrence)
		if err != nil {
			// Not advanced: the next pass retries this occurrence, and the
			// check-existing step absorbs any partially created task.
			return "", err
		}
		createdID = task.ID
	}

	return createdID, m.advance(ctx, rule, rec, occurrence)
}

// spawn creates the concrete task for one occurrence, copying the rule's
// content snapshot. Templates are decoded up front so a bad snapshot never
// leaves a half-built task behind.
func (m *Materializer) spawn(ctx context.Context, rule model.RepeatingRule, occurrence time.Time) (*model.Task, error) {
	titles, err := rule.ChecklistTitles()
	if err != nil {
		return nil, err
	}
	tagIDs, err := rule.TagIDs()
	if err != nil {
		return nil, err
	}

	ruleID := rule.ID
	task := &model.Task{
		UserID:          rule.UserID,
		Title:           rule.Title,
		Notes:           rule.Notes,
		Status:          model.TaskStatusScheduled,
		ScheduledDate:   &occurrence,
		Placement:       rule.Placement,
		RepeatingRuleID: &ruleID,
	}
	if err := m.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	for i, title := range titles {
		if _, err := m.checklists.CreateItem(ctx, task.ID, title, i); err != nil {
			return nil, fmt.Errorf("create checklist item: %w", err)
		}
	}
	for _, tagID := range tagIDs {
		if err := m.tags.CreateTaskTag(ctx, task.ID, tagID); err != nil {
			return nil, fmt.Errorf("create task tag: %w", err)
		}
	}
	return task, nil
}

// advance moves the rule's pointer to the following occurrence, or retires the
// rule if the expression is exhausted.
func (m *Materializer) advance(ctx context.Context, rule model.RepeatingRule, rec recurrence.Rule, occurrence time.Time) error {
	next, ok := rec.NextAfter(occurrence)
	if !ok {
		if err := m.rules.SoftDelete(ctx, rule.UserID, rule.ID); err != nil {
			return fmt.Errorf("retire rule: %w", err)
		}
		m.log.WithFields(logrus.Fields{
			"rule_id": rule.ID,
			"user_id": rule.UserID,
		}).Info("repeating rule exhausted, retired")
		return nil
	}

	changes := repository.RuleChanges{NextOccurrence: &next}
	if err := m.rules.Update(ctx, rule.UserID, rule.ID, changes); err != nil {
		return fmt.Errorf("advance rule: %w", err)
	}
	return nil
}
