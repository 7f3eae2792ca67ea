package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielfrg/things-sub001/internal/model"
	"github.com/danielfrg/things-sub001/internal/recurrence"
	"github.com/danielfrg/things-sub001/internal/repository"
)

func TestMaterializeDailyExactlyOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	rule := &model.RepeatingRule{
		UserID:         "u1",
		Recurrence:     "daily",
		NextOccurrence: day,
		Title:          "Water plants",
		Notes:          "the ferns first",
	}
	require.NoError(t, e.rules.Create(ctx, rule))

	res, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Empty(t, res.Failures)
	require.Len(t, res.CreatedTaskIDs, 1)

	task, err := e.tasks.GetByID(ctx, res.CreatedTaskIDs[0])
	require.NoError(t, err)
	require.Equal(t, "Water plants", task.Title)
	require.Equal(t, "the ferns first", task.Notes)
	require.Equal(t, model.TaskStatusScheduled, task.Status)
	require.NotNil(t, task.ScheduledDate)
	require.True(t, task.ScheduledDate.Equal(day))
	require.NotNil(t, task.RepeatingRuleID)
	require.Equal(t, rule.ID, *task.RepeatingRuleID)

	got, err := e.rules.GetByID(ctx, "u1", rule.ID)
	require.NoError(t, err)
	require.True(t, got.NextOccurrence.Equal(day.AddDate(0, 0, 1)), "got %s", got.NextOccurrence)
}

func TestMaterializeIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: day, Title: "Stretch"}
	require.NoError(t, e.rules.Create(ctx, rule))

	first, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, first.CreatedTaskIDs, 1)

	second, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Empty(t, second.CreatedTaskIDs)
	require.Empty(t, second.Failures)

	tasks, err := e.tasks.ListByRule(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// Advanced exactly once: the rule is no longer due today, so the second
	// pass could not double-advance it.
	got, err := e.rules.GetByID(ctx, "u1", rule.ID)
	require.NoError(t, err)
	require.True(t, got.NextOccurrence.Equal(day.AddDate(0, 0, 1)))
}

func TestMaterializeSkipsExistingInstance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: day, Title: "Stretch"}
	require.NoError(t, e.rules.Create(ctx, rule))

	// A crash between spawn and advance leaves the instance behind with the
	// rule pointer unmoved. The next pass must only advance.
	require.NoError(t, e.tasks.Create(ctx, &model.Task{
		UserID:          "u1",
		Title:           "Stretch",
		Status:          model.TaskStatusScheduled,
		ScheduledDate:   &day,
		RepeatingRuleID: &rule.ID,
	}))

	res, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Empty(t, res.CreatedTaskIDs)
	require.Empty(t, res.Failures)

	tasks, err := e.tasks.ListByRule(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	got, err := e.rules.GetByID(ctx, "u1", rule.ID)
	require.NoError(t, err)
	require.True(t, got.NextOccurrence.Equal(day.AddDate(0, 0, 1)))
}

func TestMaterializeCopiesChecklistAndTags(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	tag, err := e.tags.GetOrCreate(ctx, "u1", "home")
	require.NoError(t, err)

	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: day, Title: "Water plants"}
	require.NoError(t, rule.SetChecklistTitles([]string{"Fill can", "Water ferns"}))
	require.NoError(t, rule.SetTagIDs([]string{tag.ID}))
	require.NoError(t, e.rules.Create(ctx, rule))

	res, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, res.CreatedTaskIDs, 1)

	items, err := e.checklists.ListByTask(ctx, res.CreatedTaskIDs[0])
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Fill can", items[0].Title)
	require.Equal(t, 0, items[0].Position)
	require.Equal(t, "Water ferns", items[1].Title)
	require.Equal(t, 1, items[1].Position)

	tagIDs, err := e.tags.ListTagIDsByTask(ctx, res.CreatedTaskIDs[0])
	require.NoError(t, err)
	require.Equal(t, []string{tag.ID}, tagIDs)
}

func TestMaterializeCommutative(t *testing.T) {
	day := date(2025, time.March, 10)
	ctx := context.Background()

	// Final store state per rule title, independent of processing order.
	run := func(t *testing.T, titles []string) map[string]time.Time {
		e := newEnv(t)
		ids := map[string]string{}
		for _, title := range titles {
			rule := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: day, Title: title}
			require.NoError(t, e.rules.Create(ctx, rule))
			ids[title] = rule.ID
		}

		res, err := e.materializer.MaterializeDue(ctx, "u1", day)
		require.NoError(t, err)
		require.Empty(t, res.Failures)
		require.Len(t, res.CreatedTaskIDs, len(titles))

		state := map[string]time.Time{}
		for title, id := range ids {
			tasks, err := e.tasks.ListByRule(ctx, id)
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			rule, err := e.rules.GetByID(ctx, "u1", id)
			require.NoError(t, err)
			state[title] = recurrence.Day(rule.NextOccurrence)
		}
		return state
	}

	forward := run(t, []string{"A", "B"})
	backward := run(t, []string{"B", "A"})
	require.Equal(t, forward, backward)
}

// flakyTaskStore rejects inserts for one title to simulate a store failure on
// a single rule in the batch.
type flakyTaskStore struct {
	*repository.TaskRepository
	failTitle string
}

func (f *flakyTaskStore) Create(ctx context.Context, task *model.Task) error {
	if task.Title == f.failTitle {
		return errors.New("insert rejected")
	}
	return f.TaskRepository.Create(ctx, task)
}

func TestMaterializeFailureIsolation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	good := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: day, Title: "good"}
	bad := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: day, Title: "bad"}
	require.NoError(t, e.rules.Create(ctx, good))
	require.NoError(t, e.rules.Create(ctx, bad))

	flaky := NewMaterializer(e.rules, &flakyTaskStore{e.tasks, "bad"}, e.checklists, e.tags, quietLogger())

	res, err := flaky.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, res.CreatedTaskIDs, 1)
	require.Len(t, res.Failures, 1)
	require.Equal(t, bad.ID, res.Failures[0].RuleID)

	// The failed rule is not advanced, so the next healthy pass retries the
	// same occurrence.
	gotBad, err := e.rules.GetByID(ctx, "u1", bad.ID)
	require.NoError(t, err)
	require.True(t, gotBad.NextOccurrence.Equal(day))
	gotGood, err := e.rules.GetByID(ctx, "u1", good.ID)
	require.NoError(t, err)
	require.True(t, gotGood.NextOccurrence.Equal(day.AddDate(0, 0, 1)))

	retry, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, retry.CreatedTaskIDs, 1)
	require.Empty(t, retry.Failures)
}

func TestMaterializeMalformedRecurrenceReported(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "every other day", NextOccurrence: day, Title: "broken"}
	require.NoError(t, e.rules.Create(ctx, rule))

	res, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Empty(t, res.CreatedTaskIDs)
	require.Len(t, res.Failures, 1)
	require.ErrorIs(t, res.Failures[0].Err, recurrence.ErrMalformedRecurrence)

	tasks, err := e.tasks.ListByRule(ctx, rule.ID)
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestMaterializeExhaustionRetirement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "0 0 30 2 *", NextOccurrence: day, Title: "bounded"}
	require.NoError(t, e.rules.Create(ctx, rule))

	// The final occurrence was already spawned on an earlier pass.
	require.NoError(t, e.tasks.Create(ctx, &model.Task{
		UserID:          "u1",
		Title:           "bounded",
		Status:          model.TaskStatusScheduled,
		ScheduledDate:   &day,
		RepeatingRuleID: &rule.ID,
	}))

	res, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Empty(t, res.CreatedTaskIDs)
	require.Empty(t, res.Failures)

	_, err = e.rules.GetByID(ctx, "u1", rule.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMaterializeExhaustionFinalSpawn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "0 0 30 2 *", NextOccurrence: day, Title: "bounded"}
	require.NoError(t, e.rules.Create(ctx, rule))

	// The pending occurrence itself still spawns; retirement happens on the
	// advance step after it.
	res, err := e.materializer.MaterializeDue(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, res.CreatedTaskIDs, 1)
	require.Empty(t, res.Failures)

	_, err = e.rules.GetByID(ctx, "u1", rule.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMaterializeOneOccurrencePerPass(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := date(2025, time.March, 10)
	today := start.AddDate(0, 0, 2)

	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: start, Title: "Stretch"}
	require.NoError(t, e.rules.Create(ctx, rule))

	// Each pass materializes one occurrence per rule and advances the
	// pointer; catching up over a gap takes one pass per missed day.
	for wantTotal := 1; wantTotal <= 3; wantTotal++ {
		res, err := e.materializer.MaterializeDue(ctx, "u1", today)
		require.NoError(t, err)
		require.Len(t, res.CreatedTaskIDs, 1)

		tasks, err := e.tasks.ListByRule(ctx, rule.ID)
		require.NoError(t, err)
		require.Len(t, tasks, wantTotal)
	}

	got, err := e.rules.GetByID(ctx, "u1", rule.ID)
	require.NoError(t, err)
	require.True(t, got.NextOccurrence.Equal(today.AddDate(0, 0, 1)))

	res, err := e.materializer.MaterializeDue(ctx, "u1", today)
	require.NoError(t, err)
	require.Empty(t, res.CreatedTaskIDs)
}

func TestCatchUpDrainsBacklog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := date(2025, time.March, 17)
	today := start.AddDate(0, 0, 3)

	// Three days of missed occurrences, as after a daemon outage.
	rule := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: start, Title: "Stretch"}
	require.NoError(t, e.rules.Create(ctx, rule))

	res, err := e.materializer.CatchUp(ctx, today)
	require.NoError(t, err)
	require.Len(t, res.CreatedTaskIDs, 4) // start through today inclusive
	require.Empty(t, res.Failures)

	tasks, err := e.tasks.ListByRule(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	require.True(t, tasks[0].ScheduledDate.Equal(start))
	require.True(t, tasks[3].ScheduledDate.Equal(today))

	// Fully caught up: the rule points past today and no lag remains.
	got, err := e.rules.GetByID(ctx, "u1", rule.ID)
	require.NoError(t, err)
	require.True(t, got.NextOccurrence.Equal(today.AddDate(0, 0, 1)), "got %s", got.NextOccurrence)

	again, err := e.materializer.CatchUp(ctx, today)
	require.NoError(t, err)
	require.Empty(t, again.CreatedTaskIDs)
}

func TestCatchUpReportsFailingRuleOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := date(2025, time.March, 17)
	today := start.AddDate(0, 0, 2)

	good := &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: start, Title: "good"}
	bad := &model.RepeatingRule{UserID: "u1", Recurrence: "every other day", NextOccurrence: start, Title: "bad"}
	require.NoError(t, e.rules.Create(ctx, good))
	require.NoError(t, e.rules.Create(ctx, bad))

	// The backlog forces several passes; the malformed rule fails on each of
	// them but surfaces as a single failure.
	res, err := e.materializer.CatchUp(ctx, today)
	require.NoError(t, err)
	require.Len(t, res.CreatedTaskIDs, 3)
	require.Len(t, res.Failures, 1)
	require.Equal(t, bad.ID, res.Failures[0].RuleID)
}

func TestMaterializeAllOwners(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := date(2025, time.March, 10)

	require.NoError(t, e.rules.Create(ctx, &model.RepeatingRule{UserID: "u1", Recurrence: "daily", NextOccurrence: day, Title: "one"}))
	require.NoError(t, e.rules.Create(ctx, &model.RepeatingRule{UserID: "u2", Recurrence: "daily", NextOccurrence: day, Title: "two"}))

	res, err := e.materializer.MaterializeAll(ctx, day)
	require.NoError(t, err)
	require.Len(t, res.CreatedTaskIDs, 2)
	require.Empty(t, res.Failures)
}
