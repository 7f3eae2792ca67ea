// Package recurrence parses and evaluates repeat expressions at calendar-day
// granularity.
//
// The constrained forms are "daily", "weekly:<weekday>", "monthly:<1-31>" and
// "monthly:last". Anything else is treated as a standard cron expression and
// handed to the robfig/cron parser, which serves as the general-purpose
// evaluator; only that branch can run out of occurrences. cron stops searching
// roughly five years out, so a valid spec whose next match lies beyond that
// horizon is reported as exhausted too.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrMalformedRecurrence = errors.New("recurrence: malformed expression")
	ErrNoFurtherOccurrence = errors.New("recurrence: no further occurrence")
)

type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindCron    Kind = "cron"
)

// Rule is the parsed form of a recurrence expression.
type Rule struct {
	Kind     Kind
	Weekday  time.Weekday // weekly only
	MonthDay int          // monthly only, 1-31
	LastDay  bool         // monthly:last
	Expr     string

	sched cron.Schedule // cron only
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Parse decodes a recurrence expression. Expressions outside the constrained
// forms must be valid cron specs; everything else fails with
// ErrMalformedRecurrence.
func Parse(raw string) (Rule, error) {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		return Rule{}, fmt.Errorf("%w: empty expression", ErrMalformedRecurrence)
	}
	low := strings.ToLower(expr)
	switch {
	case low == "daily":
		return Rule{Kind: KindDaily, Expr: expr}, nil
	case strings.HasPrefix(low, "weekly:"):
		name := strings.TrimPrefix(low, "weekly:")
		day, ok := weekdays[name]
		if !ok {
			return Rule{}, fmt.Errorf("%w: unknown weekday %q", ErrMalformedRecurrence, name)
		}
		return Rule{Kind: KindWeekly, Weekday: day, Expr: expr}, nil
	case strings.HasPrefix(low, "monthly:"):
		arg := strings.TrimPrefix(low, "monthly:")
		if arg == "last" {
			return Rule{Kind: KindMonthly, LastDay: true, Expr: expr}, nil
		}
		day, err := strconv.Atoi(arg)
		if err != nil || day < 1 || day > 31 {
			return Rule{}, fmt.Errorf("%w: month day %q", ErrMalformedRecurrence, arg)
		}
		return Rule{Kind: KindMonthly, MonthDay: day, Expr: expr}, nil
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrMalformedRecurrence, err)
	}
	return Rule{Kind: KindCron, Expr: expr, sched: sched}, nil
}

// NextAfter returns the next qualifying calendar date strictly after the given
// date, or false if the expression has no further occurrence. Any time-of-day
// component of after is ignored.
func (r Rule) NextAfter(after time.Time) (time.Time, bool) {
	day := Day(after)
	switch r.Kind {
	case KindDaily:
		return day.AddDate(0, 0, 1), true
	case KindWeekly:
		offset := (int(r.Weekday) - int(day.Weekday()) + 7) % 7
		if offset == 0 {
			// Same weekday: the match must be strictly after, not equal.
			offset = 7
		}
		return day.AddDate(0, 0, offset), true
	case KindMonthly:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		target := r.MonthDay
		if last := daysIn(first.Year(), first.Month()); r.LastDay || target > last {
			target = last
		}
		return time.Date(first.Year(), first.Month(), target, 0, 0, 0, 0, time.UTC), true
	case KindCron:
		// The first activation at or past the next midnight. cron reports
		// exhaustion as the zero time.
		next := r.sched.Next(day.AddDate(0, 0, 1).Add(-time.Second))
		if next.IsZero() {
			return time.Time{}, false
		}
		return Day(next), true
	default:
		return time.Time{}, false
	}
}

// Preview returns the next count occurrence dates after the given date. Used
// for schedule previews in rule editors.
func (r Rule) Preview(after time.Time, count int) []time.Time {
	out := make([]time.Time, 0, count)
	cursor := after
	for i := 0; i < count; i++ {
		next, ok := r.NextAfter(cursor)
		if !ok {
			break
		}
		out = append(out, next)
		cursor = next
	}
	return out
}

// NextAfter parses raw and evaluates it in one step.
func NextAfter(raw string, after time.Time) (time.Time, bool, error) {
	rule, err := Parse(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	next, ok := rule.NextAfter(after)
	return next, ok, nil
}

// Day normalizes a time to its calendar date, midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
