package application

import (
	"context"
	"time"

	"github.com/example/habit-tracker/internal/calendar"
	"github.com/example/habit-tracker/internal/streak"
)

// streakReconciler repairs stored streak records from the completion log,
// which is the source of truth.
type streakReconciler struct {
	completions CompletionRepository
	streaks     StreakRepository
	now         func() time.Time
}

func (r streakReconciler) habitCompletions(ctx context.Context, habit Habit) ([]Completion, error) {
	return r.completions.ListCompletions(ctx, CompletionQuery{UserID: habit.UserID, HabitID: habit.ID})
}

// stored returns the persisted record of habit, or nil when none exists.
func (r streakReconciler) stored(ctx context.Context, habit Habit) (*Streak, error) {
	rec, err := r.streaks.GetStreak(ctx, habit.UserID, habit.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// repair rebuilds the record of habit from events and stores it if it
// differs from current. With onlyStale set, records that already cover the
// latest completion day are trusted as they are.
func (r streakReconciler) repair(ctx context.Context, habit Habit, current *Streak, events []Completion, onlyStale bool) (Streak, bool, error) {
	empty := Streak{UserID: habit.UserID, HabitID: habit.ID}

	if onlyStale {
		var rec *streak.Record
		if current != nil {
			rec = &current.Record
		}
		if !streak.Stale(rec, latestDay(events)) && (rec == nil || rec.Valid()) {
			if current == nil {
				return empty, false, nil
			}
			return *current, false, nil
		}
	}

	rebuilt := streak.Rebuild(completionDays(events))
	if rebuilt == nil {
		// Nothing in the log to rebuild from; keep whatever is stored.
		if current == nil {
			return empty, false, nil
		}
		return *current, false, nil
	}
	if current != nil && sameRecord(current.Record, *rebuilt) {
		return *current, false, nil
	}

	next := Streak{UserID: habit.UserID, HabitID: habit.ID, Record: *rebuilt, UpdatedAt: r.now()}
	if err := r.streaks.UpsertStreak(ctx, next); err != nil {
		return Streak{}, false, err
	}
	return next, true, nil
}

func completionDays(events []Completion) []calendar.Day {
	days := make([]calendar.Day, 0, len(events))
	for _, e := range events {
		days = append(days, e.Day)
	}
	return days
}

func latestDay(events []Completion) calendar.Day {
	var latest calendar.Day
	for _, e := range events {
		if e.Day.After(latest) {
			latest = e.Day
		}
	}
	return latest
}

func sameRecord(a, b streak.Record) bool {
	return a.Current == b.Current &&
		a.Longest == b.Longest &&
		a.CurrentStart.Equal(b.CurrentStart) &&
		a.CurrentEnd.Equal(b.CurrentEnd) &&
		a.LongestStart.Equal(b.LongestStart) &&
		a.LongestEnd.Equal(b.LongestEnd)
}
