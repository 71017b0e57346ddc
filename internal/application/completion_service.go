package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/habit-tracker/internal/calendar"
	"github.com/example/habit-tracker/internal/streak"
)

// CompletionRepository is the append-only completion ledger.
type CompletionRepository interface {
	// InsertCompletion returns ErrAlreadyExists when the habit already has a
	// completion on the same calendar day.
	InsertCompletion(ctx context.Context, completion Completion) (Completion, error)
	HasCompletionOn(ctx context.Context, userID, habitID string, day calendar.Day) (bool, error)
	// ListCompletions returns matching completions ordered by CompletedAt.
	ListCompletions(ctx context.Context, query CompletionQuery) ([]Completion, error)
}

// CompletionService records completions and keeps streak records current.
type CompletionService struct {
	habits      HabitRepository
	completions CompletionRepository
	streaks     StreakRepository
	reconciler  streakReconciler
	idGenerator func() string
	now         func() time.Time
	location    *time.Location
	reports     *ReportCache
	logger      *slog.Logger
}

// NewCompletionService wires dependencies for the completion service. loc
// is the zone calendar days are computed in; nil means UTC.
func NewCompletionService(habits HabitRepository, completions CompletionRepository, streaks StreakRepository, idGenerator func() string, now func() time.Time, loc *time.Location) *CompletionService {
	return NewCompletionServiceWithLogger(habits, completions, streaks, idGenerator, now, loc, nil)
}

// NewCompletionServiceWithLogger wires dependencies for the completion service with a logger.
func NewCompletionServiceWithLogger(habits HabitRepository, completions CompletionRepository, streaks StreakRepository, idGenerator func() string, now func() time.Time, loc *time.Location, logger *slog.Logger) *CompletionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CompletionService{
		habits:      habits,
		completions: completions,
		streaks:     streaks,
		reconciler:  streakReconciler{completions: completions, streaks: streaks, now: now},
		idGenerator: idGenerator,
		now:         now,
		location:    loc,
		logger:      defaultLogger(logger),
	}
}

// UseReportCache makes completions invalidate the owner's cached dashboard reports.
func (s *CompletionService) UseReportCache(cache *ReportCache) {
	s.reports = cache
}

func (s *CompletionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CompletionService", operation, attrs...)
}

func (s *CompletionService) configured() error {
	if s == nil {
		return fmt.Errorf("CompletionService is nil")
	}
	if s.habits == nil || s.completions == nil || s.streaks == nil {
		return fmt.Errorf("completion service repositories not configured")
	}
	return nil
}

// MarkComplete records that the principal completed the habit today and
// advances its streak.
//
// A second completion on the same day fails with ErrAlreadyCompleted and
// leaves the streak untouched. When the completion is stored but the streak
// cannot be updated, the returned error is a *StreakUpdateError carrying the
// stored completion.
func (s *CompletionService) MarkComplete(ctx context.Context, params MarkCompleteParams) (result MarkCompleteResult, err error) {
	if err = s.configured(); err != nil {
		return
	}

	habitID := strings.TrimSpace(params.HabitID)
	logger := s.loggerWith(ctx, "MarkComplete",
		"principal_id", params.Principal.UserID,
		"habit_id", habitID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "mark complete failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"day", result.Completion.Day.String(),
			"transition", string(result.Transition),
			"current_streak", result.Streak.Current,
			"longest_streak", result.Streak.Longest,
		).InfoContext(ctx, "habit completed")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if habitID == "" {
		vErr := &ValidationError{}
		vErr.add("habitId", "habitId is required")
		err = vErr
		return
	}

	var habit Habit
	habit, err = loadOwnedHabit(ctx, s.habits, params.Principal, habitID)
	if err != nil {
		if isNotFound(err) {
			vErr := &ValidationError{}
			vErr.add("habitId", "habit not found")
			err = vErr
		}
		return
	}

	now := s.now()
	today := calendar.DayOf(now, s.location)

	var completion Completion
	completion, err = s.completions.InsertCompletion(ctx, Completion{
		ID:          s.idGenerator(),
		UserID:      habit.UserID,
		HabitID:     habit.ID,
		Day:         today,
		CompletedAt: now.UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			err = ErrAlreadyCompleted
		}
		return
	}
	result.Completion = completion
	s.reports.Invalidate(habit.UserID)

	var rec Streak
	var transition streak.Transition
	rec, transition, err = s.advanceStreak(ctx, habit, today)
	if err != nil {
		err = &StreakUpdateError{Completion: completion, Err: err}
		return
	}

	result.Streak = rec
	result.Transition = transition
	return
}

func (s *CompletionService) advanceStreak(ctx context.Context, habit Habit, today calendar.Day) (Streak, streak.Transition, error) {
	yesterday := today.Prev()
	completedYesterday, err := s.completions.HasCompletionOn(ctx, habit.UserID, habit.ID, yesterday)
	if err != nil {
		return Streak{}, "", err
	}

	stored, err := s.reconciler.stored(ctx, habit)
	if err != nil {
		return Streak{}, "", err
	}

	if completedYesterday && (stored == nil || !stored.CurrentEnd.Equal(yesterday)) {
		// An earlier streak write was lost; the log knows better.
		events, err := s.reconciler.habitCompletions(ctx, habit)
		if err != nil {
			return Streak{}, "", err
		}
		rec, _, err := s.reconciler.repair(ctx, habit, stored, events, false)
		if err != nil {
			return Streak{}, "", err
		}
		return rec, streak.Rebuilt, nil
	}

	var existing *streak.Record
	if stored != nil {
		existing = &stored.Record
	}
	next, transition := streak.Advance(existing, today, completedYesterday)

	rec := Streak{
		UserID:    habit.UserID,
		HabitID:   habit.ID,
		Record:    next,
		UpdatedAt: s.now(),
	}
	if err := s.streaks.UpsertStreak(ctx, rec); err != nil {
		return Streak{}, "", err
	}
	return rec, transition, nil
}

// ListHabitCompletions returns the completions of an owned habit ordered by
// time. Zero From/To days leave that bound open.
func (s *CompletionService) ListHabitCompletions(ctx context.Context, params ListCompletionsParams) (completions []Completion, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListHabitCompletions",
		"principal_id", params.Principal.UserID,
		"habit_id", params.HabitID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "completion listing failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "completions listed", "count", len(completions))
	}()

	if !params.From.IsZero() && !params.To.IsZero() && params.From.After(params.To) {
		vErr := &ValidationError{}
		vErr.add("from", "from must not be after to")
		err = vErr
		return
	}

	var habit Habit
	habit, err = loadOwnedHabit(ctx, s.habits, params.Principal, params.HabitID)
	if err != nil {
		return
	}

	completions, err = s.completions.ListCompletions(ctx, CompletionQuery{
		UserID:  habit.UserID,
		HabitID: habit.ID,
		From:    params.From,
		To:      params.To,
	})
	return
}

// ReconcileStreaks rebuilds the streak record of every habit of userID (or of
// every user when userID is empty) from the completion log and stores the
// records that differ.
func (s *CompletionService) ReconcileStreaks(ctx context.Context, userID string) (result ReconcileResult, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ReconcileStreaks", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "streak reconciliation failed", "error", err, "error_kind", ErrorKind(err),
				"checked", result.Checked, "repaired", result.Repaired)
			return
		}
		logger.InfoContext(ctx, "streaks reconciled", "checked", result.Checked, "repaired", result.Repaired)
	}()

	var habits []Habit
	habits, err = s.habits.ListHabits(ctx, strings.TrimSpace(userID))
	if err != nil {
		return
	}

	for _, habit := range habits {
		if err = ctx.Err(); err != nil {
			return
		}

		var events []Completion
		events, err = s.reconciler.habitCompletions(ctx, habit)
		if err != nil {
			return
		}
		var stored *Streak
		stored, err = s.reconciler.stored(ctx, habit)
		if err != nil {
			return
		}

		var repaired bool
		if _, repaired, err = s.reconciler.repair(ctx, habit, stored, events, false); err != nil {
			return
		}
		result.Checked++
		if repaired {
			result.Repaired++
		}
	}
	return
}
