package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/habit-tracker/internal/analytics"
)

// MaxHabitTitleLength bounds habit titles in characters.
const MaxHabitTitleLength = 200

// HabitRepository captures the persistence operations needed for habits.
type HabitRepository interface {
	CreateHabit(ctx context.Context, habit Habit) (Habit, error)
	UpdateHabit(ctx context.Context, habit Habit) (Habit, error)
	GetHabit(ctx context.Context, id string) (Habit, error)
	// ListHabits returns the habits of userID in creation order. An empty
	// userID lists every habit.
	ListHabits(ctx context.Context, userID string) ([]Habit, error)
	// DeleteHabit removes the habit together with its streak record.
	DeleteHabit(ctx context.Context, id string) error
}

// StreakRepository stores one streak record per user and habit.
type StreakRepository interface {
	GetStreak(ctx context.Context, userID, habitID string) (Streak, error)
	UpsertStreak(ctx context.Context, streak Streak) error
	ListStreaks(ctx context.Context, userID string) ([]Streak, error)
}

// HabitService validates and persists habits on behalf of their owner.
type HabitService struct {
	habits      HabitRepository
	streaks     StreakRepository
	idGenerator func() string
	now         func() time.Time
	reports     *ReportCache
	logger      *slog.Logger
}

// NewHabitService wires dependencies for the habit service.
func NewHabitService(habits HabitRepository, streaks StreakRepository, idGenerator func() string, now func() time.Time) *HabitService {
	return NewHabitServiceWithLogger(habits, streaks, idGenerator, now, nil)
}

// NewHabitServiceWithLogger wires dependencies for the habit service with a logger.
func NewHabitServiceWithLogger(habits HabitRepository, streaks StreakRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *HabitService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &HabitService{
		habits:      habits,
		streaks:     streaks,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// UseReportCache makes habit writes invalidate the owner's cached dashboard reports.
func (s *HabitService) UseReportCache(cache *ReportCache) {
	s.reports = cache
}

func (s *HabitService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "HabitService", operation, attrs...)
}

// CreateHabit validates input and stores a new habit owned by the principal.
func (s *HabitService) CreateHabit(ctx context.Context, params CreateHabitParams) (habit Habit, err error) {
	if s == nil {
		err = fmt.Errorf("HabitService is nil")
		return
	}
	if s.habits == nil {
		err = fmt.Errorf("habit repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateHabit", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "habit creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		s.reports.Invalidate(habit.UserID)
		logger.InfoContext(ctx, "habit created", "habit_id", habit.ID)
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var frequency analytics.Frequency
	frequency, err = validateHabitInput(&params.Input)
	if err != nil {
		return
	}

	now := s.now()
	habit, err = s.habits.CreateHabit(ctx, Habit{
		ID:           s.idGenerator(),
		UserID:       params.Principal.UserID,
		Title:        params.Input.Title,
		Frequency:    frequency,
		ReminderTime: params.Input.ReminderTime,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return
}

// UpdateHabit replaces the mutable fields of an owned habit.
func (s *HabitService) UpdateHabit(ctx context.Context, params UpdateHabitParams) (habit Habit, err error) {
	if s == nil {
		err = fmt.Errorf("HabitService is nil")
		return
	}
	if s.habits == nil {
		err = fmt.Errorf("habit repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateHabit",
		"principal_id", params.Principal.UserID,
		"habit_id", params.HabitID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "habit update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		s.reports.Invalidate(params.Principal.UserID)
		logger.InfoContext(ctx, "habit updated")
	}()

	var existing Habit
	existing, err = s.ownedHabit(ctx, params.Principal, params.HabitID)
	if err != nil {
		return
	}

	var frequency analytics.Frequency
	frequency, err = validateHabitInput(&params.Input)
	if err != nil {
		return
	}

	existing.Title = params.Input.Title
	existing.Frequency = frequency
	existing.ReminderTime = params.Input.ReminderTime
	existing.UpdatedAt = s.now()

	habit, err = s.habits.UpdateHabit(ctx, existing)
	return
}

// GetHabit returns an owned habit. Habits of other users are reported as ErrNotFound.
func (s *HabitService) GetHabit(ctx context.Context, principal Principal, habitID string) (Habit, error) {
	if s == nil {
		return Habit{}, fmt.Errorf("HabitService is nil")
	}
	if s.habits == nil {
		return Habit{}, fmt.Errorf("habit repository not configured")
	}
	return s.ownedHabit(ctx, principal, habitID)
}

// ListHabits returns the principal's habits with their streak records.
func (s *HabitService) ListHabits(ctx context.Context, principal Principal) (items []HabitWithStreak, err error) {
	if s == nil {
		err = fmt.Errorf("HabitService is nil")
		return
	}
	if s.habits == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListHabits", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "habit listing failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "habits listed", "count", len(items))
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var habits []Habit
	habits, err = s.habits.ListHabits(ctx, principal.UserID)
	if err != nil {
		return
	}

	byHabit := make(map[string]Streak)
	if s.streaks != nil {
		var records []Streak
		records, err = s.streaks.ListStreaks(ctx, principal.UserID)
		if err != nil {
			return
		}
		for _, rec := range records {
			byHabit[rec.HabitID] = rec
		}
	}

	items = make([]HabitWithStreak, 0, len(habits))
	for _, h := range habits {
		rec, ok := byHabit[h.ID]
		if !ok {
			rec = Streak{UserID: h.UserID, HabitID: h.ID}
		}
		items = append(items, HabitWithStreak{Habit: h, Streak: rec})
	}
	return
}

// DeleteHabit removes an owned habit and its streak record. Its completions
// stay in the ledger and drop out of analytics.
func (s *HabitService) DeleteHabit(ctx context.Context, principal Principal, habitID string) (err error) {
	if s == nil {
		return fmt.Errorf("HabitService is nil")
	}
	if s.habits == nil {
		return fmt.Errorf("habit repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteHabit",
		"principal_id", principal.UserID,
		"habit_id", habitID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "habit deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		s.reports.Invalidate(principal.UserID)
		logger.InfoContext(ctx, "habit deleted")
	}()

	if _, err = s.ownedHabit(ctx, principal, habitID); err != nil {
		return
	}
	err = s.habits.DeleteHabit(ctx, habitID)
	return
}

func (s *HabitService) ownedHabit(ctx context.Context, principal Principal, habitID string) (Habit, error) {
	return loadOwnedHabit(ctx, s.habits, principal, habitID)
}

func loadOwnedHabit(ctx context.Context, habits HabitRepository, principal Principal, habitID string) (Habit, error) {
	if principal.UserID == "" {
		return Habit{}, ErrUnauthorized
	}
	habitID = strings.TrimSpace(habitID)
	if habitID == "" {
		return Habit{}, ErrNotFound
	}
	habit, err := habits.GetHabit(ctx, habitID)
	if err != nil {
		return Habit{}, err
	}
	if habit.UserID != principal.UserID {
		return Habit{}, ErrNotFound
	}
	return habit, nil
}

// validateHabitInput normalizes input in place and returns the parsed frequency.
func validateHabitInput(input *HabitInput) (analytics.Frequency, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.ReminderTime = strings.TrimSpace(input.ReminderTime)

	vErr := &ValidationError{}
	if input.Title == "" {
		vErr.add("title", "title is required")
	} else if utf8.RuneCountInString(input.Title) > MaxHabitTitleLength {
		vErr.add("title", "title is too long")
	}

	frequency, err := analytics.ParseFrequency(input.Frequency)
	if err != nil {
		vErr.add("frequency", "frequency is invalid")
	}

	if input.ReminderTime != "" {
		if _, err := time.Parse("15:04", input.ReminderTime); err != nil {
			vErr.add("reminderTime", "reminder time is invalid")
		}
	}

	if vErr.HasErrors() {
		return "", vErr
	}
	return frequency, nil
}

// isNotFound reports whether err is a missing-record condition.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
