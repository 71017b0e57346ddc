package repository

import (
	"context"
	"fmt"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/calendar"
	"github.com/example/habit-tracker/internal/persistence"
	"github.com/example/habit-tracker/internal/streak"
)

// Habits implements application.HabitRepository.
type Habits struct {
	repo persistence.HabitRepository
}

func NewHabits(repo persistence.HabitRepository) *Habits {
	return &Habits{repo: repo}
}

func (a *Habits) CreateHabit(ctx context.Context, habit application.Habit) (application.Habit, error) {
	if err := a.repo.CreateHabit(ctx, fromHabit(habit)); err != nil {
		return application.Habit{}, mapError(err)
	}
	return a.GetHabit(ctx, habit.ID)
}

func (a *Habits) UpdateHabit(ctx context.Context, habit application.Habit) (application.Habit, error) {
	if err := a.repo.UpdateHabit(ctx, fromHabit(habit)); err != nil {
		return application.Habit{}, mapError(err)
	}
	return a.GetHabit(ctx, habit.ID)
}

func (a *Habits) GetHabit(ctx context.Context, id string) (application.Habit, error) {
	stored, err := a.repo.GetHabit(ctx, id)
	if err != nil {
		return application.Habit{}, mapError(err)
	}
	return toHabit(stored)
}

func (a *Habits) ListHabits(ctx context.Context, userID string) ([]application.Habit, error) {
	stored, err := a.repo.ListHabits(ctx, persistence.HabitFilter{UserID: userID})
	if err != nil {
		return nil, mapError(err)
	}
	habits := make([]application.Habit, 0, len(stored))
	for _, h := range stored {
		habit, err := toHabit(h)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	return habits, nil
}

func (a *Habits) DeleteHabit(ctx context.Context, id string) error {
	return mapError(a.repo.DeleteHabit(ctx, id))
}

func fromHabit(h application.Habit) persistence.Habit {
	return persistence.Habit{
		ID:           h.ID,
		UserID:       h.UserID,
		Title:        h.Title,
		Frequency:    string(h.Frequency),
		ReminderTime: h.ReminderTime,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}

func toHabit(h persistence.Habit) (application.Habit, error) {
	frequency, err := analytics.ParseFrequency(h.Frequency)
	if err != nil {
		return application.Habit{}, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	return application.Habit{
		ID:           h.ID,
		UserID:       h.UserID,
		Title:        h.Title,
		Frequency:    frequency,
		ReminderTime: h.ReminderTime,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}, nil
}

// Completions implements application.CompletionRepository.
type Completions struct {
	repo persistence.CompletionRepository
}

func NewCompletions(repo persistence.CompletionRepository) *Completions {
	return &Completions{repo: repo}
}

func (a *Completions) InsertCompletion(ctx context.Context, completion application.Completion) (application.Completion, error) {
	err := a.repo.InsertCompletion(ctx, persistence.Completion{
		ID:          completion.ID,
		UserID:      completion.UserID,
		HabitID:     completion.HabitID,
		Day:         dayKey(completion.Day),
		CompletedAt: completion.CompletedAt,
	})
	if err != nil {
		return application.Completion{}, mapError(err)
	}
	return completion, nil
}

func (a *Completions) HasCompletionOn(ctx context.Context, userID, habitID string, day calendar.Day) (bool, error) {
	ok, err := a.repo.HasCompletionOn(ctx, userID, habitID, dayKey(day))
	return ok, mapError(err)
}

func (a *Completions) ListCompletions(ctx context.Context, query application.CompletionQuery) ([]application.Completion, error) {
	stored, err := a.repo.ListCompletions(ctx, persistence.CompletionFilter{
		UserID:  query.UserID,
		HabitID: query.HabitID,
		From:    dayKey(query.From),
		To:      dayKey(query.To),
	})
	if err != nil {
		return nil, mapError(err)
	}
	completions := make([]application.Completion, 0, len(stored))
	for _, c := range stored {
		day, err := parseDay("completion day", c.Day)
		if err != nil {
			return nil, err
		}
		completions = append(completions, application.Completion{
			ID:          c.ID,
			UserID:      c.UserID,
			HabitID:     c.HabitID,
			Day:         day,
			CompletedAt: c.CompletedAt,
		})
	}
	return completions, nil
}

// Streaks implements application.StreakRepository.
type Streaks struct {
	repo persistence.StreakRepository
}

func NewStreaks(repo persistence.StreakRepository) *Streaks {
	return &Streaks{repo: repo}
}

func (a *Streaks) GetStreak(ctx context.Context, userID, habitID string) (application.Streak, error) {
	stored, err := a.repo.GetStreak(ctx, userID, habitID)
	if err != nil {
		return application.Streak{}, mapError(err)
	}
	return toStreak(stored)
}

func (a *Streaks) UpsertStreak(ctx context.Context, rec application.Streak) error {
	return mapError(a.repo.UpsertStreak(ctx, persistence.Streak{
		UserID:       rec.UserID,
		HabitID:      rec.HabitID,
		Current:      rec.Current,
		Longest:      rec.Longest,
		CurrentStart: dayKey(rec.CurrentStart),
		CurrentEnd:   dayKey(rec.CurrentEnd),
		LongestStart: dayKey(rec.LongestStart),
		LongestEnd:   dayKey(rec.LongestEnd),
		UpdatedAt:    rec.UpdatedAt,
	}))
}

func (a *Streaks) ListStreaks(ctx context.Context, userID string) ([]application.Streak, error) {
	stored, err := a.repo.ListStreaks(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	records := make([]application.Streak, 0, len(stored))
	for _, s := range stored {
		rec, err := toStreak(s)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func toStreak(s persistence.Streak) (application.Streak, error) {
	var (
		rec streak.Record
		err error
	)
	rec.Current = s.Current
	rec.Longest = s.Longest
	if rec.CurrentStart, err = parseDay("current_start", s.CurrentStart); err != nil {
		return application.Streak{}, err
	}
	if rec.CurrentEnd, err = parseDay("current_end", s.CurrentEnd); err != nil {
		return application.Streak{}, err
	}
	if rec.LongestStart, err = parseDay("longest_start", s.LongestStart); err != nil {
		return application.Streak{}, err
	}
	if rec.LongestEnd, err = parseDay("longest_end", s.LongestEnd); err != nil {
		return application.Streak{}, err
	}
	return application.Streak{
		UserID:    s.UserID,
		HabitID:   s.HabitID,
		Record:    rec,
		UpdatedAt: s.UpdatedAt,
	}, nil
}
