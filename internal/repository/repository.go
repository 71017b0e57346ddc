// Package repository adapts the persistence repositories to the ports the
// application services depend on. It converts string days into calendar
// days and maps persistence sentinel errors onto application ones.
package repository

import (
	"errors"
	"fmt"

	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/calendar"
	"github.com/example/habit-tracker/internal/persistence"
)

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	default:
		return err
	}
}

func dayKey(d calendar.Day) string {
	return d.String()
}

func parseDay(column, value string) (calendar.Day, error) {
	if value == "" {
		return calendar.Day{}, nil
	}
	d, err := calendar.ParseDay(value)
	if err != nil {
		return calendar.Day{}, fmt.Errorf("stored %s: %w", column, err)
	}
	return d, nil
}

// Set bundles the application ports backed by one set of persistence
// repositories.
type Set struct {
	Users       *Users
	Sessions    *Sessions
	Habits      *Habits
	Completions *Completions
	Streaks     *Streaks
}

// Backends lists the persistence repositories a Set is built from.
type Backends struct {
	Users       persistence.UserRepository
	Sessions    persistence.SessionRepository
	Habits      persistence.HabitRepository
	Completions persistence.CompletionRepository
	Streaks     persistence.StreakRepository
}

// NewSet wraps every backend in its adapter.
func NewSet(b Backends) Set {
	return Set{
		Users:       NewUsers(b.Users),
		Sessions:    NewSessions(b.Sessions),
		Habits:      NewHabits(b.Habits),
		Completions: NewCompletions(b.Completions),
		Streaks:     NewStreaks(b.Streaks),
	}
}
