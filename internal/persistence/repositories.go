package persistence

import (
	"context"
	"time"
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// HabitFilter narrows habit listings. An empty UserID lists every habit.
type HabitFilter struct {
	UserID string
}

// HabitRepository exposes CRUD operations for habits.
type HabitRepository interface {
	CreateHabit(ctx context.Context, habit Habit) error
	UpdateHabit(ctx context.Context, habit Habit) error
	GetHabit(ctx context.Context, id string) (Habit, error)
	ListHabits(ctx context.Context, filter HabitFilter) ([]Habit, error)
	// DeleteHabit removes the habit and its streak record. Completions are
	// left in place.
	DeleteHabit(ctx context.Context, id string) error
}

// CompletionFilter narrows completion queries. From and To are inclusive
// "YYYY-MM-DD" bounds and may be empty.
type CompletionFilter struct {
	UserID  string
	HabitID string
	From    string
	To      string
}

// CompletionRepository is the append-only completion ledger.
type CompletionRepository interface {
	// InsertCompletion returns ErrDuplicate when the habit already has a
	// completion on the same day.
	InsertCompletion(ctx context.Context, completion Completion) error
	HasCompletionOn(ctx context.Context, userID, habitID, day string) (bool, error)
	ListCompletions(ctx context.Context, filter CompletionFilter) ([]Completion, error)
}

// StreakRepository stores one streak record per user and habit.
type StreakRepository interface {
	GetStreak(ctx context.Context, userID, habitID string) (Streak, error)
	UpsertStreak(ctx context.Context, streak Streak) error
	ListStreaks(ctx context.Context, userID string) ([]Streak, error)
}
