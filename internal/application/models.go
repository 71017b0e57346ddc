package application

import (
	"time"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/calendar"
	"github.com/example/habit-tracker/internal/streak"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// User is an account as exposed by the services. The password hash never
// leaves UserCredentials.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SignupParams captures the data required to register an account.
type SignupParams struct {
	Name     string
	Email    string
	Password string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful signup or login.
type AuthenticateResult struct {
	User    User
	Session Session
}

// Habit is a user owned habit. The owner never changes after creation.
type Habit struct {
	ID           string
	UserID       string
	Title        string
	Frequency    analytics.Frequency
	ReminderTime string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HabitInput captures caller provided habit fields.
type HabitInput struct {
	Title        string
	Frequency    string
	ReminderTime string
}

// CreateHabitParams wraps the data required to create a habit.
type CreateHabitParams struct {
	Principal Principal
	Input     HabitInput
}

// UpdateHabitParams wraps the data required to update a habit.
type UpdateHabitParams struct {
	Principal Principal
	HabitID   string
	Input     HabitInput
}

// HabitWithStreak pairs a habit with its streak record. Streak is the zero
// record when the habit has never been completed.
type HabitWithStreak struct {
	Habit  Habit
	Streak Streak
}

// Completion is one entry of the append-only completion ledger.
type Completion struct {
	ID          string
	UserID      string
	HabitID     string
	Day         calendar.Day
	CompletedAt time.Time
}

// Streak is the stored streak record of one habit.
type Streak struct {
	UserID  string
	HabitID string
	streak.Record
	UpdatedAt time.Time
}

// MarkCompleteParams identifies the habit being completed.
type MarkCompleteParams struct {
	Principal Principal
	HabitID   string
}

// MarkCompleteResult is the stored completion and the updated streak.
type MarkCompleteResult struct {
	Completion Completion
	Streak     Streak
	Transition streak.Transition
}

// CompletionQuery narrows completion listings. Zero days leave that bound open.
type CompletionQuery struct {
	UserID  string
	HabitID string
	From    calendar.Day
	To      calendar.Day
}

// ListCompletionsParams wraps a habit completion listing request.
type ListCompletionsParams struct {
	Principal Principal
	HabitID   string
	From      calendar.Day
	To        calendar.Day
}

// DashboardStats is the summary shown on the dashboard landing view.
type DashboardStats struct {
	UserName         string
	TotalHabits      int
	TodayCompletions int
	Percentage       int
	Completions      []Completion
	Streaks          []Streak
}

// HabitAnalytics is the per habit analytics payload.
type HabitAnalytics struct {
	Report analytics.HabitReport
	Streak Streak
}

// ReconcileResult counts the habits inspected and repaired by a reconcile run.
type ReconcileResult struct {
	Checked  int
	Repaired int
}
