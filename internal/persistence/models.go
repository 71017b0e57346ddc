package persistence

import "time"

// User represents an account owning habits.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Habit is a tracked habit. Frequency is "daily" or "weekly".
type Habit struct {
	ID           string
	UserID       string
	Title        string
	Frequency    string
	ReminderTime string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Completion is one entry of the append-only completion ledger. Day is the
// canonical calendar day of CompletedAt in "YYYY-MM-DD" form and is unique per
// user and habit.
type Completion struct {
	ID          string
	UserID      string
	HabitID     string
	Day         string
	CompletedAt time.Time
}

// Streak is the mutable streak record of one habit. Date fields use
// "YYYY-MM-DD".
type Streak struct {
	UserID       string
	HabitID      string
	Current      int
	Longest      int
	CurrentStart string
	CurrentEnd   string
	LongestStart string
	LongestEnd   string
	UpdatedAt    time.Time
}
