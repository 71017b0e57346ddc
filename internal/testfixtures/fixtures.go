package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/calendar"
	"github.com/example/habit-tracker/internal/persistence"
)

var (
	userCounter       uint64
	habitCounter      uint64
	completionCounter uint64
)

// referenceTime is a Friday morning in UTC.
var referenceTime = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDay returns the calendar day of ReferenceTime in UTC.
func ReferenceDay() calendar.Day {
	return calendar.DayOf(referenceTime, time.UTC)
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account.
type UserFixture struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(-time.Duration(idx) * time.Hour)
	fixture := UserFixture{
		ID:           id,
		Name:         fmt.Sprintf("User %03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Principal returns the principal of the fixture's owner.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Habit fixtures -----------------------------

// HabitFixture represents a deterministic habit.
type HabitFixture struct {
	ID           string
	UserID       string
	Title        string
	Frequency    analytics.Frequency
	ReminderTime string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HabitOption configures the generated habit fixture.
type HabitOption func(*HabitFixture)

// NewHabitFixture returns a daily habit owned by userID.
func NewHabitFixture(userID string, opts ...HabitOption) HabitFixture {
	idx := atomic.AddUint64(&habitCounter, 1)
	created := referenceTime.Add(-30 * 24 * time.Hour).Add(time.Duration(idx) * time.Minute)
	fixture := HabitFixture{
		ID:        fmt.Sprintf("habit-%03d", idx),
		UserID:    userID,
		Title:     fmt.Sprintf("Habit %03d", idx),
		Frequency: analytics.Daily,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithHabitID overrides the generated habit ID.
func WithHabitID(id string) HabitOption {
	return func(f *HabitFixture) {
		f.ID = id
	}
}

// WithHabitFrequency overrides the frequency.
func WithHabitFrequency(frequency analytics.Frequency) HabitOption {
	return func(f *HabitFixture) {
		f.Frequency = frequency
	}
}

// WithHabitReminder sets the reminder time.
func WithHabitReminder(hhmm string) HabitOption {
	return func(f *HabitFixture) {
		f.ReminderTime = hhmm
	}
}

// Application returns the fixture as an application.Habit value.
func (f HabitFixture) Application() application.Habit {
	return application.Habit{
		ID:           f.ID,
		UserID:       f.UserID,
		Title:        f.Title,
		Frequency:    f.Frequency,
		ReminderTime: f.ReminderTime,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Habit value.
func (f HabitFixture) Persistence() persistence.Habit {
	return persistence.Habit{
		ID:           f.ID,
		UserID:       f.UserID,
		Title:        f.Title,
		Frequency:    string(f.Frequency),
		ReminderTime: f.ReminderTime,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// -------------------------- Completion fixtures --------------------------

// CompletionFixture represents one completion of a habit.
type CompletionFixture struct {
	ID          string
	UserID      string
	HabitID     string
	Day         calendar.Day
	CompletedAt time.Time
}

// NewCompletionFixture returns a completion of habit at 09:00 UTC on day.
func NewCompletionFixture(habit HabitFixture, day calendar.Day) CompletionFixture {
	idx := atomic.AddUint64(&completionCounter, 1)
	return CompletionFixture{
		ID:          fmt.Sprintf("completion-%03d", idx),
		UserID:      habit.UserID,
		HabitID:     habit.ID,
		Day:         day,
		CompletedAt: day.Time().Add(9 * time.Hour),
	}
}

// CompletionRun returns one completion per day for the n days ending at end.
func CompletionRun(habit HabitFixture, end calendar.Day, n int) []CompletionFixture {
	out := make([]CompletionFixture, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, NewCompletionFixture(habit, end.AddDays(-i)))
	}
	return out
}

// Application returns the fixture as an application.Completion value.
func (f CompletionFixture) Application() application.Completion {
	return application.Completion{
		ID:          f.ID,
		UserID:      f.UserID,
		HabitID:     f.HabitID,
		Day:         f.Day,
		CompletedAt: f.CompletedAt,
	}
}

// Persistence returns the fixture as a persistence.Completion value.
func (f CompletionFixture) Persistence() persistence.Completion {
	return persistence.Completion{
		ID:          f.ID,
		UserID:      f.UserID,
		HabitID:     f.HabitID,
		Day:         f.Day.String(),
		CompletedAt: f.CompletedAt,
	}
}
