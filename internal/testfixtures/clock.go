package testfixtures

import (
	"sync"
	"time"

	"github.com/example/habit-tracker/internal/calendar"
)

// Clock provides a controllable time source for tests.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, the shared ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// SetDay moves the clock to hour:00 of day in loc. A nil loc means UTC.
func (c *Clock) SetDay(day calendar.Day, hour int, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	t := day.Time()
	c.Set(time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, loc))
}

// Advance moves the clock forward by the provided duration and returns the
// updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// AdvanceDays moves the clock forward by n whole days.
func (c *Clock) AdvanceDays(n int) time.Time {
	c.mu.Lock()
	c.current = c.current.AddDate(0, 0, n)
	updated := c.current
	c.mu.Unlock()
	return updated
}
