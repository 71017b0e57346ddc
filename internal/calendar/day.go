// Package calendar provides canonical calendar-day arithmetic shared by the
// streak engine and the analytics aggregator.
//
// A Day is a civil date with no time-of-day component. Instants are folded
// into days using a single canonical location chosen at start-up, so every
// "today", "yesterday" and window boundary is computed the same way
// regardless of where a request originates.
package calendar

import (
	"fmt"
	"time"
)

// KeyLayout is the bucketing key format used for days, e.g. "2024-03-09".
const KeyLayout = "2006-01-02"

// Day is a calendar date stored as midnight UTC.
type Day struct {
	t time.Time
}

// DayOf floors an instant to its calendar day in loc. A nil loc means UTC.
func DayOf(instant time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	local := instant.In(loc)
	return Date(local.Year(), local.Month(), local.Day())
}

// Date constructs a Day from its civil components. Out of range values are
// normalised the same way time.Date does.
func Date(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a "YYYY-MM-DD" key.
func ParseDay(value string) (Day, error) {
	t, err := time.Parse(KeyLayout, value)
	if err != nil {
		return Day{}, fmt.Errorf("calendar: invalid day %q: %w", value, err)
	}
	return Day{t: t}, nil
}

// MustParseDay is ParseDay for literals known to be valid.
func MustParseDay(value string) Day {
	d, err := ParseDay(value)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the "YYYY-MM-DD" key.
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(KeyLayout)
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// AddDays returns d shifted by n days.
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Prev returns the day before d.
func (d Day) Prev() Day { return d.AddDays(-1) }

// Next returns the day after d.
func (d Day) Next() Day { return d.AddDays(1) }

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool { return d.t.Before(other.t) }

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool { return d.t.After(other.t) }

// Equal reports whether d and other denote the same date.
func (d Day) Equal(other Day) bool { return d.t.Equal(other.t) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Day) Compare(other Day) int { return d.t.Compare(other.t) }

// Sub returns the number of days from other to d.
func (d Day) Sub(other Day) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

// Start returns the first instant of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), 0, 0, 0, 0, loc)
}

// Time returns d as midnight UTC.
func (d Day) Time() time.Time { return d.t }
