// Package analytics reduces completion events into daily series, unique
// habit-day counts and expected-versus-actual percentages.
//
// Every function is a pure reduction over in-memory slices; reading the
// events is the caller's concern.
package analytics

import (
	"math"

	"github.com/example/habit-tracker/internal/calendar"
)

// Habit is the part of a habit the aggregator needs.
type Habit struct {
	ID        string
	Frequency Frequency
}

// Event is one completion, already bucketed into its canonical day.
type Event struct {
	HabitID string
	Day     calendar.Day
}

// CountMode selects how DailySeries counts a day.
type CountMode int

const (
	// CountEvents counts raw events per day. Used for a single habit.
	CountEvents CountMode = iota
	// CountDistinctHabits counts distinct habits per day. Used for the
	// dashboard-wide view.
	CountDistinctHabits
)

// Point is one day of a daily series.
type Point struct {
	Date  calendar.Day
	Count int
}

// Series is a dense, ascending daily series.
type Series []Point

// DateToCount returns the non-zero days of s keyed by "YYYY-MM-DD".
func (s Series) DateToCount() map[string]int {
	out := make(map[string]int, len(s))
	for _, p := range s {
		if p.Count > 0 {
			out[p.Date.String()] = p.Count
		}
	}
	return out
}

// Total sums the counts of s.
func (s Series) Total() int {
	total := 0
	for _, p := range s {
		total += p.Count
	}
	return total
}

type habitDay struct {
	habitID string
	day     calendar.Day
}

// presence is the first phase of every reduction: the set of distinct
// (habit, day) pairs inside the window.
func presence(events []Event, w calendar.Window) map[habitDay]struct{} {
	set := make(map[habitDay]struct{}, len(events))
	for _, e := range events {
		if !w.Contains(e.Day) {
			continue
		}
		set[habitDay{habitID: e.HabitID, day: e.Day}] = struct{}{}
	}
	return set
}

// DailySeries groups events in w by day. Every day of w appears in the
// result, including days with a zero count.
func DailySeries(events []Event, w calendar.Window, mode CountMode) Series {
	counts := make(map[calendar.Day]int)
	switch mode {
	case CountDistinctHabits:
		for pair := range presence(events, w) {
			counts[pair.day]++
		}
	default:
		for _, e := range events {
			if w.Contains(e.Day) {
				counts[e.Day]++
			}
		}
	}

	days := w.Days()
	series := make(Series, 0, len(days))
	for _, d := range days {
		series = append(series, Point{Date: d, Count: counts[d]})
	}
	return series
}

// CountUniqueHabitDays returns the number of distinct (habit, day) pairs in w.
func CountUniqueHabitDays(events []Event, w calendar.Window) int {
	return len(presence(events, w))
}

// DistinctHabitsOn returns how many distinct habits have an event on d.
func DistinctHabitsOn(events []Event, d calendar.Day) int {
	return CountUniqueHabitDays(events, calendar.Window{Start: d, End: d})
}

// ExpectedUnits sums the expected completions of habits over a window of
// kind k.
func ExpectedUnits(habits []Habit, k WindowKind) int {
	total := 0
	for _, h := range habits {
		total += ExpectedUnitsFor(h.Frequency, k)
	}
	return total
}

// Percentage returns round(100*actual/expected) clamped to [0, 100]. It
// returns 0 when expected is zero or negative.
func Percentage(actual, expected int) int {
	if expected <= 0 || actual <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(actual) / float64(expected)))
	if pct > 100 {
		return 100
	}
	return pct
}

// FilterHabits drops events whose habit is not in habits, such as events left
// behind by a deleted habit.
func FilterHabits(events []Event, habits []Habit) []Event {
	known := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		known[h.ID] = struct{}{}
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if _, ok := known[e.HabitID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// WindowSummary is the completion rate over one trailing window.
type WindowSummary struct {
	Kind           WindowKind
	CompletedPairs int
	ExpectedPairs  int
	Percentage     int
	Start          calendar.Day
	End            calendar.Day
}

// Summarize computes the completion rate of habits over the trailing window of
// kind k ending at asOf. Events for habits outside habits contribute nothing.
func Summarize(events []Event, habits []Habit, k WindowKind, asOf calendar.Day) WindowSummary {
	w := calendar.Trailing(asOf, k.Days())
	completed := CountUniqueHabitDays(FilterHabits(events, habits), w)
	expected := ExpectedUnits(habits, k)
	return WindowSummary{
		Kind:           k,
		CompletedPairs: completed,
		ExpectedPairs:  expected,
		Percentage:     Percentage(completed, expected),
		Start:          w.Start,
		End:            w.End,
	}
}
