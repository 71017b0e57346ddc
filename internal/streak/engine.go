// Package streak implements the per-habit streak state machine.
//
// A streak counts consecutive calendar days with a completion, ending at the
// most recent completion. The engine is pure: callers decide whether the day
// before the new completion was also completed and persist the result.
package streak

import (
	"sort"

	"github.com/example/habit-tracker/internal/calendar"
)

// Record is the streak state kept for one habit.
type Record struct {
	Current      int
	Longest      int
	CurrentStart calendar.Day
	CurrentEnd   calendar.Day
	LongestStart calendar.Day
	LongestEnd   calendar.Day
}

// Transition names the branch Advance took.
type Transition string

const (
	Initialized Transition = "initialized"
	Continued   Transition = "continued"
	Reset       Transition = "reset"
	// Rebuilt marks a record recomputed from the completion log.
	Rebuilt Transition = "rebuilt"
)

// Advance returns the record that results from completing the habit on today.
//
// existing is nil for the first completion ever. completedYesterday reports
// whether the habit already has a completion on the day before today. Advance
// must be called at most once per day for a habit; duplicate suppression is
// the caller's job.
func Advance(existing *Record, today calendar.Day, completedYesterday bool) (Record, Transition) {
	if existing == nil {
		return Record{
			Current:      1,
			Longest:      1,
			CurrentStart: today,
			CurrentEnd:   today,
			LongestStart: today,
			LongestEnd:   today,
		}, Initialized
	}

	next := *existing
	if completedYesterday {
		next.Current++
		next.CurrentEnd = today
		if next.Current > next.Longest {
			next.Longest = next.Current
			next.LongestStart = next.CurrentStart
			next.LongestEnd = next.CurrentEnd
		}
		return next, Continued
	}

	next.Current = 1
	next.CurrentStart = today
	next.CurrentEnd = today
	if next.Longest < 1 {
		next.Longest = 1
		next.LongestStart = today
		next.LongestEnd = today
	}
	return next, Reset
}

// Rebuild derives the record implied by a set of completion days by replaying
// Advance over them in order. Duplicate days collapse. It returns nil when
// days is empty.
func Rebuild(days []calendar.Day) *Record {
	unique := uniqueSorted(days)
	if len(unique) == 0 {
		return nil
	}

	var rec *Record
	var prev calendar.Day
	for i, day := range unique {
		completedYesterday := i > 0 && prev.Next().Equal(day)
		next, _ := Advance(rec, day, completedYesterday)
		rec = &next
		prev = day
	}
	return rec
}

// Stale reports whether rec lags behind the latest completion day, which
// happens when an event was stored but the streak write that should have
// followed it failed.
func Stale(rec *Record, latest calendar.Day) bool {
	if latest.IsZero() {
		return false
	}
	if rec == nil {
		return true
	}
	return rec.CurrentEnd.Before(latest)
}

// Valid reports whether rec satisfies the record invariants.
func (r Record) Valid() bool {
	if r.Current < 0 || r.Longest < 0 || r.Longest < r.Current {
		return false
	}
	if r.Current > 0 && r.CurrentEnd.Sub(r.CurrentStart)+1 != r.Current {
		return false
	}
	return true
}

func uniqueSorted(days []calendar.Day) []calendar.Day {
	if len(days) == 0 {
		return nil
	}
	sorted := make([]calendar.Day, 0, len(days))
	for _, d := range days {
		if !d.IsZero() {
			sorted = append(sorted, d)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	out := make([]calendar.Day, 0, len(sorted))
	for _, d := range sorted {
		if n := len(out); n > 0 && out[n-1].Equal(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}
