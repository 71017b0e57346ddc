package analytics

import (
	"fmt"
	"strings"
)

// Frequency is how often a habit is meant to be performed.
type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// ParseFrequency normalises a frequency string. An empty value means Daily.
func ParseFrequency(value string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return Daily, nil
	case Daily, Weekly:
		return f, nil
	default:
		return "", fmt.Errorf("analytics: unknown frequency %q", value)
	}
}

// WindowKind identifies a rolling aggregation window.
type WindowKind string

const (
	WeeklyWindow  WindowKind = "weekly"
	MonthlyWindow WindowKind = "monthly"
	YearlyWindow  WindowKind = "yearly"
)

// Days returns the window length in days.
func (k WindowKind) Days() int {
	switch k {
	case WeeklyWindow:
		return 7
	case MonthlyWindow:
		return 30
	case YearlyWindow:
		return 365
	default:
		return 0
	}
}

var expectedUnits = map[WindowKind]map[Frequency]int{
	WeeklyWindow:  {Daily: 7, Weekly: 1},
	MonthlyWindow: {Daily: 30, Weekly: 4},
	YearlyWindow:  {Daily: 365, Weekly: 52},
}

// ExpectedUnitsFor returns how many completions one habit of frequency f is
// expected to have within a window of kind k.
func ExpectedUnitsFor(f Frequency, k WindowKind) int {
	return expectedUnits[k][f]
}
