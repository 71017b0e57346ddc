package analytics

import "github.com/example/habit-tracker/internal/calendar"

// DefaultHeatmapDays is the trailing window rendered as a calendar heatmap.
const DefaultHeatmapDays = 180

// TodaySummary is the single-day goal: one unit per habit, whatever its
// frequency.
type TodaySummary struct {
	TotalHabits      int
	TodayCompletions int
	Percentage       int
}

// Today computes the single-day goal for asOf.
func Today(events []Event, habits []Habit, asOf calendar.Day) TodaySummary {
	done := DistinctHabitsOn(FilterHabits(events, habits), asOf)
	return TodaySummary{
		TotalHabits:      len(habits),
		TodayCompletions: done,
		Percentage:       Percentage(done, len(habits)),
	}
}

// DashboardReport aggregates every habit of one user.
type DashboardReport struct {
	HabitCount  int
	Weekly      WindowSummary
	Monthly     WindowSummary
	Yearly      WindowSummary
	DailySeries Series
}

// Dashboard builds the user-wide report. The daily series counts distinct
// habits per day over the trailing heatmapDays ending at asOf.
func Dashboard(events []Event, habits []Habit, asOf calendar.Day, heatmapDays int) DashboardReport {
	if heatmapDays <= 0 {
		heatmapDays = DefaultHeatmapDays
	}
	scoped := FilterHabits(events, habits)
	return DashboardReport{
		HabitCount:  len(habits),
		Weekly:      Summarize(scoped, habits, WeeklyWindow, asOf),
		Monthly:     Summarize(scoped, habits, MonthlyWindow, asOf),
		Yearly:      Summarize(scoped, habits, YearlyWindow, asOf),
		DailySeries: DailySeries(scoped, calendar.Trailing(asOf, heatmapDays), CountDistinctHabits),
	}
}

// HabitReport aggregates a single habit.
type HabitReport struct {
	HabitID     string
	Frequency   Frequency
	Weekly      WindowSummary
	Monthly     WindowSummary
	DailySeries Series
}

// ForHabit builds the report for one habit. Events belonging to other habits
// are ignored.
func ForHabit(events []Event, habit Habit, asOf calendar.Day, heatmapDays int) HabitReport {
	if heatmapDays <= 0 {
		heatmapDays = DefaultHeatmapDays
	}
	scope := []Habit{habit}
	own := FilterHabits(events, scope)
	return HabitReport{
		HabitID:     habit.ID,
		Frequency:   habit.Frequency,
		Weekly:      Summarize(own, scope, WeeklyWindow, asOf),
		Monthly:     Summarize(own, scope, MonthlyWindow, asOf),
		DailySeries: DailySeries(own, calendar.Trailing(asOf, heatmapDays), CountEvents),
	}
}
