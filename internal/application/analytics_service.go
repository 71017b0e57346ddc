package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/calendar"
)

// DashboardCompletionDays is the trailing window of completions listed on the dashboard.
const DashboardCompletionDays = 30

// AnalyticsService computes dashboard and per habit analytics from the
// completion ledger. Reads are side-effect free except for streak repair on
// the per habit view.
type AnalyticsService struct {
	users       UserStore
	habits      HabitRepository
	completions CompletionRepository
	streaks     StreakRepository
	reconciler  streakReconciler
	now         func() time.Time
	location    *time.Location
	heatmapDays int
	reports     *ReportCache
	logger      *slog.Logger
}

// NewAnalyticsService wires dependencies for the analytics service.
func NewAnalyticsService(users UserStore, habits HabitRepository, completions CompletionRepository, streaks StreakRepository, now func() time.Time, loc *time.Location, heatmapDays int) *AnalyticsService {
	return NewAnalyticsServiceWithLogger(users, habits, completions, streaks, now, loc, heatmapDays, nil)
}

// NewAnalyticsServiceWithLogger wires dependencies for the analytics service with a logger.
func NewAnalyticsServiceWithLogger(users UserStore, habits HabitRepository, completions CompletionRepository, streaks StreakRepository, now func() time.Time, loc *time.Location, heatmapDays int, logger *slog.Logger) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	if heatmapDays <= 0 {
		heatmapDays = analytics.DefaultHeatmapDays
	}
	return &AnalyticsService{
		users:       users,
		habits:      habits,
		completions: completions,
		streaks:     streaks,
		reconciler:  streakReconciler{completions: completions, streaks: streaks, now: now},
		now:         now,
		location:    loc,
		heatmapDays: heatmapDays,
		logger:      defaultLogger(logger),
	}
}

// UseReportCache memoises DashboardAnalytics results in cache.
func (s *AnalyticsService) UseReportCache(cache *ReportCache) {
	s.reports = cache
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

func (s *AnalyticsService) configured() error {
	if s == nil {
		return fmt.Errorf("AnalyticsService is nil")
	}
	if s.habits == nil || s.completions == nil || s.streaks == nil {
		return fmt.Errorf("analytics service repositories not configured")
	}
	return nil
}

func (s *AnalyticsService) today() calendar.Day {
	return calendar.DayOf(s.now(), s.location)
}

// DashboardStats returns today's goal progress, the recent completions and
// the streak records of the principal's habits.
func (s *AnalyticsService) DashboardStats(ctx context.Context, principal Principal) (stats DashboardStats, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DashboardStats", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "dashboard stats failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "dashboard stats computed",
			"total_habits", stats.TotalHabits,
			"today_completions", stats.TodayCompletions,
		)
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	if s.users != nil {
		var user User
		user, err = s.users.GetUser(ctx, principal.UserID)
		if err != nil {
			return
		}
		stats.UserName = user.Name
	}

	var habits []Habit
	habits, err = s.habits.ListHabits(ctx, principal.UserID)
	if err != nil {
		return
	}

	today := s.today()
	window := calendar.Trailing(today, DashboardCompletionDays)
	var completions []Completion
	completions, err = s.completions.ListCompletions(ctx, CompletionQuery{
		UserID: principal.UserID,
		From:   window.Start,
		To:     window.End,
	})
	if err != nil {
		return
	}
	completions = ownedCompletions(completions, habits)

	var records []Streak
	records, err = s.streaks.ListStreaks(ctx, principal.UserID)
	if err != nil {
		return
	}

	summary := analytics.Today(toEvents(completions), toAnalyticsHabits(habits), today)
	stats.TotalHabits = summary.TotalHabits
	stats.TodayCompletions = summary.TodayCompletions
	stats.Percentage = summary.Percentage
	stats.Completions = completions
	stats.Streaks = ownedStreaks(records, habits)
	return
}

// DashboardAnalytics aggregates all habits of the principal over the weekly,
// monthly and yearly windows ending today, plus the heatmap series.
func (s *AnalyticsService) DashboardAnalytics(ctx context.Context, principal Principal) (report analytics.DashboardReport, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DashboardAnalytics", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "dashboard analytics failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "dashboard analytics computed",
			"habit_count", report.HabitCount,
			"weekly_percentage", report.Weekly.Percentage,
			"monthly_percentage", report.Monthly.Percentage,
		)
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	today := s.today()
	if cached, ok := s.reports.get(principal.UserID, today); ok {
		report = cached
		return
	}
	generation := s.reports.generation(principal.UserID)

	var habits []Habit
	habits, err = s.habits.ListHabits(ctx, principal.UserID)
	if err != nil {
		return
	}

	span := max(s.heatmapDays, analytics.YearlyWindow.Days())
	window := calendar.Trailing(today, span)

	var completions []Completion
	completions, err = s.completions.ListCompletions(ctx, CompletionQuery{
		UserID: principal.UserID,
		From:   window.Start,
		To:     window.End,
	})
	if err != nil {
		return
	}

	report = analytics.Dashboard(toEvents(completions), toAnalyticsHabits(habits), today, s.heatmapDays)
	s.reports.store(principal.UserID, today, generation, report)
	return
}

// HabitAnalytics returns the weekly and monthly summaries, heatmap series and
// streak of an owned habit. A streak record that lags behind the completion
// log is rebuilt and stored before it is returned.
func (s *AnalyticsService) HabitAnalytics(ctx context.Context, principal Principal, habitID string) (result HabitAnalytics, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "HabitAnalytics",
		"principal_id", principal.UserID,
		"habit_id", habitID,
	)
	var repaired bool
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "habit analytics failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if repaired {
			logger.WarnContext(ctx, "streak record repaired from completion log",
				"current_streak", result.Streak.Current,
				"longest_streak", result.Streak.Longest,
			)
		}
		logger.DebugContext(ctx, "habit analytics computed")
	}()

	var habit Habit
	habit, err = loadOwnedHabit(ctx, s.habits, principal, habitID)
	if err != nil {
		return
	}

	var completions []Completion
	completions, err = s.reconciler.habitCompletions(ctx, habit)
	if err != nil {
		return
	}

	var stored *Streak
	stored, err = s.reconciler.stored(ctx, habit)
	if err != nil {
		return
	}
	result.Streak, repaired, err = s.reconciler.repair(ctx, habit, stored, completions, true)
	if err != nil {
		return
	}

	result.Report = analytics.ForHabit(toEvents(completions), toAnalyticsHabit(habit), s.today(), s.heatmapDays)
	return
}

func toAnalyticsHabit(h Habit) analytics.Habit {
	return analytics.Habit{ID: h.ID, Frequency: h.Frequency}
}

func toAnalyticsHabits(habits []Habit) []analytics.Habit {
	out := make([]analytics.Habit, 0, len(habits))
	for _, h := range habits {
		out = append(out, toAnalyticsHabit(h))
	}
	return out
}

func toEvents(completions []Completion) []analytics.Event {
	out := make([]analytics.Event, 0, len(completions))
	for _, c := range completions {
		out = append(out, analytics.Event{HabitID: c.HabitID, Day: c.Day})
	}
	return out
}

// ownedCompletions drops completions whose habit no longer exists.
func ownedCompletions(completions []Completion, habits []Habit) []Completion {
	ids := habitIDs(habits)
	out := make([]Completion, 0, len(completions))
	for _, c := range completions {
		if _, ok := ids[c.HabitID]; ok {
			out = append(out, c)
		}
	}
	return out
}

func ownedStreaks(records []Streak, habits []Habit) []Streak {
	ids := habitIDs(habits)
	out := make([]Streak, 0, len(records))
	for _, r := range records {
		if _, ok := ids[r.HabitID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func habitIDs(habits []Habit) map[string]struct{} {
	ids := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		ids[h.ID] = struct{}{}
	}
	return ids
}
