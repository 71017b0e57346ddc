package application

import (
	"context"
	"testing"
	"time"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/calendar"
)

func TestReportCacheStoresAndReturnsCopies(t *testing.T) {
	current := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	cache := NewReportCache(4, time.Minute, func() time.Time { return current })
	day := calendar.MustParseDay("2024-03-10")

	original := analytics.DashboardReport{
		HabitCount:  1,
		DailySeries: analytics.Series{{Date: day, Count: 1}},
	}
	cache.store("user-1", day, cache.generation("user-1"), original)

	// Mutating the original series should not affect the cached copy.
	original.DailySeries[0].Count = 9

	cached, ok := cache.get("user-1", day)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if cached.DailySeries[0].Count != 1 {
		t.Fatalf("expected cached count to remain unchanged, got %d", cached.DailySeries[0].Count)
	}

	cached.DailySeries[0].Count = 7
	again, _ := cache.get("user-1", day)
	if again.DailySeries[0].Count != 1 {
		t.Fatalf("expected cache to return independent copy, got %d", again.DailySeries[0].Count)
	}

	if _, ok := cache.get("user-1", day.Next()); ok {
		t.Fatalf("expected a miss for another day")
	}
}

func TestReportCacheExpiresEntries(t *testing.T) {
	current := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	cache := NewReportCache(4, time.Second, func() time.Time { return current })
	day := calendar.MustParseDay("2024-03-10")

	cache.store("user-1", day, 0, analytics.DashboardReport{HabitCount: 1})
	if _, ok := cache.get("user-1", day); !ok {
		t.Fatalf("expected cache hit before expiry")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.get("user-1", day); ok {
		t.Fatalf("expected cache entry to expire")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped, got %d", cache.Len())
	}
}

func TestReportCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewReportCache(2, time.Minute, nil)
	day := calendar.MustParseDay("2024-03-10")

	cache.store("user-1", day, 0, analytics.DashboardReport{})
	cache.store("user-2", day, 0, analytics.DashboardReport{})
	cache.get("user-1", day)
	cache.store("user-3", day, 0, analytics.DashboardReport{})

	if _, ok := cache.get("user-2", day); ok {
		t.Fatalf("expected user-2 to be evicted")
	}
	if _, ok := cache.get("user-1", day); !ok {
		t.Fatalf("expected recently read user-1 to survive")
	}
}

func TestReportCacheInvalidateIsPerUser(t *testing.T) {
	cache := NewReportCache(8, time.Minute, nil)
	day := calendar.MustParseDay("2024-03-10")

	cache.store("user-1", day, 0, analytics.DashboardReport{})
	cache.store("user-1", day.Prev(), 0, analytics.DashboardReport{})
	cache.store("user-2", day, 0, analytics.DashboardReport{})

	cache.Invalidate("user-1")
	if cache.Len() != 1 {
		t.Fatalf("expected only user-2 to remain, got %d entries", cache.Len())
	}
	if _, ok := cache.get("user-2", day); !ok {
		t.Fatalf("expected user-2 entry to survive")
	}

	var nilCache *ReportCache
	nilCache.Invalidate("user-1")
	if _, ok := nilCache.get("user-1", day); ok {
		t.Fatalf("expected nil cache to miss")
	}
}

func TestReportCacheDropsReportsBuiltBeforeInvalidation(t *testing.T) {
	cache := NewReportCache(8, time.Minute, nil)
	day := calendar.MustParseDay("2024-03-10")

	gen := cache.generation("user-1")
	cache.Invalidate("user-1")
	if cache.store("user-1", day, gen, analytics.DashboardReport{HabitCount: 1}) {
		t.Fatalf("expected a report read before invalidation to be dropped")
	}
	if _, ok := cache.get("user-1", day); ok {
		t.Fatalf("expected no cached report")
	}

	// Other users keep their generation.
	if !cache.store("user-2", day, cache.generation("user-2"), analytics.DashboardReport{}) {
		t.Fatalf("expected user-2 report to be stored")
	}
	if !cache.store("user-1", day, cache.generation("user-1"), analytics.DashboardReport{}) {
		t.Fatalf("expected a report read after invalidation to be stored")
	}
}

func TestDashboardAnalyticsSeesCompletionDuringRead(t *testing.T) {
	t.Parallel()

	f := newAnalyticsFixture()
	cache := NewReportCache(8, time.Hour, f.clock.Now)
	f.svc.UseReportCache(cache)
	f.habits.seed(Habit{ID: "h1", UserID: "user-1", Frequency: analytics.Daily})

	completions := NewCompletionService(f.habits, f.completions, f.streaks, func() string { return "c1" }, f.clock.Now, nil)
	completions.UseReportCache(cache)

	ctx := context.Background()
	principal := Principal{UserID: "user-1"}

	// The completion lands after the dashboard has read the ledger but
	// before its report is cached.
	var markErr error
	f.completions.afterList = func() {
		_, markErr = completions.MarkComplete(ctx, MarkCompleteParams{Principal: principal, HabitID: "h1"})
	}

	during, err := f.svc.DashboardAnalytics(ctx, principal)
	if err != nil {
		t.Fatalf("DashboardAnalytics failed: %v", err)
	}
	if markErr != nil {
		t.Fatalf("MarkComplete failed: %v", markErr)
	}
	if during.Weekly.CompletedPairs != 0 {
		t.Fatalf("expected the in-flight report to predate the completion, got %#v", during.Weekly)
	}

	after, err := f.svc.DashboardAnalytics(ctx, principal)
	if err != nil {
		t.Fatalf("DashboardAnalytics failed: %v", err)
	}
	if after.Weekly.CompletedPairs != 1 {
		t.Fatalf("expected the own completion to be visible, got %#v", after.Weekly)
	}
}

func TestDashboardAnalyticsUsesReportCache(t *testing.T) {
	t.Parallel()

	f := newAnalyticsFixture()
	cache := NewReportCache(8, time.Hour, f.clock.Now)
	f.svc.UseReportCache(cache)
	f.habits.seed(Habit{ID: "h1", UserID: "user-1", Frequency: analytics.Daily})

	habits := NewHabitService(f.habits, f.streaks, func() string { return "h2" }, f.clock.Now)
	habits.UseReportCache(cache)
	completions := NewCompletionService(f.habits, f.completions, f.streaks, func() string { return "c1" }, f.clock.Now, nil)
	completions.UseReportCache(cache)

	ctx := context.Background()
	principal := Principal{UserID: "user-1"}

	first, err := f.svc.DashboardAnalytics(ctx, principal)
	if err != nil {
		t.Fatalf("DashboardAnalytics failed: %v", err)
	}
	if first.Weekly.CompletedPairs != 0 {
		t.Fatalf("expected no completions yet, got %#v", first.Weekly)
	}

	// A write behind the services' back is hidden until invalidation.
	f.completions.seed("user-1", "h1", "2024-03-09")
	cached, _ := f.svc.DashboardAnalytics(ctx, principal)
	if cached.Weekly.CompletedPairs != 0 {
		t.Fatalf("expected cached report, got %#v", cached.Weekly)
	}

	if _, err := completions.MarkComplete(ctx, MarkCompleteParams{Principal: principal, HabitID: "h1"}); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}
	fresh, _ := f.svc.DashboardAnalytics(ctx, principal)
	if fresh.Weekly.CompletedPairs != 2 {
		t.Fatalf("expected completion to invalidate the report, got %#v", fresh.Weekly)
	}

	if _, err := habits.CreateHabit(ctx, CreateHabitParams{Principal: principal, Input: HabitInput{Title: "Walk", Frequency: "daily"}}); err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	afterCreate, _ := f.svc.DashboardAnalytics(ctx, principal)
	if afterCreate.HabitCount != 2 {
		t.Fatalf("expected habit creation to invalidate the report, got %d habits", afterCreate.HabitCount)
	}
}
