package application

import (
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/calendar"
)

// ReportCache memoises dashboard reports per user and calendar day. Habit and
// completion writes invalidate the owner's entries; the TTL bounds staleness
// for writes that bypass the services.
//
// Every Invalidate bumps the user's generation. A report computed from reads
// that started before the bump is not stored.
type ReportCache struct {
	entries *lru.Cache[reportCacheKey, reportCacheEntry]
	ttl     time.Duration
	now     func() time.Time

	mu          sync.Mutex
	generations map[string]uint64
}

type reportCacheKey struct {
	userID string
	day    calendar.Day
}

type reportCacheEntry struct {
	report    analytics.DashboardReport
	expiresAt time.Time
}

// NewReportCache returns a cache holding at most size reports for ttl each.
func NewReportCache(size int, ttl time.Duration, now func() time.Time) *ReportCache {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New[reportCacheKey, reportCacheEntry](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &ReportCache{
		entries:     entries,
		ttl:         ttl,
		now:         now,
		generations: make(map[string]uint64),
	}
}

// generation returns the invalidation count of userID. Take it before reading
// the data a report is built from and hand it to store.
func (c *ReportCache) generation(userID string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID]
}

func (c *ReportCache) get(userID string, day calendar.Day) (analytics.DashboardReport, bool) {
	if c == nil {
		return analytics.DashboardReport{}, false
	}
	key := reportCacheKey{userID: userID, day: day}
	entry, ok := c.entries.Get(key)
	if !ok {
		return analytics.DashboardReport{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return analytics.DashboardReport{}, false
	}
	return cloneReport(entry.report), true
}

// store keeps report unless userID was invalidated after generation gen was
// observed.
func (c *ReportCache) store(userID string, day calendar.Day, gen uint64, report analytics.DashboardReport) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[userID] != gen {
		return false
	}
	c.entries.Add(reportCacheKey{userID: userID, day: day}, reportCacheEntry{
		report:    cloneReport(report),
		expiresAt: c.now().Add(c.ttl),
	})
	return true
}

// Invalidate drops every cached report of userID.
func (c *ReportCache) Invalidate(userID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
	for _, key := range c.entries.Keys() {
		if key.userID == userID {
			c.entries.Remove(key)
		}
	}
}

// Len reports the number of cached reports, expired ones included.
func (c *ReportCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cloneReport(report analytics.DashboardReport) analytics.DashboardReport {
	report.DailySeries = slices.Clone(report.DailySeries)
	return report
}
