package application

import (
	"context"
	"sort"
	"time"

	"github.com/example/habit-tracker/internal/calendar"
)

// habitRepositoryStub keeps habits in memory for service tests.
type habitRepositoryStub struct {
	habits  map[string]Habit
	order   []string
	streaks *streakRepositoryStub

	listErr error
}

func newHabitRepositoryStub() *habitRepositoryStub {
	return &habitRepositoryStub{habits: make(map[string]Habit)}
}

func (h *habitRepositoryStub) seed(habits ...Habit) {
	for _, habit := range habits {
		if _, ok := h.habits[habit.ID]; !ok {
			h.order = append(h.order, habit.ID)
		}
		h.habits[habit.ID] = habit
	}
}

func (h *habitRepositoryStub) CreateHabit(ctx context.Context, habit Habit) (Habit, error) {
	if _, ok := h.habits[habit.ID]; ok {
		return Habit{}, ErrAlreadyExists
	}
	h.seed(habit)
	return habit, nil
}

func (h *habitRepositoryStub) UpdateHabit(ctx context.Context, habit Habit) (Habit, error) {
	if _, ok := h.habits[habit.ID]; !ok {
		return Habit{}, ErrNotFound
	}
	h.habits[habit.ID] = habit
	return habit, nil
}

func (h *habitRepositoryStub) GetHabit(ctx context.Context, id string) (Habit, error) {
	habit, ok := h.habits[id]
	if !ok {
		return Habit{}, ErrNotFound
	}
	return habit, nil
}

func (h *habitRepositoryStub) ListHabits(ctx context.Context, userID string) ([]Habit, error) {
	if h.listErr != nil {
		return nil, h.listErr
	}
	var out []Habit
	for _, id := range h.order {
		habit, ok := h.habits[id]
		if !ok {
			continue
		}
		if userID == "" || habit.UserID == userID {
			out = append(out, habit)
		}
	}
	return out, nil
}

func (h *habitRepositoryStub) DeleteHabit(ctx context.Context, id string) error {
	habit, ok := h.habits[id]
	if !ok {
		return ErrNotFound
	}
	delete(h.habits, id)
	if h.streaks != nil {
		delete(h.streaks.records, streakKey{habit.UserID, id})
	}
	return nil
}

// completionRepositoryStub enforces the one-per-day rule like the database does.
type completionRepositoryStub struct {
	completions []Completion

	insertErr error
	hasErr    error
	listErr   error

	// afterList runs once a listing has been read, before it is returned.
	afterList func()
}

func (c *completionRepositoryStub) seed(userID, habitID string, days ...string) {
	for _, d := range days {
		day := calendar.MustParseDay(d)
		c.completions = append(c.completions, Completion{
			ID:          userID + "/" + habitID + "/" + d,
			UserID:      userID,
			HabitID:     habitID,
			Day:         day,
			CompletedAt: day.Time().Add(9 * time.Hour),
		})
	}
}

func (c *completionRepositoryStub) InsertCompletion(ctx context.Context, completion Completion) (Completion, error) {
	if c.insertErr != nil {
		return Completion{}, c.insertErr
	}
	for _, existing := range c.completions {
		if existing.UserID == completion.UserID && existing.HabitID == completion.HabitID && existing.Day.Equal(completion.Day) {
			return Completion{}, ErrAlreadyExists
		}
	}
	c.completions = append(c.completions, completion)
	return completion, nil
}

func (c *completionRepositoryStub) HasCompletionOn(ctx context.Context, userID, habitID string, day calendar.Day) (bool, error) {
	if c.hasErr != nil {
		return false, c.hasErr
	}
	for _, existing := range c.completions {
		if existing.UserID == userID && existing.HabitID == habitID && existing.Day.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (c *completionRepositoryStub) ListCompletions(ctx context.Context, query CompletionQuery) ([]Completion, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []Completion
	for _, existing := range c.completions {
		if query.UserID != "" && existing.UserID != query.UserID {
			continue
		}
		if query.HabitID != "" && existing.HabitID != query.HabitID {
			continue
		}
		if !query.From.IsZero() && existing.Day.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && existing.Day.After(query.To) {
			continue
		}
		out = append(out, existing)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	if hook := c.afterList; hook != nil {
		c.afterList = nil
		hook()
	}
	return out, nil
}

type streakKey struct {
	userID  string
	habitID string
}

// streakRepositoryStub stores one record per user and habit.
type streakRepositoryStub struct {
	records map[streakKey]Streak

	upsertErr   error
	upsertCalls int
}

func newStreakRepositoryStub() *streakRepositoryStub {
	return &streakRepositoryStub{records: make(map[streakKey]Streak)}
}

func (s *streakRepositoryStub) GetStreak(ctx context.Context, userID, habitID string) (Streak, error) {
	rec, ok := s.records[streakKey{userID, habitID}]
	if !ok {
		return Streak{}, ErrNotFound
	}
	return rec, nil
}

func (s *streakRepositoryStub) UpsertStreak(ctx context.Context, rec Streak) error {
	s.upsertCalls++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.records[streakKey{rec.UserID, rec.HabitID}] = rec
	return nil
}

func (s *streakRepositoryStub) ListStreaks(ctx context.Context, userID string) ([]Streak, error) {
	var out []Streak
	for key, rec := range s.records {
		if key.userID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HabitID < out[j].HabitID })
	return out, nil
}

// fixedClock returns a settable clock for service tests.
type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time { return c.current }

func (c *fixedClock) set(day string, hour int) {
	c.current = calendar.MustParseDay(day).Time().Add(time.Duration(hour) * time.Hour)
}
