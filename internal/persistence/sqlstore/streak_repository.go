package sqlstore

import (
	"context"
	"time"

	"github.com/example/habit-tracker/internal/persistence"
)

// StreakRepository implements persistence.StreakRepository.
type StreakRepository struct {
	store *Store
}

// NewStreakRepository creates a streak repository backed by store.
func NewStreakRepository(store *Store) *StreakRepository {
	return &StreakRepository{store: store}
}

const streakColumns = `user_id, habit_id, current_streak, longest_streak, current_start, current_end, longest_start, longest_end, updated_at`

// GetStreak returns the record for a user and habit.
func (r *StreakRepository) GetStreak(ctx context.Context, userID, habitID string) (persistence.Streak, error) {
	row := r.store.queryRow(ctx, `SELECT `+streakColumns+` FROM streaks WHERE user_id = ? AND habit_id = ?`, userID, habitID)
	streak, err := scanStreak(row)
	if err != nil {
		return persistence.Streak{}, r.store.mapper.MapError(err)
	}
	return streak, nil
}

// UpsertStreak inserts or replaces the record. The last write wins.
func (r *StreakRepository) UpsertStreak(ctx context.Context, streak persistence.Streak) error {
	if streak.UserID == "" || streak.HabitID == "" {
		return persistence.ErrConstraintViolation
	}
	if streak.UpdatedAt.IsZero() {
		streak.UpdatedAt = time.Now().UTC()
	}
	return r.store.retry.WithRetry(ctx, func() error {
		_, err := r.store.exec(ctx, `
			INSERT INTO streaks (`+streakColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, habit_id) DO UPDATE SET
				current_streak = excluded.current_streak,
				longest_streak = excluded.longest_streak,
				current_start = excluded.current_start,
				current_end = excluded.current_end,
				longest_start = excluded.longest_start,
				longest_end = excluded.longest_end,
				updated_at = excluded.updated_at`,
			streak.UserID,
			streak.HabitID,
			streak.Current,
			streak.Longest,
			streak.CurrentStart,
			streak.CurrentEnd,
			streak.LongestStart,
			streak.LongestEnd,
			formatTime(streak.UpdatedAt),
		)
		return err
	})
}

// ListStreaks returns every record of a user.
func (r *StreakRepository) ListStreaks(ctx context.Context, userID string) ([]persistence.Streak, error) {
	rows, err := r.store.query(ctx, `SELECT `+streakColumns+` FROM streaks WHERE user_id = ? ORDER BY habit_id ASC`, userID)
	if err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	defer rows.Close()

	streaks := make([]persistence.Streak, 0)
	for rows.Next() {
		streak, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, streak)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	return streaks, nil
}

func scanStreak(row rowScanner) (persistence.Streak, error) {
	var (
		streak    persistence.Streak
		updatedAt string
	)
	if err := row.Scan(
		&streak.UserID,
		&streak.HabitID,
		&streak.Current,
		&streak.Longest,
		&streak.CurrentStart,
		&streak.CurrentEnd,
		&streak.LongestStart,
		&streak.LongestEnd,
		&updatedAt,
	); err != nil {
		return persistence.Streak{}, err
	}
	var err error
	if streak.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Streak{}, err
	}
	return streak, nil
}
