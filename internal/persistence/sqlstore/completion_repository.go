package sqlstore

import (
	"context"
	"strings"

	"github.com/example/habit-tracker/internal/persistence"
)

// CompletionRepository implements persistence.CompletionRepository.
//
// The (user_id, habit_id, day) unique key is what keeps the ledger to one
// completion per habit per day when two requests race.
type CompletionRepository struct {
	store *Store
}

// NewCompletionRepository creates a completion repository backed by store.
func NewCompletionRepository(store *Store) *CompletionRepository {
	return &CompletionRepository{store: store}
}

// InsertCompletion appends a completion. A second completion for the same
// user, habit and day fails with persistence.ErrDuplicate.
func (r *CompletionRepository) InsertCompletion(ctx context.Context, completion persistence.Completion) error {
	if completion.ID == "" || completion.UserID == "" || completion.HabitID == "" || completion.Day == "" {
		return persistence.ErrConstraintViolation
	}
	return r.store.retry.WithRetry(ctx, func() error {
		_, err := r.store.exec(ctx, `
			INSERT INTO completions (id, user_id, habit_id, day, completed_at)
			VALUES (?, ?, ?, ?, ?)`,
			completion.ID,
			completion.UserID,
			completion.HabitID,
			completion.Day,
			formatTime(completion.CompletedAt),
		)
		return err
	})
}

// HasCompletionOn reports whether the habit has a completion on day.
func (r *CompletionRepository) HasCompletionOn(ctx context.Context, userID, habitID, day string) (bool, error) {
	var count int
	err := r.store.queryRow(ctx, `
		SELECT COUNT(*) FROM completions
		WHERE user_id = ? AND habit_id = ? AND day = ?`,
		userID, habitID, day).Scan(&count)
	if err != nil {
		return false, r.store.mapper.MapError(err)
	}
	return count > 0, nil
}

// ListCompletions returns matching completions ordered by completion time.
func (r *CompletionRepository) ListCompletions(ctx context.Context, filter persistence.CompletionFilter) ([]persistence.Completion, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.HabitID != "" {
		clauses = append(clauses, "habit_id = ?")
		args = append(args, filter.HabitID)
	}
	if filter.From != "" {
		clauses = append(clauses, "day >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "day <= ?")
		args = append(args, filter.To)
	}

	query := `SELECT id, user_id, habit_id, day, completed_at FROM completions`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY completed_at ASC, id ASC`

	rows, err := r.store.query(ctx, query, args...)
	if err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	defer rows.Close()

	completions := make([]persistence.Completion, 0)
	for rows.Next() {
		var (
			c           persistence.Completion
			completedAt string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Day, &completedAt); err != nil {
			return nil, err
		}
		if c.CompletedAt, err = parseTime("completed_at", completedAt); err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	return completions, nil
}
