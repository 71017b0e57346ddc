package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/habit-tracker/internal/persistence"
)

// HabitRepository implements persistence.HabitRepository.
type HabitRepository struct {
	store *Store
}

// NewHabitRepository creates a habit repository backed by store.
func NewHabitRepository(store *Store) *HabitRepository {
	return &HabitRepository{store: store}
}

const habitColumns = `id, user_id, title, frequency, reminder_time, created_at, updated_at`

// CreateHabit stores a new habit.
func (r *HabitRepository) CreateHabit(ctx context.Context, habit persistence.Habit) error {
	if habit.ID == "" || habit.UserID == "" || strings.TrimSpace(habit.Title) == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = now
	}
	if habit.UpdatedAt.IsZero() {
		habit.UpdatedAt = habit.CreatedAt
	}

	_, err := r.store.exec(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		habit.ID,
		habit.UserID,
		habit.Title,
		habit.Frequency,
		habit.ReminderTime,
		formatTime(habit.CreatedAt),
		formatTime(habit.UpdatedAt),
	)
	return r.store.mapper.MapError(err)
}

// UpdateHabit updates the mutable fields of a habit. The owner never changes.
func (r *HabitRepository) UpdateHabit(ctx context.Context, habit persistence.Habit) error {
	if habit.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if habit.UpdatedAt.IsZero() {
		habit.UpdatedAt = time.Now().UTC()
	}

	result, err := r.store.exec(ctx, `
		UPDATE habits
		SET title = ?, frequency = ?, reminder_time = ?, updated_at = ?
		WHERE id = ?`,
		habit.Title,
		habit.Frequency,
		habit.ReminderTime,
		formatTime(habit.UpdatedAt),
		habit.ID,
	)
	if err != nil {
		return r.store.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetHabit retrieves a habit by ID.
func (r *HabitRepository) GetHabit(ctx context.Context, id string) (persistence.Habit, error) {
	if id == "" {
		return persistence.Habit{}, persistence.ErrNotFound
	}
	row := r.store.queryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	habit, err := scanHabit(row)
	if err != nil {
		return persistence.Habit{}, r.store.mapper.MapError(err)
	}
	return habit, nil
}

// ListHabits returns habits ordered by creation time.
func (r *HabitRepository) ListHabits(ctx context.Context, filter persistence.HabitFilter) ([]persistence.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits`
	var args []any
	if filter.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.store.query(ctx, query, args...)
	if err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	defer rows.Close()

	habits := make([]persistence.Habit, 0)
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	return habits, nil
}

// DeleteHabit removes a habit together with its streak record. Completions
// remain in the ledger.
func (r *HabitRepository) DeleteHabit(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.store.txExec(ctx, tx, `DELETE FROM habits WHERE id = ?`, id)
		if err != nil {
			return r.store.mapper.MapError(err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		if _, err := r.store.txExec(ctx, tx, `DELETE FROM streaks WHERE habit_id = ?`, id); err != nil {
			return r.store.mapper.MapError(err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (persistence.Habit, error) {
	var (
		habit                persistence.Habit
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&habit.ID,
		&habit.UserID,
		&habit.Title,
		&habit.Frequency,
		&habit.ReminderTime,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Habit{}, err
	}

	var err error
	if habit.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Habit{}, err
	}
	if habit.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Habit{}, err
	}
	return habit, nil
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
