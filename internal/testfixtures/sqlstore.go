package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/habit-tracker/internal/persistence/sqlstore"
	"github.com/example/habit-tracker/internal/repository"
)

// SQLStoreHarness provides repository access backed by a temporary, migrated
// SQLite database.
type SQLStoreHarness struct {
	Store       *sqlstore.Store
	Users       *sqlstore.UserRepository
	Sessions    *sqlstore.SessionRepository
	Habits      *sqlstore.HabitRepository
	Completions *sqlstore.CompletionRepository
	Streaks     *sqlstore.StreakRepository
}

// NewSQLStoreHarness opens a SQLite database in a temporary directory and
// applies every migration. The database is closed when tb finishes.
func NewSQLStoreHarness(tb testing.TB) *SQLStoreHarness {
	tb.Helper()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(tb.TempDir(), "habits.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	store, err := sqlstore.Open(ctx, sqlstore.SQLite, dsn)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if _, err := store.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		tb.Fatalf("failed to migrate store: %v", err)
	}

	return &SQLStoreHarness{
		Store:       store,
		Users:       sqlstore.NewUserRepository(store),
		Sessions:    sqlstore.NewSessionRepository(store),
		Habits:      sqlstore.NewHabitRepository(store),
		Completions: sqlstore.NewCompletionRepository(store),
		Streaks:     sqlstore.NewStreakRepository(store),
	}
}

// Repositories returns the application ports backed by the harness.
func (h *SQLStoreHarness) Repositories() repository.Set {
	return repository.NewSet(repository.Backends{
		Users:       h.Users,
		Sessions:    h.Sessions,
		Habits:      h.Habits,
		Completions: h.Completions,
		Streaks:     h.Streaks,
	})
}
