package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScan(t *testing.T) {
	t.Run("orders by numeric version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/010_later.sql":      {Data: []byte("CREATE TABLE b (id TEXT);")},
			"m/002_second.sql":     {Data: []byte("-- Description: second table\nCREATE TABLE a (id TEXT);")},
			"m/README.md":          {Data: []byte("ignored")},
			"m/001_first_step.sql": {Data: []byte("CREATE TABLE c (id TEXT);")},
		}
		migrations, err := Scan(fsys, "m")
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != "001" || migrations[1].Version != "002" || migrations[2].Version != "010" {
			t.Fatalf("unexpected order: %s %s %s", migrations[0].Version, migrations[1].Version, migrations[2].Version)
		}
		if migrations[0].Description != "first step" {
			t.Fatalf("expected description from file name, got %q", migrations[0].Description)
		}
		if migrations[1].Description != "second table" {
			t.Fatalf("expected description from comment, got %q", migrations[1].Description)
		}
		if migrations[0].Checksum == "" {
			t.Fatalf("expected checksum")
		}
	})

	t.Run("rejects bad names", func(t *testing.T) {
		fsys := fstest.MapFS{"m/first.sql": {Data: []byte("SELECT 1;")}}
		if _, err := Scan(fsys, "m"); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/001_a.sql": {Data: []byte("SELECT 1;")},
			"m/1_b.sql":   {Data: []byte("SELECT 2;")},
		}
		if _, err := Scan(fsys, "m"); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects comment only files", func(t *testing.T) {
		fsys := fstest.MapFS{"m/001_empty.sql": {Data: []byte("-- nothing here\n")}}
		if _, err := Scan(fsys, "m"); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("-- header\nCREATE TABLE a (id TEXT);\n\n-- comment\nCREATE INDEX i ON a (id);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(statements), statements)
	}
	if statements[1] != "CREATE INDEX i ON a (id)" {
		t.Fatalf("unexpected statement %q", statements[1])
	}
}

func TestManagerRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"m/001_create.sql": {Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY);")},
		"m/002_seed.sql":   {Data: []byte("INSERT INTO items (id) VALUES ('a');\nINSERT INTO items (id) VALUES ('b');")},
	}
	manager := NewManager(fsys, "m", NewExecutor(db, nil), quietLogger())

	applied, err := manager.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 applied, got %d", applied)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}

	t.Run("second run is a no-op", func(t *testing.T) {
		applied, err := manager.Run(ctx)
		if err != nil || applied != 0 {
			t.Fatalf("expected no-op, got %d %v", applied, err)
		}
		status, err := manager.Status(ctx)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if status.CurrentVersion != "002" || status.PendingCount != 0 {
			t.Fatalf("unexpected status %+v", status)
		}
	})

	t.Run("changed applied file is rejected", func(t *testing.T) {
		fsys["m/001_create.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY, name TEXT);")}
		if _, err := manager.Run(ctx); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})
}

func TestManagerRunRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"m/001_create.sql": {Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY);")},
		"m/002_broken.sql": {Data: []byte("INSERT INTO items (id) VALUES ('a');\nINSERT INTO missing (id) VALUES ('b');")},
	}
	manager := NewManager(fsys, "m", NewExecutor(db, nil), quietLogger())

	applied, err := manager.Run(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected first migration to stay applied, got %d", applied)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected failed migration to roll back, found %d rows", count)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.PendingCount != 1 || status.PendingMigrations[0].Version != "002" {
		t.Fatalf("expected 002 to remain pending, got %+v", status)
	}
}
