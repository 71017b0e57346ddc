package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Executor runs migrations against a *sql.DB.
type Executor struct {
	db     *sql.DB
	rebind func(string) string
}

// NewExecutor returns an executor. rebind rewrites "?" placeholders for the
// target driver and may be nil when the driver accepts "?".
func NewExecutor(db *sql.DB, rebind func(string) string) *Executor {
	if rebind == nil {
		rebind = func(q string) string { return q }
	}
	return &Executor{db: db, rebind: rebind}
}

// InitializeVersionTable creates schema_migrations if it does not exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	const createTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)`
	if _, err := e.db.ExecContext(ctx, createTable); err != nil {
		return newMigrationError("", "", "create schema_migrations table", err)
	}
	return nil
}

// Apply runs m in one transaction and records it in the same transaction.
func (e *Executor) Apply(ctx context.Context, m Migration) (err error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return newMigrationError(m.Version, m.FilePath, "parse SQL", fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	started := time.Now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newMigrationError(m.Version, m.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback error: %v)", err, rbErr)
			}
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return newMigrationError(m.Version, m.FilePath, fmt.Sprintf("execute statement %d", i+1), err)
		}
	}

	record := e.rebind(`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, record, m.Version, time.Now().UTC().Format(time.RFC3339), m.Checksum, time.Since(started).Milliseconds()); err != nil {
		return newMigrationError(m.Version, m.FilePath, "record migration", err)
	}

	if err = tx.Commit(); err != nil {
		return newMigrationError(m.Version, m.FilePath, "commit transaction", err)
	}
	return nil
}

// Applied returns the recorded migrations ordered by version.
func (e *Executor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	const query = `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY version ASC`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, newMigrationError("", "", "list applied migrations", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			am        AppliedMigration
			appliedAt string
			millis    int64
		)
		if err := rows.Scan(&am.Version, &appliedAt, &millis, &am.Checksum); err != nil {
			return nil, newMigrationError("", "", "scan applied migration", err)
		}
		if parsed, perr := time.Parse(time.RFC3339, appliedAt); perr == nil {
			am.AppliedAt = parsed
		}
		am.ExecutionTime = time.Duration(millis) * time.Millisecond
		applied = append(applied, am)
	}
	if err := rows.Err(); err != nil {
		return nil, newMigrationError("", "", "iterate applied migrations", err)
	}
	return applied, nil
}
