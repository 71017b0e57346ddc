package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Manager applies pending migrations from a filesystem.
type Manager struct {
	fsys     fs.FS
	dir      string
	executor *Executor
	logger   *slog.Logger
}

// NewManager returns a manager reading migrations from dir within fsys.
func NewManager(fsys fs.FS, dir string, executor *Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{fsys: fsys, dir: dir, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every pending migration in version order and returns how many
// were applied.
func (m *Manager) Run(ctx context.Context) (int, error) {
	started := time.Now()

	pending, err := m.Pending(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to determine pending migrations", "error", err)
		return 0, err
	}
	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "schema is up to date")
		return 0, nil
	}

	for i, migration := range pending {
		logger := m.logger.With("version", migration.Version, "description", migration.Description)
		logger.InfoContext(ctx, "applying migration", "position", i+1, "total", len(pending))

		applyStart := time.Now()
		if err := m.executor.Apply(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return i, newMigrationError(migration.Version, migration.FilePath, "execute migration", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		logger.InfoContext(ctx, "migration applied", "duration", time.Since(applyStart))
	}

	m.logger.InfoContext(ctx, "migrations completed", "applied", len(pending), "duration", time.Since(started))
	return len(pending), nil
}

// Pending returns migrations not yet recorded. It fails when an applied
// migration's file content changed.
func (m *Manager) Pending(ctx context.Context) ([]Migration, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status.PendingMigrations, nil
}

// Status reports applied and pending migrations.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := Scan(m.fsys, m.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	checksums := make(map[string]string, len(applied))
	for _, a := range applied {
		checksums[a.Version] = a.Checksum
	}

	status := Status{AppliedMigrations: applied}
	for _, migration := range available {
		sum, ok := checksums[migration.Version]
		if !ok {
			status.PendingMigrations = append(status.PendingMigrations, migration)
			continue
		}
		if sum != "" && sum != migration.Checksum {
			return Status{}, newMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	status.PendingCount = len(status.PendingMigrations)
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}
	return status, nil
}
