package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/example/habit-tracker/internal/config"
	"github.com/example/habit-tracker/internal/logging"
	"github.com/example/habit-tracker/internal/persistence/sqlstore"
)

var cli struct {
	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the HTTP API."`
	Migrate   MigrateCmd   `cmd:"" help:"Apply pending database migrations and exit."`
	Reconcile ReconcileCmd `cmd:"" help:"Rebuild streak records from the completion log."`
}

// appContext is handed to every command's Run method.
type appContext struct {
	ctx    context.Context
	cfg    config.Config
	logger *slog.Logger
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("habits"),
		kong.Description("Habit tracking API with streaks and completion analytics."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗しました: %v\n", err)
		os.Exit(1)
	}

	logger, closer := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kctx.Run(&appContext{ctx: ctx, cfg: cfg, logger: logger}); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}

// openStore connects to the configured database and applies migrations.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	applied, err := store.Migrate(ctx, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("database ready", "driver", cfg.DBDriver, "applied_migrations", applied)
	return store, nil
}

func closeStore(store *sqlstore.Store, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
