package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/config"
	httptransport "github.com/example/habit-tracker/internal/http"
	"github.com/example/habit-tracker/internal/persistence/sqlstore"
	"github.com/example/habit-tracker/internal/repository"
)

// ServeCmd runs the HTTP API until SIGINT or SIGTERM.
type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to :HABITS_HTTP_PORT." placeholder:"HOST:PORT"`
}

func (c *ServeCmd) Run(app *appContext) error {
	store, err := openStore(app.ctx, app.cfg, app.logger)
	if err != nil {
		return err
	}
	defer closeStore(store, app.logger)

	addr := c.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", app.cfg.HTTPPort)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           newHandler(app.cfg, store, app.logger, time.Now),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("habit API listening", "addr", server.Addr, "timezone", app.cfg.Location.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-app.ctx.Done():
	}

	app.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// MigrateCmd applies the embedded migrations.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(app *appContext) error {
	store, err := openStore(app.ctx, app.cfg, app.logger)
	if err != nil {
		return err
	}
	closeStore(store, app.logger)
	return nil
}

// ReconcileCmd rebuilds stored streak records that disagree with the
// completion log.
type ReconcileCmd struct {
	User string `help:"Only reconcile the habits of this user ID." placeholder:"USER_ID"`
}

func (c *ReconcileCmd) Run(app *appContext) error {
	store, err := openStore(app.ctx, app.cfg, app.logger)
	if err != nil {
		return err
	}
	defer closeStore(store, app.logger)

	repos := newRepositories(store)
	service := application.NewCompletionServiceWithLogger(repos.Habits, repos.Completions, repos.Streaks, uuid.NewString, time.Now, app.cfg.Location, app.logger)

	result, err := service.ReconcileStreaks(app.ctx, c.User)
	if err != nil {
		return err
	}
	fmt.Printf("checked %d habits, repaired %d streak records\n", result.Checked, result.Repaired)
	return nil
}

func newRepositories(store *sqlstore.Store) repository.Set {
	return repository.NewSet(repository.Backends{
		Users:       sqlstore.NewUserRepository(store),
		Sessions:    sqlstore.NewSessionRepository(store),
		Habits:      sqlstore.NewHabitRepository(store),
		Completions: sqlstore.NewCompletionRepository(store),
		Streaks:     sqlstore.NewStreakRepository(store),
	})
}

// newHandler wires services, handlers and middleware over store.
const reportCacheSize = 1024

func newHandler(cfg config.Config, store *sqlstore.Store, logger *slog.Logger, now func() time.Time) http.Handler {
	repos := newRepositories(store)
	tokenGenerator := func() string { return randomHex(32) }

	authService := application.NewAuthServiceWithLogger(repos.Users, repos.Sessions, nil, nil, uuid.NewString, tokenGenerator, now, cfg.SessionTTL, logger)
	habitService := application.NewHabitServiceWithLogger(repos.Habits, repos.Streaks, uuid.NewString, now, logger)
	completionService := application.NewCompletionServiceWithLogger(repos.Habits, repos.Completions, repos.Streaks, uuid.NewString, now, cfg.Location, logger)
	analyticsService := application.NewAnalyticsServiceWithLogger(repos.Users, repos.Habits, repos.Completions, repos.Streaks, now, cfg.Location, cfg.HeatmapDays, logger)

	if cfg.ReportCacheTTL > 0 {
		reports := application.NewReportCache(reportCacheSize, cfg.ReportCacheTTL, now)
		analyticsService.UseReportCache(reports)
		habitService.UseReportCache(reports)
		completionService.UseReportCache(reports)
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Habits:         httptransport.NewHabitHandler(habitService, analyticsService, logger),
		Completions:    httptransport.NewCompletionHandler(completionService, logger),
		Dashboard:      httptransport.NewDashboardHandler(analyticsService, logger),
		Health:         httptransport.NewHealthHandler(store, logger),
		RequireSession: httptransport.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.CORS(cfg.CORSOrigins),
		},
	})
}
