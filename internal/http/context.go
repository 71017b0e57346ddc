package http

import (
	"context"
	"log/slog"

	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	habitIDContextKey   contextKey = "habit_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithHabitID injects the habit identifier resolved from the request path.
func ContextWithHabitID(ctx context.Context, habitID string) context.Context {
	return context.WithValue(ctx, habitIDContextKey, habitID)
}

// HabitIDFromContext extracts a habit identifier previously associated with the context.
func HabitIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(habitIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
