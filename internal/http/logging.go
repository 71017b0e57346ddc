package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes a logger to one handler operation. The authenticated
// principal and the habit addressed by the route are taken from ctx, so
// handlers only pass what the request body adds.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := make([]any, 0, 8+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if principal, ok := PrincipalFromContext(ctx); ok && principal.UserID != "" {
		pairs = append(pairs, "principal_id", principal.UserID)
	}
	if habitID, ok := HabitIDFromContext(ctx); ok && habitID != "" {
		pairs = append(pairs, "habit_id", habitID)
	}
	return logger.With(append(pairs, attrs...)...)
}
