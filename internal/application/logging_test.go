package application

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/habit-tracker/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLogger(t *testing.T) {
	t.Parallel()

	t.Run("prefers the request logger", func(t *testing.T) {
		t.Parallel()

		var base, request bytes.Buffer
		ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&request, nil)))

		serviceLogger(ctx, slog.New(slog.NewTextHandler(&base, nil)), "CompletionService", "MarkComplete", "habit_id", "h1").
			Info("habit completed")

		if base.Len() != 0 {
			t.Fatalf("expected base logger to stay silent, got %q", base.String())
		}
		out := request.String()
		for _, want := range []string{"service=CompletionService", "operation=MarkComplete", "habit_id=h1"} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("falls back to the base logger", func(t *testing.T) {
		t.Parallel()

		var base bytes.Buffer
		serviceLogger(context.Background(), slog.New(slog.NewTextHandler(&base, nil)), "HabitService", "").
			Info("habit created")

		out := base.String()
		if !strings.Contains(out, "service=HabitService") || strings.Contains(out, "operation=") {
			t.Fatalf("unexpected log line %q", out)
		}
	})
}
