package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/habit-tracker/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBDriver:    config.DriverSQLite,
		DBDSN:       "file:" + filepath.Join(t.TempDir(), "habits.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SessionTTL:  72 * time.Hour,
		Location:    time.UTC,
		HeatmapDays: 30,

		ReportCacheTTL: time.Hour,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	closeStore(store, logger)

	store, err = openStore(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("second openStore returned error: %v", err)
	}
	defer closeStore(store, logger)

	if !strings.Contains(logOutput.String(), "applied_migrations=0") {
		t.Fatalf("expected second run to apply nothing, got %q", logOutput.String())
	}
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *apiClient) call(method, path, body string) (int, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			c.t.Fatalf("%s %s: failed to decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, payload
}

func TestHandlerEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := quietLogger()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	defer closeStore(store, logger)

	current := time.Date(2024, time.March, 14, 8, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	client := &apiClient{t: t, handler: newHandler(cfg, store, logger, now)}

	if status, body := client.call(http.MethodGet, "/health", ""); status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health response %d %v", status, body)
	}

	status, body := client.call(http.MethodPost, "/api/auth/signup", `{"name":"Aiko","email":"aiko@example.com","password":"correct horse"}`)
	if status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d %v", status, body)
	}
	client.token = body["token"].(string)

	status, body = client.call(http.MethodPost, "/api/habits", `{"title":"Read","frequency":"daily"}`)
	if status != http.StatusCreated {
		t.Fatalf("create habit: expected 201, got %d %v", status, body)
	}
	habitID := body["habit"].(map[string]any)["id"].(string)

	complete := `{"habitId":"` + habitID + `"}`
	if status, body = client.call(http.MethodPost, "/api/completion/complete", complete); status != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d %v", status, body)
	}

	current = current.Add(24 * time.Hour)
	status, body = client.call(http.MethodPost, "/api/completion/complete", complete)
	if status != http.StatusOK {
		t.Fatalf("complete next day: expected 200, got %d %v", status, body)
	}
	if s := body["streak"].(map[string]any); s["current"] != float64(2) || s["currentStartDate"] != "2024-03-14" {
		t.Fatalf("unexpected streak %v", s)
	}

	if status, body = client.call(http.MethodPost, "/api/completion/complete", complete); status != http.StatusConflict {
		t.Fatalf("duplicate complete: expected 409, got %d %v", status, body)
	}

	status, body = client.call(http.MethodGet, "/api/dashboard/stats", "")
	if status != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d %v", status, body)
	}
	if body["userName"] != "Aiko" || body["todayCompletions"] != float64(1) || body["percentage"] != float64(100) {
		t.Fatalf("unexpected stats %v", body)
	}

	status, body = client.call(http.MethodGet, "/api/habits/"+habitID+"/analytics", "")
	if status != http.StatusOK {
		t.Fatalf("habit analytics: expected 200, got %d %v", status, body)
	}
	if weekly := body["weekly"].(map[string]any); weekly["completedPairs"] != float64(2) || weekly["percentage"] != float64(29) {
		t.Fatalf("unexpected weekly summary %v", weekly)
	}
	if series := body["dailySeries"].([]any); len(series) != 30 {
		t.Fatalf("expected 30 day series, got %d", len(series))
	}

	status, body = client.call(http.MethodGet, "/api/completion/habit/"+habitID, "")
	if status != http.StatusOK || len(body["completions"].([]any)) != 2 {
		t.Fatalf("unexpected completion listing %d %v", status, body)
	}

	if status, _ = client.call(http.MethodPost, "/api/auth/logout", ""); status != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", status)
	}
	if status, body = client.call(http.MethodGet, "/api/habits", ""); status != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d %v", status, body)
	}
}
