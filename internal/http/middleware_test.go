package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/habit-tracker/internal/application"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	gotToken  string
}

func (f *fakeSessionValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	f.gotToken = token
	return f.principal, f.err
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name         string
			cookie       *http.Cookie
			header       string
			validatorErr error
			wantStatus   int
			wantCode     string
		}{
			{
				name:       "missing credentials",
				wantStatus: http.StatusUnauthorized,
				wantCode:   "AUTH_REQUIRED",
			},
			{
				name:       "unsupported scheme",
				header:     "Basic dXNlcjpwYXNz",
				wantStatus: http.StatusUnauthorized,
				wantCode:   "AUTH_REQUIRED",
			},
			{
				name:         "revoked session",
				cookie:       &http.Cookie{Name: "session_token", Value: "revoked-token"},
				validatorErr: application.ErrSessionRevoked,
				wantStatus:   http.StatusUnauthorized,
				wantCode:     "AUTH_SESSION_EXPIRED",
			},
			{
				name:         "unknown token",
				header:       "Bearer unknown",
				validatorErr: application.ErrNotFound,
				wantStatus:   http.StatusUnauthorized,
				wantCode:     "AUTH_INVALID_SESSION",
			},
			{
				name:         "repository failure",
				header:       "Bearer transient",
				validatorErr: errors.New("connection reset"),
				wantStatus:   http.StatusInternalServerError,
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.cookie != nil {
					req.AddCookie(tc.cookie)
				}
				if tc.header != "" {
					req.Header.Set("Authorization", tc.header)
				}
				rec := httptest.NewRecorder()

				validator := &fakeSessionValidator{err: tc.validatorErr}
				handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))
				handler.ServeHTTP(rec, req)

				if rec.Code != tc.wantStatus {
					t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
				}
				if tc.wantCode != "" {
					if body := decodeBody(t, rec); body["error_code"] != tc.wantCode {
						t.Fatalf("expected error code %s, got %v", tc.wantCode, body["error_code"])
					}
				}
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		for _, header := range []string{"Bearer valid-token", "bearer valid-token", "valid-token"} {
			validator := &fakeSessionValidator{principal: application.Principal{UserID: "user-123"}}
			var captured application.Principal
			handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p, ok := PrincipalFromContext(r.Context())
				if !ok {
					t.Fatal("expected principal in request context")
				}
				captured = p
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("%q: expected 200, got %d", header, rec.Code)
			}
			if validator.gotToken != validToken {
				t.Fatalf("%q: expected token %q, got %q", header, validToken, validator.gotToken)
			}
			if captured.UserID != "user-123" {
				t.Fatalf("%q: unexpected principal %+v", header, captured)
			}
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Fatal("expected request scoped logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/habits", nil))

	out := buf.String()
	for _, want := range []string{"request started", "request completed", "status=418", "request_id=1", "path=/api/habits"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got %q", want, out)
		}
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("echoes allowed origins", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example.com/"})(next).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Fatalf("unexpected allow origin %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Fatalf("expected credentials to be allowed, got %q", got)
		}
	})

	t.Run("answers preflight requests", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/api/habits", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		CORS(nil)(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("expected wildcard origin, got %q", got)
		}
		if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
			t.Fatalf("unexpected max age %q", got)
		}
	})

	t.Run("rejects preflight from unknown origins", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/api/habits", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example.com"})(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no allow origin header, got %q", got)
		}
	})
}
