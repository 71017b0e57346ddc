package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/calendar"
)

type completionService interface {
	MarkComplete(ctx context.Context, params application.MarkCompleteParams) (application.MarkCompleteResult, error)
	ListHabitCompletions(ctx context.Context, params application.ListCompletionsParams) ([]application.Completion, error)
}

// CompletionHandler records completions and lists a habit's completion log.
type CompletionHandler struct {
	service   completionService
	responder responder
	logger    *slog.Logger
}

func NewCompletionHandler(service completionService, logger *slog.Logger) *CompletionHandler {
	base := defaultLogger(logger)
	return &CompletionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CompletionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CompletionHandler", operation, attrs...)
}

// Complete handles POST /completion/complete.
func (h *CompletionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Complete", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode completion request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Complete", "habit_id", req.HabitID)

	result, err := h.service.MarkComplete(r.Context(), application.MarkCompleteParams{
		Principal: principal,
		HabitID:   req.HabitID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "completion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, completeResponse{
		Completion: toCompletionDTO(result.Completion),
		Streak:     toStreakDTO(result.Streak),
	})
}

// ListForHabit handles GET /completion/habit/{id}.
func (h *CompletionHandler) ListForHabit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	habitID, ok := HabitIDFromContext(r.Context())
	if !ok || strings.TrimSpace(habitID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHabitID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListForHabit")

	from, err := parseDayQuery(r, "from")
	if err != nil {
		logger.With("error_kind", "bad_request").ErrorContext(r.Context(), "invalid from query", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateQuery)
		return
	}
	to, err := parseDayQuery(r, "to")
	if err != nil {
		logger.With("error_kind", "bad_request").ErrorContext(r.Context(), "invalid to query", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateQuery)
		return
	}

	completions, err := h.service.ListHabitCompletions(r.Context(), application.ListCompletionsParams{
		Principal: principal,
		HabitID:   habitID,
		From:      from,
		To:        to,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "completion listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := completionListResponse{Completions: make([]completionDTO, 0, len(completions))}
	for _, c := range completions {
		resp.Completions = append(resp.Completions, toCompletionDTO(c))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func parseDayQuery(r *http.Request, key string) (calendar.Day, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return calendar.Day{}, nil
	}
	return calendar.ParseDay(value)
}

type completeRequest struct {
	HabitID string `json:"habitId"`
}

type completionDTO struct {
	ID        string `json:"id"`
	HabitID   string `json:"habitId"`
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`
}

func toCompletionDTO(c application.Completion) completionDTO {
	return completionDTO{
		ID:        c.ID,
		HabitID:   c.HabitID,
		Date:      c.Day.String(),
		Timestamp: c.CompletedAt.UTC().Format(time.RFC3339Nano),
	}
}

type completeResponse struct {
	Completion completionDTO `json:"completion"`
	Streak     streakDTO     `json:"streak"`
}

type completionListResponse struct {
	Completions []completionDTO `json:"completions"`
}
