package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/habit-tracker/internal/application"
)

type habitService interface {
	CreateHabit(ctx context.Context, params application.CreateHabitParams) (application.Habit, error)
	UpdateHabit(ctx context.Context, params application.UpdateHabitParams) (application.Habit, error)
	GetHabit(ctx context.Context, principal application.Principal, habitID string) (application.Habit, error)
	ListHabits(ctx context.Context, principal application.Principal) ([]application.HabitWithStreak, error)
	DeleteHabit(ctx context.Context, principal application.Principal, habitID string) error
}

type habitAnalyticsService interface {
	HabitAnalytics(ctx context.Context, principal application.Principal, habitID string) (application.HabitAnalytics, error)
}

// HabitHandler serves habit CRUD and per habit analytics.
type HabitHandler struct {
	service   habitService
	analytics habitAnalyticsService
	responder responder
	logger    *slog.Logger
}

func NewHabitHandler(service habitService, analytics habitAnalyticsService, logger *slog.Logger) *HabitHandler {
	base := defaultLogger(logger)
	return &HabitHandler{service: service, analytics: analytics, responder: newResponder(base), logger: base}
}

func (h *HabitHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "HabitHandler", operation, attrs...)
}

func (h *HabitHandler) habitID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	habitID, ok := HabitIDFromContext(r.Context())
	if !ok || strings.TrimSpace(habitID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing habit id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHabitID)
		return "", false
	}
	return habitID, true
}

// List handles GET /habits.
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")

	items, err := h.service.ListHabits(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "habit listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := habitListResponse{Habits: make([]habitWithStreakDTO, 0, len(items))}
	for _, item := range items {
		resp.Habits = append(resp.Habits, habitWithStreakDTO{
			habitDTO: toHabitDTO(item.Habit),
			Streak:   toStreakDTO(item.Streak),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Create handles POST /habits.
func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode habit request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	habit, err := h.service.CreateHabit(r.Context(), application.CreateHabitParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "habit creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("habit_id", habit.ID).InfoContext(r.Context(), "habit created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, habitResponse{Habit: toHabitDTO(habit)})
}

// Get handles GET /habits/{id}.
func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	habitID, ok := h.habitID(w, r, "Get")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	habit, err := h.service.GetHabit(r.Context(), principal, habitID)
	if err != nil {
		h.log(r.Context(), "Get").
			ErrorContext(r.Context(), "habit lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, habitResponse{Habit: toHabitDTO(habit)})
}

// Update handles PUT /habits/{id}.
func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	habitID, ok := h.habitID(w, r, "Update")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode habit update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update")

	habit, err := h.service.UpdateHabit(r.Context(), application.UpdateHabitParams{
		Principal: principal,
		HabitID:   habitID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "habit update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "habit updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, habitResponse{Habit: toHabitDTO(habit)})
}

// Delete handles DELETE /habits/{id}.
func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	habitID, ok := h.habitID(w, r, "Delete")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete")

	if err := h.service.DeleteHabit(r.Context(), principal, habitID); err != nil {
		logger.ErrorContext(r.Context(), "habit deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "habit deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Analytics handles GET /habits/{id}/analytics.
func (h *HabitHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.analytics == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	habitID, ok := h.habitID(w, r, "Analytics")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.analytics.HabitAnalytics(r.Context(), principal, habitID)
	if err != nil {
		h.log(r.Context(), "Analytics").
			ErrorContext(r.Context(), "habit analytics failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	report := result.Report
	h.responder.writeJSON(r.Context(), w, http.StatusOK, habitAnalyticsResponse{
		HabitID:     report.HabitID,
		Frequency:   string(report.Frequency),
		Streak:      toStreakDTO(result.Streak),
		Weekly:      toWindowDTO(report.Weekly),
		Monthly:     toWindowDTO(report.Monthly),
		DailySeries: toSeriesDTO(report.DailySeries),
		DateToCount: nonNilCounts(report.DailySeries.DateToCount()),
	})
}

type habitRequest struct {
	Title        string `json:"title"`
	Frequency    string `json:"frequency"`
	ReminderTime string `json:"reminderTime"`
}

func (r habitRequest) toInput() application.HabitInput {
	return application.HabitInput{
		Title:        r.Title,
		Frequency:    r.Frequency,
		ReminderTime: r.ReminderTime,
	}
}

type habitDTO struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Frequency    string `json:"frequency"`
	ReminderTime string `json:"reminderTime"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func toHabitDTO(habit application.Habit) habitDTO {
	return habitDTO{
		ID:           habit.ID,
		Title:        habit.Title,
		Frequency:    string(habit.Frequency),
		ReminderTime: habit.ReminderTime,
		CreatedAt:    habit.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    habit.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type habitWithStreakDTO struct {
	habitDTO
	Streak streakDTO `json:"streak"`
}

type streakDTO struct {
	HabitID          string `json:"habitId"`
	Current          int    `json:"current"`
	Longest          int    `json:"longest"`
	CurrentStartDate string `json:"currentStartDate,omitempty"`
	CurrentEndDate   string `json:"currentEndDate,omitempty"`
	LongestStartDate string `json:"longestStartDate,omitempty"`
	LongestEndDate   string `json:"longestEndDate,omitempty"`
}

func toStreakDTO(rec application.Streak) streakDTO {
	return streakDTO{
		HabitID:          rec.HabitID,
		Current:          rec.Current,
		Longest:          rec.Longest,
		CurrentStartDate: rec.CurrentStart.String(),
		CurrentEndDate:   rec.CurrentEnd.String(),
		LongestStartDate: rec.LongestStart.String(),
		LongestEndDate:   rec.LongestEnd.String(),
	}
}

type habitResponse struct {
	Habit habitDTO `json:"habit"`
}

type habitListResponse struct {
	Habits []habitWithStreakDTO `json:"habits"`
}

type habitAnalyticsResponse struct {
	HabitID     string         `json:"habitId"`
	Frequency   string         `json:"frequency"`
	Streak      streakDTO      `json:"streak"`
	Weekly      windowDTO      `json:"weekly"`
	Monthly     windowDTO      `json:"monthly"`
	DailySeries []pointDTO     `json:"dailySeries"`
	DateToCount map[string]int `json:"dateToCount"`
}
