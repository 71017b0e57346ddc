package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/application"
)

type dashboardService interface {
	DashboardStats(ctx context.Context, principal application.Principal) (application.DashboardStats, error)
	DashboardAnalytics(ctx context.Context, principal application.Principal) (analytics.DashboardReport, error)
}

// DashboardHandler serves the user wide dashboard.
type DashboardHandler struct {
	service   dashboardService
	responder responder
	logger    *slog.Logger
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DashboardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DashboardHandler", operation, attrs...)
}

// Stats handles GET /dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	stats, err := h.service.DashboardStats(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Stats").
			ErrorContext(r.Context(), "dashboard stats failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := dashboardStatsResponse{
		UserName:         stats.UserName,
		TotalHabits:      stats.TotalHabits,
		TodayCompletions: stats.TodayCompletions,
		Percentage:       stats.Percentage,
		Completions:      make([]completionDTO, 0, len(stats.Completions)),
		Streaks:          make([]streakDTO, 0, len(stats.Streaks)),
	}
	for _, c := range stats.Completions {
		resp.Completions = append(resp.Completions, toCompletionDTO(c))
	}
	for _, s := range stats.Streaks {
		resp.Streaks = append(resp.Streaks, toStreakDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Analytics handles GET /dashboard/analytics.
func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	report, err := h.service.DashboardAnalytics(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Analytics").
			ErrorContext(r.Context(), "dashboard analytics failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboardAnalyticsResponse{
		HabitCount:  report.HabitCount,
		Weekly:      toWindowDTO(report.Weekly),
		Monthly:     toWindowDTO(report.Monthly),
		Yearly:      toWindowDTO(report.Yearly),
		DailySeries: toSeriesDTO(report.DailySeries),
		DateToCount: nonNilCounts(report.DailySeries.DateToCount()),
	})
}

type dashboardStatsResponse struct {
	UserName         string          `json:"userName"`
	TotalHabits      int             `json:"totalHabits"`
	TodayCompletions int             `json:"todayCompletions"`
	Percentage       int             `json:"percentage"`
	Completions      []completionDTO `json:"completions"`
	Streaks          []streakDTO     `json:"streaks"`
}

type dashboardAnalyticsResponse struct {
	HabitCount  int            `json:"habitCount"`
	Weekly      windowDTO      `json:"weekly"`
	Monthly     windowDTO      `json:"monthly"`
	Yearly      windowDTO      `json:"yearly"`
	DailySeries []pointDTO     `json:"dailySeries"`
	DateToCount map[string]int `json:"dateToCount"`
}

type windowDTO struct {
	CompletedPairs int    `json:"completedPairs"`
	ExpectedPairs  int    `json:"expectedPairs"`
	Percentage     int    `json:"percentage"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
}

func toWindowDTO(s analytics.WindowSummary) windowDTO {
	return windowDTO{
		CompletedPairs: s.CompletedPairs,
		ExpectedPairs:  s.ExpectedPairs,
		Percentage:     s.Percentage,
		StartDate:      s.Start.String(),
		EndDate:        s.End.String(),
	}
}

type pointDTO struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func toSeriesDTO(series analytics.Series) []pointDTO {
	out := make([]pointDTO, 0, len(series))
	for _, p := range series {
		out = append(out, pointDTO{Date: p.Date.String(), Count: p.Count})
	}
	return out
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
