package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mhasan/tweetpilot/internal/service"
)

// AnalyticsHandler owns the /api/analytics endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(svc *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc, logger: logger}
}

// HandleDashboard summarizes engagement: GET /api/analytics/dashboard
func (h *AnalyticsHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.GetDashboard(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// HandleEngagement returns daily buckets: GET /api/analytics/engagement?days=30
func (h *AnalyticsHandler) HandleEngagement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	buckets, err := h.service.GetEngagement(r.Context(), userID, days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, buckets)
}

// HandleRefreshMetrics pulls a published post's current engagement counters
// from Twitter into the archive: POST /api/posts/{id}/refresh-metrics
func (h *AnalyticsHandler) HandleRefreshMetrics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	post, err := h.service.RefreshPostMetrics(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleGrowth returns live follower metrics: GET /api/analytics/growth
func (h *AnalyticsHandler) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	growth, err := h.service.GetGrowth(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, growth)
}
