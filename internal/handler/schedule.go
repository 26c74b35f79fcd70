package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mhasan/tweetpilot/internal/service"
)

// ScheduleHandler owns the /api/scheduled-posts endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
	logger  *slog.Logger
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(svc *service.ScheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: svc, logger: logger}
}

// HandleCreate queues a post: POST /api/scheduled-posts
func (h *ScheduleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Content       string    `json:"content"`
		ScheduledTime time.Time `json:"scheduled_time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.Create(r.Context(), userID, req.Content, req.ScheduledTime)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleList lists the queue: GET /api/scheduled-posts?status=&limit=&offset=
func (h *ScheduleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.service.List(r.Context(), userID, listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// HandleGet fetches one entry: GET /api/scheduled-posts/{id}
func (h *ScheduleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	post, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate edits a pending entry: PUT /api/scheduled-posts/{id}
func (h *ScheduleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Content       string     `json:"content"`
		ScheduledTime *time.Time `json:"scheduled_time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, req.Content, req.ScheduledTime)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a pending entry: DELETE /api/scheduled-posts/{id}
func (h *ScheduleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePostNow publishes immediately: POST /api/scheduled-posts/{id}/post-now
func (h *ScheduleHandler) HandlePostNow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	post, err := h.service.PostNow(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}
