package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/auth"
	"github.com/mhasan/tweetpilot/internal/repository"
	"github.com/mhasan/tweetpilot/internal/service"
)

// PostHandler owns the /api/posts endpoints.
type PostHandler struct {
	service *service.PostService
	logger  *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(svc *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{service: svc, logger: logger}
}

// listOptions reads the shared limit/offset/status query parameters. "skip"
// is accepted as an alias for "offset".
func listOptions(r *http.Request) repository.ListOptions {
	q := r.URL.Query()
	opts := repository.ListOptions{
		Status: q.Get("status"),
		Mode:   q.Get("mode"),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = v
	} else if v, err := strconv.Atoi(q.Get("skip")); err == nil {
		opts.Offset = v
	}
	return opts
}

// requireUser pulls the authenticated user ID out of the request context.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return "", false
	}
	return userID, true
}

// HandleCreate creates a post: POST /api/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Content     string     `json:"content"`
		Status      string     `json:"status"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.Create(r.Context(), userID, req.Content, req.Status, req.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleList lists posts: GET /api/posts?status=&limit=&offset=
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
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

// HandleGet fetches one post: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

// HandleUpdate edits a post: PUT /api/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Content     string     `json:"content"`
		Status      string     `json:"status"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, req.Content, req.Status, req.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
