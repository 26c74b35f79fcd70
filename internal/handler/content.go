package handler

import (
	"log/slog"
	"net/http"

	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/service"
)

// ContentHandler owns the /api/content endpoints.
type ContentHandler struct {
	service *service.ContentService
	logger  *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(svc *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{service: svc, logger: logger}
}

// generateRequest is shared by the three generation endpoints. Topic carries
// the subject for tweets/threads; Tweet carries the original tweet for
// replies.
type generateRequest struct {
	Topic       string `json:"topic,omitempty"`
	Tweet       string `json:"tweet,omitempty"`
	Style       string `json:"style,omitempty"`
	Language    string `json:"language,omitempty"`
	UserContext string `json:"user_context,omitempty"`
	NumTweets   int    `json:"num_tweets,omitempty"`
}

// generateResponse is the body returned by the generation endpoints.
type generateResponse struct {
	Success    bool   `json:"success"`
	Content    string `json:"content"`
	Prompt     string `json:"prompt"`
	Mode       string `json:"mode"`
	TokensUsed int    `json:"tokens_used"`
}

func newGenerateResponse(entry *model.ContentLog) generateResponse {
	return generateResponse{
		Success:    true,
		Content:    entry.GeneratedText,
		Prompt:     entry.Prompt,
		Mode:       entry.Mode,
		TokensUsed: entry.TokensUsed,
	}
}

// HandleGenerateTweet generates one tweet: POST /api/content/generate-tweet
func (h *ContentHandler) HandleGenerateTweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.service.GenerateTweet(r.Context(), userID, service.GenerateRequest{
		Topic:       req.Topic,
		Style:       req.Style,
		Language:    req.Language,
		UserContext: req.UserContext,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newGenerateResponse(entry))
}

// HandleGenerateThread generates a thread: POST /api/content/generate-thread
func (h *ContentHandler) HandleGenerateThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.service.GenerateThread(r.Context(), userID, service.GenerateRequest{
		Topic:     req.Topic,
		Style:     req.Style,
		Language:  req.Language,
		NumTweets: req.NumTweets,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newGenerateResponse(entry))
}

// HandleGenerateReply generates a reply: POST /api/content/generate-reply
func (h *ContentHandler) HandleGenerateReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.service.GenerateReply(r.Context(), userID, service.GenerateRequest{
		Topic:       req.Tweet,
		Style:       req.Style,
		Language:    req.Language,
		UserContext: req.UserContext,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newGenerateResponse(entry))
}

// HandleHistory lists past generations: GET /api/content/history?mode=&limit=&offset=
func (h *ContentHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	logs, err := h.service.History(r.Context(), userID, listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}
