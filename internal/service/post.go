package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

// PostService owns the post archive: drafts the user is working on and the
// record of everything published.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// validateContent enforces the tweet length contract shared by every write
// path. Length is counted in runes: Twitter counts characters, not bytes.
func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperror.ValidationFailed("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > model.MaxPostLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("must be at most %d characters", model.MaxPostLength))
	}
	return nil
}

// Create stores a new post. Status defaults to draft; a scheduledAt in the
// future makes it a scheduled post instead.
func (s *PostService) Create(ctx context.Context, userID, content, status string, scheduledAt *time.Time) (*model.Post, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if status == "" {
		status = model.PostStatusDraft
	}
	if !model.ValidPostStatus(status) {
		return nil, apperror.ValidationFailed("status", "unknown post status")
	}
	if scheduledAt != nil {
		if !scheduledAt.After(time.Now()) {
			return nil, apperror.ValidationFailed("scheduled_at", "must be in the future")
		}
		status = model.PostStatusScheduled
	}

	post := &model.Post{
		UserID:      userID,
		Content:     content,
		Status:      status,
		IsScheduled: scheduledAt != nil,
		ScheduledAt: scheduledAt,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("service/post: creating post: %w", err)
	}

	s.logger.Info("post created", slog.String("postID", post.ID), slog.String("userID", userID))
	return post, nil
}

// Get returns one of the user's posts.
func (s *PostService) Get(ctx context.Context, id, userID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("service/post: fetching post %s: %w", id, err)
	}
	return post, nil
}

// List returns the user's posts, newest first.
func (s *PostService) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	if opts.Status != "" && !model.ValidPostStatus(opts.Status) {
		return nil, apperror.ValidationFailed("status", "unknown post status")
	}

	posts, err := s.posts.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/post: listing posts: %w", err)
	}
	return posts, nil
}

// Update rewrites a post's content, status or schedule. Posts that already
// went out keep their text: editing a published tweet here would silently
// diverge from what is live on Twitter.
func (s *PostService) Update(ctx context.Context, id, userID, content, status string, scheduledAt *time.Time) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("service/post: fetching post %s: %w", id, err)
	}

	if content != "" {
		if post.Status == model.PostStatusPosted {
			return nil, apperror.Forbidden("cannot edit a published post")
		}
		if err := validateContent(content); err != nil {
			return nil, err
		}
		post.Content = content
	}
	if status != "" {
		if !model.ValidPostStatus(status) {
			return nil, apperror.ValidationFailed("status", "unknown post status")
		}
		post.Status = status
	}
	if scheduledAt != nil {
		if post.Status == model.PostStatusPosted {
			return nil, apperror.Forbidden("cannot re-schedule a published post")
		}
		if !scheduledAt.After(time.Now()) {
			return nil, apperror.ValidationFailed("scheduled_at", "must be in the future")
		}
		post.ScheduledAt = scheduledAt
		post.IsScheduled = true
		post.Status = model.PostStatusScheduled
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("service/post: updating post %s: %w", id, err)
	}
	return post, nil
}

// Delete removes one of the user's posts.
func (s *PostService) Delete(ctx context.Context, id, userID string) error {
	if err := s.posts.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("service/post: deleting post %s: %w", id, err)
	}

	s.logger.Info("post deleted", slog.String("postID", id), slog.String("userID", userID))
	return nil
}
