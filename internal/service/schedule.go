package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

// TweetPoster publishes a tweet on a user's behalf with their OAuth 1.0a
// token pair. Implemented by twitter.Client; mocked in tests.
type TweetPoster interface {
	PostTweet(ctx context.Context, token, tokenSecret, text string) (tweetID string, err error)
}

// ScheduleService manages the scheduling queue and drives publishing, both
// on demand (PostNow) and from the background scheduler (PublishDue).
type ScheduleService struct {
	scheduled repository.ScheduledPostRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	poster    TweetPoster
	logger    *slog.Logger
}

// NewScheduleService creates a ScheduleService.
func NewScheduleService(
	scheduled repository.ScheduledPostRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	poster TweetPoster,
	logger *slog.Logger,
) *ScheduleService {
	return &ScheduleService{
		scheduled: scheduled,
		posts:     posts,
		users:     users,
		poster:    poster,
		logger:    logger,
	}
}

// Create queues a post for future publication. The target time must be in
// the future; a past time would publish on the next scheduler tick, which is
// never what the user meant.
func (s *ScheduleService) Create(ctx context.Context, userID, content string, at time.Time) (*model.ScheduledPost, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if !at.After(time.Now()) {
		return nil, apperror.ValidationFailed("scheduled_time", "must be in the future")
	}

	post := &model.ScheduledPost{
		UserID:        userID,
		Content:       content,
		ScheduledTime: at,
	}
	if err := s.scheduled.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("service/schedule: creating scheduled post: %w", err)
	}

	s.logger.Info("post scheduled",
		slog.String("scheduledPostID", post.ID),
		slog.String("userID", userID),
		slog.Time("scheduledTime", at),
	)
	return post, nil
}

// Get returns one of the user's scheduled posts.
func (s *ScheduleService) Get(ctx context.Context, id, userID string) (*model.ScheduledPost, error) {
	post, err := s.scheduled.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("service/schedule: fetching scheduled post %s: %w", id, err)
	}
	return post, nil
}

// List returns the user's scheduled posts, soonest first.
func (s *ScheduleService) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ScheduledPost, error) {
	if opts.Status != "" && !model.ValidScheduledStatus(opts.Status) {
		return nil, apperror.ValidationFailed("status", "unknown scheduled post status")
	}

	posts, err := s.scheduled.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/schedule: listing scheduled posts: %w", err)
	}
	return posts, nil
}

// Update rewrites a pending scheduled post. Once a post left pending —
// published, failed or cancelled — its history is frozen.
func (s *ScheduleService) Update(ctx context.Context, id, userID, content string, at *time.Time) (*model.ScheduledPost, error) {
	post, err := s.scheduled.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("service/schedule: fetching scheduled post %s: %w", id, err)
	}

	if post.Status != model.ScheduledStatusPending {
		return nil, apperror.Forbidden("only pending scheduled posts can be modified")
	}

	if content != "" {
		if err := validateContent(content); err != nil {
			return nil, err
		}
		post.Content = content
	}
	if at != nil {
		if !at.After(time.Now()) {
			return nil, apperror.ValidationFailed("scheduled_time", "must be in the future")
		}
		post.ScheduledTime = *at
	}

	if err := s.scheduled.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("service/schedule: updating scheduled post %s: %w", id, err)
	}
	return post, nil
}

// Delete removes a pending scheduled post from the queue.
func (s *ScheduleService) Delete(ctx context.Context, id, userID string) error {
	post, err := s.scheduled.GetByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("service/schedule: fetching scheduled post %s: %w", id, err)
	}

	if post.Status != model.ScheduledStatusPending {
		return apperror.Forbidden("only pending scheduled posts can be deleted")
	}

	if err := s.scheduled.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("service/schedule: deleting scheduled post %s: %w", id, err)
	}

	s.logger.Info("scheduled post deleted", slog.String("scheduledPostID", id), slog.String("userID", userID))
	return nil
}

// PostNow publishes a pending scheduled post immediately instead of waiting
// for its slot.
func (s *ScheduleService) PostNow(ctx context.Context, id, userID string) (*model.ScheduledPost, error) {
	post, err := s.scheduled.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("service/schedule: fetching scheduled post %s: %w", id, err)
	}

	if post.Status != model.ScheduledStatusPending {
		return nil, apperror.Forbidden("only pending scheduled posts can be published")
	}

	if err := s.publish(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// PublishDue publishes every pending post whose time has come. The scheduler
// calls this on each tick; failures are logged per post and never stop the
// batch.
func (s *ScheduleService) PublishDue(ctx context.Context) (published int, err error) {
	due, err := s.scheduled.ListDue(ctx, time.Now(), 0)
	if err != nil {
		return 0, fmt.Errorf("service/schedule: listing due posts: %w", err)
	}

	for i := range due {
		post := &due[i]
		if err := s.publish(ctx, post); err != nil {
			s.logger.Error("publishing scheduled post failed",
				slog.String("scheduledPostID", post.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		published++
	}

	return published, nil
}

// publish sends one scheduled post to Twitter and records the outcome: the
// queue row moves to posted/failed, and a successful publish also lands in
// the post archive with its tweet ID.
func (s *ScheduleService) publish(ctx context.Context, post *model.ScheduledPost) error {
	// Claim the row before touching Twitter: post-now and a scheduler tick
	// can race for the same pending post, and only the claim winner may
	// tweet. The loser backs off without a duplicate.
	claimed, err := s.scheduled.ClaimPending(ctx, post.ID, post.UserID)
	if err != nil {
		return fmt.Errorf("service/schedule: claiming %s: %w", post.ID, err)
	}
	if !claimed {
		return &apperror.AppError{
			Err:     apperror.ErrConflict,
			Message: "scheduled post was already published",
		}
	}
	post.Status = model.ScheduledStatusPosted

	user, err := s.users.GetByID(ctx, post.UserID)
	if err != nil {
		s.markFailed(ctx, post)
		return fmt.Errorf("service/schedule: fetching owner of %s: %w", post.ID, err)
	}

	if !user.TwitterLinked() {
		s.markFailed(ctx, post)
		return apperror.Forbidden("twitter account is not linked")
	}

	tweetID, err := s.poster.PostTweet(ctx, user.TwitterOAuth1Token, user.TwitterOAuth1Secret, post.Content)
	if err != nil {
		s.markFailed(ctx, post)
		return fmt.Errorf("service/schedule: posting tweet for %s: %w", post.ID, err)
	}

	now := time.Now()
	post.TweetID = tweetID
	if err := s.scheduled.Update(ctx, post); err != nil {
		return fmt.Errorf("service/schedule: marking %s posted: %w", post.ID, err)
	}

	archived := &model.Post{
		UserID:      post.UserID,
		Content:     post.Content,
		TweetID:     tweetID,
		IsScheduled: true,
		ScheduledAt: &post.ScheduledTime,
		PostedAt:    &now,
		Status:      model.PostStatusPosted,
	}
	if err := s.posts.Create(ctx, archived); err != nil {
		// The tweet is live; a failed archive write must not fail the
		// publish. Log and move on.
		s.logger.Error("archiving published post failed",
			slog.String("scheduledPostID", post.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("scheduled post published",
		slog.String("scheduledPostID", post.ID),
		slog.String("tweetID", tweetID),
	)
	return nil
}

func (s *ScheduleService) markFailed(ctx context.Context, post *model.ScheduledPost) {
	post.Status = model.ScheduledStatusFailed
	if err := s.scheduled.Update(ctx, post); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Error("marking scheduled post failed",
			slog.String("scheduledPostID", post.ID),
			slog.String("error", err.Error()),
		)
	}
}
