// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/mhasan/tweetpilot/internal/model"
)

// ListOptions carries pagination and optional status/mode filtering for
// list queries. An empty Status/Mode means no filter.
type ListOptions struct {
	Limit  int
	Offset int
	Status string
	Mode   string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByTwitterID looks a user up by the platform's immutable user ID.
	GetByTwitterID(ctx context.Context, twitterUserID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	// GetByID is owner-scoped: a post belonging to another user is NotFound.
	GetByID(ctx context.Context, id, userID string) (*model.Post, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id, userID string) error

	// Aggregations for the analytics endpoints.
	EngagementTotals(ctx context.Context, userID string) (*model.EngagementTotals, error)
	TopByEngagement(ctx context.Context, userID string, n int) ([]model.Post, error)
	DailyEngagement(ctx context.Context, userID string, since time.Time) ([]model.DailyEngagement, error)
}

type ScheduledPostRepository interface {
	Create(ctx context.Context, post *model.ScheduledPost) error
	GetByID(ctx context.Context, id, userID string) (*model.ScheduledPost, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]model.ScheduledPost, error)
	Update(ctx context.Context, post *model.ScheduledPost) error
	Delete(ctx context.Context, id, userID string) error
	// ListDue returns pending posts whose scheduled_time is at or before now,
	// oldest first, for the background publisher.
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledPost, error)
	// ClaimPending atomically moves a pending row to posted so that exactly
	// one of several racing publishers proceeds. Reports false when the row
	// is missing or already left pending. The winner records the outcome
	// (tweet ID, or a rollback to failed) afterwards.
	ClaimPending(ctx context.Context, id, userID string) (claimed bool, err error)
}

type ContentLogRepository interface {
	Create(ctx context.Context, log *model.ContentLog) error
	List(ctx context.Context, userID string, opts ListOptions) ([]model.ContentLog, error)
}
