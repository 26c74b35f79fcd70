package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
	"github.com/mhasan/tweetpilot/internal/twitter"
)

// MetricsFetcher reads public metrics from Twitter. Implemented by
// twitter.Client; mocked in tests.
type MetricsFetcher interface {
	UserMetrics(ctx context.Context, username string) (*twitter.UserMetrics, error)
	TweetMetrics(ctx context.Context, tweetID string) (*twitter.TweetMetrics, error)
}

// AnalyticsService computes engagement statistics from the post archive and
// account growth from the Twitter API.
type AnalyticsService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	metrics MetricsFetcher
	logger  *slog.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(
	posts repository.PostRepository,
	users repository.UserRepository,
	metrics MetricsFetcher,
	logger *slog.Logger,
) *AnalyticsService {
	return &AnalyticsService{posts: posts, users: users, metrics: metrics, logger: logger}
}

// TopPost is a dashboard row: a high-engagement post with its content cut
// down to preview length.
type TopPost struct {
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Likes    int        `json:"likes"`
	Retweets int        `json:"retweets"`
	Replies  int        `json:"replies"`
	PostedAt *time.Time `json:"posted_at,omitempty"`
}

// Dashboard summarizes a user's all-time engagement.
type Dashboard struct {
	TotalTweets   int       `json:"total_tweets"`
	TotalLikes    int       `json:"total_likes"`
	TotalRetweets int       `json:"total_retweets"`
	TotalReplies  int       `json:"total_replies"`
	AvgEngagement float64   `json:"average_engagement"`
	TopTweets     []TopPost `json:"top_tweets"`
}

// Growth is the account's current public follower metrics.
type Growth struct {
	TwitterUsername string `json:"twitter_username"`
	Followers       int    `json:"followers"`
	Following       int    `json:"following"`
	TweetCount      int    `json:"tweet_count"`
	ListedCount     int    `json:"listed_count"`
}

// previewLen bounds the content shown in dashboard rows.
const previewLen = 100

// GetDashboard builds the engagement summary: totals, the mean engagement
// per post rounded to two decimals, and the five best posts.
func (s *AnalyticsService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	totals, err := s.posts.EngagementTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: aggregating totals: %w", err)
	}

	top, err := s.posts.TopByEngagement(ctx, userID, 5)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: listing top posts: %w", err)
	}

	d := &Dashboard{
		TotalTweets:   totals.Posts,
		TotalLikes:    totals.Likes,
		TotalRetweets: totals.Retweets,
		TotalReplies:  totals.Replies,
		TopTweets:     make([]TopPost, 0, len(top)),
	}

	if totals.Posts > 0 {
		avg := float64(totals.Likes+totals.Retweets+totals.Replies) / float64(totals.Posts)
		d.AvgEngagement = math.Round(avg*100) / 100
	}

	for _, p := range top {
		d.TopTweets = append(d.TopTweets, TopPost{
			ID:       p.ID,
			Content:  truncate(p.Content, previewLen),
			Likes:    p.LikesCount,
			Retweets: p.RetweetsCount,
			Replies:  p.RepliesCount,
			PostedAt: p.PostedAt,
		})
	}

	return d, nil
}

// GetEngagement returns per-day engagement buckets for the last `days` days.
// days defaults to 30 and is capped at 365.
func (s *AnalyticsService) GetEngagement(ctx context.Context, userID string, days int) ([]model.DailyEngagement, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		return nil, apperror.ValidationFailed("days", "must be at most 365")
	}

	since := time.Now().AddDate(0, 0, -days)
	buckets, err := s.posts.DailyEngagement(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: bucketing engagement: %w", err)
	}
	return buckets, nil
}

// GetGrowth fetches the linked account's live follower metrics from Twitter.
func (s *AnalyticsService) GetGrowth(ctx context.Context, userID string) (*Growth, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: fetching user %s: %w", userID, err)
	}

	if user.TwitterUsername == "" {
		return nil, apperror.Forbidden("twitter account is not linked")
	}

	m, err := s.metrics.UserMetrics(ctx, user.TwitterUsername)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: fetching metrics for @%s: %w", user.TwitterUsername, err)
	}

	return &Growth{
		TwitterUsername: m.Username,
		Followers:       m.FollowersCount,
		Following:       m.FollowingCount,
		TweetCount:      m.TweetCount,
		ListedCount:     m.ListedCount,
	}, nil
}

// RefreshPostMetrics re-reads a published post's public engagement counters
// from Twitter and stores them, so the dashboard reflects current numbers
// instead of whatever was recorded at publish time.
func (s *AnalyticsService) RefreshPostMetrics(ctx context.Context, id, userID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: fetching post %s: %w", id, err)
	}

	if post.TweetID == "" {
		return nil, apperror.ValidationFailed("post", "post has not been published")
	}

	m, err := s.metrics.TweetMetrics(ctx, post.TweetID)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: fetching metrics for tweet %s: %w", post.TweetID, err)
	}

	post.LikesCount = m.LikeCount
	post.RetweetsCount = m.RetweetCount
	post.RepliesCount = m.ReplyCount
	post.ImpressionsCount = m.ImpressionCount

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("service/analytics: storing metrics for post %s: %w", id, err)
	}

	s.logger.Info("post metrics refreshed",
		slog.String("postID", id),
		slog.String("tweetID", post.TweetID),
	)
	return post, nil
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
