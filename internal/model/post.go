package model

import "time"

// Post status values. A post starts as a draft, becomes scheduled when it
// carries a future ScheduledAt, posted once it has been published to the
// platform, and failed when publishing errored.
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
)

// MaxPostLength is the platform's per-post character limit.
const MaxPostLength = 280

// Post is a tweet the user has drafted, scheduled, or published.
//
// TweetID is the platform's identifier, set only after publishing. The
// engagement counters are refreshed from the platform's metrics endpoint and
// default to zero for unpublished posts.
type Post struct {
	ID      string `json:"id"      db:"id"`
	UserID  string `json:"userId"  db:"user_id"`
	Content string `json:"content" db:"content"`
	TweetID string `json:"tweetId" db:"tweet_id"`

	IsScheduled bool       `json:"isScheduled" db:"is_scheduled"`
	ScheduledAt *time.Time `json:"scheduledAt" db:"scheduled_at"`
	PostedAt    *time.Time `json:"postedAt"    db:"posted_at"`

	Status string `json:"status" db:"status"`

	LikesCount       int `json:"likesCount"       db:"likes_count"`
	RetweetsCount    int `json:"retweetsCount"    db:"retweets_count"`
	RepliesCount     int `json:"repliesCount"     db:"replies_count"`
	ImpressionsCount int `json:"impressionsCount" db:"impressions_count"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ValidPostStatus reports whether s is a known post status.
func ValidPostStatus(s string) bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPosted, PostStatusFailed:
		return true
	}
	return false
}

// EngagementTotals aggregates a user's engagement counters across all posts.
type EngagementTotals struct {
	Posts    int `json:"posts"`
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
	Replies  int `json:"replies"`
}

// DailyEngagement is one day's bucket in the engagement timeline.
type DailyEngagement struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Posts    int    `json:"tweets"`
	Likes    int    `json:"likes"`
	Retweets int    `json:"retweets"`
	Replies  int    `json:"replies"`
}
