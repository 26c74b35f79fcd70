package model

import "time"

// Scheduled post status values. Only pending posts may be edited, deleted,
// or published; posted/failed/cancelled are terminal.
const (
	ScheduledStatusPending   = "pending"
	ScheduledStatusPosted    = "posted"
	ScheduledStatusFailed    = "failed"
	ScheduledStatusCancelled = "cancelled"
)

// ScheduledPost is a queued tweet with a target publish time. The background
// publisher (and the post-now endpoint) move it from pending to posted or
// failed, recording the platform's TweetID on success.
type ScheduledPost struct {
	ID            string    `json:"id"            db:"id"`
	UserID        string    `json:"userId"        db:"user_id"`
	Content       string    `json:"content"       db:"content"`
	ScheduledTime time.Time `json:"scheduledTime" db:"scheduled_time"`
	Status        string    `json:"status"        db:"status"`
	TweetID       string    `json:"tweetId"       db:"tweet_id"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// ValidScheduledStatus reports whether s is a known scheduled-post status.
func ValidScheduledStatus(s string) bool {
	switch s {
	case ScheduledStatusPending, ScheduledStatusPosted, ScheduledStatusFailed, ScheduledStatusCancelled:
		return true
	}
	return false
}
