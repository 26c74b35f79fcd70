package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

// ScheduledPostStore implements repository.ScheduledPostRepository on the
// shared pool.
type ScheduledPostStore struct {
	conn *sql.DB
}

// ScheduledPosts returns the scheduled-post store backed by this database.
func (db *DB) ScheduledPosts() *ScheduledPostStore {
	return &ScheduledPostStore{conn: db.conn}
}

// compile-time check that *ScheduledPostStore implements the interface
var _ repository.ScheduledPostRepository = (*ScheduledPostStore)(nil)

const scheduledColumns = `id, user_id, content, scheduled_time, status,
	tweet_id, created_at, updated_at`

// Create inserts a new scheduled post, generating the ID and timestamps and
// defaulting the status to pending.
func (s *ScheduledPostStore) Create(ctx context.Context, post *model.ScheduledPost) error {
	now := time.Now()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Status == "" {
		post.Status = model.ScheduledStatusPending
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO scheduled_posts (`+scheduledColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.UserID,
		post.Content,
		post.ScheduledTime,
		post.Status,
		post.TweetID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating scheduled post: %w", err)
	}

	return nil
}

// GetByID retrieves a scheduled post owned by userID.
func (s *ScheduledPostStore) GetByID(ctx context.Context, id, userID string) (*model.ScheduledPost, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+scheduledColumns+` FROM scheduled_posts WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	post, err := scanScheduled(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("scheduled post", id)
		}
		return nil, fmt.Errorf("sqlite: getting scheduled post %s: %w", id, err)
	}

	return post, nil
}

// List returns the user's scheduled posts ordered by target time,
// soonest first, with optional status filtering.
func (s *ScheduledPostStore) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ScheduledPost, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)

	query := `SELECT ` + scheduledColumns + ` FROM scheduled_posts WHERE user_id = ?`
	args := []any{userID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY scheduled_time ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing scheduled posts: %w", err)
	}
	defer rows.Close()

	posts := []model.ScheduledPost{}
	for rows.Next() {
		post, err := scanScheduled(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning scheduled post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scheduled posts: %w", err)
	}

	return posts, nil
}

// Update writes the mutable scheduled-post columns.
func (s *ScheduledPostStore) Update(ctx context.Context, post *model.ScheduledPost) error {
	post.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE scheduled_posts SET
			content = ?, scheduled_time = ?, status = ?, tweet_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		post.Content,
		post.ScheduledTime,
		post.Status,
		post.TweetID,
		post.UpdatedAt,
		post.ID,
		post.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating scheduled post %s: %w", post.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating scheduled post %s: %w", post.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("scheduled post", post.ID)
	}

	return nil
}

// Delete removes a scheduled post owned by userID.
func (s *ScheduledPostStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM scheduled_posts WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting scheduled post %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting scheduled post %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("scheduled post", id)
	}

	return nil
}

// ListDue returns pending posts whose scheduled_time has passed, oldest
// first. The publisher claims rows from this list one at a time.
func (s *ScheduledPostStore) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledPost, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+scheduledColumns+` FROM scheduled_posts
		 WHERE status = ? AND scheduled_time <= ?
		 ORDER BY scheduled_time ASC
		 LIMIT ?`,
		model.ScheduledStatusPending, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing due posts: %w", err)
	}
	defer rows.Close()

	posts := []model.ScheduledPost{}
	for rows.Next() {
		post, err := scanScheduled(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning due post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating due posts: %w", err)
	}

	return posts, nil
}

// ClaimPending transitions a pending scheduled post to posted in a single
// conditional UPDATE. When post-now and a scheduler tick race for the same
// row, only one caller sees the row flip and gets to tweet.
func (s *ScheduledPostStore) ClaimPending(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?`,
		model.ScheduledStatusPosted, time.Now(), id, userID, model.ScheduledStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: claiming scheduled post %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: claiming scheduled post %s: %w", id, err)
	}
	return affected == 1, nil
}

func scanScheduled(s scanner) (*model.ScheduledPost, error) {
	var post model.ScheduledPost

	err := s.Scan(
		&post.ID,
		&post.UserID,
		&post.Content,
		&post.ScheduledTime,
		&post.Status,
		&post.TweetID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &post, nil
}
