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

// PostStore implements repository.PostRepository on the shared pool.
type PostStore struct {
	conn *sql.DB
}

// Posts returns the post store backed by this database.
func (db *DB) Posts() *PostStore {
	return &PostStore{conn: db.conn}
}

// compile-time check that *PostStore implements repository.PostRepository
var _ repository.PostRepository = (*PostStore)(nil)

const postColumns = `id, user_id, content, tweet_id, is_scheduled,
	scheduled_at, posted_at, status, likes_count, retweets_count,
	replies_count, impressions_count, created_at, updated_at`

// Create inserts a new post, generating the ID and timestamps.
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	now := time.Now()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.UserID,
		post.Content,
		post.TweetID,
		post.IsScheduled,
		nullTimePtr(post.ScheduledAt),
		nullTimePtr(post.PostedAt),
		post.Status,
		post.LikesCount,
		post.RetweetsCount,
		post.RepliesCount,
		post.ImpressionsCount,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	return nil
}

// GetByID retrieves a post owned by userID. A post belonging to another user
// is indistinguishable from a missing one — both are NotFound.
func (s *PostStore) GetByID(ctx context.Context, id, userID string) (*model.Post, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	return post, nil
}

// List returns the user's posts, newest first, with optional status filtering.
func (s *PostStore) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)

	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = ?`
	args := []any{userID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// Update writes every mutable post column.
func (s *PostStore) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE posts SET
			content = ?, tweet_id = ?, is_scheduled = ?, scheduled_at = ?,
			posted_at = ?, status = ?, likes_count = ?, retweets_count = ?,
			replies_count = ?, impressions_count = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		post.Content,
		post.TweetID,
		post.IsScheduled,
		nullTimePtr(post.ScheduledAt),
		nullTimePtr(post.PostedAt),
		post.Status,
		post.LikesCount,
		post.RetweetsCount,
		post.RepliesCount,
		post.ImpressionsCount,
		post.UpdatedAt,
		post.ID,
		post.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// Delete removes a post owned by userID.
func (s *PostStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}

// EngagementTotals sums the engagement counters across all of a user's posts.
// COALESCE keeps the SUMs at zero (not NULL) when the user has no posts.
func (s *PostStore) EngagementTotals(ctx context.Context, userID string) (*model.EngagementTotals, error) {
	var totals model.EngagementTotals

	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(likes_count), 0),
			COALESCE(SUM(retweets_count), 0),
			COALESCE(SUM(replies_count), 0)
		 FROM posts WHERE user_id = ?`,
		userID,
	).Scan(&totals.Posts, &totals.Likes, &totals.Retweets, &totals.Replies)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating engagement for user %s: %w", userID, err)
	}

	return &totals, nil
}

// TopByEngagement returns the user's n posts with the highest likes+retweets.
func (s *PostStore) TopByEngagement(ctx context.Context, userID string, n int) ([]model.Post, error) {
	if n <= 0 {
		n = 5
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE user_id = ?
		 ORDER BY likes_count + retweets_count DESC
		 LIMIT ?`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing top posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning top post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating top posts: %w", err)
	}

	return posts, nil
}

// DailyEngagement buckets the user's posts created since the given time by
// calendar day, summing the engagement counters per bucket.
//
// The bucketing happens in Go: the driver stores time.Time parameters in a
// text layout SQLite's date() cannot parse, so grouping on date(created_at)
// would collapse every row into a NULL bucket.
func (s *PostStore) DailyEngagement(ctx context.Context, userID string, since time.Time) ([]model.DailyEngagement, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT created_at, likes_count, retweets_count, replies_count
		 FROM posts
		 WHERE user_id = ? AND created_at >= ?
		 ORDER BY created_at ASC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bucketing daily engagement: %w", err)
	}
	defer rows.Close()

	days := []model.DailyEngagement{}
	index := map[string]int{}
	for rows.Next() {
		var (
			createdAt                time.Time
			likes, retweets, replies int
		)
		if err := rows.Scan(&createdAt, &likes, &retweets, &replies); err != nil {
			return nil, fmt.Errorf("sqlite: scanning daily engagement row: %w", err)
		}

		date := createdAt.Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, model.DailyEngagement{Date: date})
		}
		days[i].Posts++
		days[i].Likes += likes
		days[i].Retweets += retweets
		days[i].Replies += replies
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating daily engagement: %w", err)
	}

	return days, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*model.Post, error) {
	var (
		post                  model.Post
		scheduledAt, postedAt sql.NullTime
	)

	err := s.Scan(
		&post.ID,
		&post.UserID,
		&post.Content,
		&post.TweetID,
		&post.IsScheduled,
		&scheduledAt,
		&postedAt,
		&post.Status,
		&post.LikesCount,
		&post.RetweetsCount,
		&post.RepliesCount,
		&post.ImpressionsCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduledAt.Valid {
		t := scheduledAt.Time
		post.ScheduledAt = &t
	}
	if postedAt.Valid {
		t := postedAt.Time
		post.PostedAt = &t
	}

	return &post, nil
}
