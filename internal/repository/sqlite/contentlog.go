package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

// ContentLogStore implements repository.ContentLogRepository on the shared
// pool. Logs are append-only: there is no update or delete.
type ContentLogStore struct {
	conn *sql.DB
}

// ContentLogs returns the content-log store backed by this database.
func (db *DB) ContentLogs() *ContentLogStore {
	return &ContentLogStore{conn: db.conn}
}

// compile-time check that *ContentLogStore implements the interface
var _ repository.ContentLogRepository = (*ContentLogStore)(nil)

// Create inserts a generation log entry.
func (s *ContentLogStore) Create(ctx context.Context, log *model.ContentLog) error {
	log.ID = xid.New().String()
	log.CreatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO content_logs (id, user_id, prompt, generated_text, mode, tokens_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.UserID,
		log.Prompt,
		log.GeneratedText,
		log.Mode,
		log.TokensUsed,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating content log: %w", err)
	}

	return nil
}

// List returns the user's generation history, newest first, optionally
// filtered by mode.
func (s *ContentLogStore) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ContentLog, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)

	query := `SELECT id, user_id, prompt, generated_text, mode, tokens_used, created_at
		 FROM content_logs WHERE user_id = ?`
	args := []any{userID}
	if opts.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, opts.Mode)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing content logs: %w", err)
	}
	defer rows.Close()

	logs := []model.ContentLog{}
	for rows.Next() {
		var l model.ContentLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Prompt, &l.GeneratedText, &l.Mode, &l.TokensUsed, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning content log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating content logs: %w", err)
	}

	return logs, nil
}
