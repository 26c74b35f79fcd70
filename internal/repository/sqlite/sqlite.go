// Package sqlite implements the repository interfaces on SQLite.
//
// We use modernc.org/sqlite (a pure-Go translation of SQLite) rather than the
// CGo driver so the binary cross-compiles without a C toolchain. The database
// is a single file; ":memory:" gives tests a throwaway instance.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath, applies the connection
// pragmas, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — required for
	// a web server sharing one database file across request goroutines.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. Every child table here
	// references users(id), so turn enforcement on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent, so it is safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                    TEXT PRIMARY KEY,
			username              TEXT NOT NULL DEFAULT '',
			email                 TEXT NOT NULL DEFAULT '',
			full_name             TEXT NOT NULL DEFAULT '',
			password_hash         TEXT NOT NULL DEFAULT '',
			twitter_user_id       TEXT NOT NULL DEFAULT '',
			twitter_username      TEXT NOT NULL DEFAULT '',
			twitter_access_token  TEXT NOT NULL DEFAULT '',
			twitter_refresh_token TEXT NOT NULL DEFAULT '',
			token_expiry          DATETIME,
			twitter_oauth1_token  TEXT NOT NULL DEFAULT '',
			twitter_oauth1_secret TEXT NOT NULL DEFAULT '',
			language_pref         TEXT NOT NULL DEFAULT 'en',
			is_active             INTEGER NOT NULL DEFAULT 1,
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username
			ON users(username) WHERE username != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email) WHERE email != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_twitter_user_id
			ON users(twitter_user_id) WHERE twitter_user_id != '';
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			content           TEXT NOT NULL,
			tweet_id          TEXT NOT NULL DEFAULT '',
			is_scheduled      INTEGER NOT NULL DEFAULT 0,
			scheduled_at      DATETIME,
			posted_at         DATETIME,
			status            TEXT NOT NULL DEFAULT 'draft',
			likes_count       INTEGER NOT NULL DEFAULT 0,
			retweets_count    INTEGER NOT NULL DEFAULT 0,
			replies_count     INTEGER NOT NULL DEFAULT 0,
			impressions_count INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
		CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS scheduled_posts (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			content        TEXT NOT NULL,
			scheduled_time DATETIME NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			tweet_id       TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scheduled_posts_user_id ON scheduled_posts(user_id);
		CREATE INDEX IF NOT EXISTS idx_scheduled_posts_due
			ON scheduled_posts(status, scheduled_time);
	`)
	if err != nil {
		return fmt.Errorf("creating scheduled_posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS content_logs (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			prompt         TEXT NOT NULL,
			generated_text TEXT NOT NULL,
			mode           TEXT NOT NULL,
			tokens_used    INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_content_logs_user_id ON content_logs(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating content_logs table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The modernc driver exposes no typed error for this, so we match the
// message SQLite itself produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// clampList applies the pagination bounds shared by every list query.
func clampList(limit, offset int) (int, int) {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
