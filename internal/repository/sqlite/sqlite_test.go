package sqlite

import (
	"context"
	"testing"

	"github.com/mhasan/tweetpilot/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database. Each test
// gets its own isolated database; t.Cleanup closes it when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user and fails the test on error. Most rows in
// the other tables need an owning user for the foreign keys.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestNew_Migrates(t *testing.T) {
	db := newTestDB(t)

	// All four tables should exist after New.
	for _, table := range []string{"users", "posts", "scheduled_posts", "content_logs"} {
		var name string
		err := db.conn.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing after migration: %v", table, err)
		}
	}
}
