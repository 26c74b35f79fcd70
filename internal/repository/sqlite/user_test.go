package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/model"
)

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		FullName:     "Alice Example",
		IsActive:     true,
	}

	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "bob")

	dup := &model.User{Username: "bob", Email: "other@example.com", PasswordHash: "h"}
	err := db.Users().Create(context.Background(), dup)
	if err == nil {
		t.Fatal("Create() should fail for a duplicate username")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error should wrap ErrConflict, got %v", err)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "carol")

	dup := &model.User{Username: "carol2", Email: "carol@example.com", PasswordHash: "h"}
	if err := db.Users().Create(context.Background(), dup); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate email should wrap ErrConflict, got %v", err)
	}
}

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "dave")

	got, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "dave" || got.Email != "dave@example.com" {
		t.Errorf("GetByID() returned wrong user: %+v", got)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() should wrap ErrNotFound, got %v", err)
	}
}

func TestUserGetByUsernameAndEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "erin")

	byName, err := db.Users().GetByUsername(context.Background(), "erin")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("GetByUsername() ID = %q, want %q", byName.ID, created.ID)
	}

	byEmail, err := db.Users().GetByEmail(context.Background(), "erin@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != created.ID {
		t.Errorf("GetByEmail() ID = %q, want %q", byEmail.ID, created.ID)
	}
}

func TestUserGetByTwitterID(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "frank")

	user.TwitterUserID = "tw-100"
	user.TwitterUsername = "frank_tw"
	if err := db.Users().Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Users().GetByTwitterID(context.Background(), "tw-100")
	if err != nil {
		t.Fatalf("GetByTwitterID() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetByTwitterID() ID = %q, want %q", got.ID, user.ID)
	}
}

func TestUserUpdate_Tokens(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "grace")

	expiry := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	user.TwitterAccessToken = "access"
	user.TwitterRefreshToken = "refresh"
	user.TokenExpiry = expiry
	user.TwitterOAuth1Token = "oauth1-token"
	user.TwitterOAuth1Secret = "oauth1-secret"

	if err := db.Users().Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.TwitterAccessToken != "access" || got.TwitterRefreshToken != "refresh" {
		t.Errorf("OAuth2 tokens not persisted: %+v", got)
	}
	if got.TwitterOAuth1Token != "oauth1-token" || got.TwitterOAuth1Secret != "oauth1-secret" {
		t.Errorf("OAuth1 credentials not persisted: %+v", got)
	}
	if !got.TokenExpiry.Equal(expiry) {
		t.Errorf("token expiry = %v, want %v", got.TokenExpiry, expiry)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "no-such-id", Username: "ghost", Email: "g@example.com"}
	if err := db.Users().Update(context.Background(), ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() should wrap ErrNotFound, got %v", err)
	}
}
