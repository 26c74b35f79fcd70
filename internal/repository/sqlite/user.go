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

// UserStore implements repository.UserRepository on the shared pool.
type UserStore struct {
	conn *sql.DB
}

// Users returns the user store backed by this database.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, username, email, full_name, password_hash,
	twitter_user_id, twitter_username, twitter_access_token,
	twitter_refresh_token, token_expiry, twitter_oauth1_token,
	twitter_oauth1_secret, language_pref, is_active, created_at, updated_at`

// Create inserts a new user, generating the ID and timestamps.
// A username, email, or twitter_user_id collision maps to apperror.Conflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.LanguagePref == "" {
		user.LanguagePref = "en"
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.TwitterUserID,
		user.TwitterUsername,
		user.TwitterAccessToken,
		user.TwitterRefreshToken,
		nullTime(user.TokenExpiry),
		user.TwitterOAuth1Token,
		user.TwitterOAuth1Secret,
		user.LanguagePref,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `id = ?`, id, id)
}

// GetByUsername retrieves a user by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, `username = ?`, username, username)
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `email = ?`, email, email)
}

// GetByTwitterID retrieves a user by the platform's immutable user ID.
func (s *UserStore) GetByTwitterID(ctx context.Context, twitterUserID string) (*model.User, error) {
	return s.getUser(ctx, `twitter_user_id = ?`, twitterUserID, twitterUserID)
}

func (s *UserStore) getUser(ctx context.Context, where, arg, display string) (*model.User, error) {
	var (
		u      model.User
		expiry sql.NullTime
	)

	err := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.TwitterUserID,
		&u.TwitterUsername,
		&u.TwitterAccessToken,
		&u.TwitterRefreshToken,
		&expiry,
		&u.TwitterOAuth1Token,
		&u.TwitterOAuth1Secret,
		&u.LanguagePref,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", display)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", display, err)
	}

	if expiry.Valid {
		u.TokenExpiry = expiry.Time
	}

	return &u, nil
}

// Update writes every mutable user column. The caller mutates the model and
// hands it back; UpdatedAt is refreshed here.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET
			username = ?, email = ?, full_name = ?, password_hash = ?,
			twitter_user_id = ?, twitter_username = ?,
			twitter_access_token = ?, twitter_refresh_token = ?, token_expiry = ?,
			twitter_oauth1_token = ?, twitter_oauth1_secret = ?,
			language_pref = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.TwitterUserID,
		user.TwitterUsername,
		user.TwitterAccessToken,
		user.TwitterRefreshToken,
		nullTime(user.TokenExpiry),
		user.TwitterOAuth1Token,
		user.TwitterOAuth1Secret,
		user.LanguagePref,
		user.IsActive,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// nullTime maps the zero time to NULL so optional timestamps stay NULL in
// the database rather than becoming year-1 values.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// nullTimePtr is the pointer variant of nullTime.
func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
