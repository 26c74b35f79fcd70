// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Two identity paths land here: classic username/password, and
// "Sign in with Twitter" (OAuth 2.0), which upserts a user keyed by their
// Twitter ID. Account LINKING (OAuth 1.0a, for posting) is separate — it
// attaches posting credentials to an already-authenticated user.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/auth"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

// AuthService handles registration, login and Twitter account state.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account from username/email/password and signs the
// user in.
func (s *AuthService) Register(ctx context.Context, username, email, password, fullName string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if !usernameRe.MatchString(username) {
		return nil, apperror.ValidationFailed("username", "must be 3-50 characters: letters, digits, underscore")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "must be a valid email address")
	}
	// The upper bound is bcrypt's: it reads at most 72 bytes of input, so
	// anything longer must be rejected here rather than silently truncated.
	if len(password) < 8 || len(password) > 72 {
		return nil, apperror.ValidationFailed("password", "must be 8-72 characters")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		LanguagePref: "en",
		IsActive:     true,
	}

	// The unique indexes are the authority on duplicates; the repository
	// surfaces violations as ErrConflict.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", username, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.String("username", username))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies a username/password pair and issues a JWT. The first field
// also accepts the registration email in place of the username.
//
// The unknown-user and wrong-password paths return the same error and burn
// the same bcrypt work, so response timing and content reveal nothing about
// which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	identifier := strings.TrimSpace(username)

	var (
		user *model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		// Usernames never contain "@", so this can only be an email.
		user, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.VerifyDummy(password)
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user %s: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	if !user.IsActive {
		return nil, apperror.Forbidden("account is deactivated")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// LoginWithTwitter handles the OAuth 2.0 callback: upsert the user keyed by
// their Twitter ID, store the fresh tokens, and sign them in.
func (s *AuthService) LoginWithTwitter(ctx context.Context, profile *auth.TwitterProfile, tok *auth.TwitterToken) (*AuthResult, error) {
	if profile == nil || tok == nil {
		return nil, fmt.Errorf("service/auth: twitter profile and token must not be nil")
	}

	user, err := s.users.GetByTwitterID(ctx, profile.ID)
	switch {
	case err == nil:
		// Returning user: refresh the stored tokens and identity.
		user.TwitterUsername = profile.Username
		user.TwitterAccessToken = tok.AccessToken
		user.TwitterRefreshToken = tok.RefreshToken
		user.TokenExpiry = tok.Expiry
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: updating twitter user %s: %w", user.ID, err)
		}

	case errors.Is(err, apperror.ErrNotFound):
		// First login: create an account from the Twitter identity. The
		// Twitter handle can collide with an existing local username; fall
		// back to a handle qualified by the Twitter ID.
		user = &model.User{
			Username:            profile.Username,
			FullName:            profile.Name,
			TwitterUserID:       profile.ID,
			TwitterUsername:     profile.Username,
			TwitterAccessToken:  tok.AccessToken,
			TwitterRefreshToken: tok.RefreshToken,
			TokenExpiry:         tok.Expiry,
			LanguagePref:        "en",
			IsActive:            true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if !errors.Is(err, apperror.ErrConflict) {
				return nil, fmt.Errorf("service/auth: creating twitter user: %w", err)
			}
			user.Username = fmt.Sprintf("%s_%s", profile.Username, profile.ID)
			if err := s.users.Create(ctx, user); err != nil {
				return nil, fmt.Errorf("service/auth: creating twitter user: %w", err)
			}
		}
		s.logger.Info("user registered via twitter",
			slog.String("userID", user.ID),
			slog.String("twitterUsername", profile.Username),
		)

	default:
		return nil, fmt.Errorf("service/auth: looking up twitter user %s: %w", profile.ID, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// LinkTwitter attaches OAuth 1.0a posting credentials to an existing user.
func (s *AuthService) LinkTwitter(ctx context.Context, userID string, creds *auth.OAuth1Credentials) (*model.User, error) {
	if creds == nil || creds.Token == "" || creds.TokenSecret == "" {
		return nil, fmt.Errorf("service/auth: twitter credentials must not be empty")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	user.TwitterOAuth1Token = creds.Token
	user.TwitterOAuth1Secret = creds.TokenSecret
	if creds.UserID != "" {
		user.TwitterUserID = creds.UserID
	}
	if creds.ScreenName != "" {
		user.TwitterUsername = creds.ScreenName
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: linking twitter for user %s: %w", userID, err)
	}

	s.logger.Info("twitter account linked", slog.String("userID", userID))
	return user, nil
}

// UnlinkTwitter discards the user's stored Twitter credentials.
func (s *AuthService) UnlinkTwitter(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	user.TwitterUserID = ""
	user.TwitterUsername = ""
	user.TwitterAccessToken = ""
	user.TwitterRefreshToken = ""
	user.TokenExpiry = time.Time{}
	user.TwitterOAuth1Token = ""
	user.TwitterOAuth1Secret = ""

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: unlinking twitter for user %s: %w", userID, err)
	}

	s.logger.Info("twitter account unlinked", slog.String("userID", userID))
	return nil
}

// TwitterStatus reports whether the user can post through Twitter, and the
// linked handle.
type TwitterStatus struct {
	Linked   bool   `json:"linked"`
	Username string `json:"twitter_username,omitempty"`
	UserID   string `json:"twitter_user_id,omitempty"`
}

// GetTwitterStatus returns the user's Twitter link state.
func (s *AuthService) GetTwitterStatus(ctx context.Context, userID string) (*TwitterStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return &TwitterStatus{
		Linked:   user.TwitterLinked(),
		Username: user.TwitterUsername,
		UserID:   user.TwitterUserID,
	}, nil
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware validates the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
