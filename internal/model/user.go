// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Two identity paths coexist:
//   - Username/password: Username, Email, and PasswordHash are set. Used for
//     development and as a fallback when Twitter sign-in is not configured.
//   - Twitter OAuth 2.0: TwitterUserID is the immutable platform identifier
//     we key on; TwitterAccessToken/TwitterRefreshToken are the PKCE-issued
//     token pair used for API reads on the user's behalf.
//
// Separately from sign-in, a user may LINK a Twitter account for posting via
// the legacy OAuth 1.0a flow. Those credentials live in TwitterOAuth1Token /
// TwitterOAuth1Secret and are deliberately distinct columns — an OAuth 1.0a
// token secret is not a refresh token, and conflating the two breaks both
// flows.
//
// PasswordHash is never serialized: the `json:"-"` tag excludes it from every
// API response.
type User struct {
	ID           string `json:"id"        db:"id"`
	Username     string `json:"username"  db:"username"`
	Email        string `json:"email"     db:"email"`
	FullName     string `json:"fullName"  db:"full_name"`
	PasswordHash string `json:"-"         db:"password_hash"`

	// Twitter OAuth 2.0 identity (sign-in with Twitter)
	TwitterUserID       string    `json:"twitterUserId"   db:"twitter_user_id"`
	TwitterUsername     string    `json:"twitterUsername" db:"twitter_username"`
	TwitterAccessToken  string    `json:"-"               db:"twitter_access_token"`
	TwitterRefreshToken string    `json:"-"               db:"twitter_refresh_token"`
	TokenExpiry         time.Time `json:"-"               db:"token_expiry"`

	// Twitter OAuth 1.0a posting credentials (account linking)
	TwitterOAuth1Token  string `json:"-" db:"twitter_oauth1_token"`
	TwitterOAuth1Secret string `json:"-" db:"twitter_oauth1_secret"`

	LanguagePref string    `json:"languagePref" db:"language_pref"`
	IsActive     bool      `json:"isActive"     db:"is_active"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// TwitterLinked reports whether the user has OAuth 1.0a posting credentials.
func (u *User) TwitterLinked() bool {
	return u.TwitterOAuth1Token != "" && u.TwitterOAuth1Secret != ""
}
