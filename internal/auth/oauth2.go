package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// TwitterProfile is the subset of the Twitter v2 "users/me" response the
// application cares about.
type TwitterProfile struct {
	ID       string
	Username string
	Name     string
}

// TwitterToken carries the OAuth 2.0 credentials obtained for a user. The
// refresh token is only present when the "offline.access" scope was granted.
type TwitterToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TwitterProvider drives the OAuth 2.0 authorization-code flow with PKCE
// against Twitter. Sign-in happens in three steps:
//
//  1. AuthURL — build the consent URL with a state and S256 code challenge
//  2. user authorizes on twitter.com, gets redirected back with a code
//  3. Exchange — trade code+verifier for tokens, then Profile to identify
//     the account
type TwitterProvider struct {
	config *oauth2.Config

	// profileURL is overridable for tests.
	profileURL string
}

// NewTwitterProvider creates a provider with Twitter's OAuth 2.0 endpoints.
// redirectURL must exactly match one registered in the Twitter developer
// portal.
func NewTwitterProvider(clientID, clientSecret, redirectURL string) *TwitterProvider {
	return &TwitterProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"tweet.read", "users.read", "offline.access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://twitter.com/i/oauth2/authorize",
				TokenURL:  "https://api.twitter.com/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		profileURL: "https://api.twitter.com/2/users/me",
	}
}

// GenerateVerifier returns a fresh PKCE code verifier.
func (p *TwitterProvider) GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthURL builds the consent-page URL carrying the CSRF state and the S256
// challenge derived from verifier. The verifier itself never leaves the
// server.
func (p *TwitterProvider) AuthURL(state, verifier string) string {
	return p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code and the original verifier for an
// access token.
func (p *TwitterProvider) Exchange(ctx context.Context, code, verifier string) (*TwitterToken, error) {
	tok, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging twitter code: %w", err)
	}

	return &TwitterToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// Profile fetches the authenticated user's Twitter identity with the
// freshly obtained access token.
func (p *TwitterProvider) Profile(ctx context.Context, accessToken string) (*TwitterProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: fetching twitter profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: twitter profile request returned status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Name     string `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("auth: decoding twitter profile: %w", err)
	}
	if body.Data.ID == "" {
		return nil, fmt.Errorf("auth: twitter profile response missing user id")
	}

	return &TwitterProfile{
		ID:       body.Data.ID,
		Username: body.Data.Username,
		Name:     body.Data.Name,
	}, nil
}
