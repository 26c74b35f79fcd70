package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dghubble/oauth1"
	"github.com/dghubble/oauth1/twitter"
)

// OAuth1Credentials is the durable token pair obtained at the end of the
// OAuth 1.0a dance. Unlike OAuth 2.0 access tokens these do not expire;
// Twitter requires them for posting tweets on a user's behalf.
type OAuth1Credentials struct {
	Token       string
	TokenSecret string
	UserID      string
	ScreenName  string
}

// TwitterLinkProvider drives the three-legged OAuth 1.0a flow used to link
// a Twitter account for posting. Three steps:
//
//  1. RequestToken — obtain a temporary token/secret pair
//  2. AuthorizationURL — send the user to Twitter's authorize page
//  3. AccessToken — trade the temporary token + verifier for durable
//     credentials
type TwitterLinkProvider struct {
	config *oauth1.Config

	// verifyURL is overridable for tests.
	verifyURL string
}

// NewTwitterLinkProvider creates a provider from the app's consumer key
// pair. callbackURL must match one registered in the developer portal.
func NewTwitterLinkProvider(consumerKey, consumerSecret, callbackURL string) *TwitterLinkProvider {
	return &TwitterLinkProvider{
		config: &oauth1.Config{
			ConsumerKey:    consumerKey,
			ConsumerSecret: consumerSecret,
			CallbackURL:    callbackURL,
			Endpoint:       twitter.AuthorizeEndpoint,
		},
		verifyURL: "https://api.twitter.com/1.1/account/verify_credentials.json",
	}
}

// RequestToken obtains a temporary request token and its secret. The secret
// must be held server-side until the callback arrives.
func (p *TwitterLinkProvider) RequestToken() (token, secret string, err error) {
	token, secret, err = p.config.RequestToken()
	if err != nil {
		return "", "", fmt.Errorf("auth: obtaining twitter request token: %w", err)
	}
	return token, secret, nil
}

// AuthorizationURL builds the twitter.com authorize URL for a request token.
func (p *TwitterLinkProvider) AuthorizationURL(requestToken string) (string, error) {
	u, err := p.config.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("auth: building twitter authorization URL: %w", err)
	}
	return u.String(), nil
}

// AccessToken completes the flow, trading the request token, its secret and
// the verifier from the callback for durable posting credentials.
func (p *TwitterLinkProvider) AccessToken(requestToken, requestSecret, verifier string) (*OAuth1Credentials, error) {
	token, secret, err := p.config.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return nil, fmt.Errorf("auth: obtaining twitter access token: %w", err)
	}
	return &OAuth1Credentials{Token: token, TokenSecret: secret}, nil
}

// Verify calls verify_credentials with the new token pair and fills in the
// account's user ID and screen name. The token-exchange leg does not carry
// them, so callers use this to label the linked account.
func (p *TwitterLinkProvider) Verify(ctx context.Context, creds *OAuth1Credentials) error {
	client := p.config.Client(ctx, oauth1.NewToken(creds.Token, creds.TokenSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.verifyURL, nil)
	if err != nil {
		return fmt.Errorf("auth: building verify request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: verifying twitter credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: verify_credentials returned status %d", resp.StatusCode)
	}

	var body struct {
		IDStr      string `json:"id_str"`
		ScreenName string `json:"screen_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("auth: decoding verify response: %w", err)
	}

	creds.UserID = body.IDStr
	creds.ScreenName = body.ScreenName
	return nil
}
