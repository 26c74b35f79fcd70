// Package twitter is a thin client for the pieces of the Twitter v2 API the
// application uses: posting tweets (OAuth 1.0a user context) and reading
// public metrics (app-only bearer token).
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/mhasan/tweetpilot/internal/apperror"
)

// UserMetrics is a Twitter account's public follower counters.
type UserMetrics struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	TweetCount     int    `json:"tweet_count"`
	ListedCount    int    `json:"listed_count"`
}

// TweetMetrics is a single tweet's public engagement counters.
type TweetMetrics struct {
	TweetID         string `json:"tweet_id"`
	LikeCount       int    `json:"like_count"`
	RetweetCount    int    `json:"retweet_count"`
	ReplyCount      int    `json:"reply_count"`
	ImpressionCount int    `json:"impression_count"`
}

// Client calls the Twitter v2 API. The zero value is not usable; construct
// with NewClient.
type Client struct {
	oauthConfig *oauth1.Config
	bearerToken string

	// baseURL is overridable for tests.
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. consumerKey/consumerSecret sign user-context
// requests (posting); bearerToken authorizes app-only reads (metrics).
func NewClient(consumerKey, consumerSecret, bearerToken string) *Client {
	return &Client{
		oauthConfig: oauth1.NewConfig(consumerKey, consumerSecret),
		bearerToken: bearerToken,
		baseURL:     "https://api.twitter.com",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetBaseURL points the client at a different API host. Tests use this with
// an httptest server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// PostTweet publishes text as the user identified by the OAuth 1.0a token
// pair and returns the new tweet's ID.
func (c *Client) PostTweet(ctx context.Context, token, tokenSecret, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("twitter: encoding tweet body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("twitter: building tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// The oauth1 transport signs the request with the consumer key and the
	// user's token pair.
	ctx = context.WithValue(ctx, oauth1.HTTPClient, c.httpClient)
	signing := c.oauthConfig.Client(ctx, oauth1.NewToken(token, tokenSecret))

	resp, err := signing.Do(req)
	if err != nil {
		return "", apperror.Unavailable("twitter", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperror.Unavailable("twitter", apiError(resp))
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("twitter: decoding tweet response: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("twitter: tweet response missing id")
	}

	return out.Data.ID, nil
}

// UserMetrics fetches a user's public metrics by username using the
// app-only bearer token.
func (c *Client) UserMetrics(ctx context.Context, username string) (*UserMetrics, error) {
	url := c.baseURL + "/2/users/by/username/" + username + "?user.fields=public_metrics"

	var out struct {
		Data struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
				FollowingCount int `json:"following_count"`
				TweetCount     int `json:"tweet_count"`
				ListedCount    int `json:"listed_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, apperror.NotFound("twitter user", username)
	}

	return &UserMetrics{
		UserID:         out.Data.ID,
		Username:       out.Data.Username,
		FollowersCount: out.Data.PublicMetrics.FollowersCount,
		FollowingCount: out.Data.PublicMetrics.FollowingCount,
		TweetCount:     out.Data.PublicMetrics.TweetCount,
		ListedCount:    out.Data.PublicMetrics.ListedCount,
	}, nil
}

// TweetMetrics fetches a single tweet's public metrics.
func (c *Client) TweetMetrics(ctx context.Context, tweetID string) (*TweetMetrics, error) {
	url := c.baseURL + "/2/tweets/" + tweetID + "?tweet.fields=public_metrics"

	var out struct {
		Data struct {
			ID            string `json:"id"`
			PublicMetrics struct {
				LikeCount       int `json:"like_count"`
				RetweetCount    int `json:"retweet_count"`
				ReplyCount      int `json:"reply_count"`
				ImpressionCount int `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, apperror.NotFound("tweet", tweetID)
	}

	return &TweetMetrics{
		TweetID:         out.Data.ID,
		LikeCount:       out.Data.PublicMetrics.LikeCount,
		RetweetCount:    out.Data.PublicMetrics.RetweetCount,
		ReplyCount:      out.Data.PublicMetrics.ReplyCount,
		ImpressionCount: out.Data.PublicMetrics.ImpressionCount,
	}, nil
}

// getJSON performs a bearer-authorized GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("twitter: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Unavailable("twitter", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.Unavailable("twitter", apiError(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("twitter: decoding response: %w", err)
	}
	return nil
}

// apiError summarizes a failed API response, keeping the body short enough
// to log without drowning out everything else.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}
