// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the server needs to run. All values come from
// environment variables; secrets never live in code or config files.
type Config struct {
	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// DBPath is the SQLite database file path.
	DBPath string `koanf:"db_path"`

	// JWTSecret signs access tokens. Required, minimum 16 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// Twitter OAuth 1.0a consumer credentials (account linking + posting).
	TwitterAPIKey    string `koanf:"twitter_api_key"`
	TwitterAPISecret string `koanf:"twitter_api_secret"`

	// Twitter OAuth 2.0 client credentials (sign in with Twitter).
	TwitterClientID     string `koanf:"twitter_client_id"`
	TwitterClientSecret string `koanf:"twitter_client_secret"`

	// TwitterRedirectURL receives the OAuth 2.0 authorization code.
	TwitterRedirectURL string `koanf:"twitter_redirect_url"`

	// TwitterCallbackURL receives the OAuth 1.0a verifier.
	TwitterCallbackURL string `koanf:"twitter_callback_url"`

	// TwitterBearerToken is the app-only token for public metrics lookups.
	TwitterBearerToken string `koanf:"twitter_bearer_token"`

	// OpenAI credentials for content generation. OpenAIBaseURL overrides the
	// API endpoint (proxies, Azure, tests); empty means the public API.
	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// FrontendURL is where OAuth callbacks redirect the browser afterwards.
	FrontendURL string `koanf:"frontend_url"`

	// SchedulerInterval is how often the publisher polls for due posts.
	SchedulerInterval time.Duration `koanf:"scheduler_interval"`
}

// Load reads configuration from the environment, applying defaults and
// validating the result. Variable names map directly to fields:
// PORT, DB_PATH, JWT_SECRET, TWITTER_API_KEY, OPENAI_API_KEY, ...
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := &Config{
		Port:              8080,
		DBPath:            "tweetpilot.db",
		FrontendURL:       "http://localhost:3000",
		SchedulerInterval: 30 * time.Second,
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: DB_PATH must not be empty")
	}
	if c.SchedulerInterval < time.Second {
		return fmt.Errorf("config: SCHEDULER_INTERVAL %s too short, minimum 1s", c.SchedulerInterval)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
