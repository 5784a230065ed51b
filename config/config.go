// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Use Validate before serving shoutouts and ValidateChatReady before joining chat.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultAPITimeout    = 8 * time.Second
	defaultRefreshWindow = 15 * time.Minute
)

type Config struct {
	// Twitch application and user credentials
	TwitchClientID     string
	TwitchClientSecret string
	TwitchAccessToken  string
	TwitchRefreshToken string
	TwitchAPITimeout   time.Duration

	// Webhook
	HTTPAddr         string
	WebhookToken     string
	ShoutoutTriggers []string

	// Proactive refresh; zero interval disables it
	TokenCheckInterval time.Duration
	TokenRefreshWindow time.Duration

	// Optional chat responder
	TwitchChannel     string
	TwitchBotUsername string
	TwitchOAuthToken  string
}

// Load reads environment variables and applies defaults. It doesn't fail if Twitch creds are missing;
// call Validate() when credentials are required. Malformed durations are reported as errors.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")
	cfg.TwitchAccessToken = os.Getenv("TWITCH_ACCESS_TOKEN")
	cfg.TwitchRefreshToken = os.Getenv("TWITCH_REFRESH_TOKEN")

	var err error
	if cfg.TwitchAPITimeout, err = durationEnv("TWITCH_API_TIMEOUT", defaultAPITimeout); err != nil {
		return nil, err
	}
	if cfg.TwitchAPITimeout <= 0 {
		return nil, fmt.Errorf("invalid TWITCH_API_TIMEOUT: must be positive")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	cfg.WebhookToken = os.Getenv("WEBHOOK_TOKEN")
	cfg.ShoutoutTriggers = splitList(os.Getenv("SHOUTOUT_TRIGGERS"))

	if cfg.TokenCheckInterval, err = durationEnv("TOKEN_CHECK_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.TokenRefreshWindow, err = durationEnv("TOKEN_REFRESH_WINDOW", defaultRefreshWindow); err != nil {
		return nil, err
	}

	cfg.TwitchChannel = strings.TrimPrefix(strings.ToLower(os.Getenv("TWITCH_CHANNEL")), "#")
	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")

	return cfg, nil
}

// Validate checks the credentials needed to call Helix and refresh tokens.
func (c *Config) Validate() error {
	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET")
	}
	return nil
}

// ValidateChatReady checks required fields when the chat responder is enabled.
func (c *Config) ValidateChatReady() error {
	if c.TwitchChannel == "" || c.TwitchBotUsername == "" || c.TwitchOAuthToken == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN")
	}
	return nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (duration, e.g. 8s): %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
