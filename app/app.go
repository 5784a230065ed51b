// Package app wires configuration into the running bot: the Twitch credential
// store, the Helix client, the shoutout service and the command router, plus
// the optional background workers (proactive token refresh and chat responder).
// Both the server binary and the operator CLI build on it.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/onnwee/shoutout/backend/chat"
	"github.com/onnwee/shoutout/backend/commands"
	"github.com/onnwee/shoutout/backend/config"
	"github.com/onnwee/shoutout/backend/oauth"
	"github.com/onnwee/shoutout/backend/server"
	"github.com/onnwee/shoutout/backend/shoutout"
	"github.com/onnwee/shoutout/backend/twitchapi"
)

// Endpoints overrides the Twitch URLs; zero values use production.
type Endpoints struct {
	HelixBaseURL string
	TokenURL     string
	ValidateURL  string
}

// App is the assembled bot.
type App struct {
	Config  *config.Config
	Creds   *twitchapi.CredentialStore
	Helix   *twitchapi.HelixClient
	Service *shoutout.Service
	Router  *commands.Router
}

// New assembles the bot from cfg. It performs no network calls.
func New(cfg *config.Config, ep Endpoints) *App {
	hc := &http.Client{Timeout: cfg.TwitchAPITimeout}
	creds := twitchapi.NewCredentialStore(twitchapi.CredentialsConfig{
		ClientID:     cfg.TwitchClientID,
		ClientSecret: cfg.TwitchClientSecret,
		AccessToken:  cfg.TwitchAccessToken,
		RefreshToken: cfg.TwitchRefreshToken,
		TokenURL:     ep.TokenURL,
		ValidateURL:  ep.ValidateURL,
		HTTPClient:   hc,
	})
	helix := &twitchapi.HelixClient{
		ClientID:   cfg.TwitchClientID,
		BaseURL:    ep.HelixBaseURL,
		HTTPClient: hc,
		Timeout:    cfg.TwitchAPITimeout,
	}
	svc := shoutout.NewService(helix, creds)
	return &App{
		Config:  cfg,
		Creds:   creds,
		Helix:   helix,
		Service: svc,
		Router:  commands.NewRouter(svc, cfg.ShoutoutTriggers),
	}
}

// CheckToken validates the configured access token and refreshes it when
// Twitch rejects it. The bot still starts on failure; the first Helix call
// will retry the refresh.
func (a *App) CheckToken(ctx context.Context) (*twitchapi.ValidateResult, error) {
	if a.Config.TwitchRefreshToken == "" {
		slog.Warn("TWITCH_REFRESH_TOKEN not set; falling back to app access tokens (client credentials)")
	}
	ctx, cancel := context.WithTimeout(ctx, a.Config.TwitchAPITimeout*2)
	defer cancel()

	res, err := a.Creds.Validate(ctx)
	if errors.Is(err, twitchapi.ErrTokenInvalid) {
		slog.Info("twitch access token missing or rejected; refreshing")
		if _, err = a.Creds.Refresh(ctx); err != nil {
			return nil, err
		}
		res, err = a.Creds.Validate(ctx)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("twitch access token valid",
		slog.String("tail", twitchapi.MaskToken(a.Creds.AccessToken())),
		slog.String("login", res.Login),
		slog.Time("expires_at", a.Creds.ExpiresAt()),
	)
	return res, nil
}

// Run starts the background workers and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config
	if _, err := a.CheckToken(ctx); err != nil {
		slog.Warn("startup token check failed", slog.Any("err", err))
	}

	if cfg.TokenCheckInterval > 0 {
		slog.Info("proactive token refresh enabled",
			slog.Duration("interval", cfg.TokenCheckInterval),
			slog.Duration("window", cfg.TokenRefreshWindow))
		oauth.StartRefresher(ctx, "twitch", a.Creds, cfg.TokenCheckInterval, cfg.TokenRefreshWindow)
	}

	if err := cfg.ValidateChatReady(); err == nil {
		go chat.StartShoutoutResponder(ctx, chat.Settings{
			Channel:    cfg.TwitchChannel,
			Username:   cfg.TwitchBotUsername,
			OAuthToken: cfg.TwitchOAuthToken,
		}, a.Router)
	} else {
		slog.Info("chat responder disabled (missing twitch chat creds)")
	}

	return server.Start(ctx, cfg.HTTPAddr, server.Options{
		Dispatcher:   a.Router,
		Credentials:  a.Creds,
		WebhookToken: cfg.WebhookToken,
	})
}

// ConfigureLogging installs the default slog logger from LOG_LEVEL
// (debug|info|warn|error) and LOG_FORMAT (text|json). Defaults: level=info, format=text.
func ConfigureLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		format = "text"
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))
}

