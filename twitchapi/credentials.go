package twitchapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/onnwee/shoutout/backend/telemetry"
)

// ErrRefreshFailed wraps every failure of CredentialStore.Refresh.
var ErrRefreshFailed = errors.New("twitch token refresh failed")

// CredentialsConfig seeds a CredentialStore.
type CredentialsConfig struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string

	// TokenURL and ValidateURL default to the Twitch endpoints.
	TokenURL    string
	ValidateURL string
	HTTPClient  *http.Client
}

// CredentialStore owns the Twitch credentials for the process lifetime.
// The access token is replaced whole on refresh; everything else is fixed after construction.
// When no refresh token is configured, Refresh mints an app access token with the
// client-credentials grant instead.
type CredentialStore struct {
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	validateURL  string
	httpClient   *http.Client

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
}

// NewCredentialStore builds a store from cfg.
func NewCredentialStore(cfg CredentialsConfig) *CredentialStore {
	s := &CredentialStore{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		tokenURL:     cfg.TokenURL,
		validateURL:  cfg.ValidateURL,
		httpClient:   cfg.HTTPClient,
		accessToken:  cfg.AccessToken,
	}
	if s.tokenURL == "" {
		s.tokenURL = TokenURL
	}
	if s.validateURL == "" {
		s.validateURL = ValidateURL
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	return s
}

// ClientID returns the application client id sent with every Helix call.
func (s *CredentialStore) ClientID() string { return s.clientID }

// AccessToken returns the current in-memory access token.
func (s *CredentialStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// ExpiresAt returns the last known expiry of the access token (zero when unknown).
func (s *CredentialStore) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// SetExpiry records a newly observed expiry for the current token.
func (s *CredentialStore) SetExpiry(t time.Time) {
	s.mu.Lock()
	s.expiresAt = t
	s.mu.Unlock()
	telemetry.SetTokenExpiry(t)
}

// Refresh exchanges the refresh token for a new access token and stores it.
// On failure the stored token is left untouched. Concurrent calls are not coalesced;
// each performs its own grant and the last successful one wins.
func (s *CredentialStore) Refresh(ctx context.Context) (string, error) {
	if s.clientID == "" || s.clientSecret == "" {
		telemetry.RecordTokenRefresh(false)
		return "", fmt.Errorf("%w: missing client id/secret", ErrRefreshFailed)
	}
	tok, err := s.grant(ctx)
	if err != nil {
		telemetry.RecordTokenRefresh(false)
		slog.Warn("twitch token refresh failed", slog.Any("err", err))
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if tok.AccessToken == "" {
		telemetry.RecordTokenRefresh(false)
		return "", fmt.Errorf("%w: empty access_token in twitch response", ErrRefreshFailed)
	}

	s.mu.Lock()
	s.accessToken = tok.AccessToken
	s.expiresAt = tok.Expiry
	s.mu.Unlock()

	telemetry.RecordTokenRefresh(true)
	telemetry.SetTokenExpiry(tok.Expiry)
	slog.Info("twitch access token refreshed", slog.String("tail", MaskToken(tok.AccessToken)))
	return tok.AccessToken, nil
}

func (s *CredentialStore) grant(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	if s.refreshToken == "" {
		cc := &clientcredentials.Config{
			ClientID:     s.clientID,
			ClientSecret: s.clientSecret,
			TokenURL:     s.tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		return cc.Token(ctx)
	}
	conf := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	// An empty access token forces the source to run the refresh_token grant.
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken}).Token()
}

// Validate checks the current access token against Twitch and records its expiry.
func (s *CredentialStore) Validate(ctx context.Context) (*ValidateResult, error) {
	res, err := ValidateToken(ctx, s.httpClient, s.validateURL, s.AccessToken())
	if err != nil {
		return nil, err
	}
	s.SetExpiry(ComputeExpiry(res.ExpiresIn))
	return res, nil
}

// Remaining reports the lifetime left on the current token. An invalid token
// reports zero so callers refresh right away.
func (s *CredentialStore) Remaining(ctx context.Context) (time.Duration, error) {
	res, err := s.Validate(ctx)
	if errors.Is(err, ErrTokenInvalid) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return time.Duration(res.ExpiresIn) * time.Second, nil
}
