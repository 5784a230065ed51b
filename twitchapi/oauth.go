package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// TokenURL is the Twitch OAuth token endpoint used for refresh and client-credentials grants.
	TokenURL = "https://id.twitch.tv/oauth2/token"
	// ValidateURL is the Twitch OAuth token validation endpoint.
	ValidateURL = "https://id.twitch.tv/oauth2/validate"
)

// ErrTokenInvalid is returned by ValidateToken when Twitch rejects the token.
var ErrTokenInvalid = errors.New("twitch token invalid")

// ValidateResult is the body of a successful /oauth2/validate call.
type ValidateResult struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	UserID    string   `json:"user_id"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int      `json:"expires_in"`
}

// ValidateToken asks Twitch whether token is still accepted and how long it lives.
// A 401 is reported as ErrTokenInvalid.
func ValidateToken(ctx context.Context, hc *http.Client, validateURL, token string) (*ValidateResult, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if validateURL == "" {
		validateURL = ValidateURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+token)
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrTokenInvalid
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("twitch validate failed: %s: %s", resp.Status, string(b))
	}
	var res ValidateResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ComputeExpiry returns absolute expiry time from seconds, defaulting to +60m when unknown.
func ComputeExpiry(seconds int) time.Time {
	if seconds <= 0 {
		return time.Now().Add(60 * time.Minute)
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}

// MaskToken keeps only the last six characters of a token for logging.
func MaskToken(tok string) string {
	if len(tok) <= 6 {
		return "***"
	}
	return "***" + tok[len(tok)-6:]
}
