// Package twitchapi contains minimal helpers to interact with Twitch Helix APIs
// for login resolution and clip discovery, plus the credential store that keeps
// the bearer token fresh.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/shoutout/backend/telemetry"
)

const (
	// HelixBaseURL is the production Helix API root.
	HelixBaseURL = "https://api.twitch.tv/helix"
	// DefaultTimeout bounds each outbound Helix call when none is configured.
	DefaultTimeout = 8 * time.Second

	recentClipCount = 5
)

// HelixClient provides the two lookups needed for a shoutout.
// Every call takes the bearer token explicitly so callers control refresh.
type HelixClient struct {
	ClientID   string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	// Pick returns an index in [0,n); defaults to a uniform random choice.
	Pick func(n int) int
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) baseURL() string {
	if hc.BaseURL != "" {
		return hc.BaseURL
	}
	return HelixBaseURL
}

func (hc *HelixClient) timeout() time.Duration {
	if hc.Timeout > 0 {
		return hc.Timeout
	}
	return DefaultTimeout
}

func (hc *HelixClient) pick(n int) int {
	if hc.Pick != nil {
		return hc.Pick(n)
	}
	//nolint:gosec // G404: clip choice is cosmetic, not security sensitive
	return rand.Intn(n)
}

// ResolveUser resolves a login name to its user ID.
// Any failure other than a 401 is reported as not found.
func (hc *HelixClient) ResolveUser(ctx context.Context, login, token string) LookupResult {
	if login == "" {
		return LookupResult{Status: StatusNotFound}
	}
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	status, err := hc.get(ctx, "users", url.Values{"login": {login}}, token, &body)
	if status == http.StatusUnauthorized {
		return LookupResult{Status: StatusUnauthorized}
	}
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("helix user lookup failed", slog.String("login", login), slog.Any("err", err))
		return LookupResult{Status: StatusNotFound}
	}
	if len(body.Data) == 0 || body.Data[0].ID == "" {
		return LookupResult{Status: StatusNotFound}
	}
	return userFound(body.Data[0].ID)
}

// FetchRecentClip lists the broadcaster's top clips and returns one of them at random.
// Any failure other than a 401 is reported as not found.
func (hc *HelixClient) FetchRecentClip(ctx context.Context, userID, token string) ClipResult {
	if userID == "" {
		return ClipResult{Status: StatusNotFound}
	}
	var body struct {
		Data []struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	}
	q := url.Values{}
	q.Set("broadcaster_id", userID)
	q.Set("first", strconv.Itoa(recentClipCount))
	status, err := hc.get(ctx, "clips", q, token, &body)
	if status == http.StatusUnauthorized {
		return ClipResult{Status: StatusUnauthorized}
	}
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("helix clip lookup failed", slog.String("broadcaster_id", userID), slog.Any("err", err))
		return ClipResult{Status: StatusNotFound}
	}
	if len(body.Data) == 0 {
		return ClipResult{Status: StatusNotFound}
	}
	clip := body.Data[hc.pick(len(body.Data))]
	if clip.URL == "" {
		return ClipResult{Status: StatusNotFound}
	}
	return clipFound(clip.URL)
}

// get performs a Helix GET and decodes a 200 body into out. It returns the
// HTTP status (0 on transport failure) and an error for anything but 200.
func (hc *HelixClient) get(ctx context.Context, endpoint string, q url.Values, token string, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout())
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "twitchapi", "helix "+endpoint, attribute.String("helix.endpoint", endpoint))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL()+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := hc.http().Do(req)
	if err != nil {
		telemetry.ObserveHelixRequest(endpoint, "error", time.Since(start))
		telemetry.RecordError(span, err)
		return 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	telemetry.ObserveHelixRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	telemetry.SetSpanHTTPStatus(span, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("helix %s: %s: %s", endpoint, resp.Status, string(b))
		telemetry.RecordError(span, err)
		return resp.StatusCode, err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		telemetry.RecordError(span, err)
		return resp.StatusCode, fmt.Errorf("decode helix %s: %w", endpoint, err)
	}
	return resp.StatusCode, nil
}
