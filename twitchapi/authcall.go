package twitchapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/onnwee/shoutout/backend/telemetry"
)

// ErrAuthFailed means the token was rejected and a single refresh did not fix it.
var ErrAuthFailed = errors.New("twitch authorization failed")

// TokenRefresher is the subset of CredentialStore used by CallWithRefresh.
type TokenRefresher interface {
	AccessToken() string
	Refresh(ctx context.Context) (string, error)
}

// CallWithRefresh runs op with the current access token. If the result is
// unauthorized it refreshes once and retries once. A failed refresh or a
// second rejection returns ErrAuthFailed; any other result is returned as is.
func CallWithRefresh[R Authorizable](ctx context.Context, creds TokenRefresher, op func(ctx context.Context, token string) R) (R, error) {
	res := op(ctx, creds.AccessToken())
	if !res.Unauthorized() {
		return res, nil
	}

	log := telemetry.LoggerWithCorr(ctx)
	log.Info("twitch access token rejected, refreshing")
	tok, err := creds.Refresh(ctx)
	if err != nil {
		log.Warn("refresh after unauthorized failed", slog.Any("err", err))
		return res, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	res = op(ctx, tok)
	if res.Unauthorized() {
		log.Warn("twitch rejected refreshed access token")
		return res, fmt.Errorf("%w: token rejected after refresh", ErrAuthFailed)
	}
	return res, nil
}
