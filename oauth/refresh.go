// Package oauth schedules proactive refreshes of the Twitch access token. It
// performs jittered checks and refreshes when the remaining lifetime falls
// within a configured window, so chat traffic rarely meets an expired token.
package oauth

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

const refreshTimeout = 15 * time.Second

// TokenSource is the credential state the refresher inspects and renews.
// Remaining reports zero for a token the issuer rejects.
type TokenSource interface {
	Remaining(ctx context.Context) (time.Duration, error)
	Refresh(ctx context.Context) (string, error)
}

// StartRefresher launches a goroutine that periodically checks the token and refreshes it.
// provider: label used in logs.
// interval: how often to wake up and check.
// window: refresh when remaining lifetime <= window.
func StartRefresher(ctx context.Context, provider string, src TokenSource, interval, window time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	// Randomize initial delay to spread load across instances.
	//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
	initialJitter := time.Duration(rand.Int63n(int64(interval/2) + 1))
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(initialJitter):
		}
		for {
			if _, err := CheckOnce(ctx, provider, src, window, preRefreshJitter(interval)); err != nil {
				slog.Warn("token check failed", slog.String("provider", provider), slog.Any("err", err))
			}

			// Per-iteration jitter (±20% of interval) for scheduling diversity.
			jitterRange := int64(interval/5) + 1
			//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
			jitter := time.Duration(rand.Int63n(jitterRange*2) - jitterRange)
			nextSleep := max(interval+jitter, interval/2)
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextSleep):
			}
		}
	}()
}

// CheckOnce refreshes the token if its remaining lifetime is within window.
// pre delays the refresh by a random amount up to pre to avoid stampedes when
// many replicas see the same expiry. It reports whether a refresh happened.
func CheckOnce(ctx context.Context, provider string, src TokenSource, window, pre time.Duration) (bool, error) {
	remaining, err := src.Remaining(ctx)
	if err != nil {
		return false, err
	}
	// If still outside window skip quickly
	if remaining > window {
		slog.Debug("token still fresh", slog.String("provider", provider), slog.Duration("remaining", remaining))
		return false, nil
	}

	if pre > 0 {
		//nolint:gosec // G404: math/rand is sufficient for jitter, not used for security
		wait := time.Duration(rand.Int63n(int64(pre)))
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(wait):
		}
	}

	ctx2, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	if _, err := src.Refresh(ctx2); err != nil {
		return false, err
	}
	slog.Info("token refreshed proactively", slog.String("provider", provider), slog.Duration("remaining_before", remaining))
	return true, nil
}

func preRefreshJitter(interval time.Duration) time.Duration {
	return min(5*time.Second, interval/2)
}
