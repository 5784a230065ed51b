// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommandsTotal      *prometheus.CounterVec // labels: kind (shoutout|other|missing)
	ShoutoutResults    *prometheus.CounterVec // labels: outcome
	TokenRefreshes     *prometheus.CounterVec // labels: result (success|failure)
	HelixRequestsTotal *prometheus.CounterVec // labels: endpoint, status

	// Histograms (seconds)
	HelixRequestDuration *prometheus.HistogramVec // labels: endpoint
	ShoutoutDuration     prometheus.Observer

	// Gauges
	TokenExpiryGauge prometheus.Gauge // unix seconds of the last known access token expiry
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "shoutout_commands_total", Help: "Number of webhook commands received by kind"}, []string{"kind"})
		ShoutoutResults = promauto.NewCounterVec(prometheus.CounterOpts{Name: "shoutout_results_total", Help: "Number of shoutout requests by terminal outcome"}, []string{"outcome"})
		TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{Name: "shoutout_token_refreshes_total", Help: "Number of Twitch access token refresh attempts by result"}, []string{"result"})
		HelixRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "shoutout_helix_requests_total", Help: "Number of Twitch Helix requests by endpoint and HTTP status"}, []string{"endpoint", "status"})
		HelixRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "shoutout_helix_request_duration_seconds", Help: "Twitch Helix request duration seconds", Buckets: prometheus.DefBuckets}, []string{"endpoint"})
		ShoutoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "shoutout_duration_seconds", Help: "End-to-end shoutout handling duration seconds", Buckets: prometheus.DefBuckets})
		TokenExpiryGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "shoutout_token_expiry_timestamp_seconds", Help: "Unix time the current Twitch access token expires (0 when unknown)"})
	})
}

// RecordCommand counts an inbound command by kind.
func RecordCommand(kind string) {
	if CommandsTotal != nil {
		CommandsTotal.WithLabelValues(kind).Inc()
	}
}

// RecordShoutout counts a shoutout terminal outcome.
func RecordShoutout(outcome string) {
	if ShoutoutResults != nil {
		ShoutoutResults.WithLabelValues(outcome).Inc()
	}
}

// RecordTokenRefresh counts a refresh attempt.
func RecordTokenRefresh(ok bool) {
	if TokenRefreshes == nil {
		return
	}
	if ok {
		TokenRefreshes.WithLabelValues("success").Inc()
	} else {
		TokenRefreshes.WithLabelValues("failure").Inc()
	}
}

// ObserveHelixRequest records one Helix call. status is the HTTP status code or "error" for transport failures.
func ObserveHelixRequest(endpoint, status string, d time.Duration) {
	if HelixRequestsTotal != nil {
		HelixRequestsTotal.WithLabelValues(endpoint, status).Inc()
	}
	if HelixRequestDuration != nil {
		HelixRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// SetTokenExpiry records the last known access token expiry.
func SetTokenExpiry(t time.Time) {
	if TokenExpiryGauge == nil {
		return
	}
	if t.IsZero() {
		TokenExpiryGauge.Set(0)
		return
	}
	TokenExpiryGauge.Set(float64(t.Unix()))
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
