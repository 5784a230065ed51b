package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialized(t *testing.T) {
	Init()

	if CommandsTotal == nil {
		t.Error("CommandsTotal not initialized")
	}
	if ShoutoutResults == nil {
		t.Error("ShoutoutResults not initialized")
	}
	if TokenRefreshes == nil {
		t.Error("TokenRefreshes not initialized")
	}
	if HelixRequestDuration == nil {
		t.Error("HelixRequestDuration not initialized")
	}
	if ShoutoutDuration == nil {
		t.Error("ShoutoutDuration not initialized")
	}

	// second call must not panic on duplicate registration
	Init()
}

func TestRecordHelpersIncrementCounters(t *testing.T) {
	Init()

	before := testutil.ToFloat64(ShoutoutResults.WithLabelValues("clip"))
	RecordShoutout("clip")
	if got := testutil.ToFloat64(ShoutoutResults.WithLabelValues("clip")); got != before+1 {
		t.Errorf("shoutout clip counter = %v, want %v", got, before+1)
	}

	okBefore := testutil.ToFloat64(TokenRefreshes.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(TokenRefreshes.WithLabelValues("failure"))
	RecordTokenRefresh(true)
	RecordTokenRefresh(false)
	RecordTokenRefresh(false)
	if got := testutil.ToFloat64(TokenRefreshes.WithLabelValues("success")); got != okBefore+1 {
		t.Errorf("refresh success = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(TokenRefreshes.WithLabelValues("failure")); got != failBefore+2 {
		t.Errorf("refresh failure = %v, want %v", got, failBefore+2)
	}

	reqBefore := testutil.ToFloat64(HelixRequestsTotal.WithLabelValues("users", "401"))
	ObserveHelixRequest("users", "401", 20*time.Millisecond)
	if got := testutil.ToFloat64(HelixRequestsTotal.WithLabelValues("users", "401")); got != reqBefore+1 {
		t.Errorf("helix users/401 = %v, want %v", got, reqBefore+1)
	}
}

func TestSetTokenExpiry(t *testing.T) {
	Init()

	exp := time.Unix(1700000000, 0)
	SetTokenExpiry(exp)
	if got := testutil.ToFloat64(TokenExpiryGauge); got != 1700000000 {
		t.Errorf("expiry gauge = %v, want 1700000000", got)
	}
	SetTokenExpiry(time.Time{})
	if got := testutil.ToFloat64(TokenExpiryGauge); got != 0 {
		t.Errorf("expiry gauge = %v, want 0 for unknown expiry", got)
	}
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	testHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration",
		Buckets: prometheus.DefBuckets,
	})
	prometheus.MustRegister(testHistogram)
	defer prometheus.Unregister(testHistogram)

	executed := false
	duration := TimeFunc(testHistogram, func() {
		time.Sleep(10 * time.Millisecond)
		executed = true
	})

	if !executed {
		t.Error("TimeFunc did not execute provided function")
	}
	if duration < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", duration)
	}
	if n := testutil.CollectAndCount(testHistogram); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestTimeFuncNilObserver(t *testing.T) {
	called := false
	TimeFunc(nil, func() { called = true })
	if !called {
		t.Error("TimeFunc with nil observer should still run fn")
	}
}

func TestCorrelationHelpers(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation(empty) = %q, want empty", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation() = %q, want abc-123", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
