package oauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu         sync.Mutex
	remaining  time.Duration
	checkErr   error
	refreshErr error
	checks     int
	refreshes  int
}

func (f *fakeSource) Remaining(ctx context.Context) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return f.remaining, f.checkErr
}

func (f *fakeSource) Refresh(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.remaining = 4 * time.Hour
	return "new-access", nil
}

func (f *fakeSource) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks, f.refreshes
}

func TestCheckOnce(t *testing.T) {
	tests := []struct {
		name          string
		src           *fakeSource
		wantRefreshed bool
		wantErr       bool
	}{
		{name: "outside window", src: &fakeSource{remaining: time.Hour}},
		{name: "inside window", src: &fakeSource{remaining: 5 * time.Minute}, wantRefreshed: true},
		{name: "invalid token reports zero", src: &fakeSource{remaining: 0}, wantRefreshed: true},
		{name: "check fails", src: &fakeSource{checkErr: errors.New("network")}, wantErr: true},
		{name: "refresh fails", src: &fakeSource{remaining: time.Minute, refreshErr: errors.New("bad refresh token")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refreshed, err := CheckOnce(context.Background(), "twitch", tt.src, 15*time.Minute, 0)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckOnce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if refreshed != tt.wantRefreshed {
				t.Errorf("CheckOnce() refreshed = %v, want %v", refreshed, tt.wantRefreshed)
			}
		})
	}
}

func TestCheckOnceContextCanceledDuringJitter(t *testing.T) {
	src := &fakeSource{remaining: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := CheckOnce(ctx, "twitch", src, 15*time.Minute, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("CheckOnce() error = %v, want context.Canceled", err)
	}
	if _, refreshes := src.counts(); refreshes != 0 {
		t.Errorf("refresh should not run after cancellation, got %d", refreshes)
	}
}

func TestStartRefresherDefaults(t *testing.T) {
	src := &fakeSource{remaining: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	StartRefresher(ctx, "twitch", src, 20*time.Millisecond, 30*time.Minute)
	<-ctx.Done()

	checks, refreshes := src.counts()
	if checks == 0 {
		t.Error("expected at least one token check")
	}
	if refreshes != 0 {
		t.Error("refresh should not have been called for token that expires in 1 hour with 30 min window")
	}
}

func TestStartRefresherWithinWindow(t *testing.T) {
	src := &fakeSource{remaining: 5 * time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartRefresher(ctx, "twitch", src, 20*time.Millisecond, 15*time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, refreshes := src.counts(); refreshes > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if _, refreshes := src.counts(); refreshes != 1 {
		t.Errorf("expected exactly one refresh once the token is renewed, got %d", refreshes)
	}
}

func TestStartRefresherStopsOnCancel(t *testing.T) {
	src := &fakeSource{remaining: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	StartRefresher(ctx, "twitch", src, time.Hour, 15*time.Minute)
	time.Sleep(20 * time.Millisecond)

	if checks, _ := src.counts(); checks != 0 {
		t.Errorf("expected no checks after cancellation, got %d", checks)
	}
}
