package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/shoutout/backend/commands"
)

type echoShouter struct{ got []string }

func (s *echoShouter) Shoutout(ctx context.Context, message string) string {
	s.got = append(s.got, message)
	return "📣 " + message
}

type staticCreds struct {
	token string
	exp   time.Time
}

func (c staticCreds) AccessToken() string  { return c.token }
func (c staticCreds) ExpiresAt() time.Time { return c.exp }

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(ctx context.Context, req commands.Request) (string, error) {
	return "", errors.New("boom")
}

func newTestMux(t *testing.T, opts Options) (http.Handler, *echoShouter) {
	t.Helper()
	s := &echoShouter{}
	if opts.Dispatcher == nil {
		opts.Dispatcher = commands.NewRouter(s, nil)
	}
	if opts.Credentials == nil {
		opts.Credentials = staticCreds{token: "tok"}
	}
	return NewMux(opts), s
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTwitchCommandPOST(t *testing.T) {
	h, s := newTestMux(t, Options{})

	body := strings.NewReader(`{"command":"!SO","message":"@alice"}`)
	rr := serve(h, httptest.NewRequest(http.MethodPost, "/twitch-command", body))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "📣 @alice", rr.Body.String())
	assert.Equal(t, []string{"@alice"}, s.got)
}

func TestTwitchCommandGET(t *testing.T) {
	h, _ := newTestMux(t, Options{})

	q := url.Values{"command": {"!foo"}, "message": {"bar"}}
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/twitch-command?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "✅ Command '!foo' received!", rr.Body.String())
}

func TestTwitchCommandMissingCommand(t *testing.T) {
	h, s := newTestMux(t, Options{})

	for name, req := range map[string]*http.Request{
		"get":        httptest.NewRequest(http.MethodGet, "/twitch-command?message=alice", nil),
		"post":       httptest.NewRequest(http.MethodPost, "/twitch-command", strings.NewReader(`{"message":"alice"}`)),
		"empty post": httptest.NewRequest(http.MethodPost, "/twitch-command", strings.NewReader("")),
	} {
		t.Run(name, func(t *testing.T) {
			rr := serve(h, req)
			require.Equal(t, http.StatusBadRequest, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "Missing command", body["error"])
		})
	}
	assert.Empty(t, s.got)
}

func TestTwitchCommandInvalidJSON(t *testing.T) {
	h, _ := newTestMux(t, Options{})

	rr := serve(h, httptest.NewRequest(http.MethodPost, "/twitch-command", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid JSON body")
}

func TestTwitchCommandDispatchError(t *testing.T) {
	h, _ := newTestMux(t, Options{Dispatcher: failingDispatcher{}})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/twitch-command?command=!so", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestTwitchCommandMethodNotAllowed(t *testing.T) {
	h, _ := newTestMux(t, Options{})

	rr := serve(h, httptest.NewRequest(http.MethodDelete, "/twitch-command", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRoot(t *testing.T) {
	h, _ := newTestMux(t, Options{})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthzOK(t *testing.T) {
	h, _ := newTestMux(t, Options{})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		creds      staticCreds
		wantStatus int
		wantCheck  string
	}{
		{"ready without known expiry", staticCreds{token: "tok"}, http.StatusOK, ""},
		{"ready before expiry", staticCreds{token: "tok", exp: time.Now().Add(time.Hour)}, http.StatusOK, ""},
		{"missing token", staticCreds{}, http.StatusServiceUnavailable, "credentials"},
		{"expired token", staticCreds{token: "tok", exp: time.Now().Add(-time.Minute)}, http.StatusServiceUnavailable, "token_expiry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestMux(t, Options{Credentials: tt.creds})

			rr := serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			if tt.wantCheck != "" {
				assert.Equal(t, "not_ready", body["status"])
				assert.Equal(t, tt.wantCheck, body["failed_check"])
			} else {
				assert.Equal(t, "ready", body["status"])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestMux(t, Options{})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCorrelationHeader(t *testing.T) {
	h, _ := newTestMux(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rr := serve(h, req)
	assert.Equal(t, "corr-123", rr.Header().Get("X-Correlation-ID"))

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"), "a correlation id is generated when absent")
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Start(ctx, "127.0.0.1:0", Options{
			Dispatcher:  commands.NewRouter(&echoShouter{}, nil),
			Credentials: staticCreds{token: "tok"},
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
