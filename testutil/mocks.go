// Package testutil holds fakes shared by package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockTwitchServer creates a test server that mocks Twitch Helix and OAuth responses.
// Unregistered paths answer 404.
type MockTwitchServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

// NewMockTwitchServer creates a new mock Twitch API server
func NewMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()
	m := &MockTwitchServer{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		m.mu.Lock()
		m.hits[key]++
		handler, ok := m.handlers[key]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// HelixBaseURL is the value to use for HelixClient.BaseURL.
func (m *MockTwitchServer) HelixBaseURL() string { return m.URL + "/helix" }

// TokenURL is the mocked OAuth token endpoint.
func (m *MockTwitchServer) TokenURL() string { return m.URL + "/oauth2/token" }

// ValidateURL is the mocked OAuth validate endpoint.
func (m *MockTwitchServer) ValidateURL() string { return m.URL + "/oauth2/validate" }

// Handle registers a handler for an exact path.
func (m *MockTwitchServer) Handle(path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = h
}

// Hits returns how many requests reached path.
func (m *MockTwitchServer) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// MockUserResponse adds a handler for /helix/users endpoint
func (m *MockTwitchServer) MockUserResponse(userID, login string) {
	m.Handle("/helix/users", func(w http.ResponseWriter, r *http.Request) {
		data := []map[string]string{}
		if userID != "" {
			data = append(data, map[string]string{"id": userID, "login": login})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
	})
}

// MockClipsResponse adds a handler for /helix/clips endpoint
func (m *MockTwitchServer) MockClipsResponse(urls ...string) {
	m.Handle("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]string, 0, len(urls))
		for _, u := range urls {
			data = append(data, map[string]string{"id": "clip-" + u, "url": u})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":       data,
			"pagination": map[string]string{},
		})
	})
}

// MockOAuthTokenResponse adds a handler for OAuth token endpoint
func (m *MockTwitchServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handle("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": "unchanged-refresh",
			"expires_in":    expiresIn,
			"scope":         []string{},
			"token_type":    "bearer",
		})
	})
}

// MockValidateResponse adds a handler for the OAuth validate endpoint.
func (m *MockTwitchServer) MockValidateResponse(login string, expiresIn int) {
	m.Handle("/oauth2/validate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"client_id":  "test-client-id",
			"login":      login,
			"user_id":    "42",
			"scopes":     []string{},
			"expires_in": expiresIn,
		})
	})
}

// MockStatus makes path answer with a bare status code.
func (m *MockTwitchServer) MockStatus(path string, status int) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, map[string]string{"error": http.StatusText(status), "message": "mock"})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test mock response
}
