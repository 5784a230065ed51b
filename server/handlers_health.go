package server

import (
	"errors"
	"net/http"
)

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests. The service is ready once
// it holds an access token that is not known to be expired.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"credentials", func() error {
			if h.creds == nil || h.creds.AccessToken() == "" {
				return errors.New("missing access token")
			}
			return nil
		}},
		{"token_expiry", func() error {
			exp := h.creds.ExpiresAt()
			if !exp.IsZero() && h.now().After(exp) {
				return errors.New("access token expired")
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
