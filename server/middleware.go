// Package server middleware for webhook authentication
package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// webhookTokenHeader carries the shared secret when WEBHOOK_TOKEN is set.
const webhookTokenHeader = "X-Webhook-Token"

// webhookAuth rejects requests that don't present the shared webhook token.
// An empty token disables the check.
func webhookAuth(next http.Handler, token string) http.Handler {
	if token == "" {
		slog.Warn("webhook authentication not configured - /twitch-command is UNPROTECTED. Set WEBHOOK_TOKEN for production")
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(webhookTokenHeader)
		if got == "" {
			got = r.URL.Query().Get("token")
		}
		if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1 {
			next.ServeHTTP(w, r)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		slog.Warn("webhook auth failed", slog.String("path", r.URL.Path), slog.String("remote_addr", r.RemoteAddr))
	})
}
