// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/shoutout/backend/commands"
	"github.com/onnwee/shoutout/backend/telemetry"
)

// maxBodyBytes caps POST /twitch-command payloads.
const maxBodyBytes = 64 << 10

// Dispatcher turns a command request into the chat reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, req commands.Request) (string, error)
}

// CredentialStatus reports what the readiness probe needs about the Twitch token.
type CredentialStatus interface {
	AccessToken() string
	ExpiresAt() time.Time
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	dispatcher Dispatcher
	creds      CredentialStatus
	now        func() time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(dispatcher Dispatcher, creds CredentialStatus) *Handlers {
	return &Handlers{dispatcher: dispatcher, creds: creds, now: time.Now}
}

// HandleRoot reports that the bot is up.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Twitch Shoutout Bot is live!"})
}

// HandleTwitchCommand accepts a command from a chat-bot platform and answers
// with the reply text. POST takes a JSON body, GET takes query parameters.
func (h *Handlers) HandleTwitchCommand(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCommand(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	reply, err := h.dispatcher.Dispatch(r.Context(), req)
	if errors.Is(err, commands.ErrMissingCommand) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing command"})
		return
	}
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("dispatch command", slog.String("command", req.Command), slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	telemetry.LoggerWithCorr(r.Context()).Info("command handled",
		slog.String("command", req.Command),
		slog.String("component", "http"),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, reply)
}

// decodeCommand reads the command from the JSON body (POST) or the query string.
// An empty POST body yields an empty request so the router reports the missing command.
func decodeCommand(r *http.Request) (commands.Request, error) {
	var req commands.Request
	if r.Method != http.MethodPost {
		q := r.URL.Query()
		req.Command = q.Get("command")
		req.Message = q.Get("message")
		return req, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return commands.Request{}, err
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
