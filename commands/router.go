// Package commands maps an inbound chat-bot command to its reply.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onnwee/shoutout/backend/telemetry"
)

// DefaultTriggers are the command spellings that run a shoutout.
var DefaultTriggers = []string{"!shoutout", "!so"}

// ErrMissingCommand is returned when a request carries no command name.
var ErrMissingCommand = errors.New("missing command")

// Request is one inbound webhook call.
type Request struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

// Shouter produces a shoutout reply from the text after the command.
type Shouter interface {
	Shoutout(ctx context.Context, message string) string
}

// Router dispatches commands to the shoutout service or a generic acknowledgment.
type Router struct {
	shouter  Shouter
	triggers map[string]struct{}
}

// NewRouter builds a Router. An empty trigger list uses DefaultTriggers.
func NewRouter(shouter Shouter, triggers []string) *Router {
	if len(triggers) == 0 {
		triggers = DefaultTriggers
	}
	r := &Router{shouter: shouter, triggers: make(map[string]struct{}, len(triggers))}
	for _, t := range triggers {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			r.triggers[t] = struct{}{}
		}
	}
	return r
}

// Handles reports whether command runs a shoutout.
func (r *Router) Handles(command string) bool {
	_, ok := r.triggers[strings.ToLower(strings.TrimSpace(command))]
	return ok
}

// Dispatch returns the reply text for req.
func (r *Router) Dispatch(ctx context.Context, req Request) (string, error) {
	command := strings.TrimSpace(req.Command)
	if command == "" {
		telemetry.RecordCommand("missing")
		return "", ErrMissingCommand
	}
	if r.Handles(command) {
		telemetry.RecordCommand("shoutout")
		return r.shouter.Shoutout(ctx, req.Message), nil
	}
	telemetry.RecordCommand("other")
	return fmt.Sprintf("✅ Command '%s' received!", command), nil
}
