package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/onnwee/shoutout/backend/commands"
	"github.com/onnwee/shoutout/backend/telemetry"
)

// replyTimeout bounds one chat-triggered shoutout, refreshes included.
const replyTimeout = 45 * time.Second

// Dispatcher is the command router as seen from chat.
type Dispatcher interface {
	Handles(command string) bool
	Dispatch(ctx context.Context, req commands.Request) (string, error)
}

// Settings identifies the bot account and the channel it joins.
type Settings struct {
	Channel    string
	Username   string
	OAuthToken string
}

// StartShoutoutResponder joins the channel and answers shoutout triggers until ctx is done.
func StartShoutoutResponder(ctx context.Context, s Settings, d Dispatcher) {
	if s.Channel == "" || s.Username == "" || s.OAuthToken == "" {
		slog.Info("twitch chat creds not set; skipping chat responder")
		return
	}
	client := twitch.NewClient(s.Username, s.OAuthToken)

	client.OnConnect(func() {
		slog.Info("twitch chat connected", slog.String("channel", s.Channel), slog.String("component", "chat"))
	})
	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		if strings.EqualFold(msg.User.Name, s.Username) {
			return
		}
		// IRC callbacks run on the read loop; lookups must not stall it.
		go func() {
			mctx := telemetry.WithCorrelation(ctx, uuid.New().String())
			mctx, cancel := context.WithTimeout(mctx, replyTimeout)
			defer cancel()
			if reply, ok := handleMessage(mctx, d, msg.Message); ok {
				client.Say(msg.Channel, reply)
			}
		}()
	})

	// Handle context cancellation by closing the client
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = client.Disconnect()
		close(done)
	}()

	client.Join(s.Channel)
	if err := client.Connect(); err != nil && ctx.Err() == nil {
		slog.Error("twitch chat connect error", slog.Any("err", err))
	}
	<-done
}

// handleMessage returns the reply for a chat line, or false when the line is
// not a shoutout trigger.
func handleMessage(ctx context.Context, d Dispatcher, text string) (string, bool) {
	command, rest, ok := parseCommand(text)
	if !ok || !d.Handles(command) {
		return "", false
	}
	reply, err := d.Dispatch(ctx, commands.Request{Command: command, Message: rest})
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("chat command failed", slog.String("command", command), slog.Any("err", err))
		return "", false
	}
	telemetry.LoggerWithCorr(ctx).Info("chat command handled", slog.String("command", command), slog.String("component", "chat"))
	return plainText(reply), true
}

// parseCommand splits "!cmd rest of line" into its command word and remainder.
func parseCommand(text string) (command, rest string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "!") {
		return "", "", false
	}
	command, rest, _ = strings.Cut(text, " ")
	return command, strings.TrimSpace(rest), true
}

// plainText drops markdown emphasis, which Twitch chat renders literally.
func plainText(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
