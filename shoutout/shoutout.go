// Package shoutout builds the chat reply for "!shoutout <streamer>": it
// normalizes the name, resolves the Twitch user, picks one of their recent
// clips and formats the message. Every path ends in a plain string; nothing
// here returns an error to the caller.
package shoutout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/shoutout/backend/telemetry"
	"github.com/onnwee/shoutout/backend/twitchapi"
)

// Replies sent back to chat.
const (
	MsgMissingName = "⚠️ Please specify a streamer name, e.g. !shoutout streamername"
	MsgInvalidName = "⚠️ That doesn't look like a Twitch username. Try !shoutout streamername"
	MsgAuthFailed  = "⚠️ Twitch authorization failed. Please try again later."
	msgNotFound    = "⚠️ Could not find Twitch user '%s'."
	msgWithClip    = "📣 Go follow **%s** at %s! Here's a recent clip: %s"
	msgWithoutClip = "📣 Go follow **%s** at %s! They're awesome, even if Twitch didn't give us a clip 😉"
)

// Outcome labels recorded for every shoutout.
const (
	OutcomeMissingName  = "missing_name"
	OutcomeInvalidName  = "invalid_name"
	OutcomeAuthFailed   = "auth_failed"
	OutcomeUserNotFound = "user_not_found"
	OutcomeNoClip       = "no_clip"
	OutcomeClip         = "clip"
)

// Platform is the pair of Helix lookups a shoutout needs.
type Platform interface {
	ResolveUser(ctx context.Context, login, token string) twitchapi.LookupResult
	FetchRecentClip(ctx context.Context, userID, token string) twitchapi.ClipResult
}

// Service composes the normalizer, the Helix lookups and the reply formatter.
type Service struct {
	platform Platform
	creds    twitchapi.TokenRefresher
}

// NewService wires a Service. creds is shared across requests.
func NewService(platform Platform, creds twitchapi.TokenRefresher) *Service {
	return &Service{platform: platform, creds: creds}
}

// Shoutout returns the chat reply for the text following the command.
func (s *Service) Shoutout(ctx context.Context, message string) string {
	var reply, outcome string
	telemetry.TimeFunc(telemetry.ShoutoutDuration, func() {
		reply, outcome = s.run(ctx, message)
	})
	telemetry.RecordShoutout(outcome)
	return reply
}

func (s *Service) run(ctx context.Context, message string) (string, string) {
	log := telemetry.LoggerWithCorr(ctx)

	fields := strings.Fields(message)
	if len(fields) == 0 {
		return MsgMissingName, OutcomeMissingName
	}
	login := Normalize(fields[0])
	if login == "" {
		log.Info("shoutout rejected: invalid streamer name", slog.String("raw", fields[0]))
		return MsgInvalidName, OutcomeInvalidName
	}

	ctx, span := telemetry.StartSpan(ctx, "shoutout", "shoutout", attribute.String("twitch.login", login))
	defer span.End()
	log.Info("processing shoutout", slog.String("login", login))

	user, err := twitchapi.CallWithRefresh(ctx, s.creds, func(ctx context.Context, token string) twitchapi.LookupResult {
		return s.platform.ResolveUser(ctx, login, token)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return authFailedReply(log, err), OutcomeAuthFailed
	}
	if user.Status != twitchapi.StatusFound {
		return fmt.Sprintf(msgNotFound, login), OutcomeUserNotFound
	}

	clip, err := twitchapi.CallWithRefresh(ctx, s.creds, func(ctx context.Context, token string) twitchapi.ClipResult {
		return s.platform.FetchRecentClip(ctx, user.UserID, token)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return authFailedReply(log, err), OutcomeAuthFailed
	}

	telemetry.SetSpanSuccess(span)
	if clip.Status != twitchapi.StatusFound {
		return fmt.Sprintf(msgWithoutClip, login, ProfileURL(login)), OutcomeNoClip
	}
	return fmt.Sprintf(msgWithClip, login, ProfileURL(login), clip.URL), OutcomeClip
}

func authFailedReply(log *slog.Logger, err error) string {
	if !errors.Is(err, twitchapi.ErrAuthFailed) {
		log.Error("unexpected shoutout error", slog.Any("err", err))
	} else {
		log.Warn("shoutout aborted: twitch authorization failed", slog.Any("err", err))
	}
	return MsgAuthFailed
}
