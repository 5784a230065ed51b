// Command shoutout is the operator CLI for the shoutout bot: it runs the
// server and offers one-off token and lookup checks against Twitch.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/onnwee/shoutout/backend/app"
	"github.com/onnwee/shoutout/backend/config"
	"github.com/onnwee/shoutout/backend/shoutout"
	"github.com/onnwee/shoutout/backend/telemetry"
	"github.com/onnwee/shoutout/backend/twitchapi"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "shoutout",
		Short:         "Twitch shoutout bot",
		Long:          "Answers !shoutout commands with a channel link and a recent clip, over a webhook or Twitch chat.",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load(envFile)
			app.ConfigureLogging()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(serveCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(shoutCmd())
	root.AddCommand(normalizeCmd())
	return root
}

// loadApp reads and validates config and assembles the bot.
func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg, app.Endpoints{}), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run"},
		Short:   "Run the webhook server and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			telemetry.Init()
			shutdown, err := telemetry.InitTracing("shoutout", version)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configured access token, refreshing it if Twitch rejects it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			res, err := a.CheckToken(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token:      %s\n", twitchapi.MaskToken(a.Creds.AccessToken()))
			fmt.Fprintf(out, "login:      %s\n", displayLogin(res.Login))
			fmt.Fprintf(out, "client_id:  %s\n", res.ClientID)
			fmt.Fprintf(out, "scopes:     %s\n", strings.Join(res.Scopes, " "))
			fmt.Fprintf(out, "expires_at: %s\n", a.Creds.ExpiresAt().Format(time.RFC3339))
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a token refresh and print the new token tail",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			tok, err := a.Creds.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s, expires %s\n",
				twitchapi.MaskToken(tok), a.Creds.ExpiresAt().Format(time.RFC3339))
			if a.Config.TwitchRefreshToken != "" {
				slog.Info("update TWITCH_ACCESS_TOKEN to skip the refresh on next start")
			}
			return nil
		},
	}
}

func shoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shout <name or channel url>",
		Short: "Run one shoutout against Twitch and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			fmt.Fprintln(cmd.OutOrStdout(), a.Service.Shoutout(ctx, strings.Join(args, " ")))
			return nil
		},
	}
}

func normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <input>",
		Short: "Print the login a shoutout would look up for input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			login := shoutout.Normalize(args[0])
			if login == "" {
				return fmt.Errorf("no valid login in %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", login, shoutout.ProfileURL(login))
			return nil
		},
	}
}

// displayLogin labels app access tokens, which carry no user login.
func displayLogin(login string) string {
	if login == "" {
		return "(app token)"
	}
	return login
}
