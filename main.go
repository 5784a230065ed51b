// Command backend is the main entrypoint for the shoutout bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Validates the Twitch access token, refreshing it when rejected.
//   - Starts background jobs: proactive token refresh and the chat responder,
//     each only when configured.
//   - Exposes the HTTP server with /twitch-command, /healthz, /readyz, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/shoutout/backend/app"
	"github.com/onnwee/shoutout/backend/config"
	"github.com/onnwee/shoutout/backend/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	app.ConfigureLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("shoutout", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, app.Endpoints{}).Run(ctx); err != nil {
		slog.Error("http server exited with error", slog.Any("err", err))
		stop()
		shutdown()
		os.Exit(1)
	}
	slog.Info("shutting down")
}
