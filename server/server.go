// Package server exposes the HTTP API: the chat-bot command webhook plus health,
// readiness, and metrics endpoints. It injects correlation IDs into request
// contexts for consistent logging and wraps each request in a tracing span.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/shoutout/backend/telemetry"
)

// Options configures the HTTP surface.
type Options struct {
	Dispatcher   Dispatcher
	Credentials  CredentialStatus
	WebhookToken string
}

// NewMux returns the HTTP handler with all routes.
func NewMux(opts Options) http.Handler {
	handlers := NewHandlers(opts.Dispatcher, opts.Credentials)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(correlate)

	r.Get("/", handlers.HandleRoot)
	r.Get("/healthz", handlers.HandleHealthz)
	r.Get("/readyz", handlers.HandleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	command := webhookAuth(http.HandlerFunc(handlers.HandleTwitchCommand), opts.WebhookToken)
	r.Method(http.MethodGet, "/twitch-command", command)
	r.Method(http.MethodPost, "/twitch-command", command)

	return r
}

// correlate reuses or assigns a correlation id, starts the request span and
// records the final HTTP status on it.
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.Path),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", chimiddleware.GetReqID(ctx)),
			slog.String("component", "http"),
		)

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, rec.statusCode)
		if rec.statusCode >= 400 {
			span.SetStatus(telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", rec.statusCode)))
		}
	})
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// writeTimeout covers the worst case outbound chain: two Helix calls, each
// retried once after a token refresh.
const writeTimeout = 60 * time.Second

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, addr string, opts Options) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// WithoutCancel keeps context values but lets shutdown complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
