package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// NewMonitoringHandler returns the mux with the health check and metrics endpoints.
func NewMonitoringHandler(reg *prometheus.Registry, health *HealthChecker) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", health)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// StartMonitoringServer serves /healthz and /metrics on the given port until ctx is cancelled.
func StartMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	health *HealthChecker,
	port int,
) error {
	return Serve(ctx, log, "monitoring", port, NewMonitoringHandler(reg, health), writeTimeout)
}

// Serve runs an HTTP server on the given port and shuts it down gracefully when ctx is done.
// It returns nil after a clean shutdown.
func Serve(
	ctx context.Context,
	log *slog.Logger,
	name string,
	port int,
	handler http.Handler,
	writeTimeout time.Duration,
) error {
	log = log.With(slog.String("server", name))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	log.InfoContext(ctx, "Starting server", "port", port)

	var err error
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.InfoContext(ctx, "Server shutting down.")
		if err = server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "Server failed to shutdown", "error", err)
			return fmt.Errorf("failed to shutdown %s server: %w", name, err)
		}
		return nil
	case err = <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.ErrorContext(ctx, "Server failed", "error", err)
		return fmt.Errorf("%s server failed: %w", name, err)
	}
}
