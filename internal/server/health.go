package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// Pinger is a dependency whose availability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisPinger checks a redis connection.
func RedisPinger(client redis.Cmdable) PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

type check struct {
	name   string
	pinger Pinger
}

type HealthChecker struct {
	log    *slog.Logger
	checks []check
}

// NewHealthChecker creates a checker for the database and, when cache is not nil, the stats cache.
func NewHealthChecker(log *slog.Logger, db Pinger, cache Pinger) *HealthChecker {
	checks := []check{{name: "database", pinger: db}}
	if cache != nil {
		checks = append(checks, check{name: "cache", pinger: cache})
	}
	return &HealthChecker{log: log, checks: checks}
}

// Check pings every dependency. The map holds "ok" or "unavailable" per dependency.
func (h *HealthChecker) Check(ctx context.Context) (map[string]string, bool) {
	status := make(map[string]string, len(h.checks))
	healthy := true

	for _, c := range h.checks {
		if err := c.pinger.Ping(ctx); err != nil {
			status[c.name] = "unavailable"
			healthy = false
			h.log.WarnContext(ctx, "Health check failed", "dependency", c.name, "error", err)
			continue
		}
		status[c.name] = "ok"
	}

	return status, healthy
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	status, healthy := h.Check(req.Context())
	overallStatus := http.StatusOK
	if !healthy {
		overallStatus = http.StatusServiceUnavailable
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err := json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
