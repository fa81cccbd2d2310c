package server_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/UnknownOlympus/numera/internal/server"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockDBPinger struct {
	ShouldFail bool
}

func (m *MockDBPinger) Ping(_ context.Context) error {
	if m.ShouldFail {
		return errors.New("mock db error")
	}
	return nil
}

func TestHealthChecker(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("all systems ok", func(t *testing.T) {
		t.Parallel()

		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetVal("PONG")

		healthChecker := server.NewHealthChecker(logger, &MockDBPinger{}, server.RedisPinger(client))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.JSONEq(t, `{"database":"ok", "cache":"ok"}`, rr.Body.String())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database unavailable", func(t *testing.T) {
		t.Parallel()

		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetVal("PONG")

		healthChecker := server.NewHealthChecker(logger, &MockDBPinger{ShouldFail: true}, server.RedisPinger(client))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.JSONEq(t, `{"database":"unavailable", "cache":"ok"}`, rr.Body.String())
	})

	t.Run("cache unavailable", func(t *testing.T) {
		t.Parallel()

		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetErr(errors.New("connection refused"))

		healthChecker := server.NewHealthChecker(logger, &MockDBPinger{}, server.RedisPinger(client))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.JSONEq(t, `{"database":"ok", "cache":"unavailable"}`, rr.Body.String())
	})

	t.Run("without cache", func(t *testing.T) {
		t.Parallel()

		healthChecker := server.NewHealthChecker(logger, &MockDBPinger{}, nil)
		status, healthy := healthChecker.Check(context.Background())

		assert.True(t, healthy)
		assert.Equal(t, map[string]string{"database": "ok"}, status)
	})
}

func TestMonitoringHandler(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "numera_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	handler := server.NewMonitoringHandler(reg, server.NewHealthChecker(logger, &MockDBPinger{}, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "numera_test_total 1")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, logger, "test", 0, http.NotFoundHandler(), time.Second)
	}()

	cancel()
	require.NoError(t, <-done)
}
