package provider_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *provider.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return provider.NewClient(logger, metrics.NewMetrics(prometheus.NewRegistry()), provider.Config{
		BaseURL:  srv.URL + "/stubs/handler_api.php",
		APIKey:   "key",
		Service:  "tpgs",
		Operator: "9",
		Country:  "4",
		MaxPrice: 37,
		Timeout:  time.Second,
	})
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			assert.Equal(t, "/stubs/handler_api.php", r.URL.Path)
			assert.Equal(t, "key", query.Get("api_key"))
			assert.Equal(t, "getNumber", query.Get("action"))
			assert.Equal(t, "9", query.Get("operator"))
			assert.Equal(t, "tpgs", query.Get("service"))
			assert.Equal(t, "4", query.Get("country"))
			assert.Equal(t, "37", query.Get("maxPrice"))
			_, _ = io.WriteString(w, "ACCESS_NUMBER:12345:9199999999\n")
		})

		number, err := client.Acquire(t.Context())

		require.NoError(t, err)
		assert.Equal(t, "12345", number.OrderID)
		assert.Equal(t, "9199999999", number.Phone)
	})

	t.Run("error - no numbers", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, reply("NO_NUMBERS"))

		_, err := client.Acquire(t.Context())

		require.ErrorIs(t, err, models.ErrNoNumbers)
		assert.False(t, provider.IsTransport(err))
	})

	t.Run("error - provider error keeps raw text", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, reply("NO_BALANCE"))

		_, err := client.Acquire(t.Context())

		var providerErr *provider.Error
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, "NO_BALANCE", providerErr.Raw)
		assert.Equal(t, "getNumber", providerErr.Action)
	})

	t.Run("error - malformed access number", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, reply("ACCESS_NUMBER:12345"))

		_, err := client.Acquire(t.Context())

		var providerErr *provider.Error
		require.ErrorAs(t, err, &providerErr)
	})

	t.Run("error - http status", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Acquire(t.Context())

		require.Error(t, err)
		assert.True(t, provider.IsTransport(err))
	})
}

func TestAcquire_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(reply("ACCESS_NUMBER:1:2"))
	baseURL := srv.URL
	srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := provider.NewClient(logger, metrics.NewMetrics(prometheus.NewRegistry()), provider.Config{
		BaseURL: baseURL,
		Timeout: time.Second,
	})

	_, err := client.Acquire(t.Context())

	var transportErr *provider.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.False(t, errors.Is(err, models.ErrNoNumbers))
}

func TestPoll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected provider.PollResult
	}{
		{
			name:     "sms ready",
			body:     "STATUS_OK:4821",
			expected: provider.PollResult{State: provider.PollSMSReady, Code: "4821", Raw: "STATUS_OK:4821"},
		},
		{
			name:     "cancelled",
			body:     "STATUS_CANCEL",
			expected: provider.PollResult{State: provider.PollCancelled, Raw: "STATUS_CANCEL"},
		},
		{
			name:     "waiting",
			body:     "STATUS_WAIT_CODE",
			expected: provider.PollResult{State: provider.PollWaiting, Raw: "STATUS_WAIT_CODE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "getStatus", r.URL.Query().Get("action"))
				assert.Equal(t, "12345", r.URL.Query().Get("id"))
				_, _ = io.WriteString(w, tt.body)
			})

			result, err := client.Poll(t.Context(), "12345")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"ACCESS_CANCEL", "ACCESS_CANCEL_ALREADY"} {
		t.Run(body, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "setStatus", r.URL.Query().Get("action"))
				assert.Equal(t, "8", r.URL.Query().Get("status"))
				assert.Equal(t, "12345", r.URL.Query().Get("id"))
				_, _ = io.WriteString(w, body)
			})

			require.NoError(t, client.Cancel(t.Context(), "12345"))
		})
	}

	t.Run("error - provider refuses", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, reply("EARLY_CANCEL_DENIED"))

		err := client.Cancel(t.Context(), "12345")

		var providerErr *provider.Error
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, "EARLY_CANCEL_DENIED", providerErr.Raw)
		assert.Contains(t, err.Error(), "EARLY_CANCEL_DENIED")
	})
}

func TestPollState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "waiting", provider.PollWaiting.String())
	assert.Equal(t, "sms_ready", provider.PollSMSReady.String())
	assert.Equal(t, "cancelled", provider.PollCancelled.String())
	assert.Equal(t, "unknown", provider.PollState(42).String())
}
