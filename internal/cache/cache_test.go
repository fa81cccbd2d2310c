package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/numera/internal/cache"
	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Orders    int `json:"orders"`
	Completed int `json:"completed"`
}

const ttl = 30 * time.Second

func newCache(t *testing.T) (*cache.StatsCache, redismock.ClientMock) {
	t.Helper()

	db, mock := redismock.NewClientMock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return cache.NewStatsCache(db, logger, metrics.NewMetrics(prometheus.NewRegistry()), ttl), mock
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "numera:stats:dashboard", cache.Key("dashboard"))
	assert.Equal(t, "numera:stats:employees:today", cache.Key("employees", "today"))
}

func TestGetOrLoad(t *testing.T) {
	t.Parallel()
	key := cache.Key("dashboard")
	value := summary{Orders: 7, Completed: 4}
	payload, err := json.Marshal(value)
	require.NoError(t, err)

	t.Run("hit", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		mock.ExpectGet(key).SetVal(string(payload))

		got, err := cache.GetOrLoad(t.Context(), statsCache, key, func(context.Context) (summary, error) {
			t.Fatal("loader must not run on a hit")
			return summary{}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, value, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss loads and stores", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		mock.ExpectGet(key).RedisNil()
		mock.ExpectGet(key).RedisNil()
		mock.ExpectSet(key, payload, ttl).SetVal("OK")

		calls := 0
		got, err := cache.GetOrLoad(t.Context(), statsCache, key, func(context.Context) (summary, error) {
			calls++
			return value, nil
		})

		require.NoError(t, err)
		assert.Equal(t, value, got)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis down falls through to loader", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		mock.ExpectGet(key).SetErr(errors.New("connection refused"))
		mock.ExpectGet(key).SetErr(errors.New("connection refused"))
		mock.ExpectSet(key, payload, ttl).SetErr(errors.New("connection refused"))

		got, err := cache.GetOrLoad(t.Context(), statsCache, key, func(context.Context) (summary, error) {
			return value, nil
		})

		require.NoError(t, err)
		assert.Equal(t, value, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupted entry is recomputed", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		mock.ExpectGet(key).SetVal("{not json")
		mock.ExpectGet(key).SetVal("{not json")
		mock.ExpectSet(key, payload, ttl).SetVal("OK")

		got, err := cache.GetOrLoad(t.Context(), statsCache, key, func(context.Context) (summary, error) {
			return value, nil
		})

		require.NoError(t, err)
		assert.Equal(t, value, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - loader fails", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		mock.ExpectGet(key).RedisNil()
		mock.ExpectGet(key).RedisNil()

		_, err := cache.GetOrLoad(t.Context(), statsCache, key, func(context.Context) (summary, error) {
			return summary{}, assert.AnError
		})

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	t.Run("deletes all stats keys", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		keys := []string{cache.Key("dashboard"), cache.Key("employees", "today")}
		mock.ExpectKeys("numera:stats:*").SetVal(keys)
		mock.ExpectDel(keys...).SetVal(2)

		statsCache.Invalidate(t.Context())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing cached", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		mock.ExpectKeys("numera:stats:*").SetVal([]string{})

		statsCache.Invalidate(t.Context())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error is swallowed", func(t *testing.T) {
		t.Parallel()
		statsCache, mock := newCache(t)

		mock.ExpectKeys("numera:stats:*").SetErr(errors.New("connection refused"))

		statsCache.Invalidate(t.Context())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
