// Package cache keeps computed statistics in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "numera:stats:"

// StatsCache is a cache-aside store for JSON-encoded statistics.
// Concurrent misses for the same key are collapsed into a single load.
// Redis failures never fail a read: they are logged and the value is recomputed.
type StatsCache struct {
	client  redis.Cmdable
	log     *slog.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
	group   singleflight.Group
}

// NewStatsCache creates a stats cache with the given TTL.
func NewStatsCache(client redis.Cmdable, log *slog.Logger, metrics *metrics.Metrics, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client:  client,
		log:     log.With(slog.String("component", "stats_cache")),
		metrics: metrics,
		ttl:     ttl,
	}
}

// Key builds the redis key for a statistics view.
func Key(parts ...string) string {
	key := keyPrefix
	for i, part := range parts {
		if i > 0 {
			key += ":"
		}
		key += part
	}
	return key
}

// GetOrLoad returns the cached value for key. On a miss it calls load and stores the result.
func GetOrLoad[T any](ctx context.Context, c *StatsCache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	if value, ok := lookup[T](ctx, c, key); ok {
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if value, ok := lookup[T](ctx, c, key); ok {
			return value, nil
		}

		fresh, loadErr := load(ctx)
		if loadErr != nil {
			return zero, loadErr
		}
		c.store(ctx, key, fresh)
		return fresh, nil
	})
	if err != nil {
		return zero, fmt.Errorf("failed to load %s: %w", key, err)
	}

	value, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cached type for %s", key)
	}
	return value, nil
}

// Invalidate drops every cached statistics view.
func (c *StatsCache) Invalidate(ctx context.Context) {
	keys, err := c.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		c.metrics.CacheOps.WithLabelValues("invalidate", "error").Inc()
		c.log.WarnContext(ctx, "Failed to list cached stats", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	if err = c.client.Del(ctx, keys...).Err(); err != nil {
		c.metrics.CacheOps.WithLabelValues("invalidate", "error").Inc()
		c.log.WarnContext(ctx, "Failed to invalidate cached stats", "error", err)
		return
	}
	c.metrics.CacheOps.WithLabelValues("invalidate", "success").Inc()
}

func lookup[T any](ctx context.Context, c *StatsCache, key string) (T, bool) {
	var value T

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.metrics.CacheOps.WithLabelValues("get", "miss").Inc()
		return value, false
	case err != nil:
		c.metrics.CacheOps.WithLabelValues("get", "error").Inc()
		c.log.WarnContext(ctx, "Failed to read cached stats", "key", key, "error", err)
		return value, false
	}

	if err = json.Unmarshal(cached, &value); err != nil {
		c.metrics.CacheOps.WithLabelValues("get", "error").Inc()
		c.log.WarnContext(ctx, "Failed to decode cached stats", "key", key, "error", err)
		return value, false
	}

	c.metrics.CacheOps.WithLabelValues("get", "hit").Inc()
	return value, true
}

func (c *StatsCache) store(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.metrics.CacheOps.WithLabelValues("set", "error").Inc()
		c.log.ErrorContext(ctx, "Failed to marshal stats for caching", "key", key, "error", err)
		return
	}

	if err = c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.metrics.CacheOps.WithLabelValues("set", "error").Inc()
		c.log.WarnContext(ctx, "Failed to save stats to cache", "key", key, "error", err)
		return
	}
	c.metrics.CacheOps.WithLabelValues("set", "success").Inc()
}
