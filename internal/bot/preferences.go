package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const languageKeyPrefix = "numera:bot:lang:"

// LanguageStore keeps the language chosen by a Telegram user.
type LanguageStore interface {
	Language(ctx context.Context, userID int64) (string, bool, error)
	SetLanguage(ctx context.Context, userID int64, lang string) error
}

// RedisLanguageStore stores language preferences in redis without expiry.
type RedisLanguageStore struct {
	client  redis.Cmdable
	metrics *metrics.Metrics
}

func NewRedisLanguageStore(client redis.Cmdable, metrics *metrics.Metrics) *RedisLanguageStore {
	return &RedisLanguageStore{client: client, metrics: metrics}
}

func languageKey(userID int64) string {
	return languageKeyPrefix + strconv.FormatInt(userID, 10)
}

// Language returns the saved language. The flag is false when the user never picked one.
func (s *RedisLanguageStore) Language(ctx context.Context, userID int64) (string, bool, error) {
	lang, err := s.client.Get(ctx, languageKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		s.metrics.CacheOps.WithLabelValues("get", "miss").Inc()
		return "", false, nil
	}
	if err != nil {
		s.metrics.CacheOps.WithLabelValues("get", "error").Inc()
		return "", false, fmt.Errorf("failed to get language of user %d: %w", userID, err)
	}

	s.metrics.CacheOps.WithLabelValues("get", "hit").Inc()
	return lang, true, nil
}

func (s *RedisLanguageStore) SetLanguage(ctx context.Context, userID int64, lang string) error {
	if err := s.client.Set(ctx, languageKey(userID), lang, 0).Err(); err != nil {
		s.metrics.CacheOps.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("failed to save language of user %d: %w", userID, err)
	}

	s.metrics.CacheOps.WithLabelValues("set", "success").Inc()
	return nil
}
