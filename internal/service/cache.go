package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/observability"
)

// readThrough serves key from redis when present and otherwise stores the
// result of load for ttl. A nil client disables caching; cache failures are
// logged and never fail the request.
func readThrough[T any](ctx context.Context, client *redis.Client, logger zerolog.Logger, cacheName, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if client != nil {
		cached, err := client.Get(ctx, key).Result()
		switch {
		case err == nil:
			var value T
			if jsonErr := json.Unmarshal([]byte(cached), &value); jsonErr == nil {
				observability.CacheLookups().WithLabelValues(cacheName, "hit").Inc()
				return value, nil
			}
		case !errors.Is(err, redis.Nil):
			logger.Warn().Err(err).Str("cache", cacheName).Msg("failed to read cache")
		}
		observability.CacheLookups().WithLabelValues(cacheName, "miss").Inc()
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if client != nil && ttl > 0 {
		if payload, err := json.Marshal(value); err == nil {
			if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
				logger.Warn().Err(err).Str("cache", cacheName).Msg("failed to store cache")
			}
		}
	}

	return value, nil
}
