// Package cache provides the non-authoritative key/value store that shadows the
// ledgers. Entries are JSON snapshots; writers invalidate, they never update.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Cache is the capability the read-through decorators depend on.
// A ttl of zero stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Well-known keys and their lifetimes.
const (
	KeyProductsAll  = "products:all"
	KeyPaymentTypes = "payment:types"
	OrderTTL        = 30 * 24 * time.Hour
	UserTTL         = 24 * time.Hour
	ProductsTTL     = 4 * time.Hour
	PaymentTypesTTL = time.Duration(0)
	orderKeyPrefix  = "order:"
	userKeyPrefix   = "user:"
)

// OrderKey returns the cache key of a single order.
func OrderKey(id string) string { return orderKeyPrefix + id }

// UserKey returns the cache key of a single user.
func UserKey(id int64) string { return fmt.Sprintf("%s%d", userKeyPrefix, id) }

// ReadThrough returns the cached value for key or loads it, stores it with ttl
// and returns it. Cache failures are logged and degrade to a plain load.
func ReadThrough[T any](ctx context.Context, c Cache, logger *slog.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	raw, ok, err := c.Get(ctx, key)
	switch {
	case err != nil:
		logWarn(ctx, logger, "cache read failed", key, err)
	case ok:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			logDebug(ctx, logger, "cache hit", key)
			return cached, nil
		}
		logWarn(ctx, logger, "cache entry undecodable, reloading", key, err)
	default:
		logDebug(ctx, logger, "cache miss", key)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		logWarn(ctx, logger, "cache encode failed", key, err)
		return value, nil
	}
	if err := c.Set(ctx, key, payload, ttl); err != nil {
		logWarn(ctx, logger, "cache write failed", key, err)
	}
	return value, nil
}

// Invalidate deletes keys and logs, rather than returns, a failure: the
// mutation that triggered it has already happened.
func Invalidate(ctx context.Context, c Cache, logger *slog.Logger, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		for _, key := range keys {
			logWarn(ctx, logger, "cache invalidation failed", key, err)
		}
	}
}

func logWarn(ctx context.Context, logger *slog.Logger, msg, key string, err error) {
	if logger == nil {
		return
	}
	logger.LogAttrs(ctx, slog.LevelWarn, msg, slog.String("cache.key", key), slog.String("error", err.Error()))
}

func logDebug(ctx context.Context, logger *slog.Logger, msg, key string) {
	if logger == nil {
		return
	}
	logger.LogAttrs(ctx, slog.LevelDebug, msg, slog.String("cache.key", key))
}
