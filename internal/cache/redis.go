package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values under a key prefix with a TTL.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache wraps an existing client. Values are stored under prefix+key.
func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisCache[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Get returns the decoded value. Decode and connection errors are logged and read as a miss.
func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Redis cache read failed", "key", key, "error", err)
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.WarnContext(ctx, "Redis cache entry undecodable", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

// Set encodes data as JSON and stores it with the configured TTL.
func (c *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	payload, err := json.Marshal(data)
	if err != nil {
		c.logger.WarnContext(ctx, "Redis cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis cache write failed", "key", key, "error", err)
	}
}

// Delete removes the key.
func (c *RedisCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis cache delete failed", "key", key, "error", err)
	}
}

// Ping checks the Redis connection.
func (c *RedisCache[T]) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
