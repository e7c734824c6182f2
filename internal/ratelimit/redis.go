// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ratelimit provides a Redis-backed store for echo's rate limiter,
// so counters are shared between server instances.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "cashtrackr:ratelimit:"

	// opTimeout bounds each Redis round trip so a slow Redis cannot stall requests.
	opTimeout = 250 * time.Millisecond
)

// RedisStore counts requests per identifier in fixed windows.
// It implements echo's middleware.RateLimiterStore.
type RedisStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewRedisStore allows limit requests per window for each identifier.
func NewRedisStore(client *redis.Client, limit int, window time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

// Allow reports whether identifier may make another request.
// Redis failures are logged and the request is let through.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := keyPrefix + identifier
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// The window starts with the first request; later ones never extend it.
		pipe.SetNX(ctx, key, 0, s.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		slog.Error("rate_limit_store_unavailable", "error", err)
		return true, nil
	}
	return incr.Val() <= s.limit, nil
}
