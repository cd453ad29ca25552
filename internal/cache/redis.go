// Package cache provides Redis-backed profile caching and locking.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides Redis cache access methods.
type Cache struct {
	client     *redis.Client
	profileTTL time.Duration
}

// New creates a new Cache with a Redis client. A zero profileTTL selects
// DefaultProfileTTL.
func New(ctx context.Context, redisURL string, profileTTL time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, profileTTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, profileTTL time.Duration) *Cache {
	if profileTTL <= 0 {
		profileTTL = DefaultProfileTTL
	}
	return &Cache{client: client, profileTTL: profileTTL}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}
