package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spotlight/userprofile/internal/model"
)

// Cache key prefixes and TTLs.
const (
	profileKeyPrefix  = "profile:"
	negCacheKeySuffix = ":neg"

	// DefaultProfileTTL is the TTL for cached profile documents.
	DefaultProfileTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 1 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

func profileKey(id model.UserID) string {
	return profileKeyPrefix + id.String()
}

func negativeProfileKey(id model.UserID) string {
	return profileKeyPrefix + id.String() + negCacheKeySuffix
}

// GetProfile retrieves a profile document from cache.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	data, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		// A corrupt entry is treated as a miss and evicted.
		c.client.Del(ctx, profileKey(id))
		return nil, ErrCacheMiss
	}
	if profile.Properties == nil {
		profile.Properties = make(model.Properties)
	}

	return &profile, nil
}

// SetProfile stores a profile document and clears any negative entry.
func (c *Cache) SetProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, profileKey(profile.ID), data, c.profileTTL)
	pipe.Del(ctx, negativeProfileKey(profile.ID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}

	return nil
}

// DeleteProfile removes a profile and its negative entry from cache.
func (c *Cache) DeleteProfile(ctx context.Context, id model.UserID) error {
	if err := c.client.Del(ctx, profileKey(id), negativeProfileKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete profile from cache: %w", err)
	}
	return nil
}

// IsNegativelyCached checks if a user id is known to have no profile.
func (c *Cache) IsNegativelyCached(ctx context.Context, id model.UserID) (bool, error) {
	exists, err := c.client.Exists(ctx, negativeProfileKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a user id as having no profile.
func (c *Cache) SetNegativeCache(ctx context.Context, id model.UserID) error {
	err := c.client.SetEx(ctx, negativeProfileKey(id), "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
