package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix = "lock:profile:"

	// DefaultLockTTL bounds how long a crashed holder can block a user id.
	DefaultLockTTL = 5 * time.Second

	lockRetryInterval = 20 * time.Millisecond
)

// releaseLockScript deletes the lock only if the caller still owns it.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Locker serializes profile updates for one user id across instances.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker returns a Locker sharing the cache's Redis client.
func (c *Cache) NewLocker(ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Locker{client: c.client, ttl: ttl}
}

// Lock blocks until the lock for key is held or ctx is done.
// The returned function releases the lock and is safe to call once.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx failed: %w", err)
		}
		if ok {
			return func() {
				// Release with a fresh context so a cancelled request still unlocks.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseLockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
