// Package cache implements ports.TokenCache: a process-wide cache for
// Provider A's bearer token (§4.5, §5 "process-wide with a lock"). The
// Redis-backed RedisTokenCache is grounded on the bat-go ratios service
// cache (services/ratios/cache.go)'s go-redis/v9 Get/Set-with-TTL shape;
// InProcessTokenCache is the sync.Mutex-guarded fallback used when Redis
// isn't configured.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "vas:provider_token:"

// RedisTokenCache caches provider bearer tokens in Redis so every API
// instance shares one token instead of each re-authenticating.
type RedisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache wraps an already-connected redis.Client.
func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

// Get returns the cached token for provider, or (_, false, nil) on a cache
// miss (key absent or expired - Redis TTL expiry surfaces as redis.Nil).
func (c *RedisTokenCache) Get(ctx context.Context, provider string) (string, bool, error) {
	token, err := c.client.Get(ctx, keyPrefix+provider).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Set caches token for provider with the TTL the provider's auth response
// carried. A non-positive ttl disables Redis's own expiry (not expected in
// practice; Authenticate always returns a TTL).
func (c *RedisTokenCache) Set(ctx context.Context, provider, token string, ttl time.Duration) error {
	return c.client.Set(ctx, keyPrefix+provider, token, ttl).Err()
}
