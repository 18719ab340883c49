package cache

import (
	"context"
	"sync"
	"time"
)

// InProcessTokenCache is a sync.Mutex-guarded in-memory ports.TokenCache,
// used when Redis isn't configured (local development, tests). It only
// shares a token within one process, unlike RedisTokenCache.
type InProcessTokenCache struct {
	mu      sync.Mutex
	entries map[string]cachedToken
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// NewInProcessTokenCache creates an empty in-process token cache.
func NewInProcessTokenCache() *InProcessTokenCache {
	return &InProcessTokenCache{entries: make(map[string]cachedToken)}
}

// Get returns the cached token for provider if present and not expired.
func (c *InProcessTokenCache) Get(ctx context.Context, provider string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[provider]
	if !found || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.token, true, nil
}

// Set caches token for provider until now+ttl.
func (c *InProcessTokenCache) Set(ctx context.Context, provider, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[provider] = cachedToken{token: token, expiresAt: time.Now().Add(ttl)}
	return nil
}
