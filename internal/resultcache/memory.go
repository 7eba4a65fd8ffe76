package resultcache

import (
	"context"
	"sync"
	"time"

	apperrors "trade-reconcile-service/pkg/errors"
)

type memoryEntry struct {
	payload   Payload
	createdAt time.Time
}

// MemoryCache is an in-process token cache with TTL expiry and oldest-first
// eviction once the item limit is reached. It is safe for concurrent use.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	ttl      time.Duration
	maxItems int

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewMemoryCache creates a memory cache with the given retention policy.
func NewMemoryCache(ttl time.Duration, maxItems int) *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string]memoryEntry),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Put stores the payload, evicting expired entries and then the oldest
// entries until the cache fits the item limit.
func (c *MemoryCache) Put(_ context.Context, payload Payload) (string, error) {
	token := newToken()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[token] = memoryEntry{payload: payload, createdAt: c.now()}
	c.cleanupLocked()
	return token, nil
}

// Get returns the payload for the token, or a CodeUnknownToken error when
// the token is unknown or its entry has expired.
func (c *MemoryCache) Get(_ context.Context, token string) (Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[token]
	if !ok {
		return Payload{}, apperrors.UnknownToken(token)
	}
	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, token)
		return Payload{}, apperrors.UnknownToken(token)
	}
	return entry.payload, nil
}

// Close releases the cache contents.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) cleanupLocked() {
	now := c.now()
	for token, entry := range c.entries {
		if now.Sub(entry.createdAt) > c.ttl {
			delete(c.entries, token)
		}
	}

	for len(c.entries) > c.maxItems {
		var oldest string
		var oldestAt time.Time
		for token, entry := range c.entries {
			if oldest == "" || entry.createdAt.Before(oldestAt) {
				oldest = token
				oldestAt = entry.createdAt
			}
		}
		delete(c.entries, oldest)
	}
}
