// Package availability tracks which info hashes the debrid service
// already holds, so searches can mark candidates instantly playable
// without a caching round-trip per request.
package availability

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache stores known availability per info hash. Entries expire: debrid
// caches evict, so a stale positive is worse than a re-check.
type Cache interface {
	// Get returns (cached, known). known is false when the hash has no
	// fresh entry.
	Get(ctx context.Context, infoHash string) (bool, bool, error)

	// Set records availability for a hash.
	Set(ctx context.Context, infoHash string, cached bool) error
}

func normalizeHash(infoHash string) string {
	return strings.ToLower(strings.TrimSpace(infoHash))
}

// memoryCache is the default in-process backend.
type memoryCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	cached    bool
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache with the given entry TTL.
func NewMemoryCache(ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &memoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *memoryCache) Get(_ context.Context, infoHash string) (bool, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[normalizeHash(infoHash)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return false, false, nil
	}
	return entry.cached, true, nil
}

func (c *memoryCache) Set(_ context.Context, infoHash string, cached bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic sweep keeps the map from growing without bound.
	if len(c.entries) > 10000 {
		now := time.Now()
		for hash, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, hash)
			}
		}
	}

	c.entries[normalizeHash(infoHash)] = memoryEntry{
		cached:    cached,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// noopCache is used when availability tracking is disabled.
type noopCache struct{}

// NewNoopCache returns a cache that remembers nothing.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) (bool, bool, error) { return false, false, nil }
func (noopCache) Set(context.Context, string, bool) error         { return nil }
