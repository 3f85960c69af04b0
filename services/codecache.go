package services

import (
	"context"
	"sync"
	"time"
)

// CodeCache is a short-lived key/value store for one-time login codes.
type CodeCache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	// ConsumeIf deletes key when its live value satisfies match. found reports
	// whether a live value existed at all. At most one caller consumes a value.
	// Implementations may drop a value after repeated failed matches.
	ConsumeIf(ctx context.Context, key string, match func(value string) bool) (found, consumed bool, err error)
}

// DefaultMaxAttempts is how many failed matches a value survives.
const DefaultMaxAttempts = 5

type cacheEntry struct {
	value     string
	expiresAt time.Time
	failures  int
}

// MemoryCodeCache keeps codes in process memory. Expired entries are dropped
// lazily on access and swept on every Set. An entry is deleted after
// maxAttempts failed ConsumeIf matches.
type MemoryCodeCache struct {
	mu          sync.Mutex
	entries     map[string]cacheEntry
	now         func() time.Time
	maxAttempts int
}

func NewMemoryCodeCache() *MemoryCodeCache {
	return &MemoryCodeCache{
		entries:     make(map[string]cacheEntry),
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithMaxAttempts sets the failed-match limit. Zero disables it.
func (c *MemoryCodeCache) WithMaxAttempts(n int) *MemoryCodeCache {
	c.maxAttempts = n
	return c
}

// WithClock replaces the time source.
func (c *MemoryCodeCache) WithClock(now func() time.Time) *MemoryCodeCache {
	c.now = now
	return c
}

func (c *MemoryCodeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

func (c *MemoryCodeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	return e.value, ok, nil
}

func (c *MemoryCodeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryCodeCache) ConsumeIf(_ context.Context, key string, match func(string) bool) (bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return false, false, nil
	}
	if !match(e.value) {
		e.failures++
		if c.maxAttempts > 0 && e.failures >= c.maxAttempts {
			delete(c.entries, key)
		} else {
			c.entries[key] = e
		}
		return true, false, nil
	}
	delete(c.entries, key)
	return true, true, nil
}

// live must be called with mu held.
func (c *MemoryCodeCache) live(key string) (cacheEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return e, true
}
