package data

import (
	"sync"
	"time"
)

// referenceCache provides in-memory caching for technology database releases.
// Releases are dated snapshots, so entries only expire to bound memory, not
// because the content can change.
type referenceCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	params    *ReferenceParams
	expiresAt time.Time
}

var paramsCache = &referenceCache{
	store: map[string]cacheEntry{},
	ttl:   24 * time.Hour,
}

func (c *referenceCache) get(version string) (*ReferenceParams, bool) {
	c.mu.RLock()
	entry, ok := c.store[version]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.params, true
}

func (c *referenceCache) set(version string, params *ReferenceParams) {
	c.mu.Lock()
	c.store[version] = cacheEntry{params: params, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}
