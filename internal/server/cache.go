package server

import (
	"sync"
	"time"

	"github.com/1amageek/app-mcp-sub001/internal/handle"
	"github.com/1amageek/app-mcp-sub001/internal/tree"
)

// cacheKey identifies a unique snapshot scope: one handle at one set of
// traversal bounds.
type cacheKey struct {
	Handle      handle.Handle
	MaxDepth    int
	MaxChildren int
}

// cacheEntry holds a cached snapshot with its timestamp.
type cacheEntry struct {
	node      *tree.Node
	timestamp time.Time
}

// SnapshotCache is a TTL cache for extracted trees. Snapshots are immutable,
// so entries are shared between readers; staleness is bounded by the TTL and
// by invalidation after input synthesis.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
}

// NewSnapshotCache creates a new cache. A ttl of 0 disables caching.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns a cached snapshot within TTL, or nil.
func (c *SnapshotCache) Get(h handle.Handle, opts tree.Options) *tree.Node {
	if c.ttl == 0 {
		return nil
	}
	key := cacheKey{Handle: h, MaxDepth: opts.MaxDepth, MaxChildren: opts.MaxChildren}
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.timestamp) < c.ttl {
		return entry.node
	}
	return nil
}

// Put stores a snapshot.
func (c *SnapshotCache) Put(h handle.Handle, opts tree.Options, node *tree.Node) {
	if c.ttl == 0 {
		return
	}
	key := cacheKey{Handle: h, MaxDepth: opts.MaxDepth, MaxChildren: opts.MaxChildren}
	c.mu.Lock()
	c.entries[key] = cacheEntry{node: node, timestamp: time.Now()}
	c.mu.Unlock()
}

// InvalidateHandle removes all entries for the given handle.
func (c *SnapshotCache) InvalidateHandle(h handle.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Handle == h {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll clears the entire cache.
func (c *SnapshotCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
