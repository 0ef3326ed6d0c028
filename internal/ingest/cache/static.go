// Package cache implements the two bounded, size-aware LRU caches (spec.md
// §4.G, §4.H): the static scalar cache and the stream descriptor cache.
// Both are built on hashicorp/golang-lru/v2, grounded on
// original_source/core/network/udp/cache.py's StaticCache/StreamCache
// delta-based eviction algorithm, using a mutex/snapshot idiom that
// never hands out a live reference from a snapshot.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nar-io/telemetry-gateway/internal/errors"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

// DefaultStaticEntries and DefaultStaticBytes are spec.md §6.4's static
// cache defaults.
const (
	DefaultStaticEntries = 50
	DefaultStaticBytes   = 4 * 1024 * 1024
)

// StaticCache is the bounded uid → latest-scalar-value cache (component G).
type StaticCache struct {
	mu       sync.Mutex
	lru      *lru.Cache[uint32, *types.StaticEntry]
	maxBytes int
	curBytes int
}

// NewStatic builds a StaticCache bounded by maxEntries and maxBytes.
func NewStatic(maxEntries, maxBytes int) *StaticCache {
	c := &StaticCache{maxBytes: maxBytes}
	l, err := lru.NewWithEvict[uint32, *types.StaticEntry](maxEntries, func(_ uint32, value *types.StaticEntry) {
		c.curBytes -= value.Size()
	})
	if err != nil {
		// maxEntries <= 0 is a configuration error; fall back to the spec
		// default rather than panicking on a malformed config value.
		l, _ = lru.NewWithEvict[uint32, *types.StaticEntry](DefaultStaticEntries, func(_ uint32, value *types.StaticEntry) {
			c.curBytes -= value.Size()
		})
	}
	c.lru = l
	return c
}

// Put installs entry under entry.UID, replacing any prior value. Size
// accounting follows spec.md §4.G exactly: compute the byte delta against
// any previous entry, evict LRU entries while curBytes+delta would exceed
// maxBytes, then install only if the budget is satisfied — otherwise the
// frame is dropped and CacheOverflowError is returned.
func (c *StaticCache) Put(entry *types.StaticEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, hadPrev := c.lru.Peek(entry.UID)
	prevSize := 0
	if hadPrev {
		prevSize = prev.Size()
	}
	newSize := entry.Size()
	delta := newSize - prevSize

	replacedSelf := false
	for c.curBytes+delta > c.maxBytes && c.lru.Len() > 0 {
		evictedKey, _, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		if hadPrev && evictedKey == entry.UID && !replacedSelf {
			// The entry being replaced was itself evicted for space; treat
			// this Put as a fresh insert rather than a delta-relative one.
			delta = newSize
			replacedSelf = true
		}
	}
	if c.curBytes+delta > c.maxBytes {
		return errors.NewCacheOverflowError("static", entry.UID, newSize, c.maxBytes)
	}

	c.lru.Add(entry.UID, entry)
	c.curBytes += delta
	return nil
}

// Get returns the current entry for uid, refreshing its LRU position.
func (c *StaticCache) Get(uid uint32) (*types.StaticEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(uid)
}

// CurrentBytes returns the cache's current byte accounting.
func (c *StaticCache) CurrentBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

// Len returns the number of entries currently held.
func (c *StaticCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Snapshot returns a point-in-time, deep-copied view of every entry,
// serialized by the cache's own mutex so no partial update is observed.
func (c *StaticCache) Snapshot() map[uint32]types.StaticEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[uint32]types.StaticEntry, c.lru.Len())
	for _, uid := range c.lru.Keys() {
		entry, ok := c.lru.Peek(uid)
		if !ok {
			continue
		}
		out[uid] = *entry
	}
	return out
}
