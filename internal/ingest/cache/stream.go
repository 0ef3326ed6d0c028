package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nar-io/telemetry-gateway/internal/errors"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

// DefaultStreamEntries and DefaultStreamBytes are spec.md §6.4's stream
// cache defaults.
const (
	DefaultStreamEntries = 8
	DefaultStreamBytes   = 16 * 1024 * 1024
)

// StreamCache is the bounded uid → stream-descriptor cache (component H).
// Descriptors whose accumulated buffer alone exceeds maxBytes still win
// over older descriptors, which are evicted first (spec.md §4.H).
type StreamCache struct {
	mu       sync.Mutex
	lru      *lru.Cache[uint32, *types.StreamDescriptor]
	maxBytes int
	curBytes int
}

// NewStream builds a StreamCache bounded by maxEntries and maxBytes.
func NewStream(maxEntries, maxBytes int) *StreamCache {
	c := &StreamCache{maxBytes: maxBytes}
	l, err := lru.NewWithEvict[uint32, *types.StreamDescriptor](maxEntries, func(_ uint32, value *types.StreamDescriptor) {
		c.curBytes -= value.Size()
	})
	if err != nil {
		l, _ = lru.NewWithEvict[uint32, *types.StreamDescriptor](DefaultStreamEntries, func(_ uint32, value *types.StreamDescriptor) {
			c.curBytes -= value.Size()
		})
	}
	c.lru = l
	return c
}

// InitStream installs descriptor under descriptor.UID, discarding and
// replacing any existing descriptor for that uid (spec.md §4.H, and the
// "stream init is idempotent" invariant from spec.md §8).
func (c *StreamCache) InitStream(descriptor *types.StreamDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	descriptor.LastTouched = time.Now()

	prev, hadPrev := c.lru.Peek(descriptor.UID)
	prevSize := 0
	if hadPrev {
		prevSize = prev.Size()
	}
	newSize := descriptor.Size()
	// Add() on an already-present key updates the value in place and never
	// fires onEvicted, so prevSize is never subtracted from curBytes that
	// way; the delta itself must carry the subtraction.
	delta := newSize - prevSize

	// Peek does not refresh LRU order, so the descriptor being replaced can
	// still be RemoveOldest's pick below. If that happens, onEvicted already
	// subtracted prevSize via the evicted object's own Size(); switch delta
	// to the full newSize so it isn't subtracted a second time.
	replacedSelf := false
	for c.curBytes+delta > c.maxBytes && c.lru.Len() > 0 {
		evictedKey, _, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		if hadPrev && evictedKey == descriptor.UID && !replacedSelf {
			delta = newSize
			replacedSelf = true
		}
	}
	if c.curBytes+delta > c.maxBytes {
		return errors.NewCacheOverflowError("stream", descriptor.UID, newSize, c.maxBytes)
	}

	c.lru.Add(descriptor.UID, descriptor)
	c.curBytes += delta
	return nil
}

// AddChunk appends a chunk to the stream descriptor previously installed
// for uid. Returns OrphanStreamChunkError if no descriptor exists, nil with
// accepted=false if the reassembler silently drops an out-of-order chunk,
// and CacheOverflowError if the descriptor's growth cannot fit even after
// evicting every other stream; in that case the chunk stays accepted and
// its bytes are counted, so the descriptor holds the cache above maxBytes.
func (c *StreamCache) AddChunk(uid uint32, chunkID uint32, data []byte) (accepted bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	desc, ok := c.lru.Get(uid)
	if !ok {
		return false, errors.NewOrphanStreamChunkError(uid)
	}

	prevSize := desc.Size()
	if !desc.Buffer.AddChunk(chunkID, data) {
		return false, nil
	}
	desc.LastTouched = time.Now()
	newSize := desc.Size()
	delta := newSize - prevSize

	// desc was mutated in place above, so it cannot be evicted here: Get
	// already made it the most-recently-used entry, but if it is also the
	// *only* entry, RemoveOldest would pick it anyway, and onEvicted would
	// subtract its post-growth Size() rather than the pre-growth prevSize
	// curBytes is tracking, corrupting the counter and silently dropping a
	// descriptor AddChunk just reported as accepted. Only evict other
	// entries; if none remain and the budget is still short, report
	// overflow instead of evicting the descriptor we just grew.
	for c.curBytes+delta > c.maxBytes && c.lru.Len() > 1 {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
	overflow := c.curBytes+delta > c.maxBytes
	c.curBytes += delta
	if overflow {
		return true, errors.NewCacheOverflowError("stream", uid, delta, c.maxBytes)
	}
	return true, nil
}

// Get returns the descriptor for uid, refreshing its LRU position.
func (c *StreamCache) Get(uid uint32) (*types.StreamDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(uid)
}

// Done reports whether the stream for uid has received every expected
// chunk. Returns false for an unknown uid.
func (c *StreamCache) Done(uid uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	desc, ok := c.lru.Peek(uid)
	if !ok {
		return false
	}
	return desc.Done()
}

// FullBytes returns the concatenated buffer for uid. Valid once Done(uid)
// is true; returns (nil, false) for an unknown uid.
func (c *StreamCache) FullBytes(uid uint32) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	desc, ok := c.lru.Peek(uid)
	if !ok || desc.Buffer == nil {
		return nil, false
	}
	return desc.Buffer.FullBytes(), true
}

// NextChunk advances uid's lazy read cursor, per the component H/F
// contract (spec.md §6.5).
func (c *StreamCache) NextChunk(uid uint32) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	desc, ok := c.lru.Peek(uid)
	if !ok || desc.Buffer == nil {
		return nil, false
	}
	return desc.Buffer.NextChunk()
}

// CurrentBytes returns the cache's current byte accounting.
func (c *StreamCache) CurrentBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

// Len returns the number of stream descriptors currently held.
func (c *StreamCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Snapshot returns a point-in-time, metadata-only copy of every descriptor.
// Buffer is deliberately left nil: snapshots must never alias the live,
// mutable reassembler (spec.md §5, "no handing out live references").
// Callers needing NextChunk/FullBytes/Done on a live stream must use this
// cache's own pass-through methods instead.
func (c *StreamCache) Snapshot() map[uint32]types.StreamDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[uint32]types.StreamDescriptor, c.lru.Len())
	for _, uid := range c.lru.Keys() {
		desc, ok := c.lru.Peek(uid)
		if !ok {
			continue
		}
		cp := *desc
		cp.Buffer = nil
		out[uid] = cp
	}
	return out
}

// EvictStale removes every stream descriptor whose LastTouched is older
// than maxAge relative to now. This is the Maintenance Sweeper's (component
// N) sole interaction with this cache; it never touches LRU recency or the
// byte/entry eviction policy (spec.md §6.4, "reserved; not exercised by
// core").
func (c *StreamCache) EvictStale(now time.Time, maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []uint32
	for _, uid := range c.lru.Keys() {
		desc, ok := c.lru.Peek(uid)
		if !ok {
			continue
		}
		if now.Sub(desc.LastTouched) > maxAge {
			stale = append(stale, uid)
		}
	}
	for _, uid := range stale {
		c.lru.Remove(uid)
	}
	return len(stale)
}
