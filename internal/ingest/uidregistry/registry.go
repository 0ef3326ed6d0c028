// Package uidregistry implements the process-wide (device_id, name) → uid
// assignment table (spec.md §4.B), using a fast-path/double-check RWMutex
// pattern.
package uidregistry

import (
	"sync"

	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

type key struct {
	id   types.DeviceID
	name string
}

// Registry assigns a monotonically increasing uid to each distinct
// (device_id, name) pair, stable for the life of the process (spec.md
// invariant 6).
type Registry struct {
	mu   sync.RWMutex
	next uint32
	ids  map[key]uint32
}

// New returns an empty registry. uid assignment starts at 1 so 0 can be
// used by callers as a sentinel "no uid."
func New() *Registry {
	return &Registry{ids: make(map[key]uint32), next: 1}
}

// UIDFor returns the uid for (id, name), assigning a fresh one on first
// use. Repeated calls with the same pair always return the same value.
func (r *Registry) UIDFor(id types.DeviceID, name string) uint32 {
	k := key{id: id, name: name}

	r.mu.RLock()
	if uid, ok := r.ids[k]; ok {
		r.mu.RUnlock()
		return uid
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if uid, ok := r.ids[k]; ok {
		return uid
	}
	uid := r.next
	r.next++
	r.ids[k] = uid
	return uid
}

// Len reports the number of distinct (id, name) pairs assigned so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
