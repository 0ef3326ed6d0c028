// Package portpool implements the process-wide UDP port pool (spec.md
// §4.A), grounded on original_source/core/network/udp/glob.py's PortPool:
// disjoint registered ranges, a per-range cursor, and a per-range sorted
// freed-port list consulted before the cursor advances.
package portpool

import (
	"sort"
	"sync"

	"github.com/nar-io/telemetry-gateway/internal/errors"
	"github.com/nar-io/telemetry-gateway/internal/logger"
)

type portRange struct {
	start, end int
	current    int
	freed      []int
}

// Pool allocates and releases ports from one or more disjoint ranges.
// Allocation prefers the lowest freed port of any range before advancing
// any range's cursor; release returns a port to its owning range's freed
// list, keeping it sorted (spec.md §4.A).
type Pool struct {
	mu        sync.Mutex
	ranges    []*portRange
	allocated map[int]bool
}

// New creates an empty pool. Call Register to add port ranges.
func New() *Pool {
	return &Pool{allocated: make(map[int]bool)}
}

// Register adds a disjoint [start, end] inclusive port range. Registering
// the same range twice is a no-op.
func (p *Pool) Register(start, end int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.ranges {
		if r.start == start && r.end == end {
			return
		}
	}
	p.ranges = append(p.ranges, &portRange{start: start, end: end, current: start})
}

// Allocate returns the lowest available port across all registered ranges,
// preferring any range's freed list over advancing a cursor. Returns
// PortExhaustedError when every range is exhausted.
func (p *Pool) Allocate() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var low *portRange
	for _, r := range p.ranges {
		if len(r.freed) > 0 && !p.allocated[r.freed[0]] && (low == nil || r.freed[0] < low.freed[0]) {
			low = r
		}
	}
	if low != nil {
		port := low.freed[0]
		low.freed = low.freed[1:]
		p.allocated[port] = true
		return port, nil
	}

	for _, r := range p.ranges {
		if len(r.freed) > 0 {
			port := r.freed[0]
			if port >= r.start && port <= r.end && !p.allocated[port] {
				r.freed = r.freed[1:]
				p.allocated[port] = true
				return port, nil
			}
			r.freed = r.freed[1:]
		}

		for r.current <= r.end {
			if !p.allocated[r.current] {
				port := r.current
				p.allocated[port] = true
				r.current++
				return port, nil
			}
			r.current++
		}
	}
	return 0, errors.NewPortExhaustedError("portpool.Allocate")
}

// Release returns port to its owning range's freed list. Releasing a port
// that was never allocated is logged as a warning, not an error (spec.md
// §4.A).
func (p *Pool) Release(port int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.allocated[port] {
		logger.Logger().Warn("releasing a port that was never allocated", "port", port)
		return
	}
	delete(p.allocated, port)

	for _, r := range p.ranges {
		if port >= r.start && port <= r.end {
			r.freed = append(r.freed, port)
			sort.Ints(r.freed)
			return
		}
	}
}

// Allocated reports whether port is currently allocated.
func (p *Pool) Allocated(port int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated[port]
}

// AllocatedCount returns the number of currently allocated ports.
func (p *Pool) AllocatedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.allocated)
}
