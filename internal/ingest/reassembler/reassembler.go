// Package reassembler implements the ordered chunk buffer described in
// spec.md §4.F: it accepts a chunk only if its id matches the next expected
// id, never buffers out-of-order arrivals, and exposes a lazy read cursor
// alongside a full-buffer accessor for completed streams.
package reassembler

// DefaultLast is the end-of-stream sentinel used when a stream's init frame
// does not carry an explicit expected chunk count (spec.md §9, end-of-stream
// sentinel reconciliation).
const DefaultLast = 0xFFFF

// Reassembler holds the ordered, append-only chunk buffer for a single
// uid's stream. It is not safe for concurrent use on its own; callers
// (the stream cache) must serialize access externally.
type Reassembler struct {
	expectedNext uint32
	last         uint32
	done         bool

	order  []uint32
	chunks map[uint32][]byte
	size   int

	iterIndex int
}

// New creates a reassembler that completes once expectedNext reaches last.
// If last is zero, DefaultLast is used (spec.md §9).
func New(last uint32) *Reassembler {
	if last == 0 {
		last = DefaultLast
	}
	return &Reassembler{
		last:   last,
		chunks: make(map[uint32][]byte),
	}
}

// AddChunk accepts the chunk only if chunkID == expectedNext. Out-of-order
// chunks are rejected silently, per spec.md §4.F and §9 (no future
// buffering). Returns true if the chunk was accepted.
func (r *Reassembler) AddChunk(chunkID uint32, data []byte) bool {
	if chunkID != r.expectedNext {
		return false
	}
	r.chunks[chunkID] = data
	r.order = append(r.order, chunkID)
	r.size += len(data)
	r.expectedNext++
	r.done = r.expectedNext >= r.last
	return true
}

// Done reports whether expectedNext has reached the stream's terminator.
func (r *Reassembler) Done() bool { return r.done }

// ExpectedNext returns the next chunk id the reassembler will accept.
func (r *Reassembler) ExpectedNext() uint32 { return r.expectedNext }

// Last returns the configured terminator value.
func (r *Reassembler) Last() uint32 { return r.last }

// Size returns the total number of bytes held across all accepted chunks.
func (r *Reassembler) Size() int { return r.size }

// IterIndex exposes the lazy read cursor position, used by tests and the
// maintenance sweeper for introspection.
func (r *Reassembler) IterIndex() int { return r.iterIndex }

// FullBytes concatenates all accepted chunks in insertion order. Valid once
// Done() is true; callers may read it earlier but must treat the result as
// provisional (spec.md §4.F).
func (r *Reassembler) FullBytes() []byte {
	buf := make([]byte, 0, r.size)
	for _, id := range r.order {
		buf = append(buf, r.chunks[id]...)
	}
	return buf
}

// NextChunk advances the lazy read cursor and returns the next chunk. Once
// exhausted it returns (nil, false); after the stream is Done(), the cursor
// resets so the sequence can be read again from the start.
func (r *Reassembler) NextChunk() ([]byte, bool) {
	if r.iterIndex < len(r.order) {
		id := r.order[r.iterIndex]
		r.iterIndex++
		return r.chunks[id], true
	}
	if r.done {
		r.iterIndex = 0
	}
	return nil, false
}

// ResetIterator rewinds the lazy read cursor to the start.
func (r *Reassembler) ResetIterator() { r.iterIndex = 0 }
