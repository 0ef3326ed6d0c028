// Package dispatch implements the static (channel, port, decode) → decoder
// table (spec.md §4.E): a triple-keyed table closed at process start,
// generalized from a name-keyed command dispatch map to this domain's
// three-field wire key.
package dispatch

import (
	"sync"

	"github.com/nar-io/telemetry-gateway/internal/ingest/codec"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

// FlowClass classifies how a decoded frame is applied to the caches
// (spec.md §2, §4.E).
type FlowClass int

const (
	FlowStatic FlowClass = iota
	FlowInit
	FlowStream
)

func (f FlowClass) String() string {
	switch f {
	case FlowStatic:
		return "static"
	case FlowInit:
		return "init"
	case FlowStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Key is the (channel, port, decode) dispatch triple parsed from a frame
// header.
type Key struct {
	Channel byte
	Port    byte
	Decode  byte
}

// DecodeStaticFn decodes a flow-class-static frame into a scalar cache entry.
type DecodeStaticFn func(payload []byte, addr string) (*types.StaticEntry, error)

// DecodeInitFn decodes a flow-class-init frame into a new stream descriptor.
type DecodeInitFn func(payload []byte, addr string) (*types.StreamDescriptor, error)

// DecodeStreamFn decodes a flow-class-stream frame into a chunk to be
// appended to an existing stream descriptor.
type DecodeStreamFn func(payload []byte, addr string) (*codec.StreamChunk, error)

// Entry is one row of the dispatch table: a flow class plus exactly one of
// the three decode function shapes, matching that class.
type Entry struct {
	Flow         FlowClass
	DecodeStatic DecodeStaticFn
	DecodeInit   DecodeInitFn
	DecodeStream DecodeStreamFn
}

// Table is the closed, process-start-built dispatch table. It is read-only
// after New returns except for the per-key "warned once" bookkeeping on
// unknown-key lookups, which is mutex-guarded.
type Table struct {
	entries map[Key]Entry

	mu     sync.Mutex
	warned map[Key]bool
}

// New builds the full table from the known keys enumerated in spec.md §4.E.
func New(c *codec.Codec) *Table {
	t := &Table{
		entries: map[Key]Entry{
			{0x00, 0x00, 0x00}: {Flow: FlowStatic, DecodeStatic: c.DecodeFIN},
			{0x00, 0x00, 0x01}: {Flow: FlowStatic, DecodeStatic: c.DecodeHEA},
			{0x00, 0x00, 0x02}: {Flow: FlowStatic, DecodeStatic: c.DecodeSTO},
			{0x00, 0x00, 0x03}: {Flow: FlowStatic, DecodeStatic: c.DecodeSEN},

			{0x01, 0x00, 0x10}: {Flow: FlowStatic, DecodeStatic: c.DecodeFLO},
			{0x01, 0x00, 0x11}: {Flow: FlowStatic, DecodeStatic: c.DecodeINT},
			{0x01, 0x00, 0x12}: {Flow: FlowStatic, DecodeStatic: c.DecodeSTR},

			{0x01, 0x00, 0x13}: {Flow: FlowInit, DecodeInit: c.DecodeFLTInit},
			{0x01, 0x00, 0x14}: {Flow: FlowInit, DecodeInit: c.DecodeAUDInit},
			{0x01, 0x00, 0x15}: {Flow: FlowInit, DecodeInit: c.DecodeIMGInit},

			{0x01, 0x01, 0x13}: {Flow: FlowStream, DecodeStream: c.DecodeFLT},
			{0x01, 0x01, 0x14}: {Flow: FlowStream, DecodeStream: c.DecodeAUD},
			{0x01, 0x01, 0x15}: {Flow: FlowStream, DecodeStream: c.DecodeIMG},
		},
		warned: make(map[Key]bool),
	}
	return t
}

// Lookup returns the entry registered for key, if any. The table is closed:
// adding a new (channel, port, decode) triple is a code change, not a
// runtime registration.
func (t *Table) Lookup(k Key) (Entry, bool) {
	e, ok := t.entries[k]
	return e, ok
}

// ShouldWarn reports whether this is the first time key has been seen as an
// unknown dispatch key, so callers warn once per key rather than per
// datagram (spec.md §7).
func (t *Table) ShouldWarn(k Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.warned[k] {
		return false
	}
	t.warned[k] = true
	return true
}
