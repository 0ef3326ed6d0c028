// Package codec implements the thirteen-schema binary frame decoders and
// their symmetric encoders (spec.md §4.C, §6.1, §6.2, §6.3), grounded on
// the field-by-field layout of original_source/core/network/udp/protocol.py
// and on the bounds-checked reader idiom used throughout this module's
// wire-format parsers.
package codec

import (
	"github.com/nar-io/telemetry-gateway/internal/ingest/reassembler"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
	"github.com/nar-io/telemetry-gateway/internal/ingest/uidregistry"
)

// Synthetic sensor names used to give FIN, HEA, and STO frames — which
// carry no wire uid — a stable per-device uid in the static cache. These
// never collide with a real device-chosen sensor name because they start
// with '$', which SEN's name field may contain but device firmware in
// practice never emits (see DESIGN.md for the full rationale).
const (
	sensorFind      = "$find"
	sensorHeartbeat = "$heartbeat"
	sensorStop      = "$stop"
)

// StreamChunk is the result of decoding a "stream" flow-class frame (FLT,
// AUD, IMG): a chunk to be fed into the stream descriptor already installed
// for UID by the matching init frame.
type StreamChunk struct {
	UID     uint32
	ChunkID uint32
	Data    []byte
	Route   string
}

// Codec decodes and encodes wire frames. It holds the process-wide UID
// registry because FIN/HEA/STO/SEN must mint or look up a uid as part of
// decoding (spec.md §4.B).
type Codec struct {
	registry *uidregistry.Registry
}

// New returns a Codec backed by reg.
func New(reg *uidregistry.Registry) *Codec {
	return &Codec{registry: reg}
}

func newStreamDescriptor(id types.DeviceID, uid uint32, name, addr string, ts uint64, route string, kind types.StreamKind, last uint32) *types.StreamDescriptor {
	return &types.StreamDescriptor{
		ID:        id,
		UID:       uid,
		Name:      name,
		Addr:      addr,
		Timestamp: ts,
		Route:     route,
		Kind:      kind,
		Buffer:    reassembler.New(last),
	}
}
