// Package types holds the shared ingest data model (spec.md §3): device
// identifiers, the two cache entry shapes, and the audio/image format
// vocabularies. It has no dependency on the codec, cache, or driver
// packages so any of them can import it without a cycle.
package types

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nar-io/telemetry-gateway/internal/ingest/reassembler"
)

// DeviceID is the 4-byte opaque device identifier carried on every frame,
// rendered on the wire and in routes as lowercase 8-hex (spec.md §3).
type DeviceID [4]byte

// String renders the device id as lowercase 8-hex.
func (id DeviceID) String() string { return hex.EncodeToString(id[:]) }

// ParseDeviceIDHex parses an 8-char lowercase-or-uppercase hex string into a
// DeviceID, as required by the encoder preconditions in spec.md §4.C.
func ParseDeviceIDHex(s string) (DeviceID, error) {
	var id DeviceID
	if len(s) != 8 {
		return id, fmt.Errorf("device id hex must be exactly 8 chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid device id hex %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

// AudioFormat is the decoded audio codec identifier (spec.md §6.2).
type AudioFormat string

// Audio format constants. Any other 3-byte wire code decodes to
// Unknown(<code>) rather than failing (spec.md §4.C).
const (
	AudioPCM AudioFormat = "PCM"
	AudioMP3 AudioFormat = "MP3"
	AudioAAC AudioFormat = "AAC"
)

// ImageFormat is the decoded pixel format identifier (spec.md §6.2). The
// source protocol labels this field both "format" and "formats" in
// different places; this type is the single canonical spelling (spec.md §9).
type ImageFormat string

// Image format constants.
const (
	ImageRGB565      ImageFormat = "RGB565"
	ImageRGB888      ImageFormat = "RGB888"
	ImageGrayscale8  ImageFormat = "Grayscale8"
	ImageBinary1     ImageFormat = "Binary1"
)

// StreamKind distinguishes the three stream descriptor shapes (spec.md §3).
type StreamKind string

const (
	KindFlt StreamKind = "flt"
	KindAud StreamKind = "aud"
	KindImg StreamKind = "img"
)

// StaticEntry is one cached scalar value (spec.md §3). Data holds float32,
// int32, or string depending on which decoder produced the frame; FIN
// frames store the announced device name, while HEA and STO frames (which
// carry no sensor scalar) store nil (see
// DESIGN.md for the dispatch-table resolution of those three as "static"
// flow-class entries with a synthetic per-device uid).
type StaticEntry struct {
	ID        DeviceID
	UID       uint32
	Name      string
	Addr      string
	Timestamp uint64
	Data      any
	Route     string
	Kind      string // always "static"
}

// Size returns the byte cost this entry contributes to the static cache's
// memory accounting (spec.md §4.G).
func (e *StaticEntry) Size() int {
	if e == nil {
		return 0
	}
	switch v := e.Data.(type) {
	case string:
		return len(v)
	case float32, int32:
		return 4
	default:
		return 0
	}
}

// StreamDescriptor is the per-stream record created at init and accumulated
// by subsequent stream frames (spec.md §3). Kind-specific fields are zero
// when not applicable.
type StreamDescriptor struct {
	ID        DeviceID
	UID       uint32
	Name      string
	Addr      string
	Timestamp uint64
	Route     string
	Kind      StreamKind

	// flt
	StreamLength uint32

	// aud
	AudioFormat AudioFormat
	SampleRate  int32
	BitDepth    uint8
	Channels    uint8

	// img — single canonical Format field (spec.md §9).
	Format ImageFormat
	Width  uint16
	Height uint16

	Buffer *reassembler.Reassembler

	// LastTouched is not part of spec.md's data model; it exists solely so
	// the maintenance sweeper (SPEC_FULL.md component N) can judge staleness
	// under node_timeout without affecting LRU eviction, which remains
	// governed purely by access order and byte/entry counts.
	LastTouched time.Time
}

// Size returns the byte cost this descriptor contributes to the stream
// cache's memory accounting: the accumulated reassembler size (spec.md §4.H).
func (d *StreamDescriptor) Size() int {
	if d == nil || d.Buffer == nil {
		return 0
	}
	return d.Buffer.Size()
}

// Done reports whether the underlying reassembler has accepted every
// expected chunk.
func (d *StreamDescriptor) Done() bool {
	if d == nil || d.Buffer == nil {
		return false
	}
	return d.Buffer.Done()
}
