package codec

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/nar-io/telemetry-gateway/internal/errors"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

// maxNameLen is the name length above which a non-fatal warning is logged
// (spec.md §4.C); names at or above this length are still accepted.
const maxNameLen = 32

// cursor is a bounds-checked reader over a decoder payload, mirroring the
// `_ptr` idiom of original_source/core/network/udp/packet.py's BaseDecoder.
// Every read fails with errors.TruncatedError the moment it would run past
// the end of the buffer, per spec.md §4.C's "length check" failure mode.
type cursor struct {
	buf []byte
	pos int
	op  string
}

func newCursor(op string, buf []byte) *cursor { return &cursor{buf: buf, pos: 0, op: op} }

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.buf) {
		return errors.NewTruncatedError(c.op, fmt.Errorf("need %d bytes at offset %d, have %d", n, c.pos, len(c.buf)))
	}
	return nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) deviceID() (types.DeviceID, error) {
	var id types.DeviceID
	b, err := c.take(4)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// timestamp reads the 6-byte big-endian wire timestamp, zero-extended to
// 64 bits (spec.md §6.1).
func (c *cursor) timestamp() (uint64, error) {
	b, err := c.take(6)
	if err != nil {
		return 0, err
	}
	var full [8]byte
	copy(full[2:], b)
	return binary.BigEndian.Uint64(full[:]), nil
}

func (c *cursor) uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) int32() (int32, error) {
	v, err := c.uint32()
	return int32(v), err
}

func (c *cursor) float32() (float32, error) {
	v, err := c.uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// name reads a 1-byte length prefix followed by that many bytes of UTF-8.
// Names >= maxNameLen are accepted with a warning (spec.md §4.C).
func (c *cursor) name() (string, error) {
	l, err := c.uint8()
	if err != nil {
		return "", err
	}
	if int(l) >= maxNameLen {
		slog.Default().Warn("decoded name exceeds recommended length", "op", c.op, "length", l)
	}
	b, err := c.take(int(l))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// asciiCode3 reads a fixed 3-byte ASCII format code (audio/image).
func (c *cursor) asciiCode3() (string, error) {
	b, err := c.take(3)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
