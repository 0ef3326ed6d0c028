// Package header parses the fixed 4-byte UDP frame header (spec.md §4.D,
// §6.1) using a fixed-layout parser.
package header

import (
	"fmt"

	"github.com/nar-io/telemetry-gateway/internal/errors"
)

// Size is the fixed header length in bytes.
const Size = 4

// Header is the parsed 4-field dispatch key plus the declared payload
// length. Decoders own their own length checks; Length is advisory only
// (spec.md §4.D).
type Header struct {
	Channel byte
	Port    byte
	Decode  byte
	Length  byte
}

// Parse reads the first 4 bytes of buf as a Header. Datagrams shorter than
// Size are dropped by the caller before Parse is ever invoked; Parse itself
// still guards against it defensively.
func Parse(buf []byte) (Header, error) {
	if len(buf) < Size {
		return Header{}, errors.NewTruncatedError("header.Parse", fmt.Errorf("datagram length %d shorter than %d-byte header", len(buf), Size))
	}
	return Header{
		Channel: buf[0],
		Port:    buf[1],
		Decode:  buf[2],
		Length:  buf[3],
	}, nil
}

// Payload returns the bytes of buf following the fixed header.
func Payload(buf []byte) []byte { return buf[Size:] }
