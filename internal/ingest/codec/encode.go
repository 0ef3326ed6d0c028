package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nar-io/telemetry-gateway/internal/errors"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

// maxTimestamp is the largest value that fits the 48-bit wire timestamp.
const maxTimestamp = (1 << 48) - 1

// writer accumulates an outbound payload, mirroring cursor's read-side
// layout so encode(decode(x)) and decode(encode(x)) stay symmetric.
type writer struct {
	buf []byte
}

func (w *writer) deviceID(id types.DeviceID) { w.buf = append(w.buf, id[:]...) }

func (w *writer) timestamp(ts uint64) {
	var full [8]byte
	binary.BigEndian.PutUint64(full[:], ts)
	w.buf = append(w.buf, full[2:]...)
}

func (w *writer) uint8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) uint16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) uint32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) int32(v int32)   { w.uint32(uint32(v)) }
func (w *writer) float32(v float32) { w.uint32(math.Float32bits(v)) }

func (w *writer) name(s string) error {
	if len(s) > 255 {
		return fmt.Errorf("name length %d exceeds 1-byte length prefix", len(s))
	}
	w.uint8(uint8(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

func (w *writer) asciiCode3(s string) error {
	if len(s) != 3 {
		return fmt.Errorf("format code %q must be exactly 3 ASCII bytes", s)
	}
	w.buf = append(w.buf, s...)
	return nil
}

func (w *writer) chunk(data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("chunk length %d overflows uint32", len(data))
	}
	w.uint32(uint32(len(data)))
	w.buf = append(w.buf, data...)
	return nil
}

// precondition validates the shared encoder invariants (spec.md §4.C):
// device id hex length and timestamp width. Non-negative checks on
// individual fields are made per encoder through rejectNegative.
func precondition(op, idHex string, ts uint64) (types.DeviceID, error) {
	id, err := types.ParseDeviceIDHex(idHex)
	if err != nil {
		return id, errors.NewEncoderPreconditionError(op, err)
	}
	if ts > maxTimestamp {
		return id, errors.NewEncoderPreconditionError(op, fmt.Errorf("timestamp %d exceeds 48 bits", ts))
	}
	return id, nil
}

func rejectNegative(op string, name string, v int32) error {
	if v < 0 {
		return errors.NewEncoderPreconditionError(op, fmt.Errorf("%s must not be negative, got %d", name, v))
	}
	return nil
}

// EncodeFIN produces the wire bytes for a device discovery announcement.
func (c *Codec) EncodeFIN(idHex string, ts uint64, name string) ([]byte, error) {
	id, err := precondition("encode:FIN", idHex, ts)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	if err := w.name(name); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:FIN", err)
	}
	return w.buf, nil
}

// EncodeHEA produces the wire bytes for a heartbeat frame.
func (c *Codec) EncodeHEA(idHex string, ts uint64) ([]byte, error) {
	id, err := precondition("encode:HEA", idHex, ts)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	return w.buf, nil
}

// EncodeSTO produces the wire bytes for a stop frame.
func (c *Codec) EncodeSTO(idHex string, ts uint64) ([]byte, error) {
	id, err := precondition("encode:STO", idHex, ts)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	return w.buf, nil
}

// EncodeSEN produces the wire bytes for a sensor registration frame.
func (c *Codec) EncodeSEN(idHex string, ts uint64, name string) ([]byte, error) {
	id, err := precondition("encode:SEN", idHex, ts)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	if err := w.name(name); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:SEN", err)
	}
	return w.buf, nil
}

// EncodeFLO produces the wire bytes for a float32 scalar reading.
func (c *Codec) EncodeFLO(idHex string, ts uint64, uid uint32, v float32) ([]byte, error) {
	id, err := precondition("encode:FLO", idHex, ts)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	w.float32(v)
	return w.buf, nil
}

// EncodeINT produces the wire bytes for an int32 scalar reading.
func (c *Codec) EncodeINT(idHex string, ts uint64, uid uint32, v int32) ([]byte, error) {
	id, err := precondition("encode:INT", idHex, ts)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	w.int32(v)
	return w.buf, nil
}

// EncodeSTR produces the wire bytes for a short UTF-8 scalar reading.
func (c *Codec) EncodeSTR(idHex string, ts uint64, uid uint32, s string) ([]byte, error) {
	id, err := precondition("encode:STR", idHex, ts)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	if err := w.name(s); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:STR", err)
	}
	return w.buf, nil
}

// EncodeFLTInit produces the wire bytes for a long-text stream init frame.
func (c *Codec) EncodeFLTInit(idHex string, ts uint64, uid uint32, streamLength int32) ([]byte, error) {
	id, err := precondition("encode:FLT-init", idHex, ts)
	if err != nil {
		return nil, err
	}
	if err := rejectNegative("encode:FLT-init", "stream_length", streamLength); err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	w.int32(streamLength)
	return w.buf, nil
}

// EncodeFLT produces the wire bytes for one chunk of a long-text stream.
func (c *Codec) EncodeFLT(idHex string, ts uint64, uid uint32, s string, packetIndex int32) ([]byte, error) {
	id, err := precondition("encode:FLT", idHex, ts)
	if err != nil {
		return nil, err
	}
	if err := rejectNegative("encode:FLT", "packet_index", packetIndex); err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	if err := w.name(s); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:FLT", err)
	}
	w.int32(packetIndex)
	return w.buf, nil
}

// EncodeAUDInit produces the wire bytes for an audio stream init frame.
func (c *Codec) EncodeAUDInit(idHex string, ts uint64, uid uint32, format types.AudioFormat, sampleRate int32, bitDepth, channels uint8) ([]byte, error) {
	id, err := precondition("encode:AUD-init", idHex, ts)
	if err != nil {
		return nil, err
	}
	if err := rejectNegative("encode:AUD-init", "sample_rate", sampleRate); err != nil {
		return nil, err
	}
	code, err := audioFormatToCode(format)
	if err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:AUD-init", err)
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	if err := w.asciiCode3(code); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:AUD-init", err)
	}
	w.int32(sampleRate)
	w.uint8(bitDepth)
	w.uint8(channels)
	return w.buf, nil
}

// EncodeAUD produces the wire bytes for one chunk of an audio stream.
func (c *Codec) EncodeAUD(idHex string, ts uint64, uid uint32, chunkBytes []byte, sampleIndex int32) ([]byte, error) {
	id, err := precondition("encode:AUD", idHex, ts)
	if err != nil {
		return nil, err
	}
	if err := rejectNegative("encode:AUD", "sample_index", sampleIndex); err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	if err := w.chunk(chunkBytes); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:AUD", err)
	}
	w.int32(sampleIndex)
	return w.buf, nil
}

// EncodeIMGInit produces the wire bytes for an image stream init frame.
func (c *Codec) EncodeIMGInit(idHex string, ts uint64, uid uint32, format types.ImageFormat, width, height uint16) ([]byte, error) {
	id, err := precondition("encode:IMG-init", idHex, ts)
	if err != nil {
		return nil, err
	}
	code, err := imageFormatToCode(format)
	if err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:IMG-init", err)
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	if err := w.asciiCode3(code); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:IMG-init", err)
	}
	w.uint16(width)
	w.uint16(height)
	return w.buf, nil
}

// EncodeIMG produces the wire bytes for one chunk of an image stream.
func (c *Codec) EncodeIMG(idHex string, ts uint64, uid uint32, chunkBytes []byte, chunkIndex int32) ([]byte, error) {
	id, err := precondition("encode:IMG", idHex, ts)
	if err != nil {
		return nil, err
	}
	if err := rejectNegative("encode:IMG", "chunk_index", chunkIndex); err != nil {
		return nil, err
	}
	w := &writer{}
	w.deviceID(id)
	w.timestamp(ts)
	w.uint32(uid)
	if err := w.chunk(chunkBytes); err != nil {
		return nil, errors.NewEncoderPreconditionError("encode:IMG", err)
	}
	w.int32(chunkIndex)
	return w.buf, nil
}
