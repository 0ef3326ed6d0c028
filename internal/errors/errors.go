package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"
)

// ingestMarker is implemented by every ingest-layer error type so callers can
// classify the whole family with a single errors.As check.
type ingestMarker interface {
	error
	isIngest()
}

// TruncatedError indicates a payload ended before a decoder's declared
// layout was fully consumed.
type TruncatedError struct {
	Op  string // decoder operation, e.g. "decode.flo.value"
	Err error
}

func (e *TruncatedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("truncated payload: %s", e.Op)
	}
	return fmt.Sprintf("truncated payload: %s: %v", e.Op, e.Err)
}
func (e *TruncatedError) Unwrap() error { return e.Err }
func (e *TruncatedError) isIngest()     {}

// UnknownDispatchKeyError indicates a header triple with no registered decoder.
type UnknownDispatchKeyError struct {
	Channel, Port, Decode uint8
}

func (e *UnknownDispatchKeyError) Error() string {
	return fmt.Sprintf("unknown dispatch key: channel=%#02x port=%#02x decode=%#02x", e.Channel, e.Port, e.Decode)
}
func (e *UnknownDispatchKeyError) isIngest() {}

// OutOfOrderChunkError indicates a stream chunk whose chunk_id did not match
// the reassembler's expected_next.
type OutOfOrderChunkError struct {
	UID         uint32
	Got, Expect uint32
}

func (e *OutOfOrderChunkError) Error() string {
	return fmt.Sprintf("out-of-order chunk for uid %d: got %d want %d", e.UID, e.Got, e.Expect)
}
func (e *OutOfOrderChunkError) isIngest() {}

// OrphanStreamChunkError indicates a stream frame arrived with no preceding init.
type OrphanStreamChunkError struct {
	UID uint32
}

func (e *OrphanStreamChunkError) Error() string {
	return fmt.Sprintf("stream chunk for uid %d has no preceding init", e.UID)
}
func (e *OrphanStreamChunkError) isIngest() {}

// CacheOverflowError indicates an entry larger than the cache's max byte
// budget even after evicting everything else.
type CacheOverflowError struct {
	Cache      string // "static" or "stream"
	UID        uint32
	EntryBytes int
	MaxBytes   int
}

func (e *CacheOverflowError) Error() string {
	return fmt.Sprintf("%s cache overflow: uid=%d entry_bytes=%d max_bytes=%d", e.Cache, e.UID, e.EntryBytes, e.MaxBytes)
}
func (e *CacheOverflowError) isIngest() {}

// PortExhaustedError indicates the port pool has no free port to allocate.
type PortExhaustedError struct {
	Op string
}

func (e *PortExhaustedError) Error() string {
	return fmt.Sprintf("port pool exhausted: %s", e.Op)
}
func (e *PortExhaustedError) isIngest() {}

// SocketError is a fatal driver-level socket failure (bind/read/close).
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("socket error: %s", e.Op)
	}
	return fmt.Sprintf("socket error: %s: %v", e.Op, e.Err)
}
func (e *SocketError) Unwrap() error { return e.Err }
func (e *SocketError) isIngest()     {}

// EncoderPreconditionError indicates an encoder call violated one of its
// preconditions (wrong id length, oversize int, negative unsigned, etc).
type EncoderPreconditionError struct {
	Op  string
	Err error
}

func (e *EncoderPreconditionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("encoder precondition violated: %s", e.Op)
	}
	return fmt.Sprintf("encoder precondition violated: %s: %v", e.Op, e.Err)
}
func (e *EncoderPreconditionError) Unwrap() error { return e.Err }
func (e *EncoderPreconditionError) isIngest()     {}

// TimeoutError indicates an operation exceeded a deadline or idle timeout.
type TimeoutError struct {
	Op       string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (after %s)", e.Op, e.Duration)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout returns true if err is (or wraps) a TimeoutError, a context
// deadline-exceeded error, or any error exposing Timeout() bool == true.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if stdErrors.As(err, &te) {
		return true
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var toErr interface{ Timeout() bool }
	if stdErrors.As(err, &toErr) && toErr.Timeout() {
		return true
	}
	return false
}

// IsIngestError returns true if the error chain contains any ingest-layer
// error (Truncated, UnknownDispatchKey, OutOfOrderChunk, OrphanStreamChunk,
// CacheOverflow, PortExhausted, Socket, EncoderPrecondition).
func IsIngestError(err error) bool {
	if err == nil {
		return false
	}
	var im ingestMarker
	return stdErrors.As(err, &im)
}

// Constructors. Callers are expected to layer additional context with
// fmt.Errorf("...: %w", err) as the error travels up the stack.
func NewTruncatedError(op string, cause error) error { return &TruncatedError{Op: op, Err: cause} }

func NewUnknownDispatchKeyError(channel, port, decode uint8) error {
	return &UnknownDispatchKeyError{Channel: channel, Port: port, Decode: decode}
}

func NewOutOfOrderChunkError(uid, got, expect uint32) error {
	return &OutOfOrderChunkError{UID: uid, Got: got, Expect: expect}
}

func NewOrphanStreamChunkError(uid uint32) error { return &OrphanStreamChunkError{UID: uid} }

func NewCacheOverflowError(cache string, uid uint32, entryBytes, maxBytes int) error {
	return &CacheOverflowError{Cache: cache, UID: uid, EntryBytes: entryBytes, MaxBytes: maxBytes}
}

func NewPortExhaustedError(op string) error { return &PortExhaustedError{Op: op} }

func NewSocketError(op string, cause error) error { return &SocketError{Op: op, Err: cause} }

func NewEncoderPreconditionError(op string, cause error) error {
	return &EncoderPreconditionError{Op: op, Err: cause}
}

func NewTimeoutError(op string, d time.Duration, cause error) error {
	return &TimeoutError{Op: op, Duration: d, Err: cause}
}

// Usage pattern example:
//  if n < want {
//      return NewTruncatedError("decode.flo.value", fmt.Errorf("need %d bytes, have %d", want, n))
//  }
// Keep layering context with fmt.Errorf("...: %w", err).
