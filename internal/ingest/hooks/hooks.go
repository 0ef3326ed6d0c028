// Package hooks defines the narrow interfaces that decouple the UDP ingest
// core from the collaborators spec.md §1 treats as external (the HTTP
// surface, the MQTT republisher, and the image-transcode helper) —
// SPEC_FULL.md component M: a handful of single-purpose interfaces
// instead of one typed event bus, since this domain only has one event
// shape (a route plus its decoded payload) rather than a dozen distinct
// lifecycle event types.
package hooks

import (
	"log/slog"

	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

// RouteNotifier is called by the UDP driver after every successful cache
// write (static put, stream init, or chunk accept), carrying the route
// string a decoded frame produced (spec.md §6.3). This is the seam an MQTT
// republisher subscribes through.
type RouteNotifier interface {
	Notify(route string, payload any)
}

// SnapshotReader is the read API surface of spec.md §6.5, implemented by
// the Driver Manager against whichever driver is currently selected.
type SnapshotReader interface {
	Static() map[uint32]types.StaticEntry
	Stream() map[uint32]types.StreamDescriptor
}

// ImageDecoder is the seam for the pixel-format transcoding collaborator
// of spec.md §4.K (component K). Real transcoding — e.g. 16-bit packed to
// 24-bit RGB — is out of scope; this repo ships only a passthrough stub.
type ImageDecoder interface {
	Decode(desc types.StreamDescriptor, full []byte) (any, error)
}

// LogNotifier is the default RouteNotifier: it logs the route at debug
// level and otherwise does nothing. A real MQTT republisher would replace
// this with a subscriber that actually publishes to a broker.
type LogNotifier struct {
	Log *slog.Logger
}

// NewLogNotifier returns a LogNotifier writing through log.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{Log: log}
}

// Notify logs the route and the kind of payload (static, stream_init or
// stream_chunk); the payload's contents are not logged.
func (n *LogNotifier) Notify(route string, payload any) {
	n.Log.Debug("route notify", "route", route, "payload_type", payloadType(payload))
}

func payloadType(payload any) string {
	switch payload.(type) {
	case *types.StaticEntry:
		return "static"
	case *types.StreamDescriptor:
		return "stream_init"
	default:
		return "stream_chunk"
	}
}

// PassthroughImageDecoder returns the completed stream's raw bytes
// unchanged. Real pixel-format transcoding (spec.md §1, component K) lives
// outside this repo's scope; this stub exists only so the seam is
// exercised end to end.
type PassthroughImageDecoder struct{}

// Decode returns full unmodified.
func (PassthroughImageDecoder) Decode(_ types.StreamDescriptor, full []byte) (any, error) {
	return full, nil
}
