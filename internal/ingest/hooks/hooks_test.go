package hooks

import (
	"testing"

	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

func TestPayloadTypeClassifiesEachShape(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		want    string
	}{
		{"static", &types.StaticEntry{}, "static"},
		{"stream_init", &types.StreamDescriptor{}, "stream_init"},
		{"stream_chunk", struct{}{}, "stream_chunk"},
	}
	for _, tc := range cases {
		if got := payloadType(tc.payload); got != tc.want {
			t.Errorf("%s: payloadType() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLogNotifierNotifyDoesNotPanicOnNilLogger(t *testing.T) {
	n := NewLogNotifier(nil)
	n.Notify("nar/device/find", &types.StaticEntry{})
}

func TestPassthroughImageDecoderReturnsInputUnchanged(t *testing.T) {
	var dec PassthroughImageDecoder
	full := []byte{1, 2, 3}
	got, err := dec.Decode(types.StreamDescriptor{}, full)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	b, ok := got.([]byte)
	if !ok {
		t.Fatalf("Decode() returned %T, want []byte", got)
	}
	if len(b) != len(full) || b[0] != 1 {
		t.Fatalf("Decode() = %v, want %v", b, full)
	}
}
