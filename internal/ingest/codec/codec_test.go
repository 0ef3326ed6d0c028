package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/nar-io/telemetry-gateway/internal/errors"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
	"github.com/nar-io/telemetry-gateway/internal/ingest/uidregistry"
)

func newCodec() *Codec { return New(uidregistry.New()) }

// TestFINRoundTripLiteral exercises the exact byte sequence from the
// FIN scenario: id="01020304", ts=1000, name="dev".
func TestFINRoundTripLiteral(t *testing.T) {
	c := newCodec()
	wire, err := c.EncodeFIN("01020304", 1000, "dev")
	require.NoError(t, err)

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00, 0x03, 0xE8, 0x03, 0x64, 0x65, 0x76}
	assert.Equal(t, want, wire)

	entry, err := c.DecodeFIN(wire, "10.0.0.5:9000")
	require.NoError(t, err)
	assert.Equal(t, "01020304", entry.ID.String())
	assert.Equal(t, uint64(1000), entry.Timestamp)
	assert.Equal(t, "dev", entry.Name)
	assert.Equal(t, routeFind, entry.Route)
	assert.Equal(t, "nar/device/find", entry.Route)
}

func TestHEASTORoundTrip(t *testing.T) {
	c := newCodec()

	hea, err := c.EncodeHEA("0a0b0c0d", 42)
	require.NoError(t, err)
	heaEntry, err := c.DecodeHEA(hea, "addr")
	require.NoError(t, err)
	assert.Equal(t, "nar/device/0a0b0c0d/heartbeat", heaEntry.Route)

	sto, err := c.EncodeSTO("0a0b0c0d", 42)
	require.NoError(t, err)
	stoEntry, err := c.DecodeSTO(sto, "addr")
	require.NoError(t, err)
	assert.Equal(t, "nar/device/0a0b0c0d/stop", stoEntry.Route)
}

func TestSENAssignsUIDConsumedByFLO(t *testing.T) {
	c := newCodec()

	sen, err := c.EncodeSEN("aabbccdd", 1, "temp")
	require.NoError(t, err)
	senEntry, err := c.DecodeSEN(sen, "addr")
	require.NoError(t, err)
	assert.Equal(t, "nar/device/aabbccdd/register", senEntry.Route)

	flo, err := c.EncodeFLO("aabbccdd", 2, senEntry.UID, 3.5)
	require.NoError(t, err)
	floEntry, err := c.DecodeFLO(flo, "addr")
	require.NoError(t, err)
	assert.Equal(t, senEntry.UID, floEntry.UID)
	assert.InDelta(t, float32(3.5), floEntry.Data.(float32), 0.0001)
	assert.Equal(t, "nar/device/aabbccdd/1/static", floEntry.Route)
}

func TestINTAndSTRRoundTrip(t *testing.T) {
	c := newCodec()

	intWire, err := c.EncodeINT("11112222", 5, 77, -12345)
	require.NoError(t, err)
	intEntry, err := c.DecodeINT(intWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, int32(-12345), intEntry.Data.(int32))

	strWire, err := c.EncodeSTR("11112222", 5, 77, "hello world")
	require.NoError(t, err)
	strEntry, err := c.DecodeSTR(strWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, "hello world", strEntry.Data.(string))
}

func TestFLTStreamRoundTrip(t *testing.T) {
	c := newCodec()

	initWire, err := c.EncodeFLTInit("deadbeef", 10, 99, 3)
	require.NoError(t, err)
	desc, err := c.DecodeFLTInit(initWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, types.KindFlt, desc.Kind)
	assert.Equal(t, uint32(3), desc.StreamLength)
	assert.Equal(t, "nar/device/deadbeef/99/streamstr", desc.Route)

	chunkWire, err := c.EncodeFLT("deadbeef", 11, 99, "abc", 0)
	require.NoError(t, err)
	chunk, err := c.DecodeFLT(chunkWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, uint32(99), chunk.UID)
	assert.Equal(t, uint32(0), chunk.ChunkID)
	assert.Equal(t, []byte("abc"), chunk.Data)
	assert.Equal(t, "nar/device/deadbeef/99/streamstr/chunk", chunk.Route)
}

func TestAUDStreamRoundTrip(t *testing.T) {
	c := newCodec()

	initWire, err := c.EncodeAUDInit("cafebabe", 1, 5, types.AudioPCM, 44100, 16, 2)
	require.NoError(t, err)
	desc, err := c.DecodeAUDInit(initWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, types.AudioPCM, desc.AudioFormat)
	assert.Equal(t, int32(44100), desc.SampleRate)
	assert.Equal(t, uint8(16), desc.BitDepth)
	assert.Equal(t, uint8(2), desc.Channels)

	chunkWire, err := c.EncodeAUD("cafebabe", 2, 5, []byte{1, 2, 3, 4}, 7)
	require.NoError(t, err)
	chunk, err := c.DecodeAUD(chunkWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), chunk.ChunkID)
	assert.Equal(t, []byte{1, 2, 3, 4}, chunk.Data)
}

func TestIMGStreamRoundTrip(t *testing.T) {
	c := newCodec()

	initWire, err := c.EncodeIMGInit("01010101", 1, 6, types.ImageRGB565, 320, 240)
	require.NoError(t, err)
	desc, err := c.DecodeIMGInit(initWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, types.ImageRGB565, desc.Format)
	assert.Equal(t, uint16(320), desc.Width)
	assert.Equal(t, uint16(240), desc.Height)

	chunkWire, err := c.EncodeIMG("01010101", 2, 6, []byte{9, 9}, 2)
	require.NoError(t, err)
	chunk, err := c.DecodeIMG(chunkWire, "addr")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), chunk.ChunkID)
	assert.Equal(t, []byte{9, 9}, chunk.Data)
}

func TestUnknownFormatCodeDecodesAsUnknown(t *testing.T) {
	c := newCodec()
	wire, err := c.EncodeAUDInit("01020304", 1, 1, types.AudioFormat("Unknown(XYZ)"), 8000, 8, 1)
	require.NoError(t, err)
	desc, err := c.DecodeAUDInit(wire, "addr")
	require.NoError(t, err)
	assert.Equal(t, types.AudioFormat("Unknown(XYZ)"), desc.AudioFormat)

	// Round-trips back through the encoder by recovering the original code.
	again, err := c.EncodeAUDInit("01020304", 1, 1, desc.AudioFormat, 8000, 8, 1)
	require.NoError(t, err)
	assert.Equal(t, wire, again)
}

func TestTruncatedPayloadIsDropped(t *testing.T) {
	c := newCodec()
	full, err := c.EncodeHEA("01020304", 5)
	require.NoError(t, err)

	// One byte short of its declared layout must yield Truncated, not a
	// partial decode.
	_, err = c.DecodeHEA(full[:len(full)-1], "addr")
	require.Error(t, err)
	assert.True(t, ierrors.IsIngestError(err))
}

func TestDatagramShorterThanDeviceIDIsTruncated(t *testing.T) {
	c := newCodec()
	_, err := c.DecodeHEA([]byte{0x01, 0x02}, "addr")
	require.Error(t, err)
}

func TestNameBoundaryLengths(t *testing.T) {
	c := newCodec()

	for _, n := range []int{0, 32, 255} {
		name := strings.Repeat("x", n)
		wire, err := c.EncodeFIN("01020304", 1, name)
		require.NoError(t, err)
		entry, err := c.DecodeFIN(wire, "addr")
		require.NoError(t, err)
		assert.Equal(t, name, entry.Name)
	}
}

func TestEncodePreconditionRejectsBadDeviceIDHex(t *testing.T) {
	c := newCodec()
	_, err := c.EncodeHEA("short", 1)
	require.Error(t, err)
	assert.True(t, ierrors.IsIngestError(err))
}

func TestEncodePreconditionRejectsOversizeTimestamp(t *testing.T) {
	c := newCodec()
	_, err := c.EncodeHEA("01020304", uint64(1)<<48)
	require.Error(t, err)
}

func TestEncodePreconditionRejectsNegativeUnsigned(t *testing.T) {
	c := newCodec()
	_, err := c.EncodeFLTInit("01020304", 1, 1, -1)
	require.Error(t, err)
}
