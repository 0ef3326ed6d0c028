package codec

import "github.com/nar-io/telemetry-gateway/internal/ingest/types"

// DecodeFIN decodes a device discovery announcement (spec.md §6.1). FIN's
// route is the single literal constant "nar/device/find" — unlike every
// other type, it is not parameterized by device id.
func (c *Codec) DecodeFIN(payload []byte, addr string) (*types.StaticEntry, error) {
	cur := newCursor("decode:FIN", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	name, err := cur.name()
	if err != nil {
		return nil, err
	}
	uid := c.registry.UIDFor(id, sensorFind)
	return &types.StaticEntry{
		ID: id, UID: uid, Name: name, Addr: addr, Timestamp: ts,
		Data: name, Route: routeFind, Kind: "static",
	}, nil
}

// DecodeHEA decodes a heartbeat frame.
func (c *Codec) DecodeHEA(payload []byte, addr string) (*types.StaticEntry, error) {
	cur := newCursor("decode:HEA", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid := c.registry.UIDFor(id, sensorHeartbeat)
	return &types.StaticEntry{
		ID: id, UID: uid, Addr: addr, Timestamp: ts,
		Route: routeHeartbeat(id.String()), Kind: "static",
	}, nil
}

// DecodeSTO decodes a device shutdown/stop frame.
func (c *Codec) DecodeSTO(payload []byte, addr string) (*types.StaticEntry, error) {
	cur := newCursor("decode:STO", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid := c.registry.UIDFor(id, sensorStop)
	return &types.StaticEntry{
		ID: id, UID: uid, Addr: addr, Timestamp: ts,
		Route: routeStop(id.String()), Kind: "static",
	}, nil
}

// DecodeSEN decodes a sensor registration frame, minting (or recalling) the
// uid that subsequent FLO/INT/STR/init frames will carry on the wire.
func (c *Codec) DecodeSEN(payload []byte, addr string) (*types.StaticEntry, error) {
	cur := newCursor("decode:SEN", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	name, err := cur.name()
	if err != nil {
		return nil, err
	}
	uid := c.registry.UIDFor(id, name)
	return &types.StaticEntry{
		ID: id, UID: uid, Name: name, Addr: addr, Timestamp: ts,
		Route: routeRegister(id.String()), Kind: "static",
	}, nil
}

// DecodeFLO decodes a float32 scalar reading.
func (c *Codec) DecodeFLO(payload []byte, addr string) (*types.StaticEntry, error) {
	cur := newCursor("decode:FLO", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	v, err := cur.float32()
	if err != nil {
		return nil, err
	}
	return &types.StaticEntry{
		ID: id, UID: uid, Addr: addr, Timestamp: ts,
		Data: v, Route: routeStatic(id.String(), uid), Kind: "static",
	}, nil
}

// DecodeINT decodes an int32 scalar reading.
func (c *Codec) DecodeINT(payload []byte, addr string) (*types.StaticEntry, error) {
	cur := newCursor("decode:INT", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	v, err := cur.int32()
	if err != nil {
		return nil, err
	}
	return &types.StaticEntry{
		ID: id, UID: uid, Addr: addr, Timestamp: ts,
		Data: v, Route: routeStatic(id.String(), uid), Kind: "static",
	}, nil
}

// DecodeSTR decodes a short UTF-8 scalar reading.
func (c *Codec) DecodeSTR(payload []byte, addr string) (*types.StaticEntry, error) {
	cur := newCursor("decode:STR", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	s, err := cur.name() // same 1-byte length prefix layout as name
	if err != nil {
		return nil, err
	}
	return &types.StaticEntry{
		ID: id, UID: uid, Addr: addr, Timestamp: ts,
		Data: s, Route: routeStatic(id.String(), uid), Kind: "static",
	}, nil
}

// DecodeFLTInit decodes a long-text stream initiation frame.
func (c *Codec) DecodeFLTInit(payload []byte, addr string) (*types.StreamDescriptor, error) {
	cur := newCursor("decode:FLT-init", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	streamLength, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	d := newStreamDescriptor(id, uid, "", addr, ts, routeStreamStrInit(id.String(), uid), types.KindFlt, streamLength)
	d.StreamLength = streamLength
	return d, nil
}

// DecodeFLT decodes one chunk of a long-text stream.
func (c *Codec) DecodeFLT(payload []byte, addr string) (*StreamChunk, error) {
	cur := newCursor("decode:FLT", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	if _, err := cur.timestamp(); err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	s, err := cur.name()
	if err != nil {
		return nil, err
	}
	packetIndex, err := cur.int32()
	if err != nil {
		return nil, err
	}
	return &StreamChunk{
		UID: uid, ChunkID: uint32(packetIndex), Data: []byte(s),
		Route: routeStreamStrChunk(id.String(), uid),
	}, nil
}

// DecodeAUDInit decodes an audio stream initiation frame.
func (c *Codec) DecodeAUDInit(payload []byte, addr string) (*types.StreamDescriptor, error) {
	cur := newCursor("decode:AUD-init", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	code, err := cur.asciiCode3()
	if err != nil {
		return nil, err
	}
	sampleRate, err := cur.int32()
	if err != nil {
		return nil, err
	}
	bitDepth, err := cur.uint8()
	if err != nil {
		return nil, err
	}
	channels, err := cur.uint8()
	if err != nil {
		return nil, err
	}
	d := newStreamDescriptor(id, uid, "", addr, ts, routeAudioInit(id.String(), uid), types.KindAud, 0)
	d.AudioFormat = audioFormatFromCode(code)
	d.SampleRate = sampleRate
	d.BitDepth = bitDepth
	d.Channels = channels
	return d, nil
}

// DecodeAUD decodes one chunk of an audio stream.
func (c *Codec) DecodeAUD(payload []byte, addr string) (*StreamChunk, error) {
	cur := newCursor("decode:AUD", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	if _, err := cur.timestamp(); err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	chunkSize, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	data, err := cur.take(int(chunkSize))
	if err != nil {
		return nil, err
	}
	sampleIndex, err := cur.int32()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &StreamChunk{
		UID: uid, ChunkID: uint32(sampleIndex), Data: buf,
		Route: routeAudioChunk(id.String(), uid),
	}, nil
}

// DecodeIMGInit decodes an image stream initiation frame.
func (c *Codec) DecodeIMGInit(payload []byte, addr string) (*types.StreamDescriptor, error) {
	cur := newCursor("decode:IMG-init", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	ts, err := cur.timestamp()
	if err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	code, err := cur.asciiCode3()
	if err != nil {
		return nil, err
	}
	width, err := cur.uint16()
	if err != nil {
		return nil, err
	}
	height, err := cur.uint16()
	if err != nil {
		return nil, err
	}
	d := newStreamDescriptor(id, uid, "", addr, ts, routeImageInit(id.String(), uid), types.KindImg, 0)
	d.Format = imageFormatFromCode(code)
	d.Width = width
	d.Height = height
	return d, nil
}

// DecodeIMG decodes one chunk of an image stream.
func (c *Codec) DecodeIMG(payload []byte, addr string) (*StreamChunk, error) {
	cur := newCursor("decode:IMG", payload)
	id, err := cur.deviceID()
	if err != nil {
		return nil, err
	}
	if _, err := cur.timestamp(); err != nil {
		return nil, err
	}
	uid, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	chunkSize, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	data, err := cur.take(int(chunkSize))
	if err != nil {
		return nil, err
	}
	chunkIndex, err := cur.int32()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &StreamChunk{
		UID: uid, ChunkID: uint32(chunkIndex), Data: buf,
		Route: routeImageChunk(id.String(), uid),
	}, nil
}
