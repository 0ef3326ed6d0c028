package driver

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/nar-io/telemetry-gateway/internal/ingest/codec"
	"github.com/nar-io/telemetry-gateway/internal/ingest/dispatch"
	"github.com/nar-io/telemetry-gateway/internal/ingest/hooks"
	"github.com/nar-io/telemetry-gateway/internal/ingest/header"
	"github.com/nar-io/telemetry-gateway/internal/ingest/portpool"
	"github.com/nar-io/telemetry-gateway/internal/ingest/uidregistry"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	pool := portpool.New()
	pool.Register(30000, 31000)

	reg := uidregistry.New()
	c := codec.New(reg)
	table := dispatch.New(c)

	d, err := New("udp_driver_test", "127.0.0.1", pool, c, table, hooks.NewLogNotifier(nil), Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func frame(channel, port, decode byte, payload []byte) []byte {
	buf := make([]byte, header.Size+len(payload))
	buf[0], buf[1], buf[2], buf[3] = channel, port, decode, byte(len(payload))
	copy(buf[header.Size:], payload)
	return buf
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDriverStartsInRunningState(t *testing.T) {
	d := newTestDriver(t)
	if d.State() != StateStarting {
		t.Fatalf("State() before Start() = %v, want Starting", d.State())
	}
	d.Start()
	if d.State() != StateRunning {
		t.Fatalf("State() after Start() = %v, want Running", d.State())
	}
}

// TestDriverFINFrameReachesStaticCache exercises the full receive path: a
// real UDP datagram, header parse, dispatch lookup, codec decode, and the
// flow-class-static cache write (spec.md §4.I step 2).
func TestDriverFINFrameReachesStaticCache(t *testing.T) {
	d := newTestDriver(t)
	d.Start()

	payload, err := d.codec.EncodeFIN("deadbeef", 1000, "my-device")
	if err != nil {
		t.Fatalf("EncodeFIN() error = %v", err)
	}
	datagram := frame(0x00, 0x00, 0x00, payload)

	conn, err := net.Dial("udp", net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(datagram); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	waitFor(t, func() bool { return d.StaticCache().Len() > 0 })

	snap := d.StaticCache().Snapshot()
	if len(snap) != 1 {
		t.Fatalf("len(snapshot) = %d, want 1", len(snap))
	}
	for _, entry := range snap {
		if entry.Data != "my-device" {
			t.Fatalf("entry.Data = %v, want %q", entry.Data, "my-device")
		}
	}
}

// TestDriverShortDatagramDropped asserts a datagram shorter than the fixed
// header is silently dropped and the receive loop keeps running.
func TestDriverShortDatagramDropped(t *testing.T) {
	d := newTestDriver(t)
	d.Start()

	conn, err := net.Dial("udp", net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Follow up with a valid FIN frame; if the short datagram had wedged the
	// loop this would never arrive.
	payload, _ := d.codec.EncodeFIN("cafebabe", 1, "still-alive")
	if _, err := conn.Write(frame(0x00, 0x00, 0x00, payload)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	waitFor(t, func() bool { return d.StaticCache().Len() > 0 })
}

func TestDriverStopReleasesPort(t *testing.T) {
	d := newTestDriver(t)
	d.Start()
	port := d.Port
	d.Stop()
	if d.State() != StateStopped {
		t.Fatalf("State() after Stop() = %v, want Stopped", d.State())
	}

	reacquired, err := d.pool.Allocate()
	if err != nil {
		t.Fatalf("Allocate() after Stop() error = %v", err)
	}
	defer d.pool.Release(reacquired)
	if reacquired != port {
		t.Fatalf("port %d was not released back to the pool", port)
	}

	// Calling Stop twice must not panic.
	d.Stop()
}

