// Package driver implements the UDP Driver (spec.md §4.I, component I):
// a single socket owner that reads datagrams, drives header parsing →
// dispatch → codec decode → cache write, and exposes the
// Starting→Running→Stopping→Stopped lifecycle spec.md §4.I names.
//
// It pairs an explicit lifecycle struct with a context-cancellable
// receive goroutine, real net.ListenUDP/ReadFromUDP socket handling with
// pooled receive buffers, and a decode-offload submission path whose
// Stop() deliberately does not wait for in-flight work to finish.
package driver

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nar-io/telemetry-gateway/internal/bufpool"
	"github.com/nar-io/telemetry-gateway/internal/errors"
	"github.com/nar-io/telemetry-gateway/internal/ingest/cache"
	"github.com/nar-io/telemetry-gateway/internal/ingest/codec"
	"github.com/nar-io/telemetry-gateway/internal/ingest/dispatch"
	"github.com/nar-io/telemetry-gateway/internal/ingest/header"
	"github.com/nar-io/telemetry-gateway/internal/ingest/hooks"
	"github.com/nar-io/telemetry-gateway/internal/ingest/portpool"
	"github.com/nar-io/telemetry-gateway/internal/logger"
)

// State is one of the four lifecycle states spec.md §4.I names. Receive
// errors never transition state; only Stop (or a fatal socket error) moves
// a driver from Running to Stopping.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds the per-driver tunables from spec.md §6.4 that are not
// process-wide (port pool ranges and the UID registry are shared across
// every driver via the Manager).
type Config struct {
	BufferSize int
	MaxWorkers int
	QueueSize  int

	StaticCacheEntries int
	StaticCacheBytes   int
	StreamCacheEntries int
	StreamCacheBytes   int
}

// Driver owns one UDP socket and the static/stream cache pair fed by it
// (spec.md §4.I).
type Driver struct {
	ID   string
	IP   string
	Port int

	conn     *net.UDPConn
	pool     *portpool.Pool
	codec    *codec.Codec
	table    *dispatch.Table
	notifier hooks.RouteNotifier
	log      *slog.Logger

	bufferSize int
	sem        chan struct{}
	limiter    *rate.Limiter

	staticCache *cache.StaticCache
	streamCache *cache.StreamCache

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup
}

// New allocates a port from pool, binds a UDP socket on ip, and returns a
// Driver in the Starting state. The caller must call Start to begin the
// receive loop.
func New(id, ip string, pool *portpool.Pool, c *codec.Codec, table *dispatch.Table, notifier hooks.RouteNotifier, cfg Config) (*Driver, error) {
	port, err := pool.Allocate()
	if err != nil {
		return nil, err
	}

	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		pool.Release(port)
		return nil, errors.NewSocketError("driver.bind", fmt.Errorf("listen on %s:%d: %w", ip, port, err))
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if notifier == nil {
		notifier = hooks.NewLogNotifier(logger.Logger())
	}

	d := &Driver{
		ID:          id,
		IP:          ip,
		Port:        port,
		conn:        conn,
		pool:        pool,
		codec:       c,
		table:       table,
		notifier:    notifier,
		log:         logger.WithDriver(logger.Logger(), id, addr.String()),
		bufferSize:  cfg.BufferSize,
		sem:         make(chan struct{}, cfg.MaxWorkers),
		limiter:     rate.NewLimiter(rate.Limit(cfg.QueueSize), cfg.QueueSize),
		staticCache: cache.NewStatic(orDefault(cfg.StaticCacheEntries, cache.DefaultStaticEntries), orDefault(cfg.StaticCacheBytes, cache.DefaultStaticBytes)),
		streamCache: cache.NewStream(orDefault(cfg.StreamCacheEntries, cache.DefaultStreamEntries), orDefault(cfg.StreamCacheBytes, cache.DefaultStreamBytes)),
		state:       StateStarting,
	}
	return d, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// StaticCache returns the driver's static scalar cache.
func (d *Driver) StaticCache() *cache.StaticCache { return d.staticCache }

// StreamCache returns the driver's stream descriptor cache.
func (d *Driver) StreamCache() *cache.StreamCache { return d.streamCache }

// Start transitions the driver to Running and begins the receive loop.
func (d *Driver) Start() {
	d.mu.Lock()
	d.state = StateRunning
	d.mu.Unlock()

	d.log.Info("udp driver started")
	d.wg.Add(1)
	go d.receiveLoop()
}

// receiveLoop is the driver's single logical reader (spec.md §4.I, §5):
// recvfrom and worker submission (waiting for a free worker slot) are its
// only suspension points; it never waits for a decode to finish, except
// when submit decodes inline after the rate limiter's burst is spent.
// A fatal read error transitions the driver to
// Stopping; any other error is logged and the loop continues.
func (d *Driver) receiveLoop() {
	defer d.wg.Done()
	buf := make([]byte, d.bufferSize)
	for {
		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			if d.State() == StateStopping || d.State() == StateStopped {
				return
			}
			d.log.Error("udp read failed, stopping driver", "error", err)
			d.transitionStopping()
			return
		}
		if n < header.Size {
			d.log.Debug("dropping datagram shorter than header", "length", n)
			continue
		}

		data := bufpool.Get(n)
		copy(data, buf[:n])
		d.submit(data, addr.String())
	}
}

// submit hands a datagram to a decode worker. Decoding runs off the
// receive loop so a single slow decode cannot stall it; cache writes may
// therefore complete out of send order across datagrams, which is
// acceptable because stream correctness is enforced by chunk_id, not
// arrival order (spec.md §4.I, §5).
//
// Submission additionally passes through a rate limiter sized from
// queue_size (SPEC_FULL.md §5): once its burst is exhausted, further
// datagrams are decoded synchronously on the receive loop instead of
// spawning another goroutine, bounding how many decode goroutines fan out
// at once without ever dropping a datagram for rate reasons alone.
func (d *Driver) submit(data []byte, addr string) {
	if d.limiter.Allow() {
		d.sem <- struct{}{}
		go func() {
			defer func() {
				<-d.sem
				bufpool.Put(data)
			}()
			d.decodeAndDispatch(data, addr)
		}()
		return
	}
	defer bufpool.Put(data)
	d.decodeAndDispatch(data, addr)
}

// decodeAndDispatch runs header parsing, dispatch lookup, codec decode,
// and the flow-class cache write for one datagram (spec.md §4.I step 2).
// Every error is recovered locally: log and drop, per spec.md §7.
func (d *Driver) decodeAndDispatch(data []byte, addr string) {
	h, err := header.Parse(data)
	if err != nil {
		d.log.Debug("dropping datagram with unparsable header", "error", err)
		return
	}
	payload := header.Payload(data)
	key := dispatch.Key{Channel: h.Channel, Port: h.Port, Decode: h.Decode}

	entry, ok := d.table.Lookup(key)
	if !ok {
		if d.table.ShouldWarn(key) {
			d.log.Warn("unknown dispatch key", "channel", h.Channel, "port", h.Port, "decode", h.Decode)
		}
		return
	}

	switch entry.Flow {
	case dispatch.FlowStatic:
		d.handleStatic(entry, payload, addr)
	case dispatch.FlowInit:
		d.handleInit(entry, payload, addr)
	case dispatch.FlowStream:
		d.handleStream(entry, payload, addr)
	}
}

func (d *Driver) handleStatic(entry dispatch.Entry, payload []byte, addr string) {
	se, err := entry.DecodeStatic(payload, addr)
	if err != nil {
		d.log.Debug("static decode failed", "error", err)
		return
	}
	if err := d.staticCache.Put(se); err != nil {
		d.log.Debug("static cache overflow, dropping frame", "uid", se.UID, "error", err)
		return
	}
	d.notifier.Notify(se.Route, se)
}

func (d *Driver) handleInit(entry dispatch.Entry, payload []byte, addr string) {
	sd, err := entry.DecodeInit(payload, addr)
	if err != nil {
		d.log.Debug("stream init decode failed", "error", err)
		return
	}
	sd.LastTouched = time.Now()
	if err := d.streamCache.InitStream(sd); err != nil {
		d.log.Debug("stream cache overflow on init, dropping frame", "uid", sd.UID, "error", err)
		return
	}
	d.notifier.Notify(sd.Route, sd)
}

func (d *Driver) handleStream(entry dispatch.Entry, payload []byte, addr string) {
	chunk, err := entry.DecodeStream(payload, addr)
	if err != nil {
		d.log.Debug("stream chunk decode failed", "error", err)
		return
	}
	accepted, err := d.streamCache.AddChunk(chunk.UID, chunk.ChunkID, chunk.Data)
	if err != nil {
		d.log.Debug("stream chunk rejected", "uid", chunk.UID, "error", err)
		return
	}
	if !accepted {
		d.log.Debug("out-of-order chunk dropped", "uid", chunk.UID, "chunk_id", chunk.ChunkID)
		return
	}
	d.notifier.Notify(chunk.Route, chunk)
}

func (d *Driver) transitionStopping() {
	d.mu.Lock()
	if d.state == StateStopping || d.state == StateStopped {
		d.mu.Unlock()
		return
	}
	d.state = StateStopping
	d.mu.Unlock()
	_ = d.conn.Close()
	d.pool.Release(d.Port)
	d.mu.Lock()
	d.state = StateStopped
	d.mu.Unlock()
}

// Stop transitions the driver through Stopping to Stopped: it closes the
// socket and releases the port immediately, without waiting for in-flight
// decode tasks to finish (spec.md §4.I step 3). It is safe to call more
// than once.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.state == StateStopping || d.state == StateStopped {
		d.mu.Unlock()
		return
	}
	d.state = StateStopping
	d.mu.Unlock()

	_ = d.conn.Close()
	d.pool.Release(d.Port)

	d.mu.Lock()
	d.state = StateStopped
	d.mu.Unlock()
	d.log.Info("udp driver stopped")
}

