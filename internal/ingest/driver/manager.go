package driver

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nar-io/telemetry-gateway/internal/ingest/cache"
	"github.com/nar-io/telemetry-gateway/internal/ingest/codec"
	"github.com/nar-io/telemetry-gateway/internal/ingest/dispatch"
	"github.com/nar-io/telemetry-gateway/internal/ingest/hooks"
	"github.com/nar-io/telemetry-gateway/internal/ingest/portpool"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
	"github.com/nar-io/telemetry-gateway/internal/ingest/uidregistry"
	"github.com/nar-io/telemetry-gateway/internal/logger"
)

// Manager is the Driver Manager (spec.md §4.J, component J): it owns the
// process-wide port pool and uid registry, creates/stops drivers, and
// designates one driver's cache pair as "current" for read APIs.
//
// It follows a map-of-managed-objects plus snapshot-before-fanout idiom,
// config-defaulting/composition for driver construction, and generates
// driver ids with collision-disambiguating suffixes, keeping one driver's
// cache pair designated "current" for the read APIs.
type Manager struct {
	mu       sync.Mutex
	drivers  map[string]*Driver
	counter  int
	currentID string

	portPool *portpool.Pool
	registry *uidregistry.Registry
	codec    *codec.Codec
	table    *dispatch.Table
	notifier hooks.RouteNotifier
	ip       string
	driverCfg Config
	log      *slog.Logger
}

// NewManager builds a Manager. ip and driverCfg are applied to every
// driver Create starts; listenPortRanges are registered on the shared
// port pool once, at construction.
func NewManager(ip string, listenPortStart, listenPortEnd int, driverCfg Config, notifier hooks.RouteNotifier) *Manager {
	pool := portpool.New()
	pool.Register(listenPortStart, listenPortEnd)

	reg := uidregistry.New()
	c := codec.New(reg)
	if notifier == nil {
		notifier = hooks.NewLogNotifier(logger.Logger())
	}

	return &Manager{
		drivers:   make(map[string]*Driver),
		portPool:  pool,
		registry:  reg,
		codec:     c,
		table:     dispatch.New(c),
		notifier:  notifier,
		ip:        ip,
		driverCfg: driverCfg,
		log:       logger.Logger().With("component", "driver_manager"),
	}
}

// Create allocates a new driver, starts its receive loop, and designates
// it "current" if no driver is currently selected. Returns the generated
// driver id.
func (m *Manager) Create() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID()
	d, err := New(id, m.ip, m.portPool, m.codec, m.table, m.notifier, m.driverCfg)
	if err != nil {
		return "", err
	}
	d.Start()
	m.drivers[id] = d
	if m.currentID == "" {
		m.currentID = id
	}
	m.log.Info("driver created", "driver_id", id, "port", d.Port)
	return id, nil
}

// nextID generates "udp_driver_{N}", disambiguated with a numeric suffix
// on collision (spec.md §4.J).
func (m *Manager) nextID() string {
	m.counter++
	id := fmt.Sprintf("udp_driver_%d", m.counter)
	suffix := 0
	for {
		if _, exists := m.drivers[id]; !exists {
			return id
		}
		suffix++
		id = fmt.Sprintf("udp_driver_%d_%d", m.counter, suffix)
	}
}

// Stop stops the driver identified by id, cancels its task, and removes
// its record. If id was the currently selected driver, selection falls
// back to another remaining driver, or to none.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drivers[id]
	if !ok {
		return fmt.Errorf("driver manager: unknown driver %q", id)
	}
	d.Stop()
	delete(m.drivers, id)

	if m.currentID == id {
		m.currentID = ""
		for other := range m.drivers {
			m.currentID = other
			break
		}
	}
	m.log.Info("driver stopped", "driver_id", id)
	return nil
}

// StopAll stops every registered driver.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.drivers))
	for id := range m.drivers {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Stop(id)
	}
}

// Select designates the driver identified by id as "current" for the read
// APIs (Static/Stream below). Returns an error if id is not registered.
func (m *Manager) Select(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[id]; !ok {
		return fmt.Errorf("driver manager: unknown driver %q", id)
	}
	m.currentID = id
	return nil
}

// Info is the read-only introspection shape returned by Info/List.
type Info struct {
	ID      string
	IP      string
	Port    int
	State   string
	Current bool
}

// Info returns introspection data for one driver.
func (m *Manager) Info(id string) (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return Info{}, false
	}
	return Info{ID: d.ID, IP: d.IP, Port: d.Port, State: d.State().String(), Current: id == m.currentID}, true
}

// List returns introspection data for every registered driver.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.drivers))
	for id, d := range m.drivers {
		out = append(out, Info{ID: d.ID, IP: d.IP, Port: d.Port, State: d.State().String(), Current: id == m.currentID})
	}
	return out
}

// Static returns a snapshot of the currently selected driver's static
// cache, or an empty map if no driver is selected (spec.md §6.5).
func (m *Manager) Static() map[uint32]types.StaticEntry {
	d := m.currentDriver()
	if d == nil {
		return map[uint32]types.StaticEntry{}
	}
	return d.StaticCache().Snapshot()
}

// Stream returns a snapshot of the currently selected driver's stream
// cache, or an empty map if no driver is selected (spec.md §6.5).
func (m *Manager) Stream() map[uint32]types.StreamDescriptor {
	d := m.currentDriver()
	if d == nil {
		return map[uint32]types.StreamDescriptor{}
	}
	return d.StreamCache().Snapshot()
}

// GetByUID returns the current driver's static entry or stream descriptor
// for uid, whichever cache holds it, honoring spec.md §6.5's
// "(none, static_entry, stream_descriptor)" contract.
func (m *Manager) GetByUID(uid uint32) (any, bool) {
	d := m.currentDriver()
	if d == nil {
		return nil, false
	}
	if se, ok := d.StaticCache().Get(uid); ok {
		return se, true
	}
	if sd, ok := d.StreamCache().Get(uid); ok {
		return sd, true
	}
	return nil, false
}

// StreamCaches returns every registered driver's stream cache, used by the
// Maintenance Sweeper (SPEC_FULL.md component N) to reap stale descriptors
// across all drivers rather than only the currently selected one.
func (m *Manager) StreamCaches() []*cache.StreamCache {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*cache.StreamCache, 0, len(m.drivers))
	for _, d := range m.drivers {
		out = append(out, d.StreamCache())
	}
	return out
}

func (m *Manager) currentDriver() *Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentID == "" {
		return nil
	}
	return m.drivers[m.currentID]
}

// Drivers returns every currently registered driver, for callers that need
// to act across all of them rather than only the "current" selection.
func (m *Manager) Drivers() []*Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		out = append(out, d)
	}
	return out
}
