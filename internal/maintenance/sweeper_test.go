package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/nar-io/telemetry-gateway/internal/ingest/cache"
	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

func TestNewDisabledWhenIntervalZero(t *testing.T) {
	s, err := New(0, 30, func() []*cache.StreamCache { return nil }, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s != nil {
		t.Fatalf("New() with interval=0 = %v, want nil", s)
	}

	// nil Sweeper methods must be safe no-ops.
	s.Start()
	s.Stop(context.Background())
}

func TestSweepEvictsStaleStreamDescriptors(t *testing.T) {
	sc := cache.NewStream(10, 1024)
	stale := &types.StreamDescriptor{UID: 1, Kind: types.KindFlt}
	if err := sc.InitStream(stale); err != nil {
		t.Fatalf("InitStream() error = %v", err)
	}
	// InitStream stamps LastTouched to now; back-date the stored descriptor
	// in place to simulate a stream that has gone idle.
	stored, _ := sc.Get(1)
	stored.LastTouched = time.Now().Add(-time.Hour)

	s, err := New(1, 1, func() []*cache.StreamCache { return []*cache.StreamCache{sc} }, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s == nil {
		t.Fatalf("New() with interval=1 = nil, want a Sweeper")
	}

	s.sweep()

	if _, ok := sc.Get(1); ok {
		t.Fatalf("stale descriptor still present after sweep")
	}
}

func TestSweepLeavesFreshDescriptors(t *testing.T) {
	sc := cache.NewStream(10, 1024)
	fresh := &types.StreamDescriptor{UID: 2, Kind: types.KindFlt, LastTouched: time.Now()}
	if err := sc.InitStream(fresh); err != nil {
		t.Fatalf("InitStream() error = %v", err)
	}

	s, err := New(1, 3600, func() []*cache.StreamCache { return []*cache.StreamCache{sc} }, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.sweep()

	if _, ok := sc.Get(2); !ok {
		t.Fatalf("fresh descriptor evicted by sweep")
	}
}
