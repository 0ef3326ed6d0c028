// Package maintenance implements the Maintenance Sweeper (SPEC_FULL.md
// §4.N, component N): a cron-scheduled idle-stream reaper driven by the
// clean_interval/node_timeout configuration spec.md §6.4 marks "reserved;
// not exercised by core." It is purely additive — it never interacts with
// the byte/entry-bounded LRU eviction of components G/H, only with
// StreamCache.EvictStale, which goes through the same cache-wide mutex as
// every other cache operation.
//
// Grounded on nishisan-dev-n-backup/internal/agent/scheduler.go's
// robfig/cron-wrapped scheduler with graceful Stop(ctx).
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nar-io/telemetry-gateway/internal/ingest/cache"
)

// StreamCacheSource returns the set of stream caches to sweep at each
// tick. The Driver Manager supplies this over every registered driver's
// stream cache, not only the currently selected one.
type StreamCacheSource func() []*cache.StreamCache

// Sweeper evicts stream descriptors whose LastTouched exceeds NodeTimeout,
// on a cron schedule of every CleanInterval seconds.
type Sweeper struct {
	cron        *cron.Cron
	log         *slog.Logger
	caches      StreamCacheSource
	nodeTimeout time.Duration
}

// New builds a Sweeper that runs every intervalSeconds, reaping stream
// descriptors idle longer than nodeTimeoutSeconds. Returns (nil, nil) when
// intervalSeconds <= 0, matching spec.md's "clean_interval == 0 disables
// it" framing — callers should treat a nil Sweeper as "nothing to start."
func New(intervalSeconds, nodeTimeoutSeconds int, caches StreamCacheSource, log *slog.Logger) (*Sweeper, error) {
	if intervalSeconds <= 0 {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Sweeper{
		log:         log.With("component", "maintenance_sweeper"),
		caches:      caches,
		nodeTimeout: time.Duration(nodeTimeoutSeconds) * time.Second,
	}

	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelDebug))))
	spec := fmt.Sprintf("@every %ds", intervalSeconds)
	if _, err := c.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("registering maintenance sweep: %w", err)
	}
	s.cron = c
	return s, nil
}

// Start begins the cron schedule.
func (s *Sweeper) Start() {
	if s == nil {
		return
	}
	s.log.Info("maintenance sweeper started", "node_timeout", s.nodeTimeout)
	s.cron.Start()
}

// Stop waits for any in-progress sweep to finish, or for ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.log.Info("maintenance sweeper stopped")
	case <-ctx.Done():
		s.log.Warn("maintenance sweeper stop timed out")
	}
}

func (s *Sweeper) sweep() {
	now := time.Now()
	total := 0
	for _, sc := range s.caches() {
		total += sc.EvictStale(now, s.nodeTimeout)
	}
	if total > 0 {
		s.log.Debug("swept stale stream descriptors", "count", total)
	}
}
