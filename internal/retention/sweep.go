// Package retention runs the engine's periodic housekeeping sweep: event
// compaction, tiered snapshot retention, and bridge-metrics pruning, all
// driven off the same config.TemporalConfig keys spec §6 names.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/bridge"
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
)

// bridgeMetricsRetention is the fixed 7-day window spec §6 gives
// bridge_metrics, independent of the configurable temporal retention knobs.
const bridgeMetricsRetention = 7 * 24 * time.Hour

// Sweeper runs one full housekeeping pass across the event log, snapshot
// store, and (if configured) the bridge's own metrics table.
type Sweeper struct {
	events   *eventstore.Store
	snaps    *snapshot.Store
	bridgeDB *bridge.Store // nil when the bridge is disabled
	cfg      config.TemporalConfig
}

// NewSweeper builds a Sweeper. bridgeDB may be nil.
func NewSweeper(events *eventstore.Store, snaps *snapshot.Store, bridgeDB *bridge.Store, cfg config.TemporalConfig) *Sweeper {
	return &Sweeper{events: events, snaps: snaps, bridgeDB: bridgeDB, cfg: cfg}
}

// Result tallies what one sweep did.
type Result struct {
	EventsCompacted      int64
	SnapshotsThinned      int64
	SnapshotsPruned       int64
	BridgeMetricsPruned   int64
}

// Run executes one sweep as of now. Every step checks ctx between the
// compaction, snapshot-retention, and bridge-metrics phases so a caller can
// cancel a long-running sweep between them; each phase that already
// committed stays committed.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Result, error) {
	var result Result

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	compactionCutoff := now.AddDate(0, 0, -s.cfg.EventCompactionAgeDays)
	compacted, err := s.events.Compact(ctx, compactionCutoff)
	if err != nil {
		return result, fmt.Errorf("retention: compact events: %w", err)
	}
	result.EventsCompacted = compacted.EventsMoved

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	retained, err := s.snaps.Retain(ctx, s.cfg, now)
	if err != nil {
		return result, fmt.Errorf("retention: retain snapshots: %w", err)
	}
	result.SnapshotsThinned = retained.ThinnedToMonthly
	result.SnapshotsPruned = retained.Pruned

	if s.bridgeDB == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	pruned, err := s.bridgeDB.PruneMetrics(ctx, bridgeMetricsRetention)
	if err != nil {
		return result, fmt.Errorf("retention: prune bridge metrics: %w", err)
	}
	result.BridgeMetricsPruned = pruned
	return result, nil
}
