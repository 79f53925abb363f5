// Package runtime wires the engine's subsystems together behind one
// Initialize/Shutdown handle: storage, event store, snapshots, causal
// graph, grounding, the optional cross-store bridge, and the retention
// sweeper. Nothing outside this package should construct those pieces
// directly — cmd/memengine and any future host only ever sees Engine.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/bridge"
	"github.com/ruizrica/drift-sub006/internal/causal"
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/grounding"
	"github.com/ruizrica/drift-sub006/internal/health"
	"github.com/ruizrica/drift-sub006/internal/retention"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/telemetry"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// Engine holds every live subsystem handle for one running instance of the
// memory engine.
type Engine struct {
	Config    *config.EngineConfig
	Telemetry *telemetry.Telemetry
	Storage   *storage.Store
	Events    *eventstore.Store
	Snapshots *snapshot.Store
	Causal    *causal.Store
	Grounding *grounding.Runner
	Scheduler *grounding.Scheduler
	Retention *retention.Sweeper

	Bridge    *bridge.Bridge    // nil when cfg.Bridge.Enabled is false
	transport *bridge.Transport // nil when cfg.Bridge.Enabled is false
	dedup     *bridge.Dedup
	bridgeDB  *bridge.Store
}

// Initialize opens storage, runs migrations, and constructs every
// subsystem. Callers must call Shutdown to release connections.
func Initialize(ctx context.Context, cfg *config.EngineConfig) (*Engine, error) {
	tel, err := telemetry.New()
	if err != nil {
		return nil, fmt.Errorf("runtime: init telemetry: %w", err)
	}

	db, err := storage.Open(ctx, cfg.Storage, tel)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("runtime: open storage: %w", err)
	}

	events := eventstore.New(db, tel)
	snaps := snapshot.New(db, events, tel)
	causalStore := causal.New(db.Writer())
	history := grounding.NewHistory(db)
	groundingRunner := grounding.NewRunner(events, snaps, history, causalStore, cfg.Grounding)
	scheduler := grounding.NewScheduler(cfg.Grounding.FullGroundingInterval)
	sweeper := retention.NewSweeper(events, snaps, nil, cfg.Temporal)

	eng := &Engine{
		Config: cfg, Telemetry: tel, Storage: db, Events: events, Snapshots: snaps,
		Causal: causalStore, Grounding: groundingRunner, Scheduler: scheduler, Retention: sweeper,
	}

	if cfg.Bridge.Enabled {
		if err := eng.initBridge(ctx); err != nil {
			_ = eng.Shutdown(ctx)
			return nil, err
		}
	}
	return eng, nil
}

func (e *Engine) initBridge(ctx context.Context) error {
	transport, err := bridge.OpenTransport(ctx, e.Config.Bridge, e.Storage.Writer())
	if err != nil {
		return fmt.Errorf("runtime: init bridge transport: %w", err)
	}
	bridgeDB := bridge.NewStore(e.Storage.Writer())
	dedup := bridge.NewDedup(e.Config.Bridge.DedupWindow, e.Storage.Writer())

	e.transport = transport
	e.bridgeDB = bridgeDB
	e.dedup = dedup
	e.Bridge = bridge.New(e.Events, e.Snapshots, bridgeDB, dedup, e.Config.License, e.Telemetry)
	e.Retention = retention.NewSweeper(e.Events, e.Snapshots, bridgeDB, e.Config.Temporal)
	return nil
}

// RecordEvent appends ev through the event store and then checks whether
// the memory it targets is due for a new snapshot (event-threshold or
// periodic trigger per cfg.Temporal), creating one if so. This is the
// generic host-driven mutation entry point — callers that already manage
// their own snapshot lifecycle (grounding, the bridge) append through
// e.Events directly and call e.Snapshots.Create themselves.
func (e *Engine) RecordEvent(ctx context.Context, ev *types.MemoryEvent) (int64, error) {
	eventID, err := e.Events.Append(ctx, ev)
	if err != nil {
		return 0, err
	}

	due, reason, err := e.Snapshots.ShouldTrigger(ctx, ev.MemoryID, e.Config.Temporal)
	if err != nil {
		return eventID, fmt.Errorf("runtime: check snapshot trigger: %w", err)
	}
	if !due {
		return eventID, nil
	}

	state, err := e.Snapshots.ReconstructAt(ctx, ev.MemoryID, time.Now().UTC())
	if err != nil {
		return eventID, fmt.Errorf("runtime: reconstruct for triggered snapshot: %w", err)
	}
	if state == nil {
		return eventID, nil
	}
	if _, err := e.Snapshots.Create(ctx, state, eventID, reason); err != nil {
		return eventID, fmt.Errorf("runtime: create triggered snapshot: %w", err)
	}
	return eventID, nil
}

// AnalysisStatus reports the most recent scan timestamp the analysis store
// has recorded, and the number of tracked patterns matching patternIDs (an
// empty slice skips the pattern count). Returns an error if the bridge
// isn't enabled.
func (e *Engine) AnalysisStatus(ctx context.Context, patternIDs []string) (*bridge.AnalysisStatus, error) {
	if e.transport == nil {
		return nil, fmt.Errorf("runtime: analysis status: bridge is not enabled")
	}
	latestScan, err := bridge.LatestScanTimestamp(ctx, e.transport)
	if err != nil {
		return nil, err
	}
	matching, err := bridge.CountMatchingPatterns(ctx, e.transport, patternIDs)
	if err != nil {
		return nil, err
	}
	return &bridge.AnalysisStatus{LatestScanUnixSeconds: latestScan, MatchingPatternCount: matching}, nil
}

// Health runs every configured subsystem check and aggregates them.
func (e *Engine) Health(ctx context.Context) health.Report {
	checks := []health.SubsystemCheck{memoryStoreCheck(ctx, e.Storage)}
	if e.Causal != nil {
		checks = append(checks, causalCheck(ctx, e.Causal))
	}
	if e.Config.Bridge.Enabled {
		checks = append(checks, bridge.CheckAnalysisStore(ctx, e.transport))
		checks = append(checks, bridge.CheckBridgeStore(ctx, e.bridgeDB))
	}
	return health.Aggregate(checks)
}

func memoryStoreCheck(ctx context.Context, db *storage.Store) health.SubsystemCheck {
	if err := db.Writer().PingContext(ctx); err != nil {
		return health.Unhealthy(health.MemoryStoreName, err.Error())
	}
	return health.OK(health.MemoryStoreName, "reachable")
}

func causalCheck(ctx context.Context, c *causal.Store) health.SubsystemCheck {
	if err := c.Ping(ctx); err != nil {
		return health.Unhealthy("causal_engine", err.Error())
	}
	return health.OK("causal_engine", "reachable")
}

// Shutdown releases every subsystem's resources, most-recently-opened
// first. Safe to call once; errors are collected rather than masking later
// cleanup steps.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error
	if e.transport != nil {
		if err := e.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bridge transport: %w", err))
		}
	}
	if e.Storage != nil {
		if err := e.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if e.Telemetry != nil {
		if err := e.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("runtime: shutdown: %v", errs)
}
