package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/enginerr"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/telemetry"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// Bridge translates analysis-store events into engine memories, subject to
// dedup and license-tier gating, keeping its own bookkeeping in the bridge_*
// tables alongside the engine's primary event log and snapshots.
type Bridge struct {
	events *eventstore.Store
	snaps  *snapshot.Store
	store  *Store
	dedup  *Dedup
	tier   config.LicenseTier
	tel    *telemetry.Telemetry
}

// New builds a Bridge. tel may be nil.
func New(events *eventstore.Store, snaps *snapshot.Store, store *Store, dedup *Dedup, tier config.LicenseTier, tel *telemetry.Telemetry) *Bridge {
	return &Bridge{events: events, snaps: snaps, store: store, dedup: dedup, tier: tier, tel: tel}
}

// IngestResult reports the outcome of translating one analysis event.
type IngestResult struct {
	MemoryID   string
	Skipped    bool
	SkipReason string
}

// IngestOne dedups, maps, and persists one analysis event as a new memory.
// A duplicate event is reported as skipped, not an error; a license-gated
// event is a KindConfiguration error instead, since the caller must escalate
// (upgrade the license or stop sending that event type), not retry silently.
func (b *Bridge) IngestOne(ctx context.Context, ev AnalysisEvent) (*IngestResult, error) {
	hash := Hash(ev)
	seen, err := b.dedup.Seen(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("bridge: dedup check: %w", err)
	}
	if seen {
		b.recordSkip(ctx)
		return &IngestResult{Skipped: true, SkipReason: "duplicate"}, nil
	}

	kind, confidence, content, err := Map(ev, b.tier.MaxEventTypes())
	if err != nil {
		if errors.Is(err, ErrEventTypeGated) {
			b.recordSkip(ctx)
			return nil, enginerr.New(enginerr.KindConfiguration, "bridge.IngestOne", "license_gated", err).
				WithEntity(string(ev.EventType))
		}
		return nil, err
	}

	m := &types.Memory{
		ID:              uuid.NewString(),
		Kind:            kind,
		Content:         content,
		Summary:         ev.Summary,
		Confidence:      confidence,
		Importance:      types.ImportanceNormal,
		SourceAgent:     "analysis_bridge",
		TransactionTime: time.Now().UTC(),
		ValidTime:       ev.OccurredAt,
		Tags:            []string{"bridge_event:" + string(ev.EventType), "entity:" + ev.EntityID},
	}
	m.ContentHash = m.ComputeContentHash()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("bridge: invalid memory from %q: %w", ev.EventType, err)
	}

	delta, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode created delta: %w", err)
	}
	eventID, err := b.events.Append(ctx, &types.MemoryEvent{
		MemoryID: m.ID, Kind: types.EventCreated, Delta: delta,
		Actor: types.Actor{Type: types.ActorSystem, ID: "analysis_bridge"},
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: append created event: %w", err)
	}
	if _, err := b.snaps.Create(ctx, m, eventID, types.SnapshotOnDemand); err != nil {
		return nil, fmt.Errorf("bridge: snapshot new memory: %w", err)
	}

	if err := b.store.SaveMemory(ctx, m); err != nil {
		return nil, err
	}
	memType := string(kind)
	if err := b.store.LogEvent(ctx, string(ev.EventType), &memType, &m.ID, &confidence); err != nil {
		return nil, err
	}
	if err := b.dedup.Mark(ctx, hash); err != nil {
		return nil, fmt.Errorf("bridge: mark dedup: %w", err)
	}

	if b.tel != nil {
		b.tel.BridgeIngestTotal.Add(ctx, 1)
	}
	return &IngestResult{MemoryID: m.ID}, nil
}

func (b *Bridge) recordSkip(ctx context.Context) {
	if b.tel != nil {
		b.tel.BridgeIngestSkipped.Add(ctx, 1)
	}
}

// IngestBatch ingests every event, collecting individual failures rather
// than aborting — one bad event never blocks the rest of the batch.
func (b *Bridge) IngestBatch(ctx context.Context, events []AnalysisEvent) ([]*IngestResult, []error) {
	results := make([]*IngestResult, 0, len(events))
	var errs []error
	for _, ev := range events {
		res, err := b.IngestOne(ctx, ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}
