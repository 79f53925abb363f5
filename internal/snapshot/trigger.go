package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// ShouldTrigger reports whether memoryID needs a new snapshot given cfg's
// event-threshold and periodic-interval settings, and if so, which reason
// applies. The event threshold is compared against the number of events
// recorded since the most recent snapshot; if no snapshot exists yet, a
// snapshot is always due once any events exist.
func (s *Store) ShouldTrigger(ctx context.Context, memoryID string, cfg config.TemporalConfig) (bool, types.SnapshotReason, error) {
	lastSnap, err := s.latest(ctx, memoryID)
	if err != nil {
		return false, "", err
	}

	if lastSnap == nil {
		hasEvents, err := s.hasAnyEvents(ctx, memoryID)
		if err != nil {
			return false, "", err
		}
		return hasEvents, types.SnapshotEventThreshold, nil
	}

	eventsSince, err := s.countEventsSince(ctx, memoryID, lastSnap.EventID)
	if err != nil {
		return false, "", err
	}
	if eventsSince >= cfg.SnapshotEventThreshold {
		return true, types.SnapshotEventThreshold, nil
	}

	interval := time.Duration(cfg.PeriodicIntervalHours) * time.Hour
	if interval > 0 && time.Since(lastSnap.SnapshotAt) >= interval {
		return true, types.SnapshotPeriodic, nil
	}

	return false, "", nil
}

func (s *Store) latest(ctx context.Context, memoryID string) (*types.Snapshot, error) {
	row := s.db.Reader().QueryRowContext(ctx, `
		SELECT snapshot_id, memory_id, snapshot_at, event_id, reason, state
		FROM snapshots WHERE memory_id = ? ORDER BY event_id DESC LIMIT 1`, memoryID)

	var snap types.Snapshot
	var snapAt, reason string
	if err := row.Scan(&snap.SnapshotID, &snap.MemoryID, &snapAt, &snap.EventID, &reason, &snap.State); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: latest: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, snapAt)
	if err != nil {
		return nil, err
	}
	snap.SnapshotAt = t
	snap.Reason = types.SnapshotReason(reason)
	return &snap, nil
}

func (s *Store) hasAnyEvents(ctx context.Context, memoryID string) (bool, error) {
	var count int
	err := s.db.Reader().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_events WHERE memory_id = ?`, memoryID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("snapshot: count events: %w", err)
	}
	return count > 0, nil
}

func (s *Store) countEventsSince(ctx context.Context, memoryID string, eventID int64) (int, error) {
	var count int
	err := s.db.Reader().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_events WHERE memory_id = ? AND event_id > ?`, memoryID, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("snapshot: count events since: %w", err)
	}
	return count, nil
}
