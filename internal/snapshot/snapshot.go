// Package snapshot materializes a memory's state at an event frontier so
// reconstruction doesn't replay its entire history on every read. Algorithm
// grounded on original_source's snapshot/reconstruct.rs: find the nearest
// snapshot before the target instant, decompress it, replay the trailing
// events; fall back to an empty shell + full replay when no snapshot exists.
package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/telemetry"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// Store creates, reads, and retains snapshots.
type Store struct {
	db     *storage.Store
	events *eventstore.Store
	tel    *telemetry.Telemetry
}

// New builds a snapshot.Store.
func New(db *storage.Store, events *eventstore.Store, tel *telemetry.Telemetry) *Store {
	return &Store{db: db, events: events, tel: tel}
}

// Create compresses state and stores it as the snapshot at eventID.
func (s *Store) Create(ctx context.Context, state *types.Memory, eventID int64, reason types.SnapshotReason) (*types.Snapshot, error) {
	encoded, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode state: %w", err)
	}
	compressed, err := compress(encoded)
	if err != nil {
		return nil, fmt.Errorf("snapshot: compress: %w", err)
	}

	snap := &types.Snapshot{
		SnapshotID: uuid.NewString(),
		MemoryID:   state.ID,
		SnapshotAt: time.Now().UTC(),
		EventID:    eventID,
		Reason:     reason,
		State:      compressed,
	}

	err = s.db.WithRetry(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO snapshots (snapshot_id, memory_id, snapshot_at, event_id, reason, state)
			VALUES (?, ?, ?, ?, ?, ?)`,
			snap.SnapshotID, snap.MemoryID, snap.SnapshotAt.Format(time.RFC3339Nano),
			snap.EventID, string(snap.Reason), snap.State)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: insert: %w", err)
	}
	if s.tel != nil {
		s.tel.SnapshotCreatedTotal.Add(ctx, 1)
	}
	return snap, nil
}

// nearestBefore returns the most recent snapshot for memoryID whose
// snapshot_at is <= targetTime, or nil if none exists.
func (s *Store) nearestBefore(ctx context.Context, memoryID string, targetTime time.Time) (*types.Snapshot, error) {
	row := s.db.Reader().QueryRowContext(ctx, `
		SELECT snapshot_id, memory_id, snapshot_at, event_id, reason, state
		FROM snapshots WHERE memory_id = ? AND snapshot_at <= ?
		ORDER BY event_id DESC LIMIT 1`,
		memoryID, targetTime.UTC().Format(time.RFC3339Nano))

	var snap types.Snapshot
	var snapAt, reason string
	if err := row.Scan(&snap.SnapshotID, &snap.MemoryID, &snapAt, &snap.EventID, &reason, &snap.State); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: nearest before: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, snapAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot: parse snapshot_at: %w", err)
	}
	snap.SnapshotAt = t
	snap.Reason = types.SnapshotReason(reason)
	return &snap, nil
}

// ReconstructAt reconstructs memoryID's state at targetTime: nearest
// snapshot + trailing replay, or full replay from an empty shell if no
// snapshot exists, or nil if the memory has no history at all.
func (s *Store) ReconstructAt(ctx context.Context, memoryID string, targetTime time.Time) (*types.Memory, error) {
	start := time.Now()
	defer func() {
		if s.tel != nil {
			s.tel.ReconstructDurationMS.Record(ctx, float64(time.Since(start).Milliseconds()))
		}
	}()

	snap, err := s.nearestBefore(ctx, memoryID, targetTime)
	if err != nil {
		return nil, err
	}

	if snap != nil {
		base, err := decompressSnapshot(snap.State)
		if err != nil {
			return nil, fmt.Errorf("snapshot: decompress: %w", err)
		}
		events, err := s.eventsAfter(ctx, memoryID, snap.EventID, targetTime)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return base, nil
		}
		return eventstore.Replay(base, events), nil
	}

	events, err := s.eventsUpTo(ctx, memoryID, targetTime)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	shell := emptyShell(memoryID, targetTime)
	return eventstore.Replay(shell, events), nil
}

// ReconstructAllAt reconstructs every non-archived memory's state at
// targetTime. Memories with no events at or before targetTime are skipped.
func (s *Store) ReconstructAllAt(ctx context.Context, targetTime time.Time) ([]*types.Memory, error) {
	rows, err := s.db.Reader().QueryContext(ctx,
		`SELECT DISTINCT memory_id FROM memory_events WHERE recorded_at <= ?`,
		targetTime.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("snapshot: list memory ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("snapshot: scan memory id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]*types.Memory, 0, len(ids))
	for _, id := range ids {
		state, err := s.ReconstructAt(ctx, id, targetTime)
		if err != nil {
			return nil, fmt.Errorf("snapshot: reconstruct %s: %w", id, err)
		}
		if state != nil && !state.Archived {
			results = append(results, state)
		}
	}
	return results, nil
}

func (s *Store) eventsAfter(ctx context.Context, memoryID string, afterEventID int64, before time.Time) ([]*types.MemoryEvent, error) {
	all, err := s.events.EventsForMemory(ctx, memoryID, nil)
	if err != nil {
		return nil, err
	}
	var out []*types.MemoryEvent
	for _, ev := range all {
		if ev.EventID > afterEventID && !ev.RecordedAt.After(before) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *Store) eventsUpTo(ctx context.Context, memoryID string, before time.Time) ([]*types.MemoryEvent, error) {
	all, err := s.events.EventsForMemory(ctx, memoryID, nil)
	if err != nil {
		return nil, err
	}
	var out []*types.MemoryEvent
	for _, ev := range all {
		if !ev.RecordedAt.After(before) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func emptyShell(memoryID string, at time.Time) *types.Memory {
	return &types.Memory{ID: memoryID, TransactionTime: at, ValidTime: at}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressSnapshot(data []byte) (*types.Memory, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var m types.Memory
	if err := json.Unmarshal(decoded, &m); err != nil {
		return nil, fmt.Errorf("snapshot: decode state: %w", err)
	}
	return &m, nil
}
