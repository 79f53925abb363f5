// Package eventstore is the append-only event log: every mutation to a
// memory is recorded here before (in the same transaction as) the memory's
// current-state row is updated, and snapshot/temporal reconstruction replay
// these events forward from the nearest snapshot, following a
// replay/upcaster/compaction split with a transactional-write idiom
// (single-connection writer, BEGIN + busy retry, deferred ROLLBACK on the
// unhappy path).
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/telemetry"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// Store appends and reads memory events against a storage.Store.
type Store struct {
	db        *storage.Store
	tel       *telemetry.Telemetry
	upcasters *UpcasterRegistry
}

// New builds an eventstore.Store. tel may be nil in tests.
func New(db *storage.Store, tel *telemetry.Telemetry) *Store {
	return &Store{db: db, tel: tel, upcasters: DefaultUpcasterRegistry()}
}

// Append writes one event and returns its assigned, store-wide monotone
// event_id. Callers that must update a memory's current-state row in the
// same transaction should use AppendTx instead.
func (s *Store) Append(ctx context.Context, ev *types.MemoryEvent) (int64, error) {
	var id int64
	err := s.db.WithRetry(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		id, err = s.AppendTx(ctx, tx, ev)
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if s.tel != nil {
		s.tel.EventAppendTotal.Add(ctx, 1)
	}
	return id, err
}

// AppendTx writes ev within an already-open transaction, so a caller can
// append the event and update the memory's projected row atomically — the
// "same-transaction mutation+event emission" invariant.
func (s *Store) AppendTx(ctx context.Context, tx *sql.Tx, ev *types.MemoryEvent) (int64, error) {
	if ev.SchemaVersion == 0 {
		ev.SchemaVersion = types.CurrentSchemaVersion
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now().UTC()
	}
	causedBy, err := json.Marshal(ev.CausedBy)
	if err != nil {
		return 0, fmt.Errorf("eventstore: marshal caused_by: %w", err)
	}
	delta := ev.Delta
	if delta == nil {
		delta = json.RawMessage("{}")
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO memory_events (memory_id, kind, recorded_at, delta, actor_type, actor_id, caused_by, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.MemoryID, string(ev.Kind), ev.RecordedAt.Format(time.RFC3339Nano),
		string(delta), string(ev.Actor.Type), ev.Actor.ID, string(causedBy), ev.SchemaVersion)
	if err != nil {
		return 0, fmt.Errorf("eventstore: append: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("eventstore: last insert id: %w", err)
	}
	ev.EventID = id

	if err := s.projectTx(ctx, tx, ev); err != nil {
		return id, err
	}
	return id, nil
}

// AppendBatch appends multiple events in one transaction.
func (s *Store) AppendBatch(ctx context.Context, events []*types.MemoryEvent) error {
	err := s.db.WithRetry(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		for _, ev := range events {
			if _, err := s.AppendTx(ctx, tx, ev); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err == nil && s.tel != nil {
		s.tel.EventAppendTotal.Add(ctx, int64(len(events)))
	}
	return err
}

// EventsForMemory returns events for memoryID in event_id order, optionally
// bounded to recorded_at < before (before=nil means no bound).
func (s *Store) EventsForMemory(ctx context.Context, memoryID string, before *time.Time) ([]*types.MemoryEvent, error) {
	query := `SELECT event_id, memory_id, kind, recorded_at, delta, actor_type, actor_id, caused_by, schema_version
		FROM memory_events WHERE memory_id = ?`
	args := []interface{}{memoryID}
	if before != nil {
		query += ` AND recorded_at < ?`
		args = append(args, before.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY event_id ASC`

	rows, err := s.db.Reader().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("eventstore: query events for %s: %w", memoryID, err)
	}
	defer rows.Close()
	return s.scanEvents(rows)
}

// EventsInRange returns all events recorded in [from, to) across every
// memory, in event_id order — used by temporal diff and drift-window scans.
func (s *Store) EventsInRange(ctx context.Context, from, to time.Time) ([]*types.MemoryEvent, error) {
	rows, err := s.db.Reader().QueryContext(ctx, `
		SELECT event_id, memory_id, kind, recorded_at, delta, actor_type, actor_id, caused_by, schema_version
		FROM memory_events WHERE recorded_at >= ? AND recorded_at < ? ORDER BY event_id ASC`,
		from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("eventstore: query events in range: %w", err)
	}
	defer rows.Close()
	return s.scanEvents(rows)
}

// EventsOfKind returns events of a given kind in event_id order, bounded to
// recorded_at < before when non-nil.
func (s *Store) EventsOfKind(ctx context.Context, kind types.EventKind, before *time.Time) ([]*types.MemoryEvent, error) {
	query := `SELECT event_id, memory_id, kind, recorded_at, delta, actor_type, actor_id, caused_by, schema_version
		FROM memory_events WHERE kind = ?`
	args := []interface{}{string(kind)}
	if before != nil {
		query += ` AND recorded_at < ?`
		args = append(args, before.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY event_id ASC`

	rows, err := s.db.Reader().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("eventstore: query events of kind %s: %w", kind, err)
	}
	defer rows.Close()
	return s.scanEvents(rows)
}

func (s *Store) scanEvents(rows *sql.Rows) ([]*types.MemoryEvent, error) {
	var out []*types.MemoryEvent
	for rows.Next() {
		var (
			ev                    types.MemoryEvent
			recordedAt            string
			deltaStr, causedByStr string
			actorType, actorID    string
		)
		if err := rows.Scan(&ev.EventID, &ev.MemoryID, &ev.Kind, &recordedAt, &deltaStr,
			&actorType, &actorID, &causedByStr, &ev.SchemaVersion); err != nil {
			return nil, fmt.Errorf("eventstore: scan event: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("eventstore: parse recorded_at: %w", err)
		}
		ev.RecordedAt = t
		ev.Delta = json.RawMessage(deltaStr)
		ev.Actor = types.Actor{Type: types.ActorType(actorType), ID: actorID}
		if err := json.Unmarshal([]byte(causedByStr), &ev.CausedBy); err != nil {
			return nil, fmt.Errorf("eventstore: parse caused_by: %w", err)
		}
		ev = *s.upcasters.Upcast(&ev)
		out = append(out, &ev)
	}
	return out, rows.Err()
}

// NewEventID generates a new surrogate ID for constructs that need an ID
// before they have a database row (e.g. a causal edge built from a grounding
// verdict). Event rows themselves get their ID from AUTOINCREMENT.
func NewEventID() string { return uuid.NewString() }
