package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CompactionResult reports how many events were archived by Compact.
type CompactionResult struct {
	EventsMoved int64
}

// Compact moves events recorded before beforeDate into memory_events_archive
// for any memory whose most recent snapshot's event_id is >= the event's
// event_id — i.e. events fully subsumed by a verified snapshot. Archived
// events are retained (not deleted) so audit trails survive retention.
func (s *Store) Compact(ctx context.Context, beforeDate time.Time) (CompactionResult, error) {
	var moved int64
	err := s.db.WithRetry(ctx, func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS memory_events_archive (
				event_id INTEGER PRIMARY KEY,
				memory_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				recorded_at TEXT NOT NULL,
				delta TEXT NOT NULL,
				actor_type TEXT NOT NULL,
				actor_id TEXT NOT NULL,
				caused_by TEXT NOT NULL,
				schema_version INTEGER NOT NULL
			)`); err != nil {
			return fmt.Errorf("eventstore: ensure archive table: %w", err)
		}

		res, err := db.ExecContext(ctx, `
			INSERT INTO memory_events_archive
			SELECT e.event_id, e.memory_id, e.kind, e.recorded_at, e.delta, e.actor_type, e.actor_id, e.caused_by, e.schema_version
			FROM memory_events e
			WHERE e.recorded_at < ?
			  AND e.event_id <= (
				SELECT MAX(s.event_id) FROM snapshots s WHERE s.memory_id = e.memory_id
			  )
			  AND NOT EXISTS (SELECT 1 FROM memory_events_archive a WHERE a.event_id = e.event_id)`,
			beforeDate.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("eventstore: copy to archive: %w", err)
		}
		moved, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("eventstore: rows affected: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			DELETE FROM memory_events
			WHERE event_id IN (SELECT event_id FROM memory_events_archive)
			  AND recorded_at < ?`, beforeDate.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("eventstore: delete compacted events: %w", err)
		}
		return nil
	})
	return CompactionResult{EventsMoved: moved}, err
}
