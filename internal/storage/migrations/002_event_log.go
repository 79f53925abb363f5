package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// EventLog creates the append-only memory_events table. event_id is the
// store-wide monotone, gap-free sequence (SQLite's ROWID-backed
// AUTOINCREMENT on an INTEGER PRIMARY KEY), not scoped per memory.
func EventLog(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_events (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			memory_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			delta TEXT NOT NULL DEFAULT '{}',
			actor_type TEXT NOT NULL DEFAULT 'system',
			actor_id TEXT NOT NULL DEFAULT '',
			caused_by TEXT NOT NULL DEFAULT '[]',
			schema_version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_events_memory_id ON memory_events(memory_id, event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_events_recorded_at ON memory_events(recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_events_kind ON memory_events(kind)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("event log: %w", err)
		}
	}
	return nil
}
