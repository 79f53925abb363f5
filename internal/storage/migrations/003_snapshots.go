package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Snapshots creates the snapshot table: compressed, canonical-encoded
// memory state at a given event frontier, used to avoid replaying the full
// event history on every reconstruction.
func Snapshots(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_id TEXT PRIMARY KEY,
			memory_id TEXT NOT NULL,
			snapshot_at TEXT NOT NULL,
			event_id INTEGER NOT NULL,
			reason TEXT NOT NULL,
			state BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_memory_id ON snapshots(memory_id, event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_snapshot_at ON snapshots(snapshot_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("snapshots: %w", err)
		}
	}
	return nil
}
