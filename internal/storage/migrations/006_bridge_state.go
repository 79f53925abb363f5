package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// BridgeState creates the cross-store bridge's local bookkeeping: a
// time-bounded dedup set keyed by a hash of the source event, so the same
// analysis-store row is never translated into a memory twice, and a health
// table recording the bridge's last successful poll per source.
func BridgeState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bridge_dedup (
			hash TEXT PRIMARY KEY,
			seen_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bridge_dedup_seen_at ON bridge_dedup(seen_at)`,
		`CREATE TABLE IF NOT EXISTS bridge_health (
			source TEXT PRIMARY KEY,
			last_poll_at TEXT,
			last_success_at TEXT,
			last_error TEXT,
			consecutive_failures INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bridge state: %w", err)
		}
	}
	return nil
}
