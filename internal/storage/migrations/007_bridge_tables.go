package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// BridgeTables creates the bridge's own copies of the memories it has
// translated from analysis-store events, plus the grounding results,
// grounding snapshots, event log, and metrics the bridge records about its
// own operation. These are separate from the engine's own memories/events
// tables: the bridge runs against a possibly-remote analysis store and
// keeps its bookkeeping local so it never needs write access to the
// engine's primary tables to do its job.
func BridgeTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bridge_memories (
			id TEXT PRIMARY KEY NOT NULL,
			memory_type TEXT NOT NULL,
			content TEXT NOT NULL,
			summary TEXT NOT NULL,
			confidence REAL NOT NULL,
			importance TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			linked_patterns TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_type ON bridge_memories(memory_type)`,
		`CREATE TABLE IF NOT EXISTS bridge_grounding_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			memory_id TEXT NOT NULL,
			grounding_score REAL NOT NULL,
			classification TEXT NOT NULL,
			evidence TEXT NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_grounding_results_memory ON bridge_grounding_results(memory_id)`,
		`CREATE TABLE IF NOT EXISTS bridge_grounding_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			total_memories INTEGER NOT NULL,
			grounded_count INTEGER NOT NULL,
			validated_count INTEGER NOT NULL,
			partial_count INTEGER NOT NULL,
			weak_count INTEGER NOT NULL,
			invalidated_count INTEGER NOT NULL,
			avg_score REAL NOT NULL DEFAULT 0.0,
			error_count INTEGER NOT NULL DEFAULT 0,
			trigger_type TEXT,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
		`CREATE TABLE IF NOT EXISTS bridge_event_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			memory_type TEXT,
			memory_id TEXT,
			confidence REAL,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_log_type ON bridge_event_log(event_type)`,
		`CREATE TABLE IF NOT EXISTS bridge_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			metric_name TEXT NOT NULL,
			metric_value REAL NOT NULL,
			recorded_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_name ON bridge_metrics(metric_name)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bridge tables: %w", err)
		}
	}
	return nil
}
