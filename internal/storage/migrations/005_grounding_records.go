package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// GroundingRecords creates the table recording every grounding verdict, one
// row per ground_single / run_grounding_batch member, so later queries can
// compare a memory's current grounding against its history.
func GroundingRecords(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS grounding_records (
			id TEXT PRIMARY KEY,
			memory_id TEXT NOT NULL,
			verdict TEXT NOT NULL,
			grounding_score REAL NOT NULL,
			previous_score REAL,
			score_delta REAL,
			evidence TEXT NOT NULL DEFAULT '[]',
			confidence_adjustment TEXT NOT NULL DEFAULT '{}',
			generates_contradiction INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_grounding_records_memory_id ON grounding_records(memory_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_grounding_records_verdict ON grounding_records(verdict)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("grounding records: %w", err)
		}
	}
	return nil
}
