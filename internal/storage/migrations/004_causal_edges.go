package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// CausalEdges creates the directed, typed, weighted causal graph edges
// table. Only a subset of relation kinds are cycle-checked on insert (see
// types.CausalRelation.IsCausal); the schema itself stays relation-agnostic.
func CausalEdges(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS causal_edges (
			id TEXT PRIMARY KEY,
			from_memory_id TEXT NOT NULL,
			to_memory_id TEXT NOT NULL,
			relation TEXT NOT NULL,
			strength REAL NOT NULL DEFAULT 0,
			evidence TEXT NOT NULL DEFAULT '[]',
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_causal_edges_from ON causal_edges(from_memory_id)`,
		`CREATE INDEX IF NOT EXISTS idx_causal_edges_to ON causal_edges(to_memory_id)`,
		`CREATE INDEX IF NOT EXISTS idx_causal_edges_relation ON causal_edges(relation)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("causal edges: %w", err)
		}
	}
	return nil
}
