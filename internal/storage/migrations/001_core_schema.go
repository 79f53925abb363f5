// Package migrations holds the engine's forward-only, idempotent schema
// migrations: each migration checks current state before applying, so
// re-running Migrate is a no-op.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// CoreSchema creates the memories table: the bitemporal record store. Events
// and snapshots (002, 003) are what make a memory's history reconstructible;
// this table is a write-through projection of the latest state applied at
// append time (see eventstore.Store.projectTx), kept only for fast
// current-state reads — it is never the system of record on its own.
func CoreSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			content BLOB,
			summary TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL DEFAULT 0,
			importance INTEGER NOT NULL DEFAULT 1,
			namespace TEXT NOT NULL DEFAULT 'default',
			source_agent TEXT NOT NULL DEFAULT '',
			transaction_time TEXT NOT NULL,
			valid_time TEXT NOT NULL,
			valid_until TEXT,
			content_hash TEXT NOT NULL DEFAULT '',
			archived INTEGER NOT NULL DEFAULT 0,
			supersedes TEXT,
			superseded_by TEXT,
			tags TEXT NOT NULL DEFAULT '[]',
			links TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_namespace ON memories(namespace)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_kind ON memories(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_valid_time ON memories(valid_time, valid_until)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_transaction_time ON memories(transaction_time)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_archived ON memories(archived)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("core schema: %w", err)
		}
	}
	return nil
}
