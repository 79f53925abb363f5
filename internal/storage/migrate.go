package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ruizrica/drift-sub006/internal/storage/migrations"
)

// migration pairs a name (for error messages) with an idempotent function.
// Ordering matters: later migrations may assume earlier tables exist.
type migration struct {
	Name string
	Func func(context.Context, *sql.DB) error
}

// registry is the ordered list of schema migrations, run forward-only on
// every Open. Each entry is idempotent — it checks current state before
// applying.
var registry = []migration{
	{"001_core_schema", migrations.CoreSchema},
	{"002_event_log", migrations.EventLog},
	{"003_snapshots", migrations.Snapshots},
	{"004_causal_edges", migrations.CausalEdges},
	{"005_grounding_records", migrations.GroundingRecords},
	{"006_bridge_state", migrations.BridgeState},
	{"007_bridge_tables", migrations.BridgeTables},
}

// Migrate runs every registered migration against db in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range registry {
		if err := m.Func(ctx, db); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}
	return nil
}
