package bridge

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/storage"
)

// AnalysisAlias is the schema alias the bridge attaches the analysis store
// under when running in "attach" transport mode, e.g. "analysis.patterns".
const AnalysisAlias = "analysis"

// Transport is a read-only handle to the external analysis store, opened
// either by ATTACHing a second SQLite file onto the engine's writer
// connection, or by dialing a separate MySQL instance.
type Transport struct {
	kind    string
	guard   *storage.AttachGuard
	mysqlDB *sql.DB
}

// OpenTransport opens the analysis store per cfg.Transport ("attach" uses
// engineDB's ATTACH mechanism against cfg.DSN as a file path; "mysql" dials
// cfg.DSN as a standard MySQL DSN).
func OpenTransport(ctx context.Context, cfg config.BridgeConfig, engineDB *sql.DB) (*Transport, error) {
	switch cfg.Transport {
	case "mysql":
		db, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("bridge: open mysql transport: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bridge: ping mysql transport: %w", err)
		}
		return &Transport{kind: "mysql", mysqlDB: db}, nil
	default:
		guard, err := storage.Attach(ctx, engineDB, cfg.DSN, AnalysisAlias)
		if err != nil {
			return nil, fmt.Errorf("bridge: open attach transport: %w", err)
		}
		return &Transport{kind: "attach", guard: guard}, nil
	}
}

// Ping verifies the analysis store still answers.
func (t *Transport) Ping(ctx context.Context) error {
	var one int
	switch t.kind {
	case "mysql":
		return t.mysqlDB.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	default:
		return t.guard.Conn().QueryRowContext(ctx, "SELECT 1").Scan(&one)
	}
}

// QueryContext issues a read against the analysis store over whichever
// connection the transport holds. SQLite attach queries use the
// AnalysisAlias-prefixed table name (e.g. "analysis.patterns"); MySQL
// queries use the bare table name.
func (t *Transport) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	switch t.kind {
	case "mysql":
		return t.mysqlDB.QueryContext(ctx, query, args...)
	default:
		return t.guard.Conn().QueryContext(ctx, query, args...)
	}
}

// TableName qualifies a bare analysis-store table name for this transport's
// query dialect: attach mode needs the AnalysisAlias prefix, mysql mode
// addresses the table directly against its own database.
func (t *Transport) TableName(table string) string {
	if t.kind == "mysql" {
		return table
	}
	return AnalysisAlias + "." + table
}

// Close releases the transport's connection (DETACHing in attach mode,
// closing the pool in mysql mode). Safe to call once.
func (t *Transport) Close() error {
	switch t.kind {
	case "mysql":
		return t.mysqlDB.Close()
	default:
		return t.guard.Close()
	}
}
