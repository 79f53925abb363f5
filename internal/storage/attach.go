package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// AttachGuard ATTACHes an external SQLite database under an alias for the
// duration of its lifetime and DETACHes it on Close, mirroring the
// teacher's AccessLock RAII pattern (acquire on construction, release on
// Close, safe to call Close more than once).
type AttachGuard struct {
	conn  *sql.Conn
	alias string
	closed bool
}

// Attach opens a dedicated connection from db (so ATTACH/DETACH land on the
// same connection — database/sql's pool would otherwise hand raw SQL to a
// different connection than subsequent queries) and attaches sourcePath
// under alias.
func Attach(ctx context.Context, db *sql.DB, sourcePath, alias string) (*AttachGuard, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: attach: acquire connection: %w", err)
	}
	stmt := fmt.Sprintf("ATTACH DATABASE %s AS %s", quoteSQLiteString(sourcePath), alias)
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("storage: attach %s as %s: %w", sourcePath, alias, err)
	}
	return &AttachGuard{conn: conn, alias: alias}, nil
}

// Conn returns the dedicated connection carrying the attached database, for
// issuing cross-database queries (e.g. "SELECT ... FROM analysis.events").
func (g *AttachGuard) Conn() *sql.Conn { return g.conn }

// Close detaches the database and releases the dedicated connection. Safe
// to call more than once.
func (g *AttachGuard) Close() error {
	if g == nil || g.closed {
		return nil
	}
	g.closed = true
	_, detachErr := g.conn.ExecContext(context.Background(), fmt.Sprintf("DETACH DATABASE %s", g.alias))
	closeErr := g.conn.Close()
	if detachErr != nil {
		return fmt.Errorf("storage: detach %s: %w", g.alias, detachErr)
	}
	return closeErr
}

func quoteSQLiteString(s string) string {
	escaped := ""
	for _, r := range s {
		if r == '\'' {
			escaped += "''"
		} else {
			escaped += string(r)
		}
	}
	return "'" + escaped + "'"
}
