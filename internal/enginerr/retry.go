package enginerr

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsBusyError reports whether err looks like a SQLite SQLITE_BUSY /
// SQLITE_LOCKED condition surfaced by modernc.org/sqlite, which doesn't
// expose a typed sentinel the way mattn/go-sqlite3 does.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "SQLITE_BUSY") || strings.Contains(s, "SQLITE_LOCKED") ||
		strings.Contains(s, "database is locked")
}

// RetryBusy runs fn, retrying with exponential backoff while it returns a
// busy/locked error. modernc.org/sqlite's busy_timeout PRAGMA handles most
// short contention windows on its own; this covers the remainder for the
// storage layer's single-connection writer (storage.Store.WithRetry).
func RetryBusy(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	bctx := backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if IsBusyError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, bctx)
}
