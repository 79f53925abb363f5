package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/enginerr"
	"github.com/ruizrica/drift-sub006/internal/telemetry"
)

// Store holds the writer connection (MaxOpenConns(1), serializing all
// mutation) and a pooled set of read-only connections — a single-writer,
// multi-reader split appropriate for an embedded database.
type Store struct {
	cfg    config.StorageConfig
	tel    *telemetry.Telemetry
	writer *sql.DB
	reader *sql.DB

	mu       sync.Mutex
	attached map[string]string // attach alias -> source path, for AttachGuard bookkeeping
}

// Open opens the writer and reader pools against the same file and runs
// pending migrations on the writer connection.
func Open(ctx context.Context, cfg config.StorageConfig, tel *telemetry.Telemetry) (*Store, error) {
	writer, err := sql.Open("sqlite", ConnString(cfg.Path, cfg, false))
	if err != nil {
		return nil, enginerr.New(enginerr.KindUnavailable, "storage.Open", "storage_open_failed", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)

	reader, err := sql.Open("sqlite", ConnString(cfg.Path, cfg, true))
	if err != nil {
		_ = writer.Close()
		return nil, enginerr.New(enginerr.KindUnavailable, "storage.Open", "storage_open_failed", err)
	}
	maxReaders := cfg.MaxReaders
	if maxReaders <= 0 {
		maxReaders = 4
	}
	reader.SetMaxOpenConns(maxReaders)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return nil, enginerr.New(enginerr.KindUnavailable, "storage.Open", "storage_ping_failed", err)
	}

	s := &Store{cfg: cfg, tel: tel, writer: writer, reader: reader, attached: map[string]string{}}
	if err := Migrate(ctx, writer); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

// Writer returns the single-connection writer pool. All mutating statements
// go through this handle so SQLite's single-writer model is honored without
// relying on busy_timeout alone.
func (s *Store) Writer() *sql.DB { return s.writer }

// Reader returns the read-only pooled connection, opened with
// PRAGMA query_only so a programming error can never write through it.
func (s *Store) Reader() *sql.DB { return s.reader }

// WithRetry runs fn against the writer, retrying on SQLITE_BUSY with the
// shared backoff policy and recording a retry metric on each extra attempt.
func (s *Store) WithRetry(ctx context.Context, fn func(*sql.DB) error) error {
	attempts := 0
	err := enginerr.RetryBusy(ctx, func() error {
		attempts++
		return fn(s.writer)
	})
	if attempts > 1 && s.tel != nil {
		s.tel.StorageBusyRetries.Add(ctx, int64(attempts-1))
	}
	if err != nil && enginerr.IsBusyError(err) {
		return enginerr.New(enginerr.KindTransient, "storage.WithRetry", "storage_busy", err)
	}
	return err
}

// Close closes both pools. Safe to call once.
func (s *Store) Close() error {
	var errs []error
	if err := s.writer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.reader.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("storage: close: %v", errs)
	}
	return nil
}
