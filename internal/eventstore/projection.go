package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// queryRower is satisfied by both *sql.DB and *sql.Tx, so loadProjection can
// run against a read pool for CurrentState or against an in-flight
// transaction for the append-time write-through.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CurrentState reads memoryID's row from the memories table directly — the
// fast path for "give me the current state", skipping snapshot lookup and
// event replay entirely. Returns nil if the memory has no projected row.
func (s *Store) CurrentState(ctx context.Context, memoryID string) (*types.Memory, error) {
	return loadProjection(ctx, s.db.Reader(), memoryID)
}

// projectTx keeps the memories table's row for ev.MemoryID in lockstep with
// the event being appended in the same transaction: load the current
// projection (or an empty shell if this is the first event), apply ev onto
// it, and upsert the result.
func (s *Store) projectTx(ctx context.Context, tx *sql.Tx, ev *types.MemoryEvent) error {
	if ev.MemoryID == "" {
		return nil
	}
	prev, err := loadProjection(ctx, tx, ev.MemoryID)
	if err != nil {
		return err
	}
	if prev == nil {
		prev = emptyShell(ev.MemoryID, ev.RecordedAt)
	}
	next := Apply(prev, ev)
	if next == nil {
		return nil
	}
	return writeProjection(ctx, tx, next)
}

func loadProjection(ctx context.Context, q queryRower, memoryID string) (*types.Memory, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, kind, content, summary, confidence, importance, namespace, source_agent,
			transaction_time, valid_time, valid_until, content_hash, archived,
			supersedes, superseded_by, tags, links
		FROM memories WHERE id = ?`, memoryID)

	var (
		m                                    types.Memory
		content                              []byte
		kind                                 string
		txTime, validTime                    string
		validUntil, supersedes, supersededBy sql.NullString
		tagsJSON, linksJSON                  string
		archived                             int
	)
	if err := row.Scan(&m.ID, &kind, &content, &m.Summary, &m.Confidence, &m.Importance,
		&m.Namespace, &m.SourceAgent, &txTime, &validTime, &validUntil, &m.ContentHash,
		&archived, &supersedes, &supersededBy, &tagsJSON, &linksJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("eventstore: load projection %s: %w", memoryID, err)
	}
	m.Kind = types.Kind(kind)
	m.Content = types.Content(content)
	m.Archived = archived != 0
	if supersedes.Valid {
		m.Supersedes = supersedes.String
	}
	if supersededBy.Valid {
		m.SupersededBy = supersededBy.String
	}

	t, err := time.Parse(time.RFC3339Nano, txTime)
	if err != nil {
		return nil, fmt.Errorf("eventstore: parse transaction_time: %w", err)
	}
	m.TransactionTime = t
	v, err := time.Parse(time.RFC3339Nano, validTime)
	if err != nil {
		return nil, fmt.Errorf("eventstore: parse valid_time: %w", err)
	}
	m.ValidTime = v
	if validUntil.Valid && validUntil.String != "" {
		vu, err := time.Parse(time.RFC3339Nano, validUntil.String)
		if err != nil {
			return nil, fmt.Errorf("eventstore: parse valid_until: %w", err)
		}
		m.ValidUntil = &vu
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
		return nil, fmt.Errorf("eventstore: parse tags: %w", err)
	}
	if err := json.Unmarshal([]byte(linksJSON), &m.Links); err != nil {
		return nil, fmt.Errorf("eventstore: parse links: %w", err)
	}
	return &m, nil
}

// writeProjection upserts m's full state into the memories table.
func writeProjection(ctx context.Context, tx *sql.Tx, m *types.Memory) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("eventstore: marshal tags: %w", err)
	}
	links, err := json.Marshal(m.Links)
	if err != nil {
		return fmt.Errorf("eventstore: marshal links: %w", err)
	}
	var validUntil interface{}
	if m.ValidUntil != nil {
		validUntil = m.ValidUntil.UTC().Format(time.RFC3339Nano)
	}
	namespace := m.Namespace
	if namespace == "" {
		namespace = "default"
	}
	archived := 0
	if m.Archived {
		archived = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (id, kind, content, summary, confidence, importance, namespace,
			source_agent, transaction_time, valid_time, valid_until, content_hash, archived,
			supersedes, superseded_by, tags, links)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, content=excluded.content, summary=excluded.summary,
			confidence=excluded.confidence, importance=excluded.importance,
			namespace=excluded.namespace, source_agent=excluded.source_agent,
			transaction_time=excluded.transaction_time, valid_time=excluded.valid_time,
			valid_until=excluded.valid_until, content_hash=excluded.content_hash,
			archived=excluded.archived, supersedes=excluded.supersedes,
			superseded_by=excluded.superseded_by, tags=excluded.tags, links=excluded.links`,
		m.ID, string(m.Kind), []byte(m.Content), m.Summary, m.Confidence, int(m.Importance),
		namespace, m.SourceAgent, m.TransactionTime.UTC().Format(time.RFC3339Nano),
		m.ValidTime.UTC().Format(time.RFC3339Nano), validUntil, m.ContentHash, archived,
		nullableString(m.Supersedes), nullableString(m.SupersededBy), string(tags), string(links))
	if err != nil {
		return fmt.Errorf("eventstore: upsert projection: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
