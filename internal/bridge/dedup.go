package bridge

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// Hash computes dedup_hash = H(event_type || entity_id || extra_fields).
// Two events with the same type and entity but different extra_fields are
// deliberately not the same hash — the bridge treats a changed payload as a
// fresh event even if type and entity match.
func Hash(ev AnalysisEvent) string {
	h := sha256.New()
	h.Write([]byte(ev.EventType))
	h.Write([]byte{0})
	h.Write([]byte(ev.EntityID))
	h.Write([]byte{0})
	h.Write(ev.ExtraFields)
	return hex.EncodeToString(h.Sum(nil))
}

// Dedup suppresses re-ingestion of an event already seen within window. The
// in-memory set is authoritative within a process; when db is non-nil, the
// bridge_dedup table backs it so dedup survives a restart within window.
type Dedup struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	db     *sql.DB
}

// NewDedup builds a Dedup with the given time window. db may be nil for a
// purely in-memory, per-process dedup set.
func NewDedup(window time.Duration, db *sql.DB) *Dedup {
	return &Dedup{seen: make(map[string]time.Time), window: window, db: db}
}

// Seen reports whether hash was already observed within window, checking
// the in-memory set first and falling back to the persisted table.
func (d *Dedup) Seen(ctx context.Context, hash string) (bool, error) {
	d.mu.Lock()
	d.evictLocked()
	if _, ok := d.seen[hash]; ok {
		d.mu.Unlock()
		return true, nil
	}
	d.mu.Unlock()

	if d.db == nil {
		return false, nil
	}
	var seenAt string
	err := d.db.QueryRowContext(ctx, `SELECT seen_at FROM bridge_dedup WHERE hash = ?`, hash).Scan(&seenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t, err := time.Parse(time.RFC3339Nano, seenAt)
	if err != nil {
		return false, err
	}
	if time.Since(t) >= d.window {
		return false, nil
	}
	d.mu.Lock()
	d.seen[hash] = t
	d.mu.Unlock()
	return true, nil
}

// Mark records hash as seen now, in memory and (if configured) persisted.
func (d *Dedup) Mark(ctx context.Context, hash string) error {
	now := time.Now().UTC()
	d.mu.Lock()
	d.seen[hash] = now
	d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO bridge_dedup (hash, seen_at) VALUES (?, ?)
		ON CONFLICT(hash) DO UPDATE SET seen_at = excluded.seen_at`,
		hash, now.Format(time.RFC3339Nano))
	return err
}

// evictLocked drops in-memory entries older than window. Caller holds mu.
func (d *Dedup) evictLocked() {
	cutoff := time.Now().Add(-d.window)
	for h, t := range d.seen {
		if t.Before(cutoff) {
			delete(d.seen, h)
		}
	}
}
