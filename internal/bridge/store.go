package bridge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// Store persists the bridge's own view of translated memories and its
// operational bookkeeping — grounding results, grounding snapshots, an
// event log, and metrics — separately from the engine's primary tables, per
// spec §6's bridge-store schema.
type Store struct {
	db *sql.DB
}

// NewStore wraps db (the engine's writer pool; the bridge tables live
// alongside the engine's own schema) for bridge-local persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func importanceLabel(i types.Importance) string {
	switch i {
	case types.ImportanceLow:
		return "low"
	case types.ImportanceNormal:
		return "normal"
	case types.ImportanceHigh:
		return "high"
	case types.ImportanceCritical:
		return "critical"
	default:
		return "normal"
	}
}

func linkTargets(links []types.Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l.Type == "pattern" {
			out = append(out, l.Target)
		}
	}
	return out
}

// SaveMemory upserts the bridge's local copy of a translated memory.
func (s *Store) SaveMemory(ctx context.Context, m *types.Memory) error {
	tagsJSON, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("bridge: encode tags: %w", err)
	}
	patternsJSON, err := json.Marshal(linkTargets(m.Links))
	if err != nil {
		return fmt.Errorf("bridge: encode linked patterns: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bridge_memories (id, memory_type, content, summary, confidence, importance, tags, linked_patterns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			memory_type = excluded.memory_type, content = excluded.content, summary = excluded.summary,
			confidence = excluded.confidence, importance = excluded.importance,
			tags = excluded.tags, linked_patterns = excluded.linked_patterns`,
		m.ID, string(m.Kind), string(m.Content), m.Summary, m.Confidence,
		importanceLabel(m.Importance), string(tagsJSON), string(patternsJSON))
	if err != nil {
		return fmt.Errorf("bridge: save memory: %w", err)
	}
	return nil
}

// LogEvent appends a row to the bridge's own event log, independent of the
// analysis event that produced it — this is the bridge's audit trail, not
// the engine's event store.
func (s *Store) LogEvent(ctx context.Context, eventType string, memoryType, memoryID *string, confidence *float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bridge_event_log (event_type, memory_type, memory_id, confidence) VALUES (?, ?, ?, ?)`,
		eventType, memoryType, memoryID, confidence)
	if err != nil {
		return fmt.Errorf("bridge: log event: %w", err)
	}
	return nil
}

// SaveGroundingResult records one memory's grounding outcome for bridge-side
// observability, independent of the engine's own grounding_records table.
func (s *Store) SaveGroundingResult(ctx context.Context, memoryID string, score float64, classification string, evidence []types.Evidence) error {
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		return fmt.Errorf("bridge: encode evidence: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bridge_grounding_results (memory_id, grounding_score, classification, evidence)
		VALUES (?, ?, ?, ?)`,
		memoryID, score, classification, string(evidenceJSON))
	if err != nil {
		return fmt.Errorf("bridge: save grounding result: %w", err)
	}
	return nil
}

// SaveGroundingSnapshot records one batch grounding run's tallies.
func (s *Store) SaveGroundingSnapshot(ctx context.Context, snap *types.GroundingSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bridge_grounding_snapshots
			(total_memories, grounded_count, validated_count, partial_count, weak_count, invalidated_count, avg_score, error_count, trigger_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.TotalChecked+snap.NotGroundable, snap.TotalChecked, snap.Validated, snap.Partial,
		snap.Weak, snap.Invalidated, snap.AvgGroundingScore, snap.ErrorCount, string(snap.Trigger))
	if err != nil {
		return fmt.Errorf("bridge: save grounding snapshot: %w", err)
	}
	return nil
}

// RecordMetric appends one observation of a named metric.
func (s *Store) RecordMetric(ctx context.Context, name string, value float64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO bridge_metrics (metric_name, metric_value) VALUES (?, ?)`, name, value)
	if err != nil {
		return fmt.Errorf("bridge: record metric: %w", err)
	}
	return nil
}

// PruneMetrics deletes bridge_metrics rows older than retention, exempting
// any row named "schema_version" per spec §6.
func (s *Store) PruneMetrics(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bridge_metrics WHERE recorded_at < ? AND metric_name != 'schema_version'`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("bridge: prune metrics: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the bridge store's connection still answers.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
