package causal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/types"
)

func (s *Store) insert(ctx context.Context, e *types.CausalEdge) error {
	evidence, err := json.Marshal(e.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO causal_edges (id, from_memory_id, to_memory_id, relation, strength, evidence, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.From, e.To, string(e.Relation), e.Strength, string(evidence), e.Timestamp.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) allEdges(ctx context.Context) ([]*types.CausalEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_memory_id, to_memory_id, relation, strength, evidence, timestamp
		FROM causal_edges`)
	if err != nil {
		return nil, fmt.Errorf("query causal edges: %w", err)
	}
	defer rows.Close()

	var out []*types.CausalEdge
	for rows.Next() {
		var e types.CausalEdge
		var relation, evidence, ts string
		if err := rows.Scan(&e.ID, &e.From, &e.To, &relation, &e.Strength, &evidence, &ts); err != nil {
			return nil, fmt.Errorf("scan causal edge: %w", err)
		}
		e.Relation = types.CausalRelation(relation)
		if evidence != "" {
			if err := json.Unmarshal([]byte(evidence), &e.Evidence); err != nil {
				return nil, fmt.Errorf("unmarshal evidence: %w", err)
			}
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		e.Timestamp = parsed
		out = append(out, &e)
	}
	return out, rows.Err()
}

// PruneReport summarizes a Prune call.
type PruneReport struct {
	EdgesRemoved int
	Threshold    float64
}

// Prune deletes every edge with strength < threshold and reports the count
// removed. Idempotent: a second call with the same threshold removes zero.
func (s *Store) Prune(ctx context.Context, threshold float64) (PruneReport, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM causal_edges WHERE strength < ?`, threshold)
	if err != nil {
		return PruneReport{}, fmt.Errorf("causal: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return PruneReport{}, fmt.Errorf("causal: prune: %w", err)
	}
	return PruneReport{EdgesRemoved: int(n), Threshold: threshold}, nil
}
