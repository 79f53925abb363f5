package grounding

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// History persists and retrieves grounding_records rows, giving each
// grounding pass access to a memory's previous score for trend detection.
type History struct {
	db *storage.Store
}

// NewHistory builds a History over db.
func NewHistory(db *storage.Store) *History { return &History{db: db} }

// Previous returns the grounding_score of the most recent record for
// memoryID, or nil if the memory has never been grounded before.
func (h *History) Previous(ctx context.Context, memoryID string) (*float64, error) {
	var score float64
	row := h.db.Reader().QueryRowContext(ctx, `
		SELECT grounding_score FROM grounding_records
		WHERE memory_id = ? ORDER BY created_at DESC LIMIT 1`, memoryID)
	switch err := row.Scan(&score); {
	case err == nil:
		return &score, nil
	case err == sql.ErrNoRows:
		return nil, nil
	default:
		return nil, fmt.Errorf("grounding: query previous score: %w", err)
	}
}

// Insert persists record.
func (h *History) Insert(ctx context.Context, record *types.GroundingRecord) error {
	evidence, err := json.Marshal(record.Evidence)
	if err != nil {
		return fmt.Errorf("grounding: encode evidence: %w", err)
	}
	adjustment, err := json.Marshal(record.ConfidenceAdjustment)
	if err != nil {
		return fmt.Errorf("grounding: encode adjustment: %w", err)
	}
	return h.db.WithRetry(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO grounding_records
				(id, memory_id, verdict, grounding_score, previous_score, score_delta,
				 evidence, confidence_adjustment, generates_contradiction, duration_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, record.MemoryID, string(record.Verdict), record.GroundingScore,
			record.PreviousScore, record.ScoreDelta, string(evidence), string(adjustment),
			boolToInt(record.GeneratesContradiction), record.DurationMS, time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
