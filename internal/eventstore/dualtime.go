package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/enginerr"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// RecordLateArrival appends m as a fact the engine is only now learning
// happened in the past: transaction_time is forced to the current instant,
// and valid_time must already be strictly before it. A caller recording
// something true as of right now should use Append/AppendTx directly — this
// path exists specifically to enforce the late-discovery quadrant of the
// bitemporal model, grounded on handle_late_arriving_fact's
// valid_time < transaction_time check.
func (s *Store) RecordLateArrival(ctx context.Context, m *types.Memory, actor types.Actor) (int64, error) {
	now := time.Now().UTC()
	if !m.ValidTime.Before(now) {
		return 0, enginerr.New(enginerr.KindData, "eventstore.RecordLateArrival", "late_arrival_rejected",
			fmt.Errorf("valid_time (%s) must be before transaction_time (%s)",
				m.ValidTime.Format(time.RFC3339), now.Format(time.RFC3339))).WithEntity(m.ID)
	}
	m.TransactionTime = now
	return s.appendCreated(ctx, m, actor, now)
}

// RecordFutureClaim appends m as a claim about something that will become
// true after it is recorded (valid_time after transaction_time). Disabled
// unless cfg.AllowFutureClaims is set — most hosts never need this path,
// and it is off by default so a caller can't silently backdoor validation
// meant for the late-arrival case.
func (s *Store) RecordFutureClaim(ctx context.Context, cfg config.TemporalConfig, m *types.Memory, actor types.Actor) (int64, error) {
	if !cfg.AllowFutureClaims {
		return 0, enginerr.ErrFutureClaimDisallowed.WithEntity(m.ID)
	}
	now := time.Now().UTC()
	if !m.ValidTime.After(now) {
		return 0, fmt.Errorf("eventstore: RecordFutureClaim: valid_time (%s) must be after transaction_time (%s)",
			m.ValidTime.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	m.TransactionTime = now
	return s.appendCreated(ctx, m, actor, now)
}

func (s *Store) appendCreated(ctx context.Context, m *types.Memory, actor types.Actor, recordedAt time.Time) (int64, error) {
	delta, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("eventstore: marshal dual-time memory: %w", err)
	}
	return s.Append(ctx, &types.MemoryEvent{
		MemoryID:   m.ID,
		Kind:       types.EventCreated,
		Delta:      delta,
		Actor:      actor,
		RecordedAt: recordedAt,
	})
}
