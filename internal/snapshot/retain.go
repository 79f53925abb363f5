package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/config"
)

// RetainResult reports the outcome of one Retain sweep.
type RetainResult struct {
	ThinnedToMonthly int64
	Pruned           int64
}

// Retain applies tiered snapshot retention per spec §6's temporal keys:
// snapshots younger than FullRetentionDays are kept at full resolution;
// between FullRetentionDays and MonthlyRetentionDays, only the single
// newest snapshot per memory per calendar month survives; older than
// MonthlyRetentionDays, snapshots are pruned entirely (the event log,
// compacted separately, remains the source of truth if reconstruction is
// ever needed that far back).
func (s *Store) Retain(ctx context.Context, cfg config.TemporalConfig, now time.Time) (RetainResult, error) {
	var result RetainResult
	fullCutoff := now.AddDate(0, 0, -cfg.FullRetentionDays)
	monthlyCutoff := now.AddDate(0, 0, -cfg.MonthlyRetentionDays)

	err := s.db.WithRetry(ctx, func(db *sql.DB) error {
		thinned, err := thinToMonthly(ctx, db, monthlyCutoff, fullCutoff)
		if err != nil {
			return err
		}
		result.ThinnedToMonthly = thinned

		pruned, err := pruneOlderThan(ctx, db, monthlyCutoff)
		if err != nil {
			return err
		}
		result.Pruned = pruned
		return nil
	})
	return result, err
}

// thinToMonthly deletes every snapshot in [monthlyCutoff, fullCutoff) except
// the newest one per (memory_id, year-month) bucket.
func thinToMonthly(ctx context.Context, db *sql.DB, monthlyCutoff, fullCutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE snapshot_at >= ? AND snapshot_at < ?
		  AND snapshot_id NOT IN (
			SELECT snapshot_id FROM (
				SELECT snapshot_id,
				       ROW_NUMBER() OVER (
				         PARTITION BY memory_id, strftime('%Y-%m', snapshot_at)
				         ORDER BY event_id DESC
				       ) AS rn
				FROM snapshots
				WHERE snapshot_at >= ? AND snapshot_at < ?
			) WHERE rn = 1
		  )`,
		monthlyCutoff.UTC().Format(time.RFC3339Nano), fullCutoff.UTC().Format(time.RFC3339Nano),
		monthlyCutoff.UTC().Format(time.RFC3339Nano), fullCutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("snapshot: thin to monthly: %w", err)
	}
	return res.RowsAffected()
}

func pruneOlderThan(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM snapshots WHERE snapshot_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("snapshot: prune: %w", err)
	}
	return res.RowsAffected()
}
