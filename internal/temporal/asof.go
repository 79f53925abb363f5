package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// QueryLayer answers temporal queries by reconstructing state through the
// snapshot engine; it holds no storage state of its own.
type QueryLayer struct {
	snapshots *snapshot.Store
}

// New builds a QueryLayer over snapshots.
func New(snapshots *snapshot.Store) *QueryLayer {
	return &QueryLayer{snapshots: snapshots}
}

// QueryAsOf answers "what was recorded by systemTime and considered true at
// validTime": reconstruct every memory with any event at or before
// systemTime, keep those live at validTime, apply filter, and enforce
// referential integrity over the surviving set.
func (q *QueryLayer) QueryAsOf(ctx context.Context, systemTime, validTime time.Time, filter Filter) ([]*types.Memory, error) {
	all, err := q.snapshots.ReconstructAllAt(ctx, systemTime)
	if err != nil {
		return nil, fmt.Errorf("temporal: query as of: %w", err)
	}

	var matched []*types.Memory
	for _, m := range all {
		if !m.LiveAt(validTime) {
			continue
		}
		if !filter.Matches(m) {
			continue
		}
		matched = append(matched, m)
	}
	return EnforceReferentialIntegrity(matched), nil
}
