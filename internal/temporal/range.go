package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// RangeMode is the fixed Allen-algebra vocabulary for QueryRange.
type RangeMode string

const (
	RangeOverlaps      RangeMode = "overlaps"
	RangeContains      RangeMode = "contains"
	RangeStartedDuring RangeMode = "started-during"
	RangeEndedDuring   RangeMode = "ended-during"
)

// matches implements the fixed SQL-equivalent predicate for each mode,
// given a memory's [valid_time, valid_until) interval (valid_until nil
// means "still open", treated as +inf) against the query window [from, to].
func (mode RangeMode) matches(validTime time.Time, validUntil *time.Time, from, to time.Time) bool {
	open := func(t time.Time) bool { return t.Before(to) }
	end := func() time.Time {
		if validUntil == nil {
			return time.Unix(1<<62, 0) // treated as +inf for comparisons below
		}
		return *validUntil
	}
	untilOrInf := end()

	switch mode {
	case RangeOverlaps:
		// Interval overlaps [from, to) if it starts before to and ends after from.
		return validTime.Before(to) && (validUntil == nil || untilOrInf.After(from))
	case RangeContains:
		// The memory's interval fully contains [from, to].
		return !validTime.After(from) && (validUntil == nil || !untilOrInf.Before(to))
	case RangeStartedDuring:
		return !validTime.Before(from) && open(validTime)
	case RangeEndedDuring:
		if validUntil == nil {
			return false
		}
		return !untilOrInf.Before(from) && untilOrInf.Before(to)
	default:
		return false
	}
}

// QueryRange reconstructs all memories as of `to` (the latest instant that
// could possibly match) and keeps those whose [valid_time, valid_until)
// interval satisfies mode against [from, to]. Results are filtered for
// referential integrity at the midpoint of [from, to].
func (q *QueryLayer) QueryRange(ctx context.Context, from, to time.Time, mode RangeMode) ([]*types.Memory, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("temporal: query range: to (%s) before from (%s)", to, from)
	}
	all, err := q.snapshots.ReconstructAllAt(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("temporal: query range: %w", err)
	}

	var matched []*types.Memory
	for _, m := range all {
		if mode.matches(m.ValidTime, m.ValidUntil, from, to) {
			matched = append(matched, m)
		}
	}

	midpoint := from.Add(to.Sub(from) / 2)
	universe, err := q.snapshots.ReconstructAllAt(ctx, midpoint)
	if err != nil {
		return nil, fmt.Errorf("temporal: query range: midpoint universe: %w", err)
	}
	return EnforceReferentialIntegrityAgainst(matched, universe), nil
}
