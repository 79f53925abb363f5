package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/causal"
)

// TemporalCausalResult is one node reached by QueryTemporalCausal.
type TemporalCausalResult struct {
	MemoryID     string
	Depth        int
	PathStrength float64
}

// QueryTemporalCausal walks the causal graph restricted to nodes and edges
// that existed at asOf, breadth-first from origin in direction, up to
// maxDepth hops (maxDepth < 0 means unbounded), recording the shallowest
// depth and accumulated path strength at which each node is reached.
func (q *QueryLayer) QueryTemporalCausal(ctx context.Context, graph *causal.Store, origin string, asOf time.Time, direction causal.Direction, maxDepth int) ([]TemporalCausalResult, error) {
	g, err := graph.LoadAsOf(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("temporal: query temporal causal: %w", err)
	}

	existing, err := q.snapshots.ReconstructAllAt(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("temporal: query temporal causal: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, m := range existing {
		present[m.ID] = true
	}
	present[origin] = true // origin may be a node outside the reconstructed memory set (e.g. external entity)
	g = g.RestrictToNodes(present)

	nodes := g.Walk(origin, direction, maxDepth)
	out := make([]TemporalCausalResult, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, TemporalCausalResult{MemoryID: n.MemoryID, Depth: n.Depth, PathStrength: n.PathStrength})
	}
	return out, nil
}
