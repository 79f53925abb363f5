package temporal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ruizrica/drift-sub006/internal/causal"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// RelevanceRanker scores a candidate memory's semantic relevance to a
// decision's topic in [0,1]. The real implementation is an embedding
// provider, an out-of-scope external collaborator (spec §1); DefaultRanker
// below is a deterministic stand-in used when none is configured.
type RelevanceRanker interface {
	Relevance(decision *types.Memory, candidate *types.Memory) float64
}

// DefaultRanker scores relevance by Jaccard overlap of tags, a cheap
// stand-in that needs no embedding collaborator. Callers wanting real
// semantic ranking should supply their own RelevanceRanker.
type DefaultRanker struct{}

func (DefaultRanker) Relevance(decision, candidate *types.Memory) float64 {
	if len(decision.Tags) == 0 || len(candidate.Tags) == 0 {
		return 0
	}
	want := make(map[string]bool, len(decision.Tags))
	for _, t := range decision.Tags {
		want[t] = true
	}
	var shared int
	union := make(map[string]bool, len(decision.Tags)+len(candidate.Tags))
	for _, t := range decision.Tags {
		union[t] = true
	}
	for _, t := range candidate.Tags {
		union[t] = true
		if want[t] {
			shared++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(shared) / float64(len(union))
}

// HindsightRelationship classifies how a post-decision memory relates to the
// decision being replayed.
type HindsightRelationship string

const (
	HindsightContradicts        HindsightRelationship = "contradicts"
	HindsightWouldHaveInformed  HindsightRelationship = "would-have-informed"
	HindsightSupersedes         HindsightRelationship = "supersedes"
	HindsightSupports           HindsightRelationship = "supports"
)

// HindsightItem is one piece of knowledge that didn't exist at decision time
// but is relevant now.
type HindsightItem struct {
	Memory       *types.Memory
	Relevance    float64
	Relationship HindsightRelationship
}

// CausalGraphSnapshot is a serializable view of the causal graph restricted
// to nodes present at a specific instant.
type CausalGraphSnapshot struct {
	Nodes []string
	Edges []*types.CausalEdge
}

// DecisionReplay is the full result of ReplayDecision.
type DecisionReplay struct {
	Decision         *types.Memory
	AvailableContext []*types.Memory
	RetrievedContext []*types.Memory
	CausalState      CausalGraphSnapshot
	Hindsight        []HindsightItem
}

// ReplayDecision reconstructs decisionID as it was at its own creation time,
// every memory that existed at that instant, the subset a retriever bounded
// by retrievalBudget would have surfaced (most important first), the causal
// graph restricted to nodes present then, and a hindsight list of memories
// created afterward, ranked by relevance via ranker (DefaultRanker if nil).
func (q *QueryLayer) ReplayDecision(ctx context.Context, decisionID string, retrievalBudget int, graph *causal.Store, ranker RelevanceRanker) (*DecisionReplay, error) {
	if ranker == nil {
		ranker = DefaultRanker{}
	}

	history, err := q.snapshots.ReconstructAllAt(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("temporal: replay decision: %w", err)
	}
	var decisionNow *types.Memory
	for _, m := range history {
		if m.ID == decisionID {
			decisionNow = m
		}
	}
	if decisionNow == nil {
		return nil, fmt.Errorf("temporal: replay decision: no such memory %q", decisionID)
	}
	creationTime := decisionNow.TransactionTime

	decisionAtCreation, err := q.snapshots.ReconstructAt(ctx, decisionID, creationTime)
	if err != nil {
		return nil, fmt.Errorf("temporal: replay decision: reconstruct decision: %w", err)
	}

	available, err := q.snapshots.ReconstructAllAt(ctx, creationTime)
	if err != nil {
		return nil, fmt.Errorf("temporal: replay decision: reconstruct available context: %w", err)
	}
	available = EnforceReferentialIntegrity(available)

	retrieved := append([]*types.Memory(nil), available...)
	sort.Slice(retrieved, func(i, j int) bool {
		if retrieved[i].Importance != retrieved[j].Importance {
			return retrieved[i].Importance > retrieved[j].Importance
		}
		return retrieved[i].Confidence > retrieved[j].Confidence
	})
	if retrievalBudget > 0 && retrievalBudget < len(retrieved) {
		retrieved = retrieved[:retrievalBudget]
	}

	var causalState CausalGraphSnapshot
	if graph != nil {
		g, err := graph.LoadAsOf(ctx, creationTime)
		if err != nil {
			return nil, fmt.Errorf("temporal: replay decision: causal state: %w", err)
		}
		present := make(map[string]bool, len(available))
		for _, m := range available {
			present[m.ID] = true
		}
		for _, m := range available {
			causalState.Nodes = append(causalState.Nodes, m.ID)
		}
		for _, e := range g.Edges() {
			if present[e.From] && present[e.To] {
				causalState.Edges = append(causalState.Edges, e)
			}
		}
	}

	present := make(map[string]bool, len(available))
	for _, m := range available {
		present[m.ID] = true
	}
	var hindsight []HindsightItem
	for _, m := range history {
		if present[m.ID] {
			continue
		}
		if !m.TransactionTime.After(creationTime) {
			continue
		}
		relevance := ranker.Relevance(decisionAtCreation, m)
		hindsight = append(hindsight, HindsightItem{
			Memory:       m,
			Relevance:    relevance,
			Relationship: classifyHindsight(decisionID, m),
		})
	}
	sort.Slice(hindsight, func(i, j int) bool { return hindsight[i].Relevance > hindsight[j].Relevance })

	return &DecisionReplay{
		Decision:         decisionAtCreation,
		AvailableContext: available,
		RetrievedContext: retrieved,
		CausalState:      causalState,
		Hindsight:        hindsight,
	}, nil
}

func classifyHindsight(decisionID string, m *types.Memory) HindsightRelationship {
	if m.Supersedes == decisionID {
		return HindsightSupersedes
	}
	if m.Kind == types.KindFeedback && hasContradictsTag(m) {
		return HindsightContradicts
	}
	if m.Kind == types.KindFeedback || m.Kind == types.KindTribal {
		return HindsightSupports
	}
	return HindsightWouldHaveInformed
}
