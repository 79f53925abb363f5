package causal

import (
	"fmt"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// TraversalNode is one memory reached by a graph walk, with its depth from
// the origin and the accumulated path strength (product of edge strengths
// along the path that reached it first).
type TraversalNode struct {
	MemoryID     string
	Depth        int
	PathStrength float64
}

// CounterfactualResult answers "what if this memory did not exist": the
// downstream set of nodes whose edges are actively supported by the origin.
type CounterfactualResult struct {
	MemoryID      string
	AffectedIDs   []string
	MaxDepth      int
	ImpactSummary string
}

// Counterfactual walks forward from memoryID following every outgoing edge
// (any relation — an affected node is one whose support chain runs through
// the origin, regardless of relation type).
func (g *Graph) Counterfactual(memoryID string) CounterfactualResult {
	nodes := g.bfsForward(memoryID, nil, -1)
	var affected []string
	maxDepth := 0
	for _, n := range nodes {
		if n.MemoryID == memoryID {
			continue
		}
		affected = append(affected, n.MemoryID)
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}
	return CounterfactualResult{
		MemoryID:      memoryID,
		AffectedIDs:   affected,
		MaxDepth:      maxDepth,
		ImpactSummary: fmt.Sprintf("removing %s affects %d downstream memories (max depth %d)", memoryID, len(affected), maxDepth),
	}
}

// InterventionResult answers "what if this memory's content changed": the
// forward-propagation set, respecting the rule that a contradicts edge
// does not propagate a change the way a supports edge does.
type InterventionResult struct {
	MemoryID           string
	ImpactedIDs        []string
	MaxDepth           int
	PropagationSummary string
}

// Intervention walks forward from memoryID but stops propagation across
// contradicts edges: a change to the origin does not imply a matching
// change to something that contradicts it.
func (g *Graph) Intervention(memoryID string) InterventionResult {
	blocksPropagation := func(relation types.CausalRelation) bool { return relation == types.RelationContradicts }
	nodes := g.bfsForward(memoryID, blocksPropagation, -1)
	var impacted []string
	maxDepth := 0
	for _, n := range nodes {
		if n.MemoryID == memoryID {
			continue
		}
		impacted = append(impacted, n.MemoryID)
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}
	return InterventionResult{
		MemoryID:           memoryID,
		ImpactedIDs:        impacted,
		MaxDepth:           maxDepth,
		PropagationSummary: fmt.Sprintf("changing %s propagates to %d memories (max depth %d)", memoryID, len(impacted), maxDepth),
	}
}

// NarrativeSection is one hop described for a human-readable narrative.
type NarrativeSection struct {
	MemoryID        string
	Depth           int
	ChainConfidence float64
}

// Narrative produces an ordered list of sections describing origins (walking
// backward) and effects (walking forward) with aggregated chain confidence —
// the product of path strengths to that node.
func (g *Graph) Narrative(memoryID string) (origins []NarrativeSection, effects []NarrativeSection) {
	for _, n := range g.bfsBackward(memoryID, -1) {
		if n.MemoryID == memoryID {
			continue
		}
		origins = append(origins, NarrativeSection{MemoryID: n.MemoryID, Depth: n.Depth, ChainConfidence: n.PathStrength})
	}
	for _, n := range g.bfsForward(memoryID, nil, -1) {
		if n.MemoryID == memoryID {
			continue
		}
		effects = append(effects, NarrativeSection{MemoryID: n.MemoryID, Depth: n.Depth, ChainConfidence: n.PathStrength})
	}
	return origins, effects
}

// bfsForward walks g from origin along outgoing edges, recording the first
// (shallowest) depth and path strength (product of strengths) at which each
// node is reached. If block is non-nil, an edge whose relation satisfies
// block does not extend the walk past it. maxDepth < 0 means unbounded.
func (g *Graph) bfsForward(origin string, block func(relation types.CausalRelation) bool, maxDepth int) []TraversalNode {
	visited := map[string]TraversalNode{origin: {MemoryID: origin, Depth: 0, PathStrength: 1}}
	queue := []string{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curNode := visited[cur]
		if maxDepth >= 0 && curNode.Depth >= maxDepth {
			continue
		}
		for _, e := range g.out[cur] {
			if block != nil && block(e.Relation) {
				continue
			}
			if _, seen := visited[e.To]; seen {
				continue
			}
			visited[e.To] = TraversalNode{
				MemoryID:     e.To,
				Depth:        curNode.Depth + 1,
				PathStrength: curNode.PathStrength * e.Strength,
			}
			queue = append(queue, e.To)
		}
	}
	return flatten(visited)
}

func (g *Graph) bfsBackward(origin string, maxDepth int) []TraversalNode {
	visited := map[string]TraversalNode{origin: {MemoryID: origin, Depth: 0, PathStrength: 1}}
	queue := []string{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curNode := visited[cur]
		if maxDepth >= 0 && curNode.Depth >= maxDepth {
			continue
		}
		for _, e := range g.in[cur] {
			if _, seen := visited[e.From]; seen {
				continue
			}
			visited[e.From] = TraversalNode{
				MemoryID:     e.From,
				Depth:        curNode.Depth + 1,
				PathStrength: curNode.PathStrength * e.Strength,
			}
			queue = append(queue, e.From)
		}
	}
	return flatten(visited)
}

// Direction is the walk direction for temporal-causal traversal.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
	DirectionBoth     Direction = "both"
)

// Walk performs a breadth-first traversal from origin restricted to maxDepth
// hops (maxDepth < 0 means unbounded), following out-edges, in-edges, or
// both depending on direction. Used by temporal-causal queries, which
// further restrict g to the as-of-existing subgraph before calling Walk.
func (g *Graph) Walk(origin string, direction Direction, maxDepth int) []TraversalNode {
	visited := map[string]TraversalNode{origin: {MemoryID: origin, Depth: 0, PathStrength: 1}}
	queue := []string{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curNode := visited[cur]
		if maxDepth >= 0 && curNode.Depth >= maxDepth {
			continue
		}
		var neighbors []struct {
			id       string
			strength float64
		}
		if direction == DirectionForward || direction == DirectionBoth {
			for _, e := range g.out[cur] {
				neighbors = append(neighbors, struct {
					id       string
					strength float64
				}{e.To, e.Strength})
			}
		}
		if direction == DirectionBackward || direction == DirectionBoth {
			for _, e := range g.in[cur] {
				neighbors = append(neighbors, struct {
					id       string
					strength float64
				}{e.From, e.Strength})
			}
		}
		for _, nb := range neighbors {
			if _, seen := visited[nb.id]; seen {
				continue
			}
			visited[nb.id] = TraversalNode{
				MemoryID:     nb.id,
				Depth:        curNode.Depth + 1,
				PathStrength: curNode.PathStrength * nb.strength,
			}
			queue = append(queue, nb.id)
		}
	}
	return flatten(visited)
}

func flatten(visited map[string]TraversalNode) []TraversalNode {
	out := make([]TraversalNode, 0, len(visited))
	for _, n := range visited {
		out = append(out, n)
	}
	return out
}
