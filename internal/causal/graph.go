// Package causal implements the in-memory causal graph overlay: a directed,
// typed, weighted graph over memory IDs supporting cycle-safe insertion and
// counterfactual/intervention/narrative traversals. Nodes are plain string
// IDs — never shared pointers into memory records — matching the "no shared
// mutable references between graph nodes" discipline the storage layer
// follows elsewhere.
package causal

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// Graph is a rebuildable in-memory adjacency-list view over causal_edges.
// It is not safe for concurrent mutation; callers serialize writes through
// the owning Store.
type Graph struct {
	edges   []*types.CausalEdge
	out     map[string][]*types.CausalEdge // from -> edges
	in      map[string][]*types.CausalEdge // to -> edges
}

func newGraph(edges []*types.CausalEdge) *Graph {
	g := &Graph{
		edges: edges,
		out:   make(map[string][]*types.CausalEdge),
		in:    make(map[string][]*types.CausalEdge),
	}
	for _, e := range edges {
		g.out[e.From] = append(g.out[e.From], e)
		g.in[e.To] = append(g.in[e.To], e)
	}
	return g
}

// wouldCycle reports whether adding an edge from -> to among the causal-only
// subgraph would create a cycle: true iff to can already reach from.
func (g *Graph) wouldCycle(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{}
	stack := []string{to}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == from {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		for _, e := range g.out[n] {
			if !e.Relation.IsCausal() {
				continue
			}
			stack = append(stack, e.To)
		}
	}
	return false
}

// Store persists causal edges and rebuilds a Graph view from them on demand.
type Store struct {
	db *sql.DB
}

// New builds a causal Store over db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping verifies the causal store's underlying connection still answers,
// for use by the engine's subsystem health checks.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// AddEdge inserts a new causal edge. If relation.IsCausal(), the edge is
// refused with an error when it would close a cycle in the causal-only
// subgraph (topological check), per spec.md §4.5's insertion rule.
func (s *Store) AddEdge(ctx context.Context, from, to string, relation types.CausalRelation, strength float64, evidence []string) (*types.CausalEdge, error) {
	if relation.IsCausal() {
		g, err := s.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("causal: add edge: %w", err)
		}
		if g.wouldCycle(from, to) {
			return nil, fmt.Errorf("causal: add edge: %s -> %s (%s) would create a cycle", from, to, relation)
		}
	}

	edge := &types.CausalEdge{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Relation:  relation,
		Strength:  clamp01(strength),
		Evidence:  evidence,
		Timestamp: time.Now().UTC(),
	}
	if err := s.insert(ctx, edge); err != nil {
		return nil, fmt.Errorf("causal: add edge: %w", err)
	}
	return edge, nil
}

// AddGroundingEdge applies the edge-creation policy for a grounding result:
// strength = score, relation = supports if score >= 0.4 else contradicts.
func (s *Store) AddGroundingEdge(ctx context.Context, memoryID, groundingMemoryID string, score float64) (*types.CausalEdge, error) {
	relation := types.RelationContradicts
	if score >= 0.4 {
		relation = types.RelationSupports
	}
	return s.AddEdge(ctx, memoryID, groundingMemoryID, relation, score, nil)
}

// AddCorrectionEdge applies the edge-creation policy for a correction caused
// by an upstream module: strength defaults to 0.8.
func (s *Store) AddCorrectionEdge(ctx context.Context, upstreamID, correctionID string, relation types.CausalRelation) (*types.CausalEdge, error) {
	return s.AddEdge(ctx, upstreamID, correctionID, relation, 0.8, nil)
}

// Load rebuilds the full in-memory Graph from storage.
func (s *Store) Load(ctx context.Context) (*Graph, error) {
	edges, err := s.allEdges(ctx)
	if err != nil {
		return nil, err
	}
	return newGraph(edges), nil
}

// LoadAsOf rebuilds the Graph restricted to edges with timestamp <= asOf.
func (s *Store) LoadAsOf(ctx context.Context, asOf time.Time) (*Graph, error) {
	edges, err := s.allEdges(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []*types.CausalEdge
	for _, e := range edges {
		if !e.Timestamp.After(asOf) {
			filtered = append(filtered, e)
		}
	}
	return newGraph(filtered), nil
}

// Edges returns every edge in the graph, sorted by (from, to) for
// deterministic iteration.
func (g *Graph) Edges() []*types.CausalEdge {
	return sortedCopy(g.edges)
}

// RestrictToNodes returns a new Graph containing only edges whose endpoints
// are both present in nodes — used to bound a graph to the memories that
// existed at a given instant before running a temporal-causal traversal.
func (g *Graph) RestrictToNodes(present map[string]bool) *Graph {
	var filtered []*types.CausalEdge
	for _, e := range g.edges {
		if present[e.From] && present[e.To] {
			filtered = append(filtered, e)
		}
	}
	return newGraph(filtered)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// sortedCopy returns edges sorted by (from, to) for deterministic iteration
// in tests and narrative output.
func sortedCopy(edges []*types.CausalEdge) []*types.CausalEdge {
	out := append([]*types.CausalEdge(nil), edges...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
