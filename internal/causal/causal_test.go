package causal_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/causal"
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/types"
)

func newStore(t *testing.T) *causal.Store {
	t.Helper()
	cfg := config.Default().Storage
	cfg.Path = filepath.Join(t.TempDir(), "causal.db")
	db, err := storage.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return causal.New(db.Writer())
}

func TestAddEdgeRejectsCycleForCausalRelations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddEdge(ctx, "a", "b", types.RelationCauses, 0.9, nil)
	require.NoError(t, err)
	_, err = s.AddEdge(ctx, "b", "c", types.RelationEnables, 0.8, nil)
	require.NoError(t, err)

	_, err = s.AddEdge(ctx, "c", "a", types.RelationFollowsFrom, 0.7, nil)
	require.Error(t, err)
}

func TestAddEdgeAllowsCycleForEvidentiaryRelations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddEdge(ctx, "a", "b", types.RelationSupports, 0.9, nil)
	require.NoError(t, err)
	_, err = s.AddEdge(ctx, "b", "a", types.RelationContradicts, 0.9, nil)
	require.NoError(t, err)
}

func TestAddGroundingEdgePolicy(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	e, err := s.AddGroundingEdge(ctx, "m1", "g1", 0.9)
	require.NoError(t, err)
	require.Equal(t, types.RelationSupports, e.Relation)

	e, err = s.AddGroundingEdge(ctx, "m2", "g2", 0.1)
	require.NoError(t, err)
	require.Equal(t, types.RelationContradicts, e.Relation)
}

func TestCounterfactualAndIntervention(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddEdge(ctx, "root", "mid", types.RelationCauses, 0.8, nil)
	require.NoError(t, err)
	_, err = s.AddEdge(ctx, "mid", "leaf", types.RelationSupports, 0.5, nil)
	require.NoError(t, err)
	_, err = s.AddEdge(ctx, "mid", "contra", types.RelationContradicts, 0.5, nil)
	require.NoError(t, err)

	g, err := s.Load(ctx)
	require.NoError(t, err)

	cf := g.Counterfactual("root")
	require.ElementsMatch(t, []string{"mid", "leaf", "contra"}, cf.AffectedIDs)
	require.Equal(t, 2, cf.MaxDepth)

	iv := g.Intervention("root")
	require.Contains(t, iv.ImpactedIDs, "mid")
	require.Contains(t, iv.ImpactedIDs, "leaf")
	require.NotContains(t, iv.ImpactedIDs, "contra")
}

func TestPruneIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddEdge(ctx, "a", "b", types.RelationSupports, 0.2, nil)
	require.NoError(t, err)
	_, err = s.AddEdge(ctx, "c", "d", types.RelationSupports, 0.9, nil)
	require.NoError(t, err)

	report, err := s.Prune(ctx, 0.5)
	require.NoError(t, err)
	require.Equal(t, 1, report.EdgesRemoved)

	report, err = s.Prune(ctx, 0.5)
	require.NoError(t, err)
	require.Equal(t, 0, report.EdgesRemoved)
}
