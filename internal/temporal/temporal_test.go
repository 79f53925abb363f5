package temporal_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/causal"
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/temporal"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// Note on timing: ReconstructAllAt gates existence on an event's recorded_at
// (when the system learned a fact), which is assigned at Append time — not
// on the synthetic transaction/valid times a test puts in a Memory struct.
// Tests that need a memory to be "not yet known" at some instant therefore
// separate creates with a short real-time gap rather than relying on
// artificial timestamps alone.

type harness struct {
	db     *storage.Store
	events *eventstore.Store
	snaps  *snapshot.Store
	query  *temporal.QueryLayer
	causal *causal.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default().Storage
	cfg.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	es := eventstore.New(db, nil)
	ss := snapshot.New(db, es, nil)
	return &harness{db: db, events: es, snaps: ss, query: temporal.New(ss), causal: causal.New(db.Writer())}
}

func (h *harness) create(t *testing.T, m *types.Memory) {
	t.Helper()
	ctx := context.Background()
	id, err := h.events.Append(ctx, &types.MemoryEvent{
		MemoryID: m.ID, Kind: types.EventCreated, Delta: mustJSON(t, m),
		Actor: types.Actor{Type: types.ActorSystem},
	})
	require.NoError(t, err)
	_, err = h.snaps.Create(ctx, m, id, types.SnapshotOnDemand)
	require.NoError(t, err)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestQueryAsOfFiltersLiveAtValidTime(t *testing.T) {
	h := newHarness(t)
	base := time.Now().UTC()
	past := base.Add(-2 * time.Hour)
	future := base.Add(2 * time.Hour)

	h.create(t, &types.Memory{
		ID: "m1", Kind: types.KindSemantic, Confidence: 0.6,
		TransactionTime: base, ValidTime: past, ValidUntil: &future,
	})
	h.create(t, &types.Memory{
		ID: "m2", Kind: types.KindSemantic, Confidence: 0.6,
		TransactionTime: base, ValidTime: future,
	})

	queryTime := time.Now().UTC().Add(time.Minute)
	results, err := h.query.QueryAsOf(context.Background(), queryTime, base, temporal.Filter{})
	require.NoError(t, err)
	var ids []string
	for _, m := range results {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, "m1")
	assert.NotContains(t, ids, "m2")
}

func TestQueryRangeOverlaps(t *testing.T) {
	h := newHarness(t)
	base := time.Now().UTC()
	from := base.Add(time.Hour)
	to := base.Add(3 * time.Hour)
	until := base.Add(2 * time.Hour)

	h.create(t, &types.Memory{
		ID: "over", Kind: types.KindEpisodic,
		TransactionTime: base, ValidTime: base, ValidUntil: &until,
	})
	h.create(t, &types.Memory{
		ID: "outside", Kind: types.KindEpisodic,
		TransactionTime: base, ValidTime: base.Add(10 * time.Hour),
	})

	results, err := h.query.QueryRange(context.Background(), from, to, temporal.RangeOverlaps)
	require.NoError(t, err)
	var ids []string
	for _, m := range results {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, "over")
	assert.NotContains(t, ids, "outside")
}

func TestQueryDiffReportsCreatedArchivedAndChurn(t *testing.T) {
	h := newHarness(t)
	tA := time.Now().UTC()
	h.create(t, &types.Memory{ID: "a", Kind: types.KindSemantic, Confidence: 0.5, TransactionTime: tA, ValidTime: tA})

	boundary := time.Now().UTC()
	time.Sleep(50 * time.Millisecond)

	tB := time.Now().UTC()
	h.create(t, &types.Memory{ID: "b", Kind: types.KindSemantic, Confidence: 0.5, TransactionTime: tB, ValidTime: tB})

	diff, err := h.query.QueryDiff(context.Background(), boundary, time.Now().UTC().Add(time.Minute), temporal.DiffScope{})
	require.NoError(t, err)
	var createdIDs []string
	for _, m := range diff.Created {
		createdIDs = append(createdIDs, m.ID)
	}
	assert.Contains(t, createdIDs, "b")
	assert.NotContains(t, createdIDs, "a")
	assert.Greater(t, diff.KnowledgeChurnRate, 0.0)
}

func TestQueryDiffSupersessionYieldsZeroNetChange(t *testing.T) {
	h := newHarness(t)
	t0 := time.Now().UTC()

	validTimeD := t0.Add(-time.Hour)
	supersedeAt := t0.Add(300 * time.Millisecond)
	h.create(t, &types.Memory{
		ID: "d", Kind: types.KindDecision, Summary: "use X", Confidence: 0.6,
		TransactionTime: validTimeD, ValidTime: validTimeD, ValidUntil: &supersedeAt,
	})
	timeA := t0.Add(150 * time.Millisecond)

	time.Sleep(350 * time.Millisecond)
	h.create(t, &types.Memory{
		ID: "c", Kind: types.KindDecision, Summary: "use Y", Confidence: 0.8,
		TransactionTime: supersedeAt, ValidTime: supersedeAt, Supersedes: "d",
	})
	timeB := t0.Add(2 * time.Second)

	diff, err := h.query.QueryDiff(context.Background(), timeA, timeB, temporal.DiffScope{})
	require.NoError(t, err)

	var createdIDs, archivedIDs []string
	for _, m := range diff.Created {
		createdIDs = append(createdIDs, m.ID)
	}
	for _, m := range diff.Archived {
		archivedIDs = append(archivedIDs, m.ID)
	}
	assert.Contains(t, createdIDs, "c")
	assert.Contains(t, archivedIDs, "d")
	assert.Equal(t, 1, diff.MemoriesAtA)
	assert.Equal(t, 1, diff.MemoriesAtB)
	assert.Equal(t, 0, diff.NetChange)
}

func TestQueryTemporalCausalRestrictsToAsOfSubgraph(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := time.Now().UTC()

	now := time.Now().UTC()
	h.create(t, &types.Memory{ID: "root", Kind: types.KindDecision, TransactionTime: now, ValidTime: now})
	h.create(t, &types.Memory{ID: "leaf", Kind: types.KindSemantic, TransactionTime: now, ValidTime: now})

	_, err := h.causal.AddEdge(ctx, "root", "leaf", types.RelationCauses, 0.7, nil)
	require.NoError(t, err)

	after := time.Now().UTC().Add(time.Minute)
	results, err := h.query.QueryTemporalCausal(ctx, h.causal, "root", after, causal.DirectionForward, -1)
	require.NoError(t, err)
	require.Len(t, results, 2)

	earlier, err := h.query.QueryTemporalCausal(ctx, h.causal, "root", before, causal.DirectionForward, -1)
	require.NoError(t, err)
	require.Len(t, earlier, 1)
	assert.Equal(t, "root", earlier[0].MemoryID)
}

func TestReplayDecisionReturnsAvailableContextAndHindsight(t *testing.T) {
	h := newHarness(t)

	decisionTime := time.Now().UTC().Add(50 * time.Millisecond)
	h.create(t, &types.Memory{
		ID: "dec-1", Kind: types.KindDecision, Summary: "chose X", Importance: types.ImportanceHigh,
		Confidence: 0.7, TransactionTime: decisionTime, ValidTime: decisionTime, Tags: []string{"auth"},
	})

	time.Sleep(100 * time.Millisecond)

	laterTime := time.Now().UTC()
	h.create(t, &types.Memory{
		ID: "later", Kind: types.KindFeedback, Summary: "actually wrong", Confidence: 0.9,
		TransactionTime: laterTime, ValidTime: laterTime, Tags: []string{"auth", "contradicts:dec-1"},
	})

	replay, err := h.query.ReplayDecision(context.Background(), "dec-1", 10, h.causal, nil)
	require.NoError(t, err)
	require.NotNil(t, replay.Decision)
	assert.Equal(t, "dec-1", replay.Decision.ID)

	var availableIDs []string
	for _, m := range replay.AvailableContext {
		availableIDs = append(availableIDs, m.ID)
	}
	assert.Contains(t, availableIDs, "dec-1")
	assert.NotContains(t, availableIDs, "later")

	require.Len(t, replay.Hindsight, 1)
	assert.Equal(t, "later", replay.Hindsight[0].Memory.ID)
	assert.Equal(t, temporal.HindsightContradicts, replay.Hindsight[0].Relationship)
}
