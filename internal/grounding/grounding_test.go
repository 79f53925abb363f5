package grounding_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/grounding"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/types"
)

type harness struct {
	db      *storage.Store
	events  *eventstore.Store
	snaps   *snapshot.Store
	history *grounding.History
	runner  *grounding.Runner
	cfg     config.GroundingConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(ctx, cfg.Storage, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	events := eventstore.New(db, nil)
	snaps := snapshot.New(db, events, nil)
	history := grounding.NewHistory(db)
	runner := grounding.NewRunner(events, snaps, history, nil, cfg.Grounding)
	return &harness{db: db, events: events, snaps: snaps, history: history, runner: runner, cfg: cfg.Grounding}
}

func (h *harness) create(t *testing.T, m *types.Memory) {
	t.Helper()
	ctx := context.Background()
	id, err := h.events.Append(ctx, &types.MemoryEvent{
		MemoryID: m.ID, Kind: types.EventCreated, Actor: types.Actor{Type: types.ActorSystem},
	})
	require.NoError(t, err)
	_, err = h.snaps.Create(ctx, m, id, types.SnapshotOnDemand)
	require.NoError(t, err)
}

func TestClassifyVerdictThresholds(t *testing.T) {
	cases := []struct {
		score   float64
		verdict types.Verdict
		contra  bool
	}{
		{0.95, types.VerdictValidated, false},
		{0.80, types.VerdictValidated, false},
		{0.70, types.VerdictPartial, false},
		{0.60, types.VerdictPartial, false},
		{0.50, types.VerdictWeak, false},
		{0.40, types.VerdictWeak, false},
		{0.30, types.VerdictInvalidated, false},
		{0.20, types.VerdictInvalidated, false},
		{0.10, types.VerdictInvalidated, true},
	}
	for _, c := range cases {
		verdict, contra := grounding.ClassifyVerdict(c.score, true)
		assert.Equal(t, c.verdict, verdict, "score %v", c.score)
		assert.Equal(t, c.contra, contra, "score %v", c.score)
	}

	verdict, contra := grounding.ClassifyVerdict(0, false)
	assert.Equal(t, types.VerdictInsufficient, verdict)
	assert.False(t, contra)
}

func TestScoreInsufficientWhenEmpty(t *testing.T) {
	_, ok := grounding.Score(nil)
	assert.False(t, ok)

	score, ok := grounding.Score([]types.Evidence{
		{Type: types.EvidencePatternConfidence, Weight: 0.18, SupportScore: 1.0},
		{Type: types.EvidenceTestCoverage, Weight: 0.09, SupportScore: 0.0},
	})
	require.True(t, ok)
	assert.InDelta(t, 0.18/(0.18+0.09), score, 1e-9)
}

func TestAdjustConfidenceNeverBelowFloor(t *testing.T) {
	cfg := config.Default().Grounding
	newConf, adj := grounding.AdjustConfidence(0.15, types.VerdictInvalidated, 0.1, cfg)
	assert.Equal(t, types.AdjustPenalize, adj.Mode)
	assert.GreaterOrEqual(t, newConf, cfg.InvalidatedFloor)
	assert.InDelta(t, cfg.InvalidatedFloor, newConf, 1e-9)
}

func TestAdjustConfidenceBoostsValidated(t *testing.T) {
	cfg := config.Default().Grounding
	newConf, adj := grounding.AdjustConfidence(0.9, types.VerdictValidated, 0.95, cfg)
	assert.Equal(t, types.AdjustBoost, adj.Mode)
	assert.InDelta(t, 0.95, newConf, 1e-9) // capped at 1.0, 0.9+0.05
}

func TestBuildContextParsesTagPrefixes(t *testing.T) {
	m := &types.Memory{
		Confidence: 0.6,
		Tags: []string{"pattern:p1", "module:internal/foo", "file:internal/foo/bar.go", "irrelevant"},
	}
	ec := grounding.BuildContext(m)
	assert.Equal(t, "p1", ec.PatternID)
	assert.Equal(t, "internal/foo", ec.ModulePath)
	assert.Equal(t, "internal/foo/bar.go", ec.FilePath)
	assert.InDelta(t, 0.6, ec.CurrentConfidence, 1e-9)
}

func TestGroundSingleGeneratesContradictionWhenScoreVeryLow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m := &types.Memory{
		ID: "mem-1", Kind: types.KindSemantic, Confidence: 0.8,
		TransactionTime: time.Now().UTC(), ValidTime: time.Now().UTC(),
	}
	h.create(t, m)

	lowEvidence := []types.Evidence{
		{Type: types.EvidencePatternConfidence, SupportScore: 0.05},
	}
	result, err := h.runner.GroundSingle(ctx, nil, m, lowEvidence)
	require.NoError(t, err)
	require.Equal(t, types.VerdictInvalidated, result.Record.Verdict)
	assert.True(t, result.Record.GeneratesContradiction)
	assert.NotEmpty(t, result.ContradictionID)

	events, err := h.events.EventsForMemory(ctx, result.ContradictionID, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventCreated, events[0].Kind)
}

func TestGroundSingleInsufficientDataFlagsForReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m := &types.Memory{
		ID: "mem-2", Kind: types.KindDecision, Confidence: 0.5,
		TransactionTime: time.Now().UTC(), ValidTime: time.Now().UTC(),
	}
	h.create(t, m)

	result, err := h.runner.GroundSingle(ctx, nil, m, nil)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictInsufficient, result.Record.Verdict)
	assert.Equal(t, types.AdjustFlagForReview, result.Record.ConfidenceAdjustment.Mode)
	assert.Empty(t, result.ContradictionID)
}

func TestRunBatchSkipsNotGroundableAndTalliesSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	groundable := &types.Memory{ID: "g1", Kind: types.KindSemantic, Confidence: 0.5, TransactionTime: time.Now().UTC(), ValidTime: time.Now().UTC()}
	notGroundable := &types.Memory{ID: "ng1", Kind: types.KindEpisodic, Confidence: 0.5, TransactionTime: time.Now().UTC(), ValidTime: time.Now().UTC()}
	h.create(t, groundable)
	h.create(t, notGroundable)

	snap, errs := h.runner.RunBatch(ctx, []*types.Memory{groundable, notGroundable}, nil, types.TriggerPostScanIncremental)
	assert.Empty(t, errs)
	assert.Equal(t, 1, snap.NotGroundable)
	assert.Equal(t, 1, snap.TotalChecked)
	assert.Equal(t, 1, snap.InsufficientData)
}

func TestSchedulerFullGroundingIntervalAndReset(t *testing.T) {
	s := grounding.NewScheduler(3)
	trig := s.OnScanComplete()
	assert.Equal(t, types.TriggerPostScanIncremental, trig)
	trig = s.OnScanComplete()
	assert.Equal(t, types.TriggerPostScanIncremental, trig)
	trig = s.OnScanComplete()
	assert.Equal(t, types.TriggerPostScanFull, trig)
	assert.True(t, grounding.IsFullGrounding(trig))

	s.Reset()
	assert.Equal(t, uint32(0), s.ScanCount())
}
