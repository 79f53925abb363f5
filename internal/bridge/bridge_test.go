package bridge_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/bridge"
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/enginerr"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/storage"
)

func newHarness(t *testing.T, tier config.LicenseTier) *bridge.Bridge {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(ctx, cfg.Storage, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	events := eventstore.New(db, nil)
	snaps := snapshot.New(db, events, nil)
	store := bridge.NewStore(db.Writer())
	dedup := bridge.NewDedup(5*time.Minute, db.Writer())
	return bridge.New(events, snaps, store, dedup, tier, nil)
}

func TestIngestOneCreatesMemory(t *testing.T) {
	b := newHarness(t, config.TierEnterprise)
	ctx := context.Background()

	res, err := b.IngestOne(ctx, bridge.AnalysisEvent{
		EventType: bridge.EventDecisionRecorded, EntityID: "d1", Summary: "chose X over Y",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.False(t, res.Skipped)
	assert.NotEmpty(t, res.MemoryID)
}

func TestIngestOneDedupsSecondIdenticalEvent(t *testing.T) {
	b := newHarness(t, config.TierEnterprise)
	ctx := context.Background()
	ev := bridge.AnalysisEvent{EventType: bridge.EventDecisionRecorded, EntityID: "d1", Summary: "chose X", OccurredAt: time.Now().UTC()}

	first, err := b.IngestOne(ctx, ev)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := b.IngestOne(ctx, ev)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, "duplicate", second.SkipReason)
}

func TestIngestOneRejectsGatedEventAtCommunityTier(t *testing.T) {
	b := newHarness(t, config.TierCommunity)
	ctx := context.Background()

	res, err := b.IngestOne(ctx, bridge.AnalysisEvent{
		EventType: bridge.EventDriftDetected, EntityID: "e1", Summary: "drift", OccurredAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, enginerr.IsConfiguration(err), "license-gated ingest must be a configuration error, not a silent skip")
	assert.ErrorIs(t, err, bridge.ErrEventTypeGated)
}

func TestIngestBatchCollectsErrorsWithoutAborting(t *testing.T) {
	b := newHarness(t, config.TierEnterprise)
	ctx := context.Background()

	results, errs := b.IngestBatch(ctx, []bridge.AnalysisEvent{
		{EventType: "bogus_event_type", EntityID: "x", OccurredAt: time.Now().UTC()},
		{EventType: bridge.EventScanCompleted, EntityID: "s1", Summary: "scan ok", OccurredAt: time.Now().UTC()},
	})
	assert.Len(t, errs, 1)
	assert.Len(t, results, 1)
	assert.False(t, results[0].Skipped)
}
