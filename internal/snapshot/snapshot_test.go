package snapshot_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T) (*storage.Store, *eventstore.Store, *snapshot.Store) {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default().Storage
	cfg.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	es := eventstore.New(db, nil)
	ss := snapshot.New(db, es, nil)
	return db, es, ss
}

func TestCreateAndReconstructFromSnapshot(t *testing.T) {
	ctx := context.Background()
	_, es, ss := newHarness(t)

	now := time.Now().UTC()
	mem := &types.Memory{
		ID: "mem-1", Kind: types.KindDecision, Summary: "v1",
		Confidence: 0.5, TransactionTime: now, ValidTime: now,
	}
	createdID, err := es.Append(ctx, &types.MemoryEvent{
		MemoryID: mem.ID, Kind: types.EventCreated,
		Delta: mustJSON(t, mem), Actor: types.Actor{Type: types.ActorSystem},
	})
	require.NoError(t, err)

	snap, err := ss.Create(ctx, mem, createdID, types.SnapshotOnDemand)
	require.NoError(t, err)
	assert.Equal(t, mem.ID, snap.MemoryID)

	_, err = es.Append(ctx, &types.MemoryEvent{
		MemoryID: mem.ID, Kind: types.EventConfidenceChanged,
		Delta: json.RawMessage(`{"new":0.9}`), Actor: types.Actor{Type: types.ActorSystem},
	})
	require.NoError(t, err)

	result, err := ss.ReconstructAt(ctx, mem.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, "v1", result.Summary)
}

func TestReconstructAtWithNoSnapshotReplaysFromShell(t *testing.T) {
	ctx := context.Background()
	_, es, ss := newHarness(t)

	now := time.Now().UTC()
	mem := &types.Memory{ID: "mem-2", Kind: types.KindEpisodic, Summary: "s", TransactionTime: now, ValidTime: now}
	_, err := es.Append(ctx, &types.MemoryEvent{
		MemoryID: mem.ID, Kind: types.EventCreated, Delta: mustJSON(t, mem), Actor: types.Actor{Type: types.ActorSystem},
	})
	require.NoError(t, err)

	result, err := ss.ReconstructAt(ctx, mem.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "s", result.Summary)
}

func TestReconstructAtNoHistoryReturnsNil(t *testing.T) {
	ctx := context.Background()
	_, _, ss := newHarness(t)
	result, err := ss.ReconstructAt(ctx, "nonexistent", time.Now())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestShouldTriggerOnEventThreshold(t *testing.T) {
	ctx := context.Background()
	_, es, ss := newHarness(t)
	cfg := config.Default().Temporal
	cfg.SnapshotEventThreshold = 2

	mem := &types.Memory{ID: "mem-3", Kind: types.KindSemantic, TransactionTime: time.Now(), ValidTime: time.Now()}
	_, err := es.Append(ctx, &types.MemoryEvent{MemoryID: mem.ID, Kind: types.EventCreated, Delta: mustJSON(t, mem), Actor: types.Actor{Type: types.ActorSystem}})
	require.NoError(t, err)

	due, reason, err := ss.ShouldTrigger(ctx, mem.ID, cfg)
	require.NoError(t, err)
	assert.True(t, due)
	assert.Equal(t, types.SnapshotEventThreshold, reason)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
