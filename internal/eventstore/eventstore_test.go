package eventstore_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/enginerr"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/ruizrica/drift-sub006/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *eventstore.Store {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default().Storage
	cfg.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return eventstore.New(db, nil)
}

func TestAppendAssignsMonotoneEventIDs(t *testing.T) {
	ctx := context.Background()
	es := newTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := es.Append(ctx, &types.MemoryEvent{
			MemoryID: "mem-1",
			Kind:     types.EventConfidenceChanged,
			Delta:    json.RawMessage(`{"new":0.5}`),
			Actor:    types.Actor{Type: types.ActorSystem, ID: "engine"},
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])
}

func TestEventsForMemoryOrderedAndBounded(t *testing.T) {
	ctx := context.Background()
	es := newTestStore(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var boundary time.Time
	for i := 0; i < 5; i++ {
		recordedAt := base.Add(time.Duration(i) * time.Minute)
		_, err := es.Append(ctx, &types.MemoryEvent{
			MemoryID:   "mem-1",
			Kind:       types.EventConfidenceChanged,
			Delta:      json.RawMessage(`{"new":0.5}`),
			Actor:      types.Actor{Type: types.ActorSystem},
			RecordedAt: recordedAt,
		})
		require.NoError(t, err)
		if i == 2 {
			boundary = recordedAt
		}
	}

	all, err := es.EventsForMemory(ctx, "mem-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	bounded, err := es.EventsForMemory(ctx, "mem-1", &boundary)
	require.NoError(t, err)
	assert.Len(t, bounded, 2)
}

func TestRecordLateArrivalAcceptsPastValidTime(t *testing.T) {
	ctx := context.Background()
	es := newTestStore(t)

	past := time.Now().UTC().Add(-48 * time.Hour)
	m := &types.Memory{
		ID: "mem-late", Kind: types.KindEpisodic, Summary: "discovered late",
		Confidence: 0.5, ValidTime: past,
	}
	id, err := es.RecordLateArrival(ctx, m, types.Actor{Type: types.ActorUser, ID: "u1"})
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.True(t, m.TransactionTime.After(past))
}

func TestRecordLateArrivalRejectsNonPastValidTime(t *testing.T) {
	ctx := context.Background()
	es := newTestStore(t)

	future := time.Now().UTC().Add(time.Hour)
	m := &types.Memory{ID: "mem-late-2", Kind: types.KindEpisodic, Summary: "not actually past", ValidTime: future}
	_, err := es.RecordLateArrival(ctx, m, types.Actor{Type: types.ActorUser, ID: "u1"})
	require.Error(t, err)
	assert.True(t, enginerr.IsData(err))
}

func TestRecordFutureClaimDisallowedByDefault(t *testing.T) {
	ctx := context.Background()
	es := newTestStore(t)

	cfg := config.Default().Temporal
	future := time.Now().UTC().Add(time.Hour)
	m := &types.Memory{ID: "mem-future", Kind: types.KindDecision, Summary: "will choose X", ValidTime: future}
	_, err := es.RecordFutureClaim(ctx, cfg, m, types.Actor{Type: types.ActorUser, ID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, enginerr.ErrFutureClaimDisallowed)
}

func TestRecordFutureClaimSucceedsWhenEnabled(t *testing.T) {
	ctx := context.Background()
	es := newTestStore(t)

	cfg := config.Default().Temporal
	cfg.AllowFutureClaims = true
	future := time.Now().UTC().Add(time.Hour)
	m := &types.Memory{ID: "mem-future-2", Kind: types.KindDecision, Summary: "will choose X", ValidTime: future}
	id, err := es.RecordFutureClaim(ctx, cfg, m, types.Actor{Type: types.ActorUser, ID: "u1"})
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestReplayAppliesEventsInOrder(t *testing.T) {
	created := &types.MemoryEvent{
		Kind: types.EventCreated,
		Delta: mustJSON(t, types.Memory{
			ID: "mem-1", Kind: types.KindDecision, Summary: "initial",
			Confidence: 0.5, TransactionTime: time.Now(), ValidTime: time.Now(),
		}),
	}
	confChanged := &types.MemoryEvent{Kind: types.EventConfidenceChanged, Delta: json.RawMessage(`{"new":0.9}`)}
	archived := &types.MemoryEvent{Kind: types.EventArchived}

	result := eventstore.Replay(nil, []*types.MemoryEvent{created, confChanged, archived})
	require.NotNil(t, result)
	assert.Equal(t, "initial", result.Summary)
	assert.Equal(t, 0.9, result.Confidence)
	assert.True(t, result.Archived)
}

func TestReplayTagsModified(t *testing.T) {
	state := &types.Memory{Tags: []string{"a", "b"}}
	ev := &types.MemoryEvent{
		Kind:  types.EventTagsModified,
		Delta: json.RawMessage(`{"added":["c"],"removed":["a"]}`),
	}
	result := eventstore.Apply(state, ev)
	assert.ElementsMatch(t, []string{"b", "c"}, result.Tags)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
