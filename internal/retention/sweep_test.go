package retention_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/retention"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/storage"
)

func TestSweeperRunOnEmptyStoreIsNoop(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(ctx, cfg.Storage, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	events := eventstore.New(db, nil)
	snaps := snapshot.New(db, events, nil)
	sweeper := retention.NewSweeper(events, snaps, nil, cfg.Temporal)

	result, err := sweeper.Run(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, result.EventsCompacted)
	assert.Zero(t, result.SnapshotsPruned)
	assert.Zero(t, result.BridgeMetricsPruned)
}

func TestSweeperRunRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(context.Background(), cfg.Storage, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	events := eventstore.New(db, nil)
	snaps := snapshot.New(db, events, nil)
	sweeper := retention.NewSweeper(events, snaps, nil, cfg.Temporal)

	_, err = sweeper.Run(ctx, time.Now().UTC())
	assert.ErrorIs(t, err, context.Canceled)
}
