package runtime_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/health"
	"github.com/ruizrica/drift-sub006/internal/runtime"
	"github.com/ruizrica/drift-sub006/internal/types"
)

func TestInitializeWithoutBridgeReportsHealthyAndReady(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")

	eng, err := runtime.Initialize(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Shutdown(ctx) })

	report := eng.Health(ctx)
	assert.Equal(t, health.StatusAvailable, report.Status)
	assert.True(t, report.Ready)
	assert.Nil(t, eng.Bridge)
}

func TestInitializeWithBridgeEnabledWiresBridge(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	cfg.Bridge.Enabled = true
	cfg.Bridge.Transport = "attach"
	cfg.Bridge.DSN = filepath.Join(t.TempDir(), "analysis.db")

	eng, err := runtime.Initialize(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Shutdown(ctx) })

	assert.NotNil(t, eng.Bridge)
	report := eng.Health(ctx)
	assert.True(t, report.Ready)
}

func TestRecordEventTriggersSnapshotAtEventThreshold(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	cfg.Temporal.SnapshotEventThreshold = 3

	eng, err := runtime.Initialize(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Shutdown(ctx) })

	now := time.Now().UTC()
	m := &types.Memory{
		ID: "mem-trigger", Kind: types.KindDecision, Summary: "initial",
		Confidence: 0.5, Importance: types.ImportanceNormal,
		TransactionTime: now, ValidTime: now,
	}
	delta, err := json.Marshal(m)
	require.NoError(t, err)

	_, err = eng.RecordEvent(ctx, &types.MemoryEvent{
		MemoryID: m.ID, Kind: types.EventCreated, Delta: delta,
		Actor: types.Actor{Type: types.ActorSystem, ID: "test"},
	})
	require.NoError(t, err)

	// The creation event always triggers (no snapshot exists yet), which
	// resets the count — 3 more events should reach the threshold again.
	for i := 0; i < 3; i++ {
		_, err = eng.RecordEvent(ctx, &types.MemoryEvent{
			MemoryID: m.ID, Kind: types.EventConfidenceChanged,
			Delta: json.RawMessage(`{"new":0.6}`),
			Actor: types.Actor{Type: types.ActorSystem, ID: "test"},
		})
		require.NoError(t, err)
	}

	due, _, err := eng.Snapshots.ShouldTrigger(ctx, m.ID, eng.Config.Temporal)
	require.NoError(t, err)
	assert.False(t, due, "snapshot should have been created once the event threshold was reached")
}

func TestAnalysisStatusWithoutBridgeErrors(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")

	eng, err := runtime.Initialize(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Shutdown(ctx) })

	_, err = eng.AnalysisStatus(ctx, nil)
	assert.Error(t, err)
}

func TestAnalysisStatusWithBridgeReportsNoDataOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	cfg.Bridge.Enabled = true
	cfg.Bridge.Transport = "attach"
	cfg.Bridge.DSN = filepath.Join(t.TempDir(), "analysis.db")

	eng, err := runtime.Initialize(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Shutdown(ctx) })

	status, err := eng.AnalysisStatus(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, status.LatestScanUnixSeconds)
	assert.Equal(t, int64(0), status.MatchingPatternCount)
}
