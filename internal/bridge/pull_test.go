package bridge_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/bridge"
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/storage"
)

func newTransportHarness(t *testing.T) *bridge.Transport {
	t.Helper()
	ctx := context.Background()

	analysisPath := filepath.Join(t.TempDir(), "analysis.db")
	seed, err := sql.Open("sqlite", analysisPath)
	require.NoError(t, err)
	_, err = seed.Exec(`
		CREATE TABLE pattern_confidence (pattern_id TEXT NOT NULL, confidence REAL NOT NULL);
		INSERT INTO pattern_confidence (pattern_id, confidence) VALUES ('p1', 0.9), ('p1', 0.7), ('p2', 0.5);
		CREATE TABLE scan_history (id INTEGER PRIMARY KEY, created_at INTEGER NOT NULL);
		INSERT INTO scan_history (created_at) VALUES (100), (200), (150);
	`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "engine.db")
	db, err := storage.Open(ctx, cfg.Storage, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	transport, err := bridge.OpenTransport(ctx, config.BridgeConfig{Transport: "attach", DSN: analysisPath}, db.Writer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close() })
	return transport
}

func TestCountMatchingPatternsSumsAcrossChunks(t *testing.T) {
	transport := newTransportHarness(t)
	ctx := context.Background()

	count, err := bridge.CountMatchingPatterns(ctx, transport, []string{"p1", "p2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCountMatchingPatternsEmptyInputIsZero(t *testing.T) {
	transport := newTransportHarness(t)
	ctx := context.Background()

	count, err := bridge.CountMatchingPatterns(ctx, transport, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLatestScanTimestampReturnsMax(t *testing.T) {
	transport := newTransportHarness(t)
	ctx := context.Background()

	ts, err := bridge.LatestScanTimestamp(ctx, transport)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, int64(200), *ts)
}
