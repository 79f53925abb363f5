package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ruizrica/drift-sub006/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachAndDetach(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	s, err := storage.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	otherPath := filepath.Join(t.TempDir(), "analysis.db")
	guard, err := storage.Attach(ctx, s.Writer(), otherPath, "analysis")
	require.NoError(t, err)

	var schema string
	err = guard.Conn().QueryRowContext(ctx, `SELECT 'analysis' FROM pragma_database_list WHERE name='analysis'`).Scan(&schema)
	require.NoError(t, err)
	assert.Equal(t, "analysis", schema)

	require.NoError(t, guard.Close())
	require.NoError(t, guard.Close()) // idempotent
}
