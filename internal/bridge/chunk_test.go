package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruizrica/drift-sub006/internal/bridge"
)

func TestChunkStringsSplitsAtLimit(t *testing.T) {
	ids := make([]string, 1200)
	for i := range ids {
		ids[i] = "x"
	}
	chunks := bridge.ChunkStrings(ids)
	require := assert.New(t)
	require.Len(chunks, 3)
	require.Len(chunks[0], 500)
	require.Len(chunks[1], 500)
	require.Len(chunks[2], 200)
}

func TestChunkStringsEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, bridge.ChunkStrings(nil))
}

func TestChunkStringsUnderLimitSingleChunk(t *testing.T) {
	chunks := bridge.ChunkStrings([]string{"a", "b", "c"})
	assert.Len(t, chunks, 1)
	assert.Equal(t, []string{"a", "b", "c"}, chunks[0])
}
