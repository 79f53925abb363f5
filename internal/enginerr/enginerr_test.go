package enginerr_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ruizrica/drift-sub006/internal/enginerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsSentinel(t *testing.T) {
	err := enginerr.New(enginerr.KindData, "eventstore.Append", "no_such_memory", nil).WithEntity("mem-123")
	assert.True(t, errors.Is(err, enginerr.ErrNoSuchMemory))
	assert.False(t, errors.Is(err, enginerr.ErrCyclicEdge))
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := enginerr.New(enginerr.KindTransient, "storage.Open", "storage_busy", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "boom")
}

func TestIsTransientAndBestEffort(t *testing.T) {
	transient := enginerr.New(enginerr.KindTransient, "op", "storage_busy", nil)
	best := enginerr.New(enginerr.KindBestEffort, "op", "not_groundable", nil)

	assert.True(t, enginerr.IsTransient(transient))
	assert.False(t, enginerr.IsTransient(best))
	assert.True(t, enginerr.IsBestEffort(best))
}

func TestRetryBusyRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	err := enginerr.RetryBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("SQLITE_BUSY: database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryBusyStopsOnNonBusyError(t *testing.T) {
	attempts := 0
	sentinel := errors.New("syntax error")
	err := enginerr.RetryBusy(context.Background(), func() error {
		attempts++
		return sentinel
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
