package health_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruizrica/drift-sub006/internal/health"
)

func TestAggregateAllHealthyIsAvailable(t *testing.T) {
	report := health.Aggregate([]health.SubsystemCheck{
		health.OK(health.MemoryStoreName, "ok"),
		health.OK("analysis_store", "ok"),
	})
	assert.Equal(t, health.StatusAvailable, report.Status)
	assert.True(t, report.Ready)
	assert.Empty(t, report.Reasons)
}

func TestAggregateDegradedWhenSecondarySubsystemDown(t *testing.T) {
	report := health.Aggregate([]health.SubsystemCheck{
		health.OK(health.MemoryStoreName, "ok"),
		health.Unhealthy("bridge_store", "not configured"),
	})
	assert.Equal(t, health.StatusDegraded, report.Status)
	assert.True(t, report.Ready)
	assert.Contains(t, report.Reasons, "bridge_store: not configured")
}

func TestAggregateUnavailableWhenMemoryStoreDown(t *testing.T) {
	report := health.Aggregate([]health.SubsystemCheck{
		health.Unhealthy(health.MemoryStoreName, "ping failed"),
		health.OK("causal_engine", "ok"),
	})
	assert.Equal(t, health.StatusUnavailable, report.Status)
	assert.False(t, report.Ready)
}

func TestAggregateMissingMemoryStoreCheckIsUnavailable(t *testing.T) {
	report := health.Aggregate([]health.SubsystemCheck{
		health.OK("causal_engine", "ok"),
	})
	assert.Equal(t, health.StatusUnavailable, report.Status)
	assert.False(t, report.Ready)
}
