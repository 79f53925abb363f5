package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruizrica/drift-sub006/internal/bridge"
	"github.com/ruizrica/drift-sub006/internal/types"
)

func TestMapKnownEventProducesContent(t *testing.T) {
	kind, confidence, content, err := bridge.Map(bridge.AnalysisEvent{
		EventType: bridge.EventPatternDetected, EntityID: "p1", Summary: "found a pattern",
	}, 21)
	require.NoError(t, err)
	assert.Equal(t, types.KindSemantic, kind)
	assert.InDelta(t, 0.6, confidence, 1e-9)
	assert.Contains(t, string(content), "found a pattern")
}

func TestMapUsesExplicitConfidenceOverBase(t *testing.T) {
	c := 0.42
	_, confidence, _, err := bridge.Map(bridge.AnalysisEvent{
		EventType: bridge.EventPatternDetected, Confidence: &c,
	}, 21)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, confidence, 1e-9)
}

func TestMapUnknownEventTypeErrors(t *testing.T) {
	_, _, _, err := bridge.Map(bridge.AnalysisEvent{EventType: "not_a_real_event"}, 21)
	assert.Error(t, err)
}

func TestMapGatesNonCommunityEventAtCommunityTier(t *testing.T) {
	_, _, _, err := bridge.Map(bridge.AnalysisEvent{EventType: bridge.EventDriftDetected}, 5)
	assert.ErrorIs(t, err, bridge.ErrEventTypeGated)
}

func TestMapAllowsCommunityEventAtCommunityTier(t *testing.T) {
	_, _, _, err := bridge.Map(bridge.AnalysisEvent{EventType: bridge.EventDecisionRecorded}, 5)
	assert.NoError(t, err)
}

func TestCommunityEventTypesHasExactlyFive(t *testing.T) {
	assert.Len(t, bridge.CommunityEventTypes, 5)
}
