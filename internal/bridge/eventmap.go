package bridge

import (
	"fmt"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// AnalysisEventType is the closed set of analysis-store event types the
// bridge knows how to translate into memories. Community licenses map only
// CommunityEventTypes; team and enterprise map the full set.
type AnalysisEventType string

const (
	EventPatternDetected            AnalysisEventType = "pattern_detected"
	EventPatternConfidenceUpdated   AnalysisEventType = "pattern_confidence_updated"
	EventPatternViolationDetected   AnalysisEventType = "pattern_violation_detected"
	EventScanStarted                AnalysisEventType = "scan_started"
	EventScanCompleted              AnalysisEventType = "scan_completed"
	EventScanFailed                 AnalysisEventType = "scan_failed"
	EventConventionEstablished      AnalysisEventType = "convention_established"
	EventConventionViolationDetected AnalysisEventType = "convention_violation_detected"
	EventCoverageMeasured           AnalysisEventType = "coverage_measured"
	EventCoverageRegressionDetected AnalysisEventType = "coverage_regression_detected"
	EventCouplingDetected           AnalysisEventType = "coupling_detected"
	EventCouplingResolved           AnalysisEventType = "coupling_resolved"
	EventCallGraphUpdated           AnalysisEventType = "call_graph_updated"
	EventErrorHandlingGapDetected   AnalysisEventType = "error_handling_gap_detected"
	EventErrorHandlingGapFixed      AnalysisEventType = "error_handling_gap_fixed"
	EventDecisionRecorded           AnalysisEventType = "decision_recorded"
	EventDecisionSuperseded         AnalysisEventType = "decision_superseded"
	EventBoundaryDefined            AnalysisEventType = "boundary_defined"
	EventBoundaryViolationDetected  AnalysisEventType = "boundary_violation_detected"
	EventDriftDetected              AnalysisEventType = "drift_detected"
	EventDriftResolved              AnalysisEventType = "drift_resolved"
)

// CommunityEventTypes is the 5-event subset a community license maps; for
// every other registered type at that tier Map returns ErrEventTypeGated.
var CommunityEventTypes = map[AnalysisEventType]bool{
	EventPatternDetected:          true,
	EventPatternConfidenceUpdated: true,
	EventScanCompleted:            true,
	EventCoverageMeasured:         true,
	EventDecisionRecorded:         true,
}

// mappingEntry is one row of the event_type -> memory kind table: a base
// confidence used when the source event carries none of its own, and a
// content builder matching the target kind's typed payload.
type mappingEntry struct {
	kind           types.Kind
	baseConfidence float64
	build          func(ev AnalysisEvent) (types.Content, error)
}

var mappingTable = map[AnalysisEventType]mappingEntry{
	EventPatternDetected:          {types.KindSemantic, 0.6, semanticContent},
	EventPatternConfidenceUpdated: {types.KindSemantic, 0.7, semanticContent},
	EventPatternViolationDetected: {types.KindFeedback, 0.5, feedbackContent},
	EventScanStarted:              {types.KindEpisodic, 0.5, episodicContent},
	EventScanCompleted:            {types.KindEpisodic, 0.6, episodicContent},
	EventScanFailed:               {types.KindIncident, 0.4, genericContent},
	EventConventionEstablished:      {types.KindConstraint, 0.65, genericContent},
	EventConventionViolationDetected: {types.KindFeedback, 0.5, feedbackContent},
	EventCoverageMeasured:           {types.KindSemantic, 0.55, semanticContent},
	EventCoverageRegressionDetected: {types.KindFeedback, 0.5, feedbackContent},
	EventCouplingDetected:           {types.KindCodeSmell, 0.5, genericContent},
	EventCouplingResolved:           {types.KindFeedback, 0.6, feedbackContent},
	EventCallGraphUpdated:           {types.KindSemantic, 0.5, semanticContent},
	EventErrorHandlingGapDetected:   {types.KindCodeSmell, 0.5, genericContent},
	EventErrorHandlingGapFixed:      {types.KindFeedback, 0.6, feedbackContent},
	EventDecisionRecorded:           {types.KindDecision, 0.7, decisionContent},
	EventDecisionSuperseded:         {types.KindFeedback, 0.6, feedbackContent},
	EventBoundaryDefined:            {types.KindConstraint, 0.65, genericContent},
	EventBoundaryViolationDetected:  {types.KindFeedback, 0.5, feedbackContent},
	EventDriftDetected:              {types.KindIncident, 0.5, genericContent},
	EventDriftResolved:              {types.KindFeedback, 0.6, feedbackContent},
}

func semanticContent(ev AnalysisEvent) (types.Content, error) {
	return types.EncodeContent(types.SemanticContent{Claim: ev.Summary})
}

func episodicContent(ev AnalysisEvent) (types.Content, error) {
	return types.EncodeContent(types.EpisodicContent{Interaction: string(ev.EventType), Context: ev.Summary})
}

func feedbackContent(ev AnalysisEvent) (types.Content, error) {
	return types.EncodeContent(types.FeedbackContent{Feedback: ev.Summary, Category: string(ev.EventType), Source: "analysis_bridge"})
}

func decisionContent(ev AnalysisEvent) (types.Content, error) {
	return types.EncodeContent(types.DecisionContent{Choice: ev.Summary})
}

func genericContent(ev AnalysisEvent) (types.Content, error) {
	return types.EncodeContent(types.GenericContent{Text: ev.Summary})
}

// Map translates an analysis event into the memory kind, confidence, and
// content it should produce, or an error if the event type is unknown or
// the license tier doesn't expose it (err sentinel: ErrEventTypeGated).
func Map(ev AnalysisEvent, maxEventTypes int) (types.Kind, float64, types.Content, error) {
	entry, ok := mappingTable[ev.EventType]
	if !ok {
		return "", 0, nil, fmt.Errorf("bridge: unknown analysis event type %q", ev.EventType)
	}
	if maxEventTypes <= 5 && !CommunityEventTypes[ev.EventType] {
		return "", 0, nil, ErrEventTypeGated
	}
	confidence := entry.baseConfidence
	if ev.Confidence != nil {
		confidence = *ev.Confidence
	}
	content, err := entry.build(ev)
	if err != nil {
		return "", 0, nil, fmt.Errorf("bridge: encode content for %q: %w", ev.EventType, err)
	}
	return entry.kind, confidence, content, nil
}
