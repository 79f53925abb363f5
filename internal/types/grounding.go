package types

// Verdict is the categorical outcome of grounding a memory.
type Verdict string

const (
	VerdictValidated      Verdict = "validated"
	VerdictPartial        Verdict = "partial"
	VerdictWeak           Verdict = "weak"
	VerdictInvalidated    Verdict = "invalidated"
	VerdictInsufficient   Verdict = "insufficient-data"
)

// EvidenceType is one of the twelve independent evidence sources.
type EvidenceType string

const (
	EvidencePatternConfidence    EvidenceType = "pattern_confidence"
	EvidencePatternOccurrence    EvidenceType = "pattern_occurrence_rate"
	EvidenceFalsePositiveRate    EvidenceType = "false_positive_rate"
	EvidenceConstraintVerification EvidenceType = "constraint_verification"
	EvidenceCouplingMetric       EvidenceType = "coupling_metric"
	EvidenceDNAHealth            EvidenceType = "dna_health"
	EvidenceTestCoverage         EvidenceType = "test_coverage"
	EvidenceErrorHandlingGaps    EvidenceType = "error_handling_gaps"
	EvidenceDecisionEvidence     EvidenceType = "decision_evidence"
	EvidenceBoundaryData         EvidenceType = "boundary_data"
	EvidenceTaintAnalysis        EvidenceType = "taint_analysis"
	EvidenceCallGraphCoverage    EvidenceType = "call_graph_coverage"
)

// AllEvidenceTypes lists all twelve evidence sources in a fixed order.
var AllEvidenceTypes = []EvidenceType{
	EvidencePatternConfidence, EvidencePatternOccurrence, EvidenceFalsePositiveRate,
	EvidenceConstraintVerification, EvidenceCouplingMetric, EvidenceDNAHealth,
	EvidenceTestCoverage, EvidenceErrorHandlingGaps, EvidenceDecisionEvidence,
	EvidenceBoundaryData, EvidenceTaintAnalysis, EvidenceCallGraphCoverage,
}

// DefaultWeight returns the default weight for an evidence type. Weights sum
// to 1.0 across AllEvidenceTypes.
func (e EvidenceType) DefaultWeight() float64 {
	switch e {
	case EvidencePatternConfidence:
		return 0.18
	case EvidencePatternOccurrence:
		return 0.13
	case EvidenceFalsePositiveRate:
		return 0.09
	case EvidenceConstraintVerification:
		return 0.09
	case EvidenceCouplingMetric:
		return 0.07
	case EvidenceDNAHealth:
		return 0.07
	case EvidenceTestCoverage:
		return 0.09
	case EvidenceErrorHandlingGaps:
		return 0.06
	case EvidenceDecisionEvidence:
		return 0.07
	case EvidenceBoundaryData:
		return 0.05
	case EvidenceTaintAnalysis:
		return 0.05
	case EvidenceCallGraphCoverage:
		return 0.05
	default:
		return 0
	}
}

// Evidence is one collected evidence item feeding into a grounding score.
type Evidence struct {
	Type         EvidenceType `json:"type"`
	Description  string       `json:"description"`
	DriftValue   float64      `json:"drift_value"`
	MemoryClaim  *float64     `json:"memory_claim,omitempty"`
	SupportScore float64      `json:"support_score"`
	Weight       float64      `json:"weight"`
}

// AdjustmentMode is how confidence is adjusted after grounding.
type AdjustmentMode string

const (
	AdjustNoChange      AdjustmentMode = "no-change"
	AdjustBoost         AdjustmentMode = "boost"
	AdjustPenalize      AdjustmentMode = "penalize"
	AdjustFlagForReview AdjustmentMode = "flag-for-review"
)

// ConfidenceAdjustment describes how a grounding verdict changed confidence.
type ConfidenceAdjustment struct {
	Mode   AdjustmentMode `json:"mode"`
	Delta  float64        `json:"delta"`
	Reason string         `json:"reason"`
}

// GroundingRecord is the output of grounding a single memory.
type GroundingRecord struct {
	ID                  string               `json:"id"`
	MemoryID            string               `json:"memory_id"`
	Verdict             Verdict              `json:"verdict"`
	GroundingScore      float64              `json:"grounding_score"`
	PreviousScore       *float64             `json:"previous_score,omitempty"`
	ScoreDelta          *float64             `json:"score_delta,omitempty"`
	Evidence            []Evidence           `json:"evidence"`
	ConfidenceAdjustment ConfidenceAdjustment `json:"confidence_adjustment"`
	GeneratesContradiction bool               `json:"generates_contradiction"`
	DurationMS          int64                `json:"duration_ms"`
}

// TriggerType is the reason a grounding loop runs.
type TriggerType string

const (
	TriggerPostScanIncremental TriggerType = "post-scan-incremental"
	TriggerPostScanFull        TriggerType = "post-scan-full"
	TriggerScheduled           TriggerType = "scheduled"
	TriggerOnDemand            TriggerType = "on-demand"
	TriggerMemoryCreation      TriggerType = "memory-creation"
	TriggerMemoryUpdate        TriggerType = "memory-update"
)

// GroundingSnapshot summarizes one grounding batch run.
type GroundingSnapshot struct {
	Trigger               TriggerType `json:"trigger"`
	TotalChecked           int         `json:"total_checked"`
	Validated              int         `json:"validated"`
	Partial                int         `json:"partial"`
	Weak                   int         `json:"weak"`
	Invalidated            int         `json:"invalidated"`
	NotGroundable          int         `json:"not_groundable"`
	InsufficientData       int         `json:"insufficient_data"`
	AvgGroundingScore      float64     `json:"avg_grounding_score"`
	ContradictionsGenerated int        `json:"contradictions_generated"`
	DurationMS             int64       `json:"duration_ms"`
	ErrorCount             int         `json:"error_count"`
}
