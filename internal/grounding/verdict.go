package grounding

import (
	"fmt"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// ClassifyVerdict maps a grounding score to its verdict, per the exclusive
// upper-bound thresholds: >=0.80 validated, >=0.60 partial, >=0.40 weak,
// >=0.20 invalidated, <0.20 invalidated-with-contradiction.
func ClassifyVerdict(score float64, hasEvidence bool) (verdict types.Verdict, generatesContradiction bool) {
	if !hasEvidence {
		return types.VerdictInsufficient, false
	}
	switch {
	case score >= 0.80:
		return types.VerdictValidated, false
	case score >= 0.60:
		return types.VerdictPartial, false
	case score >= 0.40:
		return types.VerdictWeak, false
	case score >= 0.20:
		return types.VerdictInvalidated, false
	default:
		return types.VerdictInvalidated, true
	}
}

// AdjustConfidence computes the new confidence and the adjustment record
// describing how it got there. Every boost or penalty result is kept within
// [cfg's invalidated floor, 1] — confidence grounded invalidated never
// reaches zero, since a future grounding pass must still be able to recover
// it. An insufficient-data verdict returns current unchanged.
func AdjustConfidence(current float64, verdict types.Verdict, score float64, cfg config.GroundingConfig) (newConfidence float64, adj types.ConfidenceAdjustment) {
	switch verdict {
	case types.VerdictValidated:
		adj = types.ConfidenceAdjustment{Mode: types.AdjustBoost, Delta: cfg.BoostDelta,
			Reason: fmt.Sprintf("grounding score %.2f validated the memory's claims", score)}
		return floorAt(current+cfg.BoostDelta, cfg.InvalidatedFloor), adj
	case types.VerdictPartial:
		adj = types.ConfidenceAdjustment{Mode: types.AdjustPenalize, Delta: -cfg.PartialPenalty,
			Reason: fmt.Sprintf("grounding score %.2f only partially supports the memory's claims", score)}
		return floorAt(current-cfg.PartialPenalty, cfg.InvalidatedFloor), adj
	case types.VerdictWeak:
		adj = types.ConfidenceAdjustment{Mode: types.AdjustPenalize, Delta: -cfg.WeakPenalty,
			Reason: fmt.Sprintf("grounding score %.2f weakly supports the memory's claims", score)}
		return floorAt(current-cfg.WeakPenalty, cfg.InvalidatedFloor), adj
	case types.VerdictInvalidated:
		adj = types.ConfidenceAdjustment{Mode: types.AdjustPenalize, Delta: -cfg.ContradictionDrop,
			Reason: fmt.Sprintf("grounding score %.2f contradicts the memory's claims", score)}
		return floorAt(current-cfg.ContradictionDrop, cfg.InvalidatedFloor), adj
	default: // VerdictInsufficient
		adj = types.ConfidenceAdjustment{Mode: types.AdjustFlagForReview, Delta: 0,
			Reason: "no evidence was available to ground this memory"}
		return current, adj
	}
}

func floorAt(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return clamp01(v)
}
