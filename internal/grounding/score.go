package grounding

import (
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// ApplyWeights overrides each evidence item's weight with cfg's effective
// weight for its type (config default unless overridden), so Score honors
// operator-configured weighting without collectors needing to know about
// config at all.
func ApplyWeights(evidence []types.Evidence, cfg *config.GroundingConfig) []types.Evidence {
	out := make([]types.Evidence, len(evidence))
	for i, e := range evidence {
		e.Weight = cfg.EffectiveWeight(e.Type)
		out[i] = e
	}
	return out
}

// Score computes grounding_score = Σ(weight·support_score) / Σ(weight) over
// the evidence actually produced. An empty evidence set reports
// insufficient data (ok=false) rather than a score of zero meaning "no
// support" — those are different outcomes per the verdict table.
func Score(evidence []types.Evidence) (score float64, ok bool) {
	if len(evidence) == 0 {
		return 0, false
	}
	var weighted, totalWeight float64
	for _, e := range evidence {
		weighted += e.Weight * clamp01(e.SupportScore)
		totalWeight += e.Weight
	}
	if totalWeight == 0 {
		return 0, false
	}
	return clamp01(weighted / totalWeight), true
}
