// Package grounding implements the empirical-validation pipeline: compare a
// memory's claims against an external analysis store and adjust confidence
// (or raise a contradiction) based on how well the evidence holds up.
// Grounded on original_source's cortex-drift-bridge grounding module: the
// four-phase split (collect, score, verdict+adjust, contradiction) and the
// evidence-context-from-tags convention both carry over unchanged.
package grounding

import (
	"strings"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// EvidenceContext is the keyed lookup record collectors query against: the
// identifiers and current state a collector needs to find the matching row
// in the external analysis store.
type EvidenceContext struct {
	PatternID         string
	ConstraintID      string
	ModulePath        string
	Project           string
	DecisionID        string
	BoundaryID        string
	FunctionID        string
	FilePath          string
	CurrentConfidence float64
}

// BuildContext derives an EvidenceContext from a memory's tags and linked
// patterns. Tags use a "prefix:value" convention (e.g. "module:internal/foo");
// the first linked pattern target wins if no "pattern:" tag is present.
func BuildContext(m *types.Memory) EvidenceContext {
	ctx := EvidenceContext{CurrentConfidence: m.Confidence}
	for _, l := range m.Links {
		if l.Type == "pattern" && ctx.PatternID == "" {
			ctx.PatternID = l.Target
		}
	}
	for _, tag := range m.Tags {
		switch {
		case setOnce(&ctx.PatternID, tag, "pattern:"):
		case setOnce(&ctx.ConstraintID, tag, "constraint:"):
		case setOnce(&ctx.ModulePath, tag, "module:"):
		case setOnce(&ctx.Project, tag, "project:"):
		case setOnce(&ctx.DecisionID, tag, "decision:"):
		case setOnce(&ctx.BoundaryID, tag, "boundary:"):
		case setOnce(&ctx.FunctionID, tag, "function:"):
		case setOnce(&ctx.FilePath, tag, "file:"):
		}
	}
	return ctx
}

// setOnce assigns *field from tag's value if tag carries prefix and *field
// is not already set. Returns whether prefix matched, so callers can chain
// it through a switch without re-testing the prefix.
func setOnce(field *string, tag, prefix string) bool {
	val, ok := strings.CutPrefix(tag, prefix)
	if !ok {
		return false
	}
	if *field == "" {
		*field = val
	}
	return true
}
