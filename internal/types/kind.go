// Package types defines the core data model of the memory engine: memory
// records, events, snapshots, causal edges, and grounding records.
package types

// Kind is the closed enumeration of memory roles. New values are never added
// at runtime — reconstruction and grounding dispatch on this set via table
// lookups, not virtual dispatch.
type Kind string

const (
	KindDecision        Kind = "decision"
	KindEpisodic        Kind = "episodic"
	KindSemantic        Kind = "semantic"
	KindFeedback        Kind = "feedback"
	KindRationale       Kind = "rationale"
	KindConstraint      Kind = "constraint"
	KindPatternLink     Kind = "pattern-link"
	KindConstraintOverride Kind = "constraint-override"
	KindDecisionContext Kind = "decision-context"
	KindCodeSmell       Kind = "code-smell"
	KindCore            Kind = "core"
	KindTribal          Kind = "tribal"
	KindInsight         Kind = "insight"
	KindEntity          Kind = "entity"
	KindIncident        Kind = "incident"
	KindEnvironment     Kind = "environment"
	KindProcedural      Kind = "procedural"
	KindReference       Kind = "reference"
	KindPreference      Kind = "preference"
)

// AllKinds lists every closed-enum value, used by validation and test fixtures.
var AllKinds = []Kind{
	KindDecision, KindEpisodic, KindSemantic, KindFeedback, KindRationale,
	KindConstraint, KindPatternLink, KindConstraintOverride, KindDecisionContext,
	KindCodeSmell, KindCore, KindTribal, KindInsight, KindEntity, KindIncident,
	KindEnvironment, KindProcedural, KindReference, KindPreference,
}

func (k Kind) Valid() bool {
	for _, v := range AllKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Groundability classifies how much a memory kind can be empirically verified.
type Groundability string

const (
	GroundabilityFull          Groundability = "full"
	GroundabilityPartial       Groundability = "partial"
	GroundabilityNone          Groundability = "none"
)

// fullyGroundable and partiallyGroundable are the only two non-default
// buckets; anything absent from both classifies as GroundabilityNone. This
// mirrors the table-driven dispatch called for in the engine's design notes
// rather than a long exhaustive switch.
var fullyGroundable = map[Kind]bool{
	KindRationale:          true,
	KindConstraintOverride: true,
	KindDecisionContext:    true,
	KindCodeSmell:          true,
	KindCore:               true,
	KindSemantic:           true,
}

var partiallyGroundable = map[Kind]bool{
	KindTribal:      true,
	KindDecision:    true,
	KindInsight:     true,
	KindEntity:      true,
	KindFeedback:    true,
	KindIncident:    true,
	KindEnvironment: true,
}

// ClassifyGroundability returns how groundable a memory kind is.
func ClassifyGroundability(k Kind) Groundability {
	if fullyGroundable[k] {
		return GroundabilityFull
	}
	if partiallyGroundable[k] {
		return GroundabilityPartial
	}
	return GroundabilityNone
}
