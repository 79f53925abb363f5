package types

import "time"

// CausalRelation is the closed set of typed causal edge relations.
type CausalRelation string

const (
	RelationSupports     CausalRelation = "supports"
	RelationContradicts  CausalRelation = "contradicts"
	RelationEnables      CausalRelation = "enables"
	RelationCauses       CausalRelation = "causes"
	RelationRefines      CausalRelation = "refines"
	RelationFollowsFrom  CausalRelation = "follows-from"
)

// IsCausal reports whether a relation participates in the DAG-preserving
// cycle check on insert. Supports/contradicts are evidentiary, not causal in
// the strict sense, and are exempt — only enables/causes/refines/follows-from
// describe a causal chain that must stay acyclic.
func (r CausalRelation) IsCausal() bool {
	switch r {
	case RelationEnables, RelationCauses, RelationRefines, RelationFollowsFrom:
		return true
	default:
		return false
	}
}

// CausalEdge is a directed, typed, weighted edge between two memory IDs.
type CausalEdge struct {
	ID        string         `json:"id"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Relation  CausalRelation `json:"relation"`
	Strength  float64        `json:"strength"`
	Evidence  []string       `json:"evidence,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
