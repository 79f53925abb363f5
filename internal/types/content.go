package types

import "encoding/json"

// DecisionContent is the payload shape for KindDecision / KindDecisionContext.
type DecisionContent struct {
	Choice       string   `json:"choice"`
	Alternatives []string `json:"alternatives,omitempty"`
	Rationale    string   `json:"rationale,omitempty"`
}

// EpisodicContent is the payload shape for KindEpisodic.
type EpisodicContent struct {
	Interaction string  `json:"interaction"`
	Context     string  `json:"context"`
	Outcome     *string `json:"outcome,omitempty"`
}

// FeedbackContent is the payload shape for KindFeedback, including
// contradiction memories synthesized by the grounding pipeline.
type FeedbackContent struct {
	Feedback string `json:"feedback"`
	Category string `json:"category"`
	Source   string `json:"source"`
}

// SemanticContent is the payload shape for KindSemantic / KindCore.
type SemanticContent struct {
	Claim  string `json:"claim"`
	Domain string `json:"domain,omitempty"`
}

// RationaleContent is the payload shape for KindRationale / KindConstraintOverride.
type RationaleContent struct {
	Statement     string `json:"statement"`
	Justification string `json:"justification"`
}

// GenericContent is the fallback shape for kinds with no dedicated struct
// (KindConstraint, KindPatternLink, KindTribal, KindInsight, KindEntity,
// KindIncident, KindEnvironment, KindProcedural, KindReference, KindPreference).
type GenericContent struct {
	Text string `json:"text"`
}

// EncodeContent marshals a kind-specific payload into the tagged Content
// representation. It does not itself validate that v matches kind's expected
// shape — callers that need that should decode what they encoded.
func EncodeContent(v interface{}) (Content, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Content(b), nil
}

// DecodeContent dispatches on kind to decode Content into its typed payload.
// This is the table-driven dispatch the design notes call for in place of a
// virtual-dispatch content hierarchy.
func DecodeContent(kind Kind, c Content) (interface{}, error) {
	if len(c) == 0 {
		return nil, nil
	}
	switch kind {
	case KindDecision, KindDecisionContext:
		var v DecisionContent
		return &v, json.Unmarshal(c, &v)
	case KindEpisodic:
		var v EpisodicContent
		return &v, json.Unmarshal(c, &v)
	case KindFeedback:
		var v FeedbackContent
		return &v, json.Unmarshal(c, &v)
	case KindSemantic, KindCore:
		var v SemanticContent
		return &v, json.Unmarshal(c, &v)
	case KindRationale, KindConstraintOverride, KindCodeSmell:
		var v RationaleContent
		return &v, json.Unmarshal(c, &v)
	default:
		var v GenericContent
		return &v, json.Unmarshal(c, &v)
	}
}
