package grounding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/types"
)

// GenerateContradiction synthesizes and persists a feedback memory recording
// a grounding contradiction against original, through the same
// append-event-then-snapshot discipline every other mutation in the engine
// uses. Returns "" if record does not warrant one.
func GenerateContradiction(ctx context.Context, events *eventstore.Store, snaps *snapshot.Store, original *types.Memory, record *types.GroundingRecord) (string, error) {
	if !record.GeneratesContradiction {
		return "", nil
	}

	now := time.Now().UTC()
	feedback := types.FeedbackContent{
		Feedback: fmt.Sprintf("Grounding contradiction for memory %q: verdict=%s, score=%.3f. Evidence: %s",
			original.ID, record.Verdict, record.GroundingScore, summarizeEvidence(record.Evidence)),
		Category: "grounding_contradiction",
		Source:   "grounding",
	}
	content, err := json.Marshal(feedback)
	if err != nil {
		return "", fmt.Errorf("grounding: encode contradiction content: %w", err)
	}

	contradiction := &types.Memory{
		ID:              uuid.NewString(),
		Kind:            types.KindFeedback,
		Content:         types.Content(content),
		Summary:         fmt.Sprintf("Grounding contradiction: %s (score %.2f)", original.ID, record.GroundingScore),
		Confidence:      0.9,
		Importance:      types.ImportanceHigh,
		Namespace:       original.Namespace,
		SourceAgent:     "grounding",
		TransactionTime: now,
		ValidTime:       now,
		Supersedes:      original.ID,
		Tags:            []string{"grounding_contradiction", fmt.Sprintf("contradicts:%s", original.ID)},
	}
	contradiction.ContentHash = contradiction.ComputeContentHash()

	eventID, err := events.Append(ctx, &types.MemoryEvent{
		MemoryID: contradiction.ID,
		Kind:     types.EventCreated,
		Delta:    json.RawMessage(mustMarshal(contradiction)),
		Actor:    types.Actor{Type: types.ActorSystem, ID: "grounding"},
	})
	if err != nil {
		return "", fmt.Errorf("grounding: append contradiction event: %w", err)
	}
	if _, err := snaps.Create(ctx, contradiction, eventID, types.SnapshotOnDemand); err != nil {
		return "", fmt.Errorf("grounding: snapshot contradiction: %w", err)
	}
	return contradiction.ID, nil
}

func summarizeEvidence(evidence []types.Evidence) string {
	if len(evidence) == 0 {
		return "none"
	}
	out := ""
	for i, e := range evidence {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s: %.2f (support %.2f)", e.Type, e.DriftValue, e.SupportScore)
	}
	return out
}

func mustMarshal(m *types.Memory) []byte {
	b, err := json.Marshal(m)
	if err != nil {
		// Memory is always JSON-marshalable: fixed fields, raw-JSON content,
		// string tags. A failure here means a prior invariant broke.
		panic(fmt.Sprintf("grounding: marshal memory: %v", err))
	}
	return b
}
