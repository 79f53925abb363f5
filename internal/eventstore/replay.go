package eventstore

import (
	"encoding/json"
	"time"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// Replay applies events in order onto initial, returning the resulting
// state. initial is typically an empty shell (no snapshot exists) or a
// decoded snapshot (the common path).
func Replay(initial *types.Memory, events []*types.MemoryEvent) *types.Memory {
	state := initial
	for _, ev := range events {
		state = Apply(state, ev)
	}
	return state
}

// Apply dispatches a single event onto state by kind. Link and
// relationship events are tracked in the log but don't mutate the Memory
// projection directly — links live in Memory.Links and are updated via
// dedicated delta shapes (link-added/removed), graph edges live in
// causal_edges and are not replayed here at all.
func Apply(state *types.Memory, ev *types.MemoryEvent) *types.Memory {
	switch ev.Kind {
	case types.EventCreated:
		var full types.Memory
		if err := json.Unmarshal(ev.Delta, &full); err == nil {
			return &full
		}
		return state
	case types.EventContentUpdated:
		var d struct {
			NewSummary     *string `json:"new_summary"`
			NewContentHash *string `json:"new_content_hash"`
			NewContent     json.RawMessage `json:"new_content"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			if d.NewSummary != nil {
				state.Summary = *d.NewSummary
			}
			if d.NewContentHash != nil {
				state.ContentHash = *d.NewContentHash
			}
			if len(d.NewContent) > 0 {
				state.Content = types.Content(d.NewContent)
			}
		}
		return state
	case types.EventConfidenceChanged:
		var d struct {
			New float64 `json:"new"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			state.Confidence = d.New
		}
		return state
	case types.EventImportanceChanged:
		var d struct {
			New types.Importance `json:"new"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			state.Importance = d.New
		}
		return state
	case types.EventTagsModified:
		var d struct {
			Added   []string `json:"added"`
			Removed []string `json:"removed"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			for _, tag := range d.Added {
				if !contains(state.Tags, tag) {
					state.Tags = append(state.Tags, tag)
				}
			}
			if len(d.Removed) > 0 {
				state.Tags = without(state.Tags, d.Removed)
			}
		}
		return state
	case types.EventLinkAdded:
		var link types.Link
		if json.Unmarshal(ev.Delta, &link) == nil {
			state.Links = append(state.Links, link)
		}
		return state
	case types.EventLinkRemoved:
		var link types.Link
		if json.Unmarshal(ev.Delta, &link) == nil {
			state.Links = removeLink(state.Links, link)
		}
		return state
	case types.EventRelationshipAdded, types.EventRelationshipRemoved, types.EventStrengthUpdated:
		// Graph-level events — no Memory field changes; causal.Graph owns them.
		return state
	case types.EventArchived:
		state.Archived = true
		return state
	case types.EventRestored:
		state.Archived = false
		return state
	case types.EventDecayed:
		var d struct {
			NewConfidence float64 `json:"new_confidence"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			state.Confidence = d.NewConfidence
		}
		return state
	case types.EventValidated:
		// Grounding metadata lives in grounding_records; no direct field change.
		return state
	case types.EventConsolidated:
		var d struct {
			MergedInto string `json:"merged_into"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			state.SupersededBy = d.MergedInto
		}
		return state
	case types.EventReclassified:
		var d struct {
			NewKind types.Kind `json:"new_kind"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			state.Kind = d.NewKind
		}
		return state
	case types.EventSuperseded:
		var d struct {
			SupersededBy string `json:"superseded_by"`
		}
		if json.Unmarshal(ev.Delta, &d) == nil {
			state.SupersededBy = d.SupersededBy
		}
		return state
	default:
		return state
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func without(ss []string, remove []string) []string {
	out := ss[:0:0]
	for _, v := range ss {
		if !contains(remove, v) {
			out = append(out, v)
		}
	}
	return out
}

func removeLink(links []types.Link, target types.Link) []types.Link {
	out := links[:0:0]
	for _, l := range links {
		if l.Type == target.Type && l.Target == target.Target {
			continue
		}
		out = append(out, l)
	}
	return out
}

// emptyShell builds the zero-value starting point for replay when no
// snapshot exists yet — a memory with the given transaction time and no
// other fields populated until the Created event fills it in.
func emptyShell(memoryID string, at time.Time) *types.Memory {
	return &types.Memory{ID: memoryID, TransactionTime: at, ValidTime: at}
}
