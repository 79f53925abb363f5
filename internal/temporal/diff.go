package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// DiffScope narrows a diff to a subset of memories. An empty Scope matches
// everything ("all").
type DiffScope struct {
	Kinds     []types.Kind
	Files     []string
	Namespace string
}

func (s DiffScope) matches(m *types.Memory) bool {
	if len(s.Kinds) > 0 && !containsKind(s.Kinds, m.Kind) {
		return false
	}
	if len(s.Files) > 0 && !anyFileLinkMatches(s.Files, m.Links) {
		return false
	}
	if s.Namespace != "" && m.Namespace != s.Namespace {
		return false
	}
	return true
}

// FieldChange names one field that differs between two snapshots of a memory.
type FieldChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old"`
	New   interface{} `json:"new"`
}

// Modification is one memory present at both instants with differing fields.
type Modification struct {
	MemoryID string        `json:"memory_id"`
	Changes  []FieldChange `json:"changes"`
}

// Reclassification records a kind change between the two instants.
type Reclassification struct {
	MemoryID   string     `json:"memory_id"`
	OldKind    types.Kind `json:"old_kind"`
	NewKind    types.Kind `json:"new_kind"`
	Confidence float64    `json:"confidence"`
}

// Diff is the full result of QueryDiff.
type Diff struct {
	Created                []*types.Memory    `json:"created"`
	Archived               []*types.Memory    `json:"archived"`
	Modified               []Modification     `json:"modified"`
	ConfidenceShifts       []Modification     `json:"confidence_shifts"`
	NewContradictions      []*types.Memory    `json:"new_contradictions"`
	ResolvedContradictions []*types.Memory    `json:"resolved_contradictions"`
	Reclassifications      []Reclassification `json:"reclassifications"`

	MemoriesAtA        int     `json:"memories_at_a"`
	MemoriesAtB        int     `json:"memories_at_b"`
	NetChange          int     `json:"net_change"`
	AvgConfidenceA     float64 `json:"avg_confidence_a"`
	AvgConfidenceB     float64 `json:"avg_confidence_b"`
	ConfidenceTrend    float64 `json:"confidence_trend"`
	KnowledgeChurnRate float64 `json:"knowledge_churn_rate"`
}

// confidenceShiftThreshold is the minimum |delta| for a modification to
// also be reported as a confidence shift.
const confidenceShiftThreshold = 0.2

// QueryDiff compares the reconstructed state at timeA and timeB, restricted
// to scope, and reports structural and confidence-level differences.
func (q *QueryLayer) QueryDiff(ctx context.Context, timeA, timeB time.Time, scope DiffScope) (*Diff, error) {
	if !timeA.Before(timeB) {
		return nil, fmt.Errorf("temporal: query diff: time_a (%s) must be before time_b (%s)", timeA, timeB)
	}

	atA, err := q.snapshots.ReconstructAllAt(ctx, timeA)
	if err != nil {
		return nil, fmt.Errorf("temporal: query diff: reconstruct at a: %w", err)
	}
	atB, err := q.snapshots.ReconstructAllAt(ctx, timeB)
	if err != nil {
		return nil, fmt.Errorf("temporal: query diff: reconstruct at b: %w", err)
	}

	byIDA := indexByID(filterScope(filterLiveAt(atA, timeA), scope))
	byIDB := indexByID(filterScope(filterLiveAt(atB, timeB), scope))

	diff := &Diff{MemoriesAtA: len(byIDA), MemoriesAtB: len(byIDB)}

	for id, mb := range byIDB {
		if _, ok := byIDA[id]; !ok {
			diff.Created = append(diff.Created, mb)
			if mb.Kind == types.KindFeedback && hasContradictsTag(mb) {
				diff.NewContradictions = append(diff.NewContradictions, mb)
			}
		}
	}
	for id, ma := range byIDA {
		if _, ok := byIDB[id]; !ok {
			diff.Archived = append(diff.Archived, ma)
			if ma.Kind == types.KindFeedback && hasContradictsTag(ma) {
				diff.ResolvedContradictions = append(diff.ResolvedContradictions, ma)
			}
		}
	}

	var sumConfA, sumConfB float64
	for _, m := range byIDA {
		sumConfA += m.Confidence
	}
	for _, m := range byIDB {
		sumConfB += m.Confidence
	}
	if len(byIDA) > 0 {
		diff.AvgConfidenceA = sumConfA / float64(len(byIDA))
	}
	if len(byIDB) > 0 {
		diff.AvgConfidenceB = sumConfB / float64(len(byIDB))
	}
	diff.ConfidenceTrend = diff.AvgConfidenceB - diff.AvgConfidenceA

	for id, ma := range byIDA {
		mb, ok := byIDB[id]
		if !ok {
			continue
		}
		changes := fieldChanges(ma, mb)
		if len(changes) > 0 {
			mod := Modification{MemoryID: id, Changes: changes}
			diff.Modified = append(diff.Modified, mod)
		}
		if delta := mb.Confidence - ma.Confidence; abs(delta) > confidenceShiftThreshold {
			diff.ConfidenceShifts = append(diff.ConfidenceShifts, Modification{
				MemoryID: id,
				Changes:  []FieldChange{{Field: "confidence", Old: ma.Confidence, New: mb.Confidence}},
			})
		}
		if ma.Kind != mb.Kind {
			diff.Reclassifications = append(diff.Reclassifications, Reclassification{
				MemoryID: id, OldKind: ma.Kind, NewKind: mb.Kind, Confidence: mb.Confidence,
			})
		}
	}

	total := len(byIDB)
	if total == 0 {
		total = len(byIDA)
	}
	diff.NetChange = len(byIDB) - len(byIDA)
	if total > 0 {
		diff.KnowledgeChurnRate = float64(len(diff.Created)+len(diff.Archived)) / float64(total)
	}

	return diff, nil
}

func indexByID(memories []*types.Memory) map[string]*types.Memory {
	out := make(map[string]*types.Memory, len(memories))
	for _, m := range memories {
		out[m.ID] = m
	}
	return out
}

// filterLiveAt keeps only the memories that are actually the live record at
// t — ReconstructAllAt already drops archived rows, but a memory superseded
// before t (valid_until <= t, archived still false) must also drop out, or
// it reads as unchanged across a diff that superseded it.
func filterLiveAt(memories []*types.Memory, t time.Time) []*types.Memory {
	var out []*types.Memory
	for _, m := range memories {
		if m.LiveAt(t) {
			out = append(out, m)
		}
	}
	return out
}

func filterScope(memories []*types.Memory, scope DiffScope) []*types.Memory {
	var out []*types.Memory
	for _, m := range memories {
		if scope.matches(m) {
			out = append(out, m)
		}
	}
	return out
}

func hasContradictsTag(m *types.Memory) bool {
	for _, t := range m.Tags {
		if len(t) > len("contradicts:") && t[:len("contradicts:")] == "contradicts:" {
			return true
		}
	}
	return false
}

func fieldChanges(a, b *types.Memory) []FieldChange {
	var changes []FieldChange
	if a.Summary != b.Summary {
		changes = append(changes, FieldChange{Field: "summary", Old: a.Summary, New: b.Summary})
	}
	if a.Confidence != b.Confidence {
		changes = append(changes, FieldChange{Field: "confidence", Old: a.Confidence, New: b.Confidence})
	}
	if a.Importance != b.Importance {
		changes = append(changes, FieldChange{Field: "importance", Old: a.Importance, New: b.Importance})
	}
	if a.Kind != b.Kind {
		changes = append(changes, FieldChange{Field: "kind", Old: a.Kind, New: b.Kind})
	}
	if a.SupersededBy != b.SupersededBy {
		changes = append(changes, FieldChange{Field: "superseded_by", Old: a.SupersededBy, New: b.SupersededBy})
	}
	if a.Archived != b.Archived {
		changes = append(changes, FieldChange{Field: "archived", Old: a.Archived, New: b.Archived})
	}
	return changes
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
