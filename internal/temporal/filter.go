package temporal

import "github.com/ruizrica/drift-sub006/internal/types"

// Filter narrows a query result by kind, tag, or file link. A zero-value
// Filter matches everything.
type Filter struct {
	Kinds []types.Kind
	Tags  []string
	Files []string
}

// Matches reports whether m satisfies f. Kinds/Tags/Files are OR'd within
// themselves and AND'd across dimensions: an empty dimension is ignored.
func (f Filter) Matches(m *types.Memory) bool {
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, m.Kind) {
		return false
	}
	if len(f.Tags) > 0 && !anyTagMatches(f.Tags, m.Tags) {
		return false
	}
	if len(f.Files) > 0 && !anyFileLinkMatches(f.Files, m.Links) {
		return false
	}
	return true
}

func containsKind(kinds []types.Kind, k types.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

func anyTagMatches(want, have []string) bool {
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, w := range want {
		if set[w] {
			return true
		}
	}
	return false
}

func anyFileLinkMatches(want []string, links []types.Link) bool {
	set := make(map[string]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	for _, l := range links {
		if l.Type == "file" && set[l.Target] {
			return true
		}
	}
	return false
}
