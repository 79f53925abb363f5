// Package temporal implements the as-of, range, diff, decision-replay, and
// temporal-causal query operations over reconstructed memory state. Every
// result-set-producing query enforces temporal referential integrity: a
// pointer (supersedes/superseded_by, or a linked pattern/constraint) whose
// target fell out of the result set is cleared from the returned copy only
// — the stored row is never touched.
package temporal

import "github.com/ruizrica/drift-sub006/internal/types"

// EnforceReferentialIntegrity clones every memory in set and clears any
// supersedes/superseded_by/link pointer whose target is not present among
// the IDs in set.
func EnforceReferentialIntegrity(set []*types.Memory) []*types.Memory {
	present := make(map[string]bool, len(set))
	for _, m := range set {
		present[m.ID] = true
	}
	return enforceAgainst(set, present)
}

// EnforceReferentialIntegrityAgainst is EnforceReferentialIntegrity but
// checks pointer targets against an explicit universe of present IDs
// instead of the output set itself — used by range queries, which must
// validate pointers against the memories present at the query window's
// midpoint, not just the (possibly narrower) matched set.
func EnforceReferentialIntegrityAgainst(set []*types.Memory, universe []*types.Memory) []*types.Memory {
	present := make(map[string]bool, len(universe))
	for _, m := range universe {
		present[m.ID] = true
	}
	return enforceAgainst(set, present)
}

func enforceAgainst(set []*types.Memory, present map[string]bool) []*types.Memory {
	out := make([]*types.Memory, len(set))
	for i, m := range set {
		cp := m.Clone()
		if cp.Supersedes != "" && !present[cp.Supersedes] {
			cp.Supersedes = ""
		}
		if cp.SupersededBy != "" && !present[cp.SupersededBy] {
			cp.SupersededBy = ""
		}
		filtered := cp.Links[:0:0]
		for _, link := range cp.Links {
			if (link.Type == "pattern" || link.Type == "constraint") && !present[link.Target] {
				continue
			}
			filtered = append(filtered, link)
		}
		cp.Links = filtered
		out[i] = cp
	}
	return out
}
