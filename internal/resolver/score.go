package resolver

import "sort"

// ScoreCandidates ranks candidates by descending priority, breaking ties
// lexicographically by id so the ordering is fully deterministic (mirrors
// the score-then-stable-sort shape used elsewhere in the resolver's
// ancestry, adapted here since ChooseDeterministic must never depend on
// input order).
func ScoreCandidates(candidates []Candidate) []Candidate {
	ranked := append([]Candidate(nil), candidates...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority > ranked[j].Priority
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}
