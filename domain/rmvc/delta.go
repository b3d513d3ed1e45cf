package rmvc

import (
	"fmt"

	"rmvc/domain/core"
	"rmvc/domain/softset"
)

// Delta returns δ(u, e) for every u ∈ U \ Φ(e). Every criterion containing
// both u and v contributes, including repeated co-occurrences of one pair.
func Delta(s *softset.SoftSet, key string) (map[string]int, error) {
	ci, ok := s.CriterionIndex(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCriterion, key)
	}
	row := deltaRow(s, ci)
	universe := s.Universe()
	out := make(map[string]int, len(universe))
	for ui, d := range row {
		if d >= 0 {
			out[universe[ui]] = d
		}
	}
	return out, nil
}

// deltaRow computes δ for criterion ci indexed by candidate; members get -1.
//
// Σ_{v∈Φ(e)} Σ_j [u∈Φ_j ∧ v∈Φ_j] = Σ_j [u∈Φ_j] · |Φ_j ∩ Φ(e)|, so the
// per-criterion overlaps are computed once and reused for every u.
func deltaRow(s *softset.SoftSet, ci int) []int {
	n, m := s.Size(), s.CriterionCount()

	overlap := make([]int, m)
	for j := 0; j < m; j++ {
		for v := 0; v < n; v++ {
			if s.Member(ci, v) && s.Member(j, v) {
				overlap[j]++
			}
		}
	}

	row := make([]int, n)
	for u := 0; u < n; u++ {
		if s.Member(ci, u) {
			row[u] = -1
			continue
		}
		sum := 0
		for j := 0; j < m; j++ {
			if s.Member(j, u) {
				sum += overlap[j]
			}
		}
		row[u] = sum
	}
	return row
}
