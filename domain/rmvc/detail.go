package rmvc

import (
	"fmt"
	"math/big"

	"rmvc/domain/core"
)

// CandidateDetail is one candidate's membership profile across all criteria.
type CandidateDetail struct {
	Candidate  string
	Rank       int
	Of         int     // |U|
	Percentile float64 // (1 - Rank/|U|) · 100
	Score      *big.Rat
	Optimal    bool
	Entries    []DetailEntry // criterion order
}

// DetailEntry is M(u, e) for one criterion. Delta is only meaningful for
// non-members.
type DetailEntry struct {
	Criterion string
	Label     string
	Member    bool
	Delta     int
	Gamma     int64
	Value     *big.Rat
}

// Candidate builds the detail view of u.
func (r *Result) Candidate(u string) (*CandidateDetail, error) {
	rank := r.Ranking.Position(u)
	if rank == 0 {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCandidate, u)
	}
	score, _ := r.Scores.Get(u)
	n := r.Set.Size()
	d := &CandidateDetail{
		Candidate:  u,
		Rank:       rank,
		Of:         n,
		Percentile: (1 - float64(rank)/float64(n)) * 100,
		Score:      score,
		Optimal:    r.Ranking[rank-1].Optimal,
	}
	for _, c := range r.Set.Criteria() {
		value, _ := r.Matrix.At(c.Key, u)
		gamma, _ := r.Matrix.Gamma(c.Key)
		delta, nonMember := r.Matrix.DeltaOf(c.Key, u)
		d.Entries = append(d.Entries, DetailEntry{
			Criterion: c.Key,
			Label:     c.Label,
			Member:    !nonMember,
			Delta:     delta,
			Gamma:     gamma,
			Value:     value,
		})
	}
	return d, nil
}
