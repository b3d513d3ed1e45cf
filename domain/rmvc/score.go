package rmvc

import (
	"math/big"
	"slices"

	"rmvc/domain/softset"
)

// Scores maps each candidate to S(u) = Σ_e M(u, e).
type Scores map[string]*big.Rat

// ScoresOf sums the matrix columns exactly.
func ScoresOf(mx *Matrix) Scores {
	scores := make(Scores, len(mx.candidates))
	for ui, u := range mx.candidates {
		total := new(big.Rat)
		for ci := range mx.values {
			total.Add(total, mx.values[ci][ui])
		}
		scores[u] = total
	}
	return scores
}

// Get returns a copy of S(u).
func (s Scores) Get(u string) (*big.Rat, bool) {
	v, ok := s[u]
	if !ok {
		return nil, false
	}
	return new(big.Rat).Set(v), true
}

// RankedCandidate is one ranking entry.
type RankedCandidate struct {
	Rank      int      `json:"rank"`
	Candidate string   `json:"candidate"`
	Score     *big.Rat `json:"-"`
	Optimal   bool     `json:"optimal"`
}

// Ranking is ordered by descending score, then ascending natural candidate
// order. Ranks are 1-based and strictly increasing.
type Ranking []RankedCandidate

// Rank orders the scores. Ties are decided on exact values only.
func Rank(scores Scores) Ranking {
	ranking := make(Ranking, 0, len(scores))
	for u, v := range scores {
		ranking = append(ranking, RankedCandidate{Candidate: u, Score: new(big.Rat).Set(v)})
	}
	slices.SortFunc(ranking, func(a, b RankedCandidate) int {
		if c := b.Score.Cmp(a.Score); c != 0 {
			return c
		}
		return softset.CompareCandidates(a.Candidate, b.Candidate)
	})
	for i := range ranking {
		ranking[i].Rank = i + 1
		ranking[i].Optimal = ranking[i].Score.Cmp(ranking[0].Score) == 0
	}
	return ranking
}

// Best returns the maximum score, or nil for an empty ranking.
func (r Ranking) Best() *big.Rat {
	if len(r) == 0 {
		return nil
	}
	return new(big.Rat).Set(r[0].Score)
}

// Optimal returns every candidate whose score equals the maximum.
func (r Ranking) Optimal() []string {
	var out []string
	for _, rc := range r {
		if !rc.Optimal {
			break
		}
		out = append(out, rc.Candidate)
	}
	return out
}

// Position returns the 1-based rank of u, or 0 if u is not ranked.
func (r Ranking) Position(u string) int {
	for _, rc := range r {
		if rc.Candidate == u {
			return rc.Rank
		}
	}
	return 0
}

// OptimalSet recomputes the optimal choices straight from a score mapping,
// without sorting. It agrees with Rank(scores).Optimal().
func OptimalSet(scores Scores) ([]string, *big.Rat) {
	var best *big.Rat
	var optimal []string
	for u, v := range scores {
		switch {
		case best == nil || v.Cmp(best) > 0:
			best = v
			optimal = append(optimal[:0], u)
		case v.Cmp(best) == 0:
			optimal = append(optimal, u)
		}
	}
	if best == nil {
		return nil, nil
	}
	softset.SortCandidates(optimal)
	return optimal, new(big.Rat).Set(best)
}
