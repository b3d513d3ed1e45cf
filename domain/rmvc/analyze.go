package rmvc

import (
	"context"
	"math/big"

	"rmvc/domain/softset"
)

// Result bundles every artifact of one analysis run.
type Result struct {
	Set     *softset.SoftSet
	Matrix  *Matrix
	Scores  Scores
	Ranking Ranking
}

// Analyze runs delta, matrix, scores and ranking over s.
func Analyze(s *softset.SoftSet) (*Result, error) {
	mx, err := BuildMatrix(s)
	if err != nil {
		return nil, err
	}
	return resultOf(mx), nil
}

// AnalyzeConcurrent is Analyze with the matrix rows fanned out to workers.
func AnalyzeConcurrent(ctx context.Context, s *softset.SoftSet, workers int) (*Result, error) {
	mx, err := BuildMatrixConcurrent(ctx, s, workers)
	if err != nil {
		return nil, err
	}
	return resultOf(mx), nil
}

func resultOf(mx *Matrix) *Result {
	scores := ScoresOf(mx)
	return &Result{
		Set:     mx.Set(),
		Matrix:  mx,
		Scores:  scores,
		Ranking: Rank(scores),
	}
}

// Optimal returns the optimal choices and their score.
func (r *Result) Optimal() ([]string, *big.Rat) {
	return r.Ranking.Optimal(), r.Ranking.Best()
}
