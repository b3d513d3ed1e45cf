package rmvc

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"rmvc/domain/core"
	"rmvc/domain/softset"
)

// Matrix is the membership matrix M, one row per criterion and one column
// per candidate. It is immutable; accessors return copies.
type Matrix struct {
	set        *softset.SoftSet
	keys       []string
	candidates []string
	gamma      []int64
	delta      [][]int // -1 for members
	values     [][]*big.Rat
}

type matrixRow struct {
	gamma  int64
	delta  []int
	values []*big.Rat
}

// Validate checks the preconditions of an analysis: a non-empty universe
// and at least core.MinCriteria non-empty criteria.
func Validate(s *softset.SoftSet) error {
	if s == nil || s.Size() == 0 {
		return core.NewEmptyUniverseError()
	}
	if n := s.NonEmptyCount(); n < core.MinCriteria {
		return core.NewInsufficientCriteriaError(n)
	}
	return nil
}

// BuildMatrix computes M for every (criterion, candidate) pair.
func BuildMatrix(s *softset.SoftSet) (*Matrix, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	rows := make([]matrixRow, s.CriterionCount())
	for ci := range rows {
		rows[ci] = buildRow(s, ci)
	}
	return assemble(s, rows), nil
}

// BuildMatrixConcurrent is BuildMatrix with criterion rows computed by up to
// workers goroutines. The result is identical to BuildMatrix.
func BuildMatrixConcurrent(ctx context.Context, s *softset.SoftSet, workers int) (*Matrix, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	if workers <= 1 {
		return BuildMatrix(s)
	}

	rows := make([]matrixRow, s.CriterionCount())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ci := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[ci] = buildRow(s, ci)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build membership matrix: %w", err)
	}
	return assemble(s, rows), nil
}

func buildRow(s *softset.SoftSet, ci int) matrixRow {
	m := int64(s.CriterionCount())
	size := int64(0)
	for u := 0; u < s.Size(); u++ {
		if s.Member(ci, u) {
			size++
		}
	}
	gamma := size * (m - 1)

	delta := deltaRow(s, ci)
	values := make([]*big.Rat, len(delta))
	for u, d := range delta {
		switch {
		case d < 0:
			values[u] = big.NewRat(1, 1)
		case gamma > 0:
			values[u] = big.NewRat(int64(d), gamma)
		default:
			// empty criterion: no co-occurrence can be normalized
			values[u] = new(big.Rat)
		}
	}
	return matrixRow{gamma: gamma, delta: delta, values: values}
}

func assemble(s *softset.SoftSet, rows []matrixRow) *Matrix {
	mx := &Matrix{
		set:        s,
		keys:       s.Keys(),
		candidates: s.Universe(),
		gamma:      make([]int64, len(rows)),
		delta:      make([][]int, len(rows)),
		values:     make([][]*big.Rat, len(rows)),
	}
	for i, r := range rows {
		mx.gamma[i] = r.gamma
		mx.delta[i] = r.delta
		mx.values[i] = r.values
	}
	return mx
}

// Set returns the soft set the matrix was built from.
func (mx *Matrix) Set() *softset.SoftSet { return mx.set }

// Criteria returns the row keys.
func (mx *Matrix) Criteria() []string { return append([]string(nil), mx.keys...) }

// Candidates returns the column identifiers in natural order.
func (mx *Matrix) Candidates() []string { return append([]string(nil), mx.candidates...) }

// At returns M(u, e).
func (mx *Matrix) At(key, u string) (*big.Rat, bool) {
	ci, ok := mx.set.CriterionIndex(key)
	if !ok {
		return nil, false
	}
	ui, ok := mx.set.CandidateIndex(u)
	if !ok {
		return nil, false
	}
	return new(big.Rat).Set(mx.values[ci][ui]), true
}

// Row returns M(·, e) keyed by candidate.
func (mx *Matrix) Row(key string) (map[string]*big.Rat, bool) {
	ci, ok := mx.set.CriterionIndex(key)
	if !ok {
		return nil, false
	}
	row := make(map[string]*big.Rat, len(mx.candidates))
	for ui, u := range mx.candidates {
		row[u] = new(big.Rat).Set(mx.values[ci][ui])
	}
	return row, true
}

// Gamma returns γ(e).
func (mx *Matrix) Gamma(key string) (int64, bool) {
	ci, ok := mx.set.CriterionIndex(key)
	if !ok {
		return 0, false
	}
	return mx.gamma[ci], true
}

// DeltaOf returns δ(u, e); ok is false when u ∈ Φ(e) or either key is unknown.
func (mx *Matrix) DeltaOf(key, u string) (int, bool) {
	ci, ok := mx.set.CriterionIndex(key)
	if !ok {
		return 0, false
	}
	ui, ok := mx.set.CandidateIndex(u)
	if !ok || mx.delta[ci][ui] < 0 {
		return 0, false
	}
	return mx.delta[ci][ui], true
}

// Value is the index-based accessor: criterion row ci, candidate column ui.
func (mx *Matrix) Value(ci, ui int) *big.Rat {
	return new(big.Rat).Set(mx.values[ci][ui])
}

// Float returns a display approximation of M, [criterion][candidate].
func (mx *Matrix) Float() [][]float64 {
	out := make([][]float64, len(mx.values))
	for ci, row := range mx.values {
		out[ci] = make([]float64, len(row))
		for ui, v := range row {
			out[ci][ui] = Approx(v)
		}
	}
	return out
}

// Threshold derives the soft set of the next iteration:
// Φ'(e) = {u : M(u, e) ≥ cut}. cut must lie in (0, 1].
func (mx *Matrix) Threshold(cut *big.Rat) (*softset.SoftSet, error) {
	if cut == nil || cut.Sign() <= 0 || cut.Cmp(big.NewRat(1, 1)) > 0 {
		return nil, fmt.Errorf("%w: %v not in (0, 1]", core.ErrInvalidThreshold, cut)
	}
	criteria := mx.set.Criteria()
	for ci := range criteria {
		members := make([]string, 0, len(mx.candidates))
		for ui, u := range mx.candidates {
			if mx.values[ci][ui].Cmp(cut) >= 0 {
				members = append(members, u)
			}
		}
		criteria[ci].Members = members
	}
	return softset.New(mx.candidates, criteria)
}
