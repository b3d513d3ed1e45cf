package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"rmvc/domain/rmvc"
)

// ErrRoundTrip reports an exported matrix whose columns no longer sum to
// the scores it was exported with.
var ErrRoundTrip = errors.New("exported matrix does not reproduce the scores")

// MatrixFile is a matrix CSV read back from disk.
type MatrixFile struct {
	Candidates []string
	Criteria   []string
	Labels     []string
	Exact      [][]*big.Rat // [criterion][candidate]
	Values     *mat.Dense   // float view of Exact
	Scores     []*big.Rat   // the printed score row
}

// ReadMatrixCSV parses a file written by MatrixCSV in either mode.
func ReadMatrixCSV(r io.Reader) (*MatrixFile, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("matrix CSV needs a header and a score row, got %d rows", len(records))
	}
	header := records[0]
	if len(header) < 3 || header[0] != "criterion" || header[1] != "label" {
		return nil, fmt.Errorf("unexpected matrix CSV header %v", header)
	}
	last := records[len(records)-1]
	if last[0] != "score" {
		return nil, fmt.Errorf("matrix CSV must end with a score row, got %q", last[0])
	}

	file := &MatrixFile{Candidates: slices.Clone(header[2:])}
	n := len(file.Candidates)
	body := records[1 : len(records)-1]
	data := make([]float64, 0, len(body)*n)
	for _, rec := range body {
		row, err := parseRats(rec, n)
		if err != nil {
			return nil, err
		}
		file.Criteria = append(file.Criteria, rec[0])
		file.Labels = append(file.Labels, rec[1])
		file.Exact = append(file.Exact, row)
		for _, v := range row {
			data = append(data, rmvc.Approx(v))
		}
	}
	if file.Scores, err = parseRats(last, n); err != nil {
		return nil, err
	}
	if len(body) > 0 {
		file.Values = mat.NewDense(len(body), n, data)
	}
	return file, nil
}

func parseRats(rec []string, n int) ([]*big.Rat, error) {
	if len(rec) != n+2 {
		return nil, fmt.Errorf("matrix CSV row %q has %d values, want %d", rec[0], len(rec)-2, n)
	}
	out := make([]*big.Rat, n)
	for i, cell := range rec[2:] {
		v, err := rmvc.ParseRat(cell)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", rec[0], err)
		}
		out[i] = v
	}
	return out, nil
}

// ColumnSums returns the float column sums of the re-ingested matrix.
func (f *MatrixFile) ColumnSums() []float64 {
	sums := make([]float64, len(f.Candidates))
	if f.Values == nil {
		return sums
	}
	for j := range sums {
		sums[j] = floats.Sum(mat.Col(nil, j, f.Values))
	}
	return sums
}

// VerifyRoundTrip checks that the re-ingested matrix reproduces the scores
// of res. Exact files must match exactly; decimal files within half a unit
// of the last printed digit per summed cell.
func VerifyRoundTrip(f *MatrixFile, res *rmvc.Result, mode Mode, precision int) error {
	candidates := res.Matrix.Candidates()
	if !slices.Equal(f.Candidates, candidates) {
		return fmt.Errorf("%w: candidate columns %v, want %v", ErrRoundTrip, f.Candidates, candidates)
	}
	if len(f.Criteria) != len(res.Matrix.Criteria()) {
		return fmt.Errorf("%w: %d criterion rows, want %d", ErrRoundTrip, len(f.Criteria), len(res.Matrix.Criteria()))
	}

	want := make([]float64, len(candidates))
	for j, u := range candidates {
		s, _ := res.Scores.Get(u)
		want[j] = rmvc.Approx(s)
	}

	if mode == ModeExact {
		for j, u := range candidates {
			sum := new(big.Rat)
			for ci := range f.Exact {
				sum.Add(sum, f.Exact[ci][j])
			}
			s, _ := res.Scores.Get(u)
			if sum.Cmp(s) != 0 {
				return fmt.Errorf("%w: column %s sums to %s, score is %s", ErrRoundTrip, u, sum.RatString(), s.RatString())
			}
		}
		if !floats.EqualApprox(f.ColumnSums(), want, 1e-9) {
			return fmt.Errorf("%w: float column sums drifted", ErrRoundTrip)
		}
		return nil
	}

	tol := 0.5 * math.Pow10(-precision) * float64(len(f.Criteria)+1)
	got := f.ColumnSums()
	for j, u := range candidates {
		if !scalar.EqualWithinAbs(got[j], want[j], tol) {
			return fmt.Errorf("%w: column %s sums to %.*f, score is %.*f (tolerance %g)",
				ErrRoundTrip, u, precision+2, got[j], precision+2, want[j], tol)
		}
	}
	return nil
}
