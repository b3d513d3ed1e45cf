package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"rmvc/domain/rmvc"
)

// Mode selects how membership values are printed.
type Mode string

const (
	ModeExact   Mode = "exact"   // 5/9
	ModeDecimal Mode = "decimal" // 0.5556
)

// ParseMode accepts "exact" or "decimal" (the default).
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeDecimal):
		return ModeDecimal, nil
	case string(ModeExact):
		return ModeExact, nil
	default:
		return "", fmt.Errorf("unknown export mode %q (want exact|decimal)", s)
	}
}

// MatrixCSV writes M with one row per criterion and a final score row.
type MatrixCSV struct {
	Mode      Mode
	Precision int
}

// ContentType implements ports.ResultExporter.
func (e MatrixCSV) ContentType() string { return "text/csv; charset=utf-8" }

// Export implements ports.ResultExporter.
func (e MatrixCSV) Export(w io.Writer, res *rmvc.Result) error {
	cw := csv.NewWriter(w)
	candidates := res.Matrix.Candidates()

	header := append([]string{"criterion", "label"}, candidates...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for ci, c := range res.Set.Criteria() {
		record := make([]string, 0, len(header))
		record = append(record, c.Key, c.Label)
		for ui := range candidates {
			record = append(record, e.format(res.Matrix.Value(ci, ui)))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	scoreRow := []string{"score", ""}
	for _, u := range candidates {
		s, _ := res.Scores.Get(u)
		scoreRow = append(scoreRow, e.format(s))
	}
	if err := cw.Write(scoreRow); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (e MatrixCSV) format(r *big.Rat) string {
	if e.Mode == ModeExact {
		return rmvc.FormatExact(r)
	}
	return rmvc.FormatRat(r, e.Precision)
}

// RankingCSV writes the ranking with exact and decimal scores.
type RankingCSV struct {
	Precision int
}

// ContentType implements ports.ResultExporter.
func (e RankingCSV) ContentType() string { return "text/csv; charset=utf-8" }

// Export implements ports.ResultExporter.
func (e RankingCSV) Export(w io.Writer, res *rmvc.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "candidate", "score", "score_decimal", "optimal"}); err != nil {
		return err
	}
	for _, rc := range res.Ranking {
		record := []string{
			strconv.Itoa(rc.Rank),
			rc.Candidate,
			rmvc.FormatExact(rc.Score),
			rmvc.FormatRat(rc.Score, e.Precision),
			strconv.FormatBool(rc.Optimal),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CriteriaCSV writes one row per criterion: key, label, |Φ(e)|, γ(e) and the
// members in natural order.
type CriteriaCSV struct{}

// ContentType implements ports.ResultExporter.
func (CriteriaCSV) ContentType() string { return "text/csv; charset=utf-8" }

// Export implements ports.ResultExporter.
func (CriteriaCSV) Export(w io.Writer, res *rmvc.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"criterion", "label", "size", "gamma", "members"}); err != nil {
		return err
	}
	for _, c := range res.Set.Criteria() {
		gamma, _ := res.Matrix.Gamma(c.Key)
		record := []string{
			c.Key,
			c.Label,
			strconv.Itoa(c.Size()),
			strconv.FormatInt(gamma, 10),
			strings.Join(c.Members, ", "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
