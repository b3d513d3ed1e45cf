package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"rmvc/app"
	"rmvc/domain/dataset"
	"rmvc/domain/rmvc"
	"rmvc/domain/run"
	"rmvc/internal/testkit"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7"))
	optimalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D787"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF005F"))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

type rankingRow struct {
	Rank         int    `json:"rank"`
	Candidate    string `json:"candidate"`
	Score        string `json:"score"`
	ScoreDecimal string `json:"score_decimal"`
	Optimal      bool   `json:"optimal"`
}

type runOutput struct {
	ID               string              `json:"id"`
	Iteration        int                 `json:"iteration"`
	Parent           string              `json:"parent,omitempty"`
	Source           string              `json:"source"`
	Params           run.Params          `json:"params"`
	Fingerprint      string              `json:"fingerprint"`
	Optimal          []string            `json:"optimal"`
	BestScore        string              `json:"best_score"`
	BestScoreDecimal string              `json:"best_score_decimal"`
	Ranking          []rankingRow        `json:"ranking"`
	Issues           []dataset.CellIssue `json:"issues,omitempty"`
	DroppedCriteria  []string            `json:"dropped_criteria,omitempty"`
}

func toOutput(rec *run.Record, precision, top int) runOutput {
	optimal, best := rec.Optimal()
	out := runOutput{
		ID:               rec.ID.String(),
		Iteration:        rec.Iteration,
		Source:           rec.Source,
		Params:           rec.Params,
		Fingerprint:      rec.Fingerprint.String(),
		Optimal:          optimal,
		BestScore:        rmvc.FormatExact(best),
		BestScoreDecimal: rmvc.FormatRat(best, precision),
	}
	if rec.Iteration > 0 {
		out.Parent = rec.Parent.String()
	}
	for _, rc := range limit(rec.Result.Ranking, top) {
		out.Ranking = append(out.Ranking, rankingRow{
			Rank:         rc.Rank,
			Candidate:    rc.Candidate,
			Score:        rmvc.FormatExact(rc.Score),
			ScoreDecimal: rmvc.FormatRat(rc.Score, precision),
			Optimal:      rc.Optimal,
		})
	}
	return out
}

func limit(r rmvc.Ranking, top int) rmvc.Ranking {
	if top > 0 && top < len(r) {
		return r[:top]
	}
	return r
}

func renderAnalysis(w io.Writer, format string, res *app.AnalysisResult, precision, top int) error {
	out := toOutput(res.Record, precision, top)
	out.Issues = res.Issues
	out.DroppedCriteria = res.DroppedCriteria
	if format == "json" {
		return writeJSON(w, out)
	}

	set := res.Record.Result.Set
	fmt.Fprintln(w, titleStyle.Render("RMVC analysis: "+res.Record.Source))
	fmt.Fprintf(w, "Candidates: %d   Criteria: %d (%d non-empty)\n", set.Size(), set.CriterionCount(), set.NonEmptyCount())
	if len(res.DroppedCriteria) > 0 {
		fmt.Fprintln(w, hintStyle.Render("Dropped below minimum size: "+strings.Join(res.DroppedCriteria, ", ")))
	}
	fmt.Fprintln(w, rankingTable(out.Ranking))
	fmt.Fprintf(w, "Optimal choice: %s  (score %s = %s)\n",
		optimalStyle.Render(strings.Join(out.Optimal, ", ")), out.BestScoreDecimal, out.BestScore)

	if n := len(res.Issues); n > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%d cell(s) could not be read and were treated as absent:", n)))
		for i, issue := range res.Issues {
			if i == 10 {
				fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("  ... %d more", n-i)))
				break
			}
			fmt.Fprintln(w, "  "+issue.String())
		}
	}
	return nil
}

type membershipRow struct {
	Criterion    string `json:"criterion"`
	Label        string `json:"label,omitempty"`
	Member       bool   `json:"member"`
	Delta        *int   `json:"delta,omitempty"`
	Gamma        int64  `json:"gamma"`
	Value        string `json:"value"`
	ValueDecimal string `json:"value_decimal"`
}

type candidateOutput struct {
	Candidate    string          `json:"candidate"`
	Rank         int             `json:"rank"`
	Of           int             `json:"of"`
	Percentile   float64         `json:"percentile"`
	Score        string          `json:"score"`
	ScoreDecimal string          `json:"score_decimal"`
	Optimal      bool            `json:"optimal"`
	Memberships  []membershipRow `json:"memberships"`
}

func renderCandidate(w io.Writer, format string, d *rmvc.CandidateDetail, precision int) error {
	out := candidateOutput{
		Candidate:    d.Candidate,
		Rank:         d.Rank,
		Of:           d.Of,
		Percentile:   d.Percentile,
		Score:        rmvc.FormatExact(d.Score),
		ScoreDecimal: rmvc.FormatRat(d.Score, precision),
		Optimal:      d.Optimal,
	}
	rows := make([][]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		m := membershipRow{
			Criterion:    e.Criterion,
			Label:        e.Label,
			Member:       e.Member,
			Gamma:        e.Gamma,
			Value:        rmvc.FormatExact(e.Value),
			ValueDecimal: rmvc.FormatRat(e.Value, precision),
		}
		member, delta := "", strconv.Itoa(e.Delta)
		if e.Member {
			member, delta = "yes", "-"
		} else {
			n := e.Delta
			m.Delta = &n
		}
		out.Memberships = append(out.Memberships, m)
		rows = append(rows, []string{m.Criterion, m.Label, member, delta, strconv.FormatInt(m.Gamma, 10), m.Value, m.ValueDecimal})
	}
	if format == "json" {
		return writeJSON(w, out)
	}

	heading := "Candidate " + d.Candidate
	if d.Optimal {
		heading += " " + optimalStyle.Render("(optimal)")
	}
	fmt.Fprintln(w, titleStyle.Render(heading))
	fmt.Fprintf(w, "Rank: %d/%d   Percentile: %.1f   Score: %s = %s\n",
		d.Rank, d.Of, d.Percentile, out.ScoreDecimal, out.Score)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Criterion", "Label", "Member", "δ", "γ", "M", "Decimal").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		})
	fmt.Fprintln(w, t)
	return nil
}

func renderHistory(w io.Writer, format string, history *run.History, precision, top int) error {
	records := history.Records()
	if format == "json" {
		outs := make([]runOutput, len(records))
		for i, rec := range records {
			outs[i] = toOutput(rec, precision, top)
		}
		return writeJSON(w, outs)
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		optimal, best := rec.Optimal()
		threshold := rec.Params.Threshold
		if threshold == "" {
			threshold = "-"
		}
		rows[i] = []string{
			strconv.Itoa(rec.Iteration),
			threshold,
			strings.Join(optimal, ", "),
			rmvc.FormatRat(best, precision),
			rec.Fingerprint.Short(),
		}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Iteration", "Threshold", "Optimal", "Best score", "Fingerprint").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		})
	fmt.Fprintln(w, titleStyle.Render("RMVC iterations"))
	fmt.Fprintln(w, t)

	last := records[len(records)-1]
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Ranking after iteration %d", last.Iteration)))
	fmt.Fprintln(w, rankingTable(toOutput(last, precision, top).Ranking))
	return nil
}

func renderReferenceCheck(w io.Writer, res *rmvc.Result) error {
	failed := 0
	rows := make([][]string, 0, 7)
	for _, ref := range testkit.WorkedExampleReference() {
		got, _ := res.Matrix.At(ref.Criterion, ref.Candidate)
		status := "ok"
		if got == nil || got.Cmp(ref.Want) != 0 {
			status = "MISMATCH"
			failed++
		}
		rows = append(rows, []string{ref.Criterion, ref.Candidate, rmvc.FormatExact(ref.Want), rmvc.FormatExact(got), status})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Criterion", "Candidate", "Published", "Computed", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
	fmt.Fprintln(w, titleStyle.Render("Reference values"))
	fmt.Fprintln(w, t)
	if failed > 0 {
		return fmt.Errorf("%d reference value(s) do not match", failed)
	}
	return nil
}

func rankingTable(rows []rankingRow) *table.Table {
	data := make([][]string, len(rows))
	for i, r := range rows {
		mark := ""
		if r.Optimal {
			mark = "*"
		}
		data[i] = []string{strconv.Itoa(r.Rank), r.Candidate, r.ScoreDecimal, r.Score, mark}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Rank", "Candidate", "Score", "Exact", "Optimal").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cellStyle.Bold(true)
			case row >= 0 && row < len(rows) && rows[row].Optimal:
				return cellStyle.Inherit(optimalStyle)
			default:
				return cellStyle
			}
		})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
