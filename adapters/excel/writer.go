package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"rmvc/domain/rmvc"
)

const (
	SheetMatrix   = "Matrix"
	SheetRanking  = "Ranking"
	SheetCriteria = "Criteria"
)

// WorkbookWriter exports an analysis result as an xlsx workbook with one
// sheet for the matrix, the ranking and the criteria parameters.
type WorkbookWriter struct{}

// NewWorkbookWriter creates a workbook exporter
func NewWorkbookWriter() *WorkbookWriter { return &WorkbookWriter{} }

// ContentType implements ports.ResultExporter.
func (w *WorkbookWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Export implements ports.ResultExporter.
func (w *WorkbookWriter) Export(out io.Writer, res *rmvc.Result) error {
	f, err := w.Build(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to path.
func (w *WorkbookWriter) SaveAs(path string, res *rmvc.Result) error {
	f, err := w.Build(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller closes it.
func (w *WorkbookWriter) Build(res *rmvc.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	highlight, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, *rmvc.Result, int, int) error{writeMatrixSheet, writeRankingSheet, writeCriteriaSheet}
	for _, step := range steps {
		if err := step(f, res, bold, highlight); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeMatrixSheet(f *excelize.File, res *rmvc.Result, bold, _ int) error {
	if err := f.SetSheetName("Sheet1", SheetMatrix); err != nil {
		return err
	}
	mx := res.Matrix
	candidates := mx.Candidates()

	header := []any{"criterion", "label"}
	for _, u := range candidates {
		header = append(header, u)
	}
	if err := setRow(f, SheetMatrix, 1, header, bold); err != nil {
		return err
	}

	values := mx.Float()
	criteria := res.Set.Criteria()
	for ci, c := range criteria {
		row := []any{c.Key, c.Label}
		for _, v := range values[ci] {
			row = append(row, v)
		}
		if err := setRow(f, SheetMatrix, ci+2, row, -1); err != nil {
			return err
		}
	}

	scoreRow := []any{"score", ""}
	for _, u := range candidates {
		s, _ := res.Scores.Get(u)
		scoreRow = append(scoreRow, rmvc.Approx(s))
	}
	if err := setRow(f, SheetMatrix, len(criteria)+2, scoreRow, bold); err != nil {
		return err
	}
	return f.SetPanes(SheetMatrix, &excelize.Panes{Freeze: true, XSplit: 2, YSplit: 1, TopLeftCell: "C2", ActivePane: "bottomRight"})
}

func writeRankingSheet(f *excelize.File, res *rmvc.Result, bold, highlight int) error {
	if _, err := f.NewSheet(SheetRanking); err != nil {
		return err
	}
	if err := setRow(f, SheetRanking, 1, []any{"rank", "candidate", "score", "score_exact", "optimal"}, bold); err != nil {
		return err
	}
	for i, rc := range res.Ranking {
		style := -1
		if rc.Optimal {
			style = highlight
		}
		row := []any{rc.Rank, rc.Candidate, rmvc.Approx(rc.Score), rmvc.FormatExact(rc.Score), rc.Optimal}
		if err := setRow(f, SheetRanking, i+2, row, style); err != nil {
			return err
		}
	}
	return nil
}

func writeCriteriaSheet(f *excelize.File, res *rmvc.Result, bold, _ int) error {
	if _, err := f.NewSheet(SheetCriteria); err != nil {
		return err
	}
	if err := setRow(f, SheetCriteria, 1, []any{"criterion", "label", "size", "gamma", "members"}, bold); err != nil {
		return err
	}
	for i, c := range res.Set.Criteria() {
		gamma, _ := res.Matrix.Gamma(c.Key)
		row := []any{c.Key, c.Label, c.Size(), gamma, strings.Join(c.Members, ", ")}
		if err := setRow(f, SheetCriteria, i+2, row, -1); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values starting at column A; style < 0 leaves the row unstyled.
func setRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	if style < 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}
