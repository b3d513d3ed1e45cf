package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"rmvc/adapters/coercer"
	"rmvc/domain/core"
	"rmvc/domain/dataset"
)

// DataReader reads a relation table from an Excel or CSV file. The first row
// is the header (its first cell is a corner label), the first column holds
// the row identifiers.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ReaderConfig
	coercer  *coercer.CellCoercer
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string, config ReaderConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" || ext == ".txt" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		config:   config,
		coercer:  coercer.NewCellCoercer(config.CoercionConfig),
	}
}

// ReadTable implements ports.TableReader.
func (r *DataReader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := r.config.logger().With("file", r.filePath, "type", r.fileType)
	log.Debug("reading relation table")

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("rows loaded", "rows", len(rows), "elapsed_ms", float64(time.Since(start).Microseconds())/1e3)

	return buildTable(filepath.Base(r.filePath), rows, r.coercer, log)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return excelRows(f, r.config.Sheet)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return csvRows(file)
}

// ReadCSV reads a relation table from an in-memory CSV source.
func ReadCSV(name string, src io.Reader, config ReaderConfig) (*dataset.Table, error) {
	rows, err := csvRows(src)
	if err != nil {
		return nil, err
	}
	return buildTable(name, rows, coercer.NewCellCoercer(config.CoercionConfig), config.logger())
}

// ReadXLSX reads a relation table from an in-memory workbook.
func ReadXLSX(name string, src io.Reader, config ReaderConfig) (*dataset.Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel workbook: %w", err)
	}
	defer f.Close()
	rows, err := excelRows(f, config.Sheet)
	if err != nil {
		return nil, err
	}
	return buildTable(name, rows, coercer.NewCellCoercer(config.CoercionConfig), config.logger())
}

func excelRows(f *excelize.File, sheet string) ([][]string, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrInvalidTable)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func csvRows(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

// buildTable converts raw string rows into a relation table. Ragged rows are
// padded with missing cells; unparseable cells are recorded as issues.
func buildTable(name string, rows [][]string, c *coercer.CellCoercer, log *slog.Logger) (*dataset.Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", core.ErrInvalidTable)
	}

	header := rows[0]
	columnIDs := make([]string, 0, len(header))
	for j := 1; j < len(header); j++ {
		id := normalizeID(header[j])
		if id == "" {
			id, _ = excelize.ColumnNumberToName(j + 1)
		}
		columnIDs = append(columnIDs, id)
	}

	var rowIDs []string
	var raw [][]string
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		id := normalizeID(row[0])
		if id == "" {
			log.Warn("skipping row without identifier", "line", i+2)
			continue
		}
		if len(row)-1 > len(columnIDs) {
			log.Warn("ignoring cells beyond the header", "row", id, "extra", len(row)-1-len(columnIDs))
		}
		cells := make([]string, len(columnIDs))
		for j := range cells {
			if j+1 < len(row) {
				cells[j] = row[j+1]
			}
		}
		rowIDs = append(rowIDs, id)
		raw = append(raw, cells)
	}

	tbl := dataset.NewTable(name, rowIDs, columnIDs)
	for i, cells := range raw {
		for j, text := range cells {
			cell := c.ParseCell(text)
			switch cell.Kind {
			case coercer.CellNumeric:
				tbl.Values[i][j] = cell.Value
			case coercer.CellMalformed:
				issue := dataset.CellIssue{Row: rowIDs[i], Column: columnIDs[j], Raw: text}
				tbl.Issues = append(tbl.Issues, issue)
				log.Warn("malformed cell", "row", issue.Row, "column", issue.Column, "raw", issue.Raw)
			}
		}
	}
	warnSuspiciousColumns(tbl, raw, c, log)

	if err := tbl.Validate(); err != nil {
		return nil, err
	}
	log.Info("relation table loaded", "name", name, "rows", tbl.Rows(), "columns", tbl.Columns(), "issues", len(tbl.Issues))
	return tbl, nil
}

func warnSuspiciousColumns(tbl *dataset.Table, raw [][]string, c *coercer.CellCoercer, log *slog.Logger) {
	threshold := c.Config().MalformedWarnAt
	if threshold <= 0 {
		return
	}
	column := make([]string, len(raw))
	for j, id := range tbl.ColumnIDs {
		for i := range raw {
			column[i] = raw[i][j]
		}
		if a := c.AnalyzeColumn(column); a.Suspicious(threshold) {
			log.Warn("column is mostly non-numeric", "column", id, "malformed", a.MalformedCount, "filled", a.TotalCount-a.MissingCount)
		}
	}
}

func normalizeID(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(s))
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
