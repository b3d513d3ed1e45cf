package dataset

import (
	"fmt"
	"math"

	"rmvc/domain/core"
)

// Orientation tells the soft-set builder what the rows of a table represent.
type Orientation string

const (
	// RowsAreCandidates: rows form the universal set, columns are criteria.
	RowsAreCandidates Orientation = "rows"
	// RowsAreCriteria: rows are criteria, columns form the universal set.
	RowsAreCriteria Orientation = "columns"
)

// ParseOrientation accepts the config/CLI spellings of an orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "", "rows", "candidates", "rows-are-candidates":
		return RowsAreCandidates, nil
	case "columns", "criteria", "rows-are-criteria", "transpose":
		return RowsAreCriteria, nil
	default:
		return "", fmt.Errorf("unknown orientation %q (want rows|columns)", s)
	}
}

// CellIssue records a cell that could not be read as a number. The cell is
// treated as absent.
type CellIssue struct {
	Row    string `json:"row"`
	Column string `json:"column"`
	Raw    string `json:"raw"`
}

func (c CellIssue) String() string {
	return fmt.Sprintf("cell (%s, %s): %q is not numeric, treated as 0", c.Row, c.Column, c.Raw)
}

// Table is a rectangular relation table. Missing and malformed cells hold NaN.
type Table struct {
	Name      string      `json:"name,omitempty"`
	RowIDs    []string    `json:"row_ids"`
	ColumnIDs []string    `json:"column_ids"`
	Values    [][]float64 `json:"-"` // rows x columns
	Issues    []CellIssue `json:"issues,omitempty"`
}

// NewTable allocates a table with every cell missing.
func NewTable(name string, rowIDs, columnIDs []string) *Table {
	values := make([][]float64, len(rowIDs))
	for i := range values {
		row := make([]float64, len(columnIDs))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}
	return &Table{
		Name:      name,
		RowIDs:    append([]string(nil), rowIDs...),
		ColumnIDs: append([]string(nil), columnIDs...),
		Values:    values,
	}
}

// Rows returns the number of rows
func (t *Table) Rows() int { return len(t.RowIDs) }

// Columns returns the number of columns
func (t *Table) Columns() int { return len(t.ColumnIDs) }

// At returns the cell value; out-of-range and missing cells are NaN.
func (t *Table) At(row, col int) float64 {
	if row < 0 || row >= len(t.Values) || col < 0 || col >= len(t.Values[row]) {
		return math.NaN()
	}
	return t.Values[row][col]
}

// Present reports whether the cell carries a relation (strictly positive).
func (t *Table) Present(row, col int) bool {
	return t.At(row, col) > 0
}

// Transpose returns a new table with rows and columns swapped.
func (t *Table) Transpose() *Table {
	out := NewTable(t.Name, t.ColumnIDs, t.RowIDs)
	for i := range t.RowIDs {
		for j := range t.ColumnIDs {
			out.Values[j][i] = t.At(i, j)
		}
	}
	out.Issues = append([]CellIssue(nil), t.Issues...)
	return out
}

// Validate checks the table is rectangular and its identifiers unique.
func (t *Table) Validate() error {
	if len(t.Values) != len(t.RowIDs) {
		return fmt.Errorf("%w: %d value rows for %d row ids", core.ErrInvalidTable, len(t.Values), len(t.RowIDs))
	}
	for i, row := range t.Values {
		if len(row) != len(t.ColumnIDs) {
			return fmt.Errorf("%w: row %s has %d cells, want %d", core.ErrInvalidTable, t.RowIDs[i], len(row), len(t.ColumnIDs))
		}
	}
	if dup, ok := firstDuplicate(t.RowIDs); ok {
		return fmt.Errorf("%w: duplicate row id %q", core.ErrInvalidTable, dup)
	}
	if dup, ok := firstDuplicate(t.ColumnIDs); ok {
		return fmt.Errorf("%w: duplicate column id %q", core.ErrInvalidTable, dup)
	}
	return nil
}

func firstDuplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
