package softset

import (
	"fmt"

	"rmvc/domain/dataset"
)

// BuildOptions control how a relation table becomes a soft set.
type BuildOptions struct {
	Orientation dataset.Orientation
	// MinCriterionSize drops criteria with fewer members. 0 keeps every
	// criterion, 1 drops the empty ones.
	MinCriterionSize int
}

// CriterionKey names the criterion built from the i-th (0-based) column.
func CriterionKey(i int) string {
	return fmt.Sprintf("e_%d", i+1)
}

// Build converts a relation table into (U, Φ). A relation is present iff
// the cell is strictly positive; missing and malformed cells are absent.
// Keys are assigned by original column position before filtering.
func Build(t *dataset.Table, opts BuildOptions) (*SoftSet, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if opts.Orientation == dataset.RowsAreCriteria {
		t = t.Transpose()
	}

	criteria := make([]Criterion, t.Columns())
	for j, label := range t.ColumnIDs {
		members := make([]string, 0)
		for i, u := range t.RowIDs {
			if t.Present(i, j) {
				members = append(members, u)
			}
		}
		criteria[j] = Criterion{Key: CriterionKey(j), Label: label, Members: members}
	}

	s, err := New(t.RowIDs, criteria)
	if err != nil {
		return nil, err
	}
	return s.Filter(opts.MinCriterionSize), nil
}
