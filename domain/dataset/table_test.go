package dataset

import (
	"errors"
	"math"
	"testing"

	"rmvc/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableTranspose(t *testing.T) {
	tbl := NewTable("t", []string{"r1", "r2"}, []string{"c1", "c2", "c3"})
	tbl.Values[0][2] = 5
	tbl.Values[1][0] = -1

	tr := tbl.Transpose()
	require.NoError(t, tr.Validate())
	assert.Equal(t, []string{"c1", "c2", "c3"}, tr.RowIDs)
	assert.Equal(t, []string{"r1", "r2"}, tr.ColumnIDs)
	assert.Equal(t, 5.0, tr.At(2, 0))
	assert.True(t, tr.Present(2, 0))
	assert.False(t, tr.Present(0, 1), "negative values are absent")
	assert.True(t, math.IsNaN(tr.At(1, 1)))
	assert.False(t, tr.Present(1, 1), "missing values are absent")
	assert.False(t, tr.Present(9, 9))
}

func TestTableValidate(t *testing.T) {
	tbl := NewTable("dup", []string{"a", "a"}, []string{"x"})
	err := tbl.Validate()
	assert.True(t, errors.Is(err, core.ErrInvalidTable))

	ragged := NewTable("ragged", []string{"a"}, []string{"x", "y"})
	ragged.Values[0] = ragged.Values[0][:1]
	assert.Error(t, ragged.Validate())
}

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		in   string
		want Orientation
		err  bool
	}{
		{"", RowsAreCandidates, false},
		{"rows", RowsAreCandidates, false},
		{"columns", RowsAreCriteria, false},
		{"transpose", RowsAreCriteria, false},
		{"diagonal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOrientation(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
