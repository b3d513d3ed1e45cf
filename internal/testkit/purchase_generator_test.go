package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseGenerator_Deterministic(t *testing.T) {
	cfg := DefaultPurchaseConfig()
	a := NewPurchaseGenerator(cfg).Table()
	b := NewPurchaseGenerator(cfg).Table()

	require.NoError(t, a.Validate())
	assert.Equal(t, a.RowIDs, b.RowIDs)
	assert.Equal(t, a.ColumnIDs, b.ColumnIDs)
	assert.Equal(t, a.Values, b.Values)
}

func TestPurchaseGenerator_Malformed(t *testing.T) {
	cfg := DefaultPurchaseConfig()
	cfg.MalformedRate = 0.2
	tbl := NewPurchaseGenerator(cfg).Table()
	assert.NotEmpty(t, tbl.Issues)
	for _, issue := range tbl.Issues {
		assert.Equal(t, "n/a", issue.Raw)
	}
}

func TestWorkedExampleFixtures(t *testing.T) {
	s := WorkedExample()
	assert.Equal(t, 5, s.Size())
	assert.Equal(t, 4, s.CriterionCount())
	assert.Len(t, WorkedExampleReference(), 7)
	assert.Equal(t, 5, WorkedExampleTable().Rows())
}
