package profiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmvc/domain/rmvc"
	"rmvc/internal/testkit"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4, 10})
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 4.0, s.Mean, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 2.0, s.Q25)
	assert.Equal(t, 4.0, s.Q75)
	assert.Greater(t, s.Skewness, 0.0)

	_, err = Summarize(nil)
	assert.Error(t, err)
}

func TestSummarizeConstantSample(t *testing.T) {
	s, err := Summarize([]float64{2, 2, 2})
	require.NoError(t, err)
	assert.Zero(t, s.StdDev)
	assert.Zero(t, s.Skewness)
}

func TestProfileResult(t *testing.T) {
	res, err := rmvc.Analyze(testkit.WorkedExample())
	require.NoError(t, err)

	p, err := ProfileResult(res)
	require.NoError(t, err)

	assert.Equal(t, 5, p.Scores.Count)
	assert.InDelta(t, 32.0/9, p.Scores.Max, 1e-9)
	assert.InDelta(t, 8.0/3, p.Scores.Min, 1e-9)
	assert.InDelta(t, 1.0/9, p.Gap, 1e-9)
	assert.InDelta(t, 13.0/20, p.Density, 1e-9)
	assert.Equal(t, 4.0, p.CriterionSizes.Max)
}
