package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmvc/internal/testkit"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"RMVC_CONFIG", "RMVC_ORIENTATION", "RMVC_MIN_CRITERION_SIZE", "RMVC_WORKERS", "RMVC_PRECISION", "LOG_FILE"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "ERROR")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExampleCommand(t *testing.T) {
	out, err := execute(t, "", "example")
	require.NoError(t, err)
	assert.Contains(t, out, "Reference values")
	assert.Contains(t, out, "32/9")
	assert.NotContains(t, out, "MISMATCH")
}

func TestAnalyzeJSONFromStdin(t *testing.T) {
	out, err := execute(t, testkit.WorkedExampleCSV, "analyze", "-", "--format", "json", "--top", "3")
	require.NoError(t, err)

	var res runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "stdin", res.Source)
	assert.Equal(t, []string{"1"}, res.Optimal)
	assert.Equal(t, "32/9", res.BestScore)
	assert.Equal(t, "3.5556", res.BestScoreDecimal)
	require.Len(t, res.Ranking, 3)
	assert.Equal(t, "5", res.Ranking[2].Candidate)
}

func TestAnalyzeTableTransposed(t *testing.T) {
	// criteria as rows
	csv := "e,1,2,3,4,5\n" +
		"e1,1,1,1,0,1\n" +
		"e2,0,1,0,1,1\n" +
		"e3,1,0,1,1,0\n" +
		"e4,1,1,0,0,1\n"
	out, err := execute(t, csv, "analyze", "-", "--transpose", "--workers", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Candidates: 5")
	assert.Contains(t, out, "Optimal choice:")
	assert.Contains(t, out, "3.5556")
}

func TestAnalyzeExports(t *testing.T) {
	dir := t.TempDir()
	matrix := filepath.Join(dir, "matrix.csv")
	ranking := filepath.Join(dir, "ranking.csv")
	workbook := filepath.Join(dir, "rmvc.xlsx")
	report := filepath.Join(dir, "report.md")
	criteria := filepath.Join(dir, "criteria.csv")

	_, err := execute(t, testkit.WorkedExampleCSV, "analyze", "-",
		"--export-matrix", matrix, "--exact",
		"--export-ranking", ranking,
		"--export-xlsx", workbook,
		"--export-criteria", criteria,
		"--report", report)
	require.NoError(t, err)

	data, err := os.ReadFile(matrix)
	require.NoError(t, err)
	assert.Contains(t, string(data), "score,,32/9,31/9,25/9,8/3,31/9\n")

	data, err = os.ReadFile(ranking)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "rank,candidate,score,score_decimal,optimal\n1,1,32/9,3.5556,true\n"))

	assert.FileExists(t, workbook)

	data, err = os.ReadFile(criteria)
	require.NoError(t, err)
	assert.Contains(t, string(data), "e_2,e2,3,9,\"2, 4, 5\"\n")

	data, err = os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Ranking")
}

func TestAnalyzeCandidate(t *testing.T) {
	out, err := execute(t, testkit.WorkedExampleCSV, "analyze", "-", "--candidate", "4", "--format", "json")
	require.NoError(t, err)

	var res candidateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 5, res.Rank)
	assert.Equal(t, 5, res.Of)
	assert.InDelta(t, 0.0, res.Percentile, 1e-9)
	assert.Equal(t, "8/3", res.Score)
	assert.False(t, res.Optimal)
	require.Len(t, res.Memberships, 4)

	// 4 holds e_2 and e_3 only
	first := res.Memberships[0]
	assert.False(t, first.Member)
	require.NotNil(t, first.Delta)
	assert.Equal(t, 4, *first.Delta)
	assert.Equal(t, int64(12), first.Gamma)
	assert.Equal(t, "1/3", first.Value)
	assert.Equal(t, "0.3333", first.ValueDecimal)
	assert.True(t, res.Memberships[1].Member)
	assert.Nil(t, res.Memberships[1].Delta)

	out, err = execute(t, testkit.WorkedExampleCSV, "analyze", "-", "--candidate", "1", "--precision", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Candidate 1")
	assert.Contains(t, out, "Rank: 1/5")
	assert.Contains(t, out, "Percentile: 80.0")
	assert.Contains(t, out, "5/9")
	assert.Contains(t, out, "0.56")
	assert.NotContains(t, out, "Optimal choice:")
}

func TestIterateStopsAtFixedPoint(t *testing.T) {
	out, err := execute(t, testkit.WorkedExampleCSV, "iterate", "-", "--threshold", "1/3", "--rounds", "5", "--format", "json")
	require.NoError(t, err)

	var runs []runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	// the first cut makes every criterion the whole universe, the second changes nothing
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"1"}, runs[0].Optimal)
	assert.Equal(t, runs[0].ID, runs[1].Parent)
	assert.Equal(t, "1/3", runs[2].Params.Threshold)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, runs[2].Optimal)
	assert.Equal(t, "4", runs[2].BestScore)
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown format", []string{"analyze", "-", "--format", "yaml"}, "--format"},
		{"negative size", []string{"analyze", "-", "--min-criterion-size", "-1"}, "negative"},
		{"bad threshold", []string{"iterate", "-", "--threshold", "2"}, ""},
		{"zero rounds", []string{"iterate", "-", "--rounds", "0"}, "--rounds"},
		{"unknown candidate", []string{"analyze", "-", "--candidate", "9"}, "candidate"},
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "absent.csv")}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, testkit.WorkedExampleCSV, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
