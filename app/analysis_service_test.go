package app

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rmvc/adapters/excel"
	"rmvc/domain/dataset"
	"rmvc/domain/run"
	"rmvc/domain/softset"
	"rmvc/internal"
	apperrors "rmvc/internal/errors"
	"rmvc/internal/testkit"
	"rmvc/ports"
)

func csvReader(src string) ports.TableReader {
	return ports.TableReaderFunc(func(ctx context.Context) (*dataset.Table, error) {
		return excel.ReadCSV("inline", strings.NewReader(src), excel.DefaultReaderConfig())
	})
}

// MockTableReader is a ports.TableReader driven by testify expectations
type MockTableReader struct {
	mock.Mock
}

func (m *MockTableReader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	args := m.Called(ctx)
	tbl, _ := args.Get(0).(*dataset.Table)
	return tbl, args.Error(1)
}

func TestAnalyzeReadsTableOnce(t *testing.T) {
	reader := new(MockTableReader)
	reader.On("ReadTable", mock.Anything).Return(testkit.WorkedExampleTable(), nil).Once()

	svc := NewAnalysisService(internal.Discard(), 1)
	out, err := svc.Analyze(context.Background(), AnalysisRequest{Source: "mocked", Reader: reader})
	require.NoError(t, err)

	optimal, _ := out.Record.Optimal()
	assert.Equal(t, []string{"1"}, optimal)
	reader.AssertExpectations(t)
}

func TestAnalyzeReaderFailures(t *testing.T) {
	tests := []struct {
		name    string
		readErr error
		check   func(t *testing.T, err error)
	}{
		{"cancelled", context.Canceled, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, context.Canceled))
			assert.False(t, apperrors.IsAppError(err))
		}},
		{"io failure", errors.New("disk on fire"), func(t *testing.T, err error) {
			assert.Equal(t, apperrors.CodeIOError, apperrors.GetCode(err))
			assert.Contains(t, err.Error(), "disk on fire")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockTableReader)
			reader.On("ReadTable", mock.Anything).Return(nil, tt.readErr)

			svc := NewAnalysisService(internal.Discard(), 1)
			out, err := svc.Analyze(context.Background(), AnalysisRequest{Source: "broken", Reader: reader})
			assert.Nil(t, out)
			require.Error(t, err)
			tt.check(t, err)
			reader.AssertExpectations(t)
		})
	}
}

func TestAnalyzeWorkedExample(t *testing.T) {
	svc := NewAnalysisService(internal.Discard(), 1)

	out, err := svc.Analyze(context.Background(), AnalysisRequest{
		Source: "example",
		Reader: csvReader(testkit.WorkedExampleCSV),
	})
	require.NoError(t, err)

	optimal, best := out.Record.Optimal()
	assert.Equal(t, []string{"1"}, optimal)
	assert.Equal(t, "32/9", best.RatString())
	assert.Equal(t, "rows", out.Record.Params.Orientation)
	assert.Empty(t, out.Issues)
	assert.Empty(t, out.DroppedCriteria)
	assert.NoError(t, run.VerifyFingerprint(out.Record))
}

func TestAnalyzeIsDeterministicAcrossWorkers(t *testing.T) {
	ctx := context.Background()
	req := AnalysisRequest{Source: "firms", Reader: csvReader(testkit.FirmProductCSV), Options: softset.BuildOptions{MinCriterionSize: 1}}

	seq, err := NewAnalysisService(internal.Discard(), 1).Analyze(ctx, req)
	require.NoError(t, err)
	par, err := NewAnalysisService(internal.Discard(), 4).Analyze(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, seq.Record.ID, par.Record.ID)
	assert.Equal(t, seq.Record.Fingerprint, par.Record.Fingerprint)
	a, _ := seq.Record.Optimal()
	b, _ := par.Record.Optimal()
	assert.Equal(t, a, b)
}

func TestAnalyzeInsufficientCriteria(t *testing.T) {
	svc := NewAnalysisService(internal.Discard(), 1)
	src := "firm,p1,p2,p3\n1,5,0,0\n2,3,0,\n3,0,0,0\n"

	_, err := svc.Analyze(context.Background(), AnalysisRequest{Source: "thin", Reader: csvReader(src)})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientInput, appErr.Code)
	assert.Equal(t, "insufficient criteria: need at least 2 non-empty criteria, found 1", appErr.Message)
}

func TestAnalyzeDropsEmptyCriteria(t *testing.T) {
	svc := NewAnalysisService(internal.Discard(), 1)
	src := "firm,p1,p2,p3\n1,5,0,1\n2,3,0,\n3,0,0,2\n"

	out, err := svc.Analyze(context.Background(), AnalysisRequest{
		Source:  "sparse",
		Reader:  csvReader(src),
		Options: softset.BuildOptions{MinCriterionSize: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e_2"}, out.DroppedCriteria)
	assert.Equal(t, []string{"e_1", "e_3"}, out.Record.Result.Set.Keys())
}

func TestAnalyzeReadErrors(t *testing.T) {
	svc := NewAnalysisService(internal.Discard(), 1)

	missing := excel.NewDataReader(filepath.Join(t.TempDir(), "nope.csv"), excel.DefaultReaderConfig())
	_, err := svc.Analyze(context.Background(), AnalysisRequest{Source: "nope.csv", Reader: missing})
	assert.Equal(t, apperrors.CodeIOError, apperrors.GetCode(err))

	path := filepath.Join(t.TempDir(), "dup.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,a,a\n1,1,1\n"), 0o600))
	_, err = svc.Analyze(context.Background(), AnalysisRequest{Source: "dup.csv", Reader: excel.NewDataReader(path, excel.DefaultReaderConfig())})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestIterateRoundsStopsAtFixedPoint(t *testing.T) {
	svc := NewAnalysisService(internal.Discard(), 1)
	out, err := svc.Analyze(context.Background(), AnalysisRequest{Source: "example", Reader: csvReader(testkit.WorkedExampleCSV)})
	require.NoError(t, err)

	history := run.NewHistory(0)
	require.NoError(t, history.Append(out.Record))

	records, err := svc.IterateRounds(context.Background(), history, out.Record, big.NewRat(1, 3), 5)
	require.NoError(t, err)
	require.Len(t, records, 2, "the second round reproduces the first")
	assert.Equal(t, 3, history.Len())

	first := records[0]
	assert.Equal(t, 1, first.Iteration)
	assert.Equal(t, out.Record.ID, first.Parent)
	assert.Equal(t, "1/3", first.Params.Threshold)
	optimal, _ := first.Optimal()
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, optimal)

	chain, err := history.Lineage(records[1].ID)
	require.NoError(t, err)
	assert.Len(t, chain, 3)
}

func TestIterateRejectsBadThreshold(t *testing.T) {
	svc := NewAnalysisService(internal.Discard(), 1)
	out, err := svc.Analyze(context.Background(), AnalysisRequest{Source: "example", Reader: csvReader(testkit.WorkedExampleCSV)})
	require.NoError(t, err)

	_, err = svc.Iterate(context.Background(), out.Record, big.NewRat(2, 1))
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = svc.Iterate(context.Background(), nil, big.NewRat(1, 2))
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
