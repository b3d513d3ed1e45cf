package excel

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rmvc/domain/core"
	"rmvc/domain/softset"
	"rmvc/internal/testkit"
)

func TestReadCSVWorkedExample(t *testing.T) {
	tbl, err := ReadCSV("example", strings.NewReader(testkit.WorkedExampleCSV), DefaultReaderConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, tbl.RowIDs)
	assert.Equal(t, []string{"e1", "e2", "e3", "e4"}, tbl.ColumnIDs)
	assert.Empty(t, tbl.Issues)

	s, err := softset.Build(tbl, softset.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, testkit.WorkedExample().Criteria(), s.Criteria())
}

func TestReadCSVRaggedAndMalformed(t *testing.T) {
	src := "\ufeffFirm, a ,b,c\n" +
		"10,1,n/a\n" +
		"\n" +
		"2,,3,\"1,250\",99\n" +
		",5,5,5\n"
	tbl, err := ReadCSV("ragged", strings.NewReader(src), DefaultReaderConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, tbl.ColumnIDs)
	assert.Equal(t, []string{"10", "2"}, tbl.RowIDs, "blank row and row without id are skipped")

	assert.Equal(t, 1.0, tbl.At(0, 0))
	assert.True(t, math.IsNaN(tbl.At(0, 1)), "malformed cell is absent")
	assert.True(t, math.IsNaN(tbl.At(0, 2)), "padded cell is missing")
	assert.True(t, math.IsNaN(tbl.At(1, 0)))
	assert.Equal(t, 1250.0, tbl.At(1, 2))

	require.Len(t, tbl.Issues, 1)
	assert.Equal(t, "10", tbl.Issues[0].Row)
	assert.Equal(t, "b", tbl.Issues[0].Column)
	assert.Equal(t, "n/a", tbl.Issues[0].Raw)
}

func TestReadCSVMarkersAreAbsentByDefault(t *testing.T) {
	var logs bytes.Buffer
	cfg := DefaultReaderConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	tbl, err := ReadCSV("markers", strings.NewReader("id,e1,e2\n1,x,1\n2,yes,0\n3,0,1\n"), cfg)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(tbl.At(0, 0)))
	assert.True(t, math.IsNaN(tbl.At(1, 0)))
	require.Len(t, tbl.Issues, 2)
	assert.Equal(t, "x", tbl.Issues[0].Raw)
	assert.Equal(t, "yes", tbl.Issues[1].Raw)
	assert.Contains(t, logs.String(), "malformed cell")

	s, err := softset.Build(tbl, softset.BuildOptions{})
	require.NoError(t, err)
	e1, ok := s.Criterion("e_1")
	require.True(t, ok)
	assert.Empty(t, e1.Members)

	cfg.CoercionConfig.AcceptMarkers = true
	tbl, err = ReadCSV("markers", strings.NewReader("id,e1,e2\n1,x,1\n2,yes,0\n3,0,1\n"), cfg)
	require.NoError(t, err)
	assert.Empty(t, tbl.Issues)
	assert.Equal(t, 1.0, tbl.At(0, 0))
}

func TestReadCSVNormalizesIdentifiers(t *testing.T) {
	src := "id,x\nplain,1\ncafe\u0301,1\n"
	tbl, err := ReadCSV("nfc", strings.NewReader(src), DefaultReaderConfig())
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", tbl.RowIDs[1])
}

func TestReadCSVRejectsDuplicates(t *testing.T) {
	_, err := ReadCSV("dup", strings.NewReader("id,a,a\n1,1,1\n"), DefaultReaderConfig())
	assert.True(t, errors.Is(err, core.ErrInvalidTable))

	_, err = ReadCSV("dup", strings.NewReader("id,a\n1,1\n1,0\n"), DefaultReaderConfig())
	assert.True(t, errors.Is(err, core.ErrInvalidTable))

	_, err = ReadCSV("empty", strings.NewReader(""), DefaultReaderConfig())
	assert.True(t, errors.Is(err, core.ErrInvalidTable))
}

func TestReadCSVFirmProductSample(t *testing.T) {
	tbl, err := ReadCSV("firms", strings.NewReader(testkit.FirmProductCSV), DefaultReaderConfig())
	require.NoError(t, err)
	assert.Equal(t, 20, tbl.Rows())
	assert.Equal(t, 20, tbl.Columns())
	assert.Equal(t, 9800.0, tbl.At(0, 6))
}

func TestDataReaderFiles(t *testing.T) {
	dir := t.TempDir()

	xlsxPath := filepath.Join(dir, "relation.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	rows := [][]any{
		{"u", "e1", "e2", "e3", "e4"},
		{1, 1, 0, 1, 1},
		{2, 1, 1, 0, 1},
		{3, 1, 0, 1, 0},
		{4, 0, 1, 1, 0},
		{5, 1, 1, 0, 1},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Data", cell, &row))
	}
	require.NoError(t, f.SaveAs(xlsxPath))
	require.NoError(t, f.Close())

	cfg := DefaultReaderConfig()
	cfg.Sheet = "Data"
	tbl, err := NewDataReader(xlsxPath, cfg).ReadTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "relation.xlsx", tbl.Name)
	s, err := softset.Build(tbl, softset.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, testkit.WorkedExample().Criteria(), s.Criteria())

	// the first sheet is the empty default one
	_, err = NewDataReader(xlsxPath, DefaultReaderConfig()).ReadTable(context.Background())
	assert.True(t, errors.Is(err, core.ErrInvalidTable))

	_, err = NewDataReader(filepath.Join(dir, "missing.csv"), DefaultReaderConfig()).ReadTable(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDataReader(xlsxPath, cfg).ReadTable(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
