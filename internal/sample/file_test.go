package sample

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"meanstat/internal/stats"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	t.Run("skips a header and flattens row-major", func(t *testing.T) {
		values, err := ReadCSV(strings.NewReader("a,b\n1,2\n3,4\n5,6\n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, values)
	})

	t.Run("keeps an all-numeric first row", func(t *testing.T) {
		values, err := ReadCSV(strings.NewReader("1,2\n3,4\n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4}, values)
	})

	t.Run("accepts ragged rows", func(t *testing.T) {
		values, err := ReadCSV(strings.NewReader("x\n1\n2, 3\n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, values)
	})

	t.Run("rejects text in data rows", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("x,y\n1,2\n3,abc\n"))
		assert.ErrorIs(t, err, stats.ErrInvalidInput)
	})

	t.Run("rejects missing cells", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("x,y\n1,\n3,4\n"))
		assert.ErrorIs(t, err, stats.ErrInvalidInput)
	})
}

func TestParseFileCSV(t *testing.T) {
	path := writeFile(t, "data.CSV", "value\n10\n12\n11\n13\n9\n")
	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10,12,11,13,9", s.String())
}

func TestParseFileErrors(t *testing.T) {
	_, err := ParseFile(writeFile(t, "data.json", "[1,2]"))
	assert.ErrorIs(t, err, stats.ErrUnsupportedFormat)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, stats.ErrFileRead)

	_, err = ParseFile(writeFile(t, "header.csv", "a,b\n"))
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = ParseFile(writeFile(t, "one.csv", "a\n7\n"))
	assert.ErrorIs(t, err, stats.ErrInsufficientData)

	_, err = ParseFile(writeFile(t, "broken.xlsx", "not a zip"))
	assert.ErrorIs(t, err, stats.ErrFileRead)
}

func TestParseFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"before", "after"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1.5, 2}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{3, 4.25}))

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2, 3, 4.25}, s.Values())
}

func TestParseFileXLSXRejectsText(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{1, 2}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"n/a", 4}))

	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := ParseFile(path)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}

type measurement struct {
	Before float64 `parquet:"a_before"`
	After  int64   `parquet:"b_after"`
}

func TestParseFileParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.parquet")
	rows := []measurement{
		{Before: 1.5, After: 2},
		{Before: 3, After: 4},
		{Before: 5.25, After: 6},
	}
	require.NoError(t, parquet.WriteFile(path, rows))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2, 3, 4, 5.25, 6}, s.Values())
}

type labelled struct {
	Label string `parquet:"label"`
}

func TestParseFileParquetRejectsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.parquet")
	require.NoError(t, parquet.WriteFile(path, []labelled{{Label: "1"}, {Label: "two"}}))

	_, err := ParseFile(path)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}
