package sample

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"meanstat/internal/stats"
)

// Extensions accepted by ParseFile.
const (
	ExtCSV     = ".csv"
	ExtXLSX    = ".xlsx"
	ExtParquet = ".parquet"
)

// SupportedExtensions lists the file types ParseFile can read.
var SupportedExtensions = []string{ExtCSV, ExtXLSX, ExtParquet}

// ParseFile loads every numeric cell of a CSV, XLSX or Parquet file and
// flattens them in row-major order, ignoring the original table shape.
func ParseFile(path string) (Sample, error) {
	var (
		values []float64
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		values, err = readCSVFile(path)
	case ExtXLSX:
		values, err = readXLSX(path)
	case ExtParquet:
		values, err = readParquet(path)
	default:
		return Sample{}, fmt.Errorf("%w: %q (want one of %s)",
			stats.ErrUnsupportedFormat, filepath.Ext(path), strings.Join(SupportedExtensions, ", "))
	}
	if err != nil {
		return Sample{}, err
	}
	if len(values) == 0 {
		return Sample{}, fmt.Errorf("%w: %s contains no data", stats.ErrInvalidInput, filepath.Base(path))
	}
	return New(values)
}

func readCSVFile(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV flattens the cells of a comma-delimited table.
func ReadCSV(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: %v", stats.ErrInvalidInput, err)
			}
			return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
		}
		rows = append(rows, record)
	}

	return flattenRows(rows)
}

// flattenRows converts a table of cell strings into values. A first row
// containing any non-numeric cell is taken as a header and skipped.
func flattenRows(rows [][]string) ([]float64, error) {
	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}

	var values []float64
	for i, row := range rows {
		for j, cell := range row {
			v, ok := parseNumber(cell)
			if !ok {
				if strings.TrimSpace(cell) == "" {
					return nil, fmt.Errorf("%w: missing value at row %d column %d", stats.ErrInvalidInput, i+1, j+1)
				}
				return nil, fmt.Errorf("%w: %q at row %d column %d", stats.ErrInvalidInput, cell, i+1, j+1)
			}
			values = append(values, v)
		}
	}
	return values, nil
}

func isHeader(row []string) bool {
	for _, cell := range row {
		if _, ok := parseNumber(cell); !ok {
			return true
		}
	}
	return false
}
