package sample

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/parquet-go/parquet-go"

	"meanstat/internal/stats"
)

const parquetBatch = 128

// readParquet walks every row group and flattens each row's leaf values in
// schema column order.
func readParquet(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
	}

	var values []float64
	rowNum := 0
	buf := make([]parquet.Row, parquetBatch)
	for _, group := range pf.RowGroups() {
		rows := group.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rowNum++
				for col, v := range row {
					f, err := parquetNumber(v)
					if err != nil {
						rows.Close()
						return nil, fmt.Errorf("%w: row %d column %d: %v", stats.ErrInvalidInput, rowNum, col+1, err)
					}
					values = append(values, f)
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
		}
	}
	return values, nil
}

func parquetNumber(v parquet.Value) (float64, error) {
	if v.IsNull() {
		return 0, errors.New("missing value")
	}
	switch v.Kind() {
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	case parquet.Float:
		return checkFinite(float64(v.Float()))
	case parquet.Double:
		return checkFinite(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		if f, ok := parseNumber(string(v.ByteArray())); ok {
			return f, nil
		}
		return 0, fmt.Errorf("%q is not a number", v.ByteArray())
	}
	return 0, fmt.Errorf("unsupported %s value", v.Kind())
}

func checkFinite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not finite", f)
	}
	return f, nil
}
