package sample

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"meanstat/internal/stats"
)

// readXLSX reads the first worksheet using raw cell values so number
// formats do not leak into the parsed text.
func readXLSX(path string) ([]float64, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrFileRead, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", stats.ErrInvalidInput)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", stats.ErrFileRead, sheets[0], err)
	}
	return flattenRows(rows)
}
