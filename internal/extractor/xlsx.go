package extractor

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ErrNoSheet = errors.New("workbook has no sheets")

// ReadGrid opens a workbook and returns the first sheet as a grid of raw
// cells. String-typed cells stay text even when they look numeric.
func ReadGrid(r io.Reader) ([][]Cell, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	grid := make([][]Cell, len(rows))
	for ri, row := range rows {
		cells := make([]Cell, len(row))
		for ci, val := range row {
			if val == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, fmt.Errorf("cell %s type: %w", axis, err)
			}
			cells[ci] = classify(typ, val)
		}
		grid[ri] = cells
	}
	return grid, nil
}

func classify(typ excelize.CellType, val string) Cell {
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if d, err := decimal.NewFromString(val); err == nil {
			return NumberCell(d)
		}
	}
	return TextCell(val)
}
