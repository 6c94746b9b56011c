// Package extractor turns agent spreadsheet exports into debtor rows.
package extractor

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

// File is one uploaded spreadsheet.
type File struct {
	Name string
	Data []byte
}

// Columns names the 0-based column of each role in a row.
type Columns struct {
	Name int
	USD  int
	UZS  int
}

// DefaultColumns is the layout of the agent exports: B name, D USD, E UZS.
func DefaultColumns() Columns {
	return Columns{Name: 1, USD: 3, UZS: 4}
}

// Validate rejects layouts where roles overlap or point before column A.
func (c Columns) Validate() error {
	if c.Name < 0 || c.USD < 0 || c.UZS < 0 {
		return fmt.Errorf("column indexes must be non-negative: %+v", c)
	}
	if c.USD == c.UZS {
		return fmt.Errorf("usd and uzs columns must differ (both %d)", c.USD)
	}
	if c.Name == c.USD || c.Name == c.UZS {
		return fmt.Errorf("name column %d overlaps an amount column", c.Name)
	}
	return nil
}

// Extract walks the grid, skipping the header row, and returns the debtor
// rows in order. A row qualifies when its USD or UZS cell is numeric and at
// least one amount is positive; non-numeric amounts count as zero.
func (c Columns) Extract(grid [][]Cell) []model.Debtor {
	debtors := []model.Debtor{}
	for i := 1; i < len(grid); i++ {
		row := grid[i]
		usdCell, uzsCell := cellAt(row, c.USD), cellAt(row, c.UZS)
		if !usdCell.IsNumber() && !uzsCell.IsNumber() {
			continue
		}

		usd, uzs := usdCell.Amount(), uzsCell.Amount()
		if usd.Sign() <= 0 && uzs.Sign() <= 0 {
			continue
		}

		name := debtorName(cellAt(row, c.Name))
		if name == "" {
			name = fmt.Sprintf("Qarzdor %d", len(debtors)+1)
		}
		debtors = append(debtors, model.Debtor{Name: name, USD: usd, UZS: uzs})
	}
	return debtors
}

// debtorName is the cell text, with a numeric zero treated as blank.
func debtorName(c Cell) string {
	if c.IsNumber() && c.Number.IsZero() {
		return ""
	}
	return c.Text
}

// Extractor parses uploaded workbooks with a fixed column layout.
type Extractor struct {
	columns Columns
}

// New returns an Extractor for the given layout.
func New(columns Columns) (*Extractor, error) {
	if err := columns.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{columns: columns}, nil
}

// Columns reports the layout in use.
func (e *Extractor) Columns() Columns { return e.columns }

// Parse reads the first sheet of the workbook and extracts its debtor rows.
func (e *Extractor) Parse(file File) ([]model.Debtor, error) {
	grid, err := ReadGrid(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Name, err)
	}
	return e.columns.Extract(grid), nil
}

func cellAt(row []Cell, idx int) Cell {
	if idx < len(row) {
		return row[idx]
	}
	return Cell{}
}

// CellKind is the raw type of a spreadsheet cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
)

// Cell is one raw grid value. Number is set only for CellNumber.
type Cell struct {
	Kind   CellKind
	Text   string
	Number decimal.Decimal
}

// NumberCell builds a numeric cell.
func NumberCell(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumber, Text: d.String(), Number: d}
}

// TextCell builds a text cell; empty text yields an empty cell.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// IsNumber reports whether the cell holds a numeric value.
func (c Cell) IsNumber() bool { return c.Kind == CellNumber }

// Amount is the numeric value, or zero for any other kind.
func (c Cell) Amount() decimal.Decimal {
	if c.Kind == CellNumber {
		return c.Number
	}
	return decimal.Zero
}
