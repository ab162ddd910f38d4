package parser

import (
	"fmt"
	"strings"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
	"github.com/xuri/excelize/v2"
)

// Cells is the read-only cell grid the locators work on. Coordinates are
// 1-based; cells outside the populated area read as "".
type Cells interface {
	Cell(row, col int) string
	MaxRow() int
	Merges() []models.CellRange
}

// Grid is an in-memory snapshot of one sheet's cell text and merged ranges.
type Grid struct {
	rows   [][]string
	merges []models.CellRange
}

var _ Cells = (*Grid)(nil)

// NewGrid builds a grid from 0-based rows of cell text.
func NewGrid(rows [][]string, merges []models.CellRange) *Grid {
	return &Grid{rows: rows, merges: merges}
}

// LoadGrid reads the cached cell values and merged ranges of a sheet.
// Raw values are used so number formats do not leak into numeric columns.
func LoadGrid(f *excelize.File, sheetName string) (*Grid, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	mergeCells, err := f.GetMergeCells(sheetName, true)
	if err != nil {
		return nil, err
	}
	merges := make([]models.CellRange, 0, len(mergeCells))
	for _, mc := range mergeCells {
		area, err := parseRangeRef(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			continue
		}
		merges = append(merges, area)
	}

	return NewGrid(rows, merges), nil
}

// Cell returns the text at (row, col), or "" when out of range.
func (g *Grid) Cell(row, col int) string {
	if row < 1 || row > len(g.rows) {
		return ""
	}
	r := g.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// MaxRow returns the sheet's reported row extent.
func (g *Grid) MaxRow() int {
	return len(g.rows)
}

// Merges returns the merged ranges declared by the sheet.
func (g *Grid) Merges() []models.CellRange {
	return g.merges
}

// HasData reports whether any non-blank cell lies within the first maxRows
// rows and maxCols columns.
func HasData(c Cells, maxRows, maxCols int) bool {
	lastRow := min(c.MaxRow(), maxRows)
	for row := 1; row <= lastRow; row++ {
		for col := 1; col <= maxCols; col++ {
			if strings.TrimSpace(c.Cell(row, col)) != "" {
				return true
			}
		}
	}
	return false
}

// parseRangeRef parses a range like "$A$1:$D$10" or a single cell "B2".
func parseRangeRef(ref string) (models.CellRange, error) {
	ref = strings.ReplaceAll(ref, "$", "")
	parts := strings.Split(ref, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return models.CellRange{}, fmt.Errorf("invalid range %q", ref)
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.CellRange{}, err
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return models.CellRange{}, err
	}

	return models.CellRange{
		R1: min(startRow, endRow),
		C1: min(startCol, endCol),
		R2: max(startRow, endRow),
		C2: max(startCol, endCol),
	}, nil
}
