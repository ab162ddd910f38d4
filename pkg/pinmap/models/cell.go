// Package models defines data structures for sheet image and pin extraction.
package models

// HeaderMatch is a 1-based grid coordinate of a located label or header cell.
type HeaderMatch struct {
	// Row is the row index (1-based).
	Row int `json:"row"`
	// Col is the column index (1-based).
	Col int `json:"col"`
}

// CellRange represents the bounds of a merged cell range.
type CellRange struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2"`
}

// Contains reports whether (row, col) lies inside the range.
func (r CellRange) Contains(row, col int) bool {
	return row >= r.R1 && row <= r.R2 && col >= r.C1 && col <= r.C2
}
