package parser

import (
	"strings"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
)

// MatchMode selects how a cell's text is compared against label keywords.
type MatchMode int

const (
	// MatchContains matches when the lowercased cell text contains a keyword.
	MatchContains MatchMode = iota
	// MatchExact matches when the alphanumeric-only lowercased text equals a
	// keyword normalized the same way.
	MatchExact
)

// Bounds limits a label search. MaxRows and MaxCols form the scan window;
// cells outside it are never read. The optional restrictions narrow the
// search further.
type Bounds struct {
	MaxRows int
	MaxCols int
	// Row, when > 0, restricts the search to that row.
	Row int
	// AfterCol, when > 0, only accepts columns strictly right of it.
	AfterCol int
	// Exclude, when set, is never returned as a match.
	Exclude *models.HeaderMatch
}

// InRow returns a copy of b restricted to row.
func (b Bounds) InRow(row int) Bounds {
	b.Row = row
	return b
}

// FindLabel returns the topmost, then leftmost, cell in bounds matching one
// of keywords.
func FindLabel(c Cells, keywords []string, mode MatchMode, b Bounds) (models.HeaderMatch, bool) {
	keys := prepareKeywords(keywords, mode)
	if len(keys) == 0 {
		return models.HeaderMatch{}, false
	}

	firstRow, lastRow := 1, min(b.MaxRows, c.MaxRow())
	if b.Row > 0 {
		if b.Row > lastRow {
			return models.HeaderMatch{}, false
		}
		firstRow, lastRow = b.Row, b.Row
	}

	for row := firstRow; row <= lastRow; row++ {
		for col := max(1, b.AfterCol+1); col <= b.MaxCols; col++ {
			if b.Exclude != nil && b.Exclude.Row == row && b.Exclude.Col == col {
				continue
			}
			text := c.Cell(row, col)
			if text == "" {
				continue
			}
			if matchKeywords(text, keys, mode) {
				return models.HeaderMatch{Row: row, Col: col}, true
			}
		}
	}
	return models.HeaderMatch{}, false
}

func prepareKeywords(keywords []string, mode MatchMode) []string {
	keys := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		var k string
		if mode == MatchExact {
			k = normalizeKey(kw)
		} else {
			k = strings.ToLower(cleanText(kw))
		}
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func matchKeywords(text string, keys []string, mode MatchMode) bool {
	if mode == MatchExact {
		norm := normalizeKey(text)
		for _, k := range keys {
			if norm == k {
				return true
			}
		}
		return false
	}

	lower := strings.ToLower(text)
	for _, k := range keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// ReadAdjacentValue returns the value belonging to the label at m: the cell
// to its right, or the top-left of a merged range starting on the label's row
// that covers that cell. An empty string means no value.
func ReadAdjacentValue(c Cells, m models.HeaderMatch) string {
	return ReadCellValue(c, m.Row, m.Col+1)
}

// ReadCellValue reads a fixed cell with the same merged-range fallback.
func ReadCellValue(c Cells, row, col int) string {
	if v := cleanText(c.Cell(row, col)); v != "" {
		return v
	}
	for _, mr := range c.Merges() {
		if mr.R1 != row || col < mr.C1 || col > mr.C2 {
			continue
		}
		if v := cleanText(c.Cell(mr.R1, mr.C1)); v != "" {
			return v
		}
	}
	return ""
}

// valueAfterMerge reads the cell right after a merged range that starts at
// the label cell m. It returns "" when the label is not merged.
func valueAfterMerge(c Cells, m models.HeaderMatch) string {
	for _, mr := range c.Merges() {
		if mr.R1 == m.Row && mr.C1 == m.Col {
			return cleanText(c.Cell(m.Row, mr.C2+1))
		}
	}
	return ""
}
