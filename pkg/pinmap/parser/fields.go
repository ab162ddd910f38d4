package parser

import (
	"regexp"
	"strconv"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
	"github.com/xuri/excelize/v2"
)

var chipSizePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*um\s*[x×]\s*(\d+(?:\.\d+)?)\s*um`)

// FieldParams holds the label keywords and scan window for sheet metadata.
type FieldParams struct {
	MaxRows int
	MaxCols int

	ChipSizeLabels    []string
	ProjectCodeLabels []string
	PadWindowLabels   []string
	CUPLabels         []string

	// ChipSizeCell and ProjectCodeCell ("C3") are read when the label
	// search finds nothing. Empty disables the fallback.
	ChipSizeCell    string
	ProjectCodeCell string
}

// DefaultFieldParams returns default sheet metadata parameters.
func DefaultFieldParams() FieldParams {
	return FieldParams{
		MaxRows:           60,
		MaxCols:           30,
		ChipSizeLabels:    []string{"chip size", "chipsize", "die size"},
		ProjectCodeLabels: []string{"project", "專案", "专案"},
		PadWindowLabels:   []string{"pad window", "padwindow"},
		CUPLabels:         []string{"cup"},
		ChipSizeCell:      "C3",
		ProjectCodeCell:   "C2",
	}
}

// ParseChipSize extracts "<w> um x <h> um" from text.
func ParseChipSize(text string) (*models.ChipSize, bool) {
	m := chipSizePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, false
	}
	h, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, false
	}
	return &models.ChipSize{Width: w, Height: h}, true
}

// ReadSheetFields locates the labeled metadata of a sheet.
func ReadSheetFields(c Cells, p FieldParams) models.SheetInfo {
	var info models.SheetInfo
	b := Bounds{MaxRows: p.MaxRows, MaxCols: p.MaxCols}

	// The size is usually beside the label but is sometimes typed into the
	// label cell itself ("Chip Size: 123 um x 456 um"), or after a label
	// merged across several columns.
	if m, ok := FindLabel(c, p.ChipSizeLabels, MatchContains, b); ok {
		for _, text := range []string{ReadAdjacentValue(c, m), c.Cell(m.Row, m.Col), valueAfterMerge(c, m)} {
			if size, ok := ParseChipSize(text); ok {
				info.ChipSize = size
				break
			}
		}
	} else if size, ok := ParseChipSize(fallbackValue(c, p.ChipSizeCell)); ok {
		info.ChipSize = size
	}
	if code := labeledValue(c, p.ProjectCodeLabels, p.ProjectCodeCell, b); code != "" {
		info.ProjectCode = &code
	}
	info.Extras.PadWindow = labeledValue(c, p.PadWindowLabels, "", b)
	info.Extras.CUP = labeledValue(c, p.CUPLabels, "", b)

	return info
}

func labeledValue(c Cells, labels []string, fallbackCell string, b Bounds) string {
	if m, ok := FindLabel(c, labels, MatchContains, b); ok {
		return ReadAdjacentValue(c, m)
	}
	return fallbackValue(c, fallbackCell)
}

func fallbackValue(c Cells, cell string) string {
	if cell == "" {
		return ""
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return ""
	}
	return ReadCellValue(c, row, col)
}
