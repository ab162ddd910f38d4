package parser

import (
	"strings"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
)

// PinTableParams holds the header keywords and scan window for pin tables.
type PinTableParams struct {
	MaxRows int
	MaxCols int
	// HeaderRowFallbackDeltas are tried in order, relative to the row shared
	// by the pin/x/y headers, when the name header is not on that row.
	HeaderRowFallbackDeltas []int

	PinNoHeaders   []string
	PinNameHeaders []string
	XHeaders       []string
	YHeaders       []string
}

// DefaultPinTableParams returns default pin table parameters.
func DefaultPinTableParams() PinTableParams {
	return PinTableParams{
		MaxRows:                 60,
		MaxCols:                 30,
		HeaderRowFallbackDeltas: []int{-1, 1, -2, 2},
		PinNoHeaders:            []string{"pin", "pin no", "pin no.", "pin #", "pin number"},
		PinNameHeaders:          []string{"pin name", "name", "pad name", "signal", "signal name"},
		XHeaders:                []string{"x", "x(um)", "x axis", "x-axis", "x coordinate", "pos x"},
		YHeaders:                []string{"y", "y(um)", "y axis", "y-axis", "y coordinate", "pos y"},
	}
}

// ExtractPins locates the pin table of a sheet and classifies its rows.
// When the headers cannot be resolved the result holds no valid records and
// a single diagnostic note.
func ExtractPins(c Cells, p PinTableParams) models.PinResult {
	headers, missing := locatePinHeaders(c, p)
	if len(missing) > 0 {
		return models.PinResult{
			Valid: []models.PinRecord{},
			Invalid: []models.InvalidPinNote{{
				Message: "pin table headers not found: " + strings.Join(missing, ", "),
			}},
		}
	}

	result := models.PinResult{
		Valid:   []models.PinRecord{},
		Invalid: []models.InvalidPinNote{},
		Headers: headers,
	}
	for row := headers.DataStartRow; row <= c.MaxRow(); row++ {
		raw := [4]string{
			c.Cell(row, headers.PinNo.Col),
			c.Cell(row, headers.PinName.Col),
			c.Cell(row, headers.X.Col),
			c.Cell(row, headers.Y.Col),
		}
		// Only truly empty cells end the table; whitespace rows are skipped.
		if raw == [4]string{} {
			break
		}

		pinNo, pinName := cleanText(raw[0]), cleanText(raw[1])
		xText, yText := cleanText(raw[2]), cleanText(raw[3])
		if rec, note, ok := classifyPinRow(pinNo, pinName, xText, yText); ok {
			result.Valid = append(result.Valid, rec)
		} else if note != nil {
			result.Invalid = append(result.Invalid, *note)
		}
	}

	return result
}

// classifyPinRow applies the per-row rules. It returns ok for a valid record,
// a note for an invalid row that carries identity, and neither for noise.
func classifyPinRow(pinNo, pinName, xText, yText string) (models.PinRecord, *models.InvalidPinNote, bool) {
	hasIdentity := pinNo != "" || pinName != ""
	hasCoord := xText != "" || yText != ""
	if !hasIdentity && hasCoord {
		return models.PinRecord{}, nil, false
	}

	x, xOK := parseNumber(xText)
	y, yOK := parseNumber(yText)
	isNC := normalizeKey(pinName) == "nc"

	if pinNo == "" || isNC || !xOK || !yOK {
		if hasIdentity {
			return models.PinRecord{}, &models.InvalidPinNote{PinNo: pinNo, PinName: pinName}, false
		}
		return models.PinRecord{}, nil, false
	}

	return models.PinRecord{
		PinNo:   pinNo,
		PinName: removeSpaces(pinName),
		X:       x,
		Y:       y,
	}, nil, true
}

// locatePinHeaders resolves the four header cells. It returns the names of
// the headers it could not find.
func locatePinHeaders(c Cells, p PinTableParams) (*models.PinHeaders, []string) {
	b := Bounds{MaxRows: p.MaxRows, MaxCols: p.MaxCols}

	pin, pinOK := FindLabel(c, p.PinNoHeaders, MatchExact, b)
	x, xOK := FindLabel(c, p.XHeaders, MatchExact, b)
	y, yOK := FindLabel(c, p.YHeaders, MatchExact, b)

	headerRowGuess := 0
	for _, m := range []struct {
		hm models.HeaderMatch
		ok bool
	}{{pin, pinOK}, {x, xOK}, {y, yOK}} {
		if m.ok {
			headerRowGuess = max(headerRowGuess, m.hm.Row)
		}
	}

	var name models.HeaderMatch
	nameOK := false
	if headerRowGuess > 0 {
		for _, delta := range append([]int{0}, p.HeaderRowFallbackDeltas...) {
			row := headerRowGuess + delta
			if row < 1 {
				continue
			}
			if name, nameOK = FindLabel(c, p.PinNameHeaders, MatchExact, b.InRow(row)); nameOK {
				break
			}
		}
	}

	// A single "Pin Name" cell may satisfy both keyword sets; prefer a name
	// header to the right of the pin header on the same row.
	if pinOK && nameOK && name.Col == pin.Col {
		nb := b.InRow(name.Row)
		nb.AfterCol = pin.Col
		if m, ok := FindLabel(c, p.PinNameHeaders, MatchExact, nb); ok {
			name = m
		}
	}

	// Still the same cell: if it reads as a name, it is the name header and
	// the pin header has to be found elsewhere.
	if pinOK && nameOK && name == pin && strings.Contains(strings.ToLower(c.Cell(pin.Row, pin.Col)), "name") {
		eb := b
		eb.Exclude = &name
		pin, pinOK = FindLabel(c, p.PinNoHeaders, MatchExact, eb)
	}

	var missing []string
	for _, h := range []struct {
		label string
		ok    bool
	}{{"pin", pinOK}, {"name", nameOK}, {"x", xOK}, {"y", yOK}} {
		if !h.ok {
			missing = append(missing, h.label)
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}

	return &models.PinHeaders{
		PinNo:        pin,
		PinName:      name,
		X:            x,
		Y:            y,
		DataStartRow: 1 + max(pin.Row, name.Row, x.Row, y.Row),
	}, nil
}
