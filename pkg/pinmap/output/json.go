// Package output renders extraction results as JSON payloads.
package output

import (
	"encoding/json"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
)

// ToJSON marshals v, indented with two spaces when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Pins is the pin extraction payload.
type Pins struct {
	ValidPins   []models.PinRecord `json:"valid_pins"`
	InvalidPins []string           `json:"invalid_pins"`
}

// PinsPayload renders a pin result. Invalid rows read "<pinNo>, <pinName>";
// a diagnostic note is rendered as its message.
func PinsPayload(r *models.PinResult) Pins {
	p := Pins{
		ValidPins:   make([]models.PinRecord, 0, len(r.Valid)),
		InvalidPins: make([]string, 0, len(r.Invalid)),
	}
	p.ValidPins = append(p.ValidPins, r.Valid...)
	for _, note := range r.Invalid {
		p.InvalidPins = append(p.InvalidPins, InvalidPinText(note))
	}
	return p
}

// InvalidPinText renders one invalid note.
func InvalidPinText(note models.InvalidPinNote) string {
	if note.Message != "" {
		return note.Message
	}
	return note.PinNo + ", " + note.PinName
}

// SheetInfo is the per-sheet metadata payload. Missing values are null.
type SheetInfo struct {
	ChipSize    *models.ChipSize `json:"chip_size"`
	ProjectCode *string          `json:"project_code"`
	ImageURL    *string          `json:"image_url"`
	Extras      models.Extras    `json:"extras"`
}

// SheetInfoPayload renders sheet metadata with the URL the image is served
// from. An empty imageURL renders as null.
func SheetInfoPayload(info *models.SheetInfo, imageURL string) SheetInfo {
	p := SheetInfo{
		ChipSize:    info.ChipSize,
		ProjectCode: info.ProjectCode,
		Extras:      info.Extras,
	}
	if imageURL != "" {
		p.ImageURL = &imageURL
	}
	return p
}

// Sheets is the sheet listing payload.
type Sheets struct {
	BookName string                `json:"book_name"`
	Sheets   []models.SheetSummary `json:"sheets"`
}

// SheetsPayload renders a workbook summary.
func SheetsPayload(wb *models.WorkbookData) Sheets {
	return Sheets{BookName: wb.BookName, Sheets: wb.Sheets}
}
