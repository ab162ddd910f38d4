package models

// SheetDescriptor is one sheet as declared by the workbook part.
type SheetDescriptor struct {
	// Name is the sheet tab name.
	Name string `json:"name"`
	// DeclarationOrder is the 0-based tab position.
	DeclarationOrder int `json:"declaration_order"`
	// RelationshipID resolves to the worksheet part via the workbook rels.
	RelationshipID string `json:"relationship_id"`
}

// SheetSummary reports what a sheet offers for extraction.
type SheetSummary struct {
	Name     string `json:"name"`
	HasImage bool   `json:"has_image"`
	HasData  bool   `json:"has_data"`
}

// ChipSize is the die size in micrometres.
type ChipSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Extras holds the informational labels shown next to the chip image.
type Extras struct {
	PadWindow string `json:"PadWindow"`
	CUP       string `json:"CUP"`
}

// SheetInfo is the scalar metadata of one sheet.
type SheetInfo struct {
	// SheetName is the sheet the fields were read from.
	SheetName string `json:"sheet_name"`
	// ChipSize is nil when no "<w> um x <h> um" text was found.
	ChipSize *ChipSize `json:"chip_size"`
	// ProjectCode is nil when no project label or value was found.
	ProjectCode *string `json:"project_code"`
	// Image is the sheet's largest picture, nil when it has none.
	Image  *ImageAsset `json:"image,omitempty"`
	Extras Extras      `json:"extras"`
}
