package models

// PinRecord is a fully populated pin row.
type PinRecord struct {
	PinNo   string  `json:"pin_no"`
	PinName string  `json:"pin_name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// InvalidPinNote is a diagnostic for a row that could not become a PinRecord.
// Message is set instead of the identity fields when the table itself could
// not be located.
type InvalidPinNote struct {
	PinNo   string `json:"pin_no"`
	PinName string `json:"pin_name"`
	Message string `json:"message,omitempty"`
}

// PinHeaders holds the resolved header cells of a pin table.
type PinHeaders struct {
	PinNo   HeaderMatch `json:"pin_no"`
	PinName HeaderMatch `json:"pin_name"`
	X       HeaderMatch `json:"x"`
	Y       HeaderMatch `json:"y"`
	// DataStartRow is the first row scanned for pin records.
	DataStartRow int `json:"data_start_row"`
}

// PinResult is the outcome of pin extraction for one sheet.
type PinResult struct {
	Valid   []PinRecord      `json:"valid"`
	Invalid []InvalidPinNote `json:"invalid"`
	// Headers is nil when the headers could not be resolved.
	Headers *PinHeaders `json:"headers,omitempty"`
}
