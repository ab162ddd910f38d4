package pinmap

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input is not a readable xlsx package.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrSheetNotFound indicates the requested sheet is not declared by the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrInvalidConfig indicates a configuration value out of range.
var ErrInvalidConfig = errors.New("invalid config")

// ExtractionError represents a failure while reading one sheet.
type ExtractionError struct {
	SheetName string
	Component string // "images", "grid", "fields", "pins"
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error in sheet %q (%s): %v", e.SheetName, e.Component, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(sheetName, component string, err error) *ExtractionError {
	return &ExtractionError{
		SheetName: sheetName,
		Component: component,
		Err:       err,
	}
}
