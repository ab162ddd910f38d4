package models

// WorkbookData is the workbook-level listing of sheets.
type WorkbookData struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Sheets lists every sheet in declaration order.
	Sheets []SheetSummary `json:"sheets"`
}
