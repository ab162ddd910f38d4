package pinmap

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
	"github.com/ukaji3/pinmap-go/pkg/pinmap/opc"
	"github.com/ukaji3/pinmap-go/pkg/pinmap/parser"
)

// Workbook is an opened xlsx package. The archive is read once and shared by
// the relationship resolver and the cell grid reader. A Workbook is not safe
// for concurrent use.
type Workbook struct {
	name   string
	cfg    Config
	logger *slog.Logger

	pkg        *opc.Package
	file       *excelize.File
	sheets     []string
	worksheets []string
	images     *models.ImageIndex
	grids      map[string]*parser.Grid
}

// Open reads the workbook at path.
func Open(path string, cfg Config, logger *slog.Logger) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return OpenBytes(filepath.Base(path), data, cfg, logger)
}

// OpenBytes opens an in-memory workbook. Package-level failures (not a zip,
// no workbook part, no workbook relationships) are returned here; per-sheet
// problems never are.
func OpenBytes(name string, data []byte, cfg Config, logger *slog.Logger) (*Workbook, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pkg, err := opc.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFormat, name, err)
	}

	images, err := parser.ResolveImages(pkg, logger)
	if err != nil {
		pkg.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFormat, name, err)
	}

	worksheets, err := parser.WorksheetNames(pkg)
	if err != nil {
		pkg.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFormat, name, err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		pkg.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFormat, name, err)
	}

	wb := &Workbook{
		name:       name,
		cfg:        cfg,
		logger:     logger,
		pkg:        pkg,
		file:       file,
		sheets:     file.GetSheetList(),
		worksheets: worksheets,
		images:     images,
		grids:      make(map[string]*parser.Grid),
	}
	logger.Debug("workbook opened", "book", name, "sheets", len(wb.sheets), "images", len(images.Sheets))
	return wb, nil
}

// Close releases the package and the cell reader. It is safe to call more
// than once.
func (w *Workbook) Close() error {
	pkgErr := w.pkg.Close()
	var fileErr error
	if w.file != nil {
		fileErr = w.file.Close()
		w.file = nil
	}
	return errors.Join(pkgErr, fileErr)
}

// Name returns the book name (the base file name).
func (w *Workbook) Name() string {
	return w.name
}

// SheetNames returns the sheet names in workbook declaration order.
func (w *Workbook) SheetNames() []string {
	return slices.Clone(w.sheets)
}

// Images returns the largest picture of every sheet whose drawing chain
// resolves, keyed by sheet name.
func (w *Workbook) Images() *models.ImageIndex {
	return w.images
}

// Sheets summarizes every sheet: whether it has a picture and whether any
// cell within the data probe window holds a value. Chart sheets and dialog
// sheets are listed with neither.
func (w *Workbook) Sheets() ([]models.SheetSummary, error) {
	summaries := make([]models.SheetSummary, 0, len(w.sheets))
	for _, name := range w.sheets {
		if !slices.Contains(w.worksheets, name) {
			summaries = append(summaries, models.SheetSummary{Name: name})
			continue
		}
		g, err := w.grid(name)
		if err != nil {
			return nil, err
		}
		_, hasImage := w.images.Lookup(name)
		summaries = append(summaries, models.SheetSummary{
			Name:     name,
			HasImage: hasImage,
			HasData:  parser.HasData(g, w.cfg.DataProbeRows, w.cfg.DataProbeCols),
		})
	}
	return summaries, nil
}

// Summary returns the book name and its sheet summaries.
func (w *Workbook) Summary() (*models.WorkbookData, error) {
	sheets, err := w.Sheets()
	if err != nil {
		return nil, err
	}
	return &models.WorkbookData{BookName: w.name, Sheets: sheets}, nil
}

// SheetInfo reads the labeled fields of a sheet and attaches its picture.
func (w *Workbook) SheetInfo(sheet string) (*models.SheetInfo, error) {
	g, err := w.grid(sheet)
	if err != nil {
		return nil, err
	}

	info := parser.ReadSheetFields(g, w.cfg.fieldParams())
	info.SheetName = sheet
	if asset, ok := w.images.Lookup(sheet); ok {
		info.Image = &asset
	}
	return &info, nil
}

// Pins locates and classifies the pin table of a sheet. Unresolved headers
// are reported in the result, not as an error.
func (w *Workbook) Pins(sheet string) (*models.PinResult, error) {
	g, err := w.grid(sheet)
	if err != nil {
		return nil, err
	}

	result := parser.ExtractPins(g, w.cfg.pinTableParams())
	if result.Headers == nil {
		w.logger.Debug("pin table headers unresolved", "book", w.name, "sheet", sheet)
	}
	return &result, nil
}

// grid loads a worksheet's cells. Names of chart sheets and dialog sheets
// are reported as not found since they carry no cells.
func (w *Workbook) grid(sheet string) (*parser.Grid, error) {
	if !slices.Contains(w.sheets, sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	if !slices.Contains(w.worksheets, sheet) {
		return nil, fmt.Errorf("%w: %q is not a worksheet", ErrSheetNotFound, sheet)
	}
	if g, ok := w.grids[sheet]; ok {
		return g, nil
	}
	if w.file == nil {
		return nil, NewExtractionError(sheet, "grid", errors.New("workbook is closed"))
	}

	g, err := parser.LoadGrid(w.file, sheet)
	if err != nil {
		return nil, NewExtractionError(sheet, "grid", err)
	}
	w.grids[sheet] = g
	return g, nil
}
