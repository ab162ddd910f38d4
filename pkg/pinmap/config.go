// Package pinmap extracts the main picture, labeled fields and pin table of
// the sheets in an xlsx workbook.
package pinmap

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/parser"
)

// Config configures extraction. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// MaxScanRows and MaxScanCols bound every label and header search.
	MaxScanRows int `toml:"max_scan_rows"`
	MaxScanCols int `toml:"max_scan_cols"`
	// HeaderRowFallbackDeltas are the row offsets tried, in order, when the
	// name header is not on the pin/x/y header row.
	HeaderRowFallbackDeltas []int `toml:"header_row_fallback_deltas"`

	// DataProbeRows and DataProbeCols bound the "sheet has data" check.
	DataProbeRows int `toml:"data_probe_rows"`
	DataProbeCols int `toml:"data_probe_cols"`

	Labels   LabelConfig    `toml:"labels"`
	Headers  HeaderConfig   `toml:"headers"`
	Fallback FallbackConfig `toml:"fallback"`
}

// LabelConfig lists the keywords of the labeled sheet fields (substring match).
type LabelConfig struct {
	ChipSize    []string `toml:"chip_size"`
	ProjectCode []string `toml:"project_code"`
	PadWindow   []string `toml:"pad_window"`
	CUP         []string `toml:"cup"`
}

// HeaderConfig lists the pin table header keywords (normalized exact match).
type HeaderConfig struct {
	PinNo   []string `toml:"pin_no"`
	PinName []string `toml:"pin_name"`
	X       []string `toml:"x"`
	Y       []string `toml:"y"`
}

// FallbackConfig names the cells read when a field label is not found.
type FallbackConfig struct {
	ChipSizeCell    string `toml:"chip_size_cell"`
	ProjectCodeCell string `toml:"project_code_cell"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	fp := parser.DefaultFieldParams()
	pp := parser.DefaultPinTableParams()
	return Config{
		MaxScanRows:             pp.MaxRows,
		MaxScanCols:             pp.MaxCols,
		HeaderRowFallbackDeltas: pp.HeaderRowFallbackDeltas,
		DataProbeRows:           200,
		DataProbeCols:           50,
		Labels: LabelConfig{
			ChipSize:    fp.ChipSizeLabels,
			ProjectCode: fp.ProjectCodeLabels,
			PadWindow:   fp.PadWindowLabels,
			CUP:         fp.CUPLabels,
		},
		Headers: HeaderConfig{
			PinNo:   pp.PinNoHeaders,
			PinName: pp.PinNameHeaders,
			X:       pp.XHeaders,
			Y:       pp.YHeaders,
		},
		Fallback: FallbackConfig{
			ChipSizeCell:    fp.ChipSizeCell,
			ProjectCodeCell: fp.ProjectCodeCell,
		},
	}
}

// LoadConfig reads a TOML file over the defaults. Keys absent from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.MaxScanRows < 1 || c.MaxScanCols < 1:
		return fmt.Errorf("%w: scan window must be at least 1x1, got %dx%d", ErrInvalidConfig, c.MaxScanRows, c.MaxScanCols)
	case c.DataProbeRows < 1 || c.DataProbeCols < 1:
		return fmt.Errorf("%w: data probe must be at least 1x1, got %dx%d", ErrInvalidConfig, c.DataProbeRows, c.DataProbeCols)
	case len(c.Headers.PinNo) == 0, len(c.Headers.PinName) == 0, len(c.Headers.X) == 0, len(c.Headers.Y) == 0:
		return fmt.Errorf("%w: every pin table header needs at least one keyword", ErrInvalidConfig)
	}
	for _, d := range c.HeaderRowFallbackDeltas {
		if d == 0 {
			return fmt.Errorf("%w: header row fallback delta 0 repeats the header row", ErrInvalidConfig)
		}
	}
	for _, cell := range []string{c.Fallback.ChipSizeCell, c.Fallback.ProjectCodeCell} {
		if cell == "" {
			continue
		}
		if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
			return fmt.Errorf("%w: fallback cell %q: %w", ErrInvalidConfig, cell, err)
		}
	}
	return nil
}

func (c Config) fieldParams() parser.FieldParams {
	return parser.FieldParams{
		MaxRows:           c.MaxScanRows,
		MaxCols:           c.MaxScanCols,
		ChipSizeLabels:    c.Labels.ChipSize,
		ProjectCodeLabels: c.Labels.ProjectCode,
		PadWindowLabels:   c.Labels.PadWindow,
		CUPLabels:         c.Labels.CUP,
		ChipSizeCell:      c.Fallback.ChipSizeCell,
		ProjectCodeCell:   c.Fallback.ProjectCodeCell,
	}
}

func (c Config) pinTableParams() parser.PinTableParams {
	return parser.PinTableParams{
		MaxRows:                 c.MaxScanRows,
		MaxCols:                 c.MaxScanCols,
		HeaderRowFallbackDeltas: c.HeaderRowFallbackDeltas,
		PinNoHeaders:            c.Headers.PinNo,
		PinNameHeaders:          c.Headers.PinName,
		XHeaders:                c.Headers.X,
		YHeaders:                c.Headers.Y,
	}
}

