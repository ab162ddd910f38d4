package pinmap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.MaxScanRows)
	assert.Equal(t, 30, cfg.MaxScanCols)
	assert.Equal(t, []int{-1, 1, -2, 2}, cfg.HeaderRowFallbackDeltas)
	assert.Equal(t, "C3", cfg.Fallback.ChipSizeCell)
	assert.Equal(t, "C2", cfg.Fallback.ProjectCodeCell)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pinmap.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_scan_rows = 120
header_row_fallback_deltas = [-1, -2, -3]

[headers]
pin_no = ["ball", "pin"]

[fallback]
chip_size_cell = "D4"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.MaxScanRows)
	assert.Equal(t, 30, cfg.MaxScanCols, "untouched keys keep defaults")
	assert.Equal(t, []int{-1, -2, -3}, cfg.HeaderRowFallbackDeltas)
	assert.Equal(t, []string{"ball", "pin"}, cfg.Headers.PinNo)
	assert.Equal(t, DefaultConfig().Headers.PinName, cfg.Headers.PinName)
	assert.Equal(t, "D4", cfg.Fallback.ChipSizeCell)
	assert.Equal(t, "C2", cfg.Fallback.ProjectCodeCell)

	pp := cfg.pinTableParams()
	assert.Equal(t, 120, pp.MaxRows)
	assert.Equal(t, []string{"ball", "pin"}, pp.PinNoHeaders)
	fp := cfg.fieldParams()
	assert.Equal(t, "D4", fp.ChipSizeCell)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.Is(err, ErrFileNotFound))

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("max_scan_rows = ["), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("max_scan_cols = 0\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rows", func(c *Config) { c.MaxScanRows = 0 }},
		{"zero probe", func(c *Config) { c.DataProbeCols = 0 }},
		{"no pin keywords", func(c *Config) { c.Headers.PinNo = nil }},
		{"zero delta", func(c *Config) { c.HeaderRowFallbackDeltas = []int{-1, 0} }},
		{"bad fallback cell", func(c *Config) { c.Fallback.ProjectCodeCell = "2C" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig), tt.name)
	}

	cfg := DefaultConfig()
	cfg.Fallback.ChipSizeCell = ""
	cfg.HeaderRowFallbackDeltas = nil
	assert.NoError(t, cfg.Validate())
}
