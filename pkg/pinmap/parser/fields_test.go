package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
)

func TestParseChipSize(t *testing.T) {
	tests := []struct {
		text     string
		expected *models.ChipSize
	}{
		{"123.5 um X 456 um", &models.ChipSize{Width: 123.5, Height: 456}},
		{"100um×200um", &models.ChipSize{Width: 100, Height: 200}},
		{"Chip Size: 10 UM x 20 UM", &models.ChipSize{Width: 10, Height: 20}},
		{"1.25um  x  2um (approx)", &models.ChipSize{Width: 1.25, Height: 2}},
		{"100 x 200", nil},
		{"100 mm x 200 mm", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got, ok := ParseChipSize(tt.text)
		assert.Equal(t, tt.expected != nil, ok, tt.text)
		assert.Equal(t, tt.expected, got, tt.text)
	}
}

func TestReadSheetFields_Labeled(t *testing.T) {
	g := gridOf(t, map[string]string{
		"A1": "Project",
		"B1": " P-42 ",
		"A3": "Chip Size",
		"B3": "123.5 um X 456 um",
		"A5": "Pad Window",
		"B5": "80 x 80",
		"A6": "CUP",
		"B6": "Yes",
	})

	info := ReadSheetFields(g, DefaultFieldParams())
	require.NotNil(t, info.ChipSize)
	assert.Equal(t, models.ChipSize{Width: 123.5, Height: 456}, *info.ChipSize)
	require.NotNil(t, info.ProjectCode)
	assert.Equal(t, "P-42", *info.ProjectCode)
	assert.Equal(t, models.Extras{PadWindow: "80 x 80", CUP: "Yes"}, info.Extras)
}

func TestReadSheetFields_SizeInsideLabelCell(t *testing.T) {
	g := gridOf(t, map[string]string{"B2": "Chip Size: 10 um x 20 um"})

	info := ReadSheetFields(g, DefaultFieldParams())
	require.NotNil(t, info.ChipSize)
	assert.Equal(t, models.ChipSize{Width: 10, Height: 20}, *info.ChipSize)
}

func TestReadSheetFields_MergedLabel(t *testing.T) {
	// A merged label covers its own value cell, so the text read is the
	// label's.
	g := gridOf(t, map[string]string{"A1": "Project", "C1": "TW-01"}, "A1:B1")

	info := ReadSheetFields(g, DefaultFieldParams())
	require.NotNil(t, info.ProjectCode)
	assert.Equal(t, "Project", *info.ProjectCode)
}

func TestReadSheetFields_MergedChipSizeLabel(t *testing.T) {
	g := gridOf(t, map[string]string{"A1": "Chip Size", "C1": "10 um x 20 um"}, "A1:B1")

	info := ReadSheetFields(g, DefaultFieldParams())
	require.NotNil(t, info.ChipSize)
	assert.Equal(t, models.ChipSize{Width: 10, Height: 20}, *info.ChipSize)

	g = gridOf(t, map[string]string{"A1": "Chip Size 3 um x 4 um", "C1": "10 um x 20 um"}, "A1:B1")
	info = ReadSheetFields(g, DefaultFieldParams())
	require.NotNil(t, info.ChipSize)
	assert.Equal(t, models.ChipSize{Width: 3, Height: 4}, *info.ChipSize)
}

func TestReadSheetFields_FallbackCells(t *testing.T) {
	g := gridOf(t, map[string]string{
		"C2": "PRJ-7",
		"C3": "5 um x 6 um",
	})

	info := ReadSheetFields(g, DefaultFieldParams())
	require.NotNil(t, info.ChipSize)
	assert.Equal(t, models.ChipSize{Width: 5, Height: 6}, *info.ChipSize)
	require.NotNil(t, info.ProjectCode)
	assert.Equal(t, "PRJ-7", *info.ProjectCode)
	assert.Equal(t, models.Extras{}, info.Extras)

	p := DefaultFieldParams()
	p.ChipSizeCell = ""
	p.ProjectCodeCell = ""
	info = ReadSheetFields(g, p)
	assert.Nil(t, info.ChipSize)
	assert.Nil(t, info.ProjectCode)
}

func TestReadSheetFields_LabelWithoutValue(t *testing.T) {
	// A found label suppresses the fallback cell even when its value is unusable.
	g := gridOf(t, map[string]string{
		"A1": "Chip Size",
		"B1": "TBD",
		"C3": "5 um x 6 um",
	})

	info := ReadSheetFields(g, DefaultFieldParams())
	assert.Nil(t, info.ChipSize)
	assert.Nil(t, info.ProjectCode)
	assert.Empty(t, info.Extras.PadWindow)
	assert.Empty(t, info.Extras.CUP)
}

func TestReadSheetFields_OutsideWindow(t *testing.T) {
	g := gridOf(t, map[string]string{"A80": "Project", "B80": "late"})

	info := ReadSheetFields(g, DefaultFieldParams())
	assert.Nil(t, info.ProjectCode)

	p := DefaultFieldParams()
	p.MaxRows = 100
	info = ReadSheetFields(g, p)
	require.NotNil(t, info.ProjectCode)
	assert.Equal(t, "late", *info.ProjectCode)
}
