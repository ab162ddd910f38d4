package models

// PictureCandidate is one raster picture found in a sheet's drawing part.
type PictureCandidate struct {
	// EmbedID references an image relationship of the drawing part.
	EmbedID string `json:"embed_id"`
	// WidthUnits is the picture width in EMU (0 when absent).
	WidthUnits int64 `json:"width_units"`
	// HeightUnits is the picture height in EMU (0 when absent).
	HeightUnits int64 `json:"height_units"`
}

// Area returns WidthUnits*HeightUnits.
func (p PictureCandidate) Area() int64 {
	return p.WidthUnits * p.HeightUnits
}

// ImageAsset is the picture chosen for a sheet. The caller owns Bytes.
type ImageAsset struct {
	// SheetName is the sheet the picture is anchored to.
	SheetName string `json:"sheet_name"`
	// SourcePartPath is the media part the bytes were read from.
	SourcePartPath string `json:"source_part_path"`
	// Bytes is the raw media content.
	Bytes []byte `json:"-"`
	// Extension is the lowercased media extension including the dot.
	Extension string `json:"extension"`
	// WidthPx is the displayed width in pixels (0 when unknown).
	WidthPx int `json:"width_px,omitempty"`
	// HeightPx is the displayed height in pixels (0 when unknown).
	HeightPx int `json:"height_px,omitempty"`
}

// ImageIndex maps sheets to their largest picture.
type ImageIndex struct {
	// Sheets lists the sheets that produced an asset, in declaration order.
	Sheets []string `json:"sheets"`
	// Images maps sheet name to its asset.
	Images map[string]ImageAsset `json:"images"`
}

// Lookup returns the asset for sheet, if any.
func (x *ImageIndex) Lookup(sheet string) (ImageAsset, bool) {
	if x == nil {
		return ImageAsset{}, false
	}
	a, ok := x.Images[sheet]
	return a, ok
}
