package parser

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
)

// EMUPerPixel is the number of EMUs (English Metric Units) per pixel at 96 DPI.
// 1 inch = 914400 EMU, 1 inch = 96 pixels at 96 DPI
// Therefore: 914400 / 96 = 9525 EMU per pixel
const EMUPerPixel = 9525

// EMUToPixels converts EMU to pixels at 96 DPI.
func EMUToPixels(emu int64) int {
	return int(emu / EMUPerPixel)
}

// parseDrawingPictures returns the raster pictures of a drawing part in
// document order. Pictures inside groups and alternate-content blocks are
// included. Malformed trailing XML ends the scan with what was read so far.
func parseDrawingPictures(data []byte) []models.PictureCandidate {
	var results []models.PictureCandidate

	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		if se, ok := token.(xml.StartElement); ok {
			switch se.Name.Local {
			case "twoCellAnchor", "oneCellAnchor", "absoluteAnchor":
				results = append(results, parseAnchor(decoder)...)
			}
		}
	}

	return results
}

// parseAnchor collects the pictures of one anchor. The anchor's own <xdr:ext>
// (oneCellAnchor, absoluteAnchor) sizes a lone picture that has no xfrm.
func parseAnchor(decoder *xml.Decoder) []models.PictureCandidate {
	var results []models.PictureCandidate
	var anchorCX, anchorCY int64
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "ext":
				if depth == 2 {
					anchorCX, anchorCY = parseExtent(t)
				}
			case "pic":
				if pc, ok := parsePicture(decoder); ok {
					results = append(results, pc)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	if len(results) == 1 && results[0].Area() == 0 && anchorCX > 0 && anchorCY > 0 {
		results[0].WidthUnits = anchorCX
		results[0].HeightUnits = anchorCY
	}
	return results
}

// parsePicture reads a <pic> element up to its end tag.
func parsePicture(decoder *xml.Decoder) (models.PictureCandidate, bool) {
	var pc models.PictureCandidate
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "blip":
				for _, attr := range t.Attr {
					if attr.Name.Local == "embed" && pc.EmbedID == "" {
						pc.EmbedID = attr.Value
					}
				}
			case "xfrm":
				cx, cy := parseXfrmExtent(decoder)
				if pc.WidthUnits == 0 && pc.HeightUnits == 0 {
					pc.WidthUnits, pc.HeightUnits = cx, cy
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return pc, pc.EmbedID != ""
}

// parseXfrmExtent reads the <a:ext cx cy> child of an xfrm element.
func parseXfrmExtent(decoder *xml.Decoder) (cx, cy int64) {
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "ext" {
				cx, cy = parseExtent(t)
			}
		case xml.EndElement:
			depth--
		}
	}
	return
}

func parseExtent(se xml.StartElement) (cx, cy int64) {
	for _, attr := range se.Attr {
		switch attr.Name.Local {
		case "cx":
			if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil && v > 0 {
				cx = v
			}
		case "cy":
			if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil && v > 0 {
				cy = v
			}
		}
	}
	return
}

// largestPicture picks the candidate with strictly maximal area; the first
// one in document order wins ties, including the all-zero case.
func largestPicture(candidates []models.PictureCandidate) (models.PictureCandidate, bool) {
	if len(candidates) == 0 {
		return models.PictureCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Area() > best.Area() {
			best = c
		}
	}
	return best, true
}
