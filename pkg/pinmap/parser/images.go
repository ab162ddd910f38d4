package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
	"github.com/ukaji3/pinmap-go/pkg/pinmap/opc"
)

// ResolveImages walks workbook -> worksheet -> drawing -> media for every
// sheet and returns each sheet's largest picture. A broken link for one sheet
// only excludes that sheet; errors are returned only when the workbook part
// or its relationships cannot be read.
func ResolveImages(r opc.PartReader, logger *slog.Logger) (*models.ImageIndex, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wbPath, sheets, err := ReadSheetDescriptors(r)
	if err != nil {
		return nil, err
	}
	sheetParts, err := worksheetPaths(r, wbPath)
	if err != nil {
		return nil, fmt.Errorf("workbook relationships: %w", err)
	}

	index := &models.ImageIndex{
		Sheets: []string{},
		Images: make(map[string]models.ImageAsset),
	}
	for _, sheet := range sheets {
		sheetPath, ok := sheetParts[sheet.RelationshipID]
		if !ok {
			logger.Debug("sheet skipped", "sheet", sheet.Name, "reason", "no worksheet relationship")
			continue
		}
		asset, reason := resolveSheetImage(r, sheet.Name, sheetPath)
		if reason != "" {
			logger.Debug("sheet skipped", "sheet", sheet.Name, "part", sheetPath, "reason", reason)
			continue
		}
		index.Sheets = append(index.Sheets, sheet.Name)
		index.Images[sheet.Name] = asset
	}

	return index, nil
}

// resolveSheetImage follows one sheet's chain. A non-empty reason means the
// sheet has no usable picture.
func resolveSheetImage(r opc.PartReader, sheetName, sheetPath string) (models.ImageAsset, string) {
	sheetRels, err := opc.ReadRelationships(r, sheetPath)
	if err != nil {
		return models.ImageAsset{}, linkReason("worksheet relationships", err)
	}

	drawingPath := ""
	for _, rel := range sheetRels {
		if opc.RelTypeIs(rel, opc.RelDrawing) {
			drawingPath = opc.ResolveTarget(sheetPath, rel)
			break
		}
	}
	if drawingPath == "" {
		return models.ImageAsset{}, "no drawing relationship"
	}
	drawingXML, err := r.ReadPart(drawingPath)
	if err != nil {
		return models.ImageAsset{}, linkReason("drawing part", err)
	}

	media, err := embedMediaMap(r, drawingPath)
	if err != nil {
		return models.ImageAsset{}, linkReason("drawing relationships", err)
	}

	best, ok := largestPicture(parseDrawingPictures(drawingXML))
	if !ok {
		return models.ImageAsset{}, "no pictures"
	}
	mediaPath, ok := media[best.EmbedID]
	if !ok {
		return models.ImageAsset{}, "embed " + best.EmbedID + " has no image relationship"
	}
	data, err := r.ReadPart(mediaPath)
	if err != nil {
		return models.ImageAsset{}, linkReason("media part", err)
	}

	return models.ImageAsset{
		SheetName:      sheetName,
		SourcePartPath: mediaPath,
		Bytes:          data,
		Extension:      strings.ToLower(path.Ext(mediaPath)),
		WidthPx:        EMUToPixels(best.WidthUnits),
		HeightPx:       EMUToPixels(best.HeightUnits),
	}, ""
}

// embedMediaMap maps embed ids of a drawing part to media part paths.
func embedMediaMap(r opc.PartReader, drawingPath string) (map[string]string, error) {
	rels, err := opc.ReadRelationships(r, drawingPath)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(rels))
	for _, rel := range rels {
		if !opc.RelTypeIs(rel, opc.RelImage) {
			continue
		}
		if p := opc.ResolveTarget(drawingPath, rel); p != "" {
			result[rel.ID] = p
		}
	}
	return result, nil
}

func linkReason(link string, err error) string {
	if errors.Is(err, opc.ErrPartNotFound) {
		return link + " missing"
	}
	return link + " unreadable: " + err.Error()
}
