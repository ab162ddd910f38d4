package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
	"github.com/ukaji3/pinmap-go/pkg/pinmap/opc"
)

// ErrWorkbookMissing indicates the package has no usable workbook part.
var ErrWorkbookMissing = errors.New("workbook part missing")

// findWorkbookPart follows the root officeDocument relationship, falling back
// to the conventional location.
func findWorkbookPart(r opc.PartReader) (string, error) {
	rels, err := opc.ReadRelationships(r, "")
	if err == nil {
		for _, rel := range rels {
			if opc.RelTypeIs(rel, opc.RelOfficeDocument) {
				if p := opc.ResolveTarget("", rel); p != "" && opc.Exists(r, p) {
					return p, nil
				}
			}
		}
	} else if !errors.Is(err, opc.ErrPartNotFound) {
		return "", err
	}

	if opc.Exists(r, opc.DefaultWorkbookPath) {
		return opc.DefaultWorkbookPath, nil
	}
	return "", ErrWorkbookMissing
}

// ReadSheetDescriptors returns the workbook part path and its sheets in tab order.
func ReadSheetDescriptors(r opc.PartReader) (string, []models.SheetDescriptor, error) {
	wbPath, err := findWorkbookPart(r)
	if err != nil {
		return "", nil, err
	}
	data, err := r.ReadPart(wbPath)
	if err != nil {
		return "", nil, err
	}
	sheets, err := parseWorkbookSheets(data)
	if err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", wbPath, err)
	}
	return wbPath, sheets, nil
}

// parseWorkbookSheets reads <sheet name=".." r:id=".."/> entries in
// declaration order. The r:id attribute is matched by local name so both
// Transitional and Strict namespaces work.
func parseWorkbookSheets(data []byte) ([]models.SheetDescriptor, error) {
	var result []models.SheetDescriptor
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	sawWorkbook := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "workbook":
			sawWorkbook = true
		case "sheet":
			var name, rID string
			for _, attr := range se.Attr {
				switch {
				case attr.Name.Local == "name":
					name = attr.Value
				case attr.Name.Local == "id" && attr.Name.Space != "":
					rID = attr.Value
				}
			}
			if name != "" && rID != "" {
				result = append(result, models.SheetDescriptor{
					Name:             name,
					DeclarationOrder: len(result),
					RelationshipID:   rID,
				})
			}
		}
	}

	if !sawWorkbook {
		return nil, errors.New("no workbook element")
	}
	return result, nil
}

// worksheetPaths maps relationship ids of the workbook part to worksheet part paths.
func worksheetPaths(r opc.PartReader, wbPath string) (map[string]string, error) {
	rels, err := opc.ReadRelationships(r, wbPath)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(rels))
	for _, rel := range rels {
		if !opc.RelTypeIs(rel, opc.RelWorksheet) {
			continue
		}
		if p := opc.ResolveTarget(wbPath, rel); p != "" {
			result[rel.ID] = p
		}
	}
	return result, nil
}

// WorksheetNames returns the names of the sheets backed by a worksheet part,
// in declaration order. Chart sheets and dialog sheets are left out.
func WorksheetNames(r opc.PartReader) ([]string, error) {
	wbPath, sheets, err := ReadSheetDescriptors(r)
	if err != nil {
		return nil, err
	}
	parts, err := worksheetPaths(r, wbPath)
	if err != nil {
		return nil, fmt.Errorf("workbook relationships: %w", err)
	}
	names := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		if _, ok := parts[sheet.RelationshipID]; ok {
			names = append(names, sheet.Name)
		}
	}
	return names, nil
}
