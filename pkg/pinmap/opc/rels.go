package opc

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Relationship type suffixes. Transitional and Strict OOXML use different
// namespace prefixes but share the final path segment.
const (
	RelOfficeDocument = "officeDocument"
	RelWorksheet      = "worksheet"
	RelDrawing        = "drawing"
	RelImage          = "image"
)

// RootRelsPath is the package-level relationship part.
const RootRelsPath = "_rels/.rels"

// DefaultWorkbookPath is used when the root relationships do not name one.
const DefaultWorkbookPath = "xl/workbook.xml"

// Relationship is one entry of a relationship part. It is only meaningful
// relative to the part that declares it.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type xmlRelationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Relationships []Relationship `xml:"Relationship"`
}

// ParseRelationships decodes a .rels part.
func ParseRelationships(data []byte) ([]Relationship, error) {
	var rels xmlRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parse relationships: %w", err)
	}
	return rels.Relationships, nil
}

// ReadRelationships reads and decodes the relationship part belonging to
// part. The error wraps ErrPartNotFound when part declares no relationships.
func ReadRelationships(r PartReader, part string) ([]Relationship, error) {
	data, err := r.ReadPart(RelsPathFor(part))
	if err != nil {
		return nil, err
	}
	return ParseRelationships(data)
}

// RelsPathFor returns the sibling relationship part of part:
// "xl/worksheets/sheet1.xml" -> "xl/worksheets/_rels/sheet1.xml.rels".
func RelsPathFor(part string) string {
	part = strings.TrimPrefix(part, "/")
	dir, base := path.Split(part)
	return dir + "_rels/" + base + ".rels"
}

// RelTypeIs reports whether the relationship type URI ends in the segment kind.
func RelTypeIs(rel Relationship, kind string) bool {
	t := strings.TrimRight(rel.Type, "/")
	if i := strings.LastIndex(t, "/"); i >= 0 {
		t = t[i+1:]
	}
	return t == kind
}

// ResolveTarget resolves a relationship target against the directory of the
// part that declared it. Absolute targets start at the package root. It
// returns "" for external targets and for targets escaping the package.
func ResolveTarget(sourcePart string, rel Relationship) string {
	if strings.EqualFold(rel.TargetMode, "External") {
		return ""
	}
	return JoinPartPath(sourcePart, rel.Target)
}

// JoinPartPath joins target onto the directory of sourcePart and cleans the
// result. An empty sourcePart stands for the package root. Targets are URIs,
// so percent-escapes are decoded; a target that is not a valid escape
// sequence is used as written.
func JoinPartPath(sourcePart, target string) string {
	target = strings.ReplaceAll(target, "\\", "/")
	if target == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}

	var joined string
	if strings.HasPrefix(target, "/") {
		joined = path.Clean(strings.TrimLeft(target, "/"))
	} else {
		dir := path.Dir(strings.TrimPrefix(sourcePart, "/"))
		joined = path.Join(dir, target)
	}
	if joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
		return ""
	}
	return joined
}
