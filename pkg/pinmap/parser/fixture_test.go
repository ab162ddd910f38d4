package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/opc"
)

const relTypeBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

type testRel struct {
	id, kind, target string
}

type testPic struct {
	embed  string
	cx, cy int64
}

// bookFixture is an in-memory xlsx package built part by part.
type bookFixture map[string]string

// newBook creates a package whose sheets i (0-based) live at
// xl/worksheets/sheet<i+1>.xml behind workbook relationship rId<i+1>.
func newBook(sheetNames ...string) bookFixture {
	f := bookFixture{}
	f["_rels/.rels"] = relsXML(testRel{"rId1", "officeDocument", "xl/workbook.xml"})

	var sheets strings.Builder
	var rels []testRel
	for i, name := range sheetNames {
		fmt.Fprintf(&sheets, `<sheet name="%s" sheetId="%d" r:id="rId%d"/>`, name, i+1, i+1)
		rels = append(rels, testRel{fmt.Sprintf("rId%d", i+1), "worksheet", fmt.Sprintf("worksheets/sheet%d.xml", i+1)})
		f[fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)] = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData/></worksheet>`
	}
	f["xl/workbook.xml"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>` +
		sheets.String() + `</sheets></workbook>`
	f["xl/_rels/workbook.xml.rels"] = relsXML(rels...)
	return f
}

// attachDrawing links sheet n (1-based) to xl/drawings/drawing<d>.xml holding
// pics, and registers one media part per embed id.
func (f bookFixture) attachDrawing(n, d int, pics []testPic, media map[string]string) {
	f[fmt.Sprintf("xl/worksheets/_rels/sheet%d.xml.rels", n)] = relsXML(
		testRel{"rId1", "vmlDrawing", "../drawings/vmlDrawing1.vml"},
		testRel{"rId2", "drawing", fmt.Sprintf("../drawings/drawing%d.xml", d)},
	)
	f[fmt.Sprintf("xl/drawings/drawing%d.xml", d)] = drawingXML(pics...)

	var rels []testRel
	ids := make([]string, 0, len(media))
	for id := range media {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rels = append(rels, testRel{id, "image", "../media/" + media[id]})
		f["xl/media/"+media[id]] = "bytes-of-" + media[id]
	}
	f[fmt.Sprintf("xl/drawings/_rels/drawing%d.xml.rels", d)] = relsXML(rels...)
}

func (f bookFixture) bytes(t *testing.T) []byte {
	t.Helper()
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, name := range names {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func (f bookFixture) open(t *testing.T) *opc.Package {
	t.Helper()
	pkg, err := opc.FromBytes(f.bytes(t))
	require.NoError(t, err)
	t.Cleanup(func() { pkg.Close() })
	return pkg
}

func relsXML(rels ...testRel) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s%s" Target="%s"/>`, r.id, relTypeBase, r.kind, r.target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func drawingXML(pics ...testPic) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<xdr:wsDr xmlns:xdr="http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	for i, p := range pics {
		b.WriteString(`<xdr:twoCellAnchor><xdr:from><xdr:col>0</xdr:col><xdr:row>0</xdr:row></xdr:from><xdr:to><xdr:col>3</xdr:col><xdr:row>5</xdr:row></xdr:to>`)
		fmt.Fprintf(&b, `<xdr:pic><xdr:nvPicPr><xdr:cNvPr id="%d" name="Picture %d"/><xdr:cNvPicPr/></xdr:nvPicPr>`, i+2, i+1)
		fmt.Fprintf(&b, `<xdr:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></xdr:blipFill>`, p.embed)
		if p.cx > 0 || p.cy > 0 {
			fmt.Fprintf(&b, `<xdr:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"/></xdr:spPr>`, p.cx, p.cy)
		} else {
			b.WriteString(`<xdr:spPr><a:prstGeom prst="rect"/></xdr:spPr>`)
		}
		b.WriteString(`</xdr:pic><xdr:clientData/></xdr:twoCellAnchor>`)
	}
	b.WriteString(`</xdr:wsDr>`)
	return b.String()
}
