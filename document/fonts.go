package document

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"sort"

	"github.com/wudi/pdfstream/fonts"
	"github.com/wudi/pdfstream/objects"
)

// docFont binds a font to this document: its resource label, its lazily
// allocated file object, and the per-document glyph usage carried by the
// fonts package instance.
type docFont struct {
	name string
	font fonts.Font
	id   string
	ref  *Reference
}

// refFor allocates the font's dictionary object on first use. The object
// stays open until endFonts so glyph usage can keep accumulating.
func (df *docFont) refFor(d *Document) *Reference {
	if df.ref == nil {
		df.ref = d.Ref()
	}
	return df.ref
}

// Font selects the active font by name. The standard 14 names resolve
// directly; any other name must have been registered first, either process
// wide through the fonts package or on this document with RegisterFont.
func (d *Document) Font(name string) *Document {
	if d.err != nil {
		return d
	}
	df, ok := d.fontCache[name]
	if !ok {
		var (
			f   fonts.Font
			err error
		)
		if program, local := d.localFonts[name]; local {
			f, err = fonts.NewTrueType(name, program)
		} else {
			f, err = fonts.Open(name)
		}
		if err != nil {
			d.fail(err)
			return d
		}
		df = &docFont{name: name, font: f, id: fmt.Sprintf("F%d", len(d.fontOrder)+1)}
		d.fontCache[name] = df
		d.fontOrder = append(d.fontOrder, df)
	}
	d.font = df
	return d
}

// FontSize sets the text size in points.
func (d *Document) FontSize(size float64) *Document {
	d.fontSize = size
	return d
}

// RegisterFont makes a TrueType font program available to this document
// under name. Process-wide registration lives in the fonts package.
func (d *Document) RegisterFont(name string, program []byte) *Document {
	d.localFonts[name] = append([]byte(nil), program...)
	return d
}

// currentFont returns the active font, selecting Helvetica when none was
// chosen yet.
func (d *Document) currentFont() *docFont {
	if d.font == nil {
		d.Font("Helvetica")
	}
	return d.font
}

// WidthOfString measures s in the current font and size.
func (d *Document) WidthOfString(s string) float64 {
	f := d.currentFont()
	if f == nil {
		return 0
	}
	return f.font.WidthOfString(s, d.fontSize)
}

// CurrentLineHeight returns the line advance for the current font and size.
func (d *Document) CurrentLineHeight(includeGap bool) float64 {
	f := d.currentFont()
	if f == nil {
		return 0
	}
	return f.font.LineHeight(d.fontSize, includeGap)
}

// endFonts writes the font dictionaries for every font the document used.
// Runs during End, after the last page has flushed, so width arrays and
// ToUnicode maps cover all shown glyphs.
func (d *Document) endFonts() {
	for _, df := range d.fontOrder {
		if df.ref == nil {
			continue
		}
		switch f := df.font.(type) {
		case *fonts.StandardFont:
			df.ref.Data = objects.Dict{
				"Type":     objects.Name("Font"),
				"Subtype":  objects.Name("Type1"),
				"BaseFont": objects.Name(f.Name()),
				"Encoding": objects.Name("WinAnsiEncoding"),
			}
			df.ref.End()
		case *fonts.TrueTypeFont:
			d.endEmbeddedFont(df, f)
		default:
			d.fail(fmt.Errorf("document: cannot embed font %q", df.name))
			df.ref.End()
		}
	}
}

// endEmbeddedFont writes the object graph for a Type0/Identity-H composite
// font: font program, descriptor, CID font, ToUnicode map, and the top
// level font dictionary.
func (d *Document) endEmbeddedFont(df *docFont, f *fonts.TrueTypeFont) {
	base := objects.Name(subsetTag(f.Program()) + "+" + f.Name())

	program := f.Program()
	fileRef := d.Ref()
	fileRef.Data["Length1"] = len(program)
	fileRef.Write(program)
	fileRef.End()

	desc := f.Descriptor()
	descriptorRef := d.Ref()
	descriptorRef.Data = objects.Dict{
		"Type":        objects.Name("FontDescriptor"),
		"FontName":    base,
		"Flags":       desc.Flags,
		"FontBBox":    objects.Array{desc.FontBBox[0], desc.FontBBox[1], desc.FontBBox[2], desc.FontBBox[3]},
		"ItalicAngle": desc.ItalicAngle,
		"Ascent":      desc.Ascent,
		"Descent":     desc.Descent,
		"CapHeight":   desc.CapHeight,
		"StemV":       desc.StemV,
		"FontFile2":   fileRef,
	}
	descriptorRef.End()

	used := f.UsedGlyphs()
	gids := make([]int, 0, len(used))
	for gid := range used {
		gids = append(gids, gid)
	}
	sort.Ints(gids)

	widths := make(objects.Array, 0, len(gids)*2)
	for _, gid := range gids {
		widths = append(widths, gid, objects.Array{f.GlyphWidth(gid)})
	}

	descendantRef := d.Ref()
	descendantRef.Data = objects.Dict{
		"Type":     objects.Name("Font"),
		"Subtype":  objects.Name("CIDFontType2"),
		"BaseFont": base,
		"CIDSystemInfo": objects.Dict{
			"Registry":   objects.Text("Adobe"),
			"Ordering":   objects.Text("Identity"),
			"Supplement": 0,
		},
		"FontDescriptor": descriptorRef,
		"W":              widths,
	}
	descendantRef.End()

	toUnicodeRef := d.Ref()
	toUnicodeRef.Write(toUnicodeCMap(gids, used))
	toUnicodeRef.End()

	df.ref.Data = objects.Dict{
		"Type":            objects.Name("Font"),
		"Subtype":         objects.Name("Type0"),
		"BaseFont":        base,
		"Encoding":        objects.Name("Identity-H"),
		"DescendantFonts": objects.Array{descendantRef},
		"ToUnicode":       toUnicodeRef,
	}
	df.ref.End()
}

// subsetTag derives the six uppercase letters prefixed to an embedded font
// name, deterministically from the font program.
func subsetTag(program []byte) string {
	sum := md5.Sum(program)
	tag := make([]byte, 6)
	for i := range tag {
		tag[i] = 'A' + sum[i]%26
	}
	return string(tag)
}

// toUnicodeCMap renders the CMap stream mapping glyph ids back to Unicode
// for text extraction.
func toUnicodeCMap(gids []int, used map[int]rune) []byte {
	var buf bytes.Buffer
	buf.WriteString(`/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo <<
  /Registry (Adobe)
  /Ordering (UCS)
  /Supplement 0
>> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000><ffff>
endcodespacerange
`)
	// bfchar blocks hold at most 100 entries.
	for start := 0; start < len(gids); start += 100 {
		end := start + 100
		if end > len(gids) {
			end = len(gids)
		}
		fmt.Fprintf(&buf, "%d beginbfchar\n", end-start)
		for _, gid := range gids[start:end] {
			r := used[gid]
			if r > 0xFFFF {
				// Outside the BMP the target is a UTF-16 surrogate pair.
				v := r - 0x10000
				fmt.Fprintf(&buf, "<%04x> <%04x%04x>\n", gid, 0xD800+(v>>10), 0xDC00+(v&0x3FF))
			} else {
				fmt.Fprintf(&buf, "<%04x> <%04x>\n", gid, r)
			}
		}
		buf.WriteString("endbfchar\n")
	}
	buf.WriteString(`endcmap
CMapName currentdict /CMap defineresource pop
end
end`)
	return buf.Bytes()
}
