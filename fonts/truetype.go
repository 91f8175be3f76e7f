package fonts

import (
	"fmt"
	"math"
	"strings"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// TrueTypeFont is a TrueType/OpenType font embedded into the document as a
// Type0/Identity-H composite font. The full font program is embedded; glyph
// usage is tracked per instance so the document can emit width arrays and a
// ToUnicode map covering only what was shown.
type TrueTypeFont struct {
	name    string
	program []byte
	face    shapeFace

	unitsPerEm  sfnt.Units
	ascent      float64
	descent     float64
	capHeight   float64
	lineGap     float64
	italicAngle float64
	bbox        [4]float64
	widths      map[int]int

	used map[int]rune // glyph id -> representative rune
}

// Descriptor carries the values for a FontDescriptor dictionary, in 1/1000
// em units.
type Descriptor struct {
	FontName    string
	Flags       int
	FontBBox    [4]float64
	ItalicAngle float64
	Ascent      float64
	Descent     float64
	CapHeight   float64
	StemV       int
}

// NewTrueType parses a TrueType/OpenType font program.
func NewTrueType(name string, data []byte) (*TrueTypeFont, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("fonts: truetype data is empty")
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: parse truetype: %w", err)
	}
	unitsPerEm := sf.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("fonts: invalid unitsPerEm")
	}
	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(int32(unitsPerEm) << 6)

	baseName := strings.TrimSpace(name)
	if ps, _ := sf.Name(buf, sfnt.NameIDPostScript); len(ps) > 0 {
		baseName = ps
	}
	if baseName == "" {
		baseName = "Embedded"
	}

	metrics, err := sf.Metrics(buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("fonts: metrics: %w", err)
	}
	bounds, err := sf.Bounds(buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("fonts: bounds: %w", err)
	}

	face, err := newShapeFace(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: shaping face: %w", err)
	}

	f := &TrueTypeFont{
		name:       baseName,
		program:    append([]byte(nil), data...),
		face:       face,
		unitsPerEm: unitsPerEm,
		ascent:     scaleFixed(metrics.Ascent, unitsPerEm),
		descent:    -scaleFixed(metrics.Descent, unitsPerEm),
		capHeight:  scaleFixed(metrics.CapHeight, unitsPerEm),
		bbox: [4]float64{
			scaleFixed(bounds.Min.X, unitsPerEm),
			scaleFixed(bounds.Min.Y, unitsPerEm),
			scaleFixed(bounds.Max.X, unitsPerEm),
			scaleFixed(bounds.Max.Y, unitsPerEm),
		},
		widths: glyphWidths(sf, buf, unitsPerEm, ppem),
		used:   make(map[int]rune),
	}
	if angle := postItalicAngle(sf); angle != 0 {
		f.italicAngle = angle
	}
	if gap := scaleFixed(metrics.Height, unitsPerEm) - (f.ascent - f.descent); gap > 0 {
		f.lineGap = gap
	}
	if f.capHeight == 0 {
		f.capHeight = f.ascent
	}
	return f, nil
}

func (f *TrueTypeFont) Name() string       { return f.name }
func (f *TrueTypeFont) Ascender() float64  { return f.ascent }
func (f *TrueTypeFont) Descender() float64 { return f.descent }
func (f *TrueTypeFont) Embedded() bool     { return true }

// Program returns the raw font program for the FontFile2 stream.
func (f *TrueTypeFont) Program() []byte { return f.program }

func (f *TrueTypeFont) LineHeight(size float64, includeGap bool) float64 {
	gap := 0.0
	if includeGap {
		gap = f.lineGap
	}
	return (f.ascent + gap - f.descent) / 1000 * size
}

func (f *TrueTypeFont) WidthOfString(s string, size float64) float64 {
	total := 0.0
	for _, g := range f.shape(s) {
		total += g.advance
	}
	return total / 1000 * size
}

// Encode shapes s and returns the two-byte glyph ids an Identity-H encoded
// text operator expects, recording glyph usage for ToUnicode emission.
func (f *TrueTypeFont) Encode(s string) []byte {
	runes := []rune(s)
	glyphs := f.shape(s)
	out := make([]byte, 0, len(glyphs)*2)
	for _, g := range glyphs {
		if _, seen := f.used[g.id]; !seen && g.cluster < len(runes) {
			f.used[g.id] = runes[g.cluster]
		}
		out = append(out, byte(g.id>>8), byte(g.id))
	}
	return out
}

// UsedGlyphs returns the glyph ids shown so far mapped to a representative
// rune, for ToUnicode generation.
func (f *TrueTypeFont) UsedGlyphs() map[int]rune {
	out := make(map[int]rune, len(f.used))
	for gid, r := range f.used {
		out[gid] = r
	}
	return out
}

// GlyphWidth returns the advance of a glyph in 1/1000 em units.
func (f *TrueTypeFont) GlyphWidth(gid int) int { return f.widths[gid] }

func (f *TrueTypeFont) Descriptor() Descriptor {
	return Descriptor{
		FontName:    f.name,
		Flags:       4, // non-symbolic
		FontBBox:    f.bbox,
		ItalicAngle: f.italicAngle,
		Ascent:      f.ascent,
		Descent:     f.descent,
		CapHeight:   f.capHeight,
		StemV:       80,
	}
}

func glyphWidths(sf *sfnt.Font, buf *sfnt.Buffer, unitsPerEm sfnt.Units, ppem fixed.Int26_6) map[int]int {
	glyphs := sf.NumGlyphs()
	widths := make(map[int]int, glyphs)
	for i := 0; i < glyphs; i++ {
		adv, err := sf.GlyphAdvance(buf, sfnt.GlyphIndex(i), ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		widths[i] = int(math.Round(scaleFixed(adv, unitsPerEm)))
	}
	return widths
}

func postItalicAngle(sf *sfnt.Font) float64 {
	post := sf.PostTable()
	if post == nil {
		return 0
	}
	return post.ItalicAngle
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}
