package fonts

// StandardFont is one of the standard 14 fonts every conformant reader
// provides. Only metrics live here; no font program is embedded.
type StandardFont struct {
	name         string
	widths       map[rune]int
	defaultWidth int
	ascender     float64
	descender    float64
	lineGap      float64
}

func (f *StandardFont) Name() string       { return f.name }
func (f *StandardFont) Ascender() float64  { return f.ascender }
func (f *StandardFont) Descender() float64 { return f.descender }
func (f *StandardFont) Embedded() bool     { return false }

func (f *StandardFont) WidthOfString(s string, size float64) float64 {
	total := 0
	for _, r := range s {
		if w, ok := f.widths[r]; ok {
			total += w
		} else {
			total += f.defaultWidth
		}
	}
	return float64(total) / 1000 * size
}

func (f *StandardFont) LineHeight(size float64, includeGap bool) float64 {
	gap := 0.0
	if includeGap {
		gap = f.lineGap
	}
	return (f.ascender + gap - f.descender) / 1000 * size
}

// Encode maps runes onto single-byte WinAnsi codes. Characters outside the
// Latin-1 range degrade to a question mark.
func (f *StandardFont) Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r <= 0xFF {
			out = append(out, byte(r))
		} else {
			out = append(out, '?')
		}
	}
	return out
}

func standard(name string) (*StandardFont, bool) {
	meta, ok := standardFonts[name]
	if !ok {
		return nil, false
	}
	return &StandardFont{
		name:         name,
		widths:       meta.widths,
		defaultWidth: meta.defaultWidth,
		ascender:     meta.ascender,
		descender:    meta.descender,
		lineGap:      meta.lineGap,
	}, true
}

type standardMetrics struct {
	widths       map[rune]int
	defaultWidth int
	ascender     float64
	descender    float64
	lineGap      float64
}

// The oblique variants share their upright widths, which is true of the real
// Adobe core metrics for Helvetica and Courier and a close approximation for
// the Times italics.
var standardFonts = map[string]standardMetrics{
	"Helvetica":             {helveticaWidths, 556, 718, -207, 231},
	"Helvetica-Bold":        {helveticaBoldWidths, 556, 718, -207, 265},
	"Helvetica-Oblique":     {helveticaWidths, 556, 718, -207, 231},
	"Helvetica-BoldOblique": {helveticaBoldWidths, 556, 718, -207, 265},
	"Times-Roman":           {timesRomanWidths, 500, 683, -217, 216},
	"Times-Bold":            {timesBoldWidths, 500, 683, -217, 253},
	"Times-Italic":          {timesItalicWidths, 500, 683, -217, 200},
	"Times-BoldItalic":      {timesBoldWidths, 500, 683, -217, 253},
	"Courier":               {courierWidths, 600, 629, -157, 269},
	"Courier-Bold":          {courierWidths, 600, 629, -157, 269},
	"Courier-Oblique":       {courierWidths, 600, 629, -157, 269},
	"Courier-BoldOblique":   {courierWidths, 600, 629, -157, 269},
}

// StandardNames lists the supported built-in font names.
func StandardNames() []string {
	names := make([]string, 0, len(standardFonts))
	for n := range standardFonts {
		names = append(names, n)
	}
	return names
}
