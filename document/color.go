package document

import (
	"fmt"
	"strconv"

	"github.com/wudi/pdfstream/objects"
)

// num formats a coordinate or color component for a content stream.
func num(v float64) string { return objects.FormatNumber(v) }

// FillColor sets the nonstroking color from a hex string like "#ff8800" or
// "#f80".
func (d *Document) FillColor(hex string) *Document {
	r, g, b, err := parseHexColor(hex)
	if err != nil {
		d.fail(err)
		return d
	}
	return d.FillColorRGB(r, g, b)
}

// StrokeColor sets the stroking color from a hex string.
func (d *Document) StrokeColor(hex string) *Document {
	r, g, b, err := parseHexColor(hex)
	if err != nil {
		d.fail(err)
		return d
	}
	return d.StrokeColorRGB(r, g, b)
}

// FillColorRGB sets the nonstroking color. Components are in [0, 1].
func (d *Document) FillColorRGB(r, g, b float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s rg", num(r), num(g), num(b)))
	return d
}

// StrokeColorRGB sets the stroking color. Components are in [0, 1].
func (d *Document) StrokeColorRGB(r, g, b float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s RG", num(r), num(g), num(b)))
	return d
}

// FillColorCMYK sets the nonstroking color. Components are in [0, 1].
func (d *Document) FillColorCMYK(c, m, y, k float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s %s k", num(c), num(m), num(y), num(k)))
	return d
}

// StrokeColorCMYK sets the stroking color. Components are in [0, 1].
func (d *Document) StrokeColorCMYK(c, m, y, k float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s %s K", num(c), num(m), num(y), num(k)))
	return d
}

// FillColorGray sets the nonstroking gray level in [0, 1].
func (d *Document) FillColorGray(g float64) *Document {
	d.addContent(fmt.Sprintf("%s g", num(g)))
	return d
}

// StrokeColorGray sets the stroking gray level in [0, 1].
func (d *Document) StrokeColorGray(g float64) *Document {
	d.addContent(fmt.Sprintf("%s G", num(g)))
	return d
}

// FillOpacity sets the nonstroking alpha in [0, 1].
func (d *Document) FillOpacity(a float64) *Document { return d.setOpacity(a, -1) }

// StrokeOpacity sets the stroking alpha in [0, 1].
func (d *Document) StrokeOpacity(a float64) *Document { return d.setOpacity(-1, a) }

// Opacity sets both alphas at once.
func (d *Document) Opacity(a float64) *Document { return d.setOpacity(a, a) }

// setOpacity installs an ExtGState carrying the requested alphas. States
// are cached per document and written out immediately; a negative component
// leaves that alpha out of the state.
func (d *Document) setOpacity(fill, stroke float64) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	key := [2]float64{fill, stroke}
	ref, ok := d.opacityCache[key]
	if !ok {
		ref = d.Ref()
		ref.Data = objects.Dict{"Type": objects.Name("ExtGState")}
		if fill >= 0 {
			ref.Data["ca"] = clamp01(fill)
		}
		if stroke >= 0 {
			ref.Data["CA"] = clamp01(stroke)
		}
		ref.End()
		d.opacityCache[key] = ref
	}
	d.gstateCount++
	label := fmt.Sprintf("Gs%d", d.gstateCount)
	d.page.extGStates()[objects.Name(label)] = ref
	d.addContent(fmt.Sprintf("/%s gs", label))
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseHexColor(s string) (r, g, b float64, err error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("document: bad color %q", s)
	}
	v, perr := strconv.ParseUint(s, 16, 32)
	if perr != nil {
		return 0, 0, 0, fmt.Errorf("document: bad color %q", s)
	}
	r = float64(v>>16&0xFF) / 255
	g = float64(v>>8&0xFF) / 255
	b = float64(v&0xFF) / 255
	return r, g, b, nil
}
