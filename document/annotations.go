package document

import (
	"github.com/wudi/pdfstream/objects"
)

// Annotate adds an annotation covering the rectangle at (x, y) with the
// given width and height, in top-left coordinates. data supplies the
// subtype-specific entries; Type, Rect, and a default border are filled in.
func (d *Document) Annotate(x, y, w, h float64, data objects.Dict) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	ref := d.Ref()
	ref.Data = data
	ref.Data["Type"] = objects.Name("Annot")
	ref.Data["Rect"] = d.convertRect(x, y, w, h)
	if ref.Data["Border"] == nil {
		ref.Data["Border"] = objects.Array{0, 0, 0}
	}
	if ref.Data["Subtype"] != objects.Name("Link") && ref.Data["F"] == nil {
		// Print flag, so viewers include the annotation on paper.
		ref.Data["F"] = 4
	}
	ref.End()
	d.page.addAnnotation(ref)
	return d
}

// convertRect maps a top-left rectangle to the bottom-up [llx lly urx ury]
// form annotations use.
func (d *Document) convertRect(x, y, w, h float64) objects.Array {
	ph := d.page.height
	return objects.Array{x, ph - y - h, x + w, ph - y}
}

// Link adds a link annotation opening url.
func (d *Document) Link(x, y, w, h float64, url string) *Document {
	return d.Annotate(x, y, w, h, objects.Dict{
		"Subtype": objects.Name("Link"),
		"A": objects.Dict{
			"S":   objects.Name("URI"),
			"URI": objects.Text(url),
		},
	})
}

// GoTo adds a link annotation jumping to a named destination.
func (d *Document) GoTo(x, y, w, h float64, name string) *Document {
	return d.Annotate(x, y, w, h, objects.Dict{
		"Subtype": objects.Name("Link"),
		"Dest":    objects.Text(name),
	})
}

// Note adds a text annotation with a popup comment.
func (d *Document) Note(x, y, w, h float64, contents string) *Document {
	return d.Annotate(x, y, w, h, objects.Dict{
		"Subtype":  objects.Name("Text"),
		"Contents": objects.Text(contents),
	})
}

// Highlight adds a highlight markup annotation over the rectangle.
func (d *Document) Highlight(x, y, w, h float64) *Document {
	return d.markupAnnotation(x, y, w, h, "Highlight", objects.Array{1, 1, 0})
}

// Underline adds an underline markup annotation over the rectangle.
func (d *Document) Underline(x, y, w, h float64) *Document {
	return d.markupAnnotation(x, y, w, h, "Underline", objects.Array{0, 0, 0})
}

// StrikeOut adds a strikeout markup annotation over the rectangle.
func (d *Document) StrikeOut(x, y, w, h float64) *Document {
	return d.markupAnnotation(x, y, w, h, "StrikeOut", objects.Array{1, 0, 0})
}

func (d *Document) markupAnnotation(x, y, w, h float64, subtype string, color objects.Array) *Document {
	if d.page == nil {
		return d
	}
	rect := d.convertRect(x, y, w, h)
	llx, lly := rect[0].(float64), rect[1].(float64)
	urx, ury := rect[2].(float64), rect[3].(float64)
	return d.Annotate(x, y, w, h, objects.Dict{
		"Subtype":    objects.Name(subtype),
		"C":          color,
		"QuadPoints": objects.Array{llx, ury, urx, ury, llx, lly, urx, lly},
	})
}
