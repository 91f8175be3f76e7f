package document

import (
	"fmt"

	"github.com/wudi/pdfstream/objects"
)

// initForm creates the interactive form dictionary on first use, with
// Helvetica as the default appearance font.
func (d *Document) initForm() {
	if d.acroFormRef != nil {
		return
	}
	d.Font("Helvetica")
	df := d.fontCache["Helvetica"]
	d.acroFormRef = d.Ref()
	d.acroFormRef.Data = objects.Dict{
		"NeedAppearances": true,
		"DA":              objects.Text(fmt.Sprintf("/%s 0 Tf 0 g", df.id)),
		"DR": objects.Dict{
			"Font": objects.Dict{objects.Name(df.id): df.refFor(d)},
		},
	}
	d.root.Data["AcroForm"] = d.acroFormRef
}

// TextField adds an editable text field named name over the rectangle, in
// top-left coordinates. value is the initial content.
func (d *Document) TextField(name string, x, y, w, h float64, value string) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	d.initForm()
	ref := d.Ref()
	ref.Data = objects.Dict{
		"Type":    objects.Name("Annot"),
		"Subtype": objects.Name("Widget"),
		"FT":      objects.Name("Tx"),
		"T":       objects.Text(name),
		"Rect":    d.convertRect(x, y, w, h),
		"F":       4,
		"Border":  objects.Array{0, 0, 0},
		"P":       d.page.dictionary,
	}
	if value != "" {
		ref.Data["V"] = objects.Text(value)
	}
	ref.End()
	d.acroFormFields = append(d.acroFormFields, ref)
	d.page.addAnnotation(ref)
	return d
}

// Checkbox adds a checkbox field named name at (x, y), in top-left
// coordinates.
func (d *Document) Checkbox(name string, x, y, size float64, checked bool) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	d.initForm()
	state := objects.Name("Off")
	if checked {
		state = "Yes"
	}
	ref := d.Ref()
	ref.Data = objects.Dict{
		"Type":    objects.Name("Annot"),
		"Subtype": objects.Name("Widget"),
		"FT":      objects.Name("Btn"),
		"T":       objects.Text(name),
		"Rect":    d.convertRect(x, y, size, size),
		"F":       4,
		"Border":  objects.Array{0, 0, 0},
		"V":       state,
		"AS":      state,
		"P":       d.page.dictionary,
	}
	ref.End()
	d.acroFormFields = append(d.acroFormFields, ref)
	d.page.addAnnotation(ref)
	return d
}

func (d *Document) endAcroForm() {
	if d.acroFormRef == nil {
		return
	}
	d.acroFormRef.Data["Fields"] = d.acroFormFields
	d.acroFormRef.End()
}
