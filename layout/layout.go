// Package layout renders structured text formats into a document. Markdown
// goes through goldmark, HTML through the net/html parser; both feed the
// same flow writer, which places styled words left to right and breaks
// lines and pages at the margins.
package layout

import (
	"github.com/wudi/pdfstream/document"
)

// Options selects the fonts and sizes the renderers use. Zero fields take
// the defaults listed on each field.
type Options struct {
	// BodyFont is the regular text font. Default Helvetica.
	BodyFont string
	// BoldFont renders strong emphasis. Default Helvetica-Bold.
	BoldFont string
	// ItalicFont renders emphasis. Default Helvetica-Oblique.
	ItalicFont string
	// CodeFont renders code spans and blocks. Default Courier.
	CodeFont string
	// BodySize is the regular text size in points. Default 12.
	BodySize float64
	// HeadingScale multiplies BodySize per heading level, index 0 being
	// level 1. Defaults to 2, 1.5, 1.25, 1.1, 1, 1.
	HeadingScale []float64
}

func (o *Options) applyDefaults() {
	if o.BodyFont == "" {
		o.BodyFont = "Helvetica"
	}
	if o.BoldFont == "" {
		o.BoldFont = "Helvetica-Bold"
	}
	if o.ItalicFont == "" {
		o.ItalicFont = "Helvetica-Oblique"
	}
	if o.CodeFont == "" {
		o.CodeFont = "Courier"
	}
	if o.BodySize == 0 {
		o.BodySize = 12
	}
	if len(o.HeadingScale) == 0 {
		o.HeadingScale = []float64{2, 1.5, 1.25, 1.1, 1, 1}
	}
}

// Engine renders into a single document. It is not safe for concurrent use.
type Engine struct {
	doc  *document.Document
	opts Options
}

// New creates an engine rendering into doc. A nil opts means defaults.
func New(doc *document.Document, opts *Options) *Engine {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	o.applyDefaults()
	return &Engine{doc: doc, opts: o}
}

func (e *Engine) headingSize(level int) float64 {
	scale := 1.0
	if level >= 1 && level <= len(e.opts.HeadingScale) {
		scale = e.opts.HeadingScale[level-1]
	}
	return e.opts.BodySize * scale
}

// style is the inline state a renderer carries while walking a tree.
type style struct {
	font string
	size float64
}

// flow places words one at a time, breaking lines at the right margin and
// pages at the bottom margin.
type flow struct {
	doc        *document.Document
	x, y       float64
	lineHeight float64
	started    bool
}

func newFlow(doc *document.Document) *flow {
	m := doc.Page().Margins()
	return &flow{doc: doc, x: m.Left, y: m.Top}
}

func (f *flow) leftMargin() float64 { return f.doc.Page().Margins().Left }
func (f *flow) rightEdge() float64  { return f.doc.Page().Width() - f.doc.Page().Margins().Right }

// word draws a single word in st, wrapping first when it does not fit.
func (f *flow) word(word string, st style) {
	f.doc.Font(st.font).FontSize(st.size)
	lh := f.doc.CurrentLineHeight(true)
	if lh > f.lineHeight {
		f.lineHeight = lh
	}
	w := f.doc.WidthOfString(word)
	space := f.doc.WidthOfString(" ")

	text := word
	x := f.x
	if f.started {
		text = " " + word
		w += space
	}
	if x+w > f.rightEdge() && f.started {
		f.breakLine()
		text = word
		w -= space
		x = f.x
	}
	if f.y+f.lineHeight > f.doc.Page().MaxY() {
		f.breakPage()
		x = f.x
	}
	f.doc.TextAt(text, x, f.y)
	f.x = x + w
	f.started = true
}

// breakLine moves to the start of the next line. The line height resets so
// a tall heading does not inflate the leading of the lines after it.
func (f *flow) breakLine() {
	f.x = f.leftMargin()
	f.y += f.lineHeight
	f.lineHeight = 0
	f.started = false
}

// endBlock finishes the current block and opens a gap before the next one.
func (f *flow) endBlock(gap float64) {
	if f.started {
		f.breakLine()
	}
	f.y += gap
}

// line draws s as one preformatted line, without word wrapping.
func (f *flow) line(s string, st style) {
	if f.started {
		f.breakLine()
	}
	f.doc.Font(st.font).FontSize(st.size)
	lh := f.doc.CurrentLineHeight(true)
	if f.y+lh > f.doc.Page().MaxY() {
		f.breakPage()
	}
	f.doc.TextAt(s, f.leftMargin(), f.y)
	f.y += lh
	f.x = f.leftMargin()
	f.started = false
}

// rule draws a horizontal separator across the text column.
func (f *flow) rule() {
	f.endBlock(0)
	mid := f.y + 4
	f.doc.Save().
		LineWidth(0.5).
		MoveTo(f.leftMargin(), mid).
		LineTo(f.rightEdge(), mid).
		Stroke().
		Restore()
	f.y += 8
}

func (f *flow) breakPage() {
	f.doc.AddPage(nil)
	m := f.doc.Page().Margins()
	f.x, f.y = m.Left, m.Top
	f.started = false
}
