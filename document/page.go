package document

import (
	"fmt"
	"strings"

	"github.com/wudi/pdfstream/objects"
)

// PageOptions selects the size, orientation, and margins of a page.
type PageOptions struct {
	// Size names a paper size such as "letter" or "a4". Empty means
	// letter.
	Size string
	// Layout is "portrait" (default) or "landscape".
	Layout string
	// Width and Height, when both set, override Size. Units are points.
	Width  float64
	Height float64
	// Margin applies one value to all four margins. Margins wins when
	// non-nil. When neither is set margins default to 72 points.
	Margin  float64
	Margins *Margins
}

// Margins are the page margins in points, measured from each edge.
type Margins struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

const defaultMargin = 72.0

// Paper sizes in points, portrait orientation.
var pageSizes = map[string][2]float64{
	"a0":        {2383.94, 3370.39},
	"a1":        {1683.78, 2383.94},
	"a2":        {1190.55, 1683.78},
	"a3":        {841.89, 1190.55},
	"a4":        {595.28, 841.89},
	"a5":        {419.53, 595.28},
	"a6":        {297.64, 419.53},
	"a7":        {209.76, 297.64},
	"a8":        {147.40, 209.76},
	"a9":        {104.88, 147.40},
	"a10":       {73.70, 104.88},
	"b0":        {2834.65, 4008.19},
	"b1":        {2004.09, 2834.65},
	"b2":        {1417.32, 2004.09},
	"b3":        {1000.63, 1417.32},
	"b4":        {708.66, 1000.63},
	"b5":        {498.90, 708.66},
	"c0":        {2599.37, 3676.54},
	"c1":        {1836.85, 2599.37},
	"c2":        {1298.27, 1836.85},
	"c3":        {918.43, 1298.27},
	"c4":        {649.13, 918.43},
	"c5":        {459.21, 649.13},
	"letter":    {612, 792},
	"legal":     {612, 1008},
	"tabloid":   {792, 1224},
	"executive": {521.86, 756},
	"folio":     {612, 936},
}

// Page is a single page of a document. Content accumulates in its stream
// until the page is flushed; the dictionary, content, and resource objects
// are allocated immediately so other objects can refer to the page before
// it is written.
type Page struct {
	doc     *Document
	opts    PageOptions
	width   float64
	height  float64
	margins Margins

	dictionary *Reference
	content    *Reference
	resources  *Reference
}

func newPage(d *Document, opts PageOptions) *Page {
	p := &Page{doc: d, opts: opts}

	size := strings.ToLower(opts.Size)
	if size == "" {
		size = "letter"
	}
	dims, ok := pageSizes[size]
	if !ok {
		d.fail(fmt.Errorf("document: unknown page size %q", opts.Size))
		dims = pageSizes["letter"]
	}
	p.width, p.height = dims[0], dims[1]
	if opts.Width > 0 && opts.Height > 0 {
		p.width, p.height = opts.Width, opts.Height
	}
	if opts.Layout == "landscape" && p.width < p.height {
		p.width, p.height = p.height, p.width
	}

	switch {
	case opts.Margins != nil:
		p.margins = *opts.Margins
	case opts.Margin > 0:
		p.margins = Margins{opts.Margin, opts.Margin, opts.Margin, opts.Margin}
	default:
		p.margins = Margins{defaultMargin, defaultMargin, defaultMargin, defaultMargin}
	}

	p.content = d.Ref()
	p.resources = d.Ref()
	p.resources.Data = objects.Dict{
		"ProcSet": objects.Array{
			objects.Name("PDF"), objects.Name("Text"),
			objects.Name("ImageB"), objects.Name("ImageC"), objects.Name("ImageI"),
		},
	}
	p.dictionary = d.Ref()
	p.dictionary.Data = objects.Dict{
		"Type":      objects.Name("Page"),
		"Parent":    d.pagesRef,
		"MediaBox":  objects.Array{0, 0, p.width, p.height},
		"Contents":  p.content,
		"Resources": p.resources,
	}

	// Register with the page tree right away so the count and order stay
	// correct while pages sit in the buffer.
	kids := d.pagesRef.Data["Kids"].(objects.Array)
	d.pagesRef.Data["Kids"] = append(kids, p.dictionary)
	d.pagesRef.Data["Count"] = d.pagesRef.Data["Count"].(int) + 1
	return p
}

// Width returns the page width in points.
func (p *Page) Width() float64 { return p.width }

// Height returns the page height in points.
func (p *Page) Height() float64 { return p.height }

// Margins returns the page margins.
func (p *Page) Margins() Margins { return p.margins }

// MaxY returns the lowest y position inside the bottom margin, in top-left
// coordinates.
func (p *Page) MaxY() float64 { return p.height - p.margins.Bottom }

func (p *Page) write(data string) {
	if _, err := p.content.Write([]byte(data)); err != nil {
		p.doc.fail(err)
		return
	}
	p.content.Write([]byte{'\n'})
}

// fonts returns the page's font resource dictionary, creating it on first
// use.
func (p *Page) fonts() objects.Dict {
	return p.resourceDict("Font")
}

func (p *Page) xobjects() objects.Dict {
	return p.resourceDict("XObject")
}

func (p *Page) extGStates() objects.Dict {
	return p.resourceDict("ExtGState")
}

func (p *Page) resourceDict(kind objects.Name) objects.Dict {
	if sub, ok := p.resources.Data[kind].(objects.Dict); ok {
		return sub
	}
	sub := objects.Dict{}
	p.resources.Data[kind] = sub
	return sub
}

func (p *Page) addAnnotation(ref *Reference) {
	annots, _ := p.dictionary.Data["Annots"].(objects.Array)
	p.dictionary.Data["Annots"] = append(annots, ref)
}

func (p *Page) end() {
	p.content.End()
	p.resources.End()
	p.dictionary.End()
}
