package layout

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderHTML parses r as HTML and draws its body into the document. The
// subset understood covers text structure: headings, paragraphs, emphasis,
// code, lists, line and thematic breaks. Unknown elements render as their
// children.
func (e *Engine) RenderHTML(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("layout: parse html: %w", err)
	}
	hr := &htmlRenderer{
		engine: e,
		flow:   newFlow(e.doc),
		styles: []style{{font: e.opts.BodyFont, size: e.opts.BodySize}},
	}
	hr.walk(root)
	return e.doc.Err()
}

type htmlRenderer struct {
	engine *Engine
	flow   *flow
	styles []style
	inPre  bool
}

func (r *htmlRenderer) style() style { return r.styles[len(r.styles)-1] }

func (r *htmlRenderer) walk(n *html.Node) {
	o := r.engine.opts
	switch n.Type {
	case html.TextNode:
		if r.inPre {
			for _, line := range strings.Split(strings.Trim(n.Data, "\n"), "\n") {
				r.flow.line(line, r.style())
			}
			return
		}
		for _, word := range strings.Fields(n.Data) {
			r.flow.word(word, r.style())
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head, atom.Script, atom.Style, atom.Title:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			size := r.engine.headingSize(level)
			r.block(n, style{font: o.BoldFont, size: size}, size/2)
			return
		case atom.P, atom.Div, atom.Blockquote:
			r.block(n, r.style(), o.BodySize/2)
			return
		case atom.B, atom.Strong:
			r.styled(n, style{font: o.BoldFont, size: r.style().size})
			return
		case atom.I, atom.Em, atom.A:
			r.styled(n, style{font: o.ItalicFont, size: r.style().size})
			return
		case atom.Code:
			r.styled(n, style{font: o.CodeFont, size: r.style().size})
			return
		case atom.Pre:
			r.inPre = true
			r.styled(n, style{font: o.CodeFont, size: o.BodySize})
			r.inPre = false
			r.flow.endBlock(o.BodySize / 2)
			return
		case atom.Br:
			r.flow.breakLine()
			return
		case atom.Hr:
			r.flow.rule()
			return
		case atom.Li:
			r.flow.word("-", r.style())
			r.children(n)
			if r.flow.started {
				r.flow.breakLine()
			}
			return
		case atom.Ul, atom.Ol:
			r.children(n)
			r.flow.endBlock(o.BodySize / 2)
			return
		}
	}
	r.children(n)
}

func (r *htmlRenderer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

// styled renders n's children under st.
func (r *htmlRenderer) styled(n *html.Node, st style) {
	r.styles = append(r.styles, st)
	r.children(n)
	r.styles = r.styles[:len(r.styles)-1]
}

// block renders n's children under st and closes the block with gap.
func (r *htmlRenderer) block(n *html.Node, st style, gap float64) {
	r.styled(n, st)
	r.flow.endBlock(gap)
}
