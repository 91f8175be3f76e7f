package layout

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// RenderMarkdown parses src as CommonMark and draws it into the document,
// continuing onto new pages as needed.
func (e *Engine) RenderMarkdown(src []byte) error {
	root := goldmark.New().Parser().Parse(gtext.NewReader(src))
	r := &markdownRenderer{
		engine: e,
		flow:   newFlow(e.doc),
		src:    src,
		styles: []style{{font: e.opts.BodyFont, size: e.opts.BodySize}},
	}
	if err := ast.Walk(root, r.walk); err != nil {
		return fmt.Errorf("layout: render markdown: %w", err)
	}
	return e.doc.Err()
}

type markdownRenderer struct {
	engine *Engine
	flow   *flow
	src    []byte
	styles []style
}

func (r *markdownRenderer) style() style { return r.styles[len(r.styles)-1] }

func (r *markdownRenderer) push(st style) { r.styles = append(r.styles, st) }

func (r *markdownRenderer) pop() { r.styles = r.styles[:len(r.styles)-1] }

func (r *markdownRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	o := r.engine.opts
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.push(style{font: o.BoldFont, size: r.engine.headingSize(node.Level)})
		} else {
			gap := r.style().size / 2
			r.pop()
			r.flow.endBlock(gap)
		}
	case *ast.Paragraph:
		if !entering {
			r.flow.endBlock(o.BodySize / 2)
		}
	case *ast.Emphasis:
		if entering {
			font := o.ItalicFont
			if node.Level >= 2 {
				font = o.BoldFont
			}
			r.push(style{font: font, size: r.style().size})
		} else {
			r.pop()
		}
	case *ast.CodeSpan:
		if entering {
			r.push(style{font: o.CodeFont, size: r.style().size})
		} else {
			r.pop()
		}
	case *ast.Link:
		if entering {
			r.push(style{font: o.ItalicFont, size: r.style().size})
		} else {
			r.pop()
		}
	case *ast.Text:
		if entering {
			for _, word := range strings.Fields(string(node.Segment.Value(r.src))) {
				r.flow.word(word, r.style())
			}
			if node.HardLineBreak() {
				r.flow.breakLine()
			}
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			st := style{font: o.CodeFont, size: o.BodySize}
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				r.flow.line(strings.TrimRight(string(seg.Value(r.src)), "\n"), st)
			}
			r.flow.endBlock(o.BodySize / 2)
			return ast.WalkSkipChildren, nil
		}
	case *ast.ListItem:
		if entering {
			r.flow.word("-", r.style())
		} else if r.flow.started {
			r.flow.breakLine()
		}
	case *ast.List:
		if !entering {
			r.flow.endBlock(o.BodySize / 2)
		}
	case *ast.Blockquote:
		if entering {
			r.push(style{font: o.ItalicFont, size: r.style().size})
		} else {
			r.pop()
			r.flow.endBlock(o.BodySize / 2)
		}
	case *ast.ThematicBreak:
		if entering {
			r.flow.rule()
		}
	}
	return ast.WalkContinue, nil
}
