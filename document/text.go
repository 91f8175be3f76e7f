package document

import (
	"fmt"
	"strings"

	"github.com/wudi/pdfstream/objects"
)

// Text draws s at the text cursor in the current font, wrapping at the
// right margin and starting a new page when the bottom margin is reached.
// The cursor advances below the drawn text.
func (d *Document) Text(s string) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	f := d.currentFont()
	if f == nil {
		return d
	}
	width := d.page.width - d.page.margins.Right - d.x
	lineHeight := f.font.LineHeight(d.fontSize, true)
	for _, para := range strings.Split(s, "\n") {
		for _, line := range d.wrapLine(para, width) {
			if d.y+lineHeight > d.page.MaxY() {
				d.ContinueOnNewPage()
			}
			d.drawFragment(line, d.x, d.y)
			d.y += lineHeight
		}
	}
	return d
}

// TextAt moves the cursor to (x, y) in top-left coordinates, then draws s.
func (d *Document) TextAt(s string, x, y float64) *Document {
	d.x, d.y = x, y
	return d.Text(s)
}

// MoveDown advances the cursor by a number of line heights.
func (d *Document) MoveDown(lines float64) *Document {
	d.y += lines * d.CurrentLineHeight(true)
	return d
}

// MoveUp moves the cursor up by a number of line heights.
func (d *Document) MoveUp(lines float64) *Document {
	d.y -= lines * d.CurrentLineHeight(true)
	return d
}

// wrapLine splits a single paragraph into lines no wider than width,
// breaking at spaces. A word wider than the line stands alone.
func (d *Document) wrapLine(para string, width float64) []string {
	if para == "" {
		return []string{""}
	}
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	f := d.currentFont()
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if f.font.WidthOfString(candidate, d.fontSize) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	return append(lines, line)
}

// drawFragment emits the operators for one line of text with its top-left
// corner at (x, y). The page content stream runs in a flipped, top-left
// coordinate space, so the fragment re-flips around the page height to keep
// glyphs upright and places the baseline an ascender below y.
func (d *Document) drawFragment(s string, x, y float64) {
	if s == "" {
		return
	}
	f := d.currentFont()
	h := d.page.height
	baseline := h - y - f.font.Ascender()/1000*d.fontSize

	ref := f.refFor(d)
	d.page.fonts()[objects.Name(f.id)] = ref

	d.addContent("q")
	d.addContent(fmt.Sprintf("1 0 0 -1 0 %s cm", num(h)))
	d.addContent("BT")
	d.addContent(fmt.Sprintf("1 0 0 1 %s %s Tm", num(x), num(baseline)))
	d.addContent(fmt.Sprintf("/%s %s Tf", f.id, num(d.fontSize)))
	d.addContent(showText(f.font.Encode(s)))
	d.addContent("ET")
	d.addContent("Q")
}

// showText renders encoded text bytes as a hex string operand, which needs
// no escaping regardless of the encoding in use.
func showText(encoded []byte) string {
	var b strings.Builder
	b.Grow(len(encoded)*2 + 5)
	b.WriteByte('<')
	const digits = "0123456789abcdef"
	for _, c := range encoded {
		b.WriteByte(digits[c>>4])
		b.WriteByte(digits[c&0xF])
	}
	b.WriteString("> Tj")
	return b.String()
}
