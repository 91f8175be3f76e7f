package layout

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wudi/pdfstream/document"
)

func newTestEngine(t *testing.T) (*Engine, *document.Document, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts := document.DefaultOptions()
	opts.Compress = false
	doc, err := document.New(&buf, &opts)
	if err != nil {
		t.Fatal(err)
	}
	return New(doc, nil), doc, &buf
}

func TestRenderMarkdown(t *testing.T) {
	e, doc, buf := newTestEngine(t)
	src := []byte(`# Title

Plain text with *emphasis* and **strong** words.

- first item
- second item

` + "```\ncode line\n```\n")
	if err := e.RenderMarkdown(src); err != nil {
		t.Fatal(err)
	}
	if err := doc.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"/BaseFont /Helvetica-Bold",
		"/BaseFont /Helvetica",
		"/BaseFont /Helvetica-Oblique",
		"/BaseFont /Courier",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
	// The heading renders at twice the body size.
	if !strings.Contains(out, "24 Tf") {
		t.Error("heading size not applied")
	}
	if !strings.Contains(out, " Tj") {
		t.Error("no text drawn")
	}
}

func TestRenderMarkdownLongTextPaginates(t *testing.T) {
	e, doc, buf := newTestEngine(t)
	var src bytes.Buffer
	for i := 0; i < 200; i++ {
		src.WriteString("A reasonably long paragraph of filler prose that keeps flowing down the page.\n\n")
	}
	if err := e.RenderMarkdown(src.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := doc.End(); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "/Type /Page\n"); n < 2 {
		t.Errorf("page count = %d, want overflow onto more pages", n)
	}
}

func TestRenderHTML(t *testing.T) {
	e, doc, buf := newTestEngine(t)
	src := `<html><head><title>skip me</title></head><body>
<h2>Heading</h2>
<p>Some <b>bold</b> and <i>italic</i> text with <code>code()</code>.</p>
<ul><li>one</li><li>two</li></ul>
<hr>
</body></html>`
	if err := e.RenderHTML(strings.NewReader(src)); err != nil {
		t.Fatal(err)
	}
	if err := doc.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/BaseFont /Helvetica-Bold") {
		t.Error("bold font missing")
	}
	if !strings.Contains(out, "/BaseFont /Courier") {
		t.Error("code font missing")
	}
	// The head section must not render.
	hex := "<" + strings.ToLower("736b6970") // "skip" in hex
	if strings.Contains(out, hex) {
		t.Error("head content rendered")
	}
	// The <hr> draws a stroked rule.
	if !strings.Contains(out, "\nS\n") {
		t.Error("thematic break not stroked")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}
	o.applyDefaults()
	if o.BodyFont != "Helvetica" || o.CodeFont != "Courier" {
		t.Errorf("defaults = %+v", o)
	}
	if o.BodySize != 12 {
		t.Errorf("BodySize = %v", o.BodySize)
	}
	if len(o.HeadingScale) != 6 {
		t.Errorf("HeadingScale = %v", o.HeadingScale)
	}
}
