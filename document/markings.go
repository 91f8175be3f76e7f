package document

import (
	"bytes"
	"fmt"

	"github.com/wudi/pdfstream/objects"
)

// MarkContent begins a marked-content sequence tagged tag. A nil props maps
// to the BMC operator, otherwise the properties serialize inline with BDC.
// Sequences nest; any still open when the page or document ends are closed
// automatically.
func (d *Document) MarkContent(tag string, props objects.Dict) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	d.markedUsed = true
	d.markDepth++
	if props == nil {
		d.addContent(fmt.Sprintf("/%s BMC", tag))
		return d
	}
	var buf bytes.Buffer
	objects.Write(&buf, props, nil)
	d.addContent(fmt.Sprintf("/%s %s BDC", tag, buf.String()))
	return d
}

// MarkArtifact tags a sequence as an artifact of the given type, such as
// "Pagination" or "Layout", so extraction tools skip it.
func (d *Document) MarkArtifact(artifactType string) *Document {
	return d.MarkContent("Artifact", objects.Dict{"Type": objects.Name(artifactType)})
}

// EndMarkedContent closes the innermost open marked-content sequence.
func (d *Document) EndMarkedContent() *Document {
	if d.markDepth == 0 {
		return d
	}
	d.markDepth--
	d.addContent("EMC")
	return d
}

// endPageMarkings closes sequences left open on the current page before a
// page switch, since marked content may not span content streams.
func (d *Document) endPageMarkings() {
	for d.markDepth > 0 {
		d.EndMarkedContent()
	}
}

// endMarkings records in the catalog that the document uses marked content.
func (d *Document) endMarkings() {
	if d.markedUsed {
		d.root.Data["MarkInfo"] = objects.Dict{"Marked": true}
	}
}
