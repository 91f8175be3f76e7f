package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/wudi/pdfstream/objects"
)

// endMetadata writes an XMP metadata stream mirroring the information
// dictionary. Metadata streams exist from PDF 1.4 on and stay uncompressed
// so tools can read them without parsing the file.
func (d *Document) endMetadata() {
	if !d.versionAtLeast(4) {
		return
	}
	ref := d.Ref()
	ref.SetCompress(false)
	ref.Data = objects.Dict{
		"Type":    objects.Name("Metadata"),
		"Subtype": objects.Name("XML"),
	}
	ref.Write(xmpPacket(d.opts.Info))
	ref.End()
	d.root.Data["Metadata"] = ref
}

func xmpPacket(info Info) []byte {
	var buf bytes.Buffer
	buf.WriteString("<?xpacket begin=\"\xEF\xBB\xBF\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	buf.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about=""
        xmlns:dc="http://purl.org/dc/elements/1.1/"
        xmlns:pdf="http://ns.adobe.com/pdf/1.3/"
        xmlns:xmp="http://ns.adobe.com/xap/1.0/">
`)
	if info.Title != "" {
		fmt.Fprintf(&buf, "      <dc:title><rdf:Alt><rdf:li xml:lang=\"x-default\">%s</rdf:li></rdf:Alt></dc:title>\n", xmlEscape(info.Title))
	}
	if info.Author != "" {
		fmt.Fprintf(&buf, "      <dc:creator><rdf:Seq><rdf:li>%s</rdf:li></rdf:Seq></dc:creator>\n", xmlEscape(info.Author))
	}
	if info.Subject != "" {
		fmt.Fprintf(&buf, "      <dc:description><rdf:Alt><rdf:li xml:lang=\"x-default\">%s</rdf:li></rdf:Alt></dc:description>\n", xmlEscape(info.Subject))
	}
	if info.Keywords != "" {
		fmt.Fprintf(&buf, "      <pdf:Keywords>%s</pdf:Keywords>\n", xmlEscape(info.Keywords))
	}
	producer := info.Producer
	if producer == "" {
		producer = "pdfstream"
	}
	fmt.Fprintf(&buf, "      <pdf:Producer>%s</pdf:Producer>\n", xmlEscape(producer))
	created := info.CreationDate
	if created.IsZero() {
		created = time.Now()
	}
	fmt.Fprintf(&buf, "      <xmp:CreateDate>%s</xmp:CreateDate>\n", created.UTC().Format(time.RFC3339))
	buf.WriteString(`    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`)
	return buf.Bytes()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
