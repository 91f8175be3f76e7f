package document

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/wudi/pdfstream/objects"
	"github.com/wudi/pdfstream/observability"
	"github.com/wudi/pdfstream/security"
)

func newTestDoc(t *testing.T, opts *Options) (*Document, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	d, err := New(&buf, opts)
	if err != nil {
		t.Fatal(err)
	}
	return d, &buf
}

// plainOptions keeps streams readable for byte-level assertions.
func plainOptions() *Options {
	o := DefaultOptions()
	o.Compress = false
	return &o
}

func TestHeader(t *testing.T) {
	_, buf := newTestDoc(t, nil)
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-1.3\n")) {
		t.Fatalf("header = %q", out[:9])
	}
	// The binary marker comment follows the version line.
	if !bytes.Equal(out[9:15], []byte{'%', 0xFF, 0xFF, 0xFF, 0xFF, '\n'}) {
		t.Errorf("binary marker = %q", out[9:15])
	}
}

func TestVersionFallback(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.5", "%PDF-1.5"},
		{"1.7", "%PDF-1.7"},
		{"2.5", "%PDF-1.3"},
		{"junk", "%PDF-1.3"},
		{"", "%PDF-1.3"},
	}
	for _, tt := range tests {
		opts := DefaultOptions()
		opts.Version = tt.version
		_, buf := newTestDoc(t, &opts)
		if !strings.HasPrefix(buf.String(), tt.want) {
			t.Errorf("version %q: header %q, want prefix %q", tt.version, buf.String()[:8], tt.want)
		}
	}
}

func TestSequentialObjectIDs(t *testing.T) {
	opts := plainOptions()
	opts.AutoFirstPage = false
	d, _ := newTestDoc(t, opts)
	// New allocates the info, catalog, page tree, and names objects.
	first := d.Ref()
	second := d.Ref()
	if first.ObjectID() != 5 || second.ObjectID() != 6 {
		t.Errorf("ids = %d, %d, want 5, 6", first.ObjectID(), second.ObjectID())
	}
	if first.Generation() != 0 {
		t.Errorf("generation = %d", first.Generation())
	}
}

// parseStartxref returns the offset recorded in the startxref line.
func parseStartxref(t *testing.T, out []byte) int {
	t.Helper()
	i := bytes.LastIndex(out, []byte("startxref\n"))
	if i < 0 {
		t.Fatal("no startxref")
	}
	rest := out[i+len("startxref\n"):]
	end := bytes.IndexByte(rest, '\n')
	off, err := strconv.Atoi(string(rest[:end]))
	if err != nil {
		t.Fatalf("bad startxref: %v", err)
	}
	return off
}

// parseXref reads the cross-reference table and returns the in-use offsets
// in object number order.
func parseXref(t *testing.T, out []byte) []int {
	t.Helper()
	start := parseStartxref(t, out)
	sect := out[start:]
	if !bytes.HasPrefix(sect, []byte("xref\n")) {
		t.Fatalf("startxref points at %q", sect[:4])
	}
	lines := strings.Split(string(sect), "\n")
	header := strings.Fields(lines[1])
	n, _ := strconv.Atoi(header[1])
	free := lines[2]
	if free != "0000000000 65535 f " {
		t.Fatalf("free entry = %q", free)
	}
	offsets := make([]int, 0, n-1)
	for i := 0; i < n-1; i++ {
		entry := lines[3+i]
		if len(entry) != 19 {
			t.Fatalf("entry %d = %q, want 19 chars before newline", i, entry)
		}
		if !strings.HasSuffix(entry, " 00000 n ") {
			t.Fatalf("entry %d = %q", i, entry)
		}
		off, err := strconv.Atoi(entry[:10])
		if err != nil {
			t.Fatal(err)
		}
		offsets = append(offsets, off)
	}
	return offsets
}

func TestXrefOffsetsMatchObjectPositions(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.Text("Hello")
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.Bytes()
	offsets := parseXref(t, out)
	for i, off := range offsets {
		marker := []byte(fmt.Sprintf("%d 0 obj\n", i+1))
		if !bytes.HasPrefix(out[off:], marker) {
			t.Errorf("object %d: offset %d points at %q", i+1, off, out[off:off+len(marker)])
		}
	}
}

func TestTrailer(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	offsets := parseXref(t, buf.Bytes())
	if want := fmt.Sprintf("/Size %d", len(offsets)+1); !strings.Contains(out, want) {
		t.Errorf("trailer missing %q", want)
	}
	if !strings.Contains(out, "/Root 2 0 R") {
		t.Error("trailer missing /Root")
	}
	if !strings.Contains(out, "/Info 1 0 R") {
		t.Error("trailer missing /Info")
	}
	if !strings.Contains(out, "/ID [<") {
		t.Error("trailer missing /ID")
	}
	if !strings.HasSuffix(out, "%%EOF\n") {
		t.Errorf("file ends with %q", out[len(out)-8:])
	}
	if n := strings.Count(out, "%%EOF"); n != 1 {
		t.Errorf("%%%%EOF count = %d", n)
	}
}

func TestDeterministicFileID(t *testing.T) {
	build := func() []byte {
		opts := plainOptions()
		opts.Info.Title = "same"
		opts.Info.CreationDate = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		d, buf := newTestDoc(t, opts)
		if err := d.End(); err != nil {
			panic(err)
		}
		return buf.Bytes()
	}
	a, b := build(), build()
	idOf := func(out []byte) string {
		i := bytes.Index(out, []byte("/ID [<"))
		return string(out[i : i+40])
	}
	if idOf(a) != idOf(b) {
		t.Errorf("file IDs differ: %q vs %q", idOf(a), idOf(b))
	}
}

func TestDeferredEnd(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	pending := d.Ref()
	pending.Data["Type"] = objects.Name("Test")

	var completed bool
	var completeErr error
	d.OnComplete(func(err error) {
		completed = true
		completeErr = err
	})

	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	if completed {
		t.Fatal("completed while an object was still open")
	}
	if bytes.Contains(buf.Bytes(), []byte("%%EOF")) {
		t.Fatal("trailer written while an object was still open")
	}

	if err := pending.End(); err != nil {
		t.Fatal(err)
	}
	if !completed {
		t.Fatal("not completed after last object ended")
	}
	if completeErr != nil {
		t.Fatalf("complete error: %v", completeErr)
	}
	if n := bytes.Count(buf.Bytes(), []byte("%%EOF")); n != 1 {
		t.Fatalf("%%%%EOF count = %d", n)
	}
}

func TestOnCompleteAfterFinalize(t *testing.T) {
	d, _ := newTestDoc(t, plainOptions())
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	called := false
	d.OnComplete(func(err error) { called = true })
	if !called {
		t.Fatal("callback on a finished document did not run immediately")
	}
}

func TestEndTwicePanics(t *testing.T) {
	d, _ := newTestDoc(t, plainOptions())
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("second End did not panic")
		}
	}()
	d.End()
}

func TestReferenceEndTwicePanics(t *testing.T) {
	d, _ := newTestDoc(t, plainOptions())
	ref := d.Ref()
	ref.End()
	defer func() {
		if recover() == nil {
			t.Fatal("second Reference.End did not panic")
		}
	}()
	ref.End()
}

func TestBufferedPages(t *testing.T) {
	opts := plainOptions()
	opts.BufferPages = true
	d, buf := newTestDoc(t, opts)
	d.AddContent("% stamp-one")
	d.AddPage(nil).AddContent("% stamp-two")
	d.AddPage(nil).AddContent("% stamp-three")

	if start, count := d.BufferedPageRange(); start != 1 || count != 3 {
		t.Fatalf("BufferedPageRange = %d, %d, want 1, 3", start, count)
	}

	if err := d.SwitchToPage(2); err != nil {
		t.Fatal(err)
	}
	d.AddContent("% stamp-extra")

	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	one := strings.Index(out, "% stamp-one")
	two := strings.Index(out, "% stamp-two")
	extra := strings.Index(out, "% stamp-extra")
	three := strings.Index(out, "% stamp-three")
	if one < 0 || two < 0 || extra < 0 || three < 0 {
		t.Fatal("missing page stamps")
	}
	if !(one < two && two < extra && extra < three) {
		t.Errorf("stamp order = %d %d %d %d", one, two, extra, three)
	}
}

func TestSwitchToPageOutOfRange(t *testing.T) {
	opts := plainOptions()
	opts.BufferPages = true
	d, _ := newTestDoc(t, opts)
	d.AddPage(nil)
	d.FlushPages()
	d.AddPage(nil)

	err := d.SwitchToPage(1)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "switchToPage(1) out of bounds, current buffer covers pages 3 to 3"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestSwitchToPageWithoutBuffering(t *testing.T) {
	d, _ := newTestDoc(t, plainOptions())
	d.AddPage(nil)
	// The first page flushed when the second was added, leaving only page 2.
	if err := d.SwitchToPage(1); err == nil {
		t.Fatal("expected error for a flushed page")
	}
	if err := d.SwitchToPage(2); err != nil {
		t.Fatal(err)
	}
}

func TestContentAfterFlushSurfacesError(t *testing.T) {
	opts := plainOptions()
	opts.BufferPages = true
	d, buf := newTestDoc(t, opts)
	d.FlushPages()
	d.AddContent("% late")
	if err := d.End(); err == nil {
		t.Fatal("expected error for content written after the page flushed")
	}
	if strings.Contains(buf.String(), "% late") {
		t.Error("content written after flush appeared in output")
	}
}

func TestNamedDestinationFlipsY(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.AddNamedDestination("intro", 72, 100)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "/XYZ 72 692 null") {
		t.Error("destination Y not flipped to bottom-up coordinates")
	}
	if !strings.Contains(buf.String(), "(intro)") {
		t.Error("destination name missing")
	}
}

func TestPageContentFlipsOrigin(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "1 0 0 -1 0 792 cm") {
		t.Error("page content does not start with the top-left flip")
	}
}

func TestCompression(t *testing.T) {
	d, buf := newTestDoc(t, nil)
	d.AddContent("% compressed-marker")
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.Bytes()
	if bytes.Contains(out, []byte("% compressed-marker")) {
		t.Fatal("content stream not compressed")
	}
	if !bytes.Contains(out, []byte("/Filter /FlateDecode")) {
		t.Fatal("no FlateDecode filter")
	}
	// Inflate the first stream and look for the marker.
	i := bytes.Index(out, []byte("stream\n"))
	j := bytes.Index(out[i:], []byte("\nendstream"))
	zr, err := zlib.NewReader(bytes.NewReader(out[i+7 : i+j]))
	if err != nil {
		t.Fatal(err)
	}
	inflated, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(inflated, []byte("% compressed-marker")) {
		t.Error("marker not found after inflation")
	}
}

func TestTextShowsEncodedString(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.TextAt("Hi", 72, 72)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "<4869> Tj") {
		t.Error("text bytes not shown as a hex string")
	}
	if !strings.Contains(out, "/F1 12 Tf") {
		t.Error("font not selected at the default size")
	}
	if !strings.Contains(out, "/BaseFont /Helvetica") {
		t.Error("Helvetica font dictionary missing")
	}
	if !strings.Contains(out, "/Encoding /WinAnsiEncoding") {
		t.Error("WinAnsi encoding missing")
	}
}

func TestAnnotationRectFlips(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.Link(72, 100, 100, 20, "https://example.com")
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Rect [72 672 172 692]") {
		t.Error("annotation rect not converted to bottom-up coordinates")
	}
	if !strings.Contains(out, "/URI (https://example.com)") {
		t.Error("link action missing")
	}
}

func TestOutline(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	root := d.Outline()
	ch := root.Add("Chapter 1", true)
	ch.Add("Section 1.1", false)
	d.AddPage(nil)
	root.Add("Chapter 2", false)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Type /Outlines") {
		t.Fatal("outline root missing")
	}
	if !strings.Contains(out, "(Chapter 1)") || !strings.Contains(out, "(Section 1.1)") {
		t.Error("outline titles missing")
	}
	if !strings.Contains(out, "/Count 3") {
		t.Error("root count should include the expanded subtree")
	}
}

func TestEncryptedDocument(t *testing.T) {
	opts := plainOptions()
	opts.Version = "1.4"
	opts.Info.Title = "secret title"
	opts.Security = &security.Options{
		UserPassword: "user",
		Permissions:  security.Permissions{Print: true},
	}
	d, buf := newTestDoc(t, opts)
	d.TextAt("hidden", 72, 72)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.Bytes()
	if !bytes.Contains(out, []byte("/Encrypt")) {
		t.Fatal("no Encrypt entry in trailer")
	}
	if bytes.Contains(out, []byte("secret title")) {
		t.Error("info strings written in the clear")
	}
	if bytes.Contains(out, []byte("(user)")) {
		t.Error("password leaked into output")
	}
}

func TestNameTreeSplitsIntoKids(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	for i := 0; i < 40; i++ {
		d.AddNamedDestination(fmt.Sprintf("dest-%02d", i), 0, 0)
	}
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Kids [") {
		t.Fatal("large name tree did not split into kids")
	}
	if !strings.Contains(out, "/Limits [(dest-00) (dest-31)]") {
		t.Error("first kid limits wrong")
	}
	if !strings.Contains(out, "/Limits [(dest-32) (dest-39)]") {
		t.Error("second kid limits wrong")
	}
}

func TestFlatNameTree(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.AddNamedDestination("zeta", 0, 0)
	d.AddNamedDestination("alpha", 0, 0)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	az := strings.Index(out, "(alpha)")
	ze := strings.Index(out, "(zeta)")
	if az < 0 || ze < 0 || az > ze {
		t.Error("name tree keys not sorted")
	}
	if strings.Contains(out, "/Limits") {
		t.Error("small tree should be a single flat node")
	}
}

func TestAttachFile(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.AttachFile("notes.txt", []byte("attached payload"), &FileOptions{Description: "session notes"})
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Type /EmbeddedFile") {
		t.Fatal("embedded file stream missing")
	}
	if !strings.Contains(out, "/Type /Filespec") {
		t.Fatal("filespec missing")
	}
	if !strings.Contains(out, "attached payload") {
		t.Error("payload missing")
	}
	if !strings.Contains(out, "/EmbeddedFiles") {
		t.Error("name dictionary entry missing")
	}
	if !strings.Contains(out, "/CheckSum <") {
		t.Error("checksum missing")
	}
}

func TestFormFields(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.TextField("name", 72, 100, 200, 20, "prefill")
	d.Checkbox("agree", 72, 140, 12, true)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/AcroForm") {
		t.Fatal("catalog missing AcroForm")
	}
	if !strings.Contains(out, "/FT /Tx") || !strings.Contains(out, "/FT /Btn") {
		t.Error("field types missing")
	}
	if !strings.Contains(out, "(prefill)") {
		t.Error("text field value missing")
	}
	if !strings.Contains(out, "/AS /Yes") {
		t.Error("checkbox state missing")
	}
}

func TestMetadataWrittenFrom14(t *testing.T) {
	opts := plainOptions()
	opts.Version = "1.4"
	opts.Info.Title = "With Metadata"
	d, buf := newTestDoc(t, opts)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Type /Metadata") {
		t.Fatal("metadata stream missing")
	}
	if !strings.Contains(out, "<dc:title>") {
		t.Error("XMP title missing")
	}

	d13, buf13 := newTestDoc(t, plainOptions())
	if err := d13.End(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf13.String(), "/Type /Metadata") {
		t.Error("metadata stream written for PDF 1.3")
	}
}

func TestJPEGImage(t *testing.T) {
	// Minimal marker stream: SOI, SOF0 with an 8x4 RGB frame, EOI.
	jpeg := []byte{
		0xFF, 0xD8,
		0xFF, 0xC0, 0x00, 0x11, 0x08, 0x00, 0x04, 0x00, 0x08, 0x03,
		0x01, 0x11, 0x00, 0x02, 0x11, 0x01, 0x03, 0x11, 0x01,
		0xFF, 0xD9,
	}
	d, buf := newTestDoc(t, plainOptions())
	d.Image(jpeg, 72, 72, 0, 0)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Filter /DCTDecode") {
		t.Fatal("jpeg not embedded with DCTDecode")
	}
	if !strings.Contains(out, "/Width 8") || !strings.Contains(out, "/Height 4") {
		t.Error("jpeg dimensions wrong")
	}
	if !strings.Contains(out, "/ColorSpace /DeviceRGB") {
		t.Error("jpeg color space wrong")
	}
	// Natural size placement re-flips the image inside the page space.
	if !strings.Contains(out, "8 0 0 -4 72 76 cm") {
		t.Error("image transform wrong")
	}
	if !strings.Contains(out, "/Im1 Do") {
		t.Error("image not drawn")
	}
}

func TestMarkedContent(t *testing.T) {
	d, buf := newTestDoc(t, plainOptions())
	d.MarkContent("P", nil)
	d.TextAt("tagged", 72, 72)
	// Left open on purpose; End closes it and records MarkInfo.
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/P BMC") {
		t.Fatal("BMC missing")
	}
	if !strings.Contains(out, "EMC") {
		t.Fatal("open sequence not closed at end")
	}
	if !strings.Contains(out, "/MarkInfo") {
		t.Error("catalog missing MarkInfo")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	err := WriteFile(path, nil, func(d *Document) error {
		d.TextAt("file helper", 72, 72)
		return d.Err()
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.3\n")) {
		t.Error("missing header")
	}
	if !bytes.HasSuffix(out, []byte("%%EOF\n")) {
		t.Error("missing trailer")
	}
}

type recordedSpan struct {
	name     string
	tags     map[string]interface{}
	err      error
	finished bool
}

func (s *recordedSpan) SetTag(k string, v interface{}) { s.tags[k] = v }
func (s *recordedSpan) SetError(err error)             { s.err = err }
func (s *recordedSpan) Finish()                        { s.finished = true }

type recordingTracer struct{ spans []*recordedSpan }

func (tr *recordingTracer) StartSpan(ctx context.Context, name string) (context.Context, observability.Span) {
	s := &recordedSpan{name: name, tags: map[string]interface{}{}}
	tr.spans = append(tr.spans, s)
	return ctx, s
}

func TestTracerSpans(t *testing.T) {
	tr := &recordingTracer{}
	opts := plainOptions()
	opts.Tracer = tr
	d, _ := newTestDoc(t, opts)
	d.TextAt("traced", 72, 72)
	if err := d.End(); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range tr.spans {
		if !s.finished {
			t.Errorf("span %s never finished", s.name)
		}
		if s.err != nil {
			t.Errorf("span %s recorded error %v", s.name, s.err)
		}
		names = append(names, s.name)
	}
	want := []string{"pdf.flush", "pdf.finalize"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("spans %v, want %v", names, want)
	}
	last := tr.spans[len(tr.spans)-1]
	if _, ok := last.tags[observability.MetricObjectCount]; !ok {
		t.Error("finalize span missing object count tag")
	}
}

func TestJavaScriptValidation(t *testing.T) {
	opts := plainOptions()
	opts.ValidateScripts = true
	d, _ := newTestDoc(t, opts)
	d.AddJavaScript("bad", "var x = ;")
	if err := d.End(); err == nil {
		t.Fatal("invalid script accepted")
	}

	d2, buf := newTestDoc(t, opts)
	d2.AddJavaScript("hello", "app.alert('hi');")
	if err := d2.End(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "/S /JavaScript") {
		t.Error("script entry missing")
	}
}
