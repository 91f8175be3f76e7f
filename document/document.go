// Package document implements a streaming PDF writer. A Document serializes
// indirect objects to its destination as they finish, tracks their byte
// offsets, and emits the cross-reference table and trailer once the document
// is ended and every object has been written. Pages may be buffered and
// revisited before they are flushed, and producers that finish
// asynchronously (fonts, embedded files) keep the file open until their last
// object ends.
package document

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wudi/pdfstream/objects"
	"github.com/wudi/pdfstream/observability"
	"github.com/wudi/pdfstream/security"
)

// Options configures a Document. Use DefaultOptions as the starting point;
// a zero Options value disables compression and the automatic first page.
type Options struct {
	// Version is the PDF version written to the file header. Supported
	// values are "1.3" through "1.7"; anything else falls back to "1.3".
	Version string
	// Compress deflates object streams.
	Compress bool
	// AutoFirstPage adds the first page during New.
	AutoFirstPage bool
	// BufferPages keeps finished pages in memory so SwitchToPage can
	// revisit them until FlushPages or End.
	BufferPages bool
	// Page supplies the default options for AddPage.
	Page PageOptions
	// Info populates the document information dictionary.
	Info Info
	// Security, when non-nil, encrypts the document.
	Security *security.Options
	// Lang sets the catalog language identifier.
	Lang string
	// DisplayTitle asks viewers to show the Info title in the window bar.
	DisplayTitle bool
	// ValidateScripts parses JavaScript passed to AddJavaScript and
	// rejects it on syntax errors.
	ValidateScripts bool
	// Logger receives progress and metric events. Nil means no logging.
	Logger observability.Logger
	// Tracer opens spans around page flushes and finalization. Nil means
	// no tracing.
	Tracer observability.Tracer
}

// DefaultOptions returns the options New uses when none are supplied.
func DefaultOptions() Options {
	return Options{
		Version:       "1.3",
		Compress:      true,
		AutoFirstPage: true,
	}
}

// Info carries the document information dictionary entries. Zero fields are
// omitted; CreationDate defaults to the time the document is created.
type Info struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
	// Extra entries merge over the defaults and the fields above.
	Extra map[string]string
}

// Document is a PDF file being written. Methods that draw or add content
// are chainable; the first error sticks and later calls become no-ops, with
// the error surfacing from End.
type Document struct {
	opts  Options
	log   observability.Logger
	trace observability.Tracer
	sink  *sink
	store *referenceStore
	err   error

	version  string
	minor    int
	security *security.Handler
	fileID   []byte

	root       *Reference
	pagesRef   *Reference
	namesRef   *Reference
	infoRef    *Reference
	encryptRef *Reference

	pages           []*Page
	page            *Page
	pageBufferStart int
	pageCount       int

	x, y float64

	dests      *nameTree
	javascript *nameTree
	embedded   *nameTree

	fontCache  map[string]*docFont
	fontOrder  []*docFont
	localFonts map[string][]byte
	font       *docFont
	fontSize   float64

	imageCache   map[[md5.Size]byte]*docImage
	imageCount   int
	opacityCache map[[2]float64]*Reference
	gstateCount  int

	outlineRoot *Outline

	acroFormRef    *Reference
	acroFormFields objects.Array

	attachmentRefs map[attachmentKey]*Reference

	markDepth  int
	markedUsed bool

	onComplete []func(error)
	ended      bool
	finalized  bool
	finalErr   error
}

// New starts a PDF document writing to w. A nil opts means DefaultOptions.
// The file header is written immediately; everything else streams out as
// objects end.
func New(w io.Writer, opts *Options) (*Document, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	log := o.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	trace := o.Tracer
	if trace == nil {
		trace = observability.NopTracer()
	}
	d := &Document{
		opts:           o,
		log:            log,
		trace:          trace,
		sink:           newSink(w),
		store:          newReferenceStore(),
		fontSize:       12,
		fontCache:      map[string]*docFont{},
		localFonts:     map[string][]byte{},
		imageCache:     map[[md5.Size]byte]*docImage{},
		opacityCache:   map[[2]float64]*Reference{},
		attachmentRefs: map[attachmentKey]*Reference{},
		dests:          newNameTree(),
		javascript:     newNameTree(),
		embedded:       newNameTree(),
	}
	d.version, d.minor = normalizeVersion(o.Version)
	if o.Security != nil && o.Security.AES256 && d.minor < 7 {
		d.version, d.minor = "1.7", 7
	}

	fmt.Fprintf(d.sink, "%%PDF-%s\n", d.version)
	// A comment with high-bit bytes marks the file as binary for transfer
	// tools.
	d.sink.Write([]byte{'%', 0xFF, 0xFF, 0xFF, 0xFF, '\n'})

	d.infoRef = d.Ref()
	d.infoRef.Data = infoDict(o.Info)
	d.fileID = fileIdentifier(d.infoRef.Data)

	if o.Security != nil {
		h, err := security.NewHandler(*o.Security, d.version, d.fileID)
		if err != nil {
			return nil, err
		}
		d.security = h
	}

	d.root = d.Ref()
	d.pagesRef = d.Ref()
	d.namesRef = d.Ref()
	d.pagesRef.Data = objects.Dict{
		"Type":  objects.Name("Pages"),
		"Count": 0,
		"Kids":  objects.Array{},
	}
	d.root.Data = objects.Dict{
		"Type":  objects.Name("Catalog"),
		"Pages": d.pagesRef,
		"Names": d.namesRef,
	}
	if o.Lang != "" {
		d.root.Data["Lang"] = objects.Text(o.Lang)
	}
	if o.DisplayTitle {
		d.root.Data["ViewerPreferences"] = objects.Dict{"DisplayDocTitle": true}
	}

	if o.AutoFirstPage {
		d.AddPage(nil)
	}
	d.log.Debug("document started", observability.String("pdf.version", d.version))
	return d, d.sink.Err()
}

func normalizeVersion(v string) (string, int) {
	switch v {
	case "1.3", "1.4", "1.5", "1.6", "1.7":
		minor, _ := strconv.Atoi(strings.TrimPrefix(v, "1."))
		return v, minor
	default:
		return "1.3", 3
	}
}

func infoDict(info Info) objects.Dict {
	dict := objects.Dict{
		"Producer":     objects.Text("pdfstream"),
		"Creator":      objects.Text("pdfstream"),
		"CreationDate": objects.Date(time.Now()),
	}
	if info.Producer != "" {
		dict["Producer"] = objects.Text(info.Producer)
	}
	if info.Creator != "" {
		dict["Creator"] = objects.Text(info.Creator)
	}
	if !info.CreationDate.IsZero() {
		dict["CreationDate"] = objects.Date(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		dict["ModDate"] = objects.Date(info.ModDate)
	}
	if info.Title != "" {
		dict["Title"] = objects.Text(info.Title)
	}
	if info.Author != "" {
		dict["Author"] = objects.Text(info.Author)
	}
	if info.Subject != "" {
		dict["Subject"] = objects.Text(info.Subject)
	}
	if info.Keywords != "" {
		dict["Keywords"] = objects.Text(info.Keywords)
	}
	for k, v := range info.Extra {
		dict[objects.Name(k)] = objects.Text(v)
	}
	return dict
}

// fileIdentifier derives the trailer ID from the serialized information
// dictionary, so identical inputs produce identical files.
func fileIdentifier(info objects.Dict) []byte {
	var buf bytes.Buffer
	objects.Write(&buf, info, nil)
	sum := md5.Sum(buf.Bytes())
	return sum[:]
}

// Ref allocates a new indirect object. The caller fills Data and optionally
// streams bytes into it, then calls End to write it out.
func (d *Document) Ref() *Reference {
	id := d.store.allocate()
	return &Reference{doc: d, id: id, Data: objects.Dict{}, compress: d.opts.Compress}
}

// Err returns the first error the document ran into, if any.
func (d *Document) Err() error { return d.err }

func (d *Document) fail(err error) {
	if d.err == nil && err != nil {
		d.err = err
		d.log.Error("document error", observability.Error("error", err))
	}
}

func (d *Document) versionAtLeast(minor int) bool { return d.minor >= minor }

// Page returns the page drawing operations currently target.
func (d *Document) Page() *Page { return d.page }

// AddPage finishes marked content on the current page, flushes buffered
// pages unless buffering is on, and starts a new page. A nil opts reuses
// the document's default page options.
func (d *Document) AddPage(opts *PageOptions) *Document {
	if d.err != nil {
		return d
	}
	d.endPageMarkings()
	if !d.opts.BufferPages {
		d.flushPages()
	}
	po := d.opts.Page
	if opts != nil {
		po = *opts
	}
	page := newPage(d, po)
	d.pages = append(d.pages, page)
	d.page = page
	d.pageCount++

	d.x = page.margins.Left
	d.y = page.margins.Top
	// Flip the coordinate system so the origin is the top-left corner and
	// y grows downward.
	d.addContent(fmt.Sprintf("1 0 0 -1 0 %s cm", num(page.height)))
	return d
}

// ContinueOnNewPage starts a new page with the current page's options,
// keeping the horizontal cursor position.
func (d *Document) ContinueOnNewPage() *Document {
	if d.page == nil {
		return d.AddPage(nil)
	}
	x := d.x
	opts := d.page.opts
	d.AddPage(&opts)
	d.x = x
	return d
}

// FlushPages writes out every buffered page. End calls this automatically.
func (d *Document) FlushPages() *Document {
	if d.err != nil {
		return d
	}
	d.flushPages()
	return d
}

func (d *Document) flushPages() {
	pages := d.pages
	if len(pages) == 0 {
		return
	}
	start := time.Now()
	_, span := d.trace.StartSpan(context.Background(), "pdf.flush")
	span.SetTag("pdf.pages.flushed", len(pages))
	d.pages = nil
	d.pageBufferStart += len(pages)
	for _, p := range pages {
		p.end()
	}
	if d.err != nil {
		span.SetError(d.err)
	}
	span.Finish()
	d.log.Debug("pages flushed",
		observability.Int("pdf.pages.flushed", len(pages)),
		observability.Int64(observability.MetricFlushTime, time.Since(start).Microseconds()))
}

// SwitchToPage makes a previously added page current again so more content
// can be drawn on it. Pages are numbered from 1 and must still be in the
// buffer, which requires the BufferPages option.
func (d *Document) SwitchToPage(n int) error {
	idx := n - 1 - d.pageBufferStart
	if idx < 0 || idx >= len(d.pages) {
		return fmt.Errorf("switchToPage(%d) out of bounds, current buffer covers pages %d to %d",
			n, d.pageBufferStart+1, d.pageBufferStart+len(d.pages))
	}
	d.page = d.pages[idx]
	return nil
}

// BufferedPageRange reports the number of the first buffered page and how
// many pages the buffer holds.
func (d *Document) BufferedPageRange() (start, count int) {
	return d.pageBufferStart + 1, len(d.pages)
}

// AddContent appends a line of raw operators to the current page's content
// stream.
func (d *Document) AddContent(data string) *Document {
	d.addContent(data)
	return d
}

func (d *Document) addContent(data string) {
	if d.err != nil || d.page == nil {
		return
	}
	d.page.write(data)
}

// AddNamedDestination registers name as an explicit destination at the
// given top-left coordinates on the current page.
func (d *Document) AddNamedDestination(name string, x, y float64) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	dest := objects.Array{d.page.dictionary, objects.Name("XYZ"), x, d.page.height - y, objects.Null{}}
	d.dests.add(name, dest)
	return d
}

// AddJavaScript registers a document-level script under name. With the
// ValidateScripts option the source is parsed first and syntax errors fail
// the document.
func (d *Document) AddJavaScript(name, source string) *Document {
	if d.err != nil {
		return d
	}
	if d.opts.ValidateScripts {
		if err := validateScript(name, source); err != nil {
			d.fail(err)
			return d
		}
	}
	d.javascript.add(name, objects.Dict{
		"S":  objects.Name("JavaScript"),
		"JS": objects.Text(source),
	})
	return d
}

// OnComplete registers fn to run once the file is fully written, including
// the deferred case where End returned before the last object finished. If
// the document is already finalized fn runs immediately.
func (d *Document) OnComplete(fn func(error)) {
	if d.finalized {
		fn(d.finalErr)
		return
	}
	d.onComplete = append(d.onComplete, fn)
}

// End finishes the document: remaining pages are flushed, the global
// dictionaries are written, and the cross-reference table and trailer go
// out once every allocated object has ended. If producers still hold open
// references, finalization is deferred until the last of them ends; End
// returns nil in that case and OnComplete reports the outcome. Calling End
// twice is a programming error and panics.
func (d *Document) End() error {
	if d.ended {
		panic("document: End called twice")
	}
	d.ended = true

	d.endPageMarkings()
	d.flushPages()
	d.infoRef.End()
	d.endOutline()
	d.endMarkings()
	d.endFonts()
	d.endMetadata()

	names := objects.Dict{}
	if d.dests.len() > 0 {
		names["Dests"] = d.dests.build(d)
	}
	if d.javascript.len() > 0 {
		names["JavaScript"] = d.javascript.build(d)
	}
	if d.embedded.len() > 0 {
		names["EmbeddedFiles"] = d.embedded.build(d)
	}
	d.root.End()
	d.pagesRef.End()
	d.namesRef.Data = names
	d.namesRef.End()
	d.endAcroForm()

	if d.security != nil {
		d.encryptRef = d.Ref()
		d.encryptRef.Data = d.security.Dict()
		d.encryptRef.End()
	}

	d.store.notifyComplete(d.finalize)
	if d.store.requestEnd() {
		return d.finalErr
	}
	d.log.Debug("end deferred", observability.Int("pdf.objects.pending", d.store.waiting))
	return d.err
}

// finalize writes the cross-reference table and trailer. It runs exactly
// once, either from End or from the reference that retires the last pending
// object.
func (d *Document) finalize() {
	if d.finalized {
		panic("document: finalized twice")
	}
	d.finalized = true
	start := time.Now()
	_, span := d.trace.StartSpan(context.Background(), "pdf.finalize")

	xrefOffset := d.sink.Offset()
	n := len(d.store.offsets)
	fmt.Fprintf(d.sink, "xref\n0 %d\n", n+1)
	d.sink.WriteString("0000000000 65535 f \n")
	for _, off := range d.store.offsets {
		fmt.Fprintf(d.sink, "%010d 00000 n \n", off)
	}

	trailer := objects.Dict{
		"Size": n + 1,
		"Root": d.root,
		"Info": d.infoRef,
		"ID":   objects.Array{objects.String(d.fileID), objects.String(d.fileID)},
	}
	if d.encryptRef != nil {
		trailer["Encrypt"] = d.encryptRef
	}
	d.sink.WriteString("trailer\n")
	objects.Write(d.sink, trailer, nil)
	fmt.Fprintf(d.sink, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	d.fail(d.sink.Err())
	d.finalErr = d.err
	span.SetTag(observability.MetricObjectCount, n)
	span.SetTag(observability.MetricBytesWritten, d.sink.Offset())
	if d.finalErr != nil {
		span.SetError(d.finalErr)
	}
	span.Finish()
	d.log.Info("document finalized",
		observability.Int(observability.MetricObjectCount, n),
		observability.Int(observability.MetricPageCount, d.pageCount),
		observability.Int64(observability.MetricBytesWritten, d.sink.Offset()),
		observability.Int64(observability.MetricFinalizeTime, time.Since(start).Microseconds()))
	fns := d.onComplete
	d.onComplete = nil
	for _, fn := range fns {
		fn(d.finalErr)
	}
}

// WriteFile builds a document with build and writes it to path. It is a
// convenience wrapper for the common synchronous case; the file is closed
// after the document reports completion.
func WriteFile(path string, opts *Options, build func(*Document) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	d, err := New(f, opts)
	if err != nil {
		f.Close()
		return err
	}
	if err := build(d); err != nil {
		f.Close()
		return err
	}
	endErr := d.End()
	if !d.finalized {
		f.Close()
		return fmt.Errorf("document: %d objects still open after End", d.store.waiting)
	}
	if cerr := f.Close(); endErr == nil {
		endErr = cerr
	}
	return endErr
}

// ToFile is the old name of the synchronous file helper.
//
// Deprecated: use WriteFile.
func ToFile(path string, opts *Options, build func(*Document) error) error {
	log := observability.Logger(observability.NopLogger{})
	if opts != nil && opts.Logger != nil {
		log = opts.Logger
	}
	log.Warn("document.ToFile is deprecated, use WriteFile",
		observability.String("path", path))
	return WriteFile(path, opts, build)
}
