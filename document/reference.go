package document

import (
	"bytes"
	"compress/zlib"
	"fmt"

	"github.com/wudi/pdfstream/objects"
)

// Reference is an indirect object under construction. Dictionary entries
// accumulate in Data and stream bytes accumulate through Write; End
// serializes the whole object to the file and records its byte offset.
// References may stay open for as long as the producer needs, including past
// the call to Document.End.
type Reference struct {
	doc *Document
	id  int
	gen int

	// Data holds the object's dictionary entries. For stream objects the
	// Length and Filter entries are filled in by End.
	Data objects.Dict

	buf       bytes.Buffer
	hasStream bool
	compress  bool
	offset    int64
	ended     bool
}

func (r *Reference) ObjectID() int   { return r.id }
func (r *Reference) Generation() int { return r.gen }

// Offset returns the byte position of the object in the file. Valid only
// after End.
func (r *Reference) Offset() int64 { return r.offset }

// Ended reports whether the object has been written out.
func (r *Reference) Ended() bool { return r.ended }

// Write appends stream data to the object.
func (r *Reference) Write(p []byte) (int, error) {
	if r.ended {
		return 0, fmt.Errorf("document: write to ended object %d", r.id)
	}
	r.hasStream = true
	return r.buf.Write(p)
}

// SetCompress overrides the document-wide compression setting for this
// object's stream.
func (r *Reference) SetCompress(on bool) { r.compress = on }

// End serializes the object and records its offset. Stream data is deflated
// when compression applies and no filter was set by the producer, then run
// through the document's security handler. Ending an object twice is a
// programming error and panics.
func (r *Reference) End() error {
	if r.ended {
		panic(fmt.Sprintf("document: object %d ended twice", r.id))
	}
	r.ended = true
	d := r.doc

	data := r.buf.Bytes()
	if r.hasStream {
		if r.compress && r.Data["Filter"] == nil {
			var cb bytes.Buffer
			zw := zlib.NewWriter(&cb)
			zw.Write(data)
			zw.Close()
			data = cb.Bytes()
			r.Data["Filter"] = objects.Name("FlateDecode")
		}
		if d.security != nil {
			data = d.security.EncryptStream(r.id, r.gen, data)
		}
		r.Data["Length"] = len(data)
	}

	r.offset = d.sink.Offset()
	fmt.Fprintf(d.sink, "%d %d obj\n", r.id, r.gen)
	var enc objects.Encryptor
	if d.security != nil {
		sec, id, gen := d.security, r.id, r.gen
		enc = func(b []byte) []byte { return sec.EncryptString(id, gen, b) }
	}
	if err := objects.Write(d.sink, r.Data, enc); err != nil {
		d.fail(err)
	}
	if r.hasStream {
		d.sink.WriteString("\nstream\n")
		d.sink.Write(data)
		d.sink.WriteString("\nendstream")
	}
	d.sink.WriteString("\nendobj\n")
	d.store.recordOffset(r.id, r.offset)
	return d.sink.Err()
}
