// Package objects provides the PDF value model and its serialized form.
//
// Values accepted by the serializer:
//
//	Name, String, Text, Array, Dict, Date, Null
//	any type implementing Referencer (serialized as "N G R")
//	any type implementing Valuer (converted at write time)
//	Go bool, int, int64, float64
//	Go string, shorthand for Name
package objects

import "time"

// Name is a PDF name object, written with a leading slash.
type Name string

// String is a raw byte string. It is always written in hexadecimal form and
// is never passed through an encryption filter; use it for values that must
// survive encryption untouched (file identifiers, password digests).
type String []byte

// Text is a human-readable text string. It is written as a literal string,
// converted to UTF-16BE with a byte order mark when it contains non-ASCII
// characters, and transformed by the document's security filter when one is
// active.
type Text string

// Array is an ordered sequence of PDF values.
type Array []any

// Dict is a PDF dictionary. Keys are serialized in sorted order so output is
// deterministic.
type Dict map[Name]any

// Null is the PDF null object.
type Null struct{}

// Date is a calendar date, written in the PDF (D:YYYYMMDDHHMMSSZ) form.
type Date time.Time

// Referencer is implemented by indirect object handles. The serializer emits
// an indirect reference for any value implementing it.
type Referencer interface {
	ObjectID() int
	Generation() int
}

// Valuer is implemented by composite structures (name trees, page trees) that
// assemble their dictionary form lazily. The serializer calls PDFValue at
// write time and serializes the result.
type Valuer interface {
	PDFValue() any
}
