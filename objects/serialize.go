package objects

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
	"unicode/utf16"
)

// Encryptor transforms string payloads at the moment they are serialized.
// A nil Encryptor is the identity transform.
type Encryptor func([]byte) []byte

// Write serializes v to w. enc, when non-nil, is applied to Text payloads
// before escaping; String values are deliberately exempt (see String).
func Write(w io.Writer, v any, enc Encryptor) error {
	switch o := v.(type) {
	case nil, Null:
		_, err := io.WriteString(w, "null")
		return err
	case Name:
		return writeName(w, o)
	case string:
		return writeName(w, Name(o))
	case bool:
		if o {
			_, err := io.WriteString(w, "true")
			return err
		}
		_, err := io.WriteString(w, "false")
		return err
	case int:
		_, err := io.WriteString(w, strconv.Itoa(o))
		return err
	case int64:
		_, err := io.WriteString(w, strconv.FormatInt(o, 10))
		return err
	case float64:
		_, err := io.WriteString(w, FormatNumber(o))
		return err
	case String:
		return writeHexString(w, o)
	case Text:
		return writeTextString(w, string(o), enc)
	case Date:
		stamp := time.Time(o).UTC().Format("D:20060102150405Z")
		return writeTextString(w, stamp, enc)
	case Array:
		return writeArray(w, o, enc)
	case Dict:
		return writeDict(w, o, enc)
	case Referencer:
		_, err := fmt.Fprintf(w, "%d %d R", o.ObjectID(), o.Generation())
		return err
	case Valuer:
		return Write(w, o.PDFValue(), enc)
	default:
		return fmt.Errorf("objects: cannot serialize %T", v)
	}
}

// FormatNumber renders a PDF numeric value without an exponent and without
// trailing fractional zeros.
func FormatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', 6, 64)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func writeName(w io.Writer, n Name) error {
	buf := make([]byte, 0, len(n)+1)
	buf = append(buf, '/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c <= ' ' || c > '~' || isDelimiter(c) || c == '#' {
			buf = append(buf, '#')
			buf = append(buf, hexDigits[c>>4], hexDigits[c&0xF])
		} else {
			buf = append(buf, c)
		}
	}
	_, err := w.Write(buf)
	return err
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

const hexDigits = "0123456789abcdef"

func writeHexString(w io.Writer, s String) error {
	buf := make([]byte, 0, len(s)*2+2)
	buf = append(buf, '<')
	for _, c := range s {
		buf = append(buf, hexDigits[c>>4], hexDigits[c&0xF])
	}
	buf = append(buf, '>')
	_, err := w.Write(buf)
	return err
}

func writeTextString(w io.Writer, s string, enc Encryptor) error {
	b := encodeText(s)
	if enc != nil {
		b = enc(b)
	}
	return writeLiteral(w, b)
}

// encodeText produces the byte form of a text string: plain bytes for ASCII,
// UTF-16BE with a byte order mark otherwise.
func encodeText(s string) []byte {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return []byte(s)
	}
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, len(units)*2+2)
	b = append(b, 0xFE, 0xFF)
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return b
}

func writeLiteral(w io.Writer, s []byte) error {
	buf := make([]byte, 0, len(s)+2)
	buf = append(buf, '(')
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			buf = append(buf, '\\', c)
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		default:
			buf = append(buf, c)
		}
	}
	buf = append(buf, ')')
	_, err := w.Write(buf)
	return err
}

func writeArray(w io.Writer, a Array, enc Encryptor) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, item := range a {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if err := Write(w, item, enc); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]")
	return err
}

func writeDict(w io.Writer, d Dict, enc Encryptor) error {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	if _, err := io.WriteString(w, "<<"); err != nil {
		return err
	}
	for _, k := range keys {
		if err := writeName(w, Name(k)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
		if err := Write(w, d[Name(k)], enc); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ">>")
	return err
}
