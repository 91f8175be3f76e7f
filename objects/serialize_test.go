package objects

import (
	"bytes"
	"testing"
	"time"
)

func render(t *testing.T, v any, enc Encryptor) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, v, enc); err != nil {
		t.Fatalf("Write(%v): %v", v, err)
	}
	return buf.String()
}

func TestWritePrimitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"Null", Null{}, "null"},
		{"Nil", nil, "null"},
		{"True", true, "true"},
		{"False", false, "false"},
		{"Int", 42, "42"},
		{"Int64", int64(-7), "-7"},
		{"Float", 1.5, "1.5"},
		{"FloatWhole", 3.0, "3"},
		{"FloatTrimmed", 0.100000, "0.1"},
		{"Name", Name("Type"), "/Type"},
		{"GoString", "Catalog", "/Catalog"},
		{"NameEscaped", Name("A B#C"), "/A#20B#23C"},
		{"Text", Text("hello"), "(hello)"},
		{"TextEscapes", Text("a(b)\\c\nd"), `(a\(b\)\\c\nd)`},
		{"HexString", String{0xDE, 0xAD}, "<dead>"},
		{"Array", Array{1, Name("Fit"), true}, "[1 /Fit true]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.in, nil); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteUnicodeText(t *testing.T) {
	got := render(t, Text("é"), nil)
	// BOM followed by the UTF-16BE code unit 0x00E9.
	want := "(\xFE\xFF\x00\xe9)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteDate(t *testing.T) {
	d := Date(time.Date(2024, 3, 9, 12, 30, 45, 0, time.UTC))
	if got := render(t, d, nil); got != "(D:20240309123045Z)" {
		t.Errorf("got %q", got)
	}
}

func TestWriteDictSortedKeys(t *testing.T) {
	d := Dict{"Zeta": 1, "Alpha": 2, "Mid": 3}
	got := render(t, d, nil)
	want := "<</Alpha 2\n/Mid 3\n/Zeta 1\n>>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncryptorAppliesToTextNotString(t *testing.T) {
	enc := func(b []byte) []byte {
		out := make([]byte, len(b))
		for i, c := range b {
			out[i] = c ^ 0xFF
		}
		return out
	}
	text := render(t, Text("A"), enc)
	if text != "(\xbe)" {
		t.Errorf("Text not encrypted: %q", text)
	}
	raw := render(t, String("A"), enc)
	if raw != "<41>" {
		t.Errorf("String must bypass encryption, got %q", raw)
	}
}

type fakeRef struct{ id int }

func (r fakeRef) ObjectID() int   { return r.id }
func (r fakeRef) Generation() int { return 0 }

func TestWriteReference(t *testing.T) {
	if got := render(t, fakeRef{7}, nil); got != "7 0 R" {
		t.Errorf("got %q", got)
	}
}

type fakeValuer struct{}

func (fakeValuer) PDFValue() any { return Array{Name("XYZ"), 1} }

func TestWriteValuer(t *testing.T) {
	if got := render(t, fakeValuer{}, nil); got != "[/XYZ 1]" {
		t.Errorf("got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-2, "-2"},
		{0.5, "0.5"},
		{1.0 / 3.0, "0.333333"},
		{612, "612"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
