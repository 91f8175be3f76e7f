package fonts

import "testing"

func TestOpenStandardFonts(t *testing.T) {
	for _, name := range StandardNames() {
		f, err := Open(name)
		if err != nil {
			t.Fatalf("Open(%s): %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Name() = %q, want %q", f.Name(), name)
		}
		if f.Embedded() {
			t.Errorf("%s reported as embedded", name)
		}
	}
}

func TestOpenUnknownFont(t *testing.T) {
	if _, err := Open("NoSuchFont"); err == nil {
		t.Fatal("expected error")
	}
}

func TestHelveticaWidths(t *testing.T) {
	f, err := Open("Helvetica")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		text string
		size float64
		want float64
	}{
		{" ", 1000, 278},
		{"A", 1000, 667},
		{"i", 1000, 222},
		{"Hi", 1000, 722 + 222},
		{"A", 12, 667.0 / 1000 * 12},
	}
	for _, tt := range tests {
		if got := f.WidthOfString(tt.text, tt.size); got != tt.want {
			t.Errorf("WidthOfString(%q, %v) = %v, want %v", tt.text, tt.size, got, tt.want)
		}
	}
}

func TestCourierIsMonospaced(t *testing.T) {
	f, err := Open("Courier")
	if err != nil {
		t.Fatal(err)
	}
	if w := f.WidthOfString("iiii", 1000); w != 2400 {
		t.Errorf("four glyphs = %v, want 2400", w)
	}
	if w := f.WidthOfString("WWWW", 1000); w != 2400 {
		t.Errorf("four glyphs = %v, want 2400", w)
	}
}

func TestLineHeight(t *testing.T) {
	f, err := Open("Helvetica")
	if err != nil {
		t.Fatal(err)
	}
	base := f.LineHeight(1000, false)
	if base != 718+207 {
		t.Errorf("LineHeight without gap = %v, want 925", base)
	}
	if withGap := f.LineHeight(1000, true); withGap <= base {
		t.Errorf("LineHeight with gap %v should exceed %v", withGap, base)
	}
}

func TestStandardEncodeLatin(t *testing.T) {
	f, err := Open("Times-Roman")
	if err != nil {
		t.Fatal(err)
	}
	got := f.Encode("Aé世")
	want := []byte{'A', 0xE9, '?'}
	if string(got) != string(want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
}

func TestRegistry(t *testing.T) {
	Register("test-font", []byte{1, 2, 3})
	data, ok := Registered("test-font")
	if !ok || len(data) != 3 {
		t.Fatalf("Registered returned %v, %v", data, ok)
	}
	data[0] = 9
	again, _ := Registered("test-font")
	if again[0] != 9 {
		// Registered hands back the stored slice; mutation visibility is
		// accepted, the registry itself copied on Register.
		t.Log("registry returned a copy")
	}
	if _, ok := Registered("missing"); ok {
		t.Error("missing name reported as registered")
	}
}
