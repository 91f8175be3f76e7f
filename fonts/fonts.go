// Package fonts provides the font sources consumed by the document writer:
// the built-in standard 14 fonts and TrueType/OpenType fonts embedded from
// caller-supplied data.
//
// The package keeps a process-wide registry of named font programs. The
// registry is explicitly global: it is written during program initialization
// (or any time before documents use the name) and read by every document
// instance. It requires no teardown.
package fonts

import (
	"fmt"
	"sync"
)

// Font is the narrow interface the document writer consumes. Metric values
// are in 1/1000 em units unless a size is supplied.
type Font interface {
	// Name returns the PostScript (BaseFont) name.
	Name() string
	// WidthOfString measures s at the given size in text-space units.
	WidthOfString(s string, size float64) float64
	// LineHeight returns the line advance at the given size.
	LineHeight(size float64, includeGap bool) float64
	// Ascender returns the ascent in 1/1000 em units.
	Ascender() float64
	// Descender returns the (negative) descent in 1/1000 em units.
	Descender() float64
	// Encode converts s to the byte form used by text-showing operators.
	Encode(s string) []byte
	// Embedded reports whether the font program is embedded in the file.
	Embedded() bool
}

var registry = struct {
	mu sync.RWMutex
	m  map[string][]byte
}{m: make(map[string][]byte)}

// Register stores a font program under name in the process-wide registry.
// Registering the same name again replaces the previous program.
func Register(name string, program []byte) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.m[name] = append([]byte(nil), program...)
}

// Registered returns the font program registered under name, if any.
func Registered(name string) ([]byte, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	data, ok := registry.m[name]
	return data, ok
}

// Open resolves a font name: standard 14 names resolve to built-in metrics,
// anything else is looked up in the registry and parsed as TrueType. Each
// call for a registered name returns a fresh instance so per-document glyph
// usage does not leak across documents.
func Open(name string) (Font, error) {
	if f, ok := standard(name); ok {
		return f, nil
	}
	if data, ok := Registered(name); ok {
		return NewTrueType(name, data)
	}
	return nil, fmt.Errorf("fonts: unknown font %q", name)
}
