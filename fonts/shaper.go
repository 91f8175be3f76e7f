package fonts

import (
	"bytes"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// shapeFace wraps the go-text face and shaper used to turn strings into
// positioned glyphs.
type shapeFace struct {
	face   *gofont.Face
	shaper shaping.HarfbuzzShaper
}

func newShapeFace(program []byte) (shapeFace, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(program))
	if err != nil {
		return shapeFace{}, err
	}
	return shapeFace{face: face}, nil
}

type shapedGlyph struct {
	id      int
	cluster int
	advance float64 // 1/1000 em units
}

// shape runs HarfBuzz shaping at a nominal size of 1000 units per em so the
// fixed-point advances divide straight into 1/1000 em values.
func (f *TrueTypeFont) shape(s string) []shapedGlyph {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	script := detectScript(runes)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      f.face.face,
		Size:      fixed.Int26_6(1000 * 64),
		Script:    script,
		Language:  language.DefaultLanguage(),
	}
	output := f.face.shaper.Shape(input)

	result := make([]shapedGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		result = append(result, shapedGlyph{
			id:      int(g.GlyphID),
			cluster: int(g.ClusterIndex),
			advance: float64(g.XAdvance) / 64.0,
		})
	}
	return result
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// detectScript picks the dominant script of the run; mixed runs resolve to
// the most frequent one with Latin as the fallback.
func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	best := language.Latin

	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			best = script
		}
	}
	return best
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Thai, r):
		return language.Thai
	case unicode.Is(unicode.Devanagari, r):
		return language.Devanagari
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	default:
		return language.Unknown
	}
}
