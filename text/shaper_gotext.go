package text

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// GoTextShaper provides HarfBuzz-level shaping via go-text/typesetting:
// ligatures, kerning, and complex scripts, instead of a naive advance-sum
// over codepoints. Adapted from gogpu-gg's GoTextShaper (§11, §12.2).
//
// Safe for concurrent use: HarfbuzzShaper instances (which hold mutable
// shaping buffers) are pooled per-call via sync.Pool, and the parsed-font
// cache is guarded by a RWMutex. font.Font is read-only and thread-safe;
// font.Face is not, so one is constructed fresh per Shape call.
type GoTextShaper struct {
	shaperPool sync.Pool

	mu        sync.RWMutex
	fontCache map[*FontSource]*font.Font
}

// NewGoTextShaper creates a shaper with an empty font cache.
func NewGoTextShaper() *GoTextShaper {
	return &GoTextShaper{
		shaperPool: sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }},
		fontCache:  make(map[*FontSource]*font.Font),
	}
}

// Shape implements Shaper.
func (s *GoTextShaper) Shape(run string, face *Face) []ShapedGlyph {
	if run == "" || face == nil || face.source == nil {
		return nil
	}

	goTextFont, err := s.getOrCreateFont(face.source)
	if err != nil {
		return nil
	}
	goTextFace := font.NewFace(goTextFont)

	runes := []rune(run)
	dir := mapDirection(face.direction)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      goTextFace,
		Size:      floatToFixed(face.size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hbShaper := s.shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hbShaper.Shape(input)
	s.shaperPool.Put(hbShaper)

	return convertGlyphs(output.Glyphs, dir)
}

func (s *GoTextShaper) getOrCreateFont(source *FontSource) (*font.Font, error) {
	s.mu.RLock()
	if f, ok := s.fontCache[source]; ok {
		s.mu.RUnlock()
		return f, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fontCache[source]; ok {
		return f, nil
	}

	parsed, err := font.ParseTTF(bytes.NewReader(source.data))
	if err != nil {
		return nil, err
	}
	s.fontCache[source] = parsed.Font
	return parsed.Font, nil
}

// RemoveSource evicts source's cached parsed font, for when its FontSource
// is retired.
func (s *GoTextShaper) RemoveSource(source *FontSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fontCache, source)
}

func mapDirection(d Direction) di.Direction {
	switch d {
	case DirectionRTL:
		return di.DirectionRTL
	case DirectionTTB:
		return di.DirectionTTB
	case DirectionBTT:
		return di.DirectionBTT
	default:
		return di.DirectionLTR
	}
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(size float64) fixed.Int26_6 { return fixed.Int26_6(size * 64) }
func fixedToFloat(v fixed.Int26_6) float64    { return float64(v) / 64.0 }

func convertGlyphs(glyphs []shaping.Glyph, dir di.Direction) []ShapedGlyph {
	if len(glyphs) == 0 {
		return nil
	}

	out := make([]ShapedGlyph, len(glyphs))
	var x, y float64
	for i, g := range glyphs {
		xOff := fixedToFloat(g.XOffset)
		yOff := fixedToFloat(g.YOffset)
		out[i] = ShapedGlyph{
			GID:     GlyphID(uint16(g.GlyphID)),
			Cluster: g.TextIndex(),
			X:       x + xOff,
			Y:       y + yOff,
		}
		adv := fixedToFloat(g.Advance)
		if dir.IsVertical() {
			out[i].YAdvance = adv
			y += adv
		} else {
			out[i].XAdvance = adv
			x += adv
		}
	}
	return out
}
