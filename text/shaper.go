package text

import "sync"

// Shaper converts a text run into positioned glyphs for a given Face. The
// painter's shape cache (§4.7) calls this at most once per distinct
// (font, size, direction, run) key.
type Shaper interface {
	Shape(run string, face *Face) []ShapedGlyph
}

var (
	shaperMu     sync.RWMutex
	globalShaper Shaper
)

// SetShaper installs the package-wide Shaper; nil resets to NewGoTextShaper.
// Mirrors gogpu-gg's global-shaper-with-override idiom (§12.2).
func SetShaper(s Shaper) {
	shaperMu.Lock()
	defer shaperMu.Unlock()
	if s == nil {
		s = NewGoTextShaper()
	}
	globalShaper = s
}

// GetShaper returns the current package-wide Shaper, lazily defaulting to
// NewGoTextShaper on first use.
func GetShaper() Shaper {
	shaperMu.RLock()
	s := globalShaper
	shaperMu.RUnlock()
	if s != nil {
		return s
	}

	shaperMu.Lock()
	defer shaperMu.Unlock()
	if globalShaper == nil {
		globalShaper = NewGoTextShaper()
	}
	return globalShaper
}

// Shape is a convenience wrapper around GetShaper().Shape.
func Shape(run string, face *Face) []ShapedGlyph {
	return GetShaper().Shape(run, face)
}
