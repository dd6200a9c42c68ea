package renderer

import (
	"fmt"
	"sync"

	"github.com/NOT-REAL-GAMES/bindless/glyph"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
)

// sdfPadding and sdfOnEdgeValue match stb_truetype's own usage examples for
// stbtt_GetCodepointSDF; sdfDistScale is onedge/padding (45 per pixel), so
// the field falls from sdfOnEdgeValue at the glyph boundary to 0 at
// sdfPadding pixels outside it.
const (
	sdfPadding      = 4
	sdfOnEdgeValue  = 180
	sdfDistScale    = float32(sdfOnEdgeValue) / sdfPadding
)

// FontRegistry rasterizes glyphs on behalf of multiple loaded fonts,
// keyed by the caller-assigned font ID that also appears in glyph.Key. It
// implements glyph.Rasterizer over the teacher's stb_truetype bindings
// (internal/vk/font.go), per §12.1: no pack example ships a pure-Go
// rasterizer with comparable fidelity, so this keeps the teacher's cgo path
// rather than introducing one.
type FontRegistry struct {
	mu    sync.Mutex
	fonts map[uint32]*vk.FontInfo
}

// NewFontRegistry creates an empty registry.
func NewFontRegistry() *FontRegistry {
	return &FontRegistry{fonts: make(map[uint32]*vk.FontInfo)}
}

// RegisterFont parses ttfData and makes it available under id. Registering
// the same id twice replaces the previous font.
func (r *FontRegistry) RegisterFont(id uint32, ttfData []byte) error {
	info, err := vk.InitFont(ttfData)
	if err != nil {
		return fmt.Errorf("renderer: register font %d: %w", id, err)
	}

	r.mu.Lock()
	if old, ok := r.fonts[id]; ok {
		old.Free()
	}
	r.fonts[id] = info
	r.mu.Unlock()
	return nil
}

// Rasterize implements glyph.Rasterizer. glyphIndex is treated as a Unicode
// codepoint: stb_truetype's SDF entry point rasterizes by codepoint, not by
// the shaper-assigned glyph ID, so the painter's shape cache (§4.7) must
// feed this path the original rune rather than text.ShapedGlyph.GID when
// both the shaping and rasterization stages are wired to the same font.
func (r *FontRegistry) Rasterize(fontID uint32, glyphIndex uint16, size int16) (glyph.Raster, error) {
	r.mu.Lock()
	info, ok := r.fonts[fontID]
	r.mu.Unlock()
	if !ok {
		return glyph.Raster{}, fmt.Errorf("renderer: unknown font id %d", fontID)
	}

	scale := info.ScaleForPixelHeight(float32(size))
	pixels, w, h, xoff, yoff := info.GetCodepointSDF(scale, int(glyphIndex), sdfPadding, sdfOnEdgeValue, sdfDistScale)
	advance, _ := info.GetCodepointHMetrics(int(glyphIndex))

	return glyph.Raster{
		Pixels: pixels, Width: w, Height: h,
		BearingX: xoff, BearingY: yoff,
		Advance: float32(advance) * scale,
	}, nil
}

// Free releases every registered font's native memory.
func (r *FontRegistry) Free() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fonts {
		f.Free()
	}
	r.fonts = make(map[uint32]*vk.FontInfo)
}
