// Package text implements the shaping side of the Painter's text path
// (part of C7): a Shaper interface with a go-text/typesetting-backed
// implementation, adapted from gogpu-gg's text package.
package text

// GlyphID is a font-relative glyph index, distinct from a Unicode
// codepoint.
type GlyphID uint16

// Direction specifies the direction text advances in.
type Direction int

const (
	DirectionLTR Direction = iota
	DirectionRTL
	DirectionTTB
	DirectionBTT
)

// IsVertical reports whether the direction advances along Y instead of X.
func (d Direction) IsVertical() bool {
	return d == DirectionTTB || d == DirectionBTT
}

// FontSource owns a parsed TTF/OTF's raw bytes, identified by pointer
// identity so a GoTextShaper can key its font cache off it without hashing
// the whole byte slice.
type FontSource struct {
	data []byte
	id   uint32
}

// NewFontSource wraps raw font bytes. id should be unique within a process
// (the device layer's bindless sampled index for the rasterized atlas is a
// natural choice). It is returned by ID and is not forwarded anywhere
// automatically; glyph.Key's FontID comes from the fontID argument of
// Painter.DrawLabel.
func NewFontSource(data []byte, id uint32) *FontSource {
	return &FontSource{data: data, id: id}
}

// ID returns the caller-assigned font identifier.
func (s *FontSource) ID() uint32 { return s.id }

// Face is a font at a fixed size and shaping direction, the minimal unit
// Shape() operates on.
type Face struct {
	source    *FontSource
	size      float64
	direction Direction
}

// NewFace creates a Face over source at the given pixel size.
func NewFace(source *FontSource, size float64, direction Direction) *Face {
	return &Face{source: source, size: size, direction: direction}
}

func (f *Face) Source() *FontSource { return f.source }
func (f *Face) Size() float64       { return f.size }
func (f *Face) Direction() Direction { return f.direction }

// ShapedGlyph is one positioned glyph ready for the painter's shape-cache
// path to turn into textured-rect primitives.
type ShapedGlyph struct {
	GID      GlyphID
	Cluster  int
	X        float64
	Y        float64
	XAdvance float64
	YAdvance float64
}
