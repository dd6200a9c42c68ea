// Package painter implements the 2-D primitive emitter (C7): color,
// textured, and SDF rects plus shaped text runs, written into GPU-visible
// typed arenas with a bindless draw call, adapted from the original
// engine's painter.h/painter.cpp (original_source/libs/painter,
// original_source/render_sample/src/painter.cpp).
//
// The source reinterprets one byte buffer at varying strides depending on
// which rect variant is being written. This port instead allocates three
// parallel typed arenas (Color, Sdf, Textured) and stores
// (variant_index, corner, type) in the index, per SPEC_FULL.md §9's
// "painter buffer as typed arenas" design note — the same packing contract
// observed from the GPU side (index into a per-type array, looked up by
// bindless descriptor) without raw pointer arithmetic on the CPU side.
package painter

import (
	"math"

	"github.com/NOT-REAL-GAMES/bindless/glyph"
	"github.com/NOT-REAL-GAMES/bindless/rect"
	"github.com/NOT-REAL-GAMES/bindless/text"
)

// MaxClipDepth bounds the clip-rect stack, matching the source's
// UI_MAX_DEPTH (ui/ui.h).
const MaxClipDepth = 32

// NoClipRect is the sentinel CurrentClipRect reports when the clip stack is
// empty, matching the source's u32_invalid convention.
const NoClipRect uint32 = math.MaxUint32

// Byte strides from §6's vertex format table. ColorRect and SdfRect share a
// stride so the GPU can address either with the same index arithmetic;
// TexturedRect is larger to carry a UV rect.
const (
	strideColorRect    = 32
	strideSdfRect       = 32
	strideTexturedRect = 48

	// vertexAlign is the alignment VertexBytesOffset is padded to between
	// emissions. Storage buffers only require 16-byte alignment for these
	// struct layouts (both strides above are multiples of 16), so unlike
	// the source's "pad to the next variant's own stride" rule this port
	// pads to the coarser, shared 16-byte boundary — see DESIGN.md.
	vertexAlign = 16
)

// ColorU32 packs a color as 0xAABBGGRR, matching the source's
// ColorU32::from_uints packing.
type ColorU32 uint32

// IsTransparent reports whether c's alpha byte is fully zero; fully
// transparent color rects are dropped at emission (§4.7) to avoid
// blending no-ops.
func (c ColorU32) IsTransparent() bool { return c&0xFF000000 == 0 }

// RectType is the type tag packed into the top 6 bits of a PrimitiveIndex.
type RectType uint8

const (
	TypeColor          RectType = 0
	TypeTextured       RectType = 1
	TypeClip           RectType = 2
	TypeSdfRoundedRect RectType = 32
	TypeSdfCircle      RectType = 33
)

// PrimitiveIndex is the packed {index:24, corner:2, type:6} record the GPU
// reads per vertex, matching §6's index-record layout exactly.
type PrimitiveIndex uint32

// NewPrimitiveIndex packs index, corner (0-3) and typ into one 32-bit value.
func NewPrimitiveIndex(index uint32, corner uint8, typ RectType) PrimitiveIndex {
	return PrimitiveIndex((index & 0xFFFFFF) | uint32(corner&0x3)<<24 | uint32(typ&0x3F)<<26)
}

func (p PrimitiveIndex) Index() uint32   { return uint32(p) & 0xFFFFFF }
func (p PrimitiveIndex) Corner() uint8   { return uint8((p >> 24) & 0x3) }
func (p PrimitiveIndex) Type() RectType  { return RectType((p >> 26) & 0x3F) }

// corner winding for the two triangles (0,1,2)(2,3,0), 0=TL 1=BL 2=BR 3=TR.
var rectCorners = [6]uint8{0, 1, 2, 2, 3, 0}

// ColorRect is the 32-byte GPU-visible record for a flat-color rectangle.
type ColorRect struct {
	Rect      [4]float32 // x, y, w, h
	Color     uint32
	IClipRect uint32
	_         [2]uint32 // padding to 32 bytes
}

// SdfRect is the 32-byte GPU-visible record for a rounded-rect or circle
// evaluated by a signed-distance function in the fragment shader.
type SdfRect struct {
	Rect            [4]float32
	Fill            uint32
	IClipRect       uint32
	BorderColor     uint32
	BorderThickness uint32
}

// TexturedRect is the 48-byte GPU-visible record for a rect sampled from a
// bindless-indexed texture (used for both ordinary textures and glyph
// atlas quads).
type TexturedRect struct {
	Rect              [4]float32
	UV                [4]float32
	TextureDescriptor uint32
	IClipRect         uint32
	_                 [2]uint32
}

func rectToArray(r rect.Rect) [4]float32 {
	return [4]float32{r.Pos.X, r.Pos.Y, r.Size.X, r.Size.Y}
}

// Painter owns the per-frame vertex arenas and index buffer plus the
// glyph cache and shape cache it draws text through (§4.7).
type Painter struct {
	colorRects    []ColorRect
	sdfRects      []SdfRect
	texturedRects []TexturedRect
	indices       []PrimitiveIndex

	vertexBytesOffset uint64
	indexOffset       uint32

	clipStack []uint32

	usedTextures map[uint32]struct{}

	glyphCache      *glyph.Cache
	glyphAtlasIndex uint32
	shapeCache      map[shapeKey][]text.ShapedGlyph
}

// New creates a Painter backed by glyphCache (may be nil if the caller
// never draws text).
func New(glyphCache *glyph.Cache) *Painter {
	return &Painter{
		usedTextures: make(map[uint32]struct{}),
		glyphCache:   glyphCache,
		shapeCache:   make(map[shapeKey][]text.ShapedGlyph),
	}
}

// SetGlyphAtlasIndex records the bindless sampled-image index of the
// glyph cache's atlas, so DrawLabel can reference it as a TexturedRect's
// texture descriptor.
func (p *Painter) SetGlyphAtlasIndex(idx uint32) { p.glyphAtlasIndex = idx }

// Reset clears the per-frame emission state (arenas, indices, clip stack,
// used-texture set) for the next frame. The shape cache and glyph cache are
// NOT reset here: both persist across frames by design (§4.7, §4.8).
func (p *Painter) Reset() {
	p.colorRects = p.colorRects[:0]
	p.sdfRects = p.sdfRects[:0]
	p.texturedRects = p.texturedRects[:0]
	p.indices = p.indices[:0]
	p.vertexBytesOffset = 0
	p.indexOffset = 0
	p.clipStack = p.clipStack[:0]
	for k := range p.usedTextures {
		delete(p.usedTextures, k)
	}
}

// VertexBytesOffset and IndexOffset expose the running emission counters
// for testable property 3 (§8).
func (p *Painter) VertexBytesOffset() uint64 { return p.vertexBytesOffset }
func (p *Painter) IndexOffset() uint32       { return p.indexOffset }

// ColorRects, SdfRects, TexturedRects and Indices expose the backing arenas
// for the frame driver to upload into the ring buffer.
func (p *Painter) ColorRects() []ColorRect       { return p.colorRects }
func (p *Painter) SdfRects() []SdfRect           { return p.sdfRects }
func (p *Painter) TexturedRects() []TexturedRect { return p.texturedRects }
func (p *Painter) Indices() []PrimitiveIndex     { return p.indices }

// UsedTextures returns the set of bindless texture indices referenced by
// this frame's TexturedRects, for the frame driver to validate bindless
// bindings before submission.
func (p *Painter) UsedTextures() []uint32 {
	out := make([]uint32, 0, len(p.usedTextures))
	for idx := range p.usedTextures {
		out = append(out, idx)
	}
	return out
}

func alignUp16(v uint64) uint64 { return (v + vertexAlign - 1) &^ (vertexAlign - 1) }

func (p *Painter) bumpOffset(stride uint64) {
	p.vertexBytesOffset = alignUp16(p.vertexBytesOffset) + stride
}

func (p *Painter) emitIndices(iRect uint32, typ RectType) {
	for _, c := range rectCorners {
		p.indices = append(p.indices, NewPrimitiveIndex(iRect, c, typ))
	}
	p.indexOffset += uint32(len(rectCorners))
}

// DrawColorRect emits a flat-colored rect, dropping it silently if color is
// fully transparent (§4.7).
func (p *Painter) DrawColorRect(r rect.Rect, clip uint32, color ColorU32) {
	if color.IsTransparent() {
		return
	}
	iRect := uint32(len(p.colorRects))
	p.colorRects = append(p.colorRects, ColorRect{Rect: rectToArray(r), Color: uint32(color), IClipRect: clip})
	p.bumpOffset(strideColorRect)
	p.emitIndices(iRect, TypeColor)
}

// DrawTexturedRect emits a rect sampled from the bindless texture index
// textureID over the given uv sub-rect (in [0,1]^2 atlas space).
func (p *Painter) DrawTexturedRect(r rect.Rect, clip uint32, uv rect.Rect, textureID uint32) {
	iRect := uint32(len(p.texturedRects))
	p.texturedRects = append(p.texturedRects, TexturedRect{
		Rect: rectToArray(r), UV: rectToArray(uv), TextureDescriptor: textureID, IClipRect: clip,
	})
	p.bumpOffset(strideTexturedRect)
	p.emitIndices(iRect, TypeTextured)
	p.usedTextures[textureID] = struct{}{}
}

// DrawColorRoundRect emits an SDF-evaluated rounded rectangle with a fill
// and border color/thickness (§4.7).
func (p *Painter) DrawColorRoundRect(r rect.Rect, clip uint32, fill, borderColor ColorU32, borderThickness uint32) {
	p.drawSdf(r, clip, fill, borderColor, borderThickness, TypeSdfRoundedRect)
}

// DrawColorCircle emits an SDF-evaluated circle, otherwise identical to
// DrawColorRoundRect.
func (p *Painter) DrawColorCircle(r rect.Rect, clip uint32, fill, borderColor ColorU32, borderThickness uint32) {
	p.drawSdf(r, clip, fill, borderColor, borderThickness, TypeSdfCircle)
}

func (p *Painter) drawSdf(r rect.Rect, clip uint32, fill, borderColor ColorU32, borderThickness uint32, typ RectType) {
	iRect := uint32(len(p.sdfRects))
	p.sdfRects = append(p.sdfRects, SdfRect{
		Rect: rectToArray(r), Fill: uint32(fill), IClipRect: clip,
		BorderColor: uint32(borderColor), BorderThickness: borderThickness,
	})
	p.bumpOffset(strideSdfRect)
	p.emitIndices(iRect, typ)
}

// PushClipRect emits r as a color rect, then rewrites its six just-emitted
// indices in place to type=Clip (§4.7). The returned index (in units of the
// color-rect arena) is what callers pass as i_clip_rect to every subsequent
// primitive drawn inside r, and is also what CurrentClipRect returns until
// popped. Pushing past MaxClipDepth is a no-op that returns the current top,
// matching the source's bounded DynamicArray<u32, UI_MAX_DEPTH>.
func (p *Painter) PushClipRect(r rect.Rect) uint32 {
	if len(p.clipStack) >= MaxClipDepth {
		return p.CurrentClipRect()
	}

	iRect := uint32(len(p.colorRects))
	p.colorRects = append(p.colorRects, ColorRect{Rect: rectToArray(r), Color: 0xFFFFFFFF, IClipRect: NoClipRect})
	p.bumpOffset(strideColorRect)

	start := len(p.indices)
	p.emitIndices(iRect, TypeColor)
	for i := start; i < len(p.indices); i++ {
		p.indices[i] = NewPrimitiveIndex(p.indices[i].Index(), p.indices[i].Corner(), TypeClip)
	}

	p.clipStack = append(p.clipStack, iRect)
	return iRect
}

// PopClipRect undoes the last PushClipRect; a no-op on an empty stack.
func (p *Painter) PopClipRect() {
	if len(p.clipStack) == 0 {
		return
	}
	p.clipStack = p.clipStack[:len(p.clipStack)-1]
}

// CurrentClipRect returns the top of the clip stack, or NoClipRect if empty.
func (p *Painter) CurrentClipRect() uint32 {
	if len(p.clipStack) == 0 {
		return NoClipRect
	}
	return p.clipStack[len(p.clipStack)-1]
}
