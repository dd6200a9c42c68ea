package painter

import (
	"github.com/NOT-REAL-GAMES/bindless/glyph"
	"github.com/NOT-REAL-GAMES/bindless/rect"
	"github.com/NOT-REAL-GAMES/bindless/text"
)

// shapeKey identifies a cached shaping result: the same font/size/string
// triple always shapes to the same glyph run, so re-shaping on every frame
// a label is redrawn would be wasted work (§4.7, original_source's
// ShapeContext::get_run).
type shapeKey struct {
	source *text.FontSource
	size   float64
	dir    text.Direction
	run    string
}

func (p *Painter) shapedRun(face *text.Face, run string) []text.ShapedGlyph {
	key := shapeKey{source: face.Source(), size: face.Size(), dir: face.Direction(), run: run}
	if glyphs, ok := p.shapeCache[key]; ok {
		return glyphs
	}
	glyphs := text.Shape(run, face)
	p.shapeCache[key] = glyphs
	return glyphs
}

// lineHeight approximates a face's line advance as 1.2x its point size, the
// usual fallback absent a font's own hhea ascender/descender (text.Face
// carries no such metric yet, see DESIGN.md).
func lineHeight(face *text.Face) float32 {
	return float32(face.Size()) * 1.2
}

// MeasureLabel returns the total advance and line height run would occupy
// if drawn via DrawLabel, without packing any glyphs into the atlas.
func (p *Painter) MeasureLabel(face *text.Face, run string) (advance, height float32) {
	glyphs := p.shapedRun(face, run)
	height = lineHeight(face)
	if len(glyphs) == 0 {
		return 0, height
	}

	var maxX, lineX float64
	lines := float32(1)
	for _, g := range glyphs {
		if g.Cluster < len(run) && run[g.Cluster] == '\n' {
			lines++
			lineX = g.X + g.XAdvance
			continue
		}
		if x := g.X + g.XAdvance - lineX; x > maxX {
			maxX = x
		}
	}
	return float32(maxX), height * lines
}

// DrawLabel shapes and draws run starting at viewRect's top-left corner,
// clipped to clip, wrapping to a new line on '\n' (§4.7/§4.8). Glyphs that
// fail to rasterize or no longer fit the atlas are silently skipped,
// matching the painter's general resource-exhaustion tolerance (§7). Glyph
// tint is applied by the shader reading the atlas, not carried per-rect, so
// DrawLabel takes no color argument.
func (p *Painter) DrawLabel(viewRect rect.Rect, clip uint32, face *text.Face, run string, fontID uint32) {
	if p.glyphCache == nil {
		return
	}

	glyphs := p.shapedRun(face, run)
	lh := lineHeight(face)
	cursorY := viewRect.Pos.Y
	// g.X/g.Y are pen positions from the start of run; lineX/lineY is the
	// pen position at which the current line starts.
	var lineX, lineY float64

	atlasW := float32(p.glyphCache.Width())
	atlasH := float32(p.glyphCache.Height())
	size := int16(face.Size())

	for _, g := range glyphs {
		if g.Cluster < len(run) && run[g.Cluster] == '\n' {
			cursorY += lh
			lineX, lineY = g.X+g.XAdvance, g.Y+g.YAdvance
			continue
		}

		key := glyph.Key{FontID: fontID, GlyphIndex: uint16(g.GID), Size: size}
		entry, err := p.glyphCache.Get(key)
		if err == nil && entry.Width > 0 && entry.Height > 0 {
			dst := rect.Rect{
				Pos:  rect.Vec2{X: viewRect.Pos.X + float32(g.X-lineX) + float32(entry.BearingX), Y: cursorY + float32(g.Y-lineY) - float32(entry.BearingY)},
				Size: rect.Vec2{X: float32(entry.Width), Y: float32(entry.Height)},
			}
			uv := rect.Rect{
				Pos:  rect.Vec2{X: float32(entry.AtlasX) / atlasW, Y: float32(entry.AtlasY) / atlasH},
				Size: rect.Vec2{X: float32(entry.Width) / atlasW, Y: float32(entry.Height) / atlasH},
			}
			p.DrawTexturedRect(dst, clip, uv, p.glyphAtlasIndex)
		}
	}
}
