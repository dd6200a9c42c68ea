package painter

import (
	"testing"

	"github.com/NOT-REAL-GAMES/bindless/rect"
)

func rectAt(x, y, w, h float32) rect.Rect {
	return rect.Rect{Pos: rect.Vec2{X: x, Y: y}, Size: rect.Vec2{X: w, Y: h}}
}

// TestEmissionOffsets verifies the scenario: one ColorRect then one
// TexturedRect leaves vertex_bytes_offset at 80 (32; then 32 is already
// 16-byte aligned, so +48 gives 80) and index_offset at 12 (six indices per
// rect).
func TestEmissionOffsets(t *testing.T) {
	p := New(nil)

	p.DrawColorRect(rectAt(0, 0, 10, 10), NoClipRect, 0xFFFFFFFF)
	if got := p.VertexBytesOffset(); got != 32 {
		t.Fatalf("after color rect: vertex offset = %d, want 32", got)
	}
	if got := p.IndexOffset(); got != 6 {
		t.Fatalf("after color rect: index offset = %d, want 6", got)
	}

	p.DrawTexturedRect(rectAt(0, 0, 10, 10), NoClipRect, rectAt(0, 0, 1, 1), 3)
	if got := p.VertexBytesOffset(); got != 80 {
		t.Fatalf("after textured rect: vertex offset = %d, want 80", got)
	}
	if got := p.IndexOffset(); got != 12 {
		t.Fatalf("after textured rect: index offset = %d, want 12", got)
	}

	if len(p.ColorRects()) != 1 || len(p.TexturedRects()) != 1 {
		t.Fatalf("expected one color rect and one textured rect, got %d/%d", len(p.ColorRects()), len(p.TexturedRects()))
	}
	if len(p.Indices()) != 12 {
		t.Fatalf("expected 12 packed indices, got %d", len(p.Indices()))
	}
}

func TestDrawColorRectDropsTransparent(t *testing.T) {
	p := New(nil)
	p.DrawColorRect(rectAt(0, 0, 10, 10), NoClipRect, 0x00FFFFFF)
	if len(p.ColorRects()) != 0 {
		t.Fatalf("fully transparent rect should be dropped, got %d rects", len(p.ColorRects()))
	}
	if p.VertexBytesOffset() != 0 {
		t.Fatalf("dropped rect should not advance vertex offset, got %d", p.VertexBytesOffset())
	}
}

func TestPrimitiveIndexPacking(t *testing.T) {
	idx := NewPrimitiveIndex(0x123456, 2, TypeSdfCircle)
	if got := idx.Index(); got != 0x123456 {
		t.Errorf("Index() = %x, want %x", got, 0x123456)
	}
	if got := idx.Corner(); got != 2 {
		t.Errorf("Corner() = %d, want 2", got)
	}
	if got := idx.Type(); got != TypeSdfCircle {
		t.Errorf("Type() = %d, want %d", got, TypeSdfCircle)
	}
}

// TestClipStackPushPop covers testable property 4: pushing then popping a
// clip rect leaves CurrentClipRect back where it started, and over-popping
// is a harmless no-op.
func TestClipStackPushPop(t *testing.T) {
	p := New(nil)

	if got := p.CurrentClipRect(); got != NoClipRect {
		t.Fatalf("empty stack: CurrentClipRect() = %d, want NoClipRect", got)
	}

	first := p.PushClipRect(rectAt(0, 0, 100, 100))
	if p.CurrentClipRect() != first {
		t.Fatalf("CurrentClipRect() after push = %d, want %d", p.CurrentClipRect(), first)
	}

	second := p.PushClipRect(rectAt(10, 10, 50, 50))
	if p.CurrentClipRect() != second {
		t.Fatalf("CurrentClipRect() after second push = %d, want %d", p.CurrentClipRect(), second)
	}

	p.PopClipRect()
	if p.CurrentClipRect() != first {
		t.Fatalf("CurrentClipRect() after pop = %d, want %d", p.CurrentClipRect(), first)
	}

	p.PopClipRect()
	if p.CurrentClipRect() != NoClipRect {
		t.Fatalf("CurrentClipRect() after final pop = %d, want NoClipRect", p.CurrentClipRect())
	}

	// Popping past empty must not panic or underflow.
	p.PopClipRect()
	p.PopClipRect()
	if p.CurrentClipRect() != NoClipRect {
		t.Fatalf("over-pop left stack in bad state: %d", p.CurrentClipRect())
	}
}

func TestPushClipRectEmitsClipTypedIndices(t *testing.T) {
	p := New(nil)
	p.PushClipRect(rectAt(0, 0, 200, 200))

	if len(p.Indices()) != 6 {
		t.Fatalf("expected 6 indices from one clip push, got %d", len(p.Indices()))
	}
	for _, idx := range p.Indices() {
		if idx.Type() != TypeClip {
			t.Errorf("clip rect index has type %d, want TypeClip", idx.Type())
		}
	}
	if len(p.ColorRects()) != 1 {
		t.Fatalf("clip rect should be stored as a color rect, got %d", len(p.ColorRects()))
	}
}

func TestReset(t *testing.T) {
	p := New(nil)
	p.DrawColorRect(rectAt(0, 0, 1, 1), NoClipRect, 0xFFFFFFFF)
	p.PushClipRect(rectAt(0, 0, 1, 1))

	p.Reset()

	if len(p.ColorRects()) != 0 || len(p.Indices()) != 0 {
		t.Fatalf("Reset left stale arena contents")
	}
	if p.VertexBytesOffset() != 0 || p.IndexOffset() != 0 {
		t.Fatalf("Reset left stale offsets")
	}
	if p.CurrentClipRect() != NoClipRect {
		t.Fatalf("Reset left a stale clip stack")
	}
}

func TestClipStackDepthBounded(t *testing.T) {
	p := New(nil)
	var last uint32
	for i := 0; i < MaxClipDepth+5; i++ {
		last = p.PushClipRect(rectAt(0, 0, 10, 10))
	}
	if got := p.CurrentClipRect(); got != last {
		t.Fatalf("CurrentClipRect() = %d, want %d after over-pushing", got, last)
	}
	// Pushing beyond the bound must not keep growing the backing arenas
	// unboundedly relative to the cap.
	if len(p.ColorRects()) != MaxClipDepth {
		t.Fatalf("expected %d packed clip rects, got %d", MaxClipDepth, len(p.ColorRects()))
	}
}
