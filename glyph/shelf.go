// Package glyph implements the shelf-packed font atlas (C8): a fixed-size
// bitmap that rasterized glyph bitmaps are packed into on first use, with a
// per-frame event queue so the renderer knows what to upload, adapted from
// gogpu-gg's text/msdf shelf packer and the teacher's stb_truetype bindings
// (internal/vk/font.go).
package glyph

// ShelfAllocator packs rectangles into horizontal shelves, the classic
// simple packer for roughly-uniform-height glyph bitmaps (gogpu-gg
// text/msdf/shelf.go).
type ShelfAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf

	usedArea int
}

type shelf struct {
	y      int
	height int
	x      int
}

// NewShelfAllocator creates an allocator over a width x height atlas, with
// padding pixels of separation kept between packed rectangles.
func NewShelfAllocator(width, height, padding int) *ShelfAllocator {
	return &ShelfAllocator{width: width, height: height, padding: padding, shelves: make([]shelf, 0, 16)}
}

// Allocate finds space for a w x h rectangle, returning its top-left corner.
// ok is false if the atlas has no room left.
func (a *ShelfAllocator) Allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + a.padding
	paddedH := h + a.padding

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+paddedW > a.width {
			continue
		}
		if h > s.height {
			if i != len(a.shelves)-1 {
				continue
			}
			if s.y+paddedH > a.height {
				continue
			}
			s.height = h
		}
		x, y = s.x, s.y
		s.x += paddedW
		a.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height + a.padding
	}
	if newY+paddedH > a.height {
		return -1, -1, false
	}

	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: paddedW})
	a.usedArea += w * h
	return 0, newY, true
}

// Reset clears every allocation, keeping the underlying shelf slice's
// capacity (for a full-atlas rebuild after an eviction).
func (a *ShelfAllocator) Reset() {
	a.shelves = a.shelves[:0]
	a.usedArea = 0
}

// Utilization returns the fraction of atlas area currently allocated.
func (a *ShelfAllocator) Utilization() float64 {
	if a.width <= 0 || a.height <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(a.width*a.height)
}
