package glyph

import "testing"

type fakeRasterizer struct {
	calls int
	size  int
	err   error
}

func (f *fakeRasterizer) Rasterize(fontID uint32, glyphIndex uint16, size int16) (Raster, error) {
	f.calls++
	if f.err != nil {
		return Raster{}, f.err
	}
	n := f.size
	if n == 0 {
		n = 8
	}
	return Raster{Pixels: make([]byte, n*n), Width: n, Height: n, Advance: float32(n)}, nil
}

func TestCacheGetRasterizesOnce(t *testing.T) {
	r := &fakeRasterizer{}
	c := NewCache(r, 64, 64)
	key := Key{FontID: 1, GlyphIndex: 'A', Size: 16}

	e1, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	e2, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get (second): %v", err)
	}
	if e1 != e2 {
		t.Fatalf("Get returned different entries for the same key: %+v vs %+v", e1, e2)
	}
	if r.calls != 1 {
		t.Fatalf("rasterizer called %d times, want 1", r.calls)
	}
}

func TestCacheGetQueuesNewEvent(t *testing.T) {
	r := &fakeRasterizer{}
	c := NewCache(r, 64, 64)
	key := Key{FontID: 1, GlyphIndex: 'A', Size: 16}

	if _, err := c.Get(key); err != nil {
		t.Fatalf("Get: %v", err)
	}
	events := c.DrainEvents()
	if len(events) != 1 || events[0].Kind != EventNew || events[0].Key != key {
		t.Fatalf("DrainEvents() = %+v, want one EventNew for %+v", events, key)
	}
	if c.DrainEvents() != nil {
		t.Fatal("DrainEvents should return nil once already drained")
	}
}

func TestCacheGetDistinctSizesDoNotShareEntries(t *testing.T) {
	r := &fakeRasterizer{}
	c := NewCache(r, 64, 64)
	small := Key{FontID: 1, GlyphIndex: 'A', Size: 12}
	large := Key{FontID: 1, GlyphIndex: 'A', Size: 24}

	if _, err := c.Get(small); err != nil {
		t.Fatalf("Get(small): %v", err)
	}
	if _, err := c.Get(large); err != nil {
		t.Fatalf("Get(large): %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("rasterizer called %d times, want 2 for distinct sizes", r.calls)
	}
}

func TestCacheGetAtlasFullReturnsError(t *testing.T) {
	r := &fakeRasterizer{size: 100}
	c := NewCache(r, 16, 16)
	if _, err := c.Get(Key{FontID: 1, GlyphIndex: 'A', Size: 16}); err == nil {
		t.Fatal("expected an error packing a glyph larger than the atlas")
	}
}

func TestCacheResetQueuesEvictedEvents(t *testing.T) {
	r := &fakeRasterizer{}
	c := NewCache(r, 64, 64)
	key := Key{FontID: 1, GlyphIndex: 'A', Size: 16}
	if _, err := c.Get(key); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.DrainEvents()

	c.Reset()
	events := c.DrainEvents()
	if len(events) != 1 || events[0].Kind != EventEvicted {
		t.Fatalf("DrainEvents() after Reset = %+v, want one EventEvicted", events)
	}

	if _, err := c.Get(key); err != nil {
		t.Fatalf("Get after Reset: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("rasterizer called %d times after Reset, want 2 (re-rasterized)", r.calls)
	}
}

func TestShelfAllocatorRejectsOversizedRect(t *testing.T) {
	a := NewShelfAllocator(32, 32, 0)
	if _, _, ok := a.Allocate(64, 64); ok {
		t.Fatal("Allocate should reject a rectangle larger than the atlas")
	}
}

func TestShelfAllocatorPacksSequentially(t *testing.T) {
	a := NewShelfAllocator(32, 32, 0)
	x1, y1, ok := a.Allocate(8, 8)
	if !ok || x1 != 0 || y1 != 0 {
		t.Fatalf("first Allocate(8,8) = (%d,%d,%v), want (0,0,true)", x1, y1, ok)
	}
	x2, y2, ok := a.Allocate(8, 8)
	if !ok || y2 != 0 || x2 != 8 {
		t.Fatalf("second Allocate(8,8) = (%d,%d,%v), want (8,0,true)", x2, y2, ok)
	}
}
