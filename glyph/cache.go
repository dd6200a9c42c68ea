package glyph

import "fmt"

// Key identifies a glyph within the cache: one font's one glyph index at
// one rasterization size, since the same shelf-packed bitmap cannot serve
// two sizes.
type Key struct {
	FontID     uint32
	GlyphIndex uint16
	Size       int16
}

// Raster is the {image_bytes, bitmap_size, bearing} triple the rasterizer
// interface returns, matching the original painter's font.cpp and the
// teacher's BakeFontBitmap/GetCodepointSDF outputs (§12.1).
type Raster struct {
	Pixels        []byte // single-channel (alpha/SDF) bitmap, Width*Height bytes
	Width, Height int
	BearingX      int
	BearingY      int
	Advance       float32
}

// Rasterizer produces a Raster for one glyph of one font at one pixel
// size. Satisfied by a thin wrapper over internal/vk's stb_truetype
// bindings (renderer.FontRegistry over vk.FontInfo).
type Rasterizer interface {
	Rasterize(fontID uint32, glyphIndex uint16, size int16) (Raster, error)
}

// Entry is one cached glyph's atlas placement plus whether its bitmap has
// been uploaded to the GPU image backing the atlas yet.
type Entry struct {
	AtlasX, AtlasY int
	Width, Height  int
	BearingX       int
	BearingY       int
	Advance        float32
	Uploaded       bool
}

// EventKind distinguishes a freshly packed glyph (needing upload) from one
// that was evicted when the atlas was reset.
type EventKind int

const (
	EventNew EventKind = iota
	EventEvicted
)

// Event is one atlas mutation the renderer must react to: upload pixel data
// for EventNew, or nothing for EventEvicted (the renderer just stops trying
// to sample the evicted region).
type Event struct {
	Kind   EventKind
	Key    Key
	Entry  Entry
	Pixels []byte // only populated for EventNew
}

// Cache is the glyph atlas: a shelf-packed bitmap plus the (font,glyph,size)
// -> Entry side table and the per-frame event queue the painter drains to
// upload newly-packed glyphs (§4.8).
type Cache struct {
	rasterizer Rasterizer
	packer     *ShelfAllocator
	entries    map[Key]Entry
	events     []Event

	width, height int
}

// NewCache creates an empty width x height atlas backed by rasterizer, with
// 1px padding between packed glyphs to avoid bilinear-filter bleed.
func NewCache(rasterizer Rasterizer, width, height int) *Cache {
	return &Cache{
		rasterizer: rasterizer,
		packer:     NewShelfAllocator(width, height, 1),
		entries:    make(map[Key]Entry),
		width:      width,
		height:     height,
	}
}

// Width and Height return the atlas's fixed pixel dimensions.
func (c *Cache) Width() int  { return c.width }
func (c *Cache) Height() int { return c.height }

// Get returns the atlas entry for key, rasterizing and packing it on a
// cache miss. The packer running out of room is reported as an error; the
// caller (painter) is expected to fall back to not drawing that glyph
// rather than crash (§7's resource-exhaustion handling).
func (c *Cache) Get(key Key) (Entry, error) {
	if e, ok := c.entries[key]; ok {
		return e, nil
	}

	raster, err := c.rasterizer.Rasterize(key.FontID, key.GlyphIndex, key.Size)
	if err != nil {
		return Entry{}, fmt.Errorf("glyph: rasterize %+v: %w", key, err)
	}

	x, y, ok := c.packer.Allocate(raster.Width, raster.Height)
	if !ok {
		return Entry{}, fmt.Errorf("glyph: atlas full, cannot pack %+v", key)
	}

	entry := Entry{
		AtlasX: x, AtlasY: y,
		Width: raster.Width, Height: raster.Height,
		BearingX: raster.BearingX, BearingY: raster.BearingY,
		Advance: raster.Advance,
	}
	c.entries[key] = entry
	c.events = append(c.events, Event{Kind: EventNew, Key: key, Entry: entry, Pixels: raster.Pixels})
	return entry, nil
}

// DrainEvents returns and clears the events accumulated since the last
// call, for the renderer to copy into the atlas image via
// CopyBufferToImage once per frame.
func (c *Cache) DrainEvents() []Event {
	if len(c.events) == 0 {
		return nil
	}
	events := c.events
	c.events = nil
	return events
}

// MarkUploaded flips an entry's Uploaded flag after its pixels have made it
// to the GPU image. Get never requeues an entry that is already cached,
// whether or not it has been marked uploaded.
func (c *Cache) MarkUploaded(key Key) {
	if e, ok := c.entries[key]; ok {
		e.Uploaded = true
		c.entries[key] = e
	}
}

// Reset clears every cached entry and the packer, queuing an EventEvicted
// for each previously-packed glyph so the renderer can drop any now-stale
// draw-time references. Used when a resize changes glyph metrics enough
// that a full atlas rebuild is cheaper than selective eviction.
func (c *Cache) Reset() {
	for key, entry := range c.entries {
		c.events = append(c.events, Event{Kind: EventEvicted, Key: key, Entry: entry})
	}
	c.entries = make(map[Key]Entry)
	c.packer.Reset()
}
