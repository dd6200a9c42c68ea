// Package graph implements the frame-grained render graph (C6): logical
// texture descriptions resolved to physical images, attachment/framebuffer
// reuse across frames, and command-buffer recording in pass-submission
// order, adapted from the original engine's render_graph and the
// resource_registry IndexMap side-table it keeps alongside its image pool
// (original_source/libs/render/include/render/render_graph/resource_registry.h).
package graph

import (
	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
	"github.com/NOT-REAL-GAMES/bindless/pool"
)

// Size is either an absolute pixel size or a fraction of the current screen
// size, resolved against Registry.screenSize at TextureDesc resolution time.
type Size struct {
	absolute       [2]uint32
	screenRelative [2]float32
	isScreenRel    bool
}

// Absolute returns a fixed pixel Size.
func Absolute(width, height uint32) Size {
	return Size{absolute: [2]uint32{width, height}}
}

// ScreenRelative returns a Size expressed as a fraction of the screen, e.g.
// ScreenRelative(1, 1) tracks the full screen size.
func ScreenRelative(fracX, fracY float32) Size {
	return Size{screenRelative: [2]float32{fracX, fracY}, isScreenRel: true}
}

func (s Size) resolve(screen [2]uint32) (uint32, uint32) {
	if !s.isScreenRel {
		return s.absolute[0], s.absolute[1]
	}
	w := uint32(float32(screen[0]) * s.screenRelative[0])
	h := uint32(float32(screen[1]) * s.screenRelative[1])
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return w, h
}

// TextureDesc is a per-frame logical request for an image; handles into the
// per-frame desc pool are invalidated at frame end (§3).
type TextureDesc struct {
	Name   string
	Size   Size
	Format vk.Format
	Usages device.ImageUsageFlags

	// ResolvedImage, if valid, pins this desc to a specific already-bound
	// image instead of going through registry search (§4.6.1).
	ResolvedImage pool.Handle[device.Image]
}

// DescHandle is a per-frame index into Graph's TextureDesc slice, distinct
// from pool.Handle since the desc list is rebuilt fresh every frame and
// needs no generation check.
type DescHandle struct {
	idx   int
	valid bool
}

// invalidDesc is the sentinel DescHandle matching no slot.
var invalidDesc = DescHandle{}

// IsValid reports whether h was returned by Graph.Output this frame.
func (h DescHandle) IsValid() bool { return h.valid }

func (h DescHandle) index() int {
	if !h.valid {
		return -1
	}
	return h.idx
}
