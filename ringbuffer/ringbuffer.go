// Package ringbuffer implements the frame-queued transient GPU allocator
// (C3): a single host-visible buffer divided logically across
// FrameQueueLength frames, feeding per-frame uniforms, dynamic
// vertex/index data, and staging uploads.
package ringbuffer

import (
	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/engine/elog"
	"github.com/NOT-REAL-GAMES/bindless/pool"
)

// RingBuffer is a single GPU buffer of Size bytes, logically sliced across
// FrameQueueLength in-flight frames (§4.3).
type RingBuffer struct {
	name             string
	size             uint64
	frameQueueLength int

	buffer pool.Handle[device.Buffer]
	bytes  []byte // the buffer's persistently mapped memory, re-sliced each allocate

	// head is a monotonically increasing byte counter, never decremented;
	// the physical position in bytes is head % size. Tracking the
	// unwrapped count (rather than resetting to 0 or to a slot's old
	// value every frame) is what lets reclaimLimit tell "haven't lapped
	// the buffer yet" apart from "lapped it and must stop at the oldest
	// surviving frame's start" with one comparison (§4.3).
	head        uint64
	frameStarts []uint64 // frameStarts[i_frame % FQL] = head at the start of that frame's slot

	// iFrame is the monotonic frame counter. No frame has started yet when
	// iFrame is nil, matching the port guidance in SPEC_FULL.md
	// §9/DESIGN NOTES to encode "never used" as an option rather than a
	// sentinel integer.
	iFrame *uint64

	log        elog.Logger
	onOverflow func(ring string)
}

// New creates a ring buffer of size bytes backed by a host-visible,
// persistently mapped device.Buffer.
func New(dev *device.Device, name string, size uint64, frameQueueLength int, log elog.Logger) (*RingBuffer, error) {
	if log == nil {
		log = elog.Default()
	}
	h, err := dev.CreateBuffer(device.BufferDesc{
		Name:   name,
		Size:   size,
		Usages: device.BufferUsageStorage | device.BufferUsageHostVisible | device.BufferUsageTransferSrc,
	})
	if err != nil {
		return nil, err
	}
	buf, _ := dev.Buffer(h)
	return &RingBuffer{
		name:             name,
		size:             size,
		frameQueueLength: frameQueueLength,
		buffer:           h,
		bytes:            buf.Bytes(),
		frameStarts:      make([]uint64, frameQueueLength),
		log:              log,
	}, nil
}

// Buffer returns the handle to the backing device buffer, for shaders to
// address by bindless storage index.
func (r *RingBuffer) Buffer() pool.Handle[device.Buffer] { return r.buffer }

// OnOverflow registers a callback invoked every time Allocate fails soft
// because the request would overrun a frame still in flight. Ringbuffer
// cannot import the renderer package to report this to metrics directly,
// so the renderer passes its own counter in through this hook instead.
func (r *RingBuffer) OnOverflow(fn func(ring string)) { r.onOverflow = fn }

// StartFrame advances into the next frame: it records where this frame
// begins (wherever the previous frame's allocations left head) under this
// frame's slot, without disturbing head itself. head only ever moves
// forward through Allocate; the slot this overwrites belonged to the
// frame FrameQueueLength ago, which is now guaranteed retired and folds
// into reclaimLimit's ceiling for the frame after this one.
func (r *RingBuffer) StartFrame() {
	if r.iFrame == nil {
		zero := uint64(0)
		r.iFrame = &zero
		r.frameStarts[0] = r.head
		return
	}
	*r.iFrame++
	slot := int(*r.iFrame) % r.frameQueueLength
	r.frameStarts[slot] = r.head
}

// Allocate reserves size bytes aligned to align, returning the mapped
// slice and its byte offset. If the request would cross into the region
// still owned by a frame that hasn't retired, it fails soft: the returned
// slice is empty and ok is false, so the caller skips this upload (§7,
// RingBufferOverflow).
func (r *RingBuffer) Allocate(size uint64, align uint64) (slice []byte, offset uint64, ok bool) {
	if align == 0 {
		align = 1
	}
	aligned := alignUp(r.head, align)

	// A request that would straddle the physical end of the backing array
	// skips ahead to the start of the next lap instead of splitting the
	// slice; the skipped tail is simply wasted for this lap.
	if phys := aligned % r.size; phys+size > r.size {
		aligned = alignUp(aligned-phys+r.size, align)
	}

	// The reclaimable ceiling is one full lap past the start of the oldest
	// frame still in flight, in the same unwrapped counter space as head.
	limit := r.reclaimLimit()

	if aligned+size > limit {
		r.log.Warn("ring buffer overflow: skipping upload", "ring", r.name, "requested", size, "limit", limit-aligned)
		if r.onOverflow != nil {
			r.onOverflow(r.name)
		}
		return nil, 0, false
	}

	r.head = aligned + size
	phys := aligned % r.size
	return r.bytes[phys : phys+size : phys+size], phys, true
}

// reclaimLimit returns the first unwrapped byte offset this frame must
// not write past: one full lap of the buffer beyond the start recorded
// for the oldest frame that might still be in flight. Before any frame
// has retired, that slot is still its zero value, which collapses to
// exactly r.size — the physical end of the buffer — matching the
// first-lap behavior.
func (r *RingBuffer) reclaimLimit() uint64 {
	if r.iFrame == nil {
		return r.size
	}
	slot := int(*r.iFrame+1) % r.frameQueueLength
	return r.frameStarts[slot] + r.size
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
