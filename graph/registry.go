package graph

import (
	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/engine/elog"
	"github.com/NOT-REAL-GAMES/bindless/pool"
)

// Idle-frame thresholds from §4.6.1: images unbind from bindless at +18
// frames idle and are destroyed at +19; framebuffers are destroyed at +3.
const (
	imageUnbindIdleFrames  = 18
	imageDestroyIdleFrames = 19
	framebufferIdleFrames  = 3
)

// imageSpec is the subset of a TextureDesc the registry matches a live
// image against when searching for a reusable one.
type imageSpec struct {
	name   string
	width  uint32
	height uint32
	format uint32 // vk.Format, kept untyped here to avoid a second import alias
	usages device.ImageUsageFlags
}

type imageEntry struct {
	handle        pool.Handle[device.Image]
	spec          imageSpec
	lastFrameUsed uint64
	claimedFrame  uint64 // last iFrame a TextureDesc resolved to this image; see claimed()
	unbound       bool
}

type fbKey struct {
	color  [4]pool.Handle[device.Image] // fixed small arity; the painter/UI never needs more than one color attachment
	colorN int
	depth  pool.Handle[device.Image]
	width  uint32
	height uint32
}

type framebufferEntry struct {
	handle        pool.Handle[device.Framebuffer]
	lastFrameUsed uint64
}

// Registry is the resource side-table the render graph consults each frame:
// live images/framebuffers plus the bookkeeping (§3 ImageMetadata /
// FramebufferMetadata, §12.3's IndexMap-style side index) that drives reuse
// and eviction decisions. It persists across frames; TextureDescs do not.
type Registry struct {
	dev *device.Device
	log elog.Logger

	images       []*imageEntry
	framebuffers map[fbKey]*framebufferEntry

	screenSize [2]uint32
	iFrame     uint64

	frameQueueLength uint64
}

// NewRegistry creates an empty registry bound to dev.
func NewRegistry(dev *device.Device, frameQueueLength uint64, log elog.Logger) *Registry {
	if log == nil {
		log = elog.Default()
	}
	return &Registry{
		dev:              dev,
		log:              log,
		framebuffers:     make(map[fbKey]*framebufferEntry),
		frameQueueLength: frameQueueLength,
	}
}

// SetScreenSize updates the size screen-relative TextureDescs resolve
// against; call whenever a swapchain image is adopted into the registry.
func (r *Registry) SetScreenSize(width, height uint32) {
	r.screenSize = [2]uint32{width, height}
}

// beginFrame runs the eviction policy (§4.6.1) over every live image and
// framebuffer.
func (r *Registry) beginFrame() {
	kept := r.images[:0]
	for _, e := range r.images {
		idle := r.iFrame - e.lastFrameUsed
		if idle > imageDestroyIdleFrames {
			r.dev.DestroyImage(e.handle, r.frameQueueLength)
			continue
		}
		if idle > imageUnbindIdleFrames && !e.unbound {
			r.dev.UnbindImage(e.handle)
			e.unbound = true
			r.log.Warn("graph: image unbound from bindless after idle window", "name", e.spec.name)
		}
		kept = append(kept, e)
	}
	r.images = kept

	for key, e := range r.framebuffers {
		if r.iFrame-e.lastFrameUsed > framebufferIdleFrames {
			r.dev.DestroyFramebuffer(e.handle)
			delete(r.framebuffers, key)
		}
	}
}

// resolve returns the image backing desc, creating and bindless-binding a
// fresh one if no live, unclaimed image matches its spec. fresh reports
// whether the image is newly created this frame (drives the attachment
// load-op choice in Graph.Execute).
func (r *Registry) resolve(desc *TextureDesc) (h pool.Handle[device.Image], fresh bool, err error) {
	if desc.ResolvedImage.IsValid() {
		if _, ok := r.dev.Image(desc.ResolvedImage); ok {
			r.touchImage(desc.ResolvedImage)
			return desc.ResolvedImage, false, nil
		}
	}

	width, height := desc.Size.resolve(r.screenSize)
	spec := imageSpec{name: desc.Name, width: width, height: height, format: uint32(desc.Format), usages: desc.Usages}

	for _, e := range r.images {
		if e.spec != spec {
			continue
		}
		if e.claimedFrame == r.iFrame {
			continue // already resolved by another desc this frame
		}
		e.claimedFrame = r.iFrame
		e.lastFrameUsed = r.iFrame
		return e.handle, false, nil
	}

	handle, err := r.dev.CreateImage(device.ImageDesc{
		Name: desc.Name, Width: width, Height: height, Depth: 1, MipLevels: 1,
		Format: desc.Format, Usages: desc.Usages,
	})
	if err != nil {
		return pool.Invalid[device.Image](), false, err
	}
	r.images = append(r.images, &imageEntry{handle: handle, spec: spec, lastFrameUsed: r.iFrame, claimedFrame: r.iFrame})
	return handle, true, nil
}

func (r *Registry) touchImage(h pool.Handle[device.Image]) {
	for _, e := range r.images {
		if e.handle == h {
			e.lastFrameUsed = r.iFrame
			e.claimedFrame = r.iFrame
			return
		}
	}
}

// framebuffer returns the cached Framebuffer for the given attachment set,
// creating one on a cache miss. It does not report whether the framebuffer
// was created this call: the color attachment is considered "fresh" only via
// the image resolution above, and framebuffer freshness doesn't
// independently drive a load op.
func (r *Registry) framebuffer(color []pool.Handle[device.Image], depth pool.Handle[device.Image], width, height uint32) pool.Handle[device.Framebuffer] {
	key := fbKey{width: width, height: height, depth: depth, colorN: len(color)}
	for i, c := range color {
		if i >= len(key.color) {
			break
		}
		key.color[i] = c
	}

	if e, ok := r.framebuffers[key]; ok {
		e.lastFrameUsed = r.iFrame
		return e.handle
	}

	h := r.dev.CreateFramebuffer(width, height, color, depth)
	r.framebuffers[key] = &framebufferEntry{handle: h, lastFrameUsed: r.iFrame}
	return h
}
