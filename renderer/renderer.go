package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/NOT-REAL-GAMES/bindless/config"
	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/engine/elog"
	"github.com/NOT-REAL-GAMES/bindless/engine/vkerr"
	"github.com/NOT-REAL-GAMES/bindless/graph"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
	"github.com/NOT-REAL-GAMES/bindless/ringbuffer"
	"github.com/NOT-REAL-GAMES/bindless/surface"
	"github.com/NOT-REAL-GAMES/bindless/work"
)

// The four transient rings SimpleRenderer owns (§4.10); each is sized to
// Config.RingBufferSize and enforces its own soft-overflow policy
// independently (§4.3).
const (
	ringUniform = iota
	ringVertex
	ringIndex
	ringUpload
	ringCount
)

var ringNames = [ringCount]string{"uniform", "dynamic-vertex", "dynamic-index", "upload"}

// SimpleRenderer is the frame driver (C10): it ties the device, the
// transient ring buffers, the render graph and the surface together into a
// single per-frame cadence, and owns the ambient-stack wiring (logger,
// metrics, config) read once at construction (§4.10).
type SimpleRenderer struct {
	dev     *device.Device
	surface *surface.Surface
	cfg     config.Config
	log     elog.Logger
	metrics *Metrics

	workPool *work.Pool
	rings    [ringCount]*ringbuffer.RingBuffer

	registry *graph.Registry
	graph    *graph.Graph

	fences   []vk.Fence
	iFrame   uint64
	lastSize [2]uint32
}

// NewSimpleRenderer resolves opts into a Config and wires up the
// FrameQueueLength-sized work pool, the four ring buffers, the render
// graph and its resource registry, and one fence per frame-queue slot.
func NewSimpleRenderer(dev *device.Device, surf *surface.Surface, opts ...Option) (*SimpleRenderer, error) {
	o := resolveOptions(opts...)
	cfg := config.Resolve(o.configOpts...)

	wp, err := work.NewPool(dev, cfg.FrameQueueLength, dev.QueueFamily())
	if err != nil {
		return nil, fmt.Errorf("renderer: create work pool: %w", err)
	}

	r := &SimpleRenderer{
		dev:     dev,
		surface: surf,
		cfg:     cfg,
		log:     o.logger,
		metrics: o.metrics,

		workPool: wp,
		fences:   make([]vk.Fence, cfg.FrameQueueLength),
	}

	perRingSize := uint64(cfg.RingBufferSize)
	for i := 0; i < ringCount; i++ {
		rb, err := ringbuffer.New(dev, ringNames[i], perRingSize, cfg.FrameQueueLength, o.logger)
		if err != nil {
			return nil, fmt.Errorf("renderer: create %s ring: %w", ringNames[i], err)
		}
		rb.OnOverflow(func(ring string) { r.metrics.recordRingOverflow(context.Background(), ring) })
		r.rings[i] = rb
	}

	r.registry = graph.NewRegistry(dev, uint64(cfg.FrameQueueLength), o.logger)
	r.graph = graph.New(dev, r.registry)

	for i := range r.fences {
		f, err := dev.Raw().CreateFence(&vk.FenceCreateInfo{Flags: vk.FENCE_CREATE_SIGNALED_BIT})
		if err != nil {
			return nil, vkerr.Classify("vkCreateFence", int32(err.(vk.Result)))
		}
		r.fences[i] = f
	}

	width, height := surf.Extent()
	r.lastSize = [2]uint32{width, height}
	r.registry.SetScreenSize(width, height)

	return r, nil
}

// Device, Surface, Graph and the ring-buffer accessors expose this
// renderer's collaborators to client code (painter/UI) that builds passes
// against the same frame.
func (r *SimpleRenderer) Device() *device.Device  { return r.dev }
func (r *SimpleRenderer) Surface() *surface.Surface { return r.surface }
func (r *SimpleRenderer) Graph() *graph.Graph     { return r.graph }
func (r *SimpleRenderer) Config() config.Config   { return r.cfg }

func (r *SimpleRenderer) UniformRing() *ringbuffer.RingBuffer { return r.rings[ringUniform] }
func (r *SimpleRenderer) VertexRing() *ringbuffer.RingBuffer  { return r.rings[ringVertex] }
func (r *SimpleRenderer) IndexRing() *ringbuffer.RingBuffer   { return r.rings[ringIndex] }
func (r *SimpleRenderer) UploadRing() *ringbuffer.RingBuffer  { return r.rings[ringUpload] }

// StartFrame waits on the frame-queue-length-old fence, rotates the work
// pool and every ring buffer into the new frame's slot, and runs the
// device's deletion queue now that the oldest in-flight frame has retired
// (§4.10 step 1).
func (r *SimpleRenderer) StartFrame() error {
	slot := int(r.iFrame) % r.cfg.FrameQueueLength
	if err := r.dev.Raw().WaitForFences([]vk.Fence{r.fences[slot]}, true, ^uint64(0)); err != nil {
		return fmt.Errorf("renderer: wait for frame fence: %w", vkerr.ErrDeviceLost)
	}
	if err := r.dev.Raw().ResetFences([]vk.Fence{r.fences[slot]}); err != nil {
		return fmt.Errorf("renderer: reset frame fence: %w", err)
	}

	r.workPool.Rotate()
	for _, rb := range r.rings {
		rb.StartFrame()
	}
	r.dev.CollectGarbage()
	return nil
}

// Render appends the present pass (a raw pass blitting color into the
// acquired swapchain image), executes the graph, submits the recorded
// command buffer gated by this frame's fence, and presents (§4.10 step 3).
// A true returned outdated flag means the caller must call
// RecreateSwapchain before the next StartFrame; it is not a failure (§7).
func (r *SimpleRenderer) Render(ctx context.Context, color graph.DescHandle, dt time.Duration) (outdated bool, err error) {
	acquireOutdated, err := r.surface.AcquireNextImage(r.dev)
	if err != nil {
		return false, fmt.Errorf("renderer: acquire swapchain image: %w", err)
	}
	if acquireOutdated {
		return true, nil
	}

	width, height := r.surface.Extent()
	if width != r.lastSize[0] || height != r.lastSize[1] {
		r.lastSize = [2]uint32{width, height}
		r.registry.SetScreenSize(width, height)
	}

	r.graph.RawPass(func(rec *work.Recorder, g *graph.Graph) {
		rec.WaitForAcquired(r.surface, vk.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT)

		colorImg, ok := g.ResolveImage(color)
		if !ok {
			r.log.Warn("renderer: present pass output desc did not resolve to an image")
			return
		}
		rec.Barrier(colorImg, device.UsageTransferSrc)
		rec.RawImageBarrier(r.surface.CurrentImage(),
			vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT, vk.PIPELINE_STAGE_TRANSFER_BIT,
			0, vk.ACCESS_TRANSFER_WRITE_BIT,
			vk.IMAGE_LAYOUT_UNDEFINED, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL)

		rec.BlitToRawImage(colorImg, width, height, r.surface.CurrentImage(), width, height)

		rec.RawImageBarrier(r.surface.CurrentImage(),
			vk.PIPELINE_STAGE_TRANSFER_BIT, vk.PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT,
			vk.ACCESS_TRANSFER_WRITE_BIT, 0,
			vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, vk.IMAGE_LAYOUT_PRESENT_SRC_KHR)

		rec.PreparePresent(r.surface)
	})

	rec, err := r.graph.Execute(r.workPool)
	if err != nil {
		return false, fmt.Errorf("renderer: execute graph: %w", err)
	}

	slot := int(r.iFrame) % r.cfg.FrameQueueLength
	if err := r.dev.Queue().Submit([]vk.SubmitInfo{rec.SubmitInfo()}, r.fences[slot]); err != nil {
		return false, fmt.Errorf("renderer: submit: %w", vkerr.ErrDeviceLost)
	}

	r.metrics.recordDrawCall(ctx)
	r.metrics.recordFrameTime(ctx, dt)

	presentOutdated, err := r.surface.Present(r.dev.Queue())
	if err != nil {
		return false, fmt.Errorf("renderer: present: %w", err)
	}

	r.iFrame++
	return presentOutdated, nil
}

// RecreateSwapchain rebuilds the surface's swapchain at the given size and
// refreshes the screen-relative size the registry resolves against. Call
// after Render or AcquireNextImage reports outdated (§4.5, §7).
func (r *SimpleRenderer) RecreateSwapchain(width, height uint32) error {
	if err := r.surface.RecreateSwapchain(r.dev, width, height); err != nil {
		return err
	}
	w, h := r.surface.Extent()
	r.lastSize = [2]uint32{w, h}
	r.registry.SetScreenSize(w, h)
	return nil
}
