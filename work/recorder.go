// Package work implements the state-tracked command recorder (C4): a thin
// wrapper over a vk.CommandBuffer that computes barriers from a resource's
// current usage instead of asking callers to reason about Vulkan access
// masks and layouts directly.
package work

import (
	"unsafe"

	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
	"github.com/NOT-REAL-GAMES/bindless/pool"
)

// semWait is an acquire semaphore registered by WaitForAcquired, paired
// with the pipeline stage it gates.
type semWait struct {
	sem   vk.Semaphore
	stage vk.PipelineStageFlags
}

type imageHandle = pool.Handle[device.Image]
type bufferHandle = pool.Handle[device.Buffer]

// usageInfo is the Vulkan-level meaning of a device.UsageState: the image
// layout it implies, and the access/stage mask a transition into or out of
// it carries.
type usageInfo struct {
	layout vk.ImageLayout
	access vk.AccessFlags
	stage  vk.PipelineStageFlags
}

func infoFor(u device.UsageState) usageInfo {
	switch u {
	case device.UsageGraphicsShaderRead, device.UsageComputeShaderRead:
		return usageInfo{vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, vk.ACCESS_MEMORY_READ_BIT, vk.PIPELINE_STAGE_VERTEX_SHADER_BIT}
	case device.UsageGraphicsShaderWrite, device.UsageComputeShaderWrite:
		return usageInfo{vk.IMAGE_LAYOUT_GENERAL, vk.ACCESS_MEMORY_WRITE_BIT, vk.PIPELINE_STAGE_ALL_COMMANDS_BIT}
	case device.UsageTransferSrc:
		return usageInfo{vk.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL, vk.ACCESS_MEMORY_READ_BIT, vk.PIPELINE_STAGE_ALL_COMMANDS_BIT}
	case device.UsageTransferDst:
		return usageInfo{vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, vk.ACCESS_MEMORY_WRITE_BIT, vk.PIPELINE_STAGE_ALL_COMMANDS_BIT}
	case device.UsageColorAttachment:
		return usageInfo{vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, vk.ACCESS_COLOR_ATTACHMENT_WRITE_BIT | vk.ACCESS_COLOR_ATTACHMENT_READ_BIT, vk.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT}
	case device.UsageDepthAttachment:
		return usageInfo{vk.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL, vk.ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT | vk.ACCESS_DEPTH_STENCIL_ATTACHMENT_READ_BIT, vk.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT | vk.PIPELINE_STAGE_LATE_FRAGMENT_TESTS_BIT}
	case device.UsagePresent:
		return usageInfo{vk.IMAGE_LAYOUT_PRESENT_SRC_KHR, vk.ACCESS_NONE, vk.PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT}
	default: // device.UsageNone
		return usageInfo{vk.IMAGE_LAYOUT_UNDEFINED, vk.ACCESS_NONE, vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT}
	}
}

// Recorder wraps one vk.CommandBuffer for the duration of a single frame's
// recording and mutates resource current-usage fields as it inserts
// barriers, so the render graph never has to track layouts itself.
type Recorder struct {
	dev *device.Device
	cmd vk.CommandBuffer

	waits   []semWait
	signals []vk.Semaphore
}

// New wraps cmd for recording against dev's resource pools.
func New(dev *device.Device, cmd vk.CommandBuffer) *Recorder {
	return &Recorder{dev: dev, cmd: cmd}
}

// Begin starts one-time-submit recording.
func (r *Recorder) Begin() error {
	return r.cmd.Begin(&vk.CommandBufferBeginInfo{Flags: vk.COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT})
}

// End finishes recording.
func (r *Recorder) End() error { return r.cmd.End() }

// Raw exposes the wrapped command buffer for callers recording passes that
// fall outside the barrier-tracked API (raw passes, §4.6).
func (r *Recorder) Raw() vk.CommandBuffer { return r.cmd }

// Barrier transitions h to target, no-op if it is already there. This is
// the single path by which an Image's CurrentUsage changes during
// recording.
func (r *Recorder) Barrier(h imageHandle, target device.UsageState) {
	img, ok := r.dev.Image(h)
	if !ok || img.CurrentUsage == target {
		return
	}
	from := infoFor(img.CurrentUsage)
	to := infoFor(target)

	raw, _ := r.dev.ImageHandleRaw(h)
	aspect := vk.IMAGE_ASPECT_COLOR_BIT
	if target == device.UsageDepthAttachment {
		aspect = vk.IMAGE_ASPECT_DEPTH_BIT
	}

	r.cmd.PipelineBarrier(from.stage, to.stage, 0, []vk.ImageMemoryBarrier{{
		SrcAccessMask: from.access,
		DstAccessMask: to.access,
		OldLayout:     from.layout,
		NewLayout:     to.layout,
		Image:         raw,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}})
	img.CurrentUsage = target
}

// ImageTransition pairs an image handle with the usage state the bulk
// Barriers call should transition it into.
type ImageTransition struct {
	Handle imageHandle
	Target device.UsageState
}

// BufferTransition pairs a buffer handle with the usage state the bulk
// Barriers call should transition it into.
type BufferTransition struct {
	Handle bufferHandle
	Target device.UsageState
}

// Barriers coalesces any number of image and buffer transitions into a
// single vkCmdPipelineBarrier call, for passes that touch several
// resources at once (e.g. a pass with multiple color attachments plus a
// storage buffer) and want one barrier instead of one per resource.
// Resources already at their target usage are skipped.
func (r *Recorder) Barriers(images []ImageTransition, buffers []BufferTransition) {
	var srcStage, dstStage vk.PipelineStageFlags
	var imageBarriers []vk.ImageMemoryBarrier
	var bufferBarriers []vk.BufferMemoryBarrier

	for _, t := range images {
		img, ok := r.dev.Image(t.Handle)
		if !ok || img.CurrentUsage == t.Target {
			continue
		}
		from := infoFor(img.CurrentUsage)
		to := infoFor(t.Target)
		raw, _ := r.dev.ImageHandleRaw(t.Handle)
		aspect := vk.IMAGE_ASPECT_COLOR_BIT
		if t.Target == device.UsageDepthAttachment {
			aspect = vk.IMAGE_ASPECT_DEPTH_BIT
		}
		imageBarriers = append(imageBarriers, vk.ImageMemoryBarrier{
			SrcAccessMask: from.access,
			DstAccessMask: to.access,
			OldLayout:     from.layout,
			NewLayout:     to.layout,
			Image:         raw,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: aspect,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		srcStage |= from.stage
		dstStage |= to.stage
		img.CurrentUsage = t.Target
	}

	for _, t := range buffers {
		buf, ok := r.dev.Buffer(t.Handle)
		if !ok || buf.CurrentUsage == t.Target {
			continue
		}
		from := infoFor(buf.CurrentUsage)
		to := infoFor(t.Target)
		raw, _ := r.dev.BufferHandleRaw(t.Handle)
		bufferBarriers = append(bufferBarriers, vk.BufferMemoryBarrier{
			SrcAccessMask: from.access,
			DstAccessMask: to.access,
			Buffer:        raw,
		})
		srcStage |= from.stage
		dstStage |= to.stage
		buf.CurrentUsage = t.Target
	}

	if len(imageBarriers) == 0 && len(bufferBarriers) == 0 {
		return
	}
	r.cmd.PipelineBarrierFull(srcStage, dstStage, 0, bufferBarriers, imageBarriers)
}

// AbsoluteBarrier forces a transition regardless of the image's recorded
// current usage, for resources a raw pass mutated without going through
// the recorder.
func (r *Recorder) AbsoluteBarrier(h imageHandle, from, target device.UsageState) {
	img, ok := r.dev.Image(h)
	if !ok {
		return
	}
	img.CurrentUsage = from
	r.Barrier(h, target)
}

// ClearBarrier resets an image's tracked usage to UsageNone without
// emitting a Vulkan barrier, for images the render graph knows were
// destroyed and recreated (so their layout is UNDEFINED again).
func (r *Recorder) ClearBarrier(h imageHandle) {
	if img, ok := r.dev.Image(h); ok {
		img.CurrentUsage = device.UsageNone
	}
}

// BindPipeline binds a graphics or compute pipeline.
func (r *Recorder) BindPipeline(bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	r.cmd.BindPipeline(bindPoint, pipeline)
}

// BindIndexBuffer binds h at offset as the active index buffer.
func (r *Recorder) BindIndexBuffer(h bufferHandle, offset uint64, indexType vk.IndexType) {
	raw, _ := r.dev.BufferHandleRaw(h)
	r.cmd.BindIndexBuffer(raw, offset, indexType)
}

// SetViewport sets a single full-rect viewport.
func (r *Recorder) SetViewport(width, height float32) {
	r.cmd.SetViewport(0, []vk.Viewport{{
		X: 0, Y: 0, Width: width, Height: height, MinDepth: 0, MaxDepth: 1,
	}})
}

// SetScissor sets a single scissor rect.
func (r *Recorder) SetScissor(x, y int32, width, height uint32) {
	r.cmd.SetScissor(0, []vk.Rect2D{{
		Offset: vk.Offset2D{X: x, Y: y},
		Extent: vk.Extent2D{Width: width, Height: height},
	}})
}

// DrawIndexed issues an indexed draw call.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.cmd.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

// Dispatch issues a compute dispatch.
func (r *Recorder) Dispatch(x, y, z uint32) { r.cmd.Dispatch(x, y, z) }

// CopyBuffer copies regions from src to dst, both already in the right
// transfer usage state.
func (r *Recorder) CopyBuffer(src, dst bufferHandle, regions []vk.BufferCopy) {
	srcRaw, _ := r.dev.BufferHandleRaw(src)
	dstRaw, _ := r.dev.BufferHandleRaw(dst)
	r.cmd.CmdCopyBuffer(srcRaw, dstRaw, regions)
}

// CopyBufferToImage uploads a staging buffer's contents into an image
// already transitioned to UsageTransferDst.
func (r *Recorder) CopyBufferToImage(src bufferHandle, dst imageHandle, regions []vk.BufferImageCopy) {
	srcRaw, _ := r.dev.BufferHandleRaw(src)
	dstRaw, _ := r.dev.ImageHandleRaw(dst)
	r.cmd.CopyBufferToImage(srcRaw, dstRaw, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, regions)
}

// BlitImage blits between two images already in transfer usage states.
func (r *Recorder) BlitImage(src, dst imageHandle, regions []vk.ImageBlit, filter vk.Filter) {
	srcRaw, _ := r.dev.ImageHandleRaw(src)
	dstRaw, _ := r.dev.ImageHandleRaw(dst)
	r.cmd.BlitImage(srcRaw, vk.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL, dstRaw, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, regions, filter)
}

// ClearImage fills an image already in UsageTransferDst with a solid color.
func (r *Recorder) ClearImage(h imageHandle, color [4]float32) {
	raw, _ := r.dev.ImageHandleRaw(h)
	r.cmd.CmdClearColorImage(raw, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, &vk.ClearColorValue{Float32: color}, []vk.ImageSubresourceRange{{
		AspectMask: vk.IMAGE_ASPECT_COLOR_BIT, LevelCount: 1, LayerCount: 1,
	}})
}

// BindGlobalSet binds the global bindless set at set 0.
func (r *Recorder) BindGlobalSet(bindPoint vk.PipelineBindPoint) {
	r.cmd.BindDescriptorSets(bindPoint, r.dev.PipelineLayout(), 0, []vk.DescriptorSet{r.dev.GlobalSet()}, nil)
}

// PushConstants uploads the {draw_id, gui_texture_id} push constant pair
// (§6) for the next draw.
func (r *Recorder) PushConstants(drawID, guiTextureID int32) {
	values := [2]int32{drawID, guiTextureID}
	r.cmd.CmdPushConstants(r.dev.PipelineLayout(), vk.ShaderStageFlags(0x7fffffff), 0, 8, ptrOf(&values))
}

// AttachmentLoad describes how a single color/depth attachment begins a
// pass: cleared (with a color) or loaded (preserving whatever is there).
type AttachmentLoad struct {
	Clear bool
	Color [4]float32
}

// BeginPass opens a VK_KHR_dynamic_rendering scope over the given
// attachment views. It records no barriers itself: the attachment images
// must already be in their attachment layouts (graph.Execute transitions
// them with Barrier first). There is no framebuffer object to bind:
// attachment image views feed RenderingInfo directly.
func (r *Recorder) BeginPass(colorViews []vk.ImageView, colorLoads []AttachmentLoad, depthView *vk.ImageView, depthLoad *AttachmentLoad, width, height uint32) {
	colorAttachments := make([]vk.RenderingAttachmentInfo, len(colorViews))
	for i, view := range colorViews {
		loadOp := vk.ATTACHMENT_LOAD_OP_LOAD
		var clear vk.ClearValue
		if colorLoads[i].Clear {
			loadOp = vk.ATTACHMENT_LOAD_OP_CLEAR
			clear = vk.ClearValue{Color: vk.ClearColorValue{Float32: colorLoads[i].Color}}
		}
		colorAttachments[i] = vk.RenderingAttachmentInfo{
			ImageView:   view,
			ImageLayout: vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
			LoadOp:      loadOp,
			StoreOp:     vk.ATTACHMENT_STORE_OP_STORE,
			ClearValue:  clear,
		}
	}

	info := vk.RenderingInfo{
		RenderArea:       vk.Rect2D{Extent: vk.Extent2D{Width: width, Height: height}},
		LayerCount:       1,
		ColorAttachments: colorAttachments,
	}
	if depthView != nil && depthLoad != nil {
		loadOp := vk.ATTACHMENT_LOAD_OP_LOAD
		if depthLoad.Clear {
			loadOp = vk.ATTACHMENT_LOAD_OP_CLEAR
		}
		info.DepthAttachment = &vk.RenderingAttachmentInfo{
			ImageView:   *depthView,
			ImageLayout: vk.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL,
			LoadOp:      loadOp,
			StoreOp:     vk.ATTACHMENT_STORE_OP_STORE,
		}
	}
	r.cmd.BeginRendering(&info)
}

// EndPass closes the dynamic rendering scope opened by BeginPass.
func (r *Recorder) EndPass() { r.cmd.EndRendering() }

// BeginDebugLabel and EndDebugLabel are intentionally no-ops: the wrapped
// vk package never loads VK_EXT_debug_utils function pointers, so there is
// nothing to call into. Kept as API so callers can annotate passes without
// special-casing builds that do have the extension loaded.
func (r *Recorder) BeginDebugLabel(name string, color [4]float32) {}
func (r *Recorder) EndDebugLabel()                                {}

// TimestampQuery is a no-op for the same reason as the debug label
// methods: query pools are not wired into the vk package.
func (r *Recorder) TimestampQuery(queryName string) {}

// RawImageBarrier inserts a pipeline barrier against a raw vk.Image that
// isn't tracked by any device pool (namely the swapchain's own images),
// for a raw pass's present blit. Raw passes own their barriers end to end
// (§4.4, §4.6 step 3).
func (r *Recorder) RawImageBarrier(img vk.Image, srcStage, dstStage vk.PipelineStageFlags, srcAccess, dstAccess vk.AccessFlags, oldLayout, newLayout vk.ImageLayout) {
	r.cmd.PipelineBarrier(srcStage, dstStage, 0, []vk.ImageMemoryBarrier{{
		SrcAccessMask: srcAccess, DstAccessMask: dstAccess,
		OldLayout: oldLayout, NewLayout: newLayout,
		Image: img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.IMAGE_ASPECT_COLOR_BIT, LevelCount: 1, LayerCount: 1,
		},
	}})
}

// BlitToRawImage blits a device-pool image into a raw vk.Image (the
// swapchain's current image), both already transitioned to the matching
// transfer usage by the caller.
func (r *Recorder) BlitToRawImage(src imageHandle, srcW, srcH uint32, dst vk.Image, dstW, dstH uint32) {
	raw, ok := r.dev.ImageHandleRaw(src)
	if !ok {
		return
	}
	r.cmd.BlitImage(raw, vk.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL, dst, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, []vk.ImageBlit{{
		SrcSubresource: vk.ImageSubresourceLayers{AspectMask: vk.IMAGE_ASPECT_COLOR_BIT, LayerCount: 1},
		SrcOffsets:     [2]vk.Offset3D{{}, {X: int32(srcW), Y: int32(srcH), Z: 1}},
		DstSubresource: vk.ImageSubresourceLayers{AspectMask: vk.IMAGE_ASPECT_COLOR_BIT, LayerCount: 1},
		DstOffsets:     [2]vk.Offset3D{{}, {X: int32(dstW), Y: int32(dstH), Z: 1}},
	}}, vk.FILTER_LINEAR)
}

// acquirable is the narrow view of surface.Surface this package needs, kept
// local so work doesn't import surface (which itself has no reason to
// import work, but a narrow interface avoids coupling the two package
// boundaries to each other's full APIs).
type acquirable interface {
	AcquireSemaphore() vk.Semaphore
	PresentSemaphore() vk.Semaphore
}

// WaitForAcquired registers the surface's acquire semaphore to be waited on
// at the given stage when this recorder's command buffer is submitted
// (§4.4 swapchain interaction).
func (r *Recorder) WaitForAcquired(s acquirable, stage vk.PipelineStageFlags) {
	r.waits = append(r.waits, semWait{sem: s.AcquireSemaphore(), stage: stage})
}

// PreparePresent registers the surface's present-ready semaphore to be
// signaled at submission.
func (r *Recorder) PreparePresent(s acquirable) {
	r.signals = append(r.signals, s.PresentSemaphore())
}

// SubmitInfo builds the vk.SubmitInfo covering this recorder's single
// command buffer plus every wait/signal semaphore registered since Begin.
func (r *Recorder) SubmitInfo() vk.SubmitInfo {
	waitSems := make([]vk.Semaphore, len(r.waits))
	waitStages := make([]vk.PipelineStageFlags, len(r.waits))
	for i, w := range r.waits {
		waitSems[i] = w.sem
		waitStages[i] = w.stage
	}
	return vk.SubmitInfo{
		WaitSemaphores:   waitSems,
		WaitDstStageMask: waitStages,
		CommandBuffers:   []vk.CommandBuffer{r.cmd},
		SignalSemaphores: r.signals,
	}
}

func ptrOf(v *[2]int32) unsafe.Pointer { return unsafe.Pointer(v) }
