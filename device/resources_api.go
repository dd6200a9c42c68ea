package device

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/bindless/engine/vkerr"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
	"github.com/NOT-REAL-GAMES/bindless/pool"
)

// CreateImage allocates a GPU image and, when its usages include sampling
// or storage, binds it into the bindless descriptor set (§4.2).
func (d *Device) CreateImage(desc ImageDesc) (pool.Handle[Image], error) {
	usage := vk.ImageUsageFlags(0)
	if desc.Usages&ImageUsageSampled != 0 {
		usage |= vk.IMAGE_USAGE_SAMPLED_BIT
	}
	if desc.Usages&ImageUsageStorage != 0 {
		usage |= vk.IMAGE_USAGE_STORAGE_BIT
	}
	if desc.Usages&ImageUsageColorAttachment != 0 {
		usage |= vk.IMAGE_USAGE_COLOR_ATTACHMENT_BIT
	}
	if desc.Usages&ImageUsageDepthAttachment != 0 {
		usage |= vk.IMAGE_USAGE_DEPTH_STENCIL_ATTACHMENT_BIT
	}
	if desc.Usages&ImageUsageTransferSrc != 0 {
		usage |= vk.IMAGE_USAGE_TRANSFER_SRC_BIT
	}
	if desc.Usages&ImageUsageTransferDst != 0 {
		usage |= vk.IMAGE_USAGE_TRANSFER_DST_BIT
	}

	samples := desc.Samples
	if samples == 0 {
		samples = vk.SAMPLE_COUNT_1_BIT
	}
	mips := desc.MipLevels
	if mips == 0 {
		mips = 1
	}
	depth := desc.Depth
	if depth == 0 {
		depth = 1
	}
	imageType := vk.IMAGE_TYPE_2D
	if depth > 1 {
		imageType = vk.IMAGE_TYPE_3D
	}

	raw, err := d.vk.CreateImage(&vk.ImageCreateInfo{
		ImageType:     imageType,
		Format:        desc.Format,
		Extent:        vk.Extent3D{Width: desc.Width, Height: desc.Height, Depth: depth},
		MipLevels:     mips,
		ArrayLayers:   1,
		Samples:       samples,
		Tiling:        vk.IMAGE_TILING_OPTIMAL,
		Usage:         usage,
		SharingMode:   vk.SHARING_MODE_EXCLUSIVE,
		InitialLayout: vk.IMAGE_LAYOUT_UNDEFINED,
	})
	if err != nil {
		return pool.Invalid[Image](), vkerr.Classify("vkCreateImage", int32(err.(vk.Result)))
	}

	memReqs := d.vk.GetImageMemoryRequirements(raw)
	memTypeIndex, found := vk.FindMemoryType(d.physicalDevice.GetMemoryProperties(), memReqs.MemoryTypeBits, vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	if !found {
		d.vk.DestroyImage(raw)
		return pool.Invalid[Image](), vkerr.Classify("vkAllocateMemory", int32(vk.OUT_OF_DEVICE_MEMORY))
	}
	mem, err := d.vk.AllocateMemory(&vk.MemoryAllocateInfo{AllocationSize: memReqs.Size, MemoryTypeIndex: memTypeIndex})
	if err != nil {
		d.vk.DestroyImage(raw)
		return pool.Invalid[Image](), vkerr.Classify("vkAllocateMemory", int32(err.(vk.Result)))
	}
	if err := d.vk.BindImageMemory(raw, mem, 0); err != nil {
		d.vk.FreeMemory(mem)
		d.vk.DestroyImage(raw)
		return pool.Invalid[Image](), vkerr.Classify("vkBindImageMemory", int32(err.(vk.Result)))
	}

	var view vk.ImageView
	if desc.Usages&(ImageUsageSampled|ImageUsageStorage) != 0 {
		view, err = d.vk.CreateImageViewForTexture(raw, desc.Format)
		if err != nil {
			return pool.Invalid[Image](), vkerr.Classify("vkCreateImageView", int32(err.(vk.Result)))
		}
	}

	img := Image{
		Desc:         desc,
		handle:       raw,
		memory:       mem,
		view:         view,
		CurrentUsage: UsageNone,
		SampledIndex: -1,
		StorageIndex: -1,
	}

	if desc.Usages&ImageUsageSampled != 0 {
		img.SampledIndex = d.allocSampledSlot()
		d.pendingWrites = append(d.pendingWrites, vk.WriteDescriptorSet{
			DstSet: d.globalSet, DstBinding: setSampledImages, DstArrayElement: uint32(img.SampledIndex),
			DescriptorType: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER,
			ImageInfo:      []vk.DescriptorImageInfo{{ImageView: view, ImageLayout: vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL}},
		})
	}
	if desc.Usages&ImageUsageStorage != 0 {
		img.StorageIndex = d.allocStorageSlot()
		d.pendingWrites = append(d.pendingWrites, vk.WriteDescriptorSet{
			DstSet: d.globalSet, DstBinding: setStorageImages, DstArrayElement: uint32(img.StorageIndex),
			DescriptorType: vk.DESCRIPTOR_TYPE_STORAGE_IMAGE,
			ImageInfo:      []vk.DescriptorImageInfo{{ImageView: view, ImageLayout: vk.IMAGE_LAYOUT_GENERAL}},
		})
	}

	return d.images.Add(img), nil
}

// CreateBuffer allocates a GPU buffer; host-visible buffers are persistently
// mapped and every buffer receives a bindless storage index.
func (d *Device) CreateBuffer(desc BufferDesc) (pool.Handle[Buffer], error) {
	usage := vk.BufferUsageFlags(0)
	if desc.Usages&BufferUsageVertex != 0 {
		usage |= vk.BUFFER_USAGE_VERTEX_BUFFER_BIT
	}
	if desc.Usages&BufferUsageIndex != 0 {
		usage |= vk.BUFFER_USAGE_INDEX_BUFFER_BIT
	}
	if desc.Usages&BufferUsageStorage != 0 {
		usage |= vk.BUFFER_USAGE_STORAGE_BUFFER_BIT
	}
	if desc.Usages&BufferUsageTransferSrc != 0 {
		usage |= vk.BUFFER_USAGE_TRANSFER_SRC_BIT
	}
	if desc.Usages&BufferUsageTransferDst != 0 {
		usage |= vk.BUFFER_USAGE_TRANSFER_DST_BIT
	}

	memProps := vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT
	hostVisible := desc.Usages&BufferUsageHostVisible != 0
	if hostVisible {
		memProps = vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT | vk.MEMORY_PROPERTY_HOST_COHERENT_BIT
	}

	raw, mem, err := d.vk.CreateBufferWithMemory(desc.Size, usage, memProps, d.physicalDevice)
	if err != nil {
		return pool.Invalid[Buffer](), vkerr.Classify("vkCreateBuffer", int32(err.(vk.Result)))
	}

	buf := Buffer{Desc: desc, handle: raw, memory: mem, CurrentUsage: UsageNone, StorageIndex: -1}
	if hostVisible {
		ptr, err := d.vk.MapMemory(mem, 0, desc.Size)
		if err != nil {
			return pool.Invalid[Buffer](), vkerr.Classify("vkMapMemory", int32(err.(vk.Result)))
		}
		buf.Mapped = ptr
	}

	buf.StorageIndex = d.allocBufferSlot()
	d.pendingWrites = append(d.pendingWrites, vk.WriteDescriptorSet{
		DstSet: d.globalSet, DstBinding: setStorageBuffers, DstArrayElement: uint32(buf.StorageIndex),
		DescriptorType: vk.DESCRIPTOR_TYPE_STORAGE_BUFFER,
		BufferInfo:     []vk.DescriptorBufferInfo{{Buffer: raw, Offset: 0, Range: desc.Size}},
	})

	return d.buffers.Add(buf), nil
}

// CreateShader registers opaque SPIR-V bytecode and compiles its module.
func (d *Device) CreateShader(filename string, spirv []byte) (pool.Handle[Shader], error) {
	module, err := d.vk.CreateShaderModule(&vk.ShaderModuleCreateInfo{Code: spirv})
	if err != nil {
		return pool.Invalid[Shader](), fmt.Errorf("device: %s: %w", filename, vkerr.ErrShaderLoadFailed)
	}
	return d.shaders.Add(Shader{Filename: filename, SPIRV: spirv, module: module}), nil
}

// CreateProgram registers a base program (shader handles) with no compiled
// variants yet; CompileGraphicsState adds one variant per RenderState.
func (d *Device) CreateProgram(name string, vertex, fragment pool.Handle[Shader]) pool.Handle[Program] {
	return d.programs.Add(Program{
		Name: name, Vertex: vertex, Fragment: fragment,
		variants: make(map[RenderStateKey]vk.Pipeline),
		layout:   d.pipelineLayout,
	})
}

// CompileGraphicsState compiles (or returns the cached) pipeline variant for
// state. Identical (program, state) must not recompile (§4.2 pipeline cache
// rule).
func (d *Device) CompileGraphicsState(h pool.Handle[Program], state RenderStateKey) error {
	prog, ok := d.programs.Get(h)
	if !ok {
		return fmt.Errorf("device: CompileGraphicsState: %w", vkerr.ErrInvalidHandle)
	}
	if _, cached := prog.variants[state]; cached {
		return nil
	}

	vertShader, _ := d.shaders.Get(prog.Vertex)
	fragShader, _ := d.shaders.Get(prog.Fragment)

	topology := vk.PrimitiveTopology(state.Topology)
	cull := vk.CullModeFlags(state.CullMode)

	pipeline, err := d.vk.CreateGraphicsPipeline(&vk.GraphicsPipelineCreateInfo{
		Stages: []vk.PipelineShaderStageCreateInfo{
			{Stage: vk.SHADER_STAGE_VERTEX_BIT, Module: vertShader.module, Name: "main"},
			{Stage: vk.SHADER_STAGE_FRAGMENT_BIT, Module: fragShader.module, Name: "main"},
		},
		VertexInputState:   &vk.PipelineVertexInputStateCreateInfo{},
		InputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{Topology: topology},
		ViewportState:      &vk.PipelineViewportStateCreateInfo{Viewports: []vk.Viewport{{}}, Scissors: []vk.Rect2D{{}}},
		RasterizationState: &vk.PipelineRasterizationStateCreateInfo{PolygonMode: vk.POLYGON_MODE_FILL, CullMode: cull, FrontFace: vk.FRONT_FACE_COUNTER_CLOCKWISE, LineWidth: 1},
		MultisampleState:   &vk.PipelineMultisampleStateCreateInfo{RasterizationSamples: vk.SAMPLE_COUNT_1_BIT},
		ColorBlendState:    &vk.PipelineColorBlendStateCreateInfo{Attachments: []vk.PipelineColorBlendAttachmentState{{ColorWriteMask: vk.COLOR_COMPONENT_ALL, BlendEnable: true}}},
		DynamicState:       &vk.PipelineDynamicStateCreateInfo{DynamicStates: []vk.DynamicState{vk.DYNAMIC_STATE_VIEWPORT, vk.DYNAMIC_STATE_SCISSOR}},
		Layout:             d.pipelineLayout,
		RenderingInfo:      &vk.PipelineRenderingCreateInfo{ColorAttachmentFormats: []vk.Format{state.ColorFormat}},
	})
	if err != nil {
		return fmt.Errorf("device: CompileGraphicsState: %w", vkerr.ErrPipelineCompileFailed)
	}
	prog.variants[state] = pipeline
	return nil
}

// Pipeline returns the compiled variant for (program, state), or ok=false
// if it has not been compiled (ResourceBindingMismatch territory for the
// caller: drop the draw rather than crash, per §7).
func (d *Device) Pipeline(h pool.Handle[Program], state RenderStateKey) (vk.Pipeline, bool) {
	prog, ok := d.programs.Get(h)
	if !ok {
		return vk.Pipeline{}, false
	}
	p, ok := prog.variants[state]
	return p, ok
}

// CreateFramebuffer registers a logical attachment set. See the Framebuffer
// doc comment: there's no VkFramebuffer, this is purely a cache key.
func (d *Device) CreateFramebuffer(width, height uint32, color []pool.Handle[Image], depth pool.Handle[Image]) pool.Handle[Framebuffer] {
	return d.framebuffers.Add(Framebuffer{Color: color, Depth: depth, Width: width, Height: height})
}

// Image/Buffer/Framebuffer/Shader/Program accessors, used by the render
// graph and command recorder which only ever touch resources through
// handles.
func (d *Device) Image(h pool.Handle[Image]) (*Image, bool)     { return d.images.Get(h) }
func (d *Device) Buffer(h pool.Handle[Buffer]) (*Buffer, bool)   { return d.buffers.Get(h) }
func (d *Device) Framebuffer(h pool.Handle[Framebuffer]) (*Framebuffer, bool) {
	return d.framebuffers.Get(h)
}

// ImageView exposes the raw view for command-recorder attachment binding.
func (d *Device) ImageView(h pool.Handle[Image]) (vk.ImageView, bool) {
	img, ok := d.images.Get(h)
	if !ok {
		return vk.ImageView{}, false
	}
	return img.view, true
}

// ImageHandleRaw/BufferHandleRaw expose the raw vk handle for barrier and
// copy commands issued by the recorder.
func (d *Device) ImageHandleRaw(h pool.Handle[Image]) (vk.Image, bool) {
	img, ok := d.images.Get(h)
	if !ok {
		return vk.Image{}, false
	}
	return img.handle, true
}
func (d *Device) BufferHandleRaw(h pool.Handle[Buffer]) (vk.Buffer, bool) {
	buf, ok := d.buffers.Get(h)
	if !ok {
		return vk.Buffer{}, false
	}
	return buf.handle, true
}

// GetImageSampledIndex returns the bindless sampled-image slot for h, or -1
// if it wasn't created with ImageUsageSampled.
func (d *Device) GetImageSampledIndex(h pool.Handle[Image]) int32 {
	img, ok := d.images.Get(h)
	if !ok {
		return -1
	}
	return img.SampledIndex
}

// GetImageStorageIndex returns the bindless storage-image slot for h.
func (d *Device) GetImageStorageIndex(h pool.Handle[Image]) int32 {
	img, ok := d.images.Get(h)
	if !ok {
		return -1
	}
	return img.StorageIndex
}

// GetBufferStorageIndex returns the bindless storage-buffer slot for h.
func (d *Device) GetBufferStorageIndex(h pool.Handle[Buffer]) int32 {
	buf, ok := d.buffers.Get(h)
	if !ok {
		return -1
	}
	return buf.StorageIndex
}

// UpdateGlobals flushes pending bindless descriptor writes accumulated by
// CreateImage/CreateBuffer since the last call.
func (d *Device) UpdateGlobals() {
	if len(d.pendingWrites) == 0 {
		return
	}
	d.vk.UpdateDescriptorSets(d.pendingWrites)
	d.pendingWrites = d.pendingWrites[:0]
}

// GlobalSet returns the bindless descriptor set for the recorder to bind.
func (d *Device) GlobalSet() vk.DescriptorSet { return d.globalSet }

// --- bindless slot allocation: free-list reuse, matching the pool style. ---

func (d *Device) allocSampledSlot() int32 {
	if n := len(d.freeSampledSlots); n > 0 {
		s := d.freeSampledSlots[n-1]
		d.freeSampledSlots = d.freeSampledSlots[:n-1]
		return s
	}
	s := d.nextSampledSlot
	d.nextSampledSlot++
	return s
}

func (d *Device) freeSampledSlot(slot int32) {
	if slot >= 0 {
		d.freeSampledSlots = append(d.freeSampledSlots, slot)
	}
}

func (d *Device) allocStorageSlot() int32 {
	if n := len(d.freeStorageSlots); n > 0 {
		s := d.freeStorageSlots[n-1]
		d.freeStorageSlots = d.freeStorageSlots[:n-1]
		return s
	}
	s := d.nextStorageSlot
	d.nextStorageSlot++
	return s
}

func (d *Device) freeStorageSlot(slot int32) {
	if slot >= 0 {
		d.freeStorageSlots = append(d.freeStorageSlots, slot)
	}
}

func (d *Device) allocBufferSlot() int32 {
	if n := len(d.freeBufferSlots); n > 0 {
		s := d.freeBufferSlots[n-1]
		d.freeBufferSlots = d.freeBufferSlots[:n-1]
		return s
	}
	s := d.nextBufferSlot
	d.nextBufferSlot++
	return s
}

func (d *Device) freeBufferSlot(slot int32) {
	if slot >= 0 {
		d.freeBufferSlots = append(d.freeBufferSlots, slot)
	}
}

// UnbindImage frees h's bindless slots without destroying the underlying
// GPU image, for the render graph's two-stage eviction policy (§4.6.1):
// unbind at +18 idle frames, destroy at +19.
func (d *Device) UnbindImage(h pool.Handle[Image]) {
	img, ok := d.images.Get(h)
	if !ok {
		return
	}
	d.freeSampledSlot(img.SampledIndex)
	d.freeStorageSlot(img.StorageIndex)
	img.SampledIndex = -1
	img.StorageIndex = -1
}

// DestroyImage schedules h for destruction no earlier than
// FrameQueueLength frames from now, unbinding its bindless slots.
func (d *Device) DestroyImage(h pool.Handle[Image], frameQueueLength uint64) {
	img, ok := d.images.Get(h)
	if !ok {
		return
	}
	sampled, storage := img.SampledIndex, img.StorageIndex
	raw, view, mem := img.handle, img.view, img.memory
	d.images.Remove(h)
	d.deletions = append(d.deletions, pendingDeletion{
		readyAtFrame: d.currentFrame + frameQueueLength,
		free: func() {
			d.freeSampledSlot(sampled)
			d.freeStorageSlot(storage)
			if view != (vk.ImageView{}) {
				d.vk.DestroyImageView(view)
			}
			d.vk.DestroyImage(raw)
			d.vk.FreeMemory(mem)
		},
	})
}

// DestroyBuffer schedules h for destruction no earlier than
// FrameQueueLength frames from now, unbinding its bindless slot.
func (d *Device) DestroyBuffer(h pool.Handle[Buffer], frameQueueLength uint64) {
	buf, ok := d.buffers.Get(h)
	if !ok {
		return
	}
	storage := buf.StorageIndex
	raw, mem, mapped := buf.handle, buf.memory, buf.Mapped
	d.buffers.Remove(h)
	d.deletions = append(d.deletions, pendingDeletion{
		readyAtFrame: d.currentFrame + frameQueueLength,
		free: func() {
			d.freeBufferSlot(storage)
			if mapped != nil {
				d.vk.UnmapMemory(mem)
			}
			d.vk.DestroyBuffer(raw)
			d.vk.FreeMemory(mem)
		},
	})
}

// DestroyFramebuffer removes a cached attachment grouping immediately;
// there is no GPU object backing it (dynamic rendering), so no deletion
// queue delay is needed.
func (d *Device) DestroyFramebuffer(h pool.Handle[Framebuffer]) {
	d.framebuffers.Remove(h)
}

// CollectGarbage advances the frame counter and frees every deletion whose
// readyAtFrame has passed. Call once per frame, after the previous frame's
// work is known to have retired (i.e. after the frame fence wait in
// SimpleRenderer.start_frame).
func (d *Device) CollectGarbage() {
	d.currentFrame++
	kept := d.deletions[:0]
	for _, del := range d.deletions {
		if del.readyAtFrame <= d.currentFrame {
			del.free()
		} else {
			kept = append(kept, del)
		}
	}
	d.deletions = kept
}
