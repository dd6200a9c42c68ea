// Package device implements the bindless Vulkan device abstraction (C2):
// instance/device/bindless-descriptor-set ownership, resource pools for
// images/buffers/programs/framebuffers/shaders, and per-queue submission.
package device

import (
	"unsafe"

	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
	"github.com/NOT-REAL-GAMES/bindless/pool"
)

// UsageState is the authoritative current-usage field carried by every
// image and buffer; it is the single input the command recorder consults
// when computing a barrier.
type UsageState int

const (
	UsageNone UsageState = iota
	UsageGraphicsShaderRead
	UsageGraphicsShaderWrite
	UsageComputeShaderRead
	UsageComputeShaderWrite
	UsageTransferDst
	UsageTransferSrc
	UsageColorAttachment
	UsageDepthAttachment
	UsagePresent
)

// ImageUsageFlags names what an Image may be used for; independent of the
// raw Vulkan flags so callers never import internal/vk directly.
type ImageUsageFlags uint32

const (
	ImageUsageSampled ImageUsageFlags = 1 << iota
	ImageUsageStorage
	ImageUsageColorAttachment
	ImageUsageDepthAttachment
	ImageUsageTransferSrc
	ImageUsageTransferDst
)

// ImageDesc describes an image at creation time.
type ImageDesc struct {
	Name        string
	Width       uint32
	Height      uint32
	Depth       uint32
	MipLevels   uint32
	Format      vk.Format
	Samples     vk.SampleCountFlags
	Usages      ImageUsageFlags
	HostVisible bool
}

// Image is a device-owned GPU image plus the bookkeeping the render graph
// and command recorder need.
type Image struct {
	Desc         ImageDesc
	handle       vk.Image
	memory       vk.DeviceMemory
	view         vk.ImageView
	CurrentUsage UsageState
	SampledIndex int32 // -1 if not bindless-bound as sampled
	StorageIndex int32 // -1 if not bindless-bound as storage
}

// BufferUsageFlags names what a Buffer may be used for.
type BufferUsageFlags uint32

const (
	BufferUsageVertex BufferUsageFlags = 1 << iota
	BufferUsageIndex
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
	BufferUsageHostVisible
)

// BufferDesc describes a buffer at creation time.
type BufferDesc struct {
	Name   string
	Size   uint64
	Usages BufferUsageFlags
}

// Buffer is a device-owned GPU buffer, persistently mapped if host-visible.
type Buffer struct {
	Desc         BufferDesc
	handle       vk.Buffer
	memory       vk.DeviceMemory
	CurrentUsage UsageState
	Mapped       unsafe.Pointer // nil unless host-visible
	StorageIndex int32
}

// Bytes returns a Go slice over the buffer's persistently mapped memory.
// Panics if the buffer was not created host-visible.
func (b *Buffer) Bytes() []byte {
	if b.Mapped == nil {
		panic("device: Buffer.Bytes on a non-host-visible buffer")
	}
	return unsafe.Slice((*byte)(b.Mapped), b.Desc.Size)
}

// RenderStateKey identifies one compiled pipeline variant of a Program;
// identical keys must not recompile (the pipeline cache rule in §4.2).
type RenderStateKey struct {
	Topology    uint32
	CullMode    uint32
	DepthTest   bool
	ColorFormat vk.Format
}

// Shader is opaque SPIR-V bytecode plus its compiled module.
type Shader struct {
	Filename string
	SPIRV    []byte
	module   vk.ShaderModule
}

// Program is a base shader set plus a cache of compiled pipeline variants,
// one per RenderStateKey.
type Program struct {
	Name     string
	Vertex   pool.Handle[Shader]
	Fragment pool.Handle[Shader]
	Compute  pool.Handle[Shader]
	variants map[RenderStateKey]vk.Pipeline
	layout   vk.PipelineLayout
}

// Framebuffer is a fixed set of color attachments plus an optional depth
// attachment, keyed by its attachment set and size. There is no backing
// VkFramebuffer/VkRenderPass object: the device targets VK_KHR_dynamic_rendering,
// so a Framebuffer is purely the logical grouping the render graph caches
// attachment-reuse decisions against; the command recorder turns it into a
// vk.RenderingInfo directly from the attachment image views at begin_pass.
type Framebuffer struct {
	Color  []pool.Handle[Image]
	Depth  pool.Handle[Image]
	Width  uint32
	Height uint32
}
