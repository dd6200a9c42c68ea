// compute.go
package vk

/*
#include <vulkan/vulkan.h>
#include <stdlib.h>
*/
import "C"
import "unsafe"

// ComputePipelineCreateInfo describes a single-stage compute pipeline.
type ComputePipelineCreateInfo struct {
	Stage  PipelineShaderStageCreateInfo
	Layout PipelineLayout
}

func (device Device) CreateComputePipeline(createInfo *ComputePipelineCreateInfo) (Pipeline, error) {
	cInfo := (*C.VkComputePipelineCreateInfo)(C.calloc(1, C.sizeof_VkComputePipelineCreateInfo))
	defer C.free(unsafe.Pointer(cInfo))

	entryName := C.CString(createInfo.Stage.Name)
	defer C.free(unsafe.Pointer(entryName))

	cInfo.sType = C.VK_STRUCTURE_TYPE_COMPUTE_PIPELINE_CREATE_INFO
	cInfo.pNext = nil
	cInfo.flags = 0
	cInfo.stage.sType = C.VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO
	cInfo.stage.stage = C.VkShaderStageFlagBits(createInfo.Stage.Stage)
	cInfo.stage.module = createInfo.Stage.Module.handle
	cInfo.stage.pName = entryName
	cInfo.layout = createInfo.Layout.handle

	var pipeline C.VkPipeline
	result := C.vkCreateComputePipelines(device.handle, nil, 1, cInfo, nil, &pipeline)
	if result != C.VK_SUCCESS {
		return Pipeline{}, Result(result)
	}
	return Pipeline{handle: pipeline}, nil
}

func (cmd CommandBuffer) Dispatch(groupCountX, groupCountY, groupCountZ uint32) {
	C.vkCmdDispatch(cmd.handle, C.uint32_t(groupCountX), C.uint32_t(groupCountY), C.uint32_t(groupCountZ))
}

// ImageBlit describes a source/destination region pair for a blit.
type ImageBlit struct {
	SrcSubresource ImageSubresourceLayers
	SrcOffsets     [2]Offset3D
	DstSubresource ImageSubresourceLayers
	DstOffsets     [2]Offset3D
}

func (cmd CommandBuffer) BlitImage(
	srcImage Image, srcLayout ImageLayout,
	dstImage Image, dstLayout ImageLayout,
	regions []ImageBlit, filter Filter,
) {
	cRegions := make([]C.VkImageBlit, len(regions))
	for i, r := range regions {
		cRegions[i].srcSubresource.aspectMask = C.VkImageAspectFlags(r.SrcSubresource.AspectMask)
		cRegions[i].srcSubresource.mipLevel = C.uint32_t(r.SrcSubresource.MipLevel)
		cRegions[i].srcSubresource.baseArrayLayer = C.uint32_t(r.SrcSubresource.BaseArrayLayer)
		cRegions[i].srcSubresource.layerCount = C.uint32_t(r.SrcSubresource.LayerCount)
		cRegions[i].srcOffsets[0] = C.VkOffset3D{x: C.int32_t(r.SrcOffsets[0].X), y: C.int32_t(r.SrcOffsets[0].Y), z: C.int32_t(r.SrcOffsets[0].Z)}
		cRegions[i].srcOffsets[1] = C.VkOffset3D{x: C.int32_t(r.SrcOffsets[1].X), y: C.int32_t(r.SrcOffsets[1].Y), z: C.int32_t(r.SrcOffsets[1].Z)}

		cRegions[i].dstSubresource.aspectMask = C.VkImageAspectFlags(r.DstSubresource.AspectMask)
		cRegions[i].dstSubresource.mipLevel = C.uint32_t(r.DstSubresource.MipLevel)
		cRegions[i].dstSubresource.baseArrayLayer = C.uint32_t(r.DstSubresource.BaseArrayLayer)
		cRegions[i].dstSubresource.layerCount = C.uint32_t(r.DstSubresource.LayerCount)
		cRegions[i].dstOffsets[0] = C.VkOffset3D{x: C.int32_t(r.DstOffsets[0].X), y: C.int32_t(r.DstOffsets[0].Y), z: C.int32_t(r.DstOffsets[0].Z)}
		cRegions[i].dstOffsets[1] = C.VkOffset3D{x: C.int32_t(r.DstOffsets[1].X), y: C.int32_t(r.DstOffsets[1].Y), z: C.int32_t(r.DstOffsets[1].Z)}
	}

	var pRegions *C.VkImageBlit
	if len(cRegions) > 0 {
		pRegions = &cRegions[0]
	}

	C.vkCmdBlitImage(
		cmd.handle,
		srcImage.handle, C.VkImageLayout(srcLayout),
		dstImage.handle, C.VkImageLayout(dstLayout),
		C.uint32_t(len(cRegions)), pRegions,
		C.VkFilter(filter),
	)
}
