// Package surface implements the window-backed swapchain (C5): surface
// creation, format/present-mode selection, and acquire/present, recreated
// whenever the device reports the swapchain is out of date.
package surface

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/engine/elog"
	"github.com/NOT-REAL-GAMES/bindless/engine/vkerr"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
)

// WindowHandle is the named interface through which a window/event
// collaborator (out of scope per SPEC_FULL.md §1) hands this package a
// native surface handle, matching the teacher's own
// NewSurfaceKHR(handle unsafe.Pointer) signature.
type WindowHandle interface {
	NativeHandle() unsafe.Pointer
}

// Surface owns the VkSurfaceKHR, its swapchain, and the per-image
// acquire/present semaphores (§4.5).
type Surface struct {
	raw         vk.SurfaceKHR
	format      vk.SurfaceFormatKHR
	presentMode vk.PresentModeKHR
	extent      vk.Extent2D

	swapchain vk.SwapchainKHR
	images    []vk.Image
	views     []vk.ImageView

	acquireSemaphores []vk.Semaphore
	presentSemaphores []vk.Semaphore

	currentImage uint32
	log          elog.Logger
}

// Create builds the Vulkan surface from the window handle, selects a
// format (preference: BGRA8 UNORM + SRGB_NONLINEAR) and present mode
// (preference: Mailbox > Immediate > FIFO), and constructs the swapchain.
func Create(dev *device.Device, window WindowHandle, width, height uint32, log elog.Logger) (*Surface, error) {
	if log == nil {
		log = elog.Default()
	}
	raw := vk.NewSurfaceKHR(window.NativeHandle())
	s := &Surface{raw: raw, log: log}
	if err := s.RecreateSwapchain(dev, width, height); err != nil {
		return nil, err
	}
	return s, nil
}

func choosePresentMode(available []vk.PresentModeKHR) vk.PresentModeKHR {
	has := func(m vk.PresentModeKHR) bool {
		for _, a := range available {
			if a == m {
				return true
			}
		}
		return false
	}
	switch {
	case has(vk.PRESENT_MODE_MAILBOX_KHR):
		return vk.PRESENT_MODE_MAILBOX_KHR
	case has(vk.PRESENT_MODE_IMMEDIATE_KHR):
		return vk.PRESENT_MODE_IMMEDIATE_KHR
	default:
		return vk.PRESENT_MODE_FIFO_KHR
	}
}

func chooseFormat(available []vk.SurfaceFormatKHR) vk.SurfaceFormatKHR {
	for _, f := range available {
		if f.Format == vk.FORMAT_B8G8R8A8_UNORM && f.ColorSpace == vk.COLOR_SPACE_SRGB_NONLINEAR_KHR {
			return f
		}
	}
	return available[0]
}

func chooseImageCount(caps vk.SurfaceCapabilitiesKHR) uint32 {
	count := caps.MinImageCount + 2
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// RecreateSwapchain tears down (if present) and rebuilds the swapchain at
// the given window size. Idempotent, and the only correct response to
// Acquire/Present reporting IsOutdated.
func (s *Surface) RecreateSwapchain(dev *device.Device, width, height uint32) error {
	raw := dev.Raw()
	pd := dev.PhysicalDevice()

	support, err := pd.QuerySwapchainSupport(s.raw)
	if err != nil {
		return vkerr.Classify("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", int32(err.(vk.Result)))
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return fmt.Errorf("surface: no formats or present modes reported: %w", vkerr.ErrDeviceLost)
	}

	s.format = chooseFormat(support.Formats)
	s.presentMode = choosePresentMode(support.PresentModes)
	s.extent = vk.ChooseSwapExtent(support.Capabilities, width, height)
	imageCount := chooseImageCount(support.Capabilities)

	old := s.swapchain
	swapchain, err := raw.CreateSwapchainKHR(&vk.SwapchainCreateInfoKHR{
		Surface:          s.raw,
		MinImageCount:    imageCount,
		ImageFormat:      s.format.Format,
		ImageColorSpace:  s.format.ColorSpace,
		ImageExtent:      s.extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.IMAGE_USAGE_COLOR_ATTACHMENT_BIT,
		ImageSharingMode: vk.SHARING_MODE_EXCLUSIVE,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.COMPOSITE_ALPHA_OPAQUE_BIT_KHR,
		PresentMode:      s.presentMode,
		Clipped:          true,
		OldSwapchain:     old,
	})
	if err != nil {
		return vkerr.Classify("vkCreateSwapchainKHR", int32(err.(vk.Result)))
	}

	s.destroySwapchainResources(dev)
	if old != (vk.SwapchainKHR{}) {
		raw.DestroySwapchainKHR(old)
	}
	s.swapchain = swapchain

	images, err := raw.GetSwapchainImagesKHR(swapchain)
	if err != nil {
		return vkerr.Classify("vkGetSwapchainImagesKHR", int32(err.(vk.Result)))
	}
	s.images = images

	views, err := vk.CreateSwapchainImageViews(raw, images, s.format.Format)
	if err != nil {
		return vkerr.Classify("vkCreateImageView", int32(err.(vk.Result)))
	}
	s.views = views

	s.acquireSemaphores = make([]vk.Semaphore, len(images))
	s.presentSemaphores = make([]vk.Semaphore, len(images))
	for i := range images {
		s.acquireSemaphores[i], err = raw.CreateSemaphore(&vk.SemaphoreCreateInfo{})
		if err != nil {
			return vkerr.Classify("vkCreateSemaphore", int32(err.(vk.Result)))
		}
		s.presentSemaphores[i], err = raw.CreateSemaphore(&vk.SemaphoreCreateInfo{})
		if err != nil {
			return vkerr.Classify("vkCreateSemaphore", int32(err.(vk.Result)))
		}
	}

	s.log.Info("swapchain recreated", "width", s.extent.Width, "height", s.extent.Height, "images", len(images))
	return nil
}

func (s *Surface) destroySwapchainResources(dev *device.Device) {
	raw := dev.Raw()
	for _, v := range s.views {
		raw.DestroyImageView(v)
	}
	for _, sem := range s.acquireSemaphores {
		if sem != (vk.Semaphore{}) {
			raw.DestroySemaphore(sem)
		}
	}
	for _, sem := range s.presentSemaphores {
		if sem != (vk.Semaphore{}) {
			raw.DestroySemaphore(sem)
		}
	}
	s.views = nil
	s.acquireSemaphores = nil
	s.presentSemaphores = nil
}

// AcquireNextImage blocks (infinite timeout) until an image is available.
// isOutdated reports whether the caller must recreate the swapchain before
// using the returned index; when true the index is not meaningful.
func (s *Surface) AcquireNextImage(dev *device.Device) (isOutdated bool, err error) {
	sem := s.acquireSemaphores[s.currentImage]
	idx, err := dev.Raw().AcquireNextImageKHR(s.swapchain, ^uint64(0), sem, vk.Fence{})
	if err != nil {
		if res, ok := err.(vk.Result); ok {
			classified := vkerr.Classify("vkAcquireNextImageKHR", int32(res))
			if isOutOfDate(classified) {
				return true, nil
			}
		}
		return false, err
	}
	s.currentImage = idx
	return false, nil
}

// Present queue-presents the current image. isOutdated reports whether the
// caller must recreate the swapchain; this is not a failure (§7).
func (s *Surface) Present(queue vk.Queue) (isOutdated bool, err error) {
	sem := s.presentSemaphores[s.currentImage]
	presentErr := queue.PresentKHR(&vk.PresentInfoKHR{
		WaitSemaphores: []vk.Semaphore{sem},
		Swapchains:     []vk.SwapchainKHR{s.swapchain},
		ImageIndices:   []uint32{s.currentImage},
	})
	if presentErr != nil {
		if res, ok := presentErr.(vk.Result); ok {
			classified := vkerr.Classify("vkQueuePresentKHR", int32(res))
			if isOutOfDate(classified) {
				return true, nil
			}
		}
		return false, presentErr
	}
	return false, nil
}

func isOutOfDate(err error) bool {
	return err != nil && (errors.Is(err, vkerr.ErrSwapchainOutOfDate) || errors.Is(err, vkerr.ErrSwapchainSuboptimal))
}

// CurrentImageIndex, CurrentView, AcquireSemaphore and PresentSemaphore
// expose the acquired image for the render graph's screen-relative
// resolution and the command recorder's wait/signal registration.
func (s *Surface) CurrentImageIndex() uint32       { return s.currentImage }
func (s *Surface) CurrentView() vk.ImageView       { return s.views[s.currentImage] }
func (s *Surface) CurrentImage() vk.Image          { return s.images[s.currentImage] }
func (s *Surface) AcquireSemaphore() vk.Semaphore  { return s.acquireSemaphores[s.currentImage] }
func (s *Surface) PresentSemaphore() vk.Semaphore  { return s.presentSemaphores[s.currentImage] }
func (s *Surface) Extent() (width, height uint32)  { return s.extent.Width, s.extent.Height }
func (s *Surface) Format() vk.Format               { return s.format.Format }
func (s *Surface) ImageCount() int                 { return len(s.images) }
