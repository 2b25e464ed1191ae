package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	emath "github.com/lwjglgamedev/vulkanbook-go/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat       vk.SurfaceFormat
	MaxFramesInFlight uint8
	Handle            vk.Swapchain
	Extent            vk.Extent2D
	ImageCount        uint32
	Images            []vk.Image
	Views             []vk.ImageView

	DepthAttachment *VulkanImage

	// framebuffers used for on-screen rendering.
	Framebuffers []*VulkanFramebuffer

	requestedImages uint32
	vsync           bool
}

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

// SwapchainCreate builds a swapchain sized to the current framebuffer.
// requestedImages is a preference; the actual count is clamped to what the
// surface supports. With vsync off a mailbox present mode is used when
// available, with vsync on the swapchain always presents FIFO.
func SwapchainCreate(context *VulkanContext, width, height, requestedImages uint32, vsync bool, framesInFlight uint8) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{
		MaxFramesInFlight: framesInFlight,
		requestedImages:   requestedImages,
		vsync:             vsync,
	}
	if err := swapchain.create(context, width, height); err != nil {
		return nil, err
	}
	return swapchain, nil
}

func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width uint32, height uint32) error {
	vs.destroySwapchain(context)
	return vs.create(context, width, height)
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// SwapchainAcquireNextImageIndex blocks until an image is available or
// timeoutNS elapses. It returns core.ErrSwapchainBooting after recreating
// the swapchain on an out-of-date result; the caller must abandon the frame.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailableSemaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNS, imageAvailableSemaphore, fence, &imageIndex)

	if result == vk.ErrorOutOfDate {
		// Recreate the swapchain, then boot out of the render loop.
		if err := vs.SwapchainRecreate(context, context.FramebufferWidth, context.FramebufferHeight); err != nil {
			return 0, err
		}
		return 0, core.ErrSwapchainBooting
	} else if result != vk.Success && result != vk.Suboptimal {
		return 0, fmt.Errorf("failed to acquire swapchain image: %s", VulkanResultString(result))
	}

	return imageIndex, nil
}

// SwapchainPresent returns the image to the swapchain for presentation. A
// suboptimal or out-of-date result recreates the swapchain and reports
// core.ErrSwapchainBooting.
func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
		PResults:           nil,
	}

	var result vk.Result
	lockPool.SafeCall(QueueManagement, func() error {
		result = vk.QueuePresent(presentQueue, &presentInfo)
		return nil
	})
	if result == vk.ErrorOutOfDate || result == vk.Suboptimal {
		// Out of date, suboptimal or a framebuffer resize occurred.
		if err := vs.SwapchainRecreate(context, context.FramebufferWidth, context.FramebufferHeight); err != nil {
			return err
		}
		return core.ErrSwapchainBooting
	} else if result != vk.Success {
		return fmt.Errorf("failed to present swapchain image: %s", VulkanResultString(result))
	}
	return nil
}

func (vs *VulkanSwapchain) create(context *VulkanContext, width, height uint32) error {
	swapchainExtent := vk.Extent2D{
		Width:  width,
		Height: height,
	}

	// Requery support; capabilities change when the surface is resized.
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, &context.Device.SwapchainSupport); err != nil {
		return err
	}
	support := &context.Device.SwapchainSupport

	// Choose a swap surface format.
	found := false
	for i := 0; i < int(support.FormatCount); i++ {
		format := support.Formats[i]
		// Preferred formats
		if format.Format == vk.FormatB8g8r8a8Unorm &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			vs.ImageFormat = format
			found = true
		}
	}
	if !found {
		vs.ImageFormat = support.Formats[0]
	}

	presentMode := vk.PresentModeFifo
	if !vs.vsync {
		for i := 0; i < int(support.PresentModeCount); i++ {
			mode := support.PresentModes[i]
			if mode == vk.PresentModeMailbox {
				presentMode = mode
				break
			}
		}
	}

	// Swapchain extent
	if support.Capabilities.CurrentExtent.Width != math.MaxUint32 {
		swapchainExtent = support.Capabilities.CurrentExtent
	}

	// Clamp to the value allowed by the GPU.
	minExtent := support.Capabilities.MinImageExtent
	maxExtent := support.Capabilities.MaxImageExtent
	swapchainExtent.Width = emath.Clamp(swapchainExtent.Width, minExtent.Width, maxExtent.Width)
	swapchainExtent.Height = emath.Clamp(swapchainExtent.Height, minExtent.Height, maxExtent.Height)

	imageCount := vs.requestedImages
	if imageCount < support.Capabilities.MinImageCount {
		imageCount = support.Capabilities.MinImageCount
	}
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}
	if imageCount < vs.requestedImages {
		core.LogWarn("Requested %d swapchain images but the surface allows %d.", vs.requestedImages, imageCount)
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      vs.ImageFormat.Format,
		ImageColorSpace:  vs.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
	}

	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		queueFamilyIndices := []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = queueFamilyIndices
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
		swapchainCreateInfo.QueueFamilyIndexCount = 0
		swapchainCreateInfo.PQueueFamilyIndices = nil
	}

	swapchainCreateInfo.PreTransform = support.Capabilities.CurrentTransform
	swapchainCreateInfo.CompositeAlpha = vk.CompositeAlphaOpaqueBit
	swapchainCreateInfo.PresentMode = presentMode
	swapchainCreateInfo.Clipped = vk.True
	swapchainCreateInfo.OldSwapchain = nil

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		return fmt.Errorf("failed to create swapchain: %s", VulkanResultString(res))
	}
	vs.Handle = swapchainHandle
	vs.Extent = swapchainExtent

	// Images
	vs.ImageCount = 0
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, vs.Handle, &vs.ImageCount, nil); res != vk.Success {
		return fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
	}
	vs.Images = make([]vk.Image, vs.ImageCount)
	vs.Views = make([]vk.ImageView, vs.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, vs.Handle, &vs.ImageCount, vs.Images); res != vk.Success {
		return fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
	}

	// Views
	for i := 0; i < int(vs.ImageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    vs.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   vs.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &vs.Views[i]); res != vk.Success {
			return fmt.Errorf("failed to create swapchain image view: %s", VulkanResultString(res))
		}
	}

	// Depth resources
	if !DeviceDetectDepthFormat(context.Device) {
		context.Device.DepthFormat = vk.FormatUndefined
		return fmt.Errorf("failed to find a supported depth format")
	}

	depthAttachment, err := ImageCreate(
		context,
		vk.ImageType2d,
		swapchainExtent.Width,
		swapchainExtent.Height,
		context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return err
	}
	vs.DepthAttachment = depthAttachment

	core.LogInfo("Swapchain created with %d images.", vs.ImageCount)

	return nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)
	if vs.DepthAttachment != nil {
		vs.DepthAttachment.ImageDestroy(context)
		vs.DepthAttachment = nil
	}

	// Only the views are destroyed here; the images belong to the swapchain
	// and go away with it.
	for i := 0; i < int(vs.ImageCount); i++ {
		vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
	}

	vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
}
