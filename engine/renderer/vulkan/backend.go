package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine/config"
	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	"github.com/lwjglgamedev/vulkanbook-go/engine/platform"
)

// VulkanRenderer owns the device context and the frame synchronizer and
// exposes the per-frame begin/end cycle to the renderer frontend.
type VulkanRenderer struct {
	platform                *platform.Platform
	cfg                     *config.Config
	FrameNumber             uint64
	context                 *VulkanContext
	MainRenderpass          *VulkanRenderpass
	FrameSync               *FrameSynchronizer
	cachedFramebufferWidth  uint32
	cachedFramebufferHeight uint32
}

func New(p *platform.Platform, cfg *config.Config) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		cfg:      cfg,
		context: &VulkanContext{
			Allocator: nil,
			Device:    &VulkanDevice{GraphicsQueueIndex: -1, PresentQueueIndex: -1, TransferQueueIndex: -1},
		},
	}
}

// Context exposes the underlying device context to resource code.
func (vr *VulkanRenderer) Context() *VulkanContext {
	return vr.context
}

func (vr *VulkanRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("vulkan loader not found: GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vulkan: %w", err)
	}

	vr.context.Allocator = nil
	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("vulkanbook"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	if vr.cfg.Validate {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogInfo("Required extensions:")
		for i := 0; i < len(requiredExtensions); i++ {
			core.LogInfo(requiredExtensions[i])
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers are opt-in through config and verified against
	// what the loader offers.
	requiredValidationLayerNames := []string{}
	if vr.cfg.Validate {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}

		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			return fmt.Errorf("enumerating instance layers failed with %s", VulkanResultString(res))
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			return fmt.Errorf("enumerating instance layers failed with %s", VulkanResultString(res))
		}

		for i := range requiredValidationLayerNames {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				if requiredValidationLayerNames[i] == vk.ToString(availableLayers[j].LayerName[:]) {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("required validation layer is missing: %s", requiredValidationLayerNames[i])
			}
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		return fmt.Errorf("failed to create vulkan instance: %s", VulkanResultString(res))
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan instance created.")

	if vr.cfg.Validate {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
			PNext:       nil,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			return fmt.Errorf("vkCreateDebugReportCallback failed: %w", err)
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		return fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	sc, err := SwapchainCreate(
		vr.context,
		vr.context.FramebufferWidth,
		vr.context.FramebufferHeight,
		uint32(vr.cfg.RequestedImages),
		vr.cfg.VSync,
		uint8(vr.cfg.FramesInFlight))
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	rp, err := RenderpassCreate(
		vr.context,
		0, 0, float32(vr.context.FramebufferWidth), float32(vr.context.FramebufferHeight),
		0.0, 0.0, 0.2, 1.0,
		1.0,
		0)
	if err != nil {
		return err
	}
	vr.MainRenderpass = rp

	vr.context.Swapchain.Framebuffers = make([]*VulkanFramebuffer, vr.context.Swapchain.ImageCount)
	if err := vr.regenerateFramebuffers(); err != nil {
		return err
	}

	fsync, err := NewFrameSynchronizer(vr.context)
	if err != nil {
		return err
	}
	fsync.OnSwapchainRebuilt = vr.onSwapchainRebuilt
	vr.FrameSync = fsync

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

// Shutdown drains the device and destroys everything in the opposite
// order of creation. Resource caches (pipelines, meshes, textures) must
// be cleaned up by their owners before this is called.
func (vr *VulkanRenderer) Shutdown() error {
	if vr.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	}

	if vr.FrameSync != nil {
		vr.FrameSync.Destroy()
		vr.FrameSync = nil
	}

	if vr.context.Swapchain != nil {
		for _, fb := range vr.context.Swapchain.Framebuffers {
			if fb != nil {
				fb.Destroy(vr.context)
			}
		}
		vr.context.Swapchain.Framebuffers = nil
	}

	if vr.MainRenderpass != nil {
		vr.MainRenderpass.RenderpassDestroy(vr.context)
		vr.MainRenderpass = nil
	}

	if vr.context.Swapchain != nil {
		vr.context.Swapchain.SwapchainDestroy(vr.context)
		vr.context.Swapchain = nil
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
		vr.context.debugMessenger = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
	vr.context.Instance = nil

	return nil
}

// Resized records the new framebuffer size and bumps the size generation;
// the swapchain is rebuilt lazily at the next BeginFrame.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	vr.cachedFramebufferWidth = width
	vr.cachedFramebufferHeight = height
	vr.context.FramebufferSizeGeneration++

	core.LogInfo("Renderer resized: w/h/gen: %d/%d/%d", width, height, vr.context.FramebufferSizeGeneration)
}

// BeginFrame starts the frame cycle and returns the command buffer to
// record into. It returns core.ErrSwapchainBooting when the frame should
// be skipped.
func (vr *VulkanRenderer) BeginFrame() (*VulkanCommandBuffer, error) {
	// Apply a pending resize before the synchronizer looks at the
	// generation counters.
	if vr.context.FramebufferSizeGeneration != vr.context.FramebufferSizeLastGeneration {
		if vr.cachedFramebufferWidth == 0 || vr.cachedFramebufferHeight == 0 {
			// Window minimized; nothing to draw.
			return nil, core.ErrSwapchainBooting
		}
		vr.context.FramebufferWidth = vr.cachedFramebufferWidth
		vr.context.FramebufferHeight = vr.cachedFramebufferHeight
	}

	slot, imageIndex, err := vr.FrameSync.BeginFrame()
	if err != nil {
		return nil, err
	}

	commandBuffer := slot.CommandBuffer

	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(vr.context.FramebufferWidth),
		Height:   float32(vr.context.FramebufferHeight),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{
			Width:  vr.context.FramebufferWidth,
			Height: vr.context.FramebufferHeight,
		},
	}
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})

	vr.MainRenderpass.W = float32(vr.context.FramebufferWidth)
	vr.MainRenderpass.H = float32(vr.context.FramebufferHeight)
	vr.MainRenderpass.RenderpassBegin(commandBuffer, vr.context.Swapchain.Framebuffers[imageIndex].Handle)

	return commandBuffer, nil
}

// EndFrame closes the render pass and submits and presents the frame.
func (vr *VulkanRenderer) EndFrame() error {
	slot := vr.FrameSync.slots[vr.FrameSync.currentFrame]
	vr.MainRenderpass.RenderpassEnd(slot.CommandBuffer)

	if err := vr.FrameSync.EndFrame(); err != nil {
		return err
	}
	vr.FrameNumber++
	return nil
}

func (vr *VulkanRenderer) onSwapchainRebuilt() error {
	for _, fb := range vr.context.Swapchain.Framebuffers {
		if fb != nil {
			fb.Destroy(vr.context)
		}
	}
	vr.context.Swapchain.Framebuffers = make([]*VulkanFramebuffer, vr.context.Swapchain.ImageCount)

	vr.MainRenderpass.X = 0
	vr.MainRenderpass.Y = 0
	vr.MainRenderpass.W = float32(vr.context.FramebufferWidth)
	vr.MainRenderpass.H = float32(vr.context.FramebufferHeight)

	return vr.regenerateFramebuffers()
}

func (vr *VulkanRenderer) regenerateFramebuffers() error {
	swapchain := vr.context.Swapchain
	for i := 0; i < int(swapchain.ImageCount); i++ {
		attachments := []vk.ImageView{
			swapchain.Views[i],
			swapchain.DepthAttachment.View,
		}
		fb, err := FramebufferCreate(vr.context, vr.MainRenderpass, vr.context.FramebufferWidth, vr.context.FramebufferHeight, attachments)
		if err != nil {
			return err
		}
		swapchain.Framebuffers[i] = fb
	}
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("performance: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
