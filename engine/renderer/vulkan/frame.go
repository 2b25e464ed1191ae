package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
)

// FrameState tracks where a frame slot is in its lifecycle. Transitions
// are validated so misuse of the synchronizer fails loudly instead of
// deadlocking on a fence.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameAcquiring
	FrameRecording
	FrameSubmitted
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAcquiring:
		return "acquiring"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	}
	return "unknown"
}

// ValidFrameTransition reports whether a frame slot may move from one
// state to another. The only legal cycle is idle -> acquiring ->
// recording -> submitted -> idle; additionally any state may fall back to
// idle when a frame is abandoned mid-flight.
func ValidFrameTransition(from, to FrameState) bool {
	if to == FrameIdle {
		return true
	}
	switch from {
	case FrameIdle:
		return to == FrameAcquiring
	case FrameAcquiring:
		return to == FrameRecording
	case FrameRecording:
		return to == FrameSubmitted
	}
	return false
}

// FrameSlot owns the per-frame synchronization objects: one command
// buffer, the acquire and render-complete semaphores and the in-flight
// fence. Slots are reused round-robin by the synchronizer.
type FrameSlot struct {
	CommandBuffer  *VulkanCommandBuffer
	ImageAvailable vk.Semaphore
	RenderComplete vk.Semaphore
	InFlight       *VulkanFence
	State          FrameState

	// armed is true while InFlight is owned by a queue submission. A
	// fence that was reset but whose frame aborted before submit will
	// never signal and must not be waited on.
	armed bool
}

func (fs *FrameSlot) transition(to FrameState) error {
	if !ValidFrameTransition(fs.State, to) {
		return fmt.Errorf("illegal frame transition %s -> %s", fs.State, to)
	}
	fs.State = to
	return nil
}

// FrameSynchronizer drives N frames in flight over the swapchain. The
// fence wait in BeginFrame is the only place the render loop suspends on
// GPU progress; semaphores order acquire, submit and present entirely on
// the device timeline.
type FrameSynchronizer struct {
	context *VulkanContext

	slots []*FrameSlot
	// Fence of the slot that last rendered to each swapchain image, or
	// nil when the image has never been used. Guards against submitting
	// to an image a previous frame still owns.
	imagesInFlight []*VulkanFence

	currentFrame uint32
	imageIndex   uint32

	// waitFence, when set, replaces VulkanFence.FenceWait for all fence
	// waits issued by the synchronizer.
	waitFence func(fence *VulkanFence, timeoutNs uint64) bool

	// OnSwapchainRebuilt is invoked after the swapchain has been
	// recreated so the owner can regenerate size-dependent resources.
	OnSwapchainRebuilt func() error
}

func NewFrameSynchronizer(context *VulkanContext) (*FrameSynchronizer, error) {
	framesInFlight := int(context.Swapchain.MaxFramesInFlight)
	fsync := &FrameSynchronizer{
		context:        context,
		slots:          make([]*FrameSlot, framesInFlight),
		imagesInFlight: make([]*VulkanFence, context.Swapchain.ImageCount),
	}

	for i := 0; i < framesInFlight; i++ {
		slot := &FrameSlot{State: FrameIdle}

		cb, err := NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true)
		if err != nil {
			fsync.Destroy()
			return nil, err
		}
		slot.CommandBuffer = cb

		slot.ImageAvailable, err = NewSemaphore(context)
		if err != nil {
			fsync.Destroy()
			return nil, err
		}
		slot.RenderComplete, err = NewSemaphore(context)
		if err != nil {
			fsync.Destroy()
			return nil, err
		}

		// Created signaled so the first wait on each slot passes.
		slot.InFlight, err = NewFence(context, true)
		if err != nil {
			fsync.Destroy()
			return nil, err
		}

		fsync.slots[i] = slot
	}

	core.LogInfo("Frame synchronizer ready with %d frames in flight.", framesInFlight)
	return fsync, nil
}

func (fs *FrameSynchronizer) wait(fence *VulkanFence, timeoutNs uint64) bool {
	if fs.waitFence != nil {
		return fs.waitFence(fence, timeoutNs)
	}
	return fence.FenceWait(fs.context, timeoutNs)
}

func NewSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreInfo, context.Allocator, &semaphore); res != vk.Success {
		return nil, fmt.Errorf("failed to create semaphore: %s", VulkanResultString(res))
	}
	return semaphore, nil
}

// BeginFrame waits for the current slot's fence, acquires a swapchain
// image and starts recording on the slot's command buffer. It returns
// core.ErrSwapchainBooting when the frame must be abandoned because the
// swapchain was rebuilt; the caller skips rendering and calls BeginFrame
// again on the next iteration.
func (fs *FrameSynchronizer) BeginFrame() (*FrameSlot, uint32, error) {
	context := fs.context

	// A resize happened since the swapchain was created.
	if context.FramebufferSizeGeneration != context.FramebufferSizeLastGeneration {
		if err := fs.rebuildSwapchain(); err != nil {
			return nil, 0, err
		}
		return nil, 0, core.ErrSwapchainBooting
	}

	slot := fs.slots[fs.currentFrame]
	if err := slot.transition(FrameAcquiring); err != nil {
		return nil, 0, err
	}

	// The sole CPU suspension point of the frame loop. A slot whose
	// previous frame aborted after the fence reset has nothing on the
	// queue, so there is nothing to wait for.
	if slot.armed || slot.InFlight.IsSignaled {
		if !fs.wait(slot.InFlight, math.MaxUint64) {
			slot.State = FrameIdle
			return nil, 0, fmt.Errorf("in-flight fence wait failed for frame %d", fs.currentFrame)
		}
	}

	imageIndex, err := context.Swapchain.SwapchainAcquireNextImageIndex(context, math.MaxUint64, slot.ImageAvailable, nil)
	if err != nil {
		slot.State = FrameIdle
		if err == core.ErrSwapchainBooting {
			fs.onRebuilt()
		}
		return nil, 0, err
	}
	fs.imageIndex = imageIndex

	// If a previous frame is still rendering to this image, wait on its
	// fence too.
	if prev := fs.imagesInFlight[imageIndex]; prev != nil && prev != slot.InFlight {
		if !fs.wait(prev, math.MaxUint64) {
			slot.State = FrameIdle
			return nil, 0, fmt.Errorf("in-flight fence wait failed for image %d", imageIndex)
		}
	}

	if err := slot.InFlight.FenceReset(context); err != nil {
		slot.State = FrameIdle
		return nil, 0, err
	}
	slot.armed = false

	if err := slot.CommandBuffer.Reset(); err != nil {
		slot.State = FrameIdle
		return nil, 0, err
	}
	if err := slot.CommandBuffer.Begin(false, false, false); err != nil {
		slot.State = FrameIdle
		return nil, 0, err
	}

	if err := slot.transition(FrameRecording); err != nil {
		return nil, 0, err
	}
	return slot, imageIndex, nil
}

// EndFrame finishes recording, submits the slot's command buffer and
// presents the acquired image. The slot's fence signals when the GPU is
// done with the submission.
func (fs *FrameSynchronizer) EndFrame() error {
	context := fs.context
	slot := fs.slots[fs.currentFrame]

	if err := slot.CommandBuffer.End(); err != nil {
		slot.State = FrameIdle
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{slot.ImageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{slot.CommandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderComplete},
	}

	var res vk.Result
	lockPool.SafeCall(QueueManagement, func() error {
		res = vk.QueueSubmit(context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, slot.InFlight.Handle)
		return nil
	})
	if res != vk.Success {
		slot.State = FrameIdle
		return fmt.Errorf("queue submit failed: %s", VulkanResultString(res))
	}
	slot.armed = true
	// The fence now guards the acquired image; publishing it earlier
	// would let a later frame wait on a fence no submit ever armed.
	fs.imagesInFlight[fs.imageIndex] = slot.InFlight
	slot.CommandBuffer.UpdateSubmitted()
	if err := slot.transition(FrameSubmitted); err != nil {
		return err
	}

	err := context.Swapchain.SwapchainPresent(context, context.Device.PresentQueue, slot.RenderComplete, fs.imageIndex)
	slot.State = FrameIdle
	fs.currentFrame = (fs.currentFrame + 1) % uint32(len(fs.slots))
	if err != nil {
		if err == core.ErrSwapchainBooting {
			fs.onRebuilt()
		}
		return err
	}
	return nil
}

func (fs *FrameSynchronizer) rebuildSwapchain() error {
	context := fs.context
	if err := context.Swapchain.SwapchainRecreate(context, context.FramebufferWidth, context.FramebufferHeight); err != nil {
		return err
	}
	context.FramebufferSizeLastGeneration = context.FramebufferSizeGeneration
	fs.onRebuilt()
	return nil
}

func (fs *FrameSynchronizer) onRebuilt() {
	fs.imagesInFlight = make([]*VulkanFence, fs.context.Swapchain.ImageCount)
	for _, slot := range fs.slots {
		slot.State = FrameIdle
	}
	if fs.OnSwapchainRebuilt != nil {
		if err := fs.OnSwapchainRebuilt(); err != nil {
			core.LogError("swapchain rebuild callback failed: %s", err)
		}
	}
}

// Drain blocks until every in-flight frame has completed. Call before
// destroying anything the GPU might still be reading. Slots whose fence
// was reset but never armed by a submit are skipped: such a fence will
// never signal, and the aborted frame has no work on the queue.
func (fs *FrameSynchronizer) Drain() {
	for _, slot := range fs.slots {
		if slot == nil || slot.InFlight == nil || !slot.armed {
			continue
		}
		fs.wait(slot.InFlight, math.MaxUint64)
	}
	if fs.context.Device != nil && fs.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(fs.context.Device.LogicalDevice)
	}
}

// Destroy drains and releases all slot resources.
func (fs *FrameSynchronizer) Destroy() {
	if fs.context.Device != nil && fs.context.Device.LogicalDevice != nil {
		fs.Drain()
	}
	for _, slot := range fs.slots {
		if slot == nil {
			continue
		}
		if slot.ImageAvailable != nil {
			vk.DestroySemaphore(fs.context.Device.LogicalDevice, slot.ImageAvailable, fs.context.Allocator)
			slot.ImageAvailable = nil
		}
		if slot.RenderComplete != nil {
			vk.DestroySemaphore(fs.context.Device.LogicalDevice, slot.RenderComplete, fs.context.Allocator)
			slot.RenderComplete = nil
		}
		if slot.InFlight != nil {
			slot.InFlight.FenceDestroy(fs.context)
			slot.InFlight = nil
		}
		if slot.CommandBuffer != nil && slot.CommandBuffer.Handle != nil {
			slot.CommandBuffer.Free(fs.context, fs.context.Device.GraphicsCommandPool)
			slot.CommandBuffer = nil
		}
	}
	fs.imagesInFlight = nil
}
