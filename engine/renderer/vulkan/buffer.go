package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// GpuBuffer is a device buffer together with its backing allocation.
type GpuBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlags
}

// NewGpuBuffer creates a buffer of the given size and binds fresh memory
// with the requested properties to it.
func NewGpuBuffer(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*GpuBuffer, error) {
	buffer := &GpuBuffer{
		Size:  size,
		Usage: usage,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create buffer: %s", VulkanResultString(res))
	}
	buffer.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryIndex := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex == -1 {
		vk.DestroyBuffer(context.Device.LogicalDevice, buffer.Handle, context.Allocator)
		return nil, fmt.Errorf("no suitable memory type for buffer")
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(context.Device.LogicalDevice, buffer.Handle, context.Allocator)
		return nil, fmt.Errorf("failed to allocate buffer memory: %s", VulkanResultString(res))
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		return nil, fmt.Errorf("failed to bind buffer memory: %s", VulkanResultString(res))
	}

	return buffer, nil
}

// LoadData copies data into a host-visible buffer via a map/unmap cycle.
func (b *GpuBuffer) LoadData(context *VulkanContext, offset vk.DeviceSize, data []byte) error {
	if vk.DeviceSize(len(data))+offset > b.Size {
		return fmt.Errorf("buffer load of %d bytes at offset %d exceeds size %d", len(data), offset, b.Size)
	}

	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, b.Memory, offset, vk.DeviceSize(len(data)), 0, &mapped); res != vk.Success {
		return fmt.Errorf("failed to map buffer memory: %s", VulkanResultString(res))
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	return nil
}

// CopyTo records and submits a single-use transfer of size bytes into dst.
func (b *GpuBuffer) CopyTo(context *VulkanContext, dst *GpuBuffer, size vk.DeviceSize) error {
	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}

	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}
	vk.CmdCopyBuffer(cb.Handle, b.Handle, dst.Handle, 1, []vk.BufferCopy{copyRegion})

	return cb.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue)
}

// UploadDeviceLocal creates a device-local buffer with the given usage and
// fills it with data through a transient staging buffer.
func UploadDeviceLocal(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*GpuBuffer, error) {
	size := vk.DeviceSize(len(data))
	if size == 0 {
		return nil, fmt.Errorf("refusing to upload an empty buffer")
	}

	staging, err := NewGpuBuffer(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, data); err != nil {
		return nil, err
	}

	deviceLocal, err := NewGpuBuffer(
		context,
		size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	if err := staging.CopyTo(context, deviceLocal, size); err != nil {
		deviceLocal.Destroy(context)
		return nil, err
	}

	return deviceLocal, nil
}

func (b *GpuBuffer) Destroy(context *VulkanContext) {
	lockPool.SafeCall(BufferManagement, func() error {
		if b.Memory != nil {
			vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
			b.Memory = nil
		}
		if b.Handle != nil {
			vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
			b.Handle = nil
		}
		b.Size = 0
		return nil
	})
}
