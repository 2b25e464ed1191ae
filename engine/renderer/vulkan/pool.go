package vulkan

import "sync"

type LockGroup string

const (
	BufferManagement          LockGroup = "buffer_management"
	CommandBufferManagement   LockGroup = "command_buffer_management"
	ImageManagement           LockGroup = "image_management"
	PipelineManagement        LockGroup = "pipeline_management"
	QueueManagement           LockGroup = "queue_management"
	SwapchainManagement       LockGroup = "swapchain_management"
	SynchronizationManagement LockGroup = "synchronization_management"
)

// VulkanLockPool serializes access to device objects that the loader does
// not allow to be recorded or destroyed concurrently.
type VulkanLockPool struct {
	locks map[LockGroup]*sync.Mutex
	mu    sync.Mutex // Protects access to the locks map
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

func (vs *VulkanLockPool) setLock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, exists := vs.locks[group]; !exists {
		vs.locks[group] = &sync.Mutex{}
	}
	vs.locks[group].Lock()

	return vs.locks[group]
}

// SafeCall runs fn while holding the lock of the given group.
func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.setLock(group)
	defer l.Unlock()

	return fn()
}

var lockPool = NewVulkanLockPool()
