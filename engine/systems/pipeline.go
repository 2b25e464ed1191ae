package systems

import (
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
)

// PipelineSystem caches built pipelines by name so render passes share
// them. It must be cleaned up before mesh and texture systems, while the
// device is still alive.
type PipelineSystem struct {
	cache *ResourceCache[*vulkan.VulkanPipeline]
}

func NewPipelineSystem(destroy func(*vulkan.VulkanPipeline)) *PipelineSystem {
	return &PipelineSystem{
		cache: NewResourceCache[*vulkan.VulkanPipeline](destroy),
	}
}

// GetOrCreate returns the named pipeline, building it on first request.
func (ps *PipelineSystem) GetOrCreate(name string, build func() (*vulkan.VulkanPipeline, error)) (*vulkan.VulkanPipeline, error) {
	return ps.cache.GetOrCreate(name, build)
}

// Invalidate drops one pipeline so the next request rebuilds it, used
// when its shader source changes on disk.
func (ps *PipelineSystem) Invalidate(name string) error {
	return ps.cache.Remove(name)
}

// PipelineCount reports cached pipelines.
func (ps *PipelineSystem) PipelineCount() int {
	return ps.cache.Len()
}

// Cleanup destroys every pipeline once.
func (ps *PipelineSystem) Cleanup() {
	ps.cache.Cleanup()
}
