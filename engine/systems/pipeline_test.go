package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
)

func TestPipelineSystemBuildsOnce(t *testing.T) {
	ps := NewPipelineSystem(nil)

	builds := 0
	build := func() (*vulkan.VulkanPipeline, error) {
		builds++
		return &vulkan.VulkanPipeline{}, nil
	}

	p1, err := ps.GetOrCreate("scene", build)
	require.NoError(t, err)
	p2, err := ps.GetOrCreate("scene", build)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, ps.PipelineCount())
}

func TestPipelineSystemInvalidateRebuilds(t *testing.T) {
	destroyed := 0
	ps := NewPipelineSystem(func(*vulkan.VulkanPipeline) { destroyed++ })

	builds := 0
	build := func() (*vulkan.VulkanPipeline, error) {
		builds++
		return &vulkan.VulkanPipeline{}, nil
	}

	first, err := ps.GetOrCreate("scene", build)
	require.NoError(t, err)

	require.NoError(t, ps.Invalidate("scene"))
	assert.Equal(t, 1, destroyed)

	second, err := ps.GetOrCreate("scene", build)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, builds)
}

func TestPipelineSystemCleanup(t *testing.T) {
	destroyed := 0
	ps := NewPipelineSystem(func(*vulkan.VulkanPipeline) { destroyed++ })

	_, err := ps.GetOrCreate("a", func() (*vulkan.VulkanPipeline, error) {
		return &vulkan.VulkanPipeline{}, nil
	})
	require.NoError(t, err)

	ps.Cleanup()
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, 0, ps.PipelineCount())
}
