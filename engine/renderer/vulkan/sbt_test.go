package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutShaderBindingTable(t *testing.T) {
	props := GroupHandleProperties{
		HandleSize:      20,
		HandleAlignment: 16,
		BaseAlignment:   64,
	}

	layout, err := LayoutShaderBindingTable(props, 2, 3, 0)
	require.NoError(t, err)

	// Handle size rounds up to the handle alignment.
	assert.Equal(t, vk.DeviceSize(32), layout.Miss.Stride)
	assert.Equal(t, vk.DeviceSize(32), layout.Hit.Stride)

	// Region sizes round up to the base alignment.
	assert.Equal(t, vk.DeviceSize(64), layout.Miss.Size) // 2*32
	assert.Equal(t, vk.DeviceSize(128), layout.Hit.Size) // 3*32 -> 128
	assert.Equal(t, uint32(2), layout.Miss.Count)
	assert.Equal(t, uint32(3), layout.Hit.Count)

	// The raygen region holds exactly one record, size equal to stride.
	assert.Equal(t, uint32(1), layout.RayGen.Count)
	assert.Equal(t, layout.RayGen.Stride, layout.RayGen.Size)
	assert.Equal(t, vk.DeviceSize(64), layout.RayGen.Size)

	// Absent regions stay zero.
	assert.Equal(t, SBTRegionLayout{}, layout.Callable)
}

func TestLayoutShaderBindingTableAlignedHandle(t *testing.T) {
	props := GroupHandleProperties{
		HandleSize:      32,
		HandleAlignment: 32,
		BaseAlignment:   32,
	}

	layout, err := LayoutShaderBindingTable(props, 1, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, vk.DeviceSize(32), layout.Miss.Stride)
	assert.Equal(t, vk.DeviceSize(32), layout.Miss.Size)
	assert.Equal(t, vk.DeviceSize(32), layout.RayGen.Size)
	assert.Equal(t, vk.DeviceSize(32), layout.Callable.Size)
}

func TestLayoutShaderBindingTableRejectsBadProperties(t *testing.T) {
	_, err := LayoutShaderBindingTable(GroupHandleProperties{}, 1, 1, 0)
	assert.Error(t, err)

	_, err = LayoutShaderBindingTable(GroupHandleProperties{
		HandleSize:      32,
		HandleAlignment: 0,
		BaseAlignment:   64,
	}, 1, 1, 0)
	assert.Error(t, err)
}
