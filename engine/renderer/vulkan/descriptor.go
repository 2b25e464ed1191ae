package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// DescriptorSetLayoutBuilder accumulates bindings and turns them into a
// descriptor set layout in one call.
type DescriptorSetLayoutBuilder struct {
	bindings []vk.DescriptorSetLayoutBinding
}

func NewDescriptorSetLayoutBuilder() *DescriptorSetLayoutBuilder {
	return &DescriptorSetLayoutBuilder{}
}

func (b *DescriptorSetLayoutBuilder) AddBinding(binding uint32, descriptorType vk.DescriptorType, count uint32, stages vk.ShaderStageFlags) *DescriptorSetLayoutBuilder {
	b.bindings = append(b.bindings, vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  descriptorType,
		DescriptorCount: count,
		StageFlags:      stages,
	})
	return b
}

func (b *DescriptorSetLayoutBuilder) Build(context *VulkanContext) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(b.bindings)),
		PBindings:    b.bindings,
	}

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		return nil, fmt.Errorf("failed to create descriptor set layout: %s", VulkanResultString(res))
	}
	return layout, nil
}

// DescriptorPoolCreate makes a pool able to hold maxSets sets drawn from
// the given size list.
func DescriptorPoolCreate(context *VulkanContext, maxSets uint32, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
		MaxSets:       maxSets,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		return nil, fmt.Errorf("failed to create descriptor pool: %s", VulkanResultString(res))
	}
	return pool, nil
}

func DescriptorSetAllocate(context *VulkanContext, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}

	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0]); res != vk.Success {
		return nil, fmt.Errorf("failed to allocate descriptor set: %s", VulkanResultString(res))
	}
	return sets[0], nil
}
