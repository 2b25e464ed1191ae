package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// NewShaderModule wraps compiled SPIR-V code in a shader module. The code
// must already be validated; see assets.LoadShaderCode.
func NewShaderModule(context *VulkanContext, code []byte) (vk.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    BytesToUint32(code),
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		return nil, fmt.Errorf("failed to create shader module: %s", VulkanResultString(res))
	}
	return module, nil
}

// ShaderStage couples a module with the stage info a pipeline needs.
type ShaderStage struct {
	Module    vk.ShaderModule
	StageInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderStage creates a module from code and prepares its pipeline
// stage description with an optional specialization info block.
func NewShaderStage(context *VulkanContext, code []byte, stage vk.ShaderStageFlagBits, specialization *vk.SpecializationInfo) (*ShaderStage, error) {
	module, err := NewShaderModule(context, code)
	if err != nil {
		return nil, err
	}

	var specializationSlice []vk.SpecializationInfo
	if specialization != nil {
		specializationSlice = []vk.SpecializationInfo{*specialization}
	}

	return &ShaderStage{
		Module: module,
		StageInfo: vk.PipelineShaderStageCreateInfo{
			SType:               vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:               stage,
			Module:              module,
			PName:               VulkanSafeString("main"),
			PSpecializationInfo: specializationSlice,
		},
	}, nil
}

func (s *ShaderStage) Destroy(context *VulkanContext) {
	if s.Module != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Module, context.Allocator)
		s.Module = nil
	}
}
