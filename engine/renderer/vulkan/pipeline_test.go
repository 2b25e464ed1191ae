package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func vertexStage() *ShaderStage {
	return &ShaderStage{StageInfo: vk.PipelineShaderStageCreateInfo{
		SType: vk.StructureTypePipelineShaderStageCreateInfo,
		Stage: vk.ShaderStageVertexBit,
	}}
}

func fragmentStage() *ShaderStage {
	return &ShaderStage{StageInfo: vk.PipelineShaderStageCreateInfo{
		SType: vk.StructureTypePipelineShaderStageCreateInfo,
		Stage: vk.ShaderStageFragmentBit,
	}}
}

func TestPipelineBuilderCheck(t *testing.T) {
	renderpass := &VulkanRenderpass{}

	assert.NoError(t, NewPipelineBuilder(renderpass).
		WithStage(vertexStage()).
		WithStage(fragmentStage()).
		Check())

	assert.Error(t, NewPipelineBuilder(nil).
		WithStage(vertexStage()).
		Check(), "missing render pass")

	assert.Error(t, NewPipelineBuilder(renderpass).Check(), "no stages")

	assert.Error(t, NewPipelineBuilder(renderpass).
		WithStage(fragmentStage()).
		Check(), "no vertex stage")
}

func TestPipelineBuilderPushConstantLimit(t *testing.T) {
	renderpass := &VulkanRenderpass{}

	assert.NoError(t, NewPipelineBuilder(renderpass).
		WithStage(vertexStage()).
		WithPushConstantRange(vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, 128).
		Check())

	assert.Error(t, NewPipelineBuilder(renderpass).
		WithStage(vertexStage()).
		WithPushConstantRange(vk.ShaderStageFlags(vk.ShaderStageVertexBit), 64, 128).
		Check())
}
