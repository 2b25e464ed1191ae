package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
)

// VulkanPipeline holds a pipeline and its layout.
type VulkanPipeline struct {
	Handle         vk.Pipeline
	PipelineLayout vk.PipelineLayout
}

// PipelineBuilder accumulates raster pipeline state and validates it
// before creation. Viewport and scissor are always dynamic, so pipelines
// survive window resizes.
type PipelineBuilder struct {
	renderpass           *VulkanRenderpass
	stride               uint32
	attributes           []vk.VertexInputAttributeDescription
	descriptorSetLayouts []vk.DescriptorSetLayout
	stages               []vk.PipelineShaderStageCreateInfo
	pushConstantRanges   []vk.PushConstantRange
	cullMode             vk.CullModeFlagBits
	frontFace            vk.FrontFace
	depthTest            bool
	depthWrite           bool
	wireframe            bool
	blendEnabled         bool
}

func NewPipelineBuilder(renderpass *VulkanRenderpass) *PipelineBuilder {
	return &PipelineBuilder{
		renderpass: renderpass,
		cullMode:   vk.CullModeBackBit,
		frontFace:  vk.FrontFaceCounterClockwise,
	}
}

func (pb *PipelineBuilder) WithVertexInput(stride uint32, attributes []vk.VertexInputAttributeDescription) *PipelineBuilder {
	pb.stride = stride
	pb.attributes = attributes
	return pb
}

func (pb *PipelineBuilder) WithDescriptorSetLayouts(layouts ...vk.DescriptorSetLayout) *PipelineBuilder {
	pb.descriptorSetLayouts = layouts
	return pb
}

func (pb *PipelineBuilder) WithStage(stage *ShaderStage) *PipelineBuilder {
	pb.stages = append(pb.stages, stage.StageInfo)
	return pb
}

// WithPushConstantRange declares a push constant block. Vulkan only
// guarantees 128 bytes of push constant space, so larger sizes fail validation.
func (pb *PipelineBuilder) WithPushConstantRange(stages vk.ShaderStageFlags, offset, size uint32) *PipelineBuilder {
	pb.pushConstantRanges = append(pb.pushConstantRanges, vk.PushConstantRange{
		StageFlags: stages,
		Offset:     offset,
		Size:       size,
	})
	return pb
}

func (pb *PipelineBuilder) WithCullMode(mode vk.CullModeFlagBits) *PipelineBuilder {
	pb.cullMode = mode
	return pb
}

func (pb *PipelineBuilder) WithFrontFace(front vk.FrontFace) *PipelineBuilder {
	pb.frontFace = front
	return pb
}

func (pb *PipelineBuilder) WithDepth(test, write bool) *PipelineBuilder {
	pb.depthTest = test
	pb.depthWrite = write
	return pb
}

func (pb *PipelineBuilder) WithWireframe(wireframe bool) *PipelineBuilder {
	pb.wireframe = wireframe
	return pb
}

func (pb *PipelineBuilder) WithBlending(enabled bool) *PipelineBuilder {
	pb.blendEnabled = enabled
	return pb
}

// Check validates the accumulated state without touching the device.
func (pb *PipelineBuilder) Check() error {
	if pb.renderpass == nil {
		return fmt.Errorf("pipeline requires a render pass")
	}
	if len(pb.stages) == 0 {
		return fmt.Errorf("pipeline requires at least one shader stage")
	}
	hasVertex := false
	for _, stage := range pb.stages {
		if stage.Stage == vk.ShaderStageVertexBit {
			hasVertex = true
		}
	}
	if !hasVertex {
		return fmt.Errorf("pipeline requires a vertex stage")
	}
	for _, r := range pb.pushConstantRanges {
		if r.Offset+r.Size > 128 {
			return fmt.Errorf("push constant range [%d, %d) exceeds the guaranteed 128 bytes", r.Offset, r.Offset+r.Size)
		}
	}
	return nil
}

// Build creates the pipeline layout and the graphics pipeline.
func (pb *PipelineBuilder) Build(context *VulkanContext) (*VulkanPipeline, error) {
	if err := pb.Check(); err != nil {
		return nil, err
	}

	outPipeline := &VulkanPipeline{}

	// Placeholder values; viewport and scissor are dynamic.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports: []vk.Viewport{{
			Width:    float32(context.FramebufferWidth),
			Height:   float32(context.FramebufferHeight),
			MinDepth: 0,
			MaxDepth: 1,
		}},
		ScissorCount: 1,
		PScissors: []vk.Rect2D{{
			Extent: vk.Extent2D{Width: context.FramebufferWidth, Height: context.FramebufferHeight},
		}},
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(pb.cullMode),
		FrontFace:               pb.frontFace,
		DepthBiasEnable:         vk.False,
	}
	if pb.wireframe {
		rasterizerCreateInfo.PolygonMode = vk.PolygonModeLine
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		PSampleMask:           nil,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		StencilTestEnable: vk.False,
	}
	if pb.depthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthCompareOp = vk.CompareOpLess
		depthStencil.DepthBoundsTestEnable = vk.False
	}
	if pb.depthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if pb.blendEnabled {
		colorBlendAttachmentState.BlendEnable = vk.True
		colorBlendAttachmentState.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		colorBlendAttachmentState.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		colorBlendAttachmentState.ColorBlendOp = vk.BlendOpAdd
		colorBlendAttachmentState.SrcAlphaBlendFactor = vk.BlendFactorSrcAlpha
		colorBlendAttachmentState.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		colorBlendAttachmentState.AlphaBlendOp = vk.BlendOpAdd
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if pb.stride > 0 {
		bindingDescription := vk.VertexInputBindingDescription{
			Binding:   0,
			Stride:    pb.stride,
			InputRate: vk.VertexInputRateVertex,
		}
		vertexInputInfo.VertexBindingDescriptionCount = 1
		vertexInputInfo.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{bindingDescription}
		vertexInputInfo.VertexAttributeDescriptionCount = uint32(len(pb.attributes))
		vertexInputInfo.PVertexAttributeDescriptions = pb.attributes
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(pb.descriptorSetLayouts)),
		PSetLayouts:            pb.descriptorSetLayouts,
		PushConstantRangeCount: uint32(len(pb.pushConstantRanges)),
		PPushConstantRanges:    pb.pushConstantRanges,
	}

	var pPipelineLayout vk.PipelineLayout
	if err := lockPool.SafeCall(PipelineManagement, func() error {
		result := vk.CreatePipelineLayout(
			context.Device.LogicalDevice,
			&pipelineLayoutCreateInfo,
			context.Allocator,
			&pPipelineLayout)
		if !VulkanResultIsSuccess(result) {
			return fmt.Errorf("vkCreatePipelineLayout failed with %s", VulkanResultString(result))
		}
		outPipeline.PipelineLayout = pPipelineLayout
		return nil
	}); err != nil {
		return nil, err
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(pb.stages)),
		PStages:             pb.stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		PTessellationState:  nil,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          pb.renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pPipelines := make([]vk.Pipeline, 1)
	if err := lockPool.SafeCall(PipelineManagement, func() error {
		result := vk.CreateGraphicsPipelines(
			context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			context.Allocator,
			pPipelines)
		if !VulkanResultIsSuccess(result) {
			return fmt.Errorf("vkCreateGraphicsPipelines failed with %s", VulkanResultString(result))
		}
		return nil
	}); err != nil {
		outPipeline.Destroy(context)
		return nil, err
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Graphics pipeline created.")
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext) error {
	return lockPool.SafeCall(PipelineManagement, func() error {
		if pipeline.Handle != nil {
			vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
			pipeline.Handle = nil
		}
		if pipeline.PipelineLayout != nil {
			vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.PipelineLayout, context.Allocator)
			pipeline.PipelineLayout = nil
		}
		return nil
	})
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer, bindPoint vk.PipelineBindPoint) error {
	return lockPool.SafeCall(CommandBufferManagement, func() error {
		vk.CmdBindPipeline(commandBuffer.Handle, bindPoint, pipeline.Handle)
		return nil
	})
}
