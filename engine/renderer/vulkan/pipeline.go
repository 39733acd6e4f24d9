package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/renderer"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	context *VulkanContext
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
	/** @brief Render pass the pipeline was created against. Swapchain passes with the same formats are compatible. */
	Renderpass *VulkanRenderpass
}

func vertexInputState(desc renderer.ShaderSetDescription) ([]vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	var bindings []vk.VertexInputBindingDescription
	var attributes []vk.VertexInputAttributeDescription
	location := uint32(0)
	for binding, layout := range desc.VertexLayouts {
		bindings = append(bindings, vk.VertexInputBindingDescription{
			Binding:   uint32(binding),
			Stride:    layout.Stride,
			InputRate: vk.VertexInputRateVertex,
		})
		for _, element := range layout.Elements {
			attributes = append(attributes, vk.VertexInputAttributeDescription{
				Binding:  uint32(binding),
				Location: location,
				Format:   vkVertexFormat(element.Format),
				Offset:   element.Offset,
			})
			location++
		}
	}
	return bindings, attributes
}

func NewGraphicsPipeline(context *VulkanContext, desc renderer.GraphicsPipelineDescription) (*VulkanPipeline, error) {
	if len(desc.ShaderSet.Shaders) == 0 {
		return nil, errors.New("pipeline requires shaders")
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(desc.ShaderSet.Shaders))
	for _, s := range desc.ShaderSet.Shaders {
		shader, ok := s.(*VulkanShader)
		if !ok {
			return nil, errors.Errorf("shader %T was not created by a vulkan device", s)
		}
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vkShaderStage(shader.Stage()),
			Module: shader.Module,
			PName:  VulkanSafeString(shader.EntryPoint()),
		})
	}

	bindings, attributes := vertexInputState(desc.ShaderSet)
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vkTopology(desc.PrimitiveTopology),
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are dynamic, set when the pipeline is bound.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Depth clamping needs a device feature that is not enabled.
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vkPolygonMode(desc.RasterizerState.FillMode),
		LineWidth:               1.0,
		CullMode:                vkCullMode(desc.RasterizerState.CullMode),
		FrontFace:               vkFrontFace(desc.RasterizerState.FrontFace),
		DepthBiasEnable:         vk.False,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(desc.DepthStencilState.DepthTestEnabled),
		DepthWriteEnable:      vkBool(desc.DepthStencilState.DepthWriteEnabled),
		DepthCompareOp:        vkCompareOp(desc.DepthStencilState.DepthComparison),
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0,
		MaxDepthBounds:        1,
		StencilTestEnable:     vk.False,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vkBool(desc.BlendState.BlendEnabled),
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit,
		),
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	outPipeline := &VulkanPipeline{context: context}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	if err := checkResult(vk.CreatePipelineLayout(context.Device.LogicalDevice, &pipelineLayoutCreateInfo, context.Allocator, &outPipeline.PipelineLayout), "vkCreatePipelineLayout"); err != nil {
		return nil, err
	}

	renderpass, err := renderpassForOutputs(context, desc.Outputs)
	if err != nil {
		outPipeline.Dispose()
		return nil, errors.Wrap(err, "creating compatible render pass")
	}
	outPipeline.Renderpass = renderpass

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicState,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	if renderpass.DepthFormat != vk.FormatUndefined {
		pipelineCreateInfo.PDepthStencilState = &depthStencil
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(context.Device.LogicalDevice, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, context.Allocator, pipelines)
	if err := checkResult(res, "vkCreateGraphicsPipelines"); err != nil {
		outPipeline.Dispose()
		return nil, err
	}
	outPipeline.Handle = pipelines[0]
	return outPipeline, nil
}

func (vp *VulkanPipeline) Dispose() {
	if vp.context == nil {
		return
	}
	logical := vp.context.Device.LogicalDevice
	if vp.Handle != nil {
		vk.DestroyPipeline(logical, vp.Handle, vp.context.Allocator)
		vp.Handle = nil
	}
	if vp.Renderpass != nil {
		vp.Renderpass.Destroy(vp.context)
		vp.Renderpass = nil
	}
	if vp.PipelineLayout != nil {
		vk.DestroyPipelineLayout(logical, vp.PipelineLayout, vp.context.Allocator)
		vp.PipelineLayout = nil
	}
	vp.context = nil
}
