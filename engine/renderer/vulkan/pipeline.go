package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

/**
 * @brief A compiled SPIR-V module.
 */
type shaderModule struct {
	gpu    *GPU
	handle vk.ShaderModule
}

func (g *GPU) NewShaderModule(code []uint32) (driver.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	var handle vk.ShaderModule
	if err := check("vkCreateShaderModule", vk.CreateShaderModule(g.handle, &createInfo, nil, &handle)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &shaderModule{gpu: g, handle: handle}, nil
}

func (m *shaderModule) Destroy() {
	if m.handle == vk.NullShaderModule {
		return
	}
	vk.DestroyShaderModule(m.gpu.handle, m.handle, nil)
	m.handle = vk.NullShaderModule
}

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type pipeline struct {
	gpu *GPU
	/** @brief The internal pipeline handle. */
	handle vk.Pipeline
	/** @brief The pipeline layout, needed to bind descriptor sets. */
	layout vk.PipelineLayout
}

// NewPipeline creates a graphics pipeline for dynamic rendering. The attachment
// formats are chained in through VkPipelineRenderingCreateInfo instead of a render pass.
func (g *GPU) NewPipeline(desc *driver.PipelineDesc) (driver.Pipeline, error) {
	setLayouts := make([]vk.DescriptorSetLayout, len(desc.SetLayouts))
	for i, l := range desc.SetLayouts {
		setLayouts[i] = l.(*descriptorSetLayout).handle
	}

	p := &pipeline{gpu: g}
	err := check("vkCreatePipelineLayout", vk.CreatePipelineLayout(g.handle, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}, nil, &p.layout))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, len(desc.Stages))
	for i, s := range desc.Stages {
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(s.Stage),
			Module: s.Module.(*shaderModule).handle,
			PName:  VulkanSafeString(s.EntryPoint),
		}
	}

	bindings := make([]vk.VertexInputBindingDescription, len(desc.VertexBindings))
	for i, b := range desc.VertexBindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRateVertex,
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(desc.VertexAttributes))
	for i, a := range desc.VertexAttributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	blendAttachments := make([]vk.PipelineColorBlendAttachmentState, len(desc.ColorBlend))
	for i, b := range desc.ColorBlend {
		blendAttachments[i] = vk.PipelineColorBlendAttachmentState{
			BlendEnable:    bool32(b.BlendEnable),
			ColorWriteMask: vk.ColorComponentFlags(b.WriteMask),
		}
	}

	dynamicStates := make([]vk.DynamicState, len(desc.DynamicStates))
	for i, s := range desc.DynamicStates {
		dynamicStates[i] = vk.DynamicState(s)
	}

	colorFormats := make([]vk.Format, len(desc.ColorFormats))
	for i, f := range desc.ColorFormats {
		colorFormats[i] = vk.Format(f)
	}
	renderingInfo := vk.PipelineRenderingCreateInfo{
		SType:                   vk.StructureTypePipelineRenderingCreateInfo,
		ColorAttachmentCount:    uint32(len(colorFormats)),
		PColorAttachmentFormats: colorFormats,
		DepthAttachmentFormat:   vk.Format(desc.DepthFormat),
	}
	renderingRef, _ := renderingInfo.PassRef()
	defer renderingInfo.Free()

	stencilOp := vk.StencilOpState{
		FailOp:    vk.StencilOpKeep,
		PassOp:    vk.StencilOpKeep,
		CompareOp: vk.CompareOpAlways,
	}
	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		PNext:      unsafe.Pointer(renderingRef),
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopology(desc.Topology),
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: desc.ViewportCount,
			ScissorCount:  desc.ScissorCount,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonMode(desc.PolygonMode),
			CullMode:    vk.CullModeFlags(desc.CullMode),
			FrontFace:   vk.FrontFace(desc.FrontFace),
			LineWidth:   desc.LineWidth,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCountFlagBits(desc.Samples),
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:   bool32(desc.DepthTest),
			DepthWriteEnable:  bool32(desc.DepthWrite),
			DepthCompareOp:    vk.CompareOp(desc.DepthCompare),
			StencilTestEnable: bool32(desc.StencilTest),
			Front:             stencilOp,
			Back:              stencilOp,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: uint32(len(blendAttachments)),
			PAttachments:    blendAttachments,
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		},
		Layout: p.layout,
	}

	pipelines := make([]vk.Pipeline, 1)
	err = g.locks.SafeCall(PipelineManagement, func() error {
		return check("vkCreateGraphicsPipelines", vk.CreateGraphicsPipelines(g.handle, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines))
	})
	if err != nil {
		core.LogError("%s", err)
		vk.DestroyPipelineLayout(g.handle, p.layout, nil)
		return nil, err
	}
	p.handle = pipelines[0]
	core.LogDebug("Graphics pipeline created.")
	return p, nil
}

func (p *pipeline) Destroy() {
	if p.handle != vk.NullPipeline {
		vk.DestroyPipeline(p.gpu.handle, p.handle, nil)
		p.handle = vk.NullPipeline
	}
	if p.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(p.gpu.handle, p.layout, nil)
		p.layout = vk.NullPipelineLayout
	}
}
