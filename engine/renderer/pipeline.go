package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// PipelineBuilder assembles the description of the mesh pipeline. Attachment
// formats are declared on the pipeline itself since rendering happens without
// render pass objects.
type PipelineBuilder struct {
	desc driver.PipelineDesc
}

// NewPipelineBuilder starts from the fixed mesh state: Vertex input, filled
// triangle lists with counter-clockwise front faces and no culling, depth test
// and write with less-or-equal, one opaque color attachment and dynamic
// viewport and scissor.
func NewPipelineBuilder() *PipelineBuilder {
	return &PipelineBuilder{
		desc: driver.PipelineDesc{
			VertexBindings: []driver.VertexBinding{{
				Binding: 0,
				Stride:  uint32(unsafe.Sizeof(Vertex{})),
			}},
			VertexAttributes: []driver.VertexAttribute{
				{
					Location: 0,
					Binding:  0,
					Format:   driver.FormatR32G32B32Sfloat,
					Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
				},
				{
					Location: 1,
					Binding:  0,
					Format:   driver.FormatR32G32B32A32Sfloat,
					Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
				},
			},
			Topology:     driver.TopologyTriangleList,
			PolygonMode:  driver.PolygonModeFill,
			CullMode:     driver.CullModeNone,
			FrontFace:    driver.FrontFaceCounterClockwise,
			LineWidth:    1.0,
			Samples:      1,
			DepthTest:    true,
			DepthWrite:   true,
			DepthCompare: driver.CompareOpLessOrEqual,
			StencilTest:  false,
			ColorBlend: []driver.ColorBlendAttachment{{
				BlendEnable: false,
				WriteMask:   driver.ColorComponentAll,
			}},
			DynamicStates: []driver.DynamicState{driver.DynamicStateViewport, driver.DynamicStateScissor},
			ViewportCount: 1,
			ScissorCount:  1,
			DepthFormat:   DepthFormat,
		},
	}
}

func (b *PipelineBuilder) WithStage(stage driver.ShaderStage, module driver.ShaderModule, entryPoint string) *PipelineBuilder {
	b.desc.Stages = append(b.desc.Stages, driver.ShaderStageDesc{
		Stage:      stage,
		Module:     module,
		EntryPoint: entryPoint,
	})
	return b
}

func (b *PipelineBuilder) WithColorFormat(format driver.Format) *PipelineBuilder {
	b.desc.ColorFormats = []driver.Format{format}
	return b
}

func (b *PipelineBuilder) WithDepthFormat(format driver.Format) *PipelineBuilder {
	b.desc.DepthFormat = format
	return b
}

func (b *PipelineBuilder) WithSetLayout(layout driver.DescriptorSetLayout) *PipelineBuilder {
	b.desc.SetLayouts = append(b.desc.SetLayouts, layout)
	return b
}

func (b *PipelineBuilder) WithCullMode(mode driver.CullMode) *PipelineBuilder {
	b.desc.CullMode = mode
	return b
}

// Desc returns a copy of the description built so far.
func (b *PipelineBuilder) Desc() driver.PipelineDesc {
	return b.desc
}

func (b *PipelineBuilder) Build(gpu driver.GPU) (driver.Pipeline, error) {
	if len(b.desc.Stages) == 0 {
		err := fmt.Errorf("%w: no shader stages", ErrPipelineRejected)
		core.LogError("%s", err)
		return nil, err
	}
	if len(b.desc.ColorFormats) == 0 {
		err := fmt.Errorf("%w: no color attachment format", ErrPipelineRejected)
		core.LogError("%s", err)
		return nil, err
	}
	desc := b.desc
	p, err := gpu.NewPipeline(&desc)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPipelineRejected, err)
		core.LogError("%s", err)
		return nil, err
	}
	return p, nil
}
