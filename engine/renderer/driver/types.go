package driver

// Enumerations carry the numeric values of their Vulkan counterparts.

type Format int32

const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
	FormatD16Unorm           Format = 124
)

type ColorSpace int32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type PresentMode int32

const (
	PresentModeImmediate PresentMode = 0
	PresentModeMailbox   PresentMode = 1
	PresentModeFifo      PresentMode = 2
)

type SurfaceTransform uint32

const SurfaceTransformIdentity SurfaceTransform = 0x1

type Extent2D struct {
	Width, Height uint32
}

type Offset2D struct {
	X, Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount of zero means there is no upper bound.
	MaxImageCount uint32
	// CurrentExtent is (0xFFFFFFFF, 0xFFFFFFFF) when the surface size is decided by the swapchain.
	CurrentExtent       Extent2D
	MinImageExtent      Extent2D
	MaxImageExtent      Extent2D
	SupportedTransforms SurfaceTransform
	CurrentTransform    SurfaceTransform
}

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 0x01
	BufferUsageTransferDst BufferUsage = 0x02
	BufferUsageUniform     BufferUsage = 0x10
	BufferUsageIndex       BufferUsage = 0x40
	BufferUsageVertex      BufferUsage = 0x80
)

type ImageUsage uint32

const (
	ImageUsageTransferDst            ImageUsage = 0x02
	ImageUsageColorAttachment        ImageUsage = 0x10
	ImageUsageDepthStencilAttachment ImageUsage = 0x20
)

type MemoryProperty uint32

const (
	MemoryPropertyDeviceLocal  MemoryProperty = 0x1
	MemoryPropertyHostVisible  MemoryProperty = 0x2
	MemoryPropertyHostCoherent MemoryProperty = 0x4
)

type MemoryType struct {
	Properties MemoryProperty
	HeapIndex  uint32
}

type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	// TypeBits has bit i set when memory type i can back the resource.
	TypeBits uint32
}

type ImageLayout int32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type PipelineStage uint32

const (
	PipelineStageTopOfPipe             PipelineStage = 0x0001
	PipelineStageEarlyFragmentTests    PipelineStage = 0x0100
	PipelineStageLateFragmentTests     PipelineStage = 0x0200
	PipelineStageColorAttachmentOutput PipelineStage = 0x0400
	PipelineStageTransfer              PipelineStage = 0x1000
	PipelineStageBottomOfPipe          PipelineStage = 0x2000
)

type Access uint32

const (
	AccessNone                        Access = 0
	AccessColorAttachmentWrite        Access = 0x0100
	AccessDepthStencilAttachmentRead  Access = 0x0200
	AccessDepthStencilAttachmentWrite Access = 0x0400
)

type ImageAspect uint32

const (
	ImageAspectColor ImageAspect = 0x1
	ImageAspectDepth ImageAspect = 0x2
)

type ImageDesc struct {
	Format Format
	Extent Extent2D
	Usage  ImageUsage
}

type ImageViewDesc struct {
	Image  Image
	Format Format
	Aspect ImageAspect
}

// ImageBarrier is a layout transition covering the whole image.
type ImageBarrier struct {
	Image     Image
	SrcStage  PipelineStage
	DstStage  PipelineStage
	SrcAccess Access
	DstAccess Access
	OldLayout ImageLayout
	NewLayout ImageLayout
	Aspect    ImageAspect
}

type LoadOp int32

const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2
)

type StoreOp int32

const (
	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1
)

type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

type Attachment struct {
	View   ImageView
	Layout ImageLayout
	Load   LoadOp
	Store  StoreOp
	Clear  ClearValue
}

// RenderingInfo describes a dynamic rendering scope. Depth is optional.
type RenderingInfo struct {
	Area  Rect2D
	Color []Attachment
	Depth *Attachment
}

type IndexType int32

const (
	IndexTypeUint16 IndexType = 0
	IndexTypeUint32 IndexType = 1
)

type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x01
	ShaderStageFragment ShaderStage = 0x10
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

type DescriptorType int32

const DescriptorTypeUniformBuffer DescriptorType = 6

type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStage
}

type Submission struct {
	Cmd       CmdBuffer
	Wait      []Semaphore
	WaitStage PipelineStage
	Signal    []Semaphore
	Fence     Fence
}

type Presentation struct {
	Wait      []Semaphore
	Swapchain Swapchain
	Index     uint32
}

type SwapchainDesc struct {
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	Usage         ImageUsage
	PreTransform  SurfaceTransform
	PresentMode   PresentMode
	Clipped       bool
}

type Topology int32

const TopologyTriangleList Topology = 3

type PolygonMode int32

const PolygonModeFill PolygonMode = 0

type CullMode uint32

const (
	CullModeNone CullMode = 0
	CullModeBack CullMode = 0x2
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type CompareOp int32

const (
	CompareOpLess        CompareOp = 1
	CompareOpLessOrEqual CompareOp = 3
)

type DynamicState int32

const (
	DynamicStateViewport DynamicState = 0
	DynamicStateScissor  DynamicState = 1
)

type ColorComponent uint32

const (
	ColorComponentR   ColorComponent = 0x1
	ColorComponentG   ColorComponent = 0x2
	ColorComponentB   ColorComponent = 0x4
	ColorComponentA   ColorComponent = 0x8
	ColorComponentAll                = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA
)

type ShaderStageDesc struct {
	Stage      ShaderStage
	Module     ShaderModule
	EntryPoint string
}

type VertexBinding struct {
	Binding uint32
	Stride  uint32
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type ColorBlendAttachment struct {
	BlendEnable bool
	WriteMask   ColorComponent
}

// PipelineDesc is a graphics pipeline for dynamic rendering: attachment
// formats replace the render pass.
type PipelineDesc struct {
	Stages           []ShaderStageDesc
	VertexBindings   []VertexBinding
	VertexAttributes []VertexAttribute

	Topology    Topology
	PolygonMode PolygonMode
	CullMode    CullMode
	FrontFace   FrontFace
	LineWidth   float32
	Samples     uint32

	DepthTest    bool
	DepthWrite   bool
	DepthCompare CompareOp
	StencilTest  bool

	ColorBlend    []ColorBlendAttachment
	DynamicStates []DynamicState
	ViewportCount uint32
	ScissorCount  uint32

	ColorFormats []Format
	DepthFormat  Format
	SetLayouts   []DescriptorSetLayout
}
