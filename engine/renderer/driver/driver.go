// Package driver defines the GPU interfaces the renderer records against.
// The Vulkan backend in engine/renderer/vulkan implements them; tests use
// an in-memory implementation.
package driver

// Infinite is the timeout that never expires.
const Infinite = ^uint64(0)

// Instance is the process-wide entry point into a GPU API.
type Instance interface {
	// Adapters lists every physical device visible through the instance.
	Adapters() ([]AdapterInfo, error)
	// Open selects an adapter (see SelectAdapter) and creates a logical
	// device bound to the instance's presentation surface.
	Open(preferredDeviceID *uint32) (GPU, error)
	Destroy()
}

// GPU is an opened logical device.
type GPU interface {
	Adapter() AdapterInfo
	MemoryTypes() []MemoryType

	NewBuffer(size uint64, usage BufferUsage) (Buffer, error)
	NewImage(desc *ImageDesc) (Image, error)
	NewImageView(desc *ImageViewDesc) (ImageView, error)
	AllocateMemory(size uint64, typeIndex uint32) (Memory, error)

	NewFence(signaled bool) (Fence, error)
	NewSemaphore() (Semaphore, error)
	NewCommandPool() (CommandPool, error)

	NewShaderModule(code []uint32) (ShaderModule, error)
	NewDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	NewDescriptorPool(typ DescriptorType, count uint32) (DescriptorPool, error)
	NewPipeline(desc *PipelineDesc) (Pipeline, error)

	Surface() Surface
	// NewSwapchain creates a swapchain for Surface. Any previous
	// swapchain must be destroyed first.
	NewSwapchain(desc *SwapchainDesc) (Swapchain, error)

	GraphicsQueue() Queue
	WaitIdle() error
	Destroy()
}

// Surface is the presentation target. Queries reflect its current state.
type Surface interface {
	Formats() ([]SurfaceFormat, error)
	Capabilities() (SurfaceCapabilities, error)
	PresentModes() ([]PresentMode, error)
}

type Memory interface {
	// Map returns a view of size bytes starting at offset. The view is
	// valid until Unmap.
	Map(offset, size uint64) ([]byte, error)
	Unmap()
	Free()
}

type Buffer interface {
	Requirements() MemoryRequirements
	Bind(mem Memory, offset uint64) error
	Destroy()
}

type Image interface {
	Requirements() MemoryRequirements
	Bind(mem Memory, offset uint64) error
	Destroy()
}

type ImageView interface {
	Destroy()
}

type Fence interface {
	// Wait blocks until the fence is signaled or the timeout in
	// nanoseconds elapses (ErrTimeout).
	Wait(timeout uint64) error
	Reset() error
	Destroy()
}

type Semaphore interface {
	Destroy()
}

type CommandPool interface {
	// Allocate creates n primary command buffers that can be reset individually.
	Allocate(n int) ([]CmdBuffer, error)
	Destroy()
}

// CmdBuffer records GPU work.
type CmdBuffer interface {
	// Reset returns the buffer to the initial state and releases its resources.
	Reset() error
	// Begin starts a one-time-submit recording.
	Begin() error
	End() error

	CopyBuffer(src, dst Buffer, size uint64)
	Barrier(b *ImageBarrier)

	BeginRendering(info *RenderingInfo)
	EndRendering()

	BindPipeline(p Pipeline)
	SetViewport(v Viewport)
	SetScissor(r Rect2D)
	BindVertexBuffer(binding uint32, buf Buffer, offset uint64)
	BindIndexBuffer(buf Buffer, offset uint64, typ IndexType)
	BindDescriptorSet(p Pipeline, set DescriptorSet)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
}

type Queue interface {
	Submit(s *Submission) error
	// Present queues an image for presentation. It reports suboptimal
	// when the swapchain still works but no longer matches the surface,
	// and returns ErrOutOfDate when it cannot be used anymore.
	Present(p *Presentation) (suboptimal bool, err error)
}

type Swapchain interface {
	Images() ([]Image, error)
	// Acquire returns the index of the next presentable image. The
	// semaphore is signaled when the image is ready. Suboptimal and
	// ErrOutOfDate follow Queue.Present.
	Acquire(sem Semaphore, timeout uint64) (index uint32, suboptimal bool, err error)
	Destroy()
}

type ShaderModule interface {
	Destroy()
}

type DescriptorSetLayout interface {
	Destroy()
}

type DescriptorPool interface {
	Allocate(layout DescriptorSetLayout, n int) ([]DescriptorSet, error)
	// Destroy frees the pool and every set allocated from it.
	Destroy()
}

type DescriptorSet interface {
	WriteUniformBuffer(binding uint32, buf Buffer, offset, size uint64)
}

type Pipeline interface {
	Destroy()
}
