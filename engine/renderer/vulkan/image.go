package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

type memory struct {
	gpu    *GPU
	handle vk.DeviceMemory
}

func (g *GPU) AllocateMemory(size uint64, typeIndex uint32) (driver.Memory, error) {
	var handle vk.DeviceMemory
	err := check("vkAllocateMemory", vk.AllocateMemory(g.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}, nil, &handle))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &memory{gpu: g, handle: handle}, nil
}

func (m *memory) Map(offset, size uint64) ([]byte, error) {
	var ptr unsafe.Pointer
	if err := check("vkMapMemory", vk.MapMemory(m.gpu.handle, m.handle, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr)); err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, fmt.Errorf("vkMapMemory returned a nil pointer")
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (m *memory) Unmap() {
	vk.UnmapMemory(m.gpu.handle, m.handle)
}

func (m *memory) Free() {
	if m.handle == vk.NullDeviceMemory {
		return
	}
	vk.FreeMemory(m.gpu.handle, m.handle, nil)
	m.handle = vk.NullDeviceMemory
}

func memoryHandle(m driver.Memory) vk.DeviceMemory {
	return m.(*memory).handle
}

func requirements(reqs vk.MemoryRequirements) driver.MemoryRequirements {
	reqs.Deref()
	return driver.MemoryRequirements{
		Size:      uint64(reqs.Size),
		Alignment: uint64(reqs.Alignment),
		TypeBits:  reqs.MemoryTypeBits,
	}
}

type buffer struct {
	gpu    *GPU
	handle vk.Buffer
}

func (g *GPU) NewBuffer(size uint64, usage driver.BufferUsage) (driver.Buffer, error) {
	var handle vk.Buffer
	err := check("vkCreateBuffer", vk.CreateBuffer(g.handle, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &handle))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &buffer{gpu: g, handle: handle}, nil
}

func (b *buffer) Requirements() driver.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.gpu.handle, b.handle, &reqs)
	return requirements(reqs)
}

func (b *buffer) Bind(mem driver.Memory, offset uint64) error {
	return check("vkBindBufferMemory", vk.BindBufferMemory(b.gpu.handle, b.handle, memoryHandle(mem), vk.DeviceSize(offset)))
}

func (b *buffer) Destroy() {
	if b.handle == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.gpu.handle, b.handle, nil)
	b.handle = vk.NullBuffer
}

func bufferHandle(b driver.Buffer) vk.Buffer {
	return b.(*buffer).handle
}

type image struct {
	gpu    *GPU
	handle vk.Image
	// borrowed images belong to a swapchain
	borrowed bool
}

// NewImage creates a single-sample, single-level 2D image with optimal tiling.
func (g *GPU) NewImage(desc *driver.ImageDesc) (driver.Image, error) {
	var handle vk.Image
	err := check("vkCreateImage", vk.CreateImage(g.handle, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(desc.Format),
		Extent: vk.Extent3D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &handle))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &image{gpu: g, handle: handle}, nil
}

func (i *image) Requirements() driver.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.gpu.handle, i.handle, &reqs)
	return requirements(reqs)
}

func (i *image) Bind(mem driver.Memory, offset uint64) error {
	if i.borrowed {
		return fmt.Errorf("swapchain images cannot be bound to memory")
	}
	return check("vkBindImageMemory", vk.BindImageMemory(i.gpu.handle, i.handle, memoryHandle(mem), vk.DeviceSize(offset)))
}

func (i *image) Destroy() {
	if i.borrowed || i.handle == vk.NullImage {
		return
	}
	vk.DestroyImage(i.gpu.handle, i.handle, nil)
	i.handle = vk.NullImage
}

type imageView struct {
	gpu    *GPU
	handle vk.ImageView
}

func (g *GPU) NewImageView(desc *driver.ImageViewDesc) (driver.ImageView, error) {
	var handle vk.ImageView
	err := check("vkCreateImageView", vk.CreateImageView(g.handle, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    desc.Image.(*image).handle,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(desc.Format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(desc.Aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &handle))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &imageView{gpu: g, handle: handle}, nil
}

func (v *imageView) Destroy() {
	if v.handle == vk.NullImageView {
		return
	}
	vk.DestroyImageView(v.gpu.handle, v.handle, nil)
	v.handle = vk.NullImageView
}

func viewHandle(v driver.ImageView) vk.ImageView {
	return v.(*imageView).handle
}
