package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// UniformBuffers is the per-draw uniform block read by the vertex shader at binding 0.
type UniformBuffers struct {
	Model      math.Mat4
	View       math.Mat4
	Projection math.Mat4
}

// NewDescriptorLayout declares a single uniform buffer at binding 0 for the vertex stage.
func NewDescriptorLayout(gpu driver.GPU) (driver.DescriptorSetLayout, error) {
	return gpu.NewDescriptorSetLayout([]driver.DescriptorBinding{{
		Binding: 0,
		Type:    driver.DescriptorTypeUniformBuffer,
		Count:   1,
		Stages:  driver.ShaderStageVertex,
	}})
}

// UniformSet holds one persistently mapped uniform buffer and one descriptor set per swapchain image.
type UniformSet struct {
	pool    driver.DescriptorPool
	buffers []*Buffer[UniformBuffers]
	sets    []driver.DescriptorSet
}

func NewUniformSet(gpu driver.GPU, layout driver.DescriptorSetLayout, imageCount uint32) (*UniformSet, error) {
	if imageCount == 0 {
		return nil, fmt.Errorf("uniform set needs at least one image")
	}
	u := &UniformSet{}
	for i := uint32(0); i < imageCount; i++ {
		buf, err := NewBuffer[UniformBuffers](gpu, 1, driver.BufferUsageUniform, hostVisibleCoherent, true)
		if err != nil {
			u.Destroy()
			return nil, err
		}
		u.buffers = append(u.buffers, buf)
	}

	pool, err := gpu.NewDescriptorPool(driver.DescriptorTypeUniformBuffer, imageCount)
	if err != nil {
		u.Destroy()
		return nil, err
	}
	u.pool = pool

	sets, err := pool.Allocate(layout, int(imageCount))
	if err != nil {
		u.Destroy()
		return nil, err
	}
	u.sets = sets
	size := uint64(unsafe.Sizeof(UniformBuffers{}))
	for i, set := range sets {
		set.WriteUniformBuffer(0, u.buffers[i].Handle(), 0, size)
	}
	return u, nil
}

func (u *UniformSet) Len() int {
	return len(u.buffers)
}

// Set returns the descriptor set bound to the uniform buffer of image index.
func (u *UniformSet) Set(index uint32) driver.DescriptorSet {
	return u.sets[index]
}

// Write overwrites the uniform buffer of image index.
func (u *UniformSet) Write(index uint32, data UniformBuffers) error {
	if int(index) >= len(u.buffers) {
		return fmt.Errorf("%w: image index %d, %d uniform buffers", ErrBufferOverflow, index, len(u.buffers))
	}
	return u.buffers[index].WriteDirect([]UniformBuffers{data})
}

// Read returns the current contents of the uniform buffer of image index.
func (u *UniformSet) Read(index uint32) (UniformBuffers, error) {
	if int(index) >= len(u.buffers) {
		return UniformBuffers{}, fmt.Errorf("%w: image index %d, %d uniform buffers", ErrBufferOverflow, index, len(u.buffers))
	}
	out, err := u.buffers[index].ReadDirect(1)
	if err != nil {
		return UniformBuffers{}, err
	}
	return out[0], nil
}

func (u *UniformSet) Destroy() {
	if u.pool != nil {
		u.pool.Destroy()
		u.pool = nil
	}
	u.sets = nil
	for _, b := range u.buffers {
		b.Destroy()
	}
	u.buffers = nil
}
