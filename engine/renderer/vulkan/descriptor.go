package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

type descriptorSetLayout struct {
	gpu    *GPU
	handle vk.DescriptorSetLayout
}

func (g *GPU) NewDescriptorSetLayout(bindings []driver.DescriptorBinding) (driver.DescriptorSetLayout, error) {
	binds := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		binds[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vk.DescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		}
	}
	var handle vk.DescriptorSetLayout
	err := check("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(g.handle, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(binds)),
		PBindings:    binds,
	}, nil, &handle))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &descriptorSetLayout{gpu: g, handle: handle}, nil
}

func (l *descriptorSetLayout) Destroy() {
	if l.handle == vk.NullDescriptorSetLayout {
		return
	}
	vk.DestroyDescriptorSetLayout(l.gpu.handle, l.handle, nil)
	l.handle = vk.NullDescriptorSetLayout
}

type descriptorPool struct {
	gpu    *GPU
	handle vk.DescriptorPool
}

// NewDescriptorPool sizes the pool for count sets holding one descriptor of typ each.
func (g *GPU) NewDescriptorPool(typ driver.DescriptorType, count uint32) (driver.DescriptorPool, error) {
	var handle vk.DescriptorPool
	err := check("vkCreateDescriptorPool", vk.CreateDescriptorPool(g.handle, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       count,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorType(typ),
			DescriptorCount: count,
		}},
	}, nil, &handle))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &descriptorPool{gpu: g, handle: handle}, nil
}

func (p *descriptorPool) Allocate(layout driver.DescriptorSetLayout, n int) ([]driver.DescriptorSet, error) {
	layoutHandle := layout.(*descriptorSetLayout).handle
	sets := make([]driver.DescriptorSet, n)
	err := p.gpu.locks.SafeCall(DescriptorManagement, func() error {
		for i := range sets {
			var set vk.DescriptorSet
			err := check("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(p.gpu.handle, &vk.DescriptorSetAllocateInfo{
				SType:              vk.StructureTypeDescriptorSetAllocateInfo,
				DescriptorPool:     p.handle,
				DescriptorSetCount: 1,
				PSetLayouts:        []vk.DescriptorSetLayout{layoutHandle},
			}, &set))
			if err != nil {
				return err
			}
			sets[i] = &descriptorSet{gpu: p.gpu, handle: set}
		}
		return nil
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return sets, nil
}

func (p *descriptorPool) Destroy() {
	if p.handle == vk.NullDescriptorPool {
		return
	}
	_ = p.gpu.locks.SafeCall(DescriptorManagement, func() error {
		vk.DestroyDescriptorPool(p.gpu.handle, p.handle, nil)
		return nil
	})
	p.handle = vk.NullDescriptorPool
}

type descriptorSet struct {
	gpu    *GPU
	handle vk.DescriptorSet
}

func (s *descriptorSet) WriteUniformBuffer(binding uint32, buf driver.Buffer, offset, size uint64) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.handle,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: bufferHandle(buf),
			Offset: vk.DeviceSize(offset),
			Range:  vk.DeviceSize(size),
		}},
	}
	_ = s.gpu.locks.SafeCall(DescriptorManagement, func() error {
		vk.UpdateDescriptorSets(s.gpu.handle, 1, []vk.WriteDescriptorSet{write}, 0, nil)
		return nil
	})
}
