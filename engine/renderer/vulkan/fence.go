package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

type fence struct {
	gpu    *GPU
	handle vk.Fence
}

func (g *GPU) NewFence(signaled bool) (driver.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var handle vk.Fence
	if err := check("vkCreateFence", vk.CreateFence(g.handle, &fenceCreateInfo, nil, &handle)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &fence{gpu: g, handle: handle}, nil
}

func (f *fence) Wait(timeout uint64) error {
	res := vk.WaitForFences(f.gpu.handle, 1, []vk.Fence{f.handle}, vk.True, timeout)
	switch res {
	case vk.Success:
		return nil
	case vk.Timeout:
		core.LogWarn("fence wait timed out")
	default:
		core.LogError("fence wait failed with %s", VulkanResultString(res, false))
	}
	return check("vkWaitForFences", res)
}

func (f *fence) Reset() error {
	return check("vkResetFences", vk.ResetFences(f.gpu.handle, 1, []vk.Fence{f.handle}))
}

func (f *fence) Destroy() {
	if f.handle == vk.NullFence {
		return
	}
	vk.DestroyFence(f.gpu.handle, f.handle, nil)
	f.handle = vk.NullFence
}

func fenceHandle(f driver.Fence) vk.Fence {
	if f == nil {
		return vk.NullFence
	}
	return f.(*fence).handle
}

type semaphore struct {
	gpu    *GPU
	handle vk.Semaphore
}

func (g *GPU) NewSemaphore() (driver.Semaphore, error) {
	var handle vk.Semaphore
	err := check("vkCreateSemaphore", vk.CreateSemaphore(g.handle, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &handle))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &semaphore{gpu: g, handle: handle}, nil
}

func (s *semaphore) Destroy() {
	if s.handle == vk.NullSemaphore {
		return
	}
	vk.DestroySemaphore(s.gpu.handle, s.handle, nil)
	s.handle = vk.NullSemaphore
}

func semaphoreHandle(s driver.Semaphore) vk.Semaphore {
	if s == nil {
		return vk.NullSemaphore
	}
	return s.(*semaphore).handle
}

func semaphoreHandles(list []driver.Semaphore) []vk.Semaphore {
	out := make([]vk.Semaphore, len(list))
	for i, s := range list {
		out[i] = semaphoreHandle(s)
	}
	return out
}
