package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

type commandPool struct {
	gpu    *GPU
	handle vk.CommandPool
}

// NewCommandPool creates a pool on the graphics family whose buffers can be reset one by one.
func (g *GPU) NewCommandPool() (driver.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: g.graphics.family,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var handle vk.CommandPool
	if err := check("vkCreateCommandPool", vk.CreateCommandPool(g.handle, &poolCreateInfo, nil, &handle)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	core.LogDebug("Graphics command pool created.")
	return &commandPool{gpu: g, handle: handle}, nil
}

func (p *commandPool) Allocate(n int) ([]driver.CmdBuffer, error) {
	handles := make([]vk.CommandBuffer, n)
	err := p.gpu.locks.SafeCall(CommandPoolManagement, func() error {
		return check("vkAllocateCommandBuffers", vk.AllocateCommandBuffers(p.gpu.handle, &vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        p.handle,
			Level:              vk.CommandBufferLevelPrimary,
			CommandBufferCount: uint32(n),
		}, handles))
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	out := make([]driver.CmdBuffer, n)
	for i, h := range handles {
		out[i] = &cmdBuffer{pool: p, handle: h}
	}
	return out, nil
}

// Destroy frees the pool together with every buffer allocated from it.
func (p *commandPool) Destroy() {
	if p.handle == vk.NullCommandPool {
		return
	}
	_ = p.gpu.locks.SafeCall(CommandPoolManagement, func() error {
		vk.DestroyCommandPool(p.gpu.handle, p.handle, nil)
		return nil
	})
	p.handle = vk.NullCommandPool
}

type cmdBuffer struct {
	pool   *commandPool
	handle vk.CommandBuffer
}

func (c *cmdBuffer) Reset() error {
	return c.pool.gpu.locks.SafeCall(CommandPoolManagement, func() error {
		return check("vkResetCommandBuffer", vk.ResetCommandBuffer(c.handle, 0))
	})
}

func (c *cmdBuffer) Begin() error {
	return check("vkBeginCommandBuffer", vk.BeginCommandBuffer(c.handle, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
}

func (c *cmdBuffer) End() error {
	return check("vkEndCommandBuffer", vk.EndCommandBuffer(c.handle))
}

func (c *cmdBuffer) CopyBuffer(src, dst driver.Buffer, size uint64) {
	vk.CmdCopyBuffer(c.handle, bufferHandle(src), bufferHandle(dst), 1, []vk.BufferCopy{{
		Size: vk.DeviceSize(size),
	}})
}

func (c *cmdBuffer) Barrier(b *driver.ImageBarrier) {
	vk.CmdPipelineBarrier(c.handle,
		vk.PipelineStageFlags(b.SrcStage), vk.PipelineStageFlags(b.DstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(b.SrcAccess),
			DstAccessMask:       vk.AccessFlags(b.DstAccess),
			OldLayout:           vk.ImageLayout(b.OldLayout),
			NewLayout:           vk.ImageLayout(b.NewLayout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               b.Image.(*image).handle,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(b.Aspect),
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
}

func attachmentInfo(a *driver.Attachment, depth bool) vk.RenderingAttachmentInfo {
	clearValue := vk.NewClearValue(a.Clear.Color[:])
	if depth {
		clearValue = vk.NewClearDepthStencil(a.Clear.Depth, a.Clear.Stencil)
	}
	return vk.RenderingAttachmentInfo{
		SType:       vk.StructureTypeRenderingAttachmentInfo,
		ImageView:   viewHandle(a.View),
		ImageLayout: vk.ImageLayout(a.Layout),
		LoadOp:      vk.AttachmentLoadOp(a.Load),
		StoreOp:     vk.AttachmentStoreOp(a.Store),
		ClearValue:  clearValue,
	}
}

// newRenderingInfo converts a rendering scope. The binding models the optional
// depth attachment as a slice holding at most one element.
func newRenderingInfo(info *driver.RenderingInfo) vk.RenderingInfo {
	color := make([]vk.RenderingAttachmentInfo, len(info.Color))
	for i := range info.Color {
		color[i] = attachmentInfo(&info.Color[i], false)
	}
	renderingInfo := vk.RenderingInfo{
		SType:                vk.StructureTypeRenderingInfo,
		RenderArea:           rect(info.Area),
		LayerCount:           1,
		ColorAttachmentCount: uint32(len(color)),
		PColorAttachments:    color,
	}
	if info.Depth != nil {
		renderingInfo.PDepthAttachment = []vk.RenderingAttachmentInfo{attachmentInfo(info.Depth, true)}
	}
	return renderingInfo
}

func (c *cmdBuffer) BeginRendering(info *driver.RenderingInfo) {
	renderingInfo := newRenderingInfo(info)
	c.pool.gpu.rendering.cmdBeginRendering(c.handle, &renderingInfo)
}

func (c *cmdBuffer) EndRendering() {
	c.pool.gpu.rendering.cmdEndRendering(c.handle)
}

func (c *cmdBuffer) BindPipeline(p driver.Pipeline) {
	vk.CmdBindPipeline(c.handle, vk.PipelineBindPointGraphics, p.(*pipeline).handle)
}

func (c *cmdBuffer) SetViewport(v driver.Viewport) {
	vk.CmdSetViewport(c.handle, 0, 1, []vk.Viewport{{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}})
}

func (c *cmdBuffer) SetScissor(r driver.Rect2D) {
	vk.CmdSetScissor(c.handle, 0, 1, []vk.Rect2D{rect(r)})
}

func (c *cmdBuffer) BindVertexBuffer(binding uint32, buf driver.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(c.handle, binding, 1, []vk.Buffer{bufferHandle(buf)}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (c *cmdBuffer) BindIndexBuffer(buf driver.Buffer, offset uint64, typ driver.IndexType) {
	vk.CmdBindIndexBuffer(c.handle, bufferHandle(buf), vk.DeviceSize(offset), vk.IndexType(typ))
}

func (c *cmdBuffer) BindDescriptorSet(p driver.Pipeline, set driver.DescriptorSet) {
	vk.CmdBindDescriptorSets(c.handle, vk.PipelineBindPointGraphics, p.(*pipeline).layout,
		0, 1, []vk.DescriptorSet{set.(*descriptorSet).handle}, 0, nil)
}

func (c *cmdBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(c.handle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func rect(r driver.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: vk.Extent2D{Width: r.Extent.Width, Height: r.Extent.Height},
	}
}

// queue serializes host access per family through the GPU's lock pool.
type queue struct {
	gpu    *GPU
	handle vk.Queue
	family uint32
}

func (q *queue) Submit(s *driver.Submission) error {
	waitStages := make([]vk.PipelineStageFlags, len(s.Wait))
	for i := range waitStages {
		waitStages[i] = vk.PipelineStageFlags(s.WaitStage)
	}
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(s.Wait)),
		PWaitSemaphores:      semaphoreHandles(s.Wait),
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{s.Cmd.(*cmdBuffer).handle},
		SignalSemaphoreCount: uint32(len(s.Signal)),
		PSignalSemaphores:    semaphoreHandles(s.Signal),
	}
	return q.gpu.locks.SafeQueueCall(q.family, func() error {
		return check("vkQueueSubmit", vk.QueueSubmit(q.handle, 1, []vk.SubmitInfo{submitInfo}, fenceHandle(s.Fence)))
	})
}

func (q *queue) Present(p *driver.Presentation) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(p.Wait)),
		PWaitSemaphores:    semaphoreHandles(p.Wait),
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{p.Swapchain.(*swapchain).handle},
		PImageIndices:      []uint32{p.Index},
	}
	var res vk.Result
	_ = q.gpu.locks.SafeQueueCall(q.family, func() error {
		res = vk.QueuePresent(q.handle, &presentInfo)
		return nil
	})
	if res == vk.Suboptimal {
		return true, nil
	}
	return false, check("vkQueuePresent", res)
}
