package renderer

import (
	"fmt"
	gomath "math"

	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

const DepthFormat = driver.FormatD16Unorm

// Window is the part of the windowing shell the surface resources depend on.
type Window interface {
	// FramebufferSize returns the drawable size in pixels. Minimized windows report 0x0.
	FramebufferSize() (int, int)
}

// SurfaceResources is everything that depends on the current surface size:
// the swapchain with its image views, the depth buffer, the viewport and the scissor.
// The set is rebuilt as a whole whenever the surface changes.
type SurfaceResources struct {
	// Generation identifies the resize epoch in logs.
	Generation uuid.UUID

	Format       driver.SurfaceFormat
	Extent       driver.Extent2D
	PresentMode  driver.PresentMode
	PreTransform driver.SurfaceTransform
	ImageCount   uint32

	Swapchain driver.Swapchain
	Images    []driver.Image
	Views     []driver.ImageView

	DepthImage  driver.Image
	DepthMemory driver.Memory
	DepthView   driver.ImageView

	Viewport driver.Viewport
	Scissor  driver.Rect2D
}

// DesiredImageCount asks for one image more than the minimum, within the maximum when there is one.
func DesiredImageCount(caps driver.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ResolveExtent uses the surface's current extent unless the surface leaves the
// decision to the swapchain, in which case the window size is used. Both
// dimensions are at least 1.
func ResolveExtent(caps driver.SurfaceCapabilities, windowWidth, windowHeight int) driver.Extent2D {
	if caps.CurrentExtent.Width == gomath.MaxUint32 {
		return driver.Extent2D{
			Width:  uint32(max(windowWidth, 1)),
			Height: uint32(max(windowHeight, 1)),
		}
	}
	return driver.Extent2D{
		Width:  max(caps.CurrentExtent.Width, 1),
		Height: max(caps.CurrentExtent.Height, 1),
	}
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which is always available.
func ChoosePresentMode(modes []driver.PresentMode) driver.PresentMode {
	for _, m := range modes {
		if m == driver.PresentModeMailbox {
			return m
		}
	}
	return driver.PresentModeFifo
}

func ChoosePreTransform(caps driver.SurfaceCapabilities) driver.SurfaceTransform {
	if caps.SupportedTransforms&driver.SurfaceTransformIdentity != 0 {
		return driver.SurfaceTransformIdentity
	}
	return caps.CurrentTransform
}

func ViewportFor(extent driver.Extent2D) driver.Viewport {
	return driver.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

func ScissorFor(extent driver.Extent2D) driver.Rect2D {
	return driver.Rect2D{Extent: extent}
}

// BuildSurfaceResources creates a complete resource set for the current surface
// state. The depth image layout transition is submitted on setup.
func BuildSurfaceResources(gpu driver.GPU, window Window, setup *Submitter, queue driver.Queue) (*SurfaceResources, error) {
	surface := gpu.Surface()
	formats, err := surface.Formats()
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		err := fmt.Errorf("surface reports no formats")
		core.LogError("%s", err)
		return nil, err
	}
	caps, err := surface.Capabilities()
	if err != nil {
		return nil, err
	}
	modes, err := surface.PresentModes()
	if err != nil {
		return nil, err
	}

	w, h := window.FramebufferSize()
	res := &SurfaceResources{
		Generation:   uuid.New(),
		Format:       formats[0],
		Extent:       ResolveExtent(caps, w, h),
		PresentMode:  ChoosePresentMode(modes),
		PreTransform: ChoosePreTransform(caps),
	}
	res.Viewport = ViewportFor(res.Extent)
	res.Scissor = ScissorFor(res.Extent)

	res.Swapchain, err = gpu.NewSwapchain(&driver.SwapchainDesc{
		MinImageCount: DesiredImageCount(caps),
		Format:        res.Format,
		Extent:        res.Extent,
		Usage:         driver.ImageUsageColorAttachment,
		PreTransform:  res.PreTransform,
		PresentMode:   res.PresentMode,
		Clipped:       true,
	})
	if err != nil {
		return nil, err
	}
	if res.Images, err = res.Swapchain.Images(); err != nil {
		res.Destroy()
		return nil, err
	}
	res.ImageCount = uint32(len(res.Images))
	for _, img := range res.Images {
		view, err := gpu.NewImageView(&driver.ImageViewDesc{
			Image:  img,
			Format: res.Format.Format,
			Aspect: driver.ImageAspectColor,
		})
		if err != nil {
			res.Destroy()
			return nil, err
		}
		res.Views = append(res.Views, view)
	}

	if err := res.createDepth(gpu, setup, queue); err != nil {
		res.Destroy()
		return nil, err
	}

	core.LogDebug("surface resources %s: %dx%d, %d images, format %d, present mode %d",
		res.Generation, res.Extent.Width, res.Extent.Height, res.ImageCount, res.Format.Format, res.PresentMode)
	return res, nil
}

func (r *SurfaceResources) createDepth(gpu driver.GPU, setup *Submitter, queue driver.Queue) error {
	img, err := gpu.NewImage(&driver.ImageDesc{
		Format: DepthFormat,
		Extent: r.Extent,
		Usage:  driver.ImageUsageDepthStencilAttachment,
	})
	if err != nil {
		return err
	}
	r.DepthImage = img

	req := img.Requirements()
	typeIndex, err := FindMemoryType(gpu.MemoryTypes(), req.TypeBits, driver.MemoryPropertyDeviceLocal)
	if err != nil {
		core.LogError("%s", err)
		return err
	}
	if r.DepthMemory, err = gpu.AllocateMemory(req.Size, typeIndex); err != nil {
		return err
	}
	if err := img.Bind(r.DepthMemory, 0); err != nil {
		return err
	}

	err = setup.Record(queue, nil, 0, nil, func(cmd driver.CmdBuffer) {
		cmd.Barrier(&driver.ImageBarrier{
			Image:     img,
			SrcStage:  driver.PipelineStageBottomOfPipe,
			DstStage:  driver.PipelineStageLateFragmentTests,
			DstAccess: driver.AccessDepthStencilAttachmentRead | driver.AccessDepthStencilAttachmentWrite,
			OldLayout: driver.ImageLayoutUndefined,
			NewLayout: driver.ImageLayoutDepthStencilAttachmentOptimal,
			Aspect:    driver.ImageAspectDepth,
		})
	})
	if err != nil {
		return err
	}

	r.DepthView, err = gpu.NewImageView(&driver.ImageViewDesc{
		Image:  img,
		Format: DepthFormat,
		Aspect: driver.ImageAspectDepth,
	})
	return err
}

// AspectRatio is width over height of the current extent.
func (r *SurfaceResources) AspectRatio() float32 {
	return float32(r.Extent.Width) / float32(r.Extent.Height)
}

// Destroy releases the depth buffer first, then the color views and the swapchain.
// The device must be idle.
func (r *SurfaceResources) Destroy() {
	if r.DepthView != nil {
		r.DepthView.Destroy()
		r.DepthView = nil
	}
	if r.DepthImage != nil {
		r.DepthImage.Destroy()
		r.DepthImage = nil
	}
	if r.DepthMemory != nil {
		r.DepthMemory.Free()
		r.DepthMemory = nil
	}
	for _, v := range r.Views {
		v.Destroy()
	}
	r.Views = nil
	r.Images = nil
	if r.Swapchain != nil {
		r.Swapchain.Destroy()
		r.Swapchain = nil
	}
}
