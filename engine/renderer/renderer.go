package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// CameraSource provides the matrices written to the uniform buffer every frame.
type CameraSource interface {
	ViewMatrix() math.Mat4
	ProjectionMatrix(aspectRatio float32) math.Mat4
}

var clearColor = [4]float32{0, 0, 0, 1}

// epoch groups what is rebuilt on every resize.
type epoch struct {
	surface  *SurfaceResources
	uniforms *UniformSet
	pipeline driver.Pipeline
}

func (e *epoch) destroy() {
	if e.pipeline != nil {
		e.pipeline.Destroy()
		e.pipeline = nil
	}
	if e.uniforms != nil {
		e.uniforms.Destroy()
		e.uniforms = nil
	}
	if e.surface != nil {
		e.surface.Destroy()
		e.surface = nil
	}
}

// Renderer draws the mesh once per DrawFrame call. It owns, in construction order,
// the device, the command pool, the frame slots, the descriptor layout, the shader
// modules, the mesh buffers and the current resize epoch, and tears them down in
// reverse. All methods must be called from the same goroutine.
type Renderer struct {
	instance driver.Instance
	window   Window
	shaders  []ShaderBinary
	settings UserSettings

	gpu      driver.GPU
	queue    driver.Queue
	commands *CommandPool
	frames   *FrameSlots
	layout   driver.DescriptorSetLayout
	modules  []driver.ShaderModule
	mesh     *Mesh
	current  *epoch

	frame          uint64
	rebuildPending bool
	destroyed      bool
}

func New(instance driver.Instance, window Window, shaders []ShaderBinary, settings UserSettings) (*Renderer, error) {
	r := &Renderer{
		instance: instance,
		window:   window,
		shaders:  shaders,
		settings: settings,
	}
	if err := r.buildDevice(); err != nil {
		r.destroyDevice()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) buildDevice() error {
	gpu, err := r.instance.Open(r.settings.PreferredAdapterID)
	if err != nil {
		err = fmt.Errorf("failed to open a device: %w", err)
		core.LogError("%s", err)
		return err
	}
	r.gpu = gpu
	r.queue = gpu.GraphicsQueue()
	core.LogInfo("rendering on %s", gpu.Adapter())

	if r.commands, err = NewCommandPool(gpu); err != nil {
		return err
	}
	if r.frames, err = NewFrameSlots(gpu); err != nil {
		return err
	}
	if r.layout, err = NewDescriptorLayout(gpu); err != nil {
		return err
	}
	for _, s := range r.shaders {
		module, err := gpu.NewShaderModule(s.Code)
		if err != nil {
			err = fmt.Errorf("failed to create %s shader module: %w", s.Stage, err)
			core.LogError("%s", err)
			return err
		}
		r.modules = append(r.modules, module)
	}
	if r.mesh, err = UploadMesh(gpu, r.commands.Setup, r.queue, Vertices, Indices); err != nil {
		return err
	}
	return r.buildEpoch()
}

func (r *Renderer) buildEpoch() error {
	e := &epoch{}
	var err error
	if e.surface, err = BuildSurfaceResources(r.gpu, r.window, r.commands.Setup, r.queue); err != nil {
		return err
	}
	if e.uniforms, err = NewUniformSet(r.gpu, r.layout, e.surface.ImageCount); err != nil {
		e.destroy()
		return err
	}
	builder := NewPipelineBuilder().
		WithColorFormat(e.surface.Format.Format).
		WithDepthFormat(DepthFormat).
		WithSetLayout(r.layout)
	for i, s := range r.shaders {
		builder.WithStage(s.Stage, r.modules[i], s.EntryPoint)
	}
	if e.pipeline, err = builder.Build(r.gpu); err != nil {
		e.destroy()
		return err
	}
	r.current = e
	return nil
}

func (r *Renderer) destroyDevice() {
	if r.current != nil {
		r.current.destroy()
		r.current = nil
	}
	if r.mesh != nil {
		r.mesh.Destroy()
		r.mesh = nil
	}
	for _, m := range r.modules {
		m.Destroy()
	}
	r.modules = nil
	if r.layout != nil {
		r.layout.Destroy()
		r.layout = nil
	}
	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
	if r.commands != nil {
		r.commands.Destroy()
		r.commands = nil
	}
	if r.gpu != nil {
		r.gpu.Destroy()
		r.gpu = nil
		r.queue = nil
	}
}

// OnResize marks the surface resources stale. They are rebuilt at the start of the next frame.
func (r *Renderer) OnResize() {
	r.rebuildPending = true
}

func (r *Renderer) RebuildPending() bool {
	return r.rebuildPending
}

// Surface returns the live surface resources.
func (r *Renderer) Surface() *SurfaceResources {
	if r.current == nil {
		return nil
	}
	return r.current.surface
}

// Uniforms returns the live uniform set.
func (r *Renderer) Uniforms() *UniformSet {
	if r.current == nil {
		return nil
	}
	return r.current.uniforms
}

func (r *Renderer) Settings() UserSettings {
	return r.settings
}

// rebuild waits for the whole device before replacing the epoch, so nothing in
// flight can still reference the old images.
func (r *Renderer) rebuild() error {
	if err := r.gpu.WaitIdle(); err != nil {
		return err
	}
	if r.current != nil {
		core.LogDebug("surface resources %s retired", r.current.surface.Generation)
		r.current.destroy()
		r.current = nil
	}
	return r.buildEpoch()
}

// DrawFrame renders and presents one frame. An out of date swapchain is not an
// error: the frame is skipped and the surface rebuilt on the next call. Every
// returned error is unrecoverable.
func (r *Renderer) DrawFrame(camera CameraSource) error {
	if r.destroyed {
		return ErrRendererDestroyed
	}
	if r.rebuildPending {
		if err := r.rebuild(); err != nil {
			return err
		}
		r.rebuildPending = false
	}
	if r.current == nil {
		return fmt.Errorf("renderer has no surface resources")
	}

	slot := r.frames.Slot(SlotFor(r.frame))
	draw := r.commands.Draw
	// the uniform buffer about to be written may still be read by the previous frame
	if err := draw.Wait(); err != nil {
		return err
	}

	surface := r.current.surface
	index, suboptimal, err := surface.Swapchain.Acquire(slot.PresentComplete, driver.Infinite)
	if errors.Is(err, driver.ErrOutOfDate) {
		core.LogDebug("swapchain out of date on acquire, skipping frame")
		r.rebuildPending = true
		return nil
	}
	if err != nil {
		err = fmt.Errorf("failed to acquire next image: %w", err)
		core.LogError("%s", err)
		return err
	}
	if suboptimal {
		r.rebuildPending = true
	}

	err = r.current.uniforms.Write(index, UniformBuffers{
		Model:      math.NewMat4Identity(),
		View:       camera.ViewMatrix(),
		Projection: camera.ProjectionMatrix(surface.AspectRatio()),
	})
	if err != nil {
		return err
	}

	err = draw.Record(
		r.queue,
		[]driver.Semaphore{slot.PresentComplete},
		driver.PipelineStageColorAttachmentOutput,
		[]driver.Semaphore{slot.RenderComplete},
		func(cmd driver.CmdBuffer) { r.recordDraw(cmd, index) },
	)
	if err != nil {
		return err
	}

	suboptimal, err = r.queue.Present(&driver.Presentation{
		Wait:      []driver.Semaphore{slot.RenderComplete},
		Swapchain: surface.Swapchain,
		Index:     index,
	})
	switch {
	case errors.Is(err, driver.ErrOutOfDate), err == nil && suboptimal:
		core.LogDebug("swapchain needs rebuilding after present")
		r.rebuildPending = true
	case err != nil:
		err = fmt.Errorf("failed to present image %d: %w", index, err)
		core.LogError("%s", err)
		return err
	}
	r.frame++
	return nil
}

func (r *Renderer) recordDraw(cmd driver.CmdBuffer, index uint32) {
	e := r.current
	s := e.surface

	cmd.Barrier(&driver.ImageBarrier{
		Image:     s.Images[index],
		SrcStage:  driver.PipelineStageTopOfPipe,
		DstStage:  driver.PipelineStageColorAttachmentOutput,
		DstAccess: driver.AccessColorAttachmentWrite,
		OldLayout: driver.ImageLayoutUndefined,
		NewLayout: driver.ImageLayoutColorAttachmentOptimal,
		Aspect:    driver.ImageAspectColor,
	})

	cmd.BeginRendering(&driver.RenderingInfo{
		Area: s.Scissor,
		Color: []driver.Attachment{{
			View:   s.Views[index],
			Layout: driver.ImageLayoutColorAttachmentOptimal,
			Load:   driver.LoadOpClear,
			Store:  driver.StoreOpStore,
			Clear:  driver.ClearValue{Color: clearColor},
		}},
		Depth: &driver.Attachment{
			View:   s.DepthView,
			Layout: driver.ImageLayoutDepthStencilAttachmentOptimal,
			Load:   driver.LoadOpClear,
			Store:  driver.StoreOpDontCare,
			Clear:  driver.ClearValue{Depth: 1.0},
		},
	})
	cmd.BindPipeline(e.pipeline)
	cmd.SetScissor(s.Scissor)
	cmd.SetViewport(s.Viewport)
	cmd.BindVertexBuffer(0, r.mesh.VertexBuffer.Handle(), 0)
	cmd.BindIndexBuffer(r.mesh.IndexBuffer.Handle(), 0, driver.IndexTypeUint32)
	cmd.BindDescriptorSet(e.pipeline, e.uniforms.Set(index))
	cmd.DrawIndexed(r.mesh.IndexCount, 1, 0, 0, 1)
	cmd.EndRendering()

	cmd.Barrier(&driver.ImageBarrier{
		Image:     s.Images[index],
		SrcStage:  driver.PipelineStageColorAttachmentOutput,
		DstStage:  driver.PipelineStageBottomOfPipe,
		SrcAccess: driver.AccessColorAttachmentWrite,
		OldLayout: driver.ImageLayoutColorAttachmentOptimal,
		NewLayout: driver.ImageLayoutPresentSrc,
		Aspect:    driver.ImageAspectColor,
	})
}

// UpdateUserSettings reopens the device with the new settings and rebuilds everything on top of it.
func (r *Renderer) UpdateUserSettings(settings UserSettings) error {
	if r.destroyed {
		return ErrRendererDestroyed
	}
	if r.gpu != nil {
		if err := r.gpu.WaitIdle(); err != nil {
			return err
		}
	}
	r.destroyDevice()
	r.settings = settings
	r.rebuildPending = false
	if err := r.buildDevice(); err != nil {
		r.destroyDevice()
		return err
	}
	return nil
}

// Destroy waits for the device and releases everything the renderer owns. The
// instance stays with the caller.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	if r.gpu != nil {
		if err := r.gpu.WaitIdle(); err != nil {
			core.LogWarn("device wait idle failed during shutdown: %s", err)
		}
	}
	r.destroyDevice()
	r.destroyed = true
}
