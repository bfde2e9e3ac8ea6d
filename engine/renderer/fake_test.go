package renderer

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// An in-memory driver. GPU work completes only when a fence is waited on, so
// any command buffer touched before its fence wait shows up in violations.

type fakeInstance struct {
	adapters []driver.AdapterInfo
	surface  *fakeSurface
	opened   []*fakeGPU
	openErr  error
	// pipelineErr is handed to every opened device
	pipelineErr error
}

func newFakeInstance() *fakeInstance {
	return &fakeInstance{
		adapters: []driver.AdapterInfo{
			{Name: "fake integrated", DeviceID: 1, Type: driver.AdapterTypeIntegratedGPU, MaxImageDimension2D: 4096, GraphicsFamily: 0, TransferFamily: -1},
			{Name: "fake discrete", DeviceID: 2, Type: driver.AdapterTypeDiscreteGPU, MaxImageDimension2D: 16384, GraphicsFamily: 0, TransferFamily: 1},
		},
		surface: newFakeSurface(),
	}
}

func (i *fakeInstance) Adapters() ([]driver.AdapterInfo, error) {
	return i.adapters, nil
}

func (i *fakeInstance) Open(preferred *uint32) (driver.GPU, error) {
	if i.openErr != nil {
		return nil, i.openErr
	}
	idx, err := driver.SelectAdapter(i.adapters, preferred)
	if err != nil {
		return nil, err
	}
	g := newFakeGPU()
	g.adapter = i.adapters[idx]
	g.surface = i.surface
	g.pipelineErr = i.pipelineErr
	i.opened = append(i.opened, g)
	return g, nil
}

func (i *fakeInstance) Destroy() {}

func (i *fakeInstance) last() *fakeGPU {
	return i.opened[len(i.opened)-1]
}

type fakeGPU struct {
	adapter    driver.AdapterInfo
	memTypes   []driver.MemoryType
	surface    *fakeSurface
	queue      *fakeQueue
	live       map[string]int
	violations []string

	swapchains []*fakeSwapchain
	images     []*fakeImage
	pipelines  []*fakePipeline
	descPools  []*fakeDescriptorPool

	pipelineErr error
	waitIdle    int
	destroyed   bool
}

func newFakeGPU() *fakeGPU {
	g := &fakeGPU{
		memTypes: []driver.MemoryType{
			{Properties: driver.MemoryPropertyDeviceLocal},
			{Properties: driver.MemoryPropertyHostVisible | driver.MemoryPropertyHostCoherent},
		},
		surface: newFakeSurface(),
		live:    map[string]int{},
	}
	g.queue = &fakeQueue{gpu: g}
	return g
}

func (g *fakeGPU) created(kind string) { g.live[kind]++ }

func (g *fakeGPU) destroyedOne(kind string) {
	if g.live[kind] == 0 {
		g.violations = append(g.violations, "double destroy of "+kind)
		return
	}
	g.live[kind]--
}

func (g *fakeGPU) liveTotal() int {
	n := 0
	for _, c := range g.live {
		n += c
	}
	return n
}

func (g *fakeGPU) Adapter() driver.AdapterInfo { return g.adapter }

func (g *fakeGPU) MemoryTypes() []driver.MemoryType { return g.memTypes }

func (g *fakeGPU) Surface() driver.Surface { return g.surface }

func (g *fakeGPU) GraphicsQueue() driver.Queue { return g.queue }

func (g *fakeGPU) NewBuffer(size uint64, usage driver.BufferUsage) (driver.Buffer, error) {
	g.created("buffer")
	return &fakeBuffer{gpu: g, size: size, usage: usage}, nil
}

func (g *fakeGPU) NewImage(desc *driver.ImageDesc) (driver.Image, error) {
	if desc.Extent.Width == 0 || desc.Extent.Height == 0 {
		return nil, fmt.Errorf("zero sized image %dx%d", desc.Extent.Width, desc.Extent.Height)
	}
	g.created("image")
	img := &fakeImage{gpu: g, desc: *desc, owned: true}
	g.images = append(g.images, img)
	return img, nil
}

func (g *fakeGPU) NewImageView(desc *driver.ImageViewDesc) (driver.ImageView, error) {
	g.created("view")
	return &fakeView{gpu: g, desc: *desc}, nil
}

func (g *fakeGPU) AllocateMemory(size uint64, typeIndex uint32) (driver.Memory, error) {
	g.created("memory")
	return &fakeMemory{gpu: g, data: make([]byte, size), typeIndex: typeIndex}, nil
}

func (g *fakeGPU) NewFence(signaled bool) (driver.Fence, error) {
	g.created("fence")
	return &fakeFence{gpu: g, signaled: signaled}, nil
}

func (g *fakeGPU) NewSemaphore() (driver.Semaphore, error) {
	g.created("semaphore")
	return &fakeSemaphore{gpu: g}, nil
}

func (g *fakeGPU) NewCommandPool() (driver.CommandPool, error) {
	g.created("cmdpool")
	return &fakeCommandPool{gpu: g}, nil
}

func (g *fakeGPU) NewShaderModule(code []uint32) (driver.ShaderModule, error) {
	g.created("shader")
	return &fakeShaderModule{gpu: g, code: code}, nil
}

func (g *fakeGPU) NewDescriptorSetLayout(bindings []driver.DescriptorBinding) (driver.DescriptorSetLayout, error) {
	g.created("setlayout")
	return &fakeSetLayout{gpu: g, bindings: bindings}, nil
}

func (g *fakeGPU) NewDescriptorPool(typ driver.DescriptorType, count uint32) (driver.DescriptorPool, error) {
	g.created("descpool")
	p := &fakeDescriptorPool{gpu: g, typ: typ, capacity: count}
	g.descPools = append(g.descPools, p)
	return p, nil
}

func (g *fakeGPU) NewPipeline(desc *driver.PipelineDesc) (driver.Pipeline, error) {
	if g.pipelineErr != nil {
		return nil, g.pipelineErr
	}
	g.created("pipeline")
	p := &fakePipeline{gpu: g, desc: *desc}
	g.pipelines = append(g.pipelines, p)
	return p, nil
}

func (g *fakeGPU) NewSwapchain(desc *driver.SwapchainDesc) (driver.Swapchain, error) {
	if desc.Extent.Width == 0 || desc.Extent.Height == 0 {
		return nil, fmt.Errorf("zero sized swapchain")
	}
	for _, s := range g.swapchains {
		if !s.destroyed {
			g.violations = append(g.violations, "swapchain created while another is alive")
		}
	}
	g.created("swapchain")
	s := &fakeSwapchain{gpu: g, desc: *desc}
	for i := uint32(0); i < desc.MinImageCount; i++ {
		s.images = append(s.images, &fakeImage{gpu: g, desc: driver.ImageDesc{Format: desc.Format.Format, Extent: desc.Extent, Usage: desc.Usage}})
	}
	g.swapchains = append(g.swapchains, s)
	return s, nil
}

func (g *fakeGPU) WaitIdle() error {
	g.waitIdle++
	g.queue.completeAll()
	return nil
}

func (g *fakeGPU) Destroy() {
	if g.destroyed {
		g.violations = append(g.violations, "device destroyed twice")
	}
	g.destroyed = true
}

func (g *fakeGPU) lastSwapchain() *fakeSwapchain {
	return g.swapchains[len(g.swapchains)-1]
}

type fakeSurface struct {
	formats []driver.SurfaceFormat
	caps    driver.SurfaceCapabilities
	modes   []driver.PresentMode
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		formats: []driver.SurfaceFormat{
			{Format: driver.FormatB8G8R8A8Unorm, ColorSpace: driver.ColorSpaceSrgbNonlinear},
			{Format: driver.FormatB8G8R8A8Srgb, ColorSpace: driver.ColorSpaceSrgbNonlinear},
		},
		caps: driver.SurfaceCapabilities{
			MinImageCount:       2,
			MaxImageCount:       0,
			CurrentExtent:       driver.Extent2D{Width: gomath.MaxUint32, Height: gomath.MaxUint32},
			MinImageExtent:      driver.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:      driver.Extent2D{Width: 16384, Height: 16384},
			SupportedTransforms: driver.SurfaceTransformIdentity,
			CurrentTransform:    driver.SurfaceTransformIdentity,
		},
		modes: []driver.PresentMode{driver.PresentModeFifo, driver.PresentModeMailbox},
	}
}

func (s *fakeSurface) Formats() ([]driver.SurfaceFormat, error) { return s.formats, nil }

func (s *fakeSurface) Capabilities() (driver.SurfaceCapabilities, error) { return s.caps, nil }

func (s *fakeSurface) PresentModes() ([]driver.PresentMode, error) { return s.modes, nil }

type fakeMemory struct {
	gpu       *fakeGPU
	data      []byte
	typeIndex uint32
	mapped    bool
	maps      int
	freed     bool
}

func (m *fakeMemory) Map(offset, size uint64) ([]byte, error) {
	if m.mapped {
		return nil, errors.New("memory already mapped")
	}
	if m.gpu.memTypes[m.typeIndex].Properties&driver.MemoryPropertyHostVisible == 0 {
		return nil, errors.New("memory is not host visible")
	}
	if offset+size > uint64(len(m.data)) {
		return nil, errors.New("map out of range")
	}
	m.mapped = true
	m.maps++
	return m.data[offset : offset+size], nil
}

func (m *fakeMemory) Unmap() {
	if !m.mapped {
		m.gpu.violations = append(m.gpu.violations, "unmap of unmapped memory")
	}
	m.mapped = false
}

func (m *fakeMemory) Free() {
	if m.mapped {
		m.gpu.violations = append(m.gpu.violations, "free of mapped memory")
	}
	m.freed = true
	m.gpu.destroyedOne("memory")
}

type fakeBuffer struct {
	gpu       *fakeGPU
	size      uint64
	usage     driver.BufferUsage
	mem       *fakeMemory
	destroyed bool
}

func (b *fakeBuffer) Requirements() driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: b.size, Alignment: 4, TypeBits: 0b11}
}

func (b *fakeBuffer) Bind(mem driver.Memory, offset uint64) error {
	b.mem = mem.(*fakeMemory)
	return nil
}

func (b *fakeBuffer) Destroy() {
	if b.mem != nil && b.mem.freed {
		b.gpu.violations = append(b.gpu.violations, "buffer outlived its memory")
	}
	b.destroyed = true
	b.gpu.destroyedOne("buffer")
}

type fakeImage struct {
	gpu       *fakeGPU
	desc      driver.ImageDesc
	mem       *fakeMemory
	owned     bool
	destroyed bool
}

func (i *fakeImage) Requirements() driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: uint64(i.desc.Extent.Width) * uint64(i.desc.Extent.Height) * 2, Alignment: 256, TypeBits: 0b01}
}

func (i *fakeImage) Bind(mem driver.Memory, offset uint64) error {
	i.mem = mem.(*fakeMemory)
	return nil
}

func (i *fakeImage) Destroy() {
	if !i.owned {
		i.gpu.violations = append(i.gpu.violations, "swapchain image destroyed by the application")
		return
	}
	i.destroyed = true
	i.gpu.destroyedOne("image")
}

type fakeView struct {
	gpu  *fakeGPU
	desc driver.ImageViewDesc
}

func (v *fakeView) Destroy() { v.gpu.destroyedOne("view") }

type fakeFence struct {
	gpu      *fakeGPU
	signaled bool
	waits    int
	resets   int
	guards   []*fakeCmd
	// each Wait pops one error and returns it with the guarded work still pending
	waitErrs []error
}

// complete finishes the GPU work guarded by the fence.
func (f *fakeFence) complete() {
	f.signaled = true
	for _, c := range f.guards {
		c.inFlight = nil
	}
	f.guards = nil
}

func (f *fakeFence) Wait(timeout uint64) error {
	f.waits++
	if len(f.waitErrs) > 0 {
		err := f.waitErrs[0]
		f.waitErrs = f.waitErrs[1:]
		return err
	}
	f.complete()
	return nil
}

func (f *fakeFence) Reset() error {
	if !f.signaled {
		f.gpu.violations = append(f.gpu.violations, "reset of an unsignaled fence")
	}
	f.resets++
	f.signaled = false
	return nil
}

func (f *fakeFence) Destroy() { f.gpu.destroyedOne("fence") }

type fakeSemaphore struct {
	gpu *fakeGPU
}

func (s *fakeSemaphore) Destroy() { s.gpu.destroyedOne("semaphore") }

type fakeCommandPool struct {
	gpu  *fakeGPU
	cmds []*fakeCmd
}

func (p *fakeCommandPool) Allocate(n int) ([]driver.CmdBuffer, error) {
	out := make([]driver.CmdBuffer, 0, n)
	for i := 0; i < n; i++ {
		c := &fakeCmd{gpu: p.gpu, id: len(p.cmds)}
		p.cmds = append(p.cmds, c)
		out = append(out, c)
	}
	return out, nil
}

func (p *fakeCommandPool) Destroy() { p.gpu.destroyedOne("cmdpool") }

type drawCall struct {
	IndexCount, InstanceCount, FirstIndex uint32
	VertexOffset                          int32
	FirstInstance                         uint32
}

type fakeCmd struct {
	gpu       *fakeGPU
	id        int
	inFlight  *fakeFence
	recording bool
	resets    int
	begins    int
	beginErr  error
	endErr    error

	ops       []string
	copies    [][3]interface{}
	barriers  []driver.ImageBarrier
	rendering []driver.RenderingInfo
	draws     []drawCall
	sets      []driver.DescriptorSet
	pipeline  driver.Pipeline
	viewport  driver.Viewport
	scissor   driver.Rect2D
	indexType driver.IndexType
}

func (c *fakeCmd) touch(op string) {
	if c.inFlight != nil {
		c.gpu.violations = append(c.gpu.violations, fmt.Sprintf("cmd %d: %s while in flight", c.id, op))
	}
}

func (c *fakeCmd) record(op string) {
	c.touch(op)
	if !c.recording {
		c.gpu.violations = append(c.gpu.violations, fmt.Sprintf("cmd %d: %s outside recording", c.id, op))
	}
	c.ops = append(c.ops, op)
}

func (c *fakeCmd) Reset() error {
	c.touch("reset")
	c.resets++
	c.ops, c.copies, c.barriers, c.rendering, c.draws, c.sets = nil, nil, nil, nil, nil, nil
	c.pipeline = nil
	return nil
}

func (c *fakeCmd) Begin() error {
	c.touch("begin")
	c.begins++
	if c.beginErr != nil {
		return c.beginErr
	}
	c.recording = true
	return nil
}

func (c *fakeCmd) End() error {
	c.touch("end")
	c.recording = false
	return c.endErr
}

func (c *fakeCmd) CopyBuffer(src, dst driver.Buffer, size uint64) {
	c.record("copy")
	c.copies = append(c.copies, [3]interface{}{src, dst, size})
}

func (c *fakeCmd) Barrier(b *driver.ImageBarrier) {
	c.record("barrier")
	c.barriers = append(c.barriers, *b)
}

func (c *fakeCmd) BeginRendering(info *driver.RenderingInfo) {
	c.record("begin-rendering")
	c.rendering = append(c.rendering, *info)
}

func (c *fakeCmd) EndRendering() { c.record("end-rendering") }

func (c *fakeCmd) BindPipeline(p driver.Pipeline) {
	c.record("bind-pipeline")
	c.pipeline = p
}

func (c *fakeCmd) SetViewport(v driver.Viewport) {
	c.record("viewport")
	c.viewport = v
}

func (c *fakeCmd) SetScissor(r driver.Rect2D) {
	c.record("scissor")
	c.scissor = r
}

func (c *fakeCmd) BindVertexBuffer(binding uint32, buf driver.Buffer, offset uint64) {
	c.record("bind-vertex")
}

func (c *fakeCmd) BindIndexBuffer(buf driver.Buffer, offset uint64, typ driver.IndexType) {
	c.record("bind-index")
	c.indexType = typ
}

func (c *fakeCmd) BindDescriptorSet(p driver.Pipeline, set driver.DescriptorSet) {
	c.record("bind-set")
	c.sets = append(c.sets, set)
}

func (c *fakeCmd) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	c.record("draw")
	c.draws = append(c.draws, drawCall{indexCount, instanceCount, firstIndex, vertexOffset, firstInstance})
}

type submission struct {
	cmd       *fakeCmd
	ops       []string
	wait      []driver.Semaphore
	waitStage driver.PipelineStage
	signal    []driver.Semaphore
	fence     *fakeFence
}

type presentResult struct {
	suboptimal bool
	err        error
}

type fakeQueue struct {
	gpu          *fakeGPU
	submits      []submission
	presents     []driver.Presentation
	presentQueue []presentResult
	submitErr    error
}

func (q *fakeQueue) Submit(s *driver.Submission) error {
	cmd := s.Cmd.(*fakeCmd)
	fence := s.Fence.(*fakeFence)
	if q.submitErr != nil {
		return q.submitErr
	}
	if fence.signaled {
		q.gpu.violations = append(q.gpu.violations, "submit with a signaled fence")
	}
	// copies take effect immediately, ordering is only observed through fences
	for _, c := range cmd.copies {
		src, dst := c[0].(*fakeBuffer), c[1].(*fakeBuffer)
		copy(dst.mem.data[:c[2].(uint64)], src.mem.data)
	}
	cmd.inFlight = fence
	fence.guards = append(fence.guards, cmd)
	q.submits = append(q.submits, submission{
		cmd:       cmd,
		ops:       append([]string(nil), cmd.ops...),
		wait:      s.Wait,
		waitStage: s.WaitStage,
		signal:    s.Signal,
		fence:     fence,
	})
	return nil
}

func (q *fakeQueue) Present(p *driver.Presentation) (bool, error) {
	q.presents = append(q.presents, *p)
	if len(q.presentQueue) > 0 {
		r := q.presentQueue[0]
		q.presentQueue = q.presentQueue[1:]
		return r.suboptimal, r.err
	}
	return false, nil
}

func (q *fakeQueue) completeAll() {
	for _, s := range q.submits {
		s.fence.complete()
	}
}

func (q *fakeQueue) submitsOn(cmd *fakeCmd) []submission {
	var out []submission
	for _, s := range q.submits {
		if s.cmd == cmd {
			out = append(out, s)
		}
	}
	return out
}

type acquireResult struct {
	index      uint32
	suboptimal bool
	err        error
}

type fakeSwapchain struct {
	gpu          *fakeGPU
	desc         driver.SwapchainDesc
	images       []*fakeImage
	next         uint32
	acquireQueue []acquireResult
	acquires     int
	destroyed    bool
}

func (s *fakeSwapchain) Images() ([]driver.Image, error) {
	out := make([]driver.Image, len(s.images))
	for i, img := range s.images {
		out[i] = img
	}
	return out, nil
}

func (s *fakeSwapchain) Acquire(sem driver.Semaphore, timeout uint64) (uint32, bool, error) {
	s.acquires++
	if len(s.acquireQueue) > 0 {
		r := s.acquireQueue[0]
		s.acquireQueue = s.acquireQueue[1:]
		return r.index, r.suboptimal, r.err
	}
	idx := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	return idx, false, nil
}

func (s *fakeSwapchain) Destroy() {
	s.destroyed = true
	s.gpu.destroyedOne("swapchain")
}

type fakeShaderModule struct {
	gpu  *fakeGPU
	code []uint32
}

func (m *fakeShaderModule) Destroy() { m.gpu.destroyedOne("shader") }

type fakeSetLayout struct {
	gpu      *fakeGPU
	bindings []driver.DescriptorBinding
}

func (l *fakeSetLayout) Destroy() { l.gpu.destroyedOne("setlayout") }

type fakeDescriptorPool struct {
	gpu      *fakeGPU
	typ      driver.DescriptorType
	capacity uint32
	sets     []*fakeDescriptorSet
}

func (p *fakeDescriptorPool) Allocate(layout driver.DescriptorSetLayout, n int) ([]driver.DescriptorSet, error) {
	if len(p.sets)+n > int(p.capacity) {
		return nil, errors.New("descriptor pool exhausted")
	}
	out := make([]driver.DescriptorSet, 0, n)
	for i := 0; i < n; i++ {
		s := &fakeDescriptorSet{layout: layout}
		p.sets = append(p.sets, s)
		out = append(out, s)
	}
	return out, nil
}

func (p *fakeDescriptorPool) Destroy() { p.gpu.destroyedOne("descpool") }

type descriptorWrite struct {
	binding      uint32
	buf          driver.Buffer
	offset, size uint64
}

type fakeDescriptorSet struct {
	layout driver.DescriptorSetLayout
	writes []descriptorWrite
}

func (s *fakeDescriptorSet) WriteUniformBuffer(binding uint32, buf driver.Buffer, offset, size uint64) {
	s.writes = append(s.writes, descriptorWrite{binding, buf, offset, size})
}

type fakePipeline struct {
	gpu  *fakeGPU
	desc driver.PipelineDesc
}

func (p *fakePipeline) Destroy() { p.gpu.destroyedOne("pipeline") }

type fakeWindow struct {
	width, height int
}

func (w *fakeWindow) FramebufferSize() (int, int) { return w.width, w.height }

type fakeCamera struct {
	view    math.Mat4
	aspects []float32
}

func (c *fakeCamera) ViewMatrix() math.Mat4 { return c.view }

func (c *fakeCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	c.aspects = append(c.aspects, aspect)
	return math.NewMat4Perspective(math.DegToRad(45), aspect, 0.1, 100)
}

var testShaders = []ShaderBinary{
	{Stage: driver.ShaderStageVertex, EntryPoint: "vs_main", Code: []uint32{0x07230203, 1}},
	{Stage: driver.ShaderStageFragment, EntryPoint: "fs_main", Code: []uint32{0x07230203, 2}},
}
