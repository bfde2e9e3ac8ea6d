package renderer

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// Vertex is the layout of the vertex buffer: a position followed by an RGBA color.
type Vertex struct {
	Position math.Vec3
	Color    math.Vec4
}

// Vertices are two overlapping triangles, the first at z=2 and the second behind it at z=3.
var Vertices = []Vertex{
	{Position: math.NewVec3(-1, 1, 2), Color: math.NewVec4(1, 1, 0, 1)},
	{Position: math.NewVec3(1, 1, 2), Color: math.NewVec4(1, 0, 1, 1)},
	{Position: math.NewVec3(0, -1, 2), Color: math.NewVec4(1, 1, 0, 1)},
	{Position: math.NewVec3(-1, -1, 3), Color: math.NewVec4(0, 1, 0.5, 1)},
	{Position: math.NewVec3(1, -1, 3), Color: math.NewVec4(0.5, 0, 1, 1)},
	{Position: math.NewVec3(0, 1, 3), Color: math.NewVec4(1, 0.5, 0, 1)},
}

var Indices = []uint32{0, 1, 2, 3, 4, 5}

// Mesh is the vertex and index data uploaded to device local memory.
type Mesh struct {
	VertexBuffer *Buffer[Vertex]
	IndexBuffer  *Buffer[uint32]
	IndexCount   uint32
}

func UploadMesh(gpu driver.GPU, sub *Submitter, queue driver.Queue, vertices []Vertex, indices []uint32) (*Mesh, error) {
	vb, err := UploadStaged(gpu, sub, queue, vertices, driver.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	ib, err := UploadStaged(gpu, sub, queue, indices, driver.BufferUsageIndex)
	if err != nil {
		vb.Destroy()
		return nil, err
	}
	return &Mesh{
		VertexBuffer: vb,
		IndexBuffer:  ib,
		IndexCount:   uint32(len(indices)),
	}, nil
}

func (m *Mesh) Destroy() {
	if m.IndexBuffer != nil {
		m.IndexBuffer.Destroy()
		m.IndexBuffer = nil
	}
	if m.VertexBuffer != nil {
		m.VertexBuffer.Destroy()
		m.VertexBuffer = nil
	}
}
