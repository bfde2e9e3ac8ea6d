package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

const hostVisibleCoherent = driver.MemoryPropertyHostVisible | driver.MemoryPropertyHostCoherent

// FindMemoryType returns the first memory type allowed by typeBits that has every requested property.
func FindMemoryType(types []driver.MemoryType, typeBits uint32, props driver.MemoryProperty) (uint32, error) {
	for i, t := range types {
		if typeBits&(1<<uint(i)) != 0 && t.Properties&props == props {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("%w: bits 0x%x, properties 0x%x", ErrNoMemoryType, typeBits, props)
}

// Buffer is a GPU buffer holding count elements of T. T must be plain old data:
// fixed size, no pointers, slices, strings or maps.
type Buffer[T any] struct {
	handle driver.Buffer
	memory driver.Memory
	mapped []byte

	count  int
	stride uint64
	usage  driver.BufferUsage
	props  driver.MemoryProperty
}

// NewBuffer creates the buffer, allocates and binds memory with props and, when
// persistentMap is set, keeps the memory mapped for its whole life.
func NewBuffer[T any](gpu driver.GPU, count int, usage driver.BufferUsage, props driver.MemoryProperty, persistentMap bool) (*Buffer[T], error) {
	if count <= 0 {
		return nil, fmt.Errorf("buffer element count must be positive, got %d", count)
	}
	if persistentMap && props&driver.MemoryPropertyHostVisible == 0 {
		return nil, fmt.Errorf("%w: cannot persistently map device local memory", ErrNotHostVisible)
	}
	var zero T
	b := &Buffer[T]{
		count:  count,
		stride: uint64(unsafe.Sizeof(zero)),
		usage:  usage,
		props:  props,
	}

	handle, err := gpu.NewBuffer(b.Size(), usage)
	if err != nil {
		return nil, err
	}
	b.handle = handle

	req := handle.Requirements()
	typeIndex, err := FindMemoryType(gpu.MemoryTypes(), req.TypeBits, props)
	if err != nil {
		handle.Destroy()
		core.LogError("%s", err)
		return nil, err
	}
	mem, err := gpu.AllocateMemory(req.Size, typeIndex)
	if err != nil {
		handle.Destroy()
		return nil, err
	}
	b.memory = mem
	if err := handle.Bind(mem, 0); err != nil {
		b.Destroy()
		return nil, err
	}
	if persistentMap {
		mapped, err := mem.Map(0, b.Size())
		if err != nil {
			b.Destroy()
			return nil, err
		}
		b.mapped = mapped
	}
	return b, nil
}

func (b *Buffer[T]) Handle() driver.Buffer {
	return b.handle
}

// Len is the capacity in elements.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Size is the capacity in bytes.
func (b *Buffer[T]) Size() uint64 {
	return b.stride * uint64(b.count)
}

func (b *Buffer[T]) Usage() driver.BufferUsage {
	return b.usage
}

func (b *Buffer[T]) Properties() driver.MemoryProperty {
	return b.props
}

func (b *Buffer[T]) IsMapped() bool {
	return b.mapped != nil
}

func asBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), uintptr(len(data))*unsafe.Sizeof(data[0]))
}

// WriteDirect copies data to the start of the buffer through a host mapping.
func (b *Buffer[T]) WriteDirect(data []T) error {
	if b.props&hostVisibleCoherent != hostVisibleCoherent {
		return ErrNotHostVisible
	}
	if len(data) > b.count {
		return fmt.Errorf("%w: %d elements into a buffer of %d", ErrBufferOverflow, len(data), b.count)
	}
	src := asBytes(data)
	if len(src) == 0 {
		return nil
	}
	if b.mapped != nil {
		copy(b.mapped, src)
		return nil
	}
	dst, err := b.memory.Map(0, uint64(len(src)))
	if err != nil {
		return err
	}
	copy(dst, src)
	b.memory.Unmap()
	return nil
}

// ReadDirect returns the first n elements through a host mapping.
func (b *Buffer[T]) ReadDirect(n int) ([]T, error) {
	if b.props&hostVisibleCoherent != hostVisibleCoherent {
		return nil, ErrNotHostVisible
	}
	if n < 0 || n > b.count {
		return nil, fmt.Errorf("%w: read of %d elements from a buffer of %d", ErrBufferOverflow, n, b.count)
	}
	out := make([]T, n)
	dst := asBytes(out)
	if len(dst) == 0 {
		return out, nil
	}
	if b.mapped != nil {
		copy(dst, b.mapped)
		return out, nil
	}
	src, err := b.memory.Map(0, uint64(len(dst)))
	if err != nil {
		return nil, err
	}
	copy(dst, src)
	b.memory.Unmap()
	return out, nil
}

// WriteFromStaging records and submits a copy of the whole staging buffer into b.
// It does not wait for the copy to finish; callers that free staging must wait on sub first.
func (b *Buffer[T]) WriteFromStaging(staging *Buffer[T], sub *Submitter, queue driver.Queue) error {
	if b.usage&driver.BufferUsageTransferDst == 0 {
		return fmt.Errorf("%w: destination lacks transfer destination usage", ErrUsageMismatch)
	}
	if staging.usage&driver.BufferUsageTransferSrc == 0 {
		return fmt.Errorf("%w: staging buffer lacks transfer source usage", ErrUsageMismatch)
	}
	if staging.Size() > b.Size() {
		return fmt.Errorf("%w: staging holds %d bytes, destination %d", ErrBufferOverflow, staging.Size(), b.Size())
	}
	size := staging.Size()
	return sub.Record(queue, nil, 0, nil, func(cmd driver.CmdBuffer) {
		cmd.CopyBuffer(staging.handle, b.handle, size)
	})
}

// Destroy releases the buffer and then its memory. Calling it twice is a no-op.
func (b *Buffer[T]) Destroy() {
	if b.mapped != nil {
		b.memory.Unmap()
		b.mapped = nil
	}
	if b.handle != nil {
		b.handle.Destroy()
		b.handle = nil
	}
	if b.memory != nil {
		b.memory.Free()
		b.memory = nil
	}
}

// UploadStaged creates a device local buffer holding data. The copy goes through a
// temporary host visible buffer which is released once the transfer has completed.
func UploadStaged[T any](gpu driver.GPU, sub *Submitter, queue driver.Queue, data []T, usage driver.BufferUsage) (*Buffer[T], error) {
	staging, err := NewBuffer[T](gpu, len(data), driver.BufferUsageTransferSrc, hostVisibleCoherent, false)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := staging.WriteDirect(data); err != nil {
		return nil, err
	}
	dst, err := NewBuffer[T](gpu, len(data), usage|driver.BufferUsageTransferDst, driver.MemoryPropertyDeviceLocal, false)
	if err != nil {
		return nil, err
	}
	if err := dst.WriteFromStaging(staging, sub, queue); err != nil {
		dst.Destroy()
		return nil, err
	}
	if err := sub.Wait(); err != nil {
		dst.Destroy()
		return nil, err
	}
	return dst, nil
}
