package renderer

import (
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// MaxFramesInFlight bounds how many frames the host records ahead of the GPU.
const MaxFramesInFlight = 1

// FrameSlot holds the semaphores used by one frame in flight.
type FrameSlot struct {
	// PresentComplete is signaled when the acquired image can be rendered to.
	PresentComplete driver.Semaphore
	// RenderComplete is signaled when rendering finished and the image can be presented.
	RenderComplete driver.Semaphore
}

type FrameSlots struct {
	slots [MaxFramesInFlight]FrameSlot
}

// SlotFor maps a frame number to the slot it uses.
func SlotFor(frame uint64) int {
	return int(frame % MaxFramesInFlight)
}

func NewFrameSlots(gpu driver.GPU) (*FrameSlots, error) {
	f := &FrameSlots{}
	for i := range f.slots {
		present, err := gpu.NewSemaphore()
		if err != nil {
			f.Destroy()
			return nil, err
		}
		f.slots[i].PresentComplete = present

		render, err := gpu.NewSemaphore()
		if err != nil {
			f.Destroy()
			return nil, err
		}
		f.slots[i].RenderComplete = render
	}
	return f, nil
}

func (f *FrameSlots) Slot(i int) *FrameSlot {
	return &f.slots[i]
}

func (f *FrameSlots) Destroy() {
	for i := range f.slots {
		if f.slots[i].PresentComplete != nil {
			f.slots[i].PresentComplete.Destroy()
			f.slots[i].PresentComplete = nil
		}
		if f.slots[i].RenderComplete != nil {
			f.slots[i].RenderComplete.Destroy()
			f.slots[i].RenderComplete = nil
		}
	}
}
