package driver

import "errors"

var (
	// ErrOutOfDate means the swapchain no longer matches the surface and must be rebuilt.
	ErrOutOfDate = errors.New("driver: swapchain out of date")
	// ErrNoAdapter means no physical device qualifies for rendering.
	ErrNoAdapter = errors.New("driver: no suitable adapter found")
	// ErrTimeout means a wait returned before its object was signaled.
	ErrTimeout = errors.New("driver: timeout")
	// ErrDeviceLost means the logical device is unusable.
	ErrDeviceLost = errors.New("driver: device lost")
)
