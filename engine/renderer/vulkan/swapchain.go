package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// surface answers queries about the instance's window surface as seen by the GPU.
type surface struct {
	gpu *GPU
}

func (s *surface) handle() vk.Surface {
	return s.gpu.instance.surface
}

func (s *surface) Formats() ([]driver.SurfaceFormat, error) {
	var count uint32
	if err := check("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(s.gpu.physical, s.handle(), &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(s.gpu.physical, s.handle(), &count, formats)); err != nil {
		return nil, err
	}
	out := make([]driver.SurfaceFormat, count)
	for i := range formats {
		formats[i].Deref()
		out[i] = driver.SurfaceFormat{
			Format:     driver.Format(formats[i].Format),
			ColorSpace: driver.ColorSpace(formats[i].ColorSpace),
		}
	}
	return out, nil
}

func (s *surface) Capabilities() (driver.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := check("vkGetPhysicalDeviceSurfaceCapabilities", vk.GetPhysicalDeviceSurfaceCapabilities(s.gpu.physical, s.handle(), &caps)); err != nil {
		return driver.SurfaceCapabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return driver.SurfaceCapabilities{
		MinImageCount:       caps.MinImageCount,
		MaxImageCount:       caps.MaxImageCount,
		CurrentExtent:       driver.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent:      driver.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent:      driver.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		SupportedTransforms: driver.SurfaceTransform(caps.SupportedTransforms),
		CurrentTransform:    driver.SurfaceTransform(caps.CurrentTransform),
	}, nil
}

func (s *surface) PresentModes() ([]driver.PresentMode, error) {
	var count uint32
	if err := check("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(s.gpu.physical, s.handle(), &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := check("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(s.gpu.physical, s.handle(), &count, modes)); err != nil {
		return nil, err
	}
	out := make([]driver.PresentMode, count)
	for i, m := range modes {
		out[i] = driver.PresentMode(m)
	}
	return out, nil
}

type swapchain struct {
	gpu    *GPU
	handle vk.Swapchain
}

func (g *GPU) NewSwapchain(desc *driver.SwapchainDesc) (driver.Swapchain, error) {
	createInfo := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         g.instance.surface,
		MinImageCount:   desc.MinImageCount,
		ImageFormat:     vk.Format(desc.Format.Format),
		ImageColorSpace: vk.ColorSpace(desc.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
		},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(desc.Usage),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(desc.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(desc.PresentMode),
		Clipped:          bool32(desc.Clipped),
	}

	var handle vk.Swapchain
	err := g.locks.SafeCall(SwapchainManagement, func() error {
		return check("vkCreateSwapchain", vk.CreateSwapchain(g.handle, &createInfo, nil, &handle))
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &swapchain{gpu: g, handle: handle}, nil
}

// Images returns the presentable images. They belong to the swapchain and
// ignore Bind and Destroy.
func (sc *swapchain) Images() ([]driver.Image, error) {
	var count uint32
	if err := check("vkGetSwapchainImages", vk.GetSwapchainImages(sc.gpu.handle, sc.handle, &count, nil)); err != nil {
		return nil, err
	}
	handles := make([]vk.Image, count)
	if err := check("vkGetSwapchainImages", vk.GetSwapchainImages(sc.gpu.handle, sc.handle, &count, handles)); err != nil {
		return nil, err
	}
	images := make([]driver.Image, count)
	for i, h := range handles {
		images[i] = &image{gpu: sc.gpu, handle: h, borrowed: true}
	}
	return images, nil
}

func (sc *swapchain) Acquire(sem driver.Semaphore, timeout uint64) (uint32, bool, error) {
	var index uint32
	res := vk.AcquireNextImage(sc.gpu.handle, sc.handle, timeout, semaphoreHandle(sem), vk.NullFence, &index)
	switch res {
	case vk.Success:
		return index, false, nil
	case vk.Suboptimal:
		return index, true, nil
	}
	return 0, false, check("vkAcquireNextImage", res)
}

func (sc *swapchain) Destroy() {
	if sc.handle == vk.NullSwapchain {
		return
	}
	_ = sc.gpu.locks.SafeCall(SwapchainManagement, func() error {
		vk.DestroySwapchain(sc.gpu.handle, sc.handle, nil)
		return nil
	})
	sc.handle = vk.NullSwapchain
}
