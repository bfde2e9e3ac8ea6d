package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

var minimumAPIVersion = uint32(vk.MakeVersion(1, 3, 0))

// describeAdapter fills in an AdapterInfo. Devices that cannot render to the
// surface with dynamic rendering report GraphicsFamily -1.
func describeAdapter(pd vk.PhysicalDevice, surface vk.Surface) driver.AdapterInfo {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	props.Limits.Deref()

	info := driver.AdapterInfo{
		Name:                cString(props.DeviceName[:]),
		VendorID:            props.VendorID,
		DeviceID:            props.DeviceID,
		Type:                driver.AdapterType(props.DeviceType),
		MaxImageDimension2D: props.Limits.MaxImageDimension2D,
		GraphicsFamily:      -1,
		TransferFamily:      -1,
	}

	graphics, transfer := queueFamilies(pd, surface)
	info.TransferFamily = transfer

	switch {
	case uint32(props.ApiVersion) < minimumAPIVersion:
		core.LogInfo("Adapter %s supports Vulkan %d.%d only, skipping.", info.Name,
			props.ApiVersion>>22, (props.ApiVersion>>12)&0x3ff)
	case !hasExtension(deviceExtensions(pd), vk.KhrSwapchainExtensionName):
		core.LogInfo("Adapter %s has no swapchain support, skipping.", info.Name)
	default:
		info.GraphicsFamily = graphics
	}
	return info
}

// queueFamilies returns the last family that can both draw and present to the
// surface, and the first transfer-only family. Either is -1 when absent.
func queueFamilies(pd vk.PhysicalDevice, surface vk.Surface) (graphics, transfer int) {
	graphics, transfer = -1, -1

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, families)

	for i := range families {
		families[i].Deref()
		flags := vk.QueueFlagBits(families[i].QueueFlags)

		if flags&vk.QueueGraphicsBit != 0 {
			var supportsPresent vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supportsPresent)
			if supportsPresent == vk.True {
				graphics = i
			}
		}
		if transfer < 0 && flags&vk.QueueTransferBit != 0 &&
			flags&(vk.QueueGraphicsBit|vk.QueueComputeBit) == 0 {
			transfer = i
		}
	}
	return graphics, transfer
}

func deviceExtensions(pd vk.PhysicalDevice) []string {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil); res != vk.Success || count == 0 {
		return nil
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, available); res != vk.Success {
		return nil
	}
	names := make([]string, 0, count)
	for i := range available {
		available[i].Deref()
		names = append(names, cString(available[i].ExtensionName[:]))
	}
	return names
}

func hasExtension(extensions []string, name string) bool {
	name = cString([]byte(name))
	for _, e := range extensions {
		if e == name {
			return true
		}
	}
	return false
}
