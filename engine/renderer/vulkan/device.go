package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// GPU is a logical device with dynamic rendering enabled. Every submission goes
// to a single graphics queue that can also present.
type GPU struct {
	instance *Instance
	physical vk.PhysicalDevice
	handle   vk.Device
	info     driver.AdapterInfo
	memory   []driver.MemoryType

	graphics  *queue
	transfer  vk.Queue
	locks     *VulkanLockPool
	rendering renderingProcs
}

var _ driver.GPU = &GPU{}

func newGPU(inst *Instance, pd vk.PhysicalDevice, info driver.AdapterInfo) (*GPU, error) {
	core.LogInfo("Creating logical device...")
	g := &GPU{
		instance: inst,
		physical: pd,
		info:     info,
		locks:    NewVulkanLockPool(),
	}

	// NOTE: do not create additional queues for shared indices.
	families := []uint32{uint32(info.GraphicsFamily)}
	if info.TransferFamily >= 0 && info.TransferFamily != info.GraphicsFamily {
		families = append(families, uint32(info.TransferFamily))
	}
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if hasExtension(deviceExtensions(pd), portabilitySubsetExtension) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtension)
		extensionNames = append(extensionNames, portabilitySubsetExtension)
	}

	features13 := vk.PhysicalDeviceVulkan13Features{
		SType:            vk.StructureTypePhysicalDeviceVulkan13Features,
		DynamicRendering: vk.True,
	}
	features13Ref, _ := features13.PassRef()
	defer features13.Free()

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   unsafe.Pointer(features13Ref),
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var device vk.Device
	if err := check("vkCreateDevice", vk.CreateDevice(pd, &deviceCreateInfo, nil, &device)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	g.handle = device
	core.LogInfo("Logical device created.")

	procs, err := loadRenderingProcs(inst.getProcAddr, inst.handle, device)
	if err != nil {
		err = fmt.Errorf("dynamic rendering unavailable: %w", err)
		core.LogError("%s", err)
		vk.DestroyDevice(device, nil)
		return nil, err
	}
	g.rendering = procs

	var graphics vk.Queue
	vk.GetDeviceQueue(device, uint32(info.GraphicsFamily), 0, &graphics)
	g.graphics = &queue{gpu: g, handle: graphics, family: uint32(info.GraphicsFamily)}
	g.locks.SetQueueFamily(uint32(info.GraphicsFamily))
	if info.TransferFamily >= 0 {
		vk.GetDeviceQueue(device, uint32(info.TransferFamily), 0, &g.transfer)
		g.locks.SetQueueFamily(uint32(info.TransferFamily))
	}
	core.LogInfo("Queues obtained.")

	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memProps)
	memProps.Deref()
	g.memory = make([]driver.MemoryType, memProps.MemoryTypeCount)
	for i := range g.memory {
		memProps.MemoryTypes[i].Deref()
		g.memory[i] = driver.MemoryType{
			Properties: driver.MemoryProperty(memProps.MemoryTypes[i].PropertyFlags),
			HeapIndex:  memProps.MemoryTypes[i].HeapIndex,
		}
	}
	return g, nil
}

func (g *GPU) Adapter() driver.AdapterInfo {
	return g.info
}

func (g *GPU) MemoryTypes() []driver.MemoryType {
	return g.memory
}

func (g *GPU) Surface() driver.Surface {
	return &surface{gpu: g}
}

func (g *GPU) GraphicsQueue() driver.Queue {
	return g.graphics
}

func (g *GPU) WaitIdle() error {
	return check("vkDeviceWaitIdle", vk.DeviceWaitIdle(g.handle))
}

// Destroy releases the logical device. Every object created from it must be gone.
func (g *GPU) Destroy() {
	if g.handle == nil {
		return
	}
	core.LogInfo("Destroying logical device...")
	g.graphics = nil
	g.transfer = nil
	vk.DestroyDevice(g.handle, nil)
	g.handle = nil
}
