// Package vulkan implements the renderer's driver interfaces on top of
// github.com/goki/vulkan.
package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Window is the presentation target the instance creates its surface for.
type Window interface {
	// RequiredInstanceExtensions lists the extensions the window system needs.
	RequiredInstanceExtensions() []string
	// CreateSurface returns a VkSurfaceKHR handle for the given instance.
	CreateSurface(instance interface{}) (uintptr, error)
}

type Config struct {
	ApplicationName string
	// Debug enables the validation layer and routes its reports to the log.
	Debug bool
}

// Instance owns the VkInstance, the debug callback and the window surface.
type Instance struct {
	config   Config
	handle   vk.Instance
	surface  vk.Surface
	debugger vk.DebugReportCallback

	// vkGetInstanceProcAddr as handed out by glfw, used for device level lookups
	getProcAddr unsafe.Pointer

	physical []vk.PhysicalDevice
	adapters []driver.AdapterInfo
}

var _ driver.Instance = &Instance{}

// NewInstance loads the Vulkan loader through glfw and creates an instance with
// a surface for the window. glfw must already be initialized.
func NewInstance(window Window, config Config) (*Instance, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError("%s", err)
		return nil, err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return nil, err
	}

	inst := &Instance{config: config, getProcAddr: procAddr}
	if err := inst.create(window); err != nil {
		inst.Destroy()
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) create(window Window) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 3, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(inst.config.ApplicationName),
		PEngineName:        VulkanSafeString("Prism Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := append([]string{}, window.RequiredInstanceExtensions()...)
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			vk.KhrPortabilityEnumerationExtensionName,
			vk.KhrGetPhysicalDeviceProperties2ExtensionName,
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if inst.config.Debug {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		if err := requireLayer(validationLayer); err != nil {
			return err
		}
		layers = append(layers, validationLayer)
	}
	core.LogDebug("Required extensions: %v", extensions)

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	if err := check("vkCreateInstance", vk.CreateInstance(&createInfo, nil, &inst.handle)); err != nil {
		core.LogError("%s", err)
		return err
	}
	if err := vk.InitInstance(inst.handle); err != nil {
		core.LogError("%s", err)
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if inst.config.Debug {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := check("vkCreateDebugReportCallback", vk.CreateDebugReportCallback(inst.handle, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("%s", err)
			return err
		}
		inst.debugger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := window.CreateSurface(inst.handle)
	if err != nil {
		err = fmt.Errorf("failed to create platform surface: %w", err)
		core.LogError("%s", err)
		return err
	}
	inst.surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")
	return nil
}

func requireLayer(name string) error {
	var count uint32
	if err := check("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return err
	}
	available := make([]vk.LayerProperties, count)
	if err := check("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, available)); err != nil {
		return err
	}
	for i := range available {
		available[i].Deref()
		if cString(available[i].LayerName[:]) == name {
			core.LogInfo("Validation layer %s found.", name)
			return nil
		}
	}
	err := fmt.Errorf("required validation layer is missing: %s", name)
	core.LogError("%s", err)
	return err
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

// Adapters enumerates the physical devices once and caches the result.
func (inst *Instance) Adapters() ([]driver.AdapterInfo, error) {
	if inst.adapters != nil {
		return inst.adapters, nil
	}
	var count uint32
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(inst.handle, &count, nil)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	if count == 0 {
		return nil, driver.ErrNoAdapter
	}
	physical := make([]vk.PhysicalDevice, count)
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(inst.handle, &count, physical)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	adapters := make([]driver.AdapterInfo, len(physical))
	for i, pd := range physical {
		adapters[i] = describeAdapter(pd, inst.surface)
		core.LogInfo("Found adapter %s, graphics family %d, transfer family %d",
			adapters[i], adapters[i].GraphicsFamily, adapters[i].TransferFamily)
	}
	inst.physical = physical
	inst.adapters = adapters
	return adapters, nil
}

// Open picks an adapter and creates the logical device on it.
func (inst *Instance) Open(preferredDeviceID *uint32) (driver.GPU, error) {
	adapters, err := inst.Adapters()
	if err != nil {
		return nil, err
	}
	index, err := driver.SelectAdapter(adapters, preferredDeviceID)
	if err != nil {
		core.LogError("no adapter can render to the window surface")
		return nil, err
	}
	if preferredDeviceID != nil && adapters[index].DeviceID != *preferredDeviceID {
		core.LogWarn("preferred device 0x%04x not available, falling back", *preferredDeviceID)
	}
	return newGPU(inst, inst.physical[index], adapters[index])
}

func (inst *Instance) Destroy() {
	if inst.surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(inst.handle, inst.surface, nil)
		inst.surface = vk.NullSurface
	}
	if inst.debugger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(inst.handle, inst.debugger, nil)
		inst.debugger = vk.NullDebugReportCallback
	}
	if inst.handle != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(inst.handle, nil)
		inst.handle = nil
	}
	inst.physical = nil
	inst.adapters = nil
}
