package vulkan

/*
#include <stdlib.h>

typedef void *(*prism_get_instance_proc_addr)(void *instance, const char *name);
typedef void *(*prism_get_device_proc_addr)(void *device, const char *name);
typedef void (*prism_cmd_begin_rendering)(void *cmd, const void *info);
typedef void (*prism_cmd_end_rendering)(void *cmd);

static void *prism_device_proc(void *gipa, void *instance, void *device, const char *name) {
	prism_get_device_proc_addr gdpa = (prism_get_device_proc_addr)((prism_get_instance_proc_addr)gipa)(instance, "vkGetDeviceProcAddr");
	if (gdpa == NULL) {
		return NULL;
	}
	return gdpa(device, name);
}

static void prism_call_begin_rendering(void *fn, void *cmd, const void *info) {
	((prism_cmd_begin_rendering)fn)(cmd, info);
}

static void prism_call_end_rendering(void *fn, void *cmd) {
	((prism_cmd_end_rendering)fn)(cmd);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// renderingProcs holds the dynamic rendering entry points, which the binding does not wrap.
type renderingProcs struct {
	begin unsafe.Pointer
	end   unsafe.Pointer
}

// core names first, the KHR aliases cover 1.2 drivers exposing VK_KHR_dynamic_rendering
var (
	beginRenderingNames = []string{"vkCmdBeginRendering", "vkCmdBeginRenderingKHR"}
	endRenderingNames   = []string{"vkCmdEndRendering", "vkCmdEndRenderingKHR"}
)

func loadRenderingProcs(getInstanceProcAddr unsafe.Pointer, instance vk.Instance, device vk.Device) (renderingProcs, error) {
	if getInstanceProcAddr == nil {
		return renderingProcs{}, fmt.Errorf("vkGetInstanceProcAddr is not available")
	}
	lookup := func(names []string) (unsafe.Pointer, error) {
		for _, name := range names {
			cname := C.CString(name)
			fn := C.prism_device_proc(getInstanceProcAddr, unsafe.Pointer(instance), unsafe.Pointer(device), cname)
			C.free(unsafe.Pointer(cname))
			if fn != nil {
				return fn, nil
			}
		}
		return nil, fmt.Errorf("device does not expose %s", names[0])
	}

	begin, err := lookup(beginRenderingNames)
	if err != nil {
		return renderingProcs{}, err
	}
	end, err := lookup(endRenderingNames)
	if err != nil {
		return renderingProcs{}, err
	}
	return renderingProcs{begin: begin, end: end}, nil
}

func (p renderingProcs) cmdBeginRendering(cmd vk.CommandBuffer, info *vk.RenderingInfo) {
	ref, _ := info.PassRef()
	defer info.Free()
	C.prism_call_begin_rendering(p.begin, unsafe.Pointer(cmd), unsafe.Pointer(ref))
}

func (p renderingProcs) cmdEndRendering(cmd vk.CommandBuffer) {
	C.prism_call_end_rendering(p.end, unsafe.Pointer(cmd))
}
