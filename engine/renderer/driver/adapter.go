package driver

import "fmt"

type AdapterType int32

const (
	AdapterTypeOther         AdapterType = 0
	AdapterTypeIntegratedGPU AdapterType = 1
	AdapterTypeDiscreteGPU   AdapterType = 2
	AdapterTypeVirtualGPU    AdapterType = 3
	AdapterTypeCPU           AdapterType = 4
)

func (t AdapterType) String() string {
	switch t {
	case AdapterTypeIntegratedGPU:
		return "integrated"
	case AdapterTypeDiscreteGPU:
		return "discrete"
	case AdapterTypeVirtualGPU:
		return "virtual"
	case AdapterTypeCPU:
		return "cpu"
	}
	return "other"
}

// AdapterInfo describes a physical device.
type AdapterInfo struct {
	Name                string
	VendorID            uint32
	DeviceID            uint32
	Type                AdapterType
	MaxImageDimension2D uint32
	// GraphicsFamily is the last queue family with graphics support, -1 if none.
	GraphicsFamily int
	// TransferFamily is a transfer-only queue family, -1 if none.
	TransferFamily int
}

func (a AdapterInfo) String() string {
	return fmt.Sprintf("%s (vendor 0x%04x, device 0x%04x, %s)", a.Name, a.VendorID, a.DeviceID, a.Type)
}

// Score ranks adapters by type, then by maximum 2D image size.
func (a AdapterInfo) Score() uint32 {
	var score uint32
	switch a.Type {
	case AdapterTypeDiscreteGPU:
		score += 1000
	case AdapterTypeIntegratedGPU:
		score += 100
	case AdapterTypeVirtualGPU:
		score += 10
	case AdapterTypeCPU:
		score += 1
	}
	return score + a.MaxImageDimension2D
}

// SelectAdapter returns the index of the adapter to open. Only adapters with a
// graphics queue family qualify. The first qualifying adapter whose DeviceID
// matches preferredDeviceID wins outright, otherwise the highest score wins and
// ties go to the adapter listed last.
func SelectAdapter(adapters []AdapterInfo, preferredDeviceID *uint32) (int, error) {
	selected := -1
	var best uint32
	for i, a := range adapters {
		if a.GraphicsFamily < 0 {
			continue
		}
		if preferredDeviceID != nil && a.DeviceID == *preferredDeviceID {
			return i, nil
		}
		if s := a.Score(); selected < 0 || s >= best {
			selected, best = i, s
		}
	}
	if selected < 0 {
		return -1, ErrNoAdapter
	}
	return selected, nil
}
