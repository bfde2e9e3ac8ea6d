package renderer

import (
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

// UserSettings are the choices that require reopening the device when they change.
type UserSettings struct {
	// PreferredAdapterID is matched against AdapterInfo.DeviceID. Nil lets adapters be scored.
	PreferredAdapterID *uint32
}

func SettingsFromConfig(cfg core.RendererSection) UserSettings {
	s := UserSettings{}
	if cfg.PreferredAdapterID != nil {
		id := *cfg.PreferredAdapterID
		s.PreferredAdapterID = &id
	}
	return s
}

func (s UserSettings) Equal(other UserSettings) bool {
	if s.PreferredAdapterID == nil || other.PreferredAdapterID == nil {
		return s.PreferredAdapterID == nil && other.PreferredAdapterID == nil
	}
	return *s.PreferredAdapterID == *other.PreferredAdapterID
}

// ShaderBinary is one compiled SPIR-V stage of the mesh pipeline.
type ShaderBinary struct {
	Stage      driver.ShaderStage
	EntryPoint string
	Code       []uint32
}
