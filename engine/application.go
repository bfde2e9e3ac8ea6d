package engine

import (
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name string
	// Path of the TOML file the configuration was read from. Watched for changes when not empty.
	ConfigPath string
}

func NewApplicationConfig(cfg *core.Config, path string) *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:   cfg.Application.StartX,
		StartPosY:   cfg.Application.StartY,
		StartWidth:  cfg.Application.Width,
		StartHeight: cfg.Application.Height,
		Name:        cfg.Application.Name,
		ConfigPath:  path,
	}
}

func applyLogging(cfg core.LoggingSection) error {
	if err := core.SetLogLevel(cfg.Level); err != nil {
		return err
	}
	core.SetLogColor(cfg.Color)
	return nil
}

func instanceConfig(cfg *core.Config) vulkan.Config {
	return vulkan.Config{
		ApplicationName: cfg.Application.Name,
		Debug:           cfg.Renderer.Debug,
	}
}

func controllerOptions(cfg core.CameraSection) []components.CameraControllerOption {
	return []components.CameraControllerOption{
		components.WithSpeed(cfg.Speed),
		components.WithSensitivity(cfg.Sensitivity),
	}
}

func userSettings(cfg *core.Config) renderer.UserSettings {
	return renderer.SettingsFromConfig(cfg.Renderer)
}
