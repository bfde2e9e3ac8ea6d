package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

const DefaultConfigFile = "prism.toml"

type ApplicationSection struct {
	Name   string `toml:"name"`
	StartX uint32 `toml:"start_x"`
	StartY uint32 `toml:"start_y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type LoggingSection struct {
	Level string `toml:"level"`
	Color bool   `toml:"color"`
}

type RendererSection struct {
	Debug bool `toml:"debug"`
	// PreferredAdapterID selects a physical device by its vendor device id. Nil means "score them".
	PreferredAdapterID *uint32 `toml:"preferred_adapter_id,omitempty"`
}

type CameraSection struct {
	Speed       float32 `toml:"speed"`
	Sensitivity float32 `toml:"sensitivity"`
}

type Config struct {
	Application ApplicationSection `toml:"application"`
	Logging     LoggingSection     `toml:"logging"`
	Renderer    RendererSection    `toml:"renderer"`
	Camera      CameraSection      `toml:"camera"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationSection{
			Name:   "Prism",
			StartX: 100,
			StartY: 100,
			Width:  800,
			Height: 600,
		},
		Logging: LoggingSection{
			Level: "debug",
			Color: true,
		},
		Renderer: RendererSection{
			Debug: false,
		},
		Camera: CameraSection{
			Speed:       0.05,
			Sensitivity: 0.002,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			LogDebug("no configuration file at %s, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		err = fmt.Errorf("failed to parse %s: %w", path, err)
		LogError("%s", err)
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		LogError("%s", err)
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("%w: window size must be non-zero, got %dx%d", ErrConfigInvalid, c.Application.Width, c.Application.Height)
	}
	if c.Camera.Speed < 0 || c.Camera.Sensitivity < 0 {
		return fmt.Errorf("%w: camera speed and sensitivity must be positive", ErrConfigInvalid)
	}
	return nil
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WatchConfig reloads the configuration every time the file is written and hands the
// result to onChange. Parse failures are logged and the previous configuration stays live.
// It blocks until ctx is cancelled.
func WatchConfig(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		LogError("%s", err)
		return err
	}
	defer watcher.Close()

	// editors replace files on save, watch the directory instead of the file
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		LogError("%s", err)
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadConfig(path)
			if err != nil {
				LogWarn("ignoring configuration change: %s", err)
				continue
			}
			LogInfo("configuration reloaded from %s", path)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			LogWarn("configuration watcher error: %s", err)
		}
	}
}
