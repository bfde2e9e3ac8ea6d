package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	data := `
[application]
name = "demo"
width = 1280
height = 720

[renderer]
debug = true
preferred_adapter_id = 4242

[camera]
speed = 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Application.Name)
	assert.Equal(t, uint32(1280), cfg.Application.Width)
	assert.Equal(t, uint32(720), cfg.Application.Height)
	// untouched keys keep their defaults
	assert.Equal(t, uint32(100), cfg.Application.StartX)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Renderer.Debug)
	require.NotNil(t, cfg.Renderer.PreferredAdapterID)
	assert.Equal(t, uint32(4242), *cfg.Renderer.PreferredAdapterID)
	assert.InDelta(t, 0.5, cfg.Camera.Speed, 1e-6)
	assert.InDelta(t, 0.002, cfg.Camera.Sensitivity, 1e-6)
}

func TestLoadConfigRejectsZeroWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("[application]\nwidth = 0\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestLoadConfigRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("[application\nwidth = "), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	cfg := DefaultConfig()
	id := uint32(7)
	cfg.Renderer.PreferredAdapterID = &id
	cfg.Application.Name = "saved"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWatchConfigDeliversReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, DefaultConfig().Save(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(c *Config) { reloads <- c })
	}()

	// give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)

	cfg := DefaultConfig()
	cfg.Application.Name = "reloaded"
	require.NoError(t, cfg.Save(path))

	// a truncating write can surface an intermediate empty file first
	deadline := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case got := <-reloads:
			seen = got.Application.Name == "reloaded"
		case <-deadline:
			t.Fatal("no reload delivered")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
