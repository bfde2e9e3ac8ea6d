package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/prism/engine/assets/shaders"
	"github.com/spaghettifunk/prism/engine/containers"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// pending configuration reloads kept between two ticks, oldest dropped first
const reloadQueueSize = 4

var ErrInvalidStage = errors.New("engine: invalid stage")

// frameRenderer is the part of *renderer.Renderer the loop drives.
type frameRenderer interface {
	DrawFrame(camera renderer.CameraSource) error
	OnResize()
	Settings() renderer.UserSettings
	UpdateUserSettings(settings renderer.UserSettings) error
	Destroy()
}

type Engine struct {
	currentStage Stage
	appConfig    *ApplicationConfig
	config       *core.Config

	isRunning   atomic.Bool
	isSuspended bool

	platform   *platform.Platform
	instance   *vulkan.Instance
	renderer   frameRenderer
	camera     *components.Camera
	controller components.CameraController

	reloads *containers.RingQueue[*core.Config]
	metrics *core.MetricsState
	clock   *core.Clock

	width    uint32
	height   uint32
	lastTime float64
}

// New applies the logging section of cfg and prepares an engine. Nothing is
// created until Initialize.
func New(cfg *core.Config, configPath string) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	if err := applyLogging(cfg.Logging); err != nil {
		err = fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		core.LogError("%s", err)
		return nil, err
	}

	p, err := platform.New()
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	app := NewApplicationConfig(cfg, configPath)
	e := &Engine{
		currentStage: EngineStageUninitialized,
		appConfig:    app,
		config:       cfg,
		platform:     p,
		reloads:      containers.NewRingQueue[*core.Config](reloadQueueSize),
		metrics:      core.NewMetrics(),
		clock:        core.NewClock(),
		width:        app.StartWidth,
		height:       app.StartHeight,
	}
	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("%w: initialize called twice", ErrInvalidStage)
	}
	e.currentStage = EngineStageInitializing

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	e.registerEvents()

	if err := e.platform.Startup(e.appConfig.Name,
		e.appConfig.StartPosX,
		e.appConfig.StartPosY,
		e.appConfig.StartWidth,
		e.appConfig.StartHeight); err != nil {
		return err
	}

	instance, err := vulkan.NewInstance(e.platform, instanceConfig(e.config))
	if err != nil {
		return err
	}
	e.instance = instance

	program, err := shaders.LoadBuiltin()
	if err != nil {
		return err
	}

	r, err := renderer.New(e.instance, e.platform, program.Stages, userSettings(e.config))
	if err != nil {
		return err
	}
	e.renderer = r

	e.camera = components.NewCamera()
	e.controller = components.NewCameraController(controllerOptions(e.config.Camera)...)

	e.isRunning.Store(true)
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized", e.appConfig.Name)
	return nil
}

func (e *Engine) registerEvents() {
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_MOUSE_MOVED, e, e.onMouseMoved)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
}

// Run drives the frame loop until the window closes, Stop is called or ctx is
// cancelled, then shuts the engine down. It must be called from the main goroutine.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("%w: run called before initialize", ErrInvalidStage)
	}
	e.currentStage = EngineStageRunning

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if e.appConfig.ConfigPath != "" {
		go func() {
			if err := core.WatchConfig(ctx, e.appConfig.ConfigPath, e.queueReload); err != nil {
				core.LogWarn("configuration hot reload disabled: %s", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		e.Stop()
	}()

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if e.isSuspended {
			e.platform.WaitMessages()
			continue
		}
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}
		// a quit or a minimize may have been handled while pumping
		if !e.isRunning.Load() || e.isSuspended {
			continue
		}
		if err := e.tick(); err != nil {
			core.LogFatal("frame failed, shutting down: %s", err)
		}
	}

	return e.Shutdown()
}

func (e *Engine) tick() error {
	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime

	if err := e.applyReloads(); err != nil {
		return err
	}

	e.controller.UpdateCamera(e.camera)
	if err := e.renderer.DrawFrame(e.camera); err != nil {
		return err
	}

	if e.metrics.Update(delta) {
		core.LogDebug("%.0f fps, %.3f ms/frame", e.metrics.FPSValue(), e.metrics.FrameTime())
	}

	// NOTE: input state is copied last, after everything that reads it this frame.
	core.InputUpdate()
	e.lastTime = currentTime
	return nil
}

// Stop asks the loop to exit after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	if !e.isRunning.Swap(false) {
		return
	}
	if e.platform != nil {
		e.platform.Wake()
	}
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	if e.renderer != nil {
		e.renderer.Destroy()
		e.renderer = nil
	}
	if e.instance != nil {
		e.instance.Destroy()
		e.instance = nil
	}
	var errs []error
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
	}
	errs = append(errs, core.EventShutdown(), core.InputShutdown())
	if err := errors.Join(errs...); err != nil {
		core.LogError("%s", err)
		return err
	}
	core.LogInfo("%s shut down", e.appConfig.Name)
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the last non zero framebuffer size seen.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) CurrentStage() Stage {
	return e.currentStage
}

func (e *Engine) queueReload(cfg *core.Config) {
	if e.reloads.Overwrite(cfg) {
		core.LogDebug("configuration reload superseded before it was applied")
	}
}

func (e *Engine) applyReloads() error {
	for _, cfg := range e.reloads.Drain() {
		if err := e.applyConfig(cfg); err != nil {
			return err
		}
		core.EventFire(core.EVENT_CODE_CONFIG_RELOADED, e, core.EventContext{Payload: cfg})
	}
	return nil
}

// applyConfig makes a reloaded configuration live. Window geometry only applies on the next start.
func (e *Engine) applyConfig(cfg *core.Config) error {
	if err := applyLogging(cfg.Logging); err != nil {
		core.LogWarn("keeping the current log level: %s", err)
	}

	if cfg.Camera != e.config.Camera {
		e.controller = components.NewCameraController(controllerOptions(cfg.Camera)...)
		core.LogDebug("camera controller updated: speed %.3f, sensitivity %.4f", cfg.Camera.Speed, cfg.Camera.Sensitivity)
	}

	if cfg.Application != e.config.Application {
		core.LogInfo("application settings changed, they take effect after a restart")
	}

	settings := userSettings(cfg)
	if !settings.Equal(e.renderer.Settings()) {
		core.LogInfo("renderer settings changed, reopening the device")
		if err := e.renderer.UpdateUserSettings(settings); err != nil {
			return err
		}
	}

	e.config = cfg
	return nil
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	keyCode := core.KeyCode(data.Data.U16[0])
	pressed := code == core.EVENT_CODE_KEY_PRESSED

	if pressed && keyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		// Block anything else from processing this.
		return true
	}
	return e.controller.ProcessKey(keyCode, pressed)
}

func (e *Engine) onMouseMoved(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	e.controller.ProcessMouseMotion(data.Data.F64[2], data.Data.F64[3])
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	width := data.Data.U32[0]
	height := data.Data.U32[1]

	// Handle minimization
	if width == 0 || height == 0 {
		if !e.isSuspended {
			core.LogInfo("Window minimized, suspending application.")
			e.isSuspended = true
		}
		return false
	}
	restored := e.isSuspended
	if restored {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if !restored && width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)
	e.renderer.OnResize()
	return false
}
