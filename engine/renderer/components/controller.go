package components

import (
	"sync"

	"github.com/spaghettifunk/prism/engine/core"
)

const (
	DefaultCameraSpeed       float32 = 0.05
	DefaultCameraSensitivity float32 = 0.002
)

// CameraController turns raw input into camera motion. Input may arrive from
// the event callbacks at any time; it is accumulated and applied once per
// frame by UpdateCamera.
type CameraController interface {
	// ProcessMouseMotion accumulates a cursor delta in pixels.
	ProcessMouseMotion(dx, dy float64)
	// ProcessKey updates the movement flags. It reports whether the key moves the camera.
	ProcessKey(key core.KeyCode, pressed bool) bool
	// UpdateCamera applies the accumulated rotation and the active movement
	// directions to camera, then clears the accumulated rotation.
	UpdateCamera(camera *Camera)
	Speed() float32
	Sensitivity() float32
}

type CameraControllerOption func(*cameraControllerImpl)

// WithSpeed sets the distance moved per update for each held direction.
func WithSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.speed = speed
	}
}

// WithSensitivity sets the radians turned per pixel of mouse motion.
func WithSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.sensitivity = sensitivity
	}
}

type cameraControllerImpl struct {
	mu *sync.Mutex

	speed       float32
	sensitivity float32

	deltaX, deltaY float64

	forward, backward bool
	left, right       bool
	up, down          bool
}

var _ CameraController = &cameraControllerImpl{}

func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		speed:       DefaultCameraSpeed,
		sensitivity: DefaultCameraSensitivity,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *cameraControllerImpl) Sensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.sensitivity
}

func (cc *cameraControllerImpl) ProcessMouseMotion(dx, dy float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.deltaX += dx
	cc.deltaY += dy
}

func (cc *cameraControllerImpl) ProcessKey(key core.KeyCode, pressed bool) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch key {
	case core.KEY_W, core.KEY_UP:
		cc.forward = pressed
	case core.KEY_S, core.KEY_DOWN:
		cc.backward = pressed
	case core.KEY_A, core.KEY_LEFT:
		cc.left = pressed
	case core.KEY_D, core.KEY_RIGHT:
		cc.right = pressed
	case core.KEY_SPACE:
		cc.up = pressed
	case core.KEY_LSHIFT:
		cc.down = pressed
	default:
		return false
	}
	return true
}

func (cc *cameraControllerImpl) UpdateCamera(camera *Camera) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	camera.SetOrientation(
		camera.Phi+float32(cc.deltaY)*cc.sensitivity,
		camera.Theta+float32(cc.deltaX)*cc.sensitivity,
	)
	cc.deltaX, cc.deltaY = 0, 0

	if cc.forward {
		camera.MoveForward(cc.speed)
	}
	if cc.backward {
		camera.MoveBackward(cc.speed)
	}
	if cc.left {
		camera.MoveLeft(cc.speed)
	}
	if cc.right {
		camera.MoveRight(cc.speed)
	}
	if cc.up {
		camera.MoveUp(cc.speed)
	}
	if cc.down {
		camera.MoveDown(cc.speed)
	}
}
