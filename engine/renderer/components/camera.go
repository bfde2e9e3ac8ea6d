package components

import (
	"github.com/chewxy/math32"

	"github.com/spaghettifunk/prism/engine/math"
)

// CameraEpsilon keeps Phi away from the poles, where the forward vector would be parallel to up.
const CameraEpsilon float32 = 1e-3

/**
 * @brief A free-flying perspective camera. Orientation is kept as spherical
 * angles: Phi is the polar angle measured from -Y and Theta the azimuth
 * around Y, with Theta = 0 facing +Z.
 */
type Camera struct {
	/** @brief The position of this camera. */
	Position math.Vec3
	/** @brief Polar angle in radians, kept within (CameraEpsilon, PI - CameraEpsilon). */
	Phi float32
	/** @brief Azimuthal angle in radians. */
	Theta float32
	/** @brief Vertical field of view in radians. */
	FovY float32
	Near float32
	Far  float32
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

// Reset puts the camera at the origin looking down +Z.
func (c *Camera) Reset() {
	c.Position = math.NewVec3Zero()
	c.Phi = math.K_HALF_PI
	c.Theta = 0
	c.FovY = math.DegToRad(45.0)
	c.Near = 0.01
	c.Far = 100.0
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
}

// SetOrientation sets both angles, clamping Phi away from the poles.
func (c *Camera) SetOrientation(phi, theta float32) {
	c.Phi = math.Clamp(phi, CameraEpsilon, math.K_PI-CameraEpsilon)
	c.Theta = theta
}

func (c *Camera) Forward() math.Vec3 {
	sinPhi := math32.Sin(c.Phi)
	return math.NewVec3(sinPhi*math32.Sin(c.Theta), -math32.Cos(c.Phi), sinPhi*math32.Cos(c.Theta))
}

func (c *Camera) Backward() math.Vec3 {
	return c.Forward().MulScalar(-1)
}

// Right is horizontal: perpendicular to both the forward vector and world up.
func (c *Camera) Right() math.Vec3 {
	return c.Forward().Cross(math.NewVec3Up()).Normalized()
}

func (c *Camera) Left() math.Vec3 {
	return c.Right().MulScalar(-1)
}

func (c *Camera) Move(direction math.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.MulScalar(amount))
}

func (c *Camera) MoveForward(amount float32) {
	c.Move(c.Forward(), amount)
}

func (c *Camera) MoveBackward(amount float32) {
	c.Move(c.Backward(), amount)
}

func (c *Camera) MoveLeft(amount float32) {
	c.Move(c.Left(), amount)
}

func (c *Camera) MoveRight(amount float32) {
	c.Move(c.Right(), amount)
}

func (c *Camera) MoveUp(amount float32) {
	c.Move(math.NewVec3Up(), amount)
}

func (c *Camera) MoveDown(amount float32) {
	c.Move(math.NewVec3Up(), -amount)
}

// ViewMatrix looks along Forward with +Y up.
func (c *Camera) ViewMatrix() math.Mat4 {
	return math.NewMat4LookAt(c.Position, c.Position.Add(c.Forward()), math.NewVec3Up())
}

// ProjectionMatrix maps to Vulkan clip space: depth in [0, 1] and Y pointing down.
func (c *Camera) ProjectionMatrix(aspectRatio float32) math.Mat4 {
	return math.NewMat4Perspective(c.FovY, aspectRatio, c.Near, c.Far)
}
