package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/prism/engine/math"
)

const tolerance = 1e-5

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, math.NewVec3Zero(), c.GetPosition())
	assert.InDelta(t, math.K_HALF_PI, c.Phi, tolerance)
	assert.Zero(t, c.Theta)
	assert.InDelta(t, math.DegToRad(45), c.FovY, tolerance)
	assert.Less(t, c.Near, c.Far)
}

func TestCameraForward(t *testing.T) {
	c := NewCamera()
	assert.True(t, c.Forward().Compare(math.NewVec3(0, 0, 1), tolerance), "facing +Z at the horizon")

	c.SetOrientation(math.K_HALF_PI, math.K_HALF_PI)
	assert.True(t, c.Forward().Compare(math.NewVec3(1, 0, 0), tolerance))

	// Phi is measured from -Y, so a small Phi looks down
	c.SetOrientation(0.1, 0)
	assert.Less(t, c.Forward().Y, float32(-0.9))
	assert.InDelta(t, 1.0, c.Forward().Length(), tolerance)
}

func TestCameraOrientationIsClamped(t *testing.T) {
	c := NewCamera()
	c.SetOrientation(-1, 0)
	assert.Equal(t, CameraEpsilon, c.Phi)
	c.SetOrientation(10, 0)
	assert.Equal(t, math.K_PI-CameraEpsilon, c.Phi)
}

func TestCameraRightIsHorizontal(t *testing.T) {
	c := NewCamera()
	c.SetOrientation(0.4, 1.2)
	right := c.Right()
	assert.InDelta(t, 0, right.Y, tolerance)
	assert.InDelta(t, 0, right.Dot(c.Forward()), tolerance)
	assert.InDelta(t, 1, right.Length(), tolerance)
	assert.True(t, c.Left().Compare(right.MulScalar(-1), tolerance))
}

func TestCameraViewMatrix(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3(1, 2, 3))

	view := c.ViewMatrix()
	eye := view.MulVec4(c.GetPosition().ToVec4(1))
	assert.True(t, eye.ToVec3().Compare(math.NewVec3Zero(), tolerance), "the eye maps to the origin")

	// a point in front of the camera ends up on -Z in view space
	ahead := view.MulVec4(c.GetPosition().Add(c.Forward().MulScalar(5)).ToVec4(1))
	assert.True(t, ahead.ToVec3().Compare(math.NewVec3(0, 0, -5), tolerance))
}

func TestCameraProjectionMatrix(t *testing.T) {
	c := NewCamera()
	proj := c.ProjectionMatrix(2)
	assert.Equal(t, math.NewMat4Perspective(c.FovY, 2, c.Near, c.Far), proj)

	near := proj.MulVec4(math.NewVec4(0, 0, -c.Near, 1))
	far := proj.MulVec4(math.NewVec4(0, 0, -c.Far, 1))
	assert.InDelta(t, 0, near.Z/near.W, tolerance)
	assert.InDelta(t, 1, far.Z/far.W, tolerance)
}
