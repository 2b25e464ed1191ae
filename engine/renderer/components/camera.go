package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds position and Euler rotation and lazily rebuilds its view
// matrix. Do not set the fields directly; the setters mark the matrix
// dirty.
type Camera struct {
	Position      mgl32.Vec3
	EulerRotation mgl32.Vec3

	isDirty    bool
	viewMatrix mgl32.Mat4

	fovY        float32
	aspect      float32
	nearPlane   float32
	farPlane    float32
	projMatrix  mgl32.Mat4
	projIsDirty bool
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = mgl32.Vec3{}
	c.Position = mgl32.Vec3{}
	c.isDirty = false
	c.viewMatrix = mgl32.Ident4()
	c.fovY = mgl32.DegToRad(60)
	c.aspect = 1
	c.nearPlane = 0.1
	c.farPlane = 100
	c.projIsDirty = true
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.isDirty = true
}

func (c *Camera) SetEulerRotation(rotation mgl32.Vec3) {
	c.EulerRotation = rotation
	c.isDirty = true
}

// SetPerspective configures the projection. Aspect is recomputed on
// resize through SetAspect.
func (c *Camera) SetPerspective(fovY, aspect, near, far float32) {
	c.fovY = fovY
	c.aspect = aspect
	c.nearPlane = near
	c.farPlane = far
	c.projIsDirty = true
}

func (c *Camera) SetAspect(aspect float32) {
	c.aspect = aspect
	c.projIsDirty = true
}

func (c *Camera) NearPlane() float32 { return c.nearPlane }
func (c *Camera) FarPlane() float32  { return c.farPlane }

func (c *Camera) View() mgl32.Mat4 {
	if c.isDirty {
		rotation := mgl32.Rotate3DX(c.EulerRotation.X()).
			Mul3(mgl32.Rotate3DY(c.EulerRotation.Y())).
			Mul3(mgl32.Rotate3DZ(c.EulerRotation.Z())).Mat4()
		translation := mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z())
		c.viewMatrix = rotation.Mul4(translation).Inv()
		c.isDirty = false
	}
	return c.viewMatrix
}

// Projection returns a perspective matrix adjusted for Vulkan clip space
// (y flipped, z in [0, 1]).
func (c *Camera) Projection() mgl32.Mat4 {
	if c.projIsDirty {
		proj := mgl32.Perspective(c.fovY, c.aspect, c.nearPlane, c.farPlane)
		proj[5] *= -1
		c.projMatrix = proj
		c.projIsDirty = false
	}
	return c.projMatrix
}

// Forward returns the direction the camera looks along.
func (c *Camera) Forward() mgl32.Vec3 {
	yaw := float64(c.EulerRotation.Y())
	pitch := float64(c.EulerRotation.X())
	return mgl32.Vec3{
		float32(math.Cos(pitch) * math.Sin(yaw)),
		float32(-math.Sin(pitch)),
		float32(-math.Cos(pitch) * math.Cos(yaw)),
	}.Normalize()
}

func (c *Camera) MoveForward(amount float32) {
	c.SetPosition(c.Position.Add(c.Forward().Mul(amount)))
}

func (c *Camera) MoveBackward(amount float32) {
	c.MoveForward(-amount)
}

func (c *Camera) MoveRight(amount float32) {
	right := c.Forward().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	c.SetPosition(c.Position.Add(right.Mul(amount)))
}

func (c *Camera) MoveLeft(amount float32) {
	c.MoveRight(-amount)
}

func (c *Camera) Yaw(amount float32) {
	rotation := c.EulerRotation
	rotation[1] += amount
	c.SetEulerRotation(rotation)
}

func (c *Camera) Pitch(amount float32) {
	rotation := c.EulerRotation
	rotation[0] += amount
	// Avoid gimbal lock at the poles.
	limit := mgl32.DegToRad(89)
	if rotation[0] > limit {
		rotation[0] = limit
	}
	if rotation[0] < -limit {
		rotation[0] = -limit
	}
	c.SetEulerRotation(rotation)
}
