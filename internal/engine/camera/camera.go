// Package camera provides the orbit camera used to inspect maps.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Clip planes in render units. GoldSrc maps span at most 8192 units per axis.
const (
	NearPlane = 4.0
	FarPlane  = 16384.0
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	FOV float32 // Vertical field of view, degrees
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        500.0,
		RotationX:       0.5,
		RotationY:       0.0,
		MinDistance:     16.0,
		MaxDistance:     FarPlane / 2,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             60,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	pitch, yaw := float64(c.RotationX), float64(c.RotationY)
	offset := mgl32.Vec3{
		float32(math.Cos(pitch) * math.Sin(yaw)),
		float32(math.Sin(pitch)),
		float32(math.Cos(pitch) * math.Cos(yaw)),
	}
	return c.Center.Add(offset.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection for the given aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, NearPlane, FarPlane)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.ProjectionMatrix(aspect).Mul4(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point. forward and right move on the
// horizontal plane relative to the view; step is the distance per unit of
// input.
func (c *OrbitCamera) HandleMovement(forward, right, up, step float32) {
	yaw := float64(c.RotationY)
	dir := mgl32.Vec3{float32(math.Sin(yaw)), 0, float32(math.Cos(yaw))}
	side := mgl32.Vec3{float32(math.Cos(yaw)), 0, float32(-math.Sin(yaw))}

	// The camera sits on +dir, so forward is -dir
	move := dir.Mul(-forward).Add(side.Mul(right)).Add(mgl32.Vec3{0, up, 0})
	c.Center = c.Center.Add(move.Mul(step))
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(center mgl32.Vec3) {
	c.Center = center
}

// FitToBounds centers the camera on a box given in render space and backs
// off far enough to see its horizontal extent.
func (c *OrbitCamera) FitToBounds(mins, maxs mgl32.Vec3) {
	c.Center = mins.Add(maxs).Mul(0.5)

	size := maxs.Sub(mins)
	maxSize := max(size.X(), size.Z())

	c.Distance = mgl32.Clamp(maxSize*0.75, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6 // Look down at ~35 degrees
	c.RotationY = 0.0
}
