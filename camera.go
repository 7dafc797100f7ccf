package marcher

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/marcher/rt/sdf"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	worldUp      = mgl32.Vec3{0, 1, 0}
	worldForward = mgl32.Vec3{0, 0, -1}
)

// Camera is a perspective camera looking down its local -Z. Fov is the
// vertical field of view in degrees.
type Camera struct {
	Position   mgl32.Vec3
	Quaternion mgl32.Quat
	Fov        float32
	Aspect     float32
	Near       float32
	Far        float32
}

func NewCamera(cfg CameraConfig, aspect float32) *Camera {
	return &Camera{
		Position:   mgl32.Vec3(cfg.Position),
		Quaternion: mgl32.QuatIdent(),
		Fov:        cfg.Fov,
		Aspect:     aspect,
		Near:       cfg.Near,
		Far:        cfg.Far,
	}
}

func (c *Camera) Direction() mgl32.Vec3 {
	return c.Quaternion.Rotate(worldForward).Normalize()
}

// LookAt turns the camera toward target keeping +Y up. Looking straight
// up or down falls back to -Z as the up hint.
func (c *Camera) LookAt(target mgl32.Vec3) {
	forward := target.Sub(c.Position)
	if forward.Len() < 1e-6 {
		return
	}
	forward = forward.Normalize()

	up := worldUp
	if math32.Abs(forward.Dot(up)) > 0.9999 {
		up = worldForward
	}
	right := forward.Cross(up).Normalize()
	up = right.Cross(forward)

	basis := mgl32.Mat3FromCols(right, up, forward.Mul(-1))
	c.Quaternion = mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
}

func (c *Camera) planeSize(distance float32) mgl32.Vec2 {
	h := 2 * math32.Tan(mgl32.DegToRad(c.Fov)/2) * distance
	return mgl32.Vec2{h * c.Aspect, h}
}

func (c *Camera) NearSize() mgl32.Vec2 {
	return c.planeSize(c.Near)
}

func (c *Camera) FarSize() mgl32.Vec2 {
	return c.planeSize(c.Far)
}

func (c *Camera) SetAspect(width, height int) {
	if height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return c.Quaternion.Conjugate().Mat4().Mul4(mgl32.Translate3D(-c.Position[0], -c.Position[1], -c.Position[2]))
}

// Projection maps view depth into [0,1] clip depth, near to 0.
func (c *Camera) Projection() mgl32.Mat4 {
	f := 1 / math32.Tan(mgl32.DegToRad(c.Fov)/2)
	n, fa := c.Near, c.Far
	return mgl32.Mat4{
		f / c.Aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, fa / (n - fa), -1,
		0, 0, n * fa / (n - fa), 0,
	}
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.ViewMatrix())
}

// SDF is the marcher view of the camera.
func (c *Camera) SDF() sdf.Camera {
	return sdf.Camera{
		Position:   c.Position,
		Quaternion: c.Quaternion,
		Direction:  c.Direction(),
		Near:       c.Near,
		Far:        c.Far,
		NearSize:   c.NearSize(),
	}
}

type CameraModule struct {
	Config CameraConfig
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	aspect := float32(1)
	viewport, hasViewport := Resource[Viewport](app)
	if hasViewport {
		aspect = viewport.AspectRatio()
	}
	camera := NewCamera(m.Config, aspect)
	if hasViewport {
		viewport.OnResize(camera.SetAspect)
	}
	cmd.AddResources(camera)
}
