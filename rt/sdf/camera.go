package sdf

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the subset of camera state the marcher reads per pixel.
type Camera struct {
	Position   mgl32.Vec3
	Quaternion mgl32.Quat
	Direction  mgl32.Vec3
	Near       float32
	Far        float32
	NearSize   mgl32.Vec2
}

// PixelDirection is the normalized world direction through uv on the near
// plane.
func (c Camera) PixelDirection(uv mgl32.Vec2) mgl32.Vec3 {
	offset := mgl32.Vec2{(uv[0] - 0.5) * c.NearSize[0], (uv[1] - 0.5) * c.NearSize[1]}
	toPixel := mgl32.Vec3{offset[0], offset[1], -c.Near}
	return normalize(c.Quaternion.Rotate(toPixel), c.Direction)
}

// ViewDepth converts a [0,1] perspective depth sample to a positive view
// space distance.
func (c Camera) ViewDepth(depth float32) float32 {
	return c.Near * c.Far / (c.Far - (c.Far-c.Near)*depth)
}

// RayDepth turns a view space depth into distance along dir.
func (c Camera) RayDepth(viewDepth float32, dir mgl32.Vec3) float32 {
	cos := dir.Dot(c.Direction)
	if cos <= 1e-6 {
		return c.Far
	}
	return viewDepth / cos
}

// Ray builds the march input for uv from the two depth buffer samples.
func (c Camera) Ray(uv mgl32.Vec2, depth, stickyDepth float32) Ray {
	dir := c.PixelDirection(uv)
	return Ray{
		Origin:      c.Position,
		Direction:   dir,
		Depth:       c.RayDepth(c.ViewDepth(depth), dir),
		StickyDepth: c.RayDepth(c.ViewDepth(stickyDepth), dir),
	}
}
