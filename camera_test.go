package marcher

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func testCamera() *Camera {
	return NewCamera(DefaultConfig().Camera, 2)
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d of %v", i, got)
	}
}

func TestCamera_DefaultLooksDownMinusZ(t *testing.T) {
	c := testCamera()
	assertVecNear(t, mgl32.Vec3{0, 0, -1}, c.Direction())
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, c.Position)
}

func TestCamera_LookAt(t *testing.T) {
	c := testCamera()
	c.Position = mgl32.Vec3{0, 0, 0}

	c.LookAt(mgl32.Vec3{10, 0, 0})
	assertVecNear(t, mgl32.Vec3{1, 0, 0}, c.Direction())
	assertVecNear(t, mgl32.Vec3{0, 1, 0}, c.Quaternion.Rotate(mgl32.Vec3{0, 1, 0}))

	c.LookAt(mgl32.Vec3{0, -3, 0})
	assertVecNear(t, mgl32.Vec3{0, -1, 0}, c.Direction())

	before := c.Quaternion
	c.LookAt(c.Position)
	assert.Equal(t, before, c.Quaternion, "degenerate target keeps orientation")
}

func TestCamera_PlaneSizes(t *testing.T) {
	c := testCamera()
	h := 2 * math32.Tan(mgl32.DegToRad(40)) * 0.5

	near := c.NearSize()
	assert.InDelta(t, h, near.Y(), 1e-5)
	assert.InDelta(t, 2*h, near.X(), 1e-5)

	far := c.FarSize()
	assert.InDelta(t, near.Y()*2000, far.Y(), 1e-1)

	c.SetAspect(100, 100)
	assert.InDelta(t, c.NearSize().Y(), c.NearSize().X(), 1e-6)
	c.SetAspect(100, 0)
	assert.Equal(t, float32(1), c.Aspect)
}

func TestCamera_ProjectionDepthRange(t *testing.T) {
	c := testCamera()
	c.Position = mgl32.Vec3{}
	vp := c.ViewProjection()

	depth := func(z float32) float32 {
		clip := vp.Mul4x1(mgl32.Vec4{0, 0, z, 1})
		return clip.Z() / clip.W()
	}
	assert.InDelta(t, 0, depth(-c.Near), 1e-5)
	assert.InDelta(t, 1, depth(-c.Far), 1e-5)

	// the marcher inverts the same mapping
	sc := c.SDF()
	assert.InDelta(t, 10, sc.ViewDepth(depth(-10)), 1e-2)
}

func TestCameraModule_FollowsViewport(t *testing.T) {
	app := NewAppBuilder().Build()
	viewport := &Viewport{Width: 1280, Height: 720}
	app.addResources(viewport)

	CameraModule{Config: DefaultConfig().Camera}.Install(app, app.Commands())
	camera, ok := Resource[Camera](app)
	if !ok {
		t.Fatal("camera resource missing")
	}
	assert.InDelta(t, 1280.0/720.0, camera.Aspect, 1e-6)

	viewport.Resize(500, 1000)
	assert.InDelta(t, 0.5, camera.Aspect, 1e-6)
}
