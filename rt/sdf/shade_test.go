package sdf

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatEnv mgl32.Vec4

func (e flatEnv) Sample(u, v float32) mgl32.Vec4 { return mgl32.Vec4(e) }

func TestEnvMapUV_HeadOnReflectsToCenter(t *testing.T) {
	u, v := EnvMapUV(mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 0, -1})
	assert.InDelta(t, 0.5, u, 1e-6)
	assert.InDelta(t, 0.5, v, 1e-6)
}

func TestDirectionalColor(t *testing.T) {
	lights := []DirectionalLight{{
		Position:  mgl32.Vec3{0, 10, 0},
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 2,
	}}
	surf := Surface{Shininess: 10}

	c := DirectionalColor(lights, surf, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 3, c[0], 1e-5)

	c = DirectionalColor(lights, surf, mgl32.Vec3{}, mgl32.Vec3{0, -1, 0})
	assert.Equal(t, mgl32.Vec3{}, c)
}

func TestAmbientColor_Sums(t *testing.T) {
	c := AmbientColor([]AmbientLight{
		{Color: mgl32.Vec3{1, 1, 1}, Intensity: 0.4},
		{Color: mgl32.Vec3{1, 0, 0}, Intensity: 0.5},
	})
	assert.InDelta(t, 0.9, c[0], 1e-6)
	assert.InDelta(t, 0.4, c[1], 1e-6)
}

func TestToneMapAndEncode(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{}, ToneMap(mgl32.Vec3{}))
	assert.InDelta(t, 0.01292, EncodeSRGB(mgl32.Vec3{0.001, 0, 0})[0], 1e-6)
	assert.InDelta(t, 1, EncodeSRGB(mgl32.Vec3{1, 1, 1})[0], 1e-5)
}

func TestComposite_MissKeepsRaster(t *testing.T) {
	diffuse := mgl32.Vec3{0.2, 0.3, 0.4}
	assert.Equal(t, diffuse, Composite(diffuse, mgl32.Vec4{}))
}

func TestPixel_MissKeepsRaster(t *testing.T) {
	scene := singleSphereScene()
	r := headOnRay()
	r.Direction = mgl32.Vec3{0, 0, 1}
	diffuse := mgl32.Vec3{0.2, 0.3, 0.4}

	assert.Equal(t, diffuse, scene.Pixel(r, diffuse, Lights{}, nil))
}

func TestShade_HitIsVisible(t *testing.T) {
	scene := singleSphereScene()
	r := headOnRay()
	hit := scene.March(r)
	require.True(t, hit.Hit)

	lights := Lights{Ambient: []AmbientLight{{Color: mgl32.Vec3{1, 1, 1}, Intensity: 0.4}}}
	c := scene.Shade(r, hit, lights, flatEnv{1, 1, 1, 1})

	assert.Greater(t, c[3], float32(0.4))
	assert.LessOrEqual(t, c[3], float32(1))
	assert.Greater(t, c[1], float32(0))
}

func TestShade_NilEnvMapStillShades(t *testing.T) {
	scene := singleSphereScene()
	r := headOnRay()
	hit := scene.March(r)
	require.True(t, hit.Hit)

	c := scene.Shade(r, hit, Lights{}, nil)
	assert.Greater(t, c[3], float32(0))
}

func TestCamera_CenterRay(t *testing.T) {
	cam := Camera{
		Position:   mgl32.Vec3{0, 0, 5},
		Quaternion: mgl32.QuatIdent(),
		Direction:  mgl32.Vec3{0, 0, -1},
		Near:       0.5,
		Far:        1000,
		NearSize:   mgl32.Vec2{1, 1},
	}

	dir := cam.PixelDirection(mgl32.Vec2{0.5, 0.5})
	assert.InDelta(t, -1, dir[2], 1e-6)

	assert.InDelta(t, 0.5, cam.ViewDepth(0), 1e-6)
	assert.InDelta(t, 1000, cam.ViewDepth(1), 1e-2)

	r := cam.Ray(mgl32.Vec2{0.5, 0.5}, 0, 1)
	assert.InDelta(t, 0.5, r.Depth, 1e-6)
	assert.InDelta(t, 1000, r.StickyDepth, 1e-2)

	corner := cam.PixelDirection(mgl32.Vec2{1, 1})
	assert.Greater(t, corner[0], float32(0))
	assert.Greater(t, cam.RayDepth(10, corner), float32(10))
}
