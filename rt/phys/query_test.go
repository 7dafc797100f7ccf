package phys

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastRay_Ball(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	_, col := addBall(t, w, Fixed, mgl32.Vec3{0, 0, -10}, 1)

	hit, ok := w.CastRay(Ray{Direction: mgl32.Vec3{0, 0, -1}}, 100, true, nil)
	require.True(t, ok)
	assert.Equal(t, col, hit.Collider)
	assert.InDelta(t, 9, hit.Toi, 1e-4)
	assert.InDelta(t, 1, hit.Normal.Z(), 1e-4)

	_, ok = w.CastRay(Ray{Direction: mgl32.Vec3{0, 0, -1}}, 5, true, nil)
	assert.False(t, ok, "hit beyond max toi")
}

func TestCastRay_SolidFlagFromInside(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	addBall(t, w, Fixed, mgl32.Vec3{}, 1)
	ray := Ray{Direction: mgl32.Vec3{1, 0, 0}}

	hit, ok := w.CastRay(ray, 100, true, nil)
	require.True(t, ok)
	assert.Equal(t, float32(0), hit.Toi)

	hit, ok = w.CastRay(ray, 100, false, nil)
	require.True(t, ok)
	assert.InDelta(t, 1, hit.Toi, 1e-5)
}

func TestCastRay_Cuboid(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	addFixedCuboid(t, w, mgl32.Vec3{5, 0, 0}, mgl32.Vec3{1, 1, 1})

	hit, ok := w.CastRay(Ray{Direction: mgl32.Vec3{1, 0, 0}}, 100, true, nil)
	require.True(t, ok)
	assert.InDelta(t, 4, hit.Toi, 1e-5)
	assert.InDelta(t, -1, hit.Normal.X(), 1e-5)

	_, ok = w.CastRay(Ray{Direction: mgl32.Vec3{0, 1, 0}}, 100, true, nil)
	assert.False(t, ok)
}

func TestCastRay_Capsule(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	desc := NewRigidBodyDesc(Fixed)
	desc.Translation = mgl32.Vec3{0, -5, 0}
	body := w.CreateRigidBody(desc)
	_, err := w.CreateCollider(NewColliderDesc(Capsule(0.75, 0.5)), body)
	require.NoError(t, err)

	hit, ok := w.CastRay(Ray{Direction: mgl32.Vec3{0, -1, 0}}, 1000, true, nil)
	require.True(t, ok)
	assert.InDelta(t, 3.75, hit.Toi, 1e-3)
}

func TestCastRay_TriMesh(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	body := w.CreateRigidBody(NewRigidBodyDesc(Fixed))
	mesh := TriMesh(
		[]mgl32.Vec3{{-10, -2, -10}, {10, -2, -10}, {0, -2, 10}},
		[][3]uint32{{0, 1, 2}},
	)
	_, err := w.CreateCollider(NewColliderDesc(mesh), body)
	require.NoError(t, err)

	hit, ok := w.CastRay(Ray{Direction: mgl32.Vec3{0, -1, 0}}, 1000, true, nil)
	require.True(t, ok)
	assert.InDelta(t, 2, hit.Toi, 1e-5)

	_, ok = w.CastRay(Ray{Origin: mgl32.Vec3{50, 0, 0}, Direction: mgl32.Vec3{0, -1, 0}}, 1000, true, nil)
	assert.False(t, ok)
}

func TestCastRay_ClosestWins(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	_, far := addBall(t, w, Fixed, mgl32.Vec3{0, -20, 0}, 1)
	_, near := addBall(t, w, Fixed, mgl32.Vec3{0, -10, 0}, 1)

	hit, ok := w.CastRay(Ray{Direction: mgl32.Vec3{0, -1, 0}}, 1000, true, nil)
	require.True(t, ok)
	assert.Equal(t, near, hit.Collider)

	hit, ok = w.CastRay(Ray{Direction: mgl32.Vec3{0, -1, 0}}, 1000, true, &QueryFilter{ExcludeCollider: near})
	require.True(t, ok)
	assert.Equal(t, far, hit.Collider)
}

func TestCastRay_FilterFlagsAndGroups(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	dynBody, _ := addBall(t, w, Dynamic, mgl32.Vec3{0, -5, 0}, 1)
	_, fixed := addBall(t, w, Fixed, mgl32.Vec3{0, -10, 0}, 1)
	ray := Ray{Direction: mgl32.Vec3{0, -1, 0}}

	hit, ok := w.CastRay(ray, 1000, true, &QueryFilter{Flags: ExcludeDynamic})
	require.True(t, ok)
	assert.Equal(t, fixed, hit.Collider)

	hit, ok = w.CastRay(ray, 1000, true, &QueryFilter{ExcludeBody: dynBody})
	require.True(t, ok)
	assert.Equal(t, fixed, hit.Collider)

	groups := InteractionGroups(0x00400040)
	_, ok = w.CastRay(ray, 1000, true, &QueryFilter{Groups: &groups})
	assert.True(t, ok, "default collider groups accept every filter")

	_, ok = w.CastRay(ray, 1000, true, &QueryFilter{Flags: ExcludeDynamic | ExcludeFixed})
	assert.False(t, ok)
}
