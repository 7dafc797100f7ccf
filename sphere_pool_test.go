package marcher

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/gekko3d/marcher/rt/phys"
	"github.com/gekko3d/marcher/rt/sdf"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool() (*SpherePool, *Physics) {
	p := NewPhysics(mgl32.Vec3{}, 8*time.Millisecond, nil)
	return NewSpherePool(p, rand.New(rand.NewPCG(1, 2)), nil), p
}

func inPalette(c mgl32.Vec3) bool {
	for _, p := range spherePalette {
		if p == c {
			return true
		}
	}
	return false
}

func TestSpherePool_SlotsStartInactive(t *testing.T) {
	pool, _ := newTestPool()
	assert.Zero(t, pool.Count())
	assert.Empty(t, pool.Spheres())

	for i, s := range pool.Slots() {
		assert.Equal(t, float32(sdf.SphereRadius), s.Radius)
		if !inPalette(s.Color) {
			t.Errorf("slot %d has colour %v outside the palette", i, s.Color)
		}
	}
}

func TestSpherePool_SpawnRequiresPointerLock(t *testing.T) {
	pool, p := newTestPool()
	assert.Equal(t, -1, pool.Spawn(false, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}))
	assert.Zero(t, pool.Count())
	assert.Zero(t, p.World.NumBodies())
}

func TestSpherePool_SpawnPlacesAndLaunches(t *testing.T) {
	pool, p := newTestPool()
	origin := mgl32.Vec3{30, 11.25, 0}
	dir := mgl32.Vec3{-1, 0, 0}

	i := pool.Spawn(true, origin, dir)
	require.Equal(t, 0, i)
	assert.Equal(t, 1, pool.Count())

	// up by r/2 then forward by r
	assert.Equal(t, mgl32.Vec3{24, 14.25, 0}, pool.Spheres()[0].Position)

	obj := pool.Object(0)
	require.NotNil(t, obj)
	require.True(t, obj.HasCollider)
	assert.True(t, obj.AutoAnimate)

	shape, _ := p.World.ColliderShape(obj.Collider)
	assert.Equal(t, phys.ShapeBall, shape.Kind)
	assert.Equal(t, float32(1.5), shape.Radius)

	mass, _ := p.World.BodyMass(obj.Body)
	assert.Equal(t, float32(5), mass)

	// impulse r*20*r over mass 5
	vel, _ := p.World.BodyVelocity(obj.Body)
	assert.InDelta(t, -144, vel.X(), 1e-3)
	assert.InDelta(t, 0, vel.Y(), 1e-3)
}

func TestSpherePool_StopsAtCapacity(t *testing.T) {
	pool, p := newTestPool()
	for i := 0; i < MaxSphereCount; i++ {
		require.Equal(t, i, pool.Spawn(true, mgl32.Vec3{float32(i) * 20, 0, 0}, mgl32.Vec3{0, 0, -1}))
	}
	assert.True(t, pool.Full())
	assert.Equal(t, -1, pool.Spawn(true, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}))
	assert.Equal(t, MaxSphereCount, pool.Count())
	assert.Equal(t, MaxSphereCount, p.World.NumBodies())
}

func TestSpherePool_SyncFollowsBody(t *testing.T) {
	pool, p := newTestPool()
	pool.Spawn(true, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	color := pool.Spheres()[0].Color
	start := pool.Spheres()[0].Position

	p.World.Step(0.1)
	pool.Sync(p.World)

	s := pool.Spheres()[0]
	assert.Less(t, s.Position.Z(), start.Z())
	assert.Equal(t, color, s.Color)
	assert.Equal(t, float32(sdf.SphereRadius), s.Radius)
}

func TestSphereModule_FirstClickOnlyLocks(t *testing.T) {
	app := NewAppBuilder().Build()
	physics := NewPhysics(mgl32.Vec3{}, 8*time.Millisecond, nil)
	input := &InputController{}
	camera := NewCamera(DefaultConfig().Camera, 1)
	ctrl := &CharacterController{Position: mgl32.Vec3{0, 1, 0}}
	app.addResources(physics, input, camera, ctrl)

	SphereModule{Seed: 7}.Install(app, app.Commands())
	pool, ok := Resource[SpherePool](app)
	require.True(t, ok)

	input.click()
	input.SetPointerLocked(true)
	assert.Zero(t, pool.Count(), "first click never shoots")

	input.click()
	assert.Equal(t, 1, pool.Count())

	app.FlushCommands()
	n := 0
	MakeQuery1[SphereComponent](app.Commands()).Map(func(_ EntityId, _ *SphereComponent) bool {
		n++
		return true
	})
	assert.Equal(t, 1, n)
}
