package marcher

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gekko3d/marcher/rt/phys"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPhysics_GroupsAndMaterial(t *testing.T) {
	p := NewPhysics(DefaultGravity, 8*time.Millisecond, nil)

	obj := p.AddPhysics(PhysicsOptions{
		Type:            phys.Dynamic,
		Translation:     mgl32.Vec3{1, 2, 3},
		Collider:        ColliderSettings{Kind: ColliderBall, Radius: 1.5},
		CollisionGroups: AllCollisions,
		Mass:            5,
		Restitution:     1,
	})
	require.True(t, obj.HasCollider)

	mass, ok := p.World.BodyMass(obj.Body)
	require.True(t, ok)
	assert.Equal(t, float32(5), mass)

	pos, _ := p.World.ColliderTranslation(obj.Collider)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, pos)

	shape, _ := p.World.ColliderShape(obj.Collider)
	assert.Equal(t, phys.ShapeBall, shape.Kind)
}

func TestAddPhysics_MissingMeshKeepsBody(t *testing.T) {
	var errs bytes.Buffer
	p := NewPhysics(DefaultGravity, 8*time.Millisecond, NewWriterLogger("", false, &bytes.Buffer{}, &errs))

	obj := p.AddPhysics(PhysicsOptions{Type: phys.Fixed})
	assert.False(t, obj.HasCollider)
	assert.Equal(t, 1, p.World.NumBodies())
	assert.Equal(t, 0, p.World.NumColliders())
	assert.Contains(t, errs.String(), "no collider data")
}

func TestAddPhysics_TriMeshDefaultIndices(t *testing.T) {
	p := NewPhysics(DefaultGravity, 8*time.Millisecond, nil)
	obj := p.AddPhysics(PhysicsOptions{
		Type: phys.Fixed,
		Collider: ColliderSettings{Vertices: []mgl32.Vec3{
			{-10, -2, -10}, {10, -2, -10}, {0, -2, 10},
		}},
	})
	require.True(t, obj.HasCollider)

	hit, ok := p.World.CastRay(phys.Ray{Direction: mgl32.Vec3{0, -1, 0}}, 100, true, nil)
	require.True(t, ok)
	assert.InDelta(t, 2, hit.Toi, 1e-5)
}

func TestPhysicsSync_AutoAnimateAndPostFn(t *testing.T) {
	app := NewAppBuilder().Build()
	p := NewPhysics(mgl32.Vec3{}, 8*time.Millisecond, nil)
	app.addResources(p)
	app.UseSystem(System(physicsSyncSystem).InStage(PreUpdate).RunAlways())

	posts := 0
	animated := p.AddPhysics(PhysicsOptions{
		Type:        phys.Dynamic,
		Translation: mgl32.Vec3{4, 5, 6},
		Collider:    ColliderSettings{Kind: ColliderBall, Radius: 1},
		AutoAnimate: true,
		PostFn:      func() { posts++ },
	})
	still := p.AddPhysics(PhysicsOptions{
		Type:        phys.Dynamic,
		Translation: mgl32.Vec3{7, 8, 9},
		Collider:    ColliderSettings{Kind: ColliderBall, Radius: 1},
	})

	cmd := app.Commands()
	a := cmd.AddEntity(NewTransform(mgl32.Vec3{}), &PhysicsBodyComponent{Object: animated})
	b := cmd.AddEntity(NewTransform(mgl32.Vec3{}), &PhysicsBodyComponent{Object: still})
	app.FlushCommands()

	app.Step()
	assert.Equal(t, 1, posts)

	positions := map[EntityId]mgl32.Vec3{}
	MakeQuery1[TransformComponent](cmd).Map(func(eid EntityId, tr *TransformComponent) bool {
		positions[eid] = tr.Position
		return true
	})
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, positions[a])
	assert.Equal(t, mgl32.Vec3{}, positions[b])
}

func TestPhysics_StartStop(t *testing.T) {
	p := NewPhysics(DefaultGravity, time.Millisecond, nil)
	obj := p.AddPhysics(PhysicsOptions{
		Type:        phys.Dynamic,
		Translation: mgl32.Vec3{0, 10, 0},
		Collider:    ColliderSettings{Kind: ColliderBall, Radius: 0.5},
	})

	p.Start(context.Background())
	assert.Eventually(t, func() bool {
		pos, _ := p.World.BodyTranslation(obj.Body)
		return pos.Y() < 10
	}, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	before, _ := p.World.BodyTranslation(obj.Body)
	time.Sleep(10 * time.Millisecond)
	after, _ := p.World.BodyTranslation(obj.Body)
	assert.Equal(t, before, after, "no steps after Stop")
}
