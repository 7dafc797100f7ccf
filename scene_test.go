package marcher

import (
	"testing"
	"time"

	"github.com/gekko3d/marcher/rt/phys"
	"github.com/gekko3d/marcher/rt/sdf"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxGeometry_FacesPointOutward(t *testing.T) {
	vertices, indices := BoxGeometry(mgl32.Vec3{2, 4, 6})
	require.Len(t, vertices, 24)
	require.Len(t, indices, 36)

	for i := 0; i < len(indices); i += 3 {
		a := mgl32.Vec3(vertices[indices[i]].Position)
		b := mgl32.Vec3(vertices[indices[i+1]].Position)
		c := mgl32.Vec3(vertices[indices[i+2]].Position)
		n := mgl32.Vec3(vertices[indices[i]].Normal)

		winding := b.Sub(a).Cross(c.Sub(a))
		if winding.Dot(n) <= 0 {
			t.Errorf("triangle %d winds against its normal %v", i/3, n)
		}
		// every face lies on the plane its normal points to
		assert.InDelta(t, mgl32.Vec3{1, 2, 3}.Dot(mul(n, n)), a.Dot(n), 1e-5)
	}
}

func TestRoomScene(t *testing.T) {
	room := RoomScene()
	require.Len(t, room.Boxes, 6)

	for _, b := range room.Boxes {
		thin := 0
		for axis := 0; axis < 3; axis++ {
			if b.Size[axis] == wallThickness {
				thin++
				assert.Equal(t, float32(roomSize/2), abs32(b.Position[axis]))
			}
		}
		assert.Equal(t, 1, thin)
		assert.Equal(t, AllCollisions, b.Physics.Groups)
		assert.Equal(t, float32(10), b.Physics.Friction)
		assert.Equal(t, float32(1000), b.Physics.Mass)
	}

	require.Len(t, room.Lights, 3)
	assert.Equal(t, LightTypeAmbient, room.Lights[0].Type)
	assert.Equal(t, float32(2.5), room.Lights[2].Intensity)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestDefaultAvatar(t *testing.T) {
	a := DefaultAvatar()
	assert.Equal(t, mgl32.Vec3{30, 11.25, 0}, a.Position)
	assert.Equal(t, float32(1), a.Width)
	assert.Equal(t, float32(2.5), a.Height)
}

func TestLoadScene_WallsStopFallingSpheres(t *testing.T) {
	app := NewAppBuilder().Build()
	physics := NewPhysics(DefaultGravity, 8*time.Millisecond, nil)
	assets := NewAssetServer(nil)
	lights := NewSceneLights(nil)

	room := RoomScene()
	LoadScene(app.Commands(), assets, physics, lights, &room)
	app.FlushCommands()

	assert.Equal(t, 6, physics.World.NumBodies())
	assert.Equal(t, 1, lights.NumAmbient())
	assert.Equal(t, 2, lights.NumDirectional())

	walls := 0
	MakeQuery2[RenderableComponent, PhysicsBodyComponent](app.Commands()).Map(func(_ EntityId, r *RenderableComponent, pb *PhysicsBodyComponent) bool {
		walls++
		assert.True(t, r.Material.DepthWrite)
		assert.True(t, pb.Object.HasCollider)
		return true
	})
	assert.Equal(t, 6, walls)

	// the floor blocks a downward ray from the room centre
	hit, ok := physics.World.CastRay(phys.Ray{Origin: mgl32.Vec3{}, Direction: mgl32.Vec3{0, -1, 0}}, 1000, true, nil)
	require.True(t, ok)
	assert.InDelta(t, 49.5, hit.Toi, 1e-3)
}

func TestSceneModule_ExcludesAvatarFromStickyLayer(t *testing.T) {
	app := NewAppBuilder().Build()
	physics := NewPhysics(mgl32.Vec3{}, 8*time.Millisecond, nil)
	camera := NewCamera(DefaultConfig().Camera, 1)
	ctrl := NewCharacterController(DefaultAvatar(), physics, camera, &InputController{}, nil, nil)
	rm := NewRayMarcher(sdf.DefaultSettings(), nil, camera, physics, nil)
	app.addResources(NewAssetServer(nil), NewSceneLights(nil), physics, ctrl, rm)

	SceneModule{}.Install(app, app.Commands())
	app.FlushCommands()

	require.Len(t, rm.StickyExclusions, 1)
	n := 0
	MakeQuery2[RenderableComponent, AvatarComponent](app.Commands()).Map(func(_ EntityId, r *RenderableComponent, _ *AvatarComponent) bool {
		n++
		assert.Same(t, rm.StickyExclusions[0], r.Material)
		return true
	})
	assert.Equal(t, 1, n)
}
