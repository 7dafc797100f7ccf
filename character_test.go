package marcher

import (
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/gekko3d/marcher/rt/phys"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoomController_EasesToLevel(t *testing.T) {
	z := NewZoomController()
	assert.Equal(t, float32(MinZoomLevel), z.Zoom)

	z.Update(0, 0)
	assert.False(t, z.IsAnimating(), "unchanged level does not animate")

	z.Update(1.5, 10)
	assert.True(t, z.IsAnimating())
	assert.InDelta(t, MinZoomLevel, z.Zoom, 1e-6)

	z.Update(1.5, 10.25)
	assert.Greater(t, z.Zoom, float32(1))
	assert.True(t, z.IsAnimating())

	z.Update(1.5, 10.5)
	assert.Equal(t, float32(1.5), z.Zoom)
	assert.False(t, z.IsAnimating())
}

func TestZoomController_ClampsTarget(t *testing.T) {
	z := NewZoomController()
	z.Update(80, 0)
	z.Update(80, 1)
	assert.InDelta(t, MaxZoomLevel, z.Zoom, 1e-3)
}

func TestHeightController_FreeFall(t *testing.T) {
	var h HeightController
	h.Update(0, 0)
	assert.Zero(t, h.MovePerFrame)

	h.Update(1, 1)
	assert.InDelta(t, -4.905, h.Height, 1e-4)
	assert.InDelta(t, -4.905, h.MovePerFrame, 1e-4)

	h.Update(2, 1)
	assert.InDelta(t, -19.62, h.Height, 1e-3)
	assert.InDelta(t, -14.715, h.MovePerFrame, 1e-3)
}

func TestHeightController_Jump(t *testing.T) {
	var h HeightController
	h.SetGrounded(true)
	h.Update(5, 0.016)
	assert.Zero(t, h.MovePerFrame)

	h.SetJumpFactor(1)
	assert.True(t, h.Jumping())
	h.SetJumpFactor(0)
	assert.True(t, h.Jumping(), "a running jump is not cancelled")

	h.Update(5.2, 0.016)
	assert.InDelta(t, JumpAmplitude*UpDownCirc(0.5), h.MovePerFrame, 1e-5)

	h.Update(5.5, 0.016)
	assert.False(t, h.Jumping())
}

func TestHeightController_TabReopenedKeepsFallProgress(t *testing.T) {
	var h HeightController
	h.Update(0, 0)
	h.Update(0.5, 0.5)
	fall := h.MovePerFrame

	h.TabReopened()
	h.Update(30, 0.016)
	assert.InDelta(t, fall, h.MovePerFrame, 1e-5, "resume frame does not integrate")

	h.Update(30.1, 0.1)
	assert.InDelta(t, 0.5*-9.81*0.6*0.6, h.Height, 1e-3)
}

func TestHeadBob(t *testing.T) {
	var b HeadBobController
	assert.Zero(t, b.HeadBob(0.016, false))

	assert.Zero(t, b.HeadBob(0.05, true))
	assert.InDelta(t, math32.Sin(0.05*8)*0.09, b.HeadBob(0.05, true), 1e-6)

	// keeps going after movement stops until the half period wraps
	for i := 0; i < 20 && b.active; i++ {
		b.HeadBob(0.05, false)
	}
	assert.False(t, b.active)
}

type characterRig struct {
	physics *Physics
	camera  *Camera
	input   *InputController
	ctrl    *CharacterController
}

func newCharacterRig(t *testing.T) characterRig {
	t.Helper()
	p := NewPhysics(DefaultGravity, 8*time.Millisecond, nil)
	floor := p.AddPhysics(PhysicsOptions{
		Type:        phys.Fixed,
		Translation: mgl32.Vec3{0, -0.5, 0},
		Collider:    ColliderSettings{Kind: ColliderCuboid, HalfExtents: mgl32.Vec3{50, 0.5, 50}},
	})
	require.True(t, floor.HasCollider)

	camera := NewCamera(DefaultConfig().Camera, 16.0/9.0)
	input := &InputController{}
	input.SetPointerLocked(true)
	viewport := &Viewport{Width: 1280, Height: 720}

	avatar := Avatar{Position: mgl32.Vec3{0, 1.265, 0}, Width: 1, Height: 2.5}
	ctrl := NewCharacterController(avatar, p, camera, input, viewport, nil)
	return characterRig{physics: p, camera: camera, input: input, ctrl: ctrl}
}

func TestCharacter_CapsuleFromAvatar(t *testing.T) {
	rig := newCharacterRig(t)
	obj := rig.ctrl.Object
	require.True(t, obj.HasCollider)

	shape, _ := rig.physics.World.ColliderShape(obj.Collider)
	assert.Equal(t, phys.ShapeCapsule, shape.Kind)
	assert.Equal(t, float32(0.5), shape.Radius)
	assert.Equal(t, float32(0.75), shape.HalfHeight)

	typ, _ := rig.physics.World.BodyType(obj.Body)
	assert.Equal(t, phys.Fixed, typ)
	mass, _ := rig.physics.World.BodyMass(obj.Body)
	assert.Equal(t, float32(characterMass), mass)
}

func TestCharacter_GroundedAndWalksForward(t *testing.T) {
	rig := newCharacterRig(t)

	rig.ctrl.Update(10, 0.016)
	assert.True(t, rig.ctrl.Height.Grounded())

	start := rig.ctrl.Position
	rig.input.KeyDown(KeyW)
	rig.ctrl.Update(10.016, 0.016)

	moved := rig.ctrl.Position.Sub(start)
	assert.InDelta(t, -0.16, moved.X(), 1e-4)
	assert.InDelta(t, 0, moved.Z(), 1e-4)
	assert.True(t, rig.ctrl.IsMoving2D)
}

func TestCharacter_ShiftSpeedsUp(t *testing.T) {
	rig := newCharacterRig(t)
	rig.ctrl.Update(10, 0.016)

	start := rig.ctrl.Position
	rig.input.KeyDown(KeyA)
	rig.input.KeyDown(KeyShiftLeft)
	rig.ctrl.Update(10.01, 0.01)

	moved := rig.ctrl.Position.Sub(start)
	// left of -X is +Z
	assert.InDelta(t, 0.5, moved.Z(), 1e-4)
}

func TestCharacter_MouseTurnsAndClampsPitch(t *testing.T) {
	rig := newCharacterRig(t)

	rig.input.MouseMove(-1280, 0)
	rig.ctrl.Update(10, 0.016)
	assert.InDelta(t, 2.5, rig.ctrl.Phi, 1e-5)

	rig.input.MouseMove(0, -720*10)
	rig.ctrl.Update(10.016, 0.016)
	assert.InDelta(t, math32.Pi/2, rig.ctrl.Theta, 1e-6)

	rig.ctrl.Update(10.032, 0.016)
	assert.InDelta(t, 2.5, rig.ctrl.Phi, 1e-5, "deltas are consumed by Update")
}

func TestCharacter_CameraOrbitsAtZoom(t *testing.T) {
	rig := newCharacterRig(t)
	rig.input.Wheel(1)
	rig.input.Wheel(1)
	rig.input.Wheel(1)

	rig.ctrl.Update(10, 0.016)
	rig.ctrl.Update(11, 0.016)
	require.False(t, rig.ctrl.FirstPerson())

	offset := rig.camera.Position.Sub(rig.ctrl.Position)
	assert.InDelta(t, rig.ctrl.Zoom.Zoom, offset.Len(), 1e-3)
	assert.InDelta(t, 1, rig.camera.Direction().Dot(offset.Normalize().Mul(-1)), 1e-4)
}

func TestCharacterSystem_MovesAvatarEntity(t *testing.T) {
	rig := newCharacterRig(t)
	app := NewAppBuilder().Build()
	tick := &TickData{}
	app.addResources(tick, rig.ctrl)
	app.UseSystem(System(characterSystem).InStage(Update).RunAlways())

	eid := app.Commands().AddEntity(NewTransform(mgl32.Vec3{}), &AvatarComponent{})
	app.FlushCommands()
	app.Step()

	var pos mgl32.Vec3
	MakeQuery1[TransformComponent](app.Commands()).Map(func(id EntityId, tr *TransformComponent) bool {
		if id == eid {
			pos = tr.Position
		}
		return true
	})
	assert.Equal(t, rig.ctrl.Position, pos)
}
