package marcher

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/marcher/rt/phys"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	phiSpeed                = 2.5
	thetaSpeed              = 2.5
	upDownHeadRotationLimit = math32.Pi / 2
	groundDetectionDistance = 0.02
	shiftSpeedUp            = 5

	characterOffset       = 0.01
	characterSnapToGround = 0.5
	characterMass         = 70
)

var (
	forwardDir = mgl32.Vec3{0, 0, -1}
	leftDir    = mgl32.Vec3{-1, 0, 0}
	rightDir   = mgl32.Vec3{1, 0, 0}
	downDir    = mgl32.Vec3{0, -1, 0}
)

// Avatar is the bounding size and spawn point of the controlled body.
type Avatar struct {
	Position mgl32.Vec3
	Width    float32
	Height   float32
}

// AvatarComponent marks the entity that follows the character.
type AvatarComponent struct{}

// CharacterController turns input into a capsule moving through the
// physics world and places the camera around it.
type CharacterController struct {
	Position   mgl32.Vec3
	Quaternion mgl32.Quat
	Movement   mgl32.Vec3
	Phi        float32
	Theta      float32
	IsMoving2D bool

	Input   *InputController
	HeadBob HeadBobController
	Zoom    *ZoomController
	Height  HeightController
	Object  *PhysicsObject

	avatar     Avatar
	physics    *Physics
	camera     *Camera
	viewport   *Viewport
	controller *phys.CharacterController
	logger     Logger
}

func NewCharacterController(avatar Avatar, physics *Physics, camera *Camera, input *InputController, viewport *Viewport, logger Logger) *CharacterController {
	if logger == nil {
		logger = NewNopLogger()
	}
	c := &CharacterController{
		Position:   avatar.Position,
		Quaternion: mgl32.QuatIdent(),
		Input:      input,
		Zoom:       NewZoomController(),
		avatar:     avatar,
		physics:    physics,
		camera:     camera,
		viewport:   viewport,
		logger:     logger,
	}

	radius := avatar.Width / 2
	c.Object = physics.AddPhysics(PhysicsOptions{
		Type:        phys.Fixed,
		Translation: avatar.Position,
		Collider: ColliderSettings{
			Kind:       ColliderCapsule,
			HalfHeight: avatar.Height/2 - radius,
			Radius:     radius,
		},
		Mass: characterMass,
	})

	c.controller = physics.World.CreateCharacterController(characterOffset)
	c.controller.EnableSnapToGround(characterSnapToGround)
	c.controller.SetApplyImpulsesToDynamicBodies(true)
	return c
}

func (c *CharacterController) Avatar() Avatar {
	return c.avatar
}

// Update runs one frame; timestamp and timeDiff are in seconds.
func (c *CharacterController) Update(timestamp, timeDiff float32) {
	c.updateRotation()
	c.updateTranslation(timeDiff)
	c.Height.Update(timestamp, timeDiff)
	c.detectGround()
	c.Zoom.Update(c.Input.Mouse.WheelZoom, timestamp)
	c.updateCamera(timeDiff)
	c.Input.Update()
}

func (c *CharacterController) updateRotation() {
	var xh, yh float32
	if c.viewport != nil && c.viewport.Width > 0 && c.viewport.Height > 0 {
		xh = c.Input.Mouse.DeltaX / float32(c.viewport.Width)
		yh = c.Input.Mouse.DeltaY / float32(c.viewport.Height)
	}

	c.Phi += -xh * phiSpeed
	c.Theta = Clamp(c.Theta-yh*thetaSpeed, -upDownHeadRotationLimit, upDownHeadRotationLimit)

	qx := mgl32.QuatRotate(c.Phi, worldUp)
	qz := mgl32.QuatRotate(c.Theta, rightDir)
	c.Quaternion = qx.Mul(qz)
}

func (c *CharacterController) keyVelocity(k Key) float32 {
	if !c.Input.HasKey(k) {
		return 0
	}
	if c.Input.HasAnyKey(KeyShiftLeft, KeyShiftRight) {
		return shiftSpeedUp
	}
	return 1
}

func (c *CharacterController) updateTranslation(timeDiff float32) {
	time := timeDiff * 10

	forwardVelocity := c.keyVelocity(KeyW) - c.keyVelocity(KeyS)
	sideVelocity := c.keyVelocity(KeyA) - c.keyVelocity(KeyD)

	qx := mgl32.QuatRotate(c.Phi+math32.Pi/2, worldUp)
	forward := qx.Rotate(forwardDir).Mul(forwardVelocity * time)
	left := qx.Rotate(leftDir).Mul(sideVelocity * time)
	c.Movement = forward.Add(left)

	if c.Height.Grounded() {
		c.Height.SetJumpFactor(c.keyVelocity(KeySpace))
	}
	c.Movement[1] = c.Height.MovePerFrame

	c.IsMoving2D = forwardVelocity != 0 || sideVelocity != 0
}

func (c *CharacterController) detectGround() {
	world := c.physics.World
	obj := c.Object

	if obj.HasCollider {
		if err := world.SetColliderTranslation(obj.Collider, c.Position); err != nil {
			c.logger.Errorf("character: %v", err)
		}
	}

	origin := c.Position.Sub(mgl32.Vec3{0, c.avatar.Height / 2, 0})
	filter := &phys.QueryFilter{
		Flags:           phys.ExcludeDynamic,
		ExcludeCollider: obj.Collider,
		ExcludeBody:     obj.Body,
	}
	ray := phys.Ray{Origin: origin, Direction: downDir}
	if hit, ok := world.CastRay(ray, 1000, true, filter); ok {
		point := ray.PointAt(hit.Toi)
		c.Height.SetGrounded(origin.Y()-point.Y() <= groundDetectionDistance)
	} else {
		c.Height.SetGrounded(false)
	}

	if !obj.HasCollider {
		return
	}
	if err := c.controller.ComputeColliderMovement(obj.Collider, c.Movement, nil); err != nil {
		c.logger.Errorf("character: %v", err)
		return
	}
	c.Position = c.Position.Add(c.controller.ComputedMovement())
}

// FirstPerson reports whether the camera sits inside the avatar.
func (c *CharacterController) FirstPerson() bool {
	return c.Zoom.Zoom <= c.avatar.Width
}

func (c *CharacterController) updateCamera(timeDiff float32) {
	z := c.Zoom.Zoom
	offset := mgl32.Vec3{
		z * math32.Cos(-c.Phi),
		z * math32.Cos(c.Theta+math32.Pi/2),
		z * math32.Sin(-c.Phi),
	}
	c.camera.Position = c.Position.Add(offset)
	c.camera.LookAt(c.Position)

	if !c.FirstPerson() {
		return
	}
	c.camera.Position[1] += c.HeadBob.HeadBob(timeDiff, c.IsMoving2D)

	// keep looking at whatever is in front
	ray := phys.Ray{Origin: c.camera.Position, Direction: c.camera.Direction()}
	if hit, ok := c.physics.World.CastRay(ray, 1000, false, nil); ok {
		c.camera.LookAt(ray.PointAt(hit.Toi))
	}
}

type CharacterModule struct {
	Avatar Avatar
}

func (m CharacterModule) Install(app *App, cmd *Commands) {
	physics, ok := Resource[Physics](app)
	if !ok {
		panic("CharacterModule requires PhysicsModule")
	}
	camera, ok := Resource[Camera](app)
	if !ok {
		panic("CharacterModule requires CameraModule")
	}
	input, ok := Resource[InputController](app)
	if !ok {
		panic("CharacterModule requires InputModule")
	}
	viewport, _ := Resource[Viewport](app)

	ctrl := NewCharacterController(m.Avatar, physics, camera, input, viewport, app.Logger())
	if viewport != nil {
		viewport.OnVisible(ctrl.Height.TabReopened)
	}
	cmd.AddResources(ctrl)

	app.UseSystem(
		System(characterSystem).
			InStage(Update).
			RunAlways(),
	)
}

func characterSystem(cmd *Commands, tick *TickData, ctrl *CharacterController) {
	ts, dt := tick.Seconds()
	ctrl.Update(ts, dt)

	MakeQuery2[TransformComponent, AvatarComponent](cmd).Map(func(_ EntityId, tr *TransformComponent, _ *AvatarComponent) bool {
		tr.Position = ctrl.Position
		return true
	})
}
