package marcher

import (
	"github.com/gekko3d/marcher/rt/phys"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Boxes  []BoxDef
	Lights []LightDef
}

// BoxDef is a rasterized box with an optional fixed collider of the same
// size.
type BoxDef struct {
	Position   mgl32.Vec3
	Size       mgl32.Vec3
	Color      mgl32.Vec4
	HasPhysics bool
	Physics    PhysicsDef
}

type PhysicsDef struct {
	Friction    float32
	Density     float32
	Mass        float32
	Restitution float32
	Groups      CollisionType
}

// LightDef defines a light instantiation.
type LightDef struct {
	Type      LightType
	Position  mgl32.Vec3
	Target    mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

const (
	roomSize      = 100
	wallThickness = 1
)

var wallColor = mgl32.Vec4{0x44 / 255.0, 0x44 / 255.0, 0x44 / 255.0, 1}

// RoomScene is a closed cube of six walls lit by one ambient and two
// directional lights.
func RoomScene() SceneDef {
	wall := PhysicsDef{Friction: 10, Density: 2000, Mass: 1000, Groups: AllCollisions}
	h := float32(roomSize) / 2

	var boxes []BoxDef
	for axis := 0; axis < 3; axis++ {
		size := mgl32.Vec3{roomSize, roomSize, roomSize}
		size[axis] = wallThickness
		for _, sign := range []float32{-1, 1} {
			var pos mgl32.Vec3
			pos[axis] = sign * h
			boxes = append(boxes, BoxDef{
				Position:   pos,
				Size:       size,
				Color:      wallColor,
				HasPhysics: true,
				Physics:    wall,
			})
		}
	}

	white := mgl32.Vec3{1, 1, 1}
	return SceneDef{
		Boxes: boxes,
		Lights: []LightDef{
			{Type: LightTypeAmbient, Color: white, Intensity: 0.4},
			{Type: LightTypeDirectional, Position: mgl32.Vec3{10, 10, 0}, Color: white, Intensity: 1.5},
			{Type: LightTypeDirectional, Position: mgl32.Vec3{0, 100, 0}, Color: white, Intensity: 2.5},
		},
	}
}

// DefaultAvatar stands on nothing at x=30, ten units up, and falls to the
// floor once physics runs.
func DefaultAvatar() Avatar {
	const height, radius = 1.5, 0.5
	return Avatar{
		Position: mgl32.Vec3{30, 10 + height/2 + radius, 0},
		Width:    1,
		Height:   2.5,
	}
}

// LoadScene iterates through the SceneDef and spawns entities.
func LoadScene(cmd *Commands, assets *AssetServer, physics *Physics, lights *SceneLights, scene *SceneDef) {
	for _, box := range scene.Boxes {
		spawnBox(cmd, assets, physics, box)
	}
	for _, light := range scene.Lights {
		spawnLight(cmd, lights, light)
	}
}

func spawnBox(cmd *Commands, assets *AssetServer, physics *Physics, def BoxDef) EntityId {
	comps := []any{
		NewTransform(def.Position),
		&RenderableComponent{
			Mesh:     assets.CreateBoxMesh(def.Size),
			Material: assets.CreateMaterial(def.Color),
		},
	}

	if def.HasPhysics && physics != nil {
		obj := physics.AddPhysics(PhysicsOptions{
			Type:        phys.Fixed,
			Translation: def.Position,
			Collider: ColliderSettings{
				Kind:        ColliderCuboid,
				HalfExtents: def.Size.Mul(0.5),
			},
			CollisionGroups: def.Physics.Groups,
			SolverGroups:    def.Physics.Groups,
			Friction:        def.Physics.Friction,
			Density:         def.Physics.Density,
			Mass:            def.Physics.Mass,
			Restitution:     def.Physics.Restitution,
		})
		comps = append(comps, &PhysicsBodyComponent{Object: obj})
	}

	return cmd.AddEntity(comps...)
}

func spawnLight(cmd *Commands, lights *SceneLights, def LightDef) {
	l := &Light{
		Type:      def.Type,
		Position:  def.Position,
		Target:    def.Target,
		Color:     def.Color,
		Intensity: def.Intensity,
	}
	lights.Add(l)
	cmd.AddEntity(NewTransform(def.Position), &LightComponent{Light: l})
}

// SceneModule loads Def, or the room when Def is empty, and gives the
// character a visible body that is kept out of the sticky depth layer.
type SceneModule struct {
	Def *SceneDef
}

func (m SceneModule) Install(app *App, cmd *Commands) {
	assets, ok := Resource[AssetServer](app)
	if !ok {
		panic("SceneModule requires AssetServerModule")
	}
	lights, ok := Resource[SceneLights](app)
	if !ok {
		panic("SceneModule requires LightsModule")
	}
	physics, _ := Resource[Physics](app)

	def := m.Def
	if def == nil {
		room := RoomScene()
		def = &room
	}
	LoadScene(cmd, assets, physics, lights, def)

	if ctrl, ok := Resource[CharacterController](app); ok {
		avatar := ctrl.Avatar()
		material := assets.CreateMaterial(mgl32.Vec4{0.8, 0.8, 0.8, 1})
		cmd.AddEntity(
			NewTransform(ctrl.Position),
			&RenderableComponent{
				Mesh:     assets.CreateBoxMesh(mgl32.Vec3{avatar.Width, avatar.Height, avatar.Width}),
				Material: material,
			},
			&AvatarComponent{},
		)
		if rm, ok := Resource[RayMarcher](app); ok {
			rm.StickyExclusions = append(rm.StickyExclusions, material)
		}
	}
	app.Logger().Infof("scene: %d boxes, %d lights", len(def.Boxes), len(def.Lights))
}
