package marcher

import (
	"fmt"

	"github.com/gekko3d/marcher/rt/sdf"
)

// MaxNumLights is the per-kind capacity of the light uniforms.
const MaxNumLights = 10

// SceneLights holds the lights the ray marcher shades with. Each kind has
// a fixed array of snapshots filled in insertion order.
type SceneLights struct {
	directional     [MaxNumLights]*Light
	directionalSnap [MaxNumLights]sdf.DirectionalLight
	numDirectional  int

	ambient     [MaxNumLights]*Light
	ambientSnap [MaxNumLights]sdf.AmbientLight
	numAmbient  int

	updateFns []func(*SceneLights)
	logger    Logger
}

func NewSceneLights(logger Logger) *SceneLights {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &SceneLights{logger: logger}
}

// Add registers l by kind. Kinds the marcher cannot shade are logged and
// skipped. Exceeding MaxNumLights of one kind panics.
func (s *SceneLights) Add(l *Light) {
	switch l.Type {
	case LightTypeDirectional:
		if s.numDirectional >= MaxNumLights {
			panic(fmt.Sprintf("number of directional lights exceeds the maximum of %d", MaxNumLights))
		}
		s.directional[s.numDirectional] = l
		s.directionalSnap[s.numDirectional] = directionalSnapshot(l)
		s.numDirectional++
	case LightTypeAmbient:
		if s.numAmbient >= MaxNumLights {
			panic(fmt.Sprintf("number of ambient lights exceeds the maximum of %d", MaxNumLights))
		}
		s.ambient[s.numAmbient] = l
		s.ambientSnap[s.numAmbient] = sdf.AmbientLight{Color: l.Color, Intensity: l.Intensity}
		s.numAmbient++
	default:
		s.logger.Errorf("lights: %s lights are not supported", l.Type)
	}
}

func directionalSnapshot(l *Light) sdf.DirectionalLight {
	return sdf.DirectionalLight{
		Position:  l.Position,
		Direction: l.Direction(),
		Color:     l.Color,
		Intensity: l.Intensity,
	}
}

// OnUpdate registers fn to run after every Update.
func (s *SceneLights) OnUpdate(fn func(*SceneLights)) {
	s.updateFns = append(s.updateFns, fn)
}

// Update refreshes the directional snapshots from their lights, then runs
// the update callbacks.
func (s *SceneLights) Update() {
	for i := 0; i < s.numDirectional; i++ {
		s.directionalSnap[i] = directionalSnapshot(s.directional[i])
	}
	for _, fn := range s.updateFns {
		fn(s)
	}
}

func (s *SceneLights) NumDirectional() int { return s.numDirectional }
func (s *SceneLights) NumAmbient() int     { return s.numAmbient }

// Directional returns the active directional snapshots.
func (s *SceneLights) Directional() []sdf.DirectionalLight {
	return s.directionalSnap[:s.numDirectional]
}

func (s *SceneLights) Ambient() []sdf.AmbientLight {
	return s.ambientSnap[:s.numAmbient]
}

func (s *SceneLights) SDF() sdf.Lights {
	return sdf.Lights{Directional: s.Directional(), Ambient: s.Ambient()}
}

type LightsModule struct{}

func (LightsModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewSceneLights(app.Logger()))
	app.UseSystem(
		System(lightsSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

// lightsSystem moves lights with their entities, then refreshes the
// registry.
func lightsSystem(cmd *Commands, lights *SceneLights) {
	MakeQuery2[TransformComponent, LightComponent](cmd).Map(func(_ EntityId, t *TransformComponent, lc *LightComponent) bool {
		if lc.Light != nil {
			lc.Light.Position = t.Position
		}
		return true
	})
	lights.Update()
}
