package marcher

import (
	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
	LightTypeAmbient     LightType = 3
	LightTypeHemisphere  LightType = 4
	LightTypeProbe       LightType = 5
)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeDirectional:
		return "directional"
	case LightTypeSpot:
		return "spot"
	case LightTypeAmbient:
		return "ambient"
	case LightTypeHemisphere:
		return "hemisphere"
	case LightTypeProbe:
		return "probe"
	}
	return "unknown"
}

// Light is a scene light. Directional lights shine from Position toward
// Target.
type Light struct {
	Type      LightType
	Position  mgl32.Vec3
	Target    mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

func NewDirectionalLight(color mgl32.Vec3, intensity float32, position mgl32.Vec3) *Light {
	return &Light{
		Type:      LightTypeDirectional,
		Position:  position,
		Color:     color,
		Intensity: intensity,
	}
}

func NewAmbientLight(color mgl32.Vec3, intensity float32) *Light {
	return &Light{
		Type:      LightTypeAmbient,
		Color:     color,
		Intensity: intensity,
	}
}

// Direction is the unit vector from Position toward Target, straight down
// when the two coincide.
func (l *Light) Direction() mgl32.Vec3 {
	d := l.Target.Sub(l.Position)
	if d.Len() < 1e-6 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

// LightComponent attaches a registered light to an entity; the entity's
// transform drives the light position.
type LightComponent struct {
	Light *Light
}
