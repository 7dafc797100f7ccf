package sdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Settings are the march tunables shared with the shader uniforms.
type Settings struct {
	HitThreshold            float32
	MaxMarchDistance        float32
	ExternalDistanceCutDiff float32
	SmoothUnion             float32
	ContactEdgeOffset       float32
	ContactEdgeMin          float32
	ContactEdgeMax          float32

	// EpsilonGrowth multiplies the hit threshold after every step.
	EpsilonGrowth float32
	// Overshoot scales a step while the field stays positive.
	Overshoot float32
	// MaxSteps bounds the loop; 0 disables the bound.
	MaxSteps int
}

func DefaultSettings() Settings {
	return Settings{
		HitThreshold:            0.0001,
		MaxMarchDistance:        100,
		ExternalDistanceCutDiff: 0.02,
		SmoothUnion:             3,
		ContactEdgeOffset:       0.7,
		ContactEdgeMin:          0.8,
		ContactEdgeMax:          0.95,
		EpsilonGrowth:           1.125,
		Overshoot:               1.125,
		MaxSteps:                256,
	}
}

// Ray is one pixel's march input. Depth is the distance along Direction to
// the rasterized scene, StickyDepth the distance to the sticky layer.
type Ray struct {
	Origin      mgl32.Vec3
	Direction   mgl32.Vec3
	Depth       float32
	StickyDepth float32
}

// StickyPosition is the world position of the sticky-layer pixel.
func (r Ray) StickyPosition() mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(r.StickyDepth))
}

type Result struct {
	Hit      bool
	Distance float32
	Steps    int
	Epsilon  float32
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Surfaces [4]Surface
}

// March sphere-traces the final field with relaxed over-stepping and a
// growing hit threshold. It stops on a hit, past MaxMarchDistance, or past
// the rasterized depth.
func (s *Scene) March(r Ray) Result {
	st := &s.Settings
	sticky := r.StickyPosition()

	traveled := s.Distance(r.Origin, sticky)
	eps := st.HitThreshold
	overshoot := float32(1)
	var move float32
	steps := 0

	for traveled > eps && traveled < st.MaxMarchDistance && traveled < r.Depth {
		if st.MaxSteps > 0 && steps >= st.MaxSteps {
			break
		}

		pos := r.Origin.Add(r.Direction.Mul(traveled))
		surfaces := s.Surfaces(pos, sticky)
		dist := surfaces[Final].Distance

		if dist < 0 {
			// stepped inside: undo the overshoot part of the last move
			traveled -= move - move/overshoot
			pos = r.Origin.Add(r.Direction.Mul(traveled))
			surfaces = s.Surfaces(pos, sticky)
			dist = surfaces[Final].Distance
			overshoot = 1
		} else {
			overshoot = st.Overshoot
		}

		if dist < eps {
			return Result{
				Hit:      true,
				Distance: traveled,
				Steps:    steps,
				Epsilon:  eps,
				Position: pos,
				Normal:   s.Normal(pos, sticky),
				Surfaces: surfaces,
			}
		}

		move = dist * overshoot
		traveled += move
		eps *= st.EpsilonGrowth
		steps++

		if math32.IsNaN(traveled) {
			break
		}
	}

	return Result{Distance: traveled, Steps: steps, Epsilon: eps}
}
