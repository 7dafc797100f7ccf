package sdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SphereRadius scales the noise that wobbles every pooled sphere and is the
// radius the pool spawns spheres with.
const SphereRadius = 6

type Sphere struct {
	Position   mgl32.Vec3
	Quaternion mgl32.Quat
	Color      mgl32.Vec3
	Radius     float32
}

// Scene is the virtual content of one frame.
type Scene struct {
	Spheres []Sphere
	// Box enables the static red box.
	Box bool
	// Orbiter enables the small green sphere that swings along X with time.
	Orbiter  bool
	Time     float32
	Settings Settings
}

var (
	boxOffset   = mgl32.Vec3{3, 46, 0}
	boxHalfSize = mgl32.Vec3{4, 4, 4}
)

func (s *Scene) spheresSurface(p mgl32.Vec3) Surface {
	noise := Simplex3D(p.Mul(1.0 / SphereRadius))
	final := Surface{
		Diffuse:   mgl32.Vec3{1, 1, 1},
		Specular:  mgl32.Vec3{1, 1, 1},
		Shininess: 100,
		Distance:  s.Settings.MaxMarchDistance,
	}

	for i := range s.Spheres {
		sp := &s.Spheres[i]
		normal := normalize(p.Sub(sp.Position), mgl32.Vec3{})
		wobbled := p.Add(normal.Mul(noise))
		surf := Surface{
			Diffuse:   sp.Color,
			Specular:  mgl32.Vec3{1, 1, 1},
			Shininess: 100,
			Distance:  SphereDistance(wobbled.Sub(sp.Position), sp.Radius),
		}
		final = SminSurface(surf, final, s.Settings.SmoothUnion*2)
	}
	return final
}

func (s *Scene) boxSurface(p mgl32.Vec3) Surface {
	return Surface{
		Diffuse:   mgl32.Vec3{1, 0, 0},
		Specular:  mgl32.Vec3{1, 1, 1},
		Shininess: 10,
		Distance:  BoxDistance(p.Add(boxOffset), boxHalfSize),
	}
}

// OrbiterCenter is where the animated sphere sits at time t.
func OrbiterCenter(t float32) mgl32.Vec3 {
	return mgl32.Vec3{3 + math32.Sin(t*2)*5, -46, 0}
}

func (s *Scene) orbiterSurface(p mgl32.Vec3) Surface {
	return Surface{
		Diffuse:   mgl32.Vec3{0.1, 1, 0},
		Specular:  mgl32.Vec3{1, 1, 1},
		Shininess: 10,
		Distance:  SphereDistance(p.Sub(OrbiterCenter(s.Time)), 2),
	}
}

// VirtualSurface is the union of every enabled virtual shape at p.
func (s *Scene) VirtualSurface(p mgl32.Vec3) Surface {
	k := s.Settings.SmoothUnion * 2
	spheres := s.spheresSurface(p)

	var acc *Surface
	if s.Orbiter {
		o := s.orbiterSurface(p)
		acc = &o
	}
	if s.Box {
		b := s.boxSurface(p)
		if acc != nil {
			b = SminSurface(*acc, b, k)
		}
		acc = &b
	}
	if acc == nil {
		return spheres
	}
	return SminSurface(*acc, spheres, k)
}

// Surfaces evaluates the final, virtual, real and mix surfaces at p, where
// sticky is the world position of the sticky-layer pixel the ray belongs to.
// The real surface has no material of its own and borrows the virtual one.
func (s *Scene) Surfaces(p, sticky mgl32.Vec3) [4]Surface {
	st := &s.Settings
	virtual := s.VirtualSurface(p)
	real := Surface{
		Diffuse:   virtual.Diffuse,
		Specular:  mgl32.Vec3{1, 1, 1},
		Shininess: virtual.Shininess,
		Distance:  p.Sub(sticky).Len(),
	}

	blend := Smin(real.Distance, virtual.Distance, st.SmoothUnion)
	mixed := MixSurfaces(virtual, real, blend)

	cut := math32.Max(st.ExternalDistanceCutDiff, st.HitThreshold+0.01)
	final := mixed
	final.Distance = Subtract(mixed.Distance, real.Distance-cut)

	return [4]Surface{Final: final, Virtual: virtual, Real: real, Mix: mixed}
}

// Distance is the final distance at p.
func (s *Scene) Distance(p, sticky mgl32.Vec3) float32 {
	return s.Surfaces(p, sticky)[Final].Distance
}

const normalEpsilon = 0.001

// Normal estimates the field direction at p by central differences of the
// final distance. It points into the surface, which is the orientation the
// lighting and Fresnel terms expect.
func (s *Scene) Normal(p, sticky mgl32.Vec3) mgl32.Vec3 {
	var n mgl32.Vec3
	for axis := 0; axis < 3; axis++ {
		var e mgl32.Vec3
		e[axis] = normalEpsilon
		n[axis] = s.Distance(p.Sub(e), sticky) - s.Distance(p.Add(e), sticky)
	}
	return normalize(n, mgl32.Vec3{})
}
