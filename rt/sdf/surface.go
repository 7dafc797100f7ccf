// Package sdf is the CPU reference of the ray-march compositor: the same
// distance field, marcher and shading as raymarch.wgsl, evaluated per ray.
package sdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Blend is the result of a smooth minimum: the blended distance and the
// weight of the second operand's material.
type Blend struct {
	Distance float32
	Material float32
}

type Surface struct {
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
	Distance  float32
}

// Indices into the surface set returned by Scene.Surfaces.
const (
	Final = iota
	Virtual
	Real
	Mix
)

// Smin is the polynomial smooth minimum with smoothness k. For k <= 0 it
// is the plain minimum.
func Smin(a, b, k float32) Blend {
	if k <= 0 {
		if a < b {
			return Blend{Distance: a, Material: 0}
		}
		return Blend{Distance: b, Material: 1}
	}

	h := math32.Max(k-math32.Abs(a-b), 0) / k
	m := h * h * 0.5
	s := m * k * 0.5
	if a < b {
		return Blend{Distance: a - s, Material: m}
	}
	return Blend{Distance: b - s, Material: 1 - m}
}

// SminSurface blends two surfaces. The materials are mixed from b towards a
// by the blend weight, never picked.
func SminSurface(a, b Surface, k float32) Surface {
	return MixSurfaces(a, b, Smin(b.Distance, a.Distance, k))
}

// MixSurfaces applies a precomputed blend to the materials of a and b.
func MixSurfaces(a, b Surface, blend Blend) Surface {
	t := blend.Material
	return Surface{
		Diffuse:   mixVec3(b.Diffuse, a.Diffuse, t),
		Specular:  mixVec3(b.Specular, a.Specular, t),
		Shininess: mix(b.Shininess, a.Shininess, t),
		Distance:  blend.Distance,
	}
}

func SphereDistance(p mgl32.Vec3, radius float32) float32 {
	return p.Len() - radius
}

func BoxDistance(p, halfSize mgl32.Vec3) float32 {
	q := absVec3(p).Sub(halfSize)
	outside := mgl32.Vec3{math32.Max(q[0], 0), math32.Max(q[1], 0), math32.Max(q[2], 0)}.Len()
	inside := math32.Min(math32.Max(q[0], math32.Max(q[1], q[2])), 0)
	return outside + inside
}

// Subtract carves b out of a.
func Subtract(a, b float32) float32 {
	return math32.Max(a, -b)
}

func mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

func mixVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func absVec3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Abs(v[0]), math32.Abs(v[1]), math32.Abs(v[2])}
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// normalize returns fallback for zero or non-finite input.
func normalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}
