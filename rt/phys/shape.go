package phys

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type ShapeKind int

const (
	ShapeCuboid ShapeKind = iota
	ShapeBall
	// ShapeCapsule is aligned with the local Y axis.
	ShapeCapsule
	ShapeTriMesh
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCuboid:
		return "cuboid"
	case ShapeBall:
		return "ball"
	case ShapeCapsule:
		return "capsule"
	case ShapeTriMesh:
		return "trimesh"
	}
	return "unknown"
}

type Shape struct {
	Kind        ShapeKind
	HalfExtents mgl32.Vec3 // cuboid
	Radius      float32    // ball, capsule
	HalfHeight  float32    // capsule segment half length
	Vertices    []mgl32.Vec3
	Indices     [][3]uint32
}

func Cuboid(hx, hy, hz float32) Shape {
	return Shape{Kind: ShapeCuboid, HalfExtents: mgl32.Vec3{hx, hy, hz}}
}

func Ball(radius float32) Shape {
	return Shape{Kind: ShapeBall, Radius: radius}
}

func Capsule(halfHeight, radius float32) Shape {
	return Shape{Kind: ShapeCapsule, HalfHeight: halfHeight, Radius: radius}
}

func TriMesh(vertices []mgl32.Vec3, indices [][3]uint32) Shape {
	return Shape{Kind: ShapeTriMesh, Vertices: vertices, Indices: indices}
}

func (s *Shape) Volume() float32 {
	switch s.Kind {
	case ShapeCuboid:
		return 8 * s.HalfExtents[0] * s.HalfExtents[1] * s.HalfExtents[2]
	case ShapeBall:
		return 4.0 / 3.0 * math32.Pi * s.Radius * s.Radius * s.Radius
	case ShapeCapsule:
		r2 := s.Radius * s.Radius
		return math32.Pi*r2*2*s.HalfHeight + 4.0/3.0*math32.Pi*r2*s.Radius
	}
	return 0
}

// inertia is a scalar moment of inertia for the given mass.
func (s *Shape) inertia(mass float32) float32 {
	switch s.Kind {
	case ShapeCuboid:
		size := (s.HalfExtents[0] + s.HalfExtents[1] + s.HalfExtents[2]) / 3 * 2
		return mass * size * size / 6
	case ShapeBall:
		return 0.4 * mass * s.Radius * s.Radius
	case ShapeCapsule:
		r := s.Radius + s.HalfHeight*0.5
		return 0.4 * mass * r * r
	}
	return 0
}

// boundingRadius bounds the shape around its local origin.
func (s *Shape) boundingRadius() float32 {
	switch s.Kind {
	case ShapeCuboid:
		return s.HalfExtents.Len()
	case ShapeBall:
		return s.Radius
	case ShapeCapsule:
		return s.HalfHeight + s.Radius
	case ShapeTriMesh:
		var r float32
		for _, v := range s.Vertices {
			r = math32.Max(r, v.Len())
		}
		return r
	}
	return 0
}

// localDistance is the signed distance from p to the shape surface and the
// outward direction at the closest point. Triangle meshes have no inside
// and report unsigned distances.
func (s *Shape) localDistance(p mgl32.Vec3) (float32, mgl32.Vec3) {
	switch s.Kind {
	case ShapeBall:
		l := p.Len()
		if l == 0 {
			return -s.Radius, mgl32.Vec3{0, 1, 0}
		}
		return l - s.Radius, p.Mul(1 / l)
	case ShapeCapsule:
		q := mgl32.Vec3{0, clamp(p[1], -s.HalfHeight, s.HalfHeight), 0}
		d := p.Sub(q)
		l := d.Len()
		if l == 0 {
			return -s.Radius, mgl32.Vec3{1, 0, 0}
		}
		return l - s.Radius, d.Mul(1 / l)
	case ShapeCuboid:
		return boxDistance(p, s.HalfExtents)
	case ShapeTriMesh:
		return s.meshDistance(p)
	}
	return maxFloat, mgl32.Vec3{}
}

func boxDistance(p, h mgl32.Vec3) (float32, mgl32.Vec3) {
	q := mgl32.Vec3{math32.Abs(p[0]) - h[0], math32.Abs(p[1]) - h[1], math32.Abs(p[2]) - h[2]}
	if q[0] > 0 || q[1] > 0 || q[2] > 0 {
		closest := mgl32.Vec3{
			clamp(p[0], -h[0], h[0]),
			clamp(p[1], -h[1], h[1]),
			clamp(p[2], -h[2], h[2]),
		}
		d := p.Sub(closest)
		l := d.Len()
		return l, d.Mul(1 / l)
	}

	// inside: leave through the nearest face
	axis := 0
	for i := 1; i < 3; i++ {
		if q[i] > q[axis] {
			axis = i
		}
	}
	var n mgl32.Vec3
	n[axis] = sign(p[axis])
	return q[axis], n
}

func (s *Shape) meshDistance(p mgl32.Vec3) (float32, mgl32.Vec3) {
	best := float32(maxFloat)
	var normal mgl32.Vec3
	for _, tri := range s.Indices {
		a, b, c := s.Vertices[tri[0]], s.Vertices[tri[1]], s.Vertices[tri[2]]
		q := closestPointOnTriangle(p, a, b, c)
		d := p.Sub(q)
		l := d.Len()
		if l < best {
			best = l
			if l > 1e-6 {
				normal = d.Mul(1 / l)
			} else {
				normal = b.Sub(a).Cross(c.Sub(a)).Normalize()
			}
		}
	}
	return best, normal
}

// closestPointOnTriangle follows the Voronoi region walk from Ericson's
// Real-Time Collision Detection.
func closestPointOnTriangle(p, a, b, c mgl32.Vec3) mgl32.Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

const maxFloat = math.MaxFloat32
