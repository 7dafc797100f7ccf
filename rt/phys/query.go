package phys

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type QueryFilterFlags uint32

const (
	ExcludeFixed QueryFilterFlags = 1 << iota
	ExcludeKinematic
	ExcludeDynamic
	ExcludeSensors
	ExcludeSolids
)

// QueryFilter narrows the colliders a query sees. Zero handles exclude
// nothing; a nil Groups accepts every collision group.
type QueryFilter struct {
	Flags           QueryFilterFlags
	Groups          *InteractionGroups
	ExcludeCollider ColliderHandle
	ExcludeBody     BodyHandle
}

func (f *QueryFilter) accepts(c *collider, b *rigidBody) bool {
	if f == nil {
		return true
	}
	if f.ExcludeCollider != 0 && c.handle == f.ExcludeCollider {
		return false
	}
	if f.ExcludeBody != 0 && c.parent == f.ExcludeBody {
		return false
	}
	switch {
	case f.Flags&ExcludeFixed != 0 && b.typ == Fixed,
		f.Flags&ExcludeKinematic != 0 && b.typ.isKinematic(),
		f.Flags&ExcludeDynamic != 0 && b.typ == Dynamic,
		f.Flags&ExcludeSensors != 0 && c.desc.Sensor,
		f.Flags&ExcludeSolids != 0 && !c.desc.Sensor:
		return false
	}
	if f.Groups != nil && !f.Groups.Test(c.desc.CollisionGroups) {
		return false
	}
	return true
}

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func (r Ray) PointAt(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

type RayHit struct {
	Collider ColliderHandle
	// Toi is the hit distance in units of the ray direction length.
	Toi    float32
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

// CastRay returns the closest hit within maxToi. With solid set, a ray that
// starts inside a shape hits it at toi 0; otherwise it hits the boundary on
// the way out.
func (w *World) CastRay(ray Ray, maxToi float32, solid bool, filter *QueryFilter) (RayHit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var best RayHit
	found := false
	for _, c := range w.sortedColliders() {
		if !filter.accepts(c, w.bodies[c.parent]) {
			continue
		}
		toi, ok := castShape(c, ray, maxToi, solid)
		if !ok || (found && toi >= best.Toi) {
			continue
		}
		p := ray.PointAt(toi)
		_, n := c.distance(p)
		best = RayHit{Collider: c.handle, Toi: toi, Point: p, Normal: n}
		found = true
	}
	return best, found
}

func castShape(c *collider, ray Ray, maxToi float32, solid bool) (float32, bool) {
	inv := c.rotation.Conjugate()
	o := inv.Rotate(ray.Origin.Sub(c.position))
	d := inv.Rotate(ray.Direction)
	s := &c.desc.Shape

	var toi float32
	var ok bool
	switch s.Kind {
	case ShapeBall:
		toi, ok = castBall(o, d, s.Radius, solid)
	case ShapeCuboid:
		toi, ok = castBox(o, d, s.HalfExtents, solid)
	case ShapeCapsule:
		toi, ok = castMarch(o, d, maxToi, solid, s)
	case ShapeTriMesh:
		toi, ok = castMesh(o, d, s)
	}
	if !ok || toi < 0 || toi > maxToi {
		return 0, false
	}
	return toi, true
}

func castBall(o, d mgl32.Vec3, r float32, solid bool) (float32, bool) {
	a := d.Dot(d)
	if a == 0 {
		return 0, false
	}
	b := o.Dot(d)
	cc := o.Dot(o) - r*r
	if cc <= 0 && solid {
		return 0, true
	}
	disc := b*b - a*cc
	if disc < 0 {
		return 0, false
	}
	sq := math32.Sqrt(disc)
	if cc <= 0 {
		return (-b + sq) / a, true
	}
	t := (-b - sq) / a
	return t, t >= 0
}

func castBox(o, d, h mgl32.Vec3, solid bool) (float32, bool) {
	tmin := float32(-maxFloat)
	tmax := float32(maxFloat)
	for i := 0; i < 3; i++ {
		if math32.Abs(d[i]) < 1e-12 {
			if o[i] < -h[i] || o[i] > h[i] {
				return 0, false
			}
			continue
		}
		t1 := (-h[i] - o[i]) / d[i]
		t2 := (h[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		// origin inside
		if solid {
			return 0, true
		}
		return tmax, true
	}
	return tmin, true
}

const (
	castMarchSteps   = 128
	castMarchEpsilon = 1e-4
)

// castMarch sphere-traces the shape's distance field.
func castMarch(o, d mgl32.Vec3, maxToi float32, solid bool, s *Shape) (float32, bool) {
	speed := d.Len()
	if speed == 0 {
		return 0, false
	}
	start, _ := s.localDistance(o)
	inside := start < 0
	if inside && solid {
		return 0, true
	}

	var t float32
	for i := 0; i < castMarchSteps; i++ {
		dist, _ := s.localDistance(o.Add(d.Mul(t)))
		if inside {
			dist = -dist
		}
		if dist < castMarchEpsilon {
			return t, true
		}
		t += dist / speed
		if t > maxToi {
			return 0, false
		}
	}
	return 0, false
}

// castMesh is Möller-Trumbore over every triangle, both faces.
func castMesh(o, d mgl32.Vec3, s *Shape) (float32, bool) {
	best := float32(maxFloat)
	found := false
	for _, tri := range s.Indices {
		a, b, c := s.Vertices[tri[0]], s.Vertices[tri[1]], s.Vertices[tri[2]]
		e1, e2 := b.Sub(a), c.Sub(a)
		p := d.Cross(e2)
		det := e1.Dot(p)
		if math32.Abs(det) < 1e-9 {
			continue
		}
		inv := 1 / det
		tv := o.Sub(a)
		u := tv.Dot(p) * inv
		if u < 0 || u > 1 {
			continue
		}
		q := tv.Cross(e1)
		v := d.Dot(q) * inv
		if v < 0 || u+v > 1 {
			continue
		}
		t := e2.Dot(q) * inv
		if t >= 0 && t < best {
			best = t
			found = true
		}
	}
	return best, found
}
