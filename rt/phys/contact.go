package phys

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// contact describes an overlap of collider a with collider b. normal points
// from b towards a, so moving a along it separates the pair.
type contact struct {
	normal      mgl32.Vec3
	penetration float32
	point       mgl32.Vec3
}

const segmentSearchIterations = 24

func collide(a, b *collider) (contact, bool) {
	ka, kb := a.desc.Shape.Kind, b.desc.Shape.Kind

	// broad phase
	ra, rb := a.desc.Shape.boundingRadius(), b.desc.Shape.boundingRadius()
	if kb != ShapeTriMesh && ka != ShapeTriMesh {
		if a.position.Sub(b.position).Len() > ra+rb {
			return contact{}, false
		}
	}

	switch {
	case ka == ShapeBall:
		return pointContact(a.position, a.desc.Shape.Radius, b)
	case kb == ShapeBall:
		return flip(pointContact(b.position, b.desc.Shape.Radius, a))
	case ka == ShapeCapsule:
		p0, p1 := a.capsuleSegment()
		return segmentContact(p0, p1, a.desc.Shape.Radius, b)
	case kb == ShapeCapsule:
		p0, p1 := b.capsuleSegment()
		return flip(segmentContact(p0, p1, b.desc.Shape.Radius, a))
	case ka == ShapeCuboid && kb == ShapeCuboid:
		return checkOBBCollision(a, b)
	}
	// cuboid against triangle mesh is not simulated
	return contact{}, false
}

func flip(c contact, ok bool) (contact, bool) {
	c.normal = c.normal.Mul(-1)
	return c, ok
}

// pointContact tests a sphere at center against other.
func pointContact(center mgl32.Vec3, radius float32, other *collider) (contact, bool) {
	d, n := other.distance(center)
	d -= radius
	if d >= 0 {
		return contact{}, false
	}
	return contact{
		normal:      n,
		penetration: -d,
		point:       center.Sub(n.Mul(radius)),
	}, true
}

// closestOnSegment finds the segment point nearest to other. Distance to a
// convex shape is convex along a segment, so a ternary search converges.
func closestOnSegment(p0, p1 mgl32.Vec3, other *collider) mgl32.Vec3 {
	lo, hi := float32(0), float32(1)
	at := func(t float32) mgl32.Vec3 { return p0.Add(p1.Sub(p0).Mul(t)) }
	for i := 0; i < segmentSearchIterations; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		d1, _ := other.distance(at(m1))
		d2, _ := other.distance(at(m2))
		if d1 < d2 {
			hi = m2
		} else {
			lo = m1
		}
	}
	best := at((lo + hi) / 2)
	bestDist, _ := other.distance(best)
	for _, end := range [2]mgl32.Vec3{p0, p1} {
		if d, _ := other.distance(end); d < bestDist {
			best, bestDist = end, d
		}
	}
	return best
}

func segmentContact(p0, p1 mgl32.Vec3, radius float32, other *collider) (contact, bool) {
	return pointContact(closestOnSegment(p0, p1, other), radius, other)
}

func obbAxes(c *collider) [3]mgl32.Vec3 {
	rot := c.rotation.Mat4()
	return [3]mgl32.Vec3{rot.Col(0).Vec3(), rot.Col(1).Vec3(), rot.Col(2).Vec3()}
}

// checkOBBCollision runs the separating axis test over the 15 box axes.
func checkOBBCollision(a, b *collider) (contact, bool) {
	axesA, axesB := obbAxes(a), obbAxes(b)
	ha, hb := a.desc.Shape.HalfExtents, b.desc.Shape.HalfExtents
	L := b.position.Sub(a.position)

	testAxes := make([]mgl32.Vec3, 0, 15)
	for i := 0; i < 3; i++ {
		testAxes = append(testAxes, axesA[i], axesB[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := axesA[i].Cross(axesB[j])
			if cross.LenSqr() > 0.0001 {
				testAxes = append(testAxes, cross.Normalize())
			}
		}
	}

	minOverlap := float32(maxFloat)
	var normal mgl32.Vec3
	for _, axis := range testAxes {
		overlap := getOverlap(axesA, axesB, ha, hb, axis, L)
		if overlap <= 0 {
			return contact{}, false
		}
		if overlap < minOverlap {
			minOverlap = overlap
			normal = axis
		}
	}

	if L.Dot(normal) > 0 {
		normal = normal.Mul(-1)
	}

	return contact{
		normal:      normal,
		penetration: minOverlap,
		point:       findContactPoint(a.position, b.position, axesA, axesB, ha, hb),
	}, true
}

func getOverlap(axesA, axesB [3]mgl32.Vec3, ha, hb, axis, L mgl32.Vec3) float32 {
	var projA, projB float32
	for i := 0; i < 3; i++ {
		projA += math32.Abs(axesA[i].Dot(axis)) * ha[i]
		projB += math32.Abs(axesB[i].Dot(axis)) * hb[i]
	}
	return projA + projB - math32.Abs(L.Dot(axis))
}

// findContactPoint averages the corners of each box that lie in the other.
func findContactPoint(posA, posB mgl32.Vec3, axesA, axesB [3]mgl32.Vec3, ha, hb mgl32.Vec3) mgl32.Vec3 {
	var sum mgl32.Vec3
	n := 0
	for _, p := range corners(posA, axesA, ha) {
		if pointInOBB(p, posB, axesB, hb) {
			sum = sum.Add(p)
			n++
		}
	}
	for _, p := range corners(posB, axesB, hb) {
		if pointInOBB(p, posA, axesA, ha) {
			sum = sum.Add(p)
			n++
		}
	}
	if n == 0 {
		return posA.Add(posB).Mul(0.5)
	}
	return sum.Mul(1 / float32(n))
}

func corners(pos mgl32.Vec3, axes [3]mgl32.Vec3, h mgl32.Vec3) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		p := pos
		for axis := 0; axis < 3; axis++ {
			offset := axes[axis].Mul(h[axis])
			if i&(1<<axis) != 0 {
				p = p.Add(offset)
			} else {
				p = p.Sub(offset)
			}
		}
		out[i] = p
	}
	return out
}

func pointInOBB(p, pos mgl32.Vec3, axes [3]mgl32.Vec3, h mgl32.Vec3) bool {
	d := p.Sub(pos)
	for i := 0; i < 3; i++ {
		if math32.Abs(d.Dot(axes[i])) > h[i]+0.01 {
			return false
		}
	}
	return true
}
