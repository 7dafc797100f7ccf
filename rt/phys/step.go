package phys

import (
	"github.com/go-gl/mathgl/mgl32"
)

// restingSpeed is the approach speed below which contacts do not bounce.
const restingSpeed = 0.2

// Step advances the world by dt seconds.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	bodies := w.sortedBodies()
	for _, b := range bodies {
		w.integrate(b, dt)
	}

	w.resolveContacts()

	for _, b := range bodies {
		if !b.isDynamic() || b.sleeping || !b.canSleep {
			continue
		}
		if b.velocity.Len() < w.SleepThreshold && b.angularVelocity.Len() < w.SleepThreshold {
			b.idleTime += dt
			if b.idleTime > w.SleepTime {
				b.sleeping = true
				b.velocity = mgl32.Vec3{}
				b.angularVelocity = mgl32.Vec3{}
			}
		} else {
			b.idleTime = 0
		}
	}
}

func (w *World) integrate(b *rigidBody, dt float32) {
	switch b.typ {
	case Fixed:
		return
	case KinematicPositionBased:
		if b.nextPosition != nil {
			b.velocity = b.nextPosition.Sub(b.position).Mul(1 / dt)
			b.position = *b.nextPosition
			b.nextPosition = nil
		} else {
			b.velocity = mgl32.Vec3{}
		}
		w.syncColliders(b)
		return
	case KinematicVelocityBased:
		b.position = b.position.Add(b.velocity.Mul(dt))
		w.syncColliders(b)
		return
	}

	if b.sleeping {
		return
	}

	b.velocity = b.velocity.Add(w.Gravity.Mul(b.gravityScale * dt))
	b.velocity = b.velocity.Mul(1 / (1 + dt*b.linearDamping))
	b.angularVelocity = b.angularVelocity.Mul(1 / (1 + dt*b.angularDamping))

	b.position = b.position.Add(b.velocity.Mul(dt))
	if b.angularVelocity.Len() > 0 {
		spin := mgl32.Quat{W: 0, V: b.angularVelocity.Mul(0.5 * dt)}
		b.rotation = b.rotation.Add(spin.Mul(b.rotation)).Normalize()
	}
	w.syncColliders(b)
}

func (w *World) resolveContacts() {
	cols := w.sortedColliders()
	for i, a := range cols {
		for _, b := range cols[i+1:] {
			if a.parent == b.parent || a.desc.Sensor || b.desc.Sensor {
				continue
			}
			if !a.desc.CollisionGroups.Test(b.desc.CollisionGroups) || !a.desc.SolverGroups.Test(b.desc.SolverGroups) {
				continue
			}
			ba, bb := w.bodies[a.parent], w.bodies[b.parent]
			if !ba.isDynamic() && !bb.isDynamic() {
				continue
			}
			if (ba.sleeping || !ba.isDynamic()) && (bb.sleeping || !bb.isDynamic()) {
				continue
			}

			c, ok := collide(a, b)
			if !ok {
				continue
			}
			w.resolve(ba, bb, a, b, c)
		}
	}
}

// resolve pushes the pair apart and exchanges an impulse along the normal,
// plus a friction impulse along the sliding direction.
func (w *World) resolve(ba, bb *rigidBody, a, b *collider, c contact) {
	total := ba.invMass + bb.invMass
	if total == 0 {
		return
	}
	ba.position = ba.position.Add(c.normal.Mul(c.penetration * ba.invMass / total))
	bb.position = bb.position.Sub(c.normal.Mul(c.penetration * bb.invMass / total))
	w.syncColliders(ba)
	w.syncColliders(bb)

	rA := c.point.Sub(ba.position)
	rB := c.point.Sub(bb.position)
	vA := ba.velocity.Add(ba.angularVelocity.Cross(rA))
	vB := bb.velocity.Add(bb.angularVelocity.Cross(rB))

	relative := vA.Sub(vB)
	along := relative.Dot(c.normal)
	if along > 0 {
		return
	}

	restitution := (a.desc.Restitution + b.desc.Restitution) * 0.5
	if -along < restingSpeed {
		restitution = 0
	}

	denom := total
	rAn := rA.Cross(c.normal)
	rBn := rB.Cross(c.normal)
	denom += rAn.Dot(rAn)*ba.invInertia + rBn.Dot(rBn)*bb.invInertia

	j := -(1 + restitution) * along / denom
	impulse := c.normal.Mul(j)

	ba.velocity = ba.velocity.Add(impulse.Mul(ba.invMass))
	ba.angularVelocity = ba.angularVelocity.Add(rA.Cross(impulse).Mul(ba.invInertia))
	bb.velocity = bb.velocity.Sub(impulse.Mul(bb.invMass))
	bb.angularVelocity = bb.angularVelocity.Sub(rB.Cross(impulse).Mul(bb.invInertia))

	friction := (a.desc.Friction + b.desc.Friction) * 0.5
	tangent := relative.Sub(c.normal.Mul(along))
	if tangent.Len() > 0.0001 {
		tangent = tangent.Normalize()
		jt := -relative.Dot(tangent) * friction / denom
		// never reverse the sliding direction
		if limit := relative.Dot(tangent) / total; -jt > limit {
			jt = -limit
		}
		f := tangent.Mul(jt)
		ba.velocity = ba.velocity.Add(f.Mul(ba.invMass))
		bb.velocity = bb.velocity.Sub(f.Mul(bb.invMass))
	}

	// resting contacts must not reset the idle time of awake bodies
	if ba.isDynamic() && ba.sleeping {
		ba.wake()
	}
	if bb.isDynamic() && bb.sleeping {
		bb.wake()
	}
}
