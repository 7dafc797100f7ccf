package phys

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	movementSearchIterations = 16
	minSweepStep             = 0.05
	// clearance noise tolerated when sliding along an obstacle
	sweepSlack = 1e-5
	// controllers push dynamic bodies as if they weighed this much
	defaultCharacterMass = 70
)

// CharacterController computes collision-free movement for a kinematic
// capsule, keeping Offset of clearance to obstacles.
type CharacterController struct {
	world *World

	Offset                 float32
	SnapToGround           float32
	ApplyImpulsesToDynamic bool
	CharacterMass          float32

	movement mgl32.Vec3
	grounded bool
}

func (w *World) CreateCharacterController(offset float32) *CharacterController {
	return &CharacterController{
		world:         w,
		Offset:        offset,
		CharacterMass: defaultCharacterMass,
	}
}

func (c *CharacterController) EnableSnapToGround(distance float32) {
	c.SnapToGround = distance
}

func (c *CharacterController) SetApplyImpulsesToDynamicBodies(enabled bool) {
	c.ApplyImpulsesToDynamic = enabled
}

func (c *CharacterController) ComputedMovement() mgl32.Vec3 {
	return c.movement
}

func (c *CharacterController) ComputedGrounded() bool {
	return c.grounded
}

type pushed struct {
	body    *rigidBody
	impulse mgl32.Vec3
}

// ComputeColliderMovement resolves desired for the collider axis by axis,
// shortening each blocked axis to the farthest free position. The result is
// read back with ComputedMovement.
func (c *CharacterController) ComputeColliderMovement(h ColliderHandle, desired mgl32.Vec3, filter *QueryFilter) error {
	w := c.world
	w.mu.RLock()
	self, ok := w.colliders[h]
	if !ok {
		w.mu.RUnlock()
		return ErrUnknownCollider
	}

	obstacles := c.obstacles(self, filter)
	start := self.position
	startClearance, _ := c.clearance(self, start, obstacles)
	allowed := math32.Min(c.Offset, startClearance) - 1e-4

	pos := start
	var pushes []pushed
	for _, axis := range [3]int{1, 0, 2} {
		if desired[axis] == 0 {
			continue
		}
		var step mgl32.Vec3
		step[axis] = desired[axis]

		free, blocker := c.sweep(self, pos, step, allowed, obstacles)
		pos = pos.Add(step.Mul(free))
		if blocker != nil && c.ApplyImpulsesToDynamic && blocker.isDynamic() {
			lost := step.Mul(1 - free)
			pushes = append(pushes, pushed{body: blocker, impulse: lost.Mul(c.CharacterMass)})
		}
	}

	wasGrounded := c.grounded
	if c.SnapToGround > 0 && wasGrounded && desired[1] <= 0 {
		down := mgl32.Vec3{0, -c.SnapToGround, 0}
		free, blocker := c.sweep(self, pos, down, allowed, obstacles)
		if blocker != nil {
			pos = pos.Add(down.Mul(free))
		}
	}

	probe := mgl32.Vec3{0, -(c.Offset + 0.01), 0}
	_, below := c.sweep(self, pos, probe, allowed, obstacles)
	c.grounded = below != nil
	c.movement = pos.Sub(start)
	w.mu.RUnlock()

	if len(pushes) > 0 {
		w.mu.Lock()
		for _, p := range pushes {
			w.applyImpulse(p.body, p.impulse, true)
		}
		w.mu.Unlock()
	}
	return nil
}

func (c *CharacterController) obstacles(self *collider, filter *QueryFilter) []*collider {
	var out []*collider
	for _, o := range c.world.sortedColliders() {
		if o == self || o.parent == self.parent || o.desc.Sensor {
			continue
		}
		if !filter.accepts(o, c.world.bodies[o.parent]) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// clearance is the gap between the character placed at pos and the nearest
// obstacle, and that obstacle's body.
func (c *CharacterController) clearance(self *collider, pos mgl32.Vec3, obstacles []*collider) (float32, *rigidBody) {
	moved := *self
	moved.position = pos

	best := float32(maxFloat)
	var nearest *rigidBody
	for _, o := range obstacles {
		var d float32
		switch self.desc.Shape.Kind {
		case ShapeCapsule:
			p0, p1 := moved.capsuleSegment()
			d, _ = o.distance(closestOnSegment(p0, p1, o))
			d -= self.desc.Shape.Radius
		case ShapeBall:
			d, _ = o.distance(pos)
			d -= self.desc.Shape.Radius
		default:
			d, _ = o.distance(pos)
			d -= self.desc.Shape.boundingRadius()
		}
		if d < best {
			best = d
			nearest = c.world.bodies[o.parent]
		}
	}
	return best, nearest
}

// sweep returns the largest fraction of step the character can travel from
// pos before its clearance drops below allowed, and the blocking body. The
// step is walked in sub-steps no longer than the character's radius so that
// thin obstacles cannot be skipped, then bisected inside the first blocked
// sub-step.
func (c *CharacterController) sweep(self *collider, pos, step mgl32.Vec3, allowed float32, obstacles []*collider) (float32, *rigidBody) {
	length := step.Len()
	if length == 0 {
		return 1, nil
	}
	n := max(int(math32.Ceil(length/sweepStep(self.desc.Shape))), 1)

	for i := 0; i < n; i++ {
		lo, hi := float32(i)/float32(n), float32(i+1)/float32(n)
		if d, _ := c.clearance(self, pos.Add(step.Mul(hi)), obstacles); d >= allowed-sweepSlack {
			continue
		}
		for j := 0; j < movementSearchIterations; j++ {
			mid := (lo + hi) / 2
			if d, _ := c.clearance(self, pos.Add(step.Mul(mid)), obstacles); d >= allowed {
				lo = mid
			} else {
				hi = mid
			}
		}
		_, blocker := c.clearance(self, pos.Add(step.Mul(hi)), obstacles)
		return lo, blocker
	}
	return 1, nil
}

// sweepStep is the longest move that keeps consecutive placements of shape
// overlapping.
func sweepStep(shape Shape) float32 {
	var r float32
	switch shape.Kind {
	case ShapeCapsule, ShapeBall:
		r = shape.Radius
	default:
		r = shape.boundingRadius()
	}
	if r <= 0 {
		return minSweepStep
	}
	return r
}
