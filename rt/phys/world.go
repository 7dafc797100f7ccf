// Package phys is a small rigid body world: fixed, dynamic and kinematic
// bodies with cuboid, ball, capsule and triangle mesh colliders, ray casts
// and a kinematic character controller.
package phys

import (
	"errors"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"
)

var (
	ErrUnknownBody     = errors.New("unknown rigid body")
	ErrUnknownCollider = errors.New("unknown collider")
)

// World is safe for concurrent use: Step takes the write lock and queries
// take the read lock.
type World struct {
	mu deadlock.RWMutex

	Gravity        mgl32.Vec3
	SleepThreshold float32
	SleepTime      float32

	bodies       map[BodyHandle]*rigidBody
	colliders    map[ColliderHandle]*collider
	nextBody     BodyHandle
	nextCollider ColliderHandle
}

func NewWorld(gravity mgl32.Vec3) *World {
	return &World{
		Gravity:        gravity,
		SleepThreshold: 0.05,
		SleepTime:      1.0,
		bodies:         make(map[BodyHandle]*rigidBody),
		colliders:      make(map[ColliderHandle]*collider),
	}
}

func (w *World) CreateRigidBody(desc RigidBodyDesc) BodyHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextBody++
	rot := desc.Rotation
	if rot.Len() == 0 {
		rot = mgl32.QuatIdent()
	}
	b := &rigidBody{
		handle:          w.nextBody,
		typ:             desc.Type,
		position:        desc.Translation,
		rotation:        rot.Normalize(),
		velocity:        desc.Velocity,
		angularVelocity: desc.AngularVelocity,
		gravityScale:    desc.GravityScale,
		linearDamping:   desc.LinearDamping,
		angularDamping:  desc.AngularDamping,
		canSleep:        desc.CanSleep,
	}
	w.bodies[b.handle] = b
	return b.handle
}

func (w *World) CreateCollider(desc ColliderDesc, parent BodyHandle) (ColliderHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[parent]
	if !ok {
		return 0, ErrUnknownBody
	}

	w.nextCollider++
	c := &collider{
		handle: w.nextCollider,
		parent: parent,
		desc:   desc,
		local:  desc.Translation,
	}
	w.colliders[c.handle] = c
	b.colliders = append(b.colliders, c.handle)
	w.updateMassProperties(b)
	w.syncColliders(b)
	return c.handle, nil
}

// RemoveRigidBody drops a body together with its colliders.
func (w *World) RemoveRigidBody(h BodyHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[h]
	if !ok {
		return
	}
	for _, ch := range b.colliders {
		delete(w.colliders, ch)
	}
	delete(w.bodies, h)
}

func (w *World) NumBodies() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}

func (w *World) NumColliders() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.colliders)
}

func (w *World) BodyType(h BodyHandle) (BodyType, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[h]
	if !ok {
		return 0, false
	}
	return b.typ, true
}

func (w *World) BodyTranslation(h BodyHandle) (mgl32.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[h]
	if !ok {
		return mgl32.Vec3{}, false
	}
	return b.position, true
}

func (w *World) BodyRotation(h BodyHandle) (mgl32.Quat, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[h]
	if !ok {
		return mgl32.QuatIdent(), false
	}
	return b.rotation, true
}

func (w *World) BodyVelocity(h BodyHandle) (mgl32.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[h]
	if !ok {
		return mgl32.Vec3{}, false
	}
	return b.velocity, true
}

func (w *World) BodyMass(h BodyHandle) (float32, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[h]
	if !ok {
		return 0, false
	}
	return b.mass, true
}

func (w *World) IsSleeping(h BodyHandle) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[h]
	return ok && b.sleeping
}

func (w *World) SetBodyTranslation(h BodyHandle, p mgl32.Vec3, wake bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[h]
	if !ok {
		return ErrUnknownBody
	}
	b.position = p
	if wake {
		b.wake()
	}
	w.syncColliders(b)
	return nil
}

// SetNextKinematicTranslation moves a position based kinematic body on the
// next step, deriving its velocity from the displacement.
func (w *World) SetNextKinematicTranslation(h BodyHandle, p mgl32.Vec3) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[h]
	if !ok {
		return ErrUnknownBody
	}
	b.nextPosition = &p
	return nil
}

func (w *World) ApplyImpulse(h BodyHandle, impulse mgl32.Vec3, wake bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[h]
	if !ok {
		return ErrUnknownBody
	}
	w.applyImpulse(b, impulse, wake)
	return nil
}

func (w *World) applyImpulse(b *rigidBody, impulse mgl32.Vec3, wake bool) {
	if !b.isDynamic() {
		return
	}
	if wake {
		b.wake()
	}
	b.velocity = b.velocity.Add(impulse.Mul(b.invMass))
}

func (w *World) ColliderTranslation(h ColliderHandle) (mgl32.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.colliders[h]
	if !ok {
		return mgl32.Vec3{}, false
	}
	return c.position, true
}

func (w *World) ColliderRotation(h ColliderHandle) (mgl32.Quat, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.colliders[h]
	if !ok {
		return mgl32.QuatIdent(), false
	}
	return c.rotation, true
}

func (w *World) ColliderParent(h ColliderHandle) (BodyHandle, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.colliders[h]
	if !ok {
		return 0, false
	}
	return c.parent, true
}

func (w *World) ColliderShape(h ColliderHandle) (Shape, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.colliders[h]
	if !ok {
		return Shape{}, false
	}
	return c.desc.Shape, true
}

// SetColliderTranslation places a collider in world space by changing its
// offset from the parent body.
func (w *World) SetColliderTranslation(h ColliderHandle, p mgl32.Vec3) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.colliders[h]
	if !ok {
		return ErrUnknownCollider
	}
	b := w.bodies[c.parent]
	c.local = b.rotation.Conjugate().Rotate(p.Sub(b.position))
	c.position = p
	c.rotation = b.rotation
	return nil
}

func (w *World) updateMassProperties(b *rigidBody) {
	b.mass = 0
	var inertia float32
	for _, ch := range b.colliders {
		c := w.colliders[ch]
		m := c.mass()
		b.mass += m
		inertia += c.desc.Shape.inertia(m)
	}
	b.invMass, b.invInertia = 0, 0
	if b.isDynamic() && b.mass > 0 {
		b.invMass = 1 / b.mass
		if inertia > 0 {
			b.invInertia = 1 / inertia
		}
	}
}

func (w *World) syncColliders(b *rigidBody) {
	for _, ch := range b.colliders {
		c := w.colliders[ch]
		c.position = b.position.Add(b.rotation.Rotate(c.local))
		c.rotation = b.rotation
	}
}

// sortedBodies keeps stepping deterministic.
func (w *World) sortedBodies() []*rigidBody {
	out := make([]*rigidBody, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].handle < out[j].handle })
	return out
}

func (w *World) sortedColliders() []*collider {
	out := make([]*collider, 0, len(w.colliders))
	for _, c := range w.colliders {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].handle < out[j].handle })
	return out
}
