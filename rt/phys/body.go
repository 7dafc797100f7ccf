package phys

import (
	"github.com/go-gl/mathgl/mgl32"
)

type BodyType int

const (
	Dynamic BodyType = iota
	Fixed
	KinematicPositionBased
	KinematicVelocityBased
)

func (t BodyType) String() string {
	switch t {
	case Dynamic:
		return "dynamic"
	case Fixed:
		return "fixed"
	case KinematicPositionBased:
		return "kinematic-position"
	case KinematicVelocityBased:
		return "kinematic-velocity"
	}
	return "unknown"
}

func (t BodyType) isKinematic() bool {
	return t == KinematicPositionBased || t == KinematicVelocityBased
}

// BodyHandle and ColliderHandle are stable ids; zero is never handed out.
type BodyHandle uint32
type ColliderHandle uint32

type RigidBodyDesc struct {
	Type            BodyType
	Translation     mgl32.Vec3
	Rotation        mgl32.Quat
	Velocity        mgl32.Vec3
	AngularVelocity mgl32.Vec3
	GravityScale    float32
	LinearDamping   float32
	AngularDamping  float32
	CanSleep        bool
}

func NewRigidBodyDesc(t BodyType) RigidBodyDesc {
	return RigidBodyDesc{
		Type:         t,
		Rotation:     mgl32.QuatIdent(),
		GravityScale: 1,
		CanSleep:     true,
	}
}

type ColliderDesc struct {
	Shape Shape
	// Translation is relative to the parent body.
	Translation     mgl32.Vec3
	Friction        float32
	Restitution     float32
	Density         float32
	// Mass overrides the density derived mass when positive.
	Mass            float32
	CollisionGroups InteractionGroups
	SolverGroups    InteractionGroups
	Sensor          bool
}

func NewColliderDesc(shape Shape) ColliderDesc {
	return ColliderDesc{
		Shape:           shape,
		Friction:        0.5,
		Density:         1,
		CollisionGroups: AllGroups,
		SolverGroups:    AllGroups,
	}
}

type rigidBody struct {
	handle          BodyHandle
	typ             BodyType
	position        mgl32.Vec3
	rotation        mgl32.Quat
	velocity        mgl32.Vec3
	angularVelocity mgl32.Vec3
	gravityScale    float32
	linearDamping   float32
	angularDamping  float32
	canSleep        bool
	sleeping        bool
	idleTime        float32
	mass            float32
	invMass         float32
	invInertia      float32
	nextPosition    *mgl32.Vec3
	colliders       []ColliderHandle
}

func (b *rigidBody) wake() {
	b.sleeping = false
	b.idleTime = 0
}

func (b *rigidBody) isDynamic() bool {
	return b.typ == Dynamic
}

type collider struct {
	handle ColliderHandle
	parent BodyHandle
	desc   ColliderDesc
	local  mgl32.Vec3
	// world pose, refreshed from the parent after every change
	position mgl32.Vec3
	rotation mgl32.Quat
}

func (c *collider) toLocal(p mgl32.Vec3) mgl32.Vec3 {
	return c.rotation.Conjugate().Rotate(p.Sub(c.position))
}

func (c *collider) toWorldDir(v mgl32.Vec3) mgl32.Vec3 {
	return c.rotation.Rotate(v)
}

// distance is the signed distance from a world point with the outward
// world normal.
func (c *collider) distance(p mgl32.Vec3) (float32, mgl32.Vec3) {
	d, n := c.desc.Shape.localDistance(c.toLocal(p))
	return d, c.toWorldDir(n)
}

func (c *collider) mass() float32 {
	if c.desc.Mass > 0 {
		return c.desc.Mass
	}
	return c.desc.Density * c.desc.Shape.Volume()
}

// capsuleSegment returns the world space end points of a capsule's core.
func (c *collider) capsuleSegment() (mgl32.Vec3, mgl32.Vec3) {
	up := c.rotation.Rotate(mgl32.Vec3{0, c.desc.Shape.HalfHeight, 0})
	return c.position.Sub(up), c.position.Add(up)
}
