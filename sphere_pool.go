package marcher

import (
	"math/rand/v2"

	"github.com/gekko3d/marcher/rt/phys"
	"github.com/gekko3d/marcher/rt/sdf"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxSphereCount is the capacity of the sphere arena and the length of the
// uSpheres uniform array.
const MaxSphereCount = 24

const (
	sphereMass        = 5
	sphereRestitution = 1
	sphereImpulse     = 20
)

var spherePalette = [...]mgl32.Vec3{
	{0.01, 0.001, 0.1},
	{0.001, 0.01, 0.1},
	{0.01, 0.1, 0.001},
	{0.001, 0.1, 0.01},
	{0.1, 0.01, 0.001},
	{0.1, 0.1, 0.001},
	{0.001, 0.1, 0.1},
}

// SphereComponent tags the entity of an active pooled sphere.
type SphereComponent struct {
	Index int
}

// SpherePool is a fixed arena of shootable spheres. Slots are filled in
// order and never released; only the first Count snapshots are marched.
type SpherePool struct {
	snapshots [MaxSphereCount]sdf.Sphere
	objects   [MaxSphereCount]*PhysicsObject
	count     int

	physics *Physics
	logger  Logger
}

// NewSpherePool fills every slot with a sphere of radius sdf.SphereRadius
// and a palette colour drawn from rng.
func NewSpherePool(physics *Physics, rng *rand.Rand, logger Logger) *SpherePool {
	if logger == nil {
		logger = NewNopLogger()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p := &SpherePool{physics: physics, logger: logger}
	for i := range p.snapshots {
		p.snapshots[i] = sdf.Sphere{
			Quaternion: mgl32.QuatIdent(),
			Color:      spherePalette[rng.IntN(len(spherePalette))],
			Radius:     sdf.SphereRadius,
		}
	}
	return p
}

func (p *SpherePool) Count() int {
	return p.count
}

func (p *SpherePool) Full() bool {
	return p.count >= MaxSphereCount
}

// Spheres returns the active snapshots.
func (p *SpherePool) Spheres() []sdf.Sphere {
	return p.snapshots[:p.count]
}

// Slots returns every snapshot, active or not.
func (p *SpherePool) Slots() *[MaxSphereCount]sdf.Sphere {
	return &p.snapshots
}

func (p *SpherePool) Object(i int) *PhysicsObject {
	if i < 0 || i >= MaxSphereCount {
		return nil
	}
	return p.objects[i]
}

// Spawn shoots the next sphere from above origin along dir. It does nothing
// and returns -1 when the pointer is not locked or the arena is full.
func (p *SpherePool) Spawn(pointerLocked bool, origin, dir mgl32.Vec3) int {
	if !pointerLocked || p.Full() {
		return -1
	}

	i := p.count
	s := &p.snapshots[i]
	r := s.Radius
	s.Position = origin.Add(mgl32.Vec3{0, r / 2, 0}).Add(dir.Mul(r))

	obj := p.physics.AddPhysics(PhysicsOptions{
		Type:            phys.Dynamic,
		Translation:     s.Position,
		Collider:        ColliderSettings{Kind: ColliderBall, Radius: r / 4},
		CollisionGroups: AllCollisions,
		SolverGroups:    AllCollisions,
		Mass:            sphereMass,
		Restitution:     sphereRestitution,
		AutoAnimate:     true,
	})
	p.objects[i] = obj

	if err := p.physics.World.ApplyImpulse(obj.Body, dir.Mul(r*sphereImpulse*r), true); err != nil {
		p.logger.Errorf("spheres: %v", err)
	}

	p.count++
	p.logger.Debugf("spheres: spawned %d at %v", i, s.Position)
	return i
}

// Sync copies the pose of every body backed slot into its snapshot.
// Colour and radius are fixed at creation.
func (p *SpherePool) Sync(world *phys.World) {
	for i, obj := range p.objects {
		if obj == nil || !obj.HasCollider {
			continue
		}
		if pos, ok := world.ColliderTranslation(obj.Collider); ok {
			p.snapshots[i].Position = pos
		}
		if rot, ok := world.ColliderRotation(obj.Collider); ok {
			p.snapshots[i].Quaternion = rot
		}
	}
}

// SphereModule adds the pool and shoots a sphere on every click after the
// first one, which only grabs the pointer.
type SphereModule struct {
	Seed uint64
}

func (m SphereModule) Install(app *App, cmd *Commands) {
	physics, ok := Resource[Physics](app)
	if !ok {
		panic("SphereModule requires PhysicsModule")
	}
	input, ok := Resource[InputController](app)
	if !ok {
		panic("SphereModule requires InputModule")
	}

	var rng *rand.Rand
	if m.Seed != 0 {
		rng = rand.New(rand.NewPCG(m.Seed, m.Seed))
	}
	pool := NewSpherePool(physics, rng, app.Logger())
	cmd.AddResources(pool)

	clicks := 0
	input.OnClick(func() {
		defer func() { clicks++ }()
		if clicks == 0 {
			return
		}
		ctrl, ok := Resource[CharacterController](app)
		if !ok {
			return
		}
		camera, ok := Resource[Camera](app)
		if !ok {
			return
		}
		i := pool.Spawn(input.PointerLocked(), ctrl.Position, camera.Direction())
		if i < 0 {
			return
		}
		app.Commands().AddEntity(
			NewTransform(pool.Slots()[i].Position),
			&PhysicsBodyComponent{Object: pool.Object(i)},
			&SphereComponent{Index: i},
		)
	})
}
