package marcher

import (
	"context"
	"sync"
	"time"

	"github.com/gekko3d/marcher/rt/phys"
	"github.com/go-gl/mathgl/mgl32"
)

var DefaultGravity = mgl32.Vec3{0, -9.81, 0}

type ColliderKind int

const (
	// ColliderTriMesh builds the collider from Vertices and Indices.
	ColliderTriMesh ColliderKind = iota
	ColliderCuboid
	ColliderBall
	ColliderCapsule
)

type ColliderSettings struct {
	Kind        ColliderKind
	HalfExtents mgl32.Vec3
	Radius      float32
	HalfHeight  float32
	Vertices    []mgl32.Vec3
	// Indices defaults to the vertices in order.
	Indices []uint32
}

// PhysicsOptions describe a body and its collider. Zero material values
// keep the engine defaults.
type PhysicsOptions struct {
	Type        phys.BodyType
	Translation mgl32.Vec3
	Collider    ColliderSettings

	CollisionGroups CollisionType
	SolverGroups    CollisionType

	Friction    float32
	Restitution float32
	Density     float32
	Mass        float32

	// AutoAnimate copies the collider pose onto the entity transform.
	AutoAnimate bool
	// PostFn runs once per frame after the pose sync.
	PostFn func()
}

type PhysicsObject struct {
	Body        phys.BodyHandle
	Collider    phys.ColliderHandle
	HasCollider bool
	AutoAnimate bool
	PostFn      func()
}

// PhysicsBodyComponent links an entity to its physics object.
type PhysicsBodyComponent struct {
	Object *PhysicsObject
}

// Physics owns the world and the goroutine that steps it at a fixed
// period. The world is safe to read from the frame loop while it steps.
type Physics struct {
	World  *phys.World
	period time.Duration

	logger Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPhysics(gravity mgl32.Vec3, period time.Duration, logger Logger) *Physics {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Physics{
		World:  phys.NewWorld(gravity),
		period: period,
		logger: logger,
	}
}

// Start steps the world every period until ctx is done or Stop is called.
func (p *Physics) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	dt := float32(p.period.Seconds())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.World.Step(dt)
			}
		}
	}()
}

func (p *Physics) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// AddPhysics creates a body and, when the settings describe one, its
// collider. Missing mesh data is logged and the body is kept without a
// collider.
func (p *Physics) AddPhysics(opts PhysicsOptions) *PhysicsObject {
	bodyDesc := phys.NewRigidBodyDesc(opts.Type)
	bodyDesc.Translation = opts.Translation
	obj := &PhysicsObject{
		Body:        p.World.CreateRigidBody(bodyDesc),
		AutoAnimate: opts.AutoAnimate,
		PostFn:      opts.PostFn,
	}

	shape, ok := colliderShape(opts.Collider)
	if !ok {
		p.logger.Errorf("physics: no collider data has been provided")
		return obj
	}

	desc := phys.NewColliderDesc(shape)
	desc.CollisionGroups = phys.InteractionGroups(CollisionTypeGroups(opts.CollisionGroups))
	desc.SolverGroups = phys.InteractionGroups(CollisionTypeGroups(opts.SolverGroups))
	if opts.Friction > 0 {
		desc.Friction = opts.Friction
	}
	if opts.Restitution > 0 {
		desc.Restitution = opts.Restitution
	}
	if opts.Density > 0 {
		desc.Density = opts.Density
	}
	if opts.Mass > 0 {
		desc.Mass = opts.Mass
	}

	col, err := p.World.CreateCollider(desc, obj.Body)
	if err != nil {
		p.logger.Errorf("physics: creating collider: %v", err)
		return obj
	}
	obj.Collider = col
	obj.HasCollider = true
	return obj
}

func colliderShape(s ColliderSettings) (phys.Shape, bool) {
	switch s.Kind {
	case ColliderCuboid:
		return phys.Cuboid(s.HalfExtents[0], s.HalfExtents[1], s.HalfExtents[2]), true
	case ColliderBall:
		return phys.Ball(s.Radius), true
	case ColliderCapsule:
		return phys.Capsule(s.HalfHeight, s.Radius), true
	}

	if len(s.Vertices) < 3 {
		return phys.Shape{}, false
	}
	indices := s.Indices
	if indices == nil {
		indices = make([]uint32, len(s.Vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	tris := make([][3]uint32, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		tris = append(tris, [3]uint32{indices[i], indices[i+1], indices[i+2]})
	}
	if len(tris) == 0 {
		return phys.Shape{}, false
	}
	return phys.TriMesh(s.Vertices, tris), true
}

type PhysicsModule struct {
	Gravity mgl32.Vec3
	Period  time.Duration
}

func (m PhysicsModule) Install(app *App, cmd *Commands) {
	period := m.Period
	if period <= 0 {
		period = 8 * time.Millisecond
	}
	physics := NewPhysics(m.Gravity, period, app.Logger())
	cmd.AddResources(physics)

	physics.Start(context.Background())
	app.OnShutdown(physics.Stop)

	app.UseSystem(
		System(physicsSyncSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// physicsSyncSystem copies the latest poses onto entities and runs the
// per-object post functions.
func physicsSyncSystem(cmd *Commands, physics *Physics) {
	MakeQuery2[TransformComponent, PhysicsBodyComponent](cmd).Map(func(_ EntityId, tr *TransformComponent, pb *PhysicsBodyComponent) bool {
		obj := pb.Object
		if obj == nil {
			return true
		}
		if obj.AutoAnimate && obj.HasCollider {
			if pos, ok := physics.World.ColliderTranslation(obj.Collider); ok {
				tr.Position = pos
			}
			if rot, ok := physics.World.ColliderRotation(obj.Collider); ok {
				tr.Rotation = rot
			}
		}
		if obj.PostFn != nil {
			obj.PostFn()
		}
		return true
	})
}
