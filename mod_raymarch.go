package marcher

import (
	"fmt"

	"github.com/gekko3d/marcher/rt/gpu"
	"github.com/gekko3d/marcher/rt/sdf"
	"github.com/go-gl/mathgl/mgl32"
)

// DepthLayer selects one of the two offscreen depth targets.
type DepthLayer int

const (
	// DepthNormal holds every rasterized object.
	DepthNormal DepthLayer = iota
	// DepthSticky leaves out the excluded materials, so marched shapes can
	// stick to what remains.
	DepthSticky
)

func (l DepthLayer) String() string {
	switch l {
	case DepthNormal:
		return "normal"
	case DepthSticky:
		return "sticky"
	}
	return fmt.Sprintf("DepthLayer(%d)", int(l))
}

// DepthRenderer rasterizes the scene into a depth target.
type DepthRenderer interface {
	Ready() bool
	RenderDepth(layer DepthLayer) error
}

const errUninitializedRenderer = "Updating Frame Failed : Uninitialized Renderer"

// RayMarcher owns the uniforms of the ray-march pass and the order in which
// they and the depth targets are produced each frame.
type RayMarcher struct {
	March  gpu.MarchUniforms
	Lights gpu.LightUniforms

	// StickyExclusions are left out of the sticky depth target every frame.
	StickyExclusions []*Material

	pool     *SpherePool
	camera   *Camera
	physics  *Physics
	renderer DepthRenderer
	logger   Logger
}

func NewRayMarcher(settings sdf.Settings, pool *SpherePool, camera *Camera, physics *Physics, logger Logger) *RayMarcher {
	if logger == nil {
		logger = NewNopLogger()
	}
	rm := &RayMarcher{
		pool:    pool,
		camera:  camera,
		physics: physics,
		logger:  logger,
	}
	rm.March.Settings = settings
	rm.syncCamera()
	return rm
}

func (rm *RayMarcher) SetRenderer(r DepthRenderer) {
	rm.renderer = r
}

func (rm *RayMarcher) SetFlags(flags uint32) {
	rm.March.Flags = flags
}

// Update prepares one frame. The steps run in a fixed order: camera, sphere
// sync, sphere count, time, normal depth, sticky depth. The excluded
// materials get their depth write back whatever the sticky pass does.
func (rm *RayMarcher) Update(timestampMs float64, exclusions ...*Material) error {
	if rm.renderer == nil || !rm.renderer.Ready() {
		panic(errUninitializedRenderer)
	}

	rm.syncCamera()

	if rm.pool != nil {
		if rm.physics != nil {
			rm.pool.Sync(rm.physics.World)
		}
		rm.March.Spheres = *rm.pool.Slots()
		rm.March.SpheresCount = int32(rm.pool.Count())
	}

	rm.March.Time = float32(timestampMs / 1000)

	if err := rm.renderer.RenderDepth(DepthNormal); err != nil {
		return fmt.Errorf("%s depth: %w", DepthNormal, err)
	}

	excluded := append(rm.StickyExclusions[:len(rm.StickyExclusions):len(rm.StickyExclusions)], exclusions...)
	return withDepthWriteDisabled(excluded, func() error {
		if err := rm.renderer.RenderDepth(DepthSticky); err != nil {
			return fmt.Errorf("%s depth: %w", DepthSticky, err)
		}
		return nil
	})
}

// withDepthWriteDisabled turns depth write off on materials for the
// duration of fn and restores each previous value, also when fn panics.
func withDepthWriteDisabled(materials []*Material, fn func() error) error {
	saved := make([]bool, len(materials))
	for i, m := range materials {
		if m == nil {
			continue
		}
		saved[i] = m.DepthWrite
		m.DepthWrite = false
	}
	defer func() {
		for i, m := range materials {
			if m != nil {
				m.DepthWrite = saved[i]
			}
		}
	}()
	return fn()
}

func (rm *RayMarcher) syncCamera() {
	if rm.camera == nil {
		return
	}
	c := rm.camera
	rm.March.CameraPosition = c.Position
	rm.March.CameraQuaternion = c.Quaternion
	rm.March.CameraDirection = c.Direction()
	rm.March.CameraNear = c.Near
	rm.March.CameraFar = c.Far
	rm.March.CameraNearSize = c.NearSize()
	rm.March.CameraFarSize = c.FarSize()
	rm.March.CameraAspectRatio = c.Aspect
}

// Resize follows the drawable size.
func (rm *RayMarcher) Resize(width, height int) {
	rm.March.Resolution = mgl32.Vec2{float32(width), float32(height)}
	if rm.camera != nil {
		rm.camera.SetAspect(width, height)
	}
	rm.syncCamera()
}

// SyncLights copies the registry snapshots into the light uniforms.
func (rm *RayMarcher) SyncLights(lights *SceneLights) {
	rm.Lights.SetLights(lights.SDF())
}

// Scene is the CPU view of what the GPU marches this frame.
func (rm *RayMarcher) Scene() sdf.Scene {
	return sdf.Scene{
		Spheres:  rm.March.Spheres[:rm.March.SpheresCount],
		Box:      rm.March.Flags&gpu.FlagBox != 0,
		Orbiter:  rm.March.Flags&gpu.FlagOrbiter != 0,
		Time:     rm.March.Time,
		Settings: rm.March.Settings,
	}
}

// RaymarchModule marches the pooled spheres, the static box and the orbiting
// sphere. NoBox and NoOrbiter drop the latter two from the field.
type RaymarchModule struct {
	Settings  sdf.Settings
	NoBox     bool
	NoOrbiter bool
}

func (m RaymarchModule) Install(app *App, cmd *Commands) {
	camera, ok := Resource[Camera](app)
	if !ok {
		panic("RaymarchModule requires CameraModule")
	}
	physics, _ := Resource[Physics](app)
	pool, _ := Resource[SpherePool](app)

	settings := m.Settings
	if settings == (sdf.Settings{}) {
		settings = sdf.DefaultSettings()
	}
	rm := NewRayMarcher(settings, pool, camera, physics, app.Logger())

	var flags uint32
	if !m.NoBox {
		flags |= gpu.FlagBox
	}
	if !m.NoOrbiter {
		flags |= gpu.FlagOrbiter
	}
	rm.SetFlags(flags)

	if viewport, ok := Resource[Viewport](app); ok {
		rm.Resize(viewport.Width, viewport.Height)
		viewport.OnResize(rm.Resize)
	}
	if lights, ok := Resource[SceneLights](app); ok {
		rm.SyncLights(lights)
		lights.OnUpdate(rm.SyncLights)
	}
	cmd.AddResources(rm)
}
