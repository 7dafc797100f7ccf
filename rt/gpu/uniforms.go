package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/marcher/rt/sdf"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	MaxSpheres = 24
	MaxLights  = 10
)

// Byte sizes of the uniform blocks, matching the WGSL structs.
const (
	SphereSize           = 48
	DirectionalLightSize = 48
	AmbientLightSize     = 16
	LightsSize           = MaxLights*DirectionalLightSize + MaxLights*AmbientLightSize + 16
	MarchSize            = 1280

	spheresOffset = 112
)

// Scene flags stored in the last word of the march block.
const (
	FlagBox uint32 = 1 << iota
	FlagOrbiter
)

// MarchUniforms is the per-frame state of the ray-march pass.
type MarchUniforms struct {
	CameraPosition    mgl32.Vec3
	CameraQuaternion  mgl32.Quat
	CameraDirection   mgl32.Vec3
	CameraNear        float32
	CameraFar         float32
	CameraNearSize    mgl32.Vec2
	CameraFarSize     mgl32.Vec2
	CameraAspectRatio float32
	Resolution        mgl32.Vec2
	Time              float32

	Settings     sdf.Settings
	Spheres      [MaxSpheres]sdf.Sphere
	SpheresCount int32
	Flags        uint32
}

// LightUniforms mirrors uDirectionalLights, uAmbientLights and their counts.
type LightUniforms struct {
	Directional    [MaxLights]sdf.DirectionalLight
	Ambient        [MaxLights]sdf.AmbientLight
	NumDirectional int32
	NumAmbient     int32
}

// SetLights copies the active lights; extra entries are dropped.
func (u *LightUniforms) SetLights(l sdf.Lights) {
	u.NumDirectional = int32(copy(u.Directional[:], l.Directional))
	u.NumAmbient = int32(copy(u.Ambient[:], l.Ambient))
}

type writer []byte

func (w writer) f32(off int, v float32) {
	binary.LittleEndian.PutUint32(w[off:], math.Float32bits(v))
}

func (w writer) i32(off int, v int32) {
	binary.LittleEndian.PutUint32(w[off:], uint32(v))
}

func (w writer) u32(off int, v uint32) {
	binary.LittleEndian.PutUint32(w[off:], v)
}

func (w writer) vec2(off int, v mgl32.Vec2) {
	w.f32(off, v[0])
	w.f32(off+4, v[1])
}

func (w writer) vec3(off int, v mgl32.Vec3) {
	w.f32(off, v[0])
	w.f32(off+4, v[1])
	w.f32(off+8, v[2])
}

// quat writes xyzw.
func (w writer) quat(off int, q mgl32.Quat) {
	w.vec3(off, q.V)
	w.f32(off+12, q.W)
}

func (w writer) sphere(off int, s *sdf.Sphere) {
	w.vec3(off, s.Position)
	w.quat(off+16, s.Quaternion)
	w.vec3(off+32, s.Color)
	w.f32(off+44, s.Radius)
}

// Bytes packs the block in std140-like WGSL uniform layout.
func (u *MarchUniforms) Bytes() []byte {
	w := make(writer, MarchSize)

	w.vec3(0, u.CameraPosition)
	w.f32(12, u.CameraNear)
	w.quat(16, u.CameraQuaternion)
	w.vec3(32, u.CameraDirection)
	w.f32(44, u.CameraFar)
	w.vec2(48, u.CameraNearSize)
	w.vec2(56, u.CameraFarSize)
	w.vec2(64, u.Resolution)
	w.f32(72, u.CameraAspectRatio)
	w.f32(76, u.Time)

	st := &u.Settings
	w.f32(80, st.HitThreshold)
	w.f32(84, st.MaxMarchDistance)
	w.f32(88, st.ExternalDistanceCutDiff)
	w.f32(92, st.SmoothUnion)
	w.f32(96, st.ContactEdgeOffset)
	w.f32(100, st.ContactEdgeMin)
	w.f32(104, st.ContactEdgeMax)
	w.i32(108, u.SpheresCount)

	for i := range u.Spheres {
		w.sphere(spheresOffset+i*SphereSize, &u.Spheres[i])
	}

	tail := spheresOffset + MaxSpheres*SphereSize
	w.f32(tail, st.EpsilonGrowth)
	w.f32(tail+4, st.Overshoot)
	w.i32(tail+8, int32(st.MaxSteps))
	w.u32(tail+12, u.Flags)
	return w
}

func (u *LightUniforms) Bytes() []byte {
	w := make(writer, LightsSize)
	for i, l := range u.Directional {
		off := i * DirectionalLightSize
		w.vec3(off, l.Position)
		w.vec3(off+16, l.Direction)
		w.vec3(off+32, l.Color)
		w.f32(off+44, l.Intensity)
	}
	base := MaxLights * DirectionalLightSize
	for i, l := range u.Ambient {
		off := base + i*AmbientLightSize
		w.vec3(off, l.Color)
		w.f32(off+12, l.Intensity)
	}
	counts := base + MaxLights*AmbientLightSize
	w.i32(counts, u.NumDirectional)
	w.i32(counts+4, u.NumAmbient)
	return w
}

const (
	RasterCameraSize = 96
	DrawSize         = 80
	BlendParamsSize  = 16
)

// RasterCamera lights the rasterized layers with one directional light.
type RasterCamera struct {
	ViewProj       mgl32.Mat4
	LightDirection mgl32.Vec3
	LightIntensity float32
	Ambient        mgl32.Vec3
}

func (u *RasterCamera) Bytes() []byte {
	w := make(writer, RasterCameraSize)
	w.mat4(0, u.ViewProj)
	w.vec3(64, u.LightDirection)
	w.f32(76, u.LightIntensity)
	w.vec3(80, u.Ambient)
	return w
}

// Draw is the per-object block of the raster pass.
type Draw struct {
	Model mgl32.Mat4
	Color mgl32.Vec4
}

func (u *Draw) Bytes() []byte {
	w := make(writer, DrawSize)
	w.mat4(0, u.Model)
	w.vec3(64, u.Color.Vec3())
	w.f32(76, u.Color[3])
	return w
}

type BlendParams struct {
	MixRatio float32
	Opacity  float32
}

func (u *BlendParams) Bytes() []byte {
	w := make(writer, BlendParamsSize)
	w.f32(0, u.MixRatio)
	w.f32(4, u.Opacity)
	return w
}

// mat4 writes column major, as mgl32 stores it.
func (w writer) mat4(off int, m mgl32.Mat4) {
	for i, v := range m {
		w.f32(off+i*4, v)
	}
}
