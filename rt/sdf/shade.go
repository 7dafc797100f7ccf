package sdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type DirectionalLight struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

type AmbientLight struct {
	Color     mgl32.Vec3
	Intensity float32
}

type Lights struct {
	Directional []DirectionalLight
	Ambient     []AmbientLight
}

// EnvMap samples a sphere-mapped environment texture at uv in [0,1]^2.
type EnvMap interface {
	Sample(u, v float32) mgl32.Vec4
}

// DirectionalColor is diffuse plus specular for every directional light.
func DirectionalColor(lights []DirectionalLight, surf Surface, point, normal mgl32.Vec3) mgl32.Vec3 {
	var c mgl32.Vec3
	for _, l := range lights {
		toLight := normalize(l.Position.Sub(point), mgl32.Vec3{})
		ndl := toLight.Dot(normal)
		c = c.Add(l.Color.Mul(l.Intensity * clamp(ndl, 0, 1)))
		c = c.Add(l.Color.Mul(math32.Pow(math32.Max(ndl, 0), surf.Shininess)))
	}
	return c
}

func AmbientColor(lights []AmbientLight) mgl32.Vec3 {
	var c mgl32.Vec3
	for _, l := range lights {
		c = c.Add(l.Color.Mul(l.Intensity))
	}
	return c
}

// EnvMapUV reflects rd about n and projects the reflection onto sphere-map
// coordinates.
func EnvMapUV(rd, n mgl32.Vec3) (u, v float32) {
	r := rd.Sub(n.Mul(2 * n.Dot(rd)))
	m := 2 * math32.Sqrt(r[0]*r[0]+r[1]*r[1]+(r[2]+1)*(r[2]+1))
	if m == 0 {
		return 0.5, 0.5
	}
	return r[0]/m + 0.5, r[1]/m + 0.5
}

func fit(x, fromMin, fromMax, toMin, toMax float32) float32 {
	return (toMax-toMin)*(x-fromMin)/(fromMax-fromMin) + toMin
}

func easeInExpo(x float32) float32 {
	return 1 - math32.Pow(2, -10*x)
}

// Shade lights a hit. The alpha fades out where the final surface meets the
// sticky layer and on grazing angles. A nil env map reflects black.
func (s *Scene) Shade(r Ray, hit Result, lights Lights, env EnvMap) mgl32.Vec4 {
	if !hit.Hit {
		return mgl32.Vec4{}
	}
	st := &s.Settings
	surf := hit.Surfaces[Final]
	n := hit.Normal

	light := DirectionalColor(lights.Directional, surf, hit.Position, n).Add(AmbientColor(lights.Ambient))

	rd := normalize(r.StickyPosition().Sub(r.Origin), r.Direction)
	var envColor mgl32.Vec4
	if env != nil {
		envColor = env.Sample(EnvMapUV(rd, n))
	}

	fresnel := clamp(n.Dot(rd), 0, 1)
	brightness := clamp(math32.Pow(1-fresnel, 4), 0, 1)

	realDistance := hit.Surfaces[Real].Distance
	edge := fit(math32.Abs(surf.Distance-realDistance-st.ContactEdgeOffset), st.ContactEdgeMin, st.ContactEdgeMax, 0, 1)
	alpha := clamp(easeInExpo(clamp(edge, 0, 1))-fresnel*fresnel/2, 0, 1)

	light = light.Add(mgl32.Vec3{brightness, brightness, brightness})
	reflection := math32.Pow(1-fresnel, 3)
	base := surf.Diffuse
	reflected := mgl32.Vec3{base[0] * envColor[0], base[1] * envColor[1], base[2] * envColor[2]}
	out := mixVec3(base, reflected, reflection)
	out = mgl32.Vec3{out[0] * light[0], out[1] * light[1], out[2] * light[2]}

	return out.Vec4(alpha)
}

func filmic(c float32) float32 {
	c = math32.Max(0, c-0.004)
	return (c * (6.2*c + .5)) / (c*(6.2*c+1.7) + 0.06)
}

func ToneMap(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{filmic(c[0]), filmic(c[1]), filmic(c[2])}
}

func encodeSRGB(x float32) float32 {
	if x < 0.0031308 {
		return 12.92 * x
	}
	return 1.055*math32.Pow(x, 1.0/2.4) - 0.055
}

func EncodeSRGB(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{encodeSRGB(c[0]), encodeSRGB(c[1]), encodeSRGB(c[2])}
}

const gamma = 2.2

// Composite tone maps, gamma corrects and sRGB encodes the marched color,
// then lays it over the rasterized diffuse color by its alpha.
func Composite(diffuse mgl32.Vec3, marched mgl32.Vec4) mgl32.Vec3 {
	c := ToneMap(marched.Vec3())
	for i := range c {
		c[i] = math32.Pow(c[i], 1/gamma)
	}
	c = EncodeSRGB(c)
	return mixVec3(diffuse, c, marched[3])
}

// Pixel marches r and composites the result over diffuse.
func (s *Scene) Pixel(r Ray, diffuse mgl32.Vec3, lights Lights, env EnvMap) mgl32.Vec3 {
	return Composite(diffuse, s.Shade(r, s.March(r), lights, env))
}
