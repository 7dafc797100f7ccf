package sdf

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSmin_FarApartIsPlainMin(t *testing.T) {
	assert.Equal(t, Blend{Distance: 1, Material: 0}, Smin(1, 10, 3))
	assert.Equal(t, Blend{Distance: 1, Material: 1}, Smin(10, 1, 3))
}

func TestSmin_EqualDistancesBlendHalfway(t *testing.T) {
	b := Smin(2, 2, 4)
	assert.InDelta(t, 1.0, b.Distance, 1e-6)
	assert.InDelta(t, 0.5, b.Material, 1e-6)
}

func TestSmin_NeverAboveMin(t *testing.T) {
	for a := float32(-5); a <= 5; a += 0.25 {
		for b := float32(-5); b <= 5; b += 0.25 {
			for _, k := range []float32{0, 0.5, 3, 6} {
				blend := Smin(a, b, k)
				if blend.Distance > math32.Min(a, b) {
					t.Errorf("smin(%v, %v, %v) = %v is above min", a, b, k, blend.Distance)
				}
				if blend.Material < 0 || blend.Material > 1 {
					t.Errorf("smin(%v, %v, %v) material %v out of range", a, b, k, blend.Material)
				}
			}
		}
	}
}

func TestSminSurface_TakesNearerMaterialWhenApart(t *testing.T) {
	red := Surface{Diffuse: mgl32.Vec3{1, 0, 0}, Specular: mgl32.Vec3{1, 1, 1}, Shininess: 10, Distance: 0}
	blue := Surface{Diffuse: mgl32.Vec3{0, 0, 1}, Specular: mgl32.Vec3{1, 1, 1}, Shininess: 100, Distance: 10}

	got := SminSurface(red, blue, 3)
	assert.Equal(t, red.Diffuse, got.Diffuse)
	assert.Equal(t, red.Shininess, got.Shininess)
	assert.Equal(t, float32(0), got.Distance)

	got = SminSurface(blue, red, 3)
	assert.Equal(t, red.Diffuse, got.Diffuse)
}

func TestSminSurface_MixesMaterialsWhenClose(t *testing.T) {
	red := Surface{Diffuse: mgl32.Vec3{1, 0, 0}, Shininess: 10, Distance: 1}
	blue := Surface{Diffuse: mgl32.Vec3{0, 0, 1}, Shininess: 100, Distance: 1}

	got := SminSurface(red, blue, 4)
	assert.InDelta(t, 0.5, got.Diffuse[0], 1e-6)
	assert.InDelta(t, 0.5, got.Diffuse[2], 1e-6)
	assert.InDelta(t, 55, got.Shininess, 1e-4)
}

func TestPrimitives(t *testing.T) {
	assert.Equal(t, float32(-2), SphereDistance(mgl32.Vec3{}, 2))
	assert.InDelta(t, 3, SphereDistance(mgl32.Vec3{0, 5, 0}, 2), 1e-6)

	half := mgl32.Vec3{4, 4, 4}
	assert.Equal(t, float32(-4), BoxDistance(mgl32.Vec3{}, half))
	assert.InDelta(t, 2, BoxDistance(mgl32.Vec3{6, 0, 0}, half), 1e-6)
	assert.InDelta(t, math32.Sqrt(2), BoxDistance(mgl32.Vec3{5, 5, 0}, half), 1e-5)

	assert.Equal(t, float32(3), Subtract(3, 1))
	assert.Equal(t, float32(1), Subtract(-2, -1))
}
