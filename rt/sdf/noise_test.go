package sdf

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestRandom3_Range(t *testing.T) {
	for x := float32(-20); x <= 20; x += 1.5 {
		for y := float32(-20); y <= 20; y += 2.5 {
			r := Random3(mgl32.Vec3{x, y, x - y})
			for i, v := range r {
				if v < -0.5 || v > 0.5 {
					t.Fatalf("random3(%v, %v)[%d] = %v out of range", x, y, i, v)
				}
			}
		}
	}
}

func TestSimplex3D_BoundedAndContinuous(t *testing.T) {
	const step = 1e-3
	for x := float32(-8); x <= 8; x += 0.37 {
		for y := float32(-8); y <= 8; y += 0.53 {
			p := mgl32.Vec3{x, y, 0.5 * x}
			n := Simplex3D(p)
			if math32.Abs(n) > 1.5 {
				t.Fatalf("simplex(%v) = %v out of range", p, n)
			}
			if n != Simplex3D(p) {
				t.Fatalf("simplex(%v) not deterministic", p)
			}
			if d := math32.Abs(n - Simplex3D(p.Add(mgl32.Vec3{step, 0, 0}))); d > 0.05 {
				t.Fatalf("simplex jumps by %v near %v", d, p)
			}
		}
	}
}
