package sdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	skewF3   = 0.3333333
	unskewG3 = 0.1666667
)

func fract(x float32) float32 {
	return x - math32.Floor(x)
}

func step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

// Random3 is a discontinuous hash of c into [-0.5, 0.5]^3.
func Random3(c mgl32.Vec3) mgl32.Vec3 {
	j := 4096 * math32.Sin(c.Dot(mgl32.Vec3{17, 59.4, 15}))
	var r mgl32.Vec3
	r[2] = fract(512 * j)
	j *= .125
	r[0] = fract(512 * j)
	j *= .125
	r[1] = fract(512 * j)
	return r.Sub(mgl32.Vec3{0.5, 0.5, 0.5})
}

// Simplex3D is 3D simplex noise, roughly in [-1, 1].
func Simplex3D(p mgl32.Vec3) float32 {
	skew := p.Dot(mgl32.Vec3{skewF3, skewF3, skewF3})
	s := mgl32.Vec3{math32.Floor(p[0] + skew), math32.Floor(p[1] + skew), math32.Floor(p[2] + skew)}
	unskew := s.Dot(mgl32.Vec3{unskewG3, unskewG3, unskewG3})
	x := p.Sub(s).Add(mgl32.Vec3{unskew, unskew, unskew})

	var e, i1, i2 mgl32.Vec3
	for i := 0; i < 3; i++ {
		e[i] = step(0, x[i]-x[(i+1)%3])
	}
	for i := 0; i < 3; i++ {
		ezxy := e[(i+2)%3]
		i1[i] = e[i] * (1 - ezxy)
		i2[i] = 1 - ezxy*(1-e[i])
	}

	g := mgl32.Vec3{unskewG3, unskewG3, unskewG3}
	x1 := x.Sub(i1).Add(g)
	x2 := x.Sub(i2).Add(g.Mul(2))
	x3 := x.Sub(mgl32.Vec3{1, 1, 1}).Add(g.Mul(3))

	corners := [4]mgl32.Vec3{s, s.Add(i1), s.Add(i2), s.Add(mgl32.Vec3{1, 1, 1})}
	offsets := [4]mgl32.Vec3{x, x1, x2, x3}

	var sum float32
	for k := 0; k < 4; k++ {
		w := math32.Max(0.6-offsets[k].Dot(offsets[k]), 0)
		w *= w
		w *= w
		sum += Random3(corners[k]).Dot(offsets[k]) * w
	}
	return sum * 52
}
