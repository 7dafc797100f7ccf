package marcher

import (
	"github.com/gekko3d/marcher/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

type boxFace struct {
	normal mgl32.Vec3
	u, v   mgl32.Vec3
}

var boxFaces = [6]boxFace{
	{normal: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
	{normal: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
	{normal: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
}

// BoxGeometry returns a box of the given size centred on the origin, four
// vertices per face so every face keeps a flat normal. Faces wind
// counter-clockwise seen from outside.
func BoxGeometry(size mgl32.Vec3) ([]gpu.Vertex, []uint32) {
	half := size.Mul(0.5)
	vertices := make([]gpu.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)

	for _, f := range boxFaces {
		center := mul(f.normal, half)
		du := mul(f.u, half)
		dv := mul(f.v, half)
		base := uint32(len(vertices))
		for _, corner := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := center.Add(du.Mul(corner[0])).Add(dv.Mul(corner[1]))
			vertices = append(vertices, gpu.Vertex{Position: p, Normal: f.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

func mul(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func (server *AssetServer) CreateBoxMesh(size mgl32.Vec3) *Mesh {
	return server.CreateMesh(BoxGeometry(size))
}
