package marcher

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/marcher/rt/gpu"
)

// GpuState is the device presenting to the window surface.
type GpuState struct {
	*gpu.Context
}

func createGpuState(s *WindowState) (*GpuState, error) {
	width, height := s.FramebufferSize()
	ctx, err := gpu.NewContext(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw), width, height)
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	return &GpuState{Context: ctx}, nil
}

type meshBuffers struct {
	vertex  *wgpu.Buffer
	index   *wgpu.Buffer
	count   uint32
	version uint
}

func (b *meshBuffers) Release() {
	b.vertex.Release()
	b.index.Release()
}

func createMeshBuffers(mesh *Mesh, device *wgpu.Device) (*meshBuffers, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("mesh %s is empty", mesh.Id)
	}
	vertexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Vertex Buffer",
		Contents: wgpu.ToBytes(mesh.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}
	indexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Index Buffer",
		Contents: wgpu.ToBytes(mesh.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuf.Release()
		return nil, fmt.Errorf("index buffer: %w", err)
	}
	return &meshBuffers{
		vertex:  vertexBuf,
		index:   indexBuf,
		count:   uint32(len(mesh.Indices)),
		version: mesh.Version,
	}, nil
}

// createTexture uploads tightly packed pixels of the given bytes per pixel.
func createTexture(gs *GpuState, label string, format wgpu.TextureFormat, width, height, bpp uint32, pix []byte) (*wgpu.Texture, *wgpu.TextureView, error) {
	extent := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	texture, err := gs.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s texture: %w", label, err)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, fmt.Errorf("%s view: %w", label, err)
	}

	err = gs.Queue.WriteTexture(
		texture.AsImageCopy(),
		pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * bpp,
			RowsPerImage: height,
		},
		&extent,
	)
	if err != nil {
		view.Release()
		texture.Release()
		return nil, nil, fmt.Errorf("%s upload: %w", label, err)
	}
	return texture, view, nil
}

func createRGBATexture(gs *GpuState, label string, img *image.RGBA) (*wgpu.Texture, *wgpu.TextureView, error) {
	b := img.Bounds()
	pix := img.Pix
	if img.Stride != b.Dx()*4 {
		pix = make([]byte, 0, b.Dx()*b.Dy()*4)
		for y := 0; y < b.Dy(); y++ {
			row := img.Pix[y*img.Stride:]
			pix = append(pix, row[:b.Dx()*4]...)
		}
	}
	return createTexture(gs, label, wgpu.TextureFormatRGBA8Unorm, uint32(b.Dx()), uint32(b.Dy()), 4, pix)
}

func createAlphaTexture(gs *GpuState, label string, img *image.Alpha) (*wgpu.Texture, *wgpu.TextureView, error) {
	b := img.Bounds()
	return createTexture(gs, label, wgpu.TextureFormatR8Unorm, uint32(b.Dx()), uint32(b.Dy()), 1, img.Pix)
}
