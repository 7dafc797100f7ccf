package marcher

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/marcher/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// Mesh is indexed triangle geometry in object space.
type Mesh struct {
	Id       AssetId
	Vertices []gpu.Vertex
	Indices  []uint32
	// Version changes whenever the geometry does.
	Version uint
}

// Positions returns the vertex positions, the form colliders take.
func (m *Mesh) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position
	}
	return out
}

// Material is the raster look of a mesh. DepthWrite false keeps the mesh
// out of the depth buffer it is drawn into.
type Material struct {
	Id         AssetId
	Color      mgl32.Vec4
	DepthWrite bool
}

type AssetServer struct {
	meshes    map[AssetId]*Mesh
	materials map[AssetId]*Material
	logger    Logger
}

func NewAssetServer(logger Logger) *AssetServer {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &AssetServer{
		meshes:    make(map[AssetId]*Mesh),
		materials: make(map[AssetId]*Material),
		logger:    logger,
	}
}

func (server *AssetServer) CreateMesh(vertices []gpu.Vertex, indices []uint32) *Mesh {
	m := &Mesh{Id: makeAssetId(), Vertices: vertices, Indices: indices}
	server.meshes[m.Id] = m
	return m
}

func (server *AssetServer) CreateMaterial(color mgl32.Vec4) *Material {
	m := &Material{Id: makeAssetId(), Color: color, DepthWrite: true}
	server.materials[m.Id] = m
	return m
}

func (server *AssetServer) Mesh(id AssetId) (*Mesh, bool) {
	m, ok := server.meshes[id]
	return m, ok
}

func (server *AssetServer) Material(id AssetId) (*Material, bool) {
	m, ok := server.materials[id]
	return m, ok
}

// MaxTextureWidth bounds the width of loaded textures.
const MaxTextureWidth = 2048

type imageDecoder func(io.Reader) (image.Image, error)

var imageDecoders = map[string]imageDecoder{
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".webp": webp.Decode,
}

// ErrUnsupportedAsset is returned for file types no decoder handles.
type ErrUnsupportedAsset struct {
	Path string
}

func (e *ErrUnsupportedAsset) Error() string {
	return fmt.Sprintf("unsupported file type %q", filepath.Ext(e.Path))
}

// DecodeImage decodes path by its extension into RGBA, resampled down to
// at most MaxTextureWidth pixels wide.
func DecodeImage(path string) (*image.RGBA, error) {
	decode, ok := imageDecoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, &ErrUnsupportedAsset{Path: path}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return FitWidth(img, MaxTextureWidth), nil
}

// FitWidth converts img to RGBA, scaling it down proportionally when it is
// wider than maxWidth.
func FitWidth(img image.Image, maxWidth int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxWidth {
		h = max(h*maxWidth/w, 1)
		w = maxWidth
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		return dst
	}
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// Load dispatches on the file extension. Unsupported types and failures are
// logged and yield nil.
func (server *AssetServer) Load(path string) any {
	img, err := DecodeImage(path)
	if err != nil {
		server.logger.Errorf("loader: %v", err)
		return nil
	}
	return img
}

type AssetServerModule struct{}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetServer(app.Logger()))
}
