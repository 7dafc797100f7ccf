package marcher

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gekko3d/marcher/rt/gpu"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type TextItem struct {
	Text string
	// Position is in pixels from the top left corner.
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

type GlyphInfo struct {
	UVMin [2]float32
	UVMax [2]float32
	Size  [2]float32
	Off   [2]float32
	Adv   float32
}

// TextOverlay rasterizes printable ASCII into a single channel atlas and
// lays out screen space quads over it.
type TextOverlay struct {
	AtlasImage *image.Alpha
	Glyphs     map[rune]GlyphInfo
	Face       font.Face
}

const atlasSize = 256

func NewTextOverlay(fontSize float64) (*TextOverlay, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face: %w", err)
	}

	atlas := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]GlyphInfo)

	x, y := 2, 2
	rowHeight := 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()

		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			break
		}

		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		glyphs[r] = GlyphInfo{
			UVMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			UVMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			Size:  [2]float32{float32(w), float32(h)},
			Off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			Adv:   float32(adv) / 64,
		}

		x += w + 4
		rowHeight = max(rowHeight, h)
	}

	return &TextOverlay{AtlasImage: atlas, Glyphs: glyphs, Face: face}, nil
}

// BuildVertices emits two triangles per glyph in clip space.
func (tr *TextOverlay) BuildVertices(items []TextItem, screenW, screenH int) []gpu.TextVertex {
	vertices := make([]gpu.TextVertex, 0, len(items)*6)
	if screenW <= 0 || screenH <= 0 {
		return vertices
	}

	sw, sh := float32(screenW), float32(screenH)
	metrics := tr.Face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	for _, item := range items {
		startX := item.Position[0]
		posX := startX
		posY := item.Position[1] + ascent*item.Scale

		for _, r := range item.Text {
			if r == '\n' {
				posX = startX
				posY += lineHeight * item.Scale
				continue
			}
			g, ok := tr.Glyphs[r]
			if !ok {
				continue
			}

			x0 := (posX+g.Off[0]*item.Scale)/sw*2 - 1
			y0 := 1 - (posY+g.Off[1]*item.Scale)/sh*2
			x1 := (posX+(g.Off[0]+g.Size[0])*item.Scale)/sw*2 - 1
			y1 := 1 - (posY+(g.Off[1]+g.Size[1])*item.Scale)/sh*2

			topLeft := gpu.TextVertex{Position: [2]float32{x0, y0}, UV: g.UVMin, Color: item.Color}
			topRight := gpu.TextVertex{Position: [2]float32{x1, y0}, UV: [2]float32{g.UVMax[0], g.UVMin[1]}, Color: item.Color}
			bottomLeft := gpu.TextVertex{Position: [2]float32{x0, y1}, UV: [2]float32{g.UVMin[0], g.UVMax[1]}, Color: item.Color}
			bottomRight := gpu.TextVertex{Position: [2]float32{x1, y1}, UV: g.UVMax, Color: item.Color}
			vertices = append(vertices, topLeft, topRight, bottomLeft, topRight, bottomRight, bottomLeft)

			posX += g.Adv * item.Scale
		}
	}
	return vertices
}

// Stats averages the frame rate over windows of one second.
type Stats struct {
	FPS     float64
	Visible bool

	frames  int
	elapsed float64
}

// Record adds one frame that took timeDiff milliseconds.
func (s *Stats) Record(timeDiff float64) {
	s.frames++
	s.elapsed += timeDiff
	if s.elapsed >= 1000 {
		s.FPS = float64(s.frames) * 1000 / s.elapsed
		s.frames = 0
		s.elapsed = 0
	}
}

func (s *Stats) Items() []TextItem {
	if !s.Visible {
		return nil
	}
	return []TextItem{{
		Text:     fmt.Sprintf("%.0f FPS", s.FPS),
		Position: [2]float32{8, 8},
		Scale:    1,
		Color:    [4]float32{0, 1, 1, 1},
	}}
}

type StatsModule struct {
	Hidden bool
}

func (m StatsModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Stats{Visible: !m.Hidden})
	app.UseSystem(
		System(statsSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func statsSystem(tick *TickData, stats *Stats) {
	stats.Record(tick.TimeDiff)
}
