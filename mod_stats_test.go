package marcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_AveragesOverOneSecond(t *testing.T) {
	s := &Stats{Visible: true}
	for i := 0; i < 49; i++ {
		s.Record(20)
	}
	assert.Zero(t, s.FPS)

	s.Record(20)
	assert.Equal(t, float64(50), s.FPS)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "50 FPS", items[0].Text)

	s.Visible = false
	assert.Empty(t, s.Items())
}

func TestTextOverlay_BuildVertices(t *testing.T) {
	overlay, err := NewTextOverlay(14)
	require.NoError(t, err)
	require.Contains(t, overlay.Glyphs, 'F')
	require.Contains(t, overlay.Glyphs, '9')

	verts := overlay.BuildVertices([]TextItem{{Text: "FPS", Position: [2]float32{8, 8}, Scale: 1, Color: [4]float32{1, 1, 1, 1}}}, 640, 480)
	require.Len(t, verts, 18)

	for _, v := range verts {
		assert.GreaterOrEqual(t, v.Position[0], float32(-1))
		assert.LessOrEqual(t, v.Position[1], float32(1))
		assert.Equal(t, [4]float32{1, 1, 1, 1}, v.Color)
	}
	// glyphs advance to the right
	assert.Greater(t, verts[6].Position[0], verts[0].Position[0])

	assert.Empty(t, overlay.BuildVertices([]TextItem{{Text: "x"}}, 0, 0))
}
