package marcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewport_Resize(t *testing.T) {
	v := &Viewport{Width: 1280, Height: 720}
	var got [][2]int
	v.OnResize(func(w, h int) { got = append(got, [2]int{w, h}) })

	v.Resize(800, 600)
	v.Resize(800, 600)
	v.Resize(0, 0)

	assert.Equal(t, [][2]int{{800, 600}}, got)
	assert.InDelta(t, 800.0/600.0, v.AspectRatio(), 1e-6)
}

func TestViewport_AspectOfEmpty(t *testing.T) {
	var v Viewport
	assert.Equal(t, float32(1), v.AspectRatio())
}

func TestViewport_Visible(t *testing.T) {
	var v Viewport
	calls := 0
	v.OnVisible(func() { calls++ })
	v.becameVisible()
	v.becameVisible()
	if calls != 2 {
		t.Errorf("visible callbacks ran %d times, want 2", calls)
	}
}
