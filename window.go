package marcher

// Viewport is the drawable size of the window. Consumers that own
// size-dependent resources register a resize callback.
type Viewport struct {
	Width  int
	Height int

	resizeFns  []func(width, height int)
	visibleFns []func()
}

func (v *Viewport) AspectRatio() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

func (v *Viewport) OnResize(fn func(width, height int)) {
	v.resizeFns = append(v.resizeFns, fn)
}

// Resize records the new size and notifies callbacks in registration
// order. Zero sizes (a minimized window) are ignored.
func (v *Viewport) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == v.Width && height == v.Height {
		return
	}
	v.Width, v.Height = width, height
	for _, fn := range v.resizeFns {
		fn(width, height)
	}
}

// OnVisible registers fn to run whenever the window comes back after being
// hidden or unfocused.
func (v *Viewport) OnVisible(fn func()) {
	v.visibleFns = append(v.visibleFns, fn)
}

func (v *Viewport) becameVisible() {
	for _, fn := range v.visibleFns {
		fn()
	}
}
