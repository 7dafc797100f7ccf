package marcher

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Key int

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyShiftLeft
	KeyShiftRight
	keyCount
)

var keyNames = [keyCount]string{"KeyW", "KeyA", "KeyS", "KeyD", "Space", "ShiftLeft", "ShiftRight"}

func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return "Unknown"
	}
	return keyNames[k]
}

var glfwToKey = map[glfw.Key]Key{
	glfw.KeyW:          KeyW,
	glfw.KeyA:          KeyA,
	glfw.KeyS:          KeyS,
	glfw.KeyD:          KeyD,
	glfw.KeySpace:      KeySpace,
	glfw.KeyLeftShift:  KeyShiftLeft,
	glfw.KeyRightShift: KeyShiftRight,
}

// Zoom limits and wheel step shared by input and the zoom controller.
const (
	MinZoomLevel    = 0.001
	MaxZoomLevel    = 50
	ScrollLevelStep = 1.5
)

type MouseState struct {
	LeftButton  bool
	RightButton bool
	// DeltaX, DeltaY are the pointer movement since the last Update.
	DeltaX, DeltaY float32
	// WheelZoom is the requested zoom level, stepped by the wheel.
	WheelZoom float32
}

type keyState struct {
	down bool
	// passed is set once the key survived one Update while down.
	passed bool
}

// InputController tracks the keys the character reads. A press always
// lasts at least one Update, even when released in the same frame. Every
// event is ignored while the pointer is not locked.
type InputController struct {
	Mouse MouseState

	keys          [keyCount]keyState
	nextUp        [keyCount]bool
	pointerLocked bool
	clickFns      []func()

	cursorX, cursorY float64
	haveCursor       bool
}

func (in *InputController) PointerLocked() bool {
	return in.pointerLocked
}

// SetPointerLocked changes the lock state. Unlocking keeps the key states.
func (in *InputController) SetPointerLocked(locked bool) {
	in.pointerLocked = locked
	in.haveCursor = false
}

func (in *InputController) KeyDown(k Key) {
	if !in.pointerLocked || k < 0 || k >= keyCount {
		return
	}
	in.keys[k].down = true
	in.keys[k].passed = false
}

func (in *InputController) KeyUp(k Key) {
	if !in.pointerLocked || k < 0 || k >= keyCount {
		return
	}
	passed := in.keys[k].passed
	if passed {
		in.keys[k].down = false
		in.keys[k].passed = false
	}
	in.nextUp[k] = !passed
}

func (in *InputController) HasKey(k Key) bool {
	if !in.pointerLocked || k < 0 || k >= keyCount {
		return false
	}
	return in.keys[k].down
}

func (in *InputController) HasAnyKey(keys ...Key) bool {
	for _, k := range keys {
		if in.HasKey(k) {
			return true
		}
	}
	return false
}

// MouseMove accumulates pointer movement until the next Update.
func (in *InputController) MouseMove(dx, dy float32) {
	if !in.pointerLocked {
		return
	}
	in.Mouse.DeltaX += dx
	in.Mouse.DeltaY += dy
}

func (in *InputController) MouseButton(button glfw.MouseButton, pressed bool) {
	if !in.pointerLocked {
		return
	}
	switch button {
	case glfw.MouseButtonLeft:
		in.Mouse.LeftButton = pressed
	case glfw.MouseButtonRight:
		in.Mouse.RightButton = pressed
	}
}

// Wheel steps the zoom level. A negative deltaY zooms in.
func (in *InputController) Wheel(deltaY float32) {
	if !in.pointerLocked {
		return
	}
	switch {
	case deltaY < 0:
		in.Mouse.WheelZoom = max(in.Mouse.WheelZoom-ScrollLevelStep, MinZoomLevel)
	case deltaY > 0:
		in.Mouse.WheelZoom = min(in.Mouse.WheelZoom+ScrollLevelStep, MaxZoomLevel)
	}
}

// OnClick registers fn for left clicks. Callbacks run before the click
// acquires the pointer lock.
func (in *InputController) OnClick(fn func()) {
	in.clickFns = append(in.clickFns, fn)
}

func (in *InputController) click() {
	for _, fn := range in.clickFns {
		fn()
	}
}

// Update ends the input frame: mouse deltas are zeroed and releases that
// arrived before their press was observed take effect now.
func (in *InputController) Update() {
	in.Mouse.DeltaX = 0
	in.Mouse.DeltaY = 0

	for k := range in.keys {
		if in.keys[k].down {
			in.keys[k].passed = true
		}
	}
	for k, up := range in.nextUp {
		if up {
			in.KeyUp(Key(k))
		}
	}
}

// Attach routes the window's callbacks into the controller. A left click
// locks the pointer; Escape releases it.
func (in *InputController) Attach(win *glfw.Window) {
	if glfw.RawMouseMotionSupported() {
		win.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}

	setLocked := func(locked bool) {
		in.SetPointerLocked(locked)
		if locked {
			win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else {
			win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			setLocked(false)
			return
		}
		k, ok := glfwToKey[key]
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			in.KeyDown(k)
		case glfw.Release:
			in.KeyUp(k)
		}
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if in.haveCursor {
			in.MouseMove(float32(x-in.cursorX), float32(y-in.cursorY))
		}
		in.cursorX, in.cursorY = x, y
		in.haveCursor = in.pointerLocked
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft && action == glfw.Press {
			in.click()
			if !in.pointerLocked {
				setLocked(true)
			}
		}
		in.MouseButton(button, action == glfw.Press)
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		in.Wheel(float32(-yoff))
	})
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	input := &InputController{}
	if ws, ok := Resource[WindowState](app); ok {
		input.Attach(ws.Window())
	} else {
		app.Logger().Warnf("input: no window, events are not attached")
	}
	cmd.AddResources(input)
}
