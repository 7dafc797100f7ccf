package marcher

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowState owns the single GLFW window. Rendering and input both attach
// to it.
type WindowState struct {
	windowGlfw  *glfw.Window
	windowTitle string
}

func (s *WindowState) Window() *glfw.Window {
	return s.windowGlfw
}

// FramebufferSize is the drawable size in pixels.
func (s *WindowState) FramebufferSize() (int, int) {
	return s.windowGlfw.GetFramebufferSize()
}

func (s *WindowState) SetTitle(title string) {
	s.windowTitle = title
	s.windowGlfw.SetTitle(title)
}

func createWindowState(width, height int, title string) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	return &WindowState{
		windowGlfw:  win,
		windowTitle: title,
	}, nil
}

func (s *WindowState) release() {
	s.windowGlfw.Destroy()
	glfw.Terminate()
}

// bindViewport forwards framebuffer resizes and visibility changes.
func (s *WindowState) bindViewport(v *Viewport) {
	v.Width, v.Height = s.FramebufferSize()

	s.windowGlfw.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		v.Resize(width, height)
	})
	s.windowGlfw.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if focused {
			v.becameVisible()
		}
	})
	s.windowGlfw.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		if !iconified {
			v.becameVisible()
		}
	})
}

// PlatformWindowModule creates the WindowState and Viewport resources.
// Install is idempotent.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "marcher"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title)
	if err != nil {
		panic(err)
	}
	viewport := &Viewport{}
	ws.bindViewport(viewport)

	app.addResources(ws, viewport)
	app.OnShutdown(ws.release)
	app.UseSystem(
		System(windowEventsSystem).
			InStage(Prelude).
			RunAlways(),
	)
	app.Logger().Infof("window %q %dx%d", m.Title, viewport.Width, viewport.Height)
}

func windowEventsSystem(cmd *Commands, s *WindowState) {
	glfw.PollEvents()
	if s.windowGlfw.ShouldClose() && cmd.App().stateful {
		cmd.ChangeState(StateShutdown)
	}
}
