package marcher

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// EnvMap is a decoded equirectangular environment image.
type EnvMap struct {
	Path    string
	Image   *image.RGBA
	Version uint64
}

// Sample returns the nearest texel at (u, v) with v growing upward, in
// [0,1] per channel. Coordinates wrap.
func (e *EnvMap) Sample(u, v float32) mgl32.Vec4 {
	b := e.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return mgl32.Vec4{}
	}
	u -= math32.Floor(u)
	v -= math32.Floor(v)
	x := min(int(u*float32(w)), w-1)
	y := min(int((1-v)*float32(h)), h-1)
	c := e.Image.RGBAAt(b.Min.X+x, b.Min.Y+y)
	return mgl32.Vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// EnvMapLoader decodes environment maps off the frame loop. The newest
// successful load is published atomically; failures keep the previous map.
type EnvMapLoader struct {
	pool    worker.DynamicWorkerPool
	current atomic.Pointer[EnvMap]
	version atomic.Uint64
	taskID  atomic.Int64
	wg      sync.WaitGroup
	logger  Logger
}

func NewEnvMapLoader(workers int, logger Logger) *EnvMapLoader {
	if logger == nil {
		logger = NewNopLogger()
	}
	if workers <= 0 {
		workers = 1
	}
	return &EnvMapLoader{
		pool:   worker.NewDynamicWorkerPool(workers, 16, 1*time.Second),
		logger: logger,
	}
}

// Load queues path for decoding and returns immediately.
func (l *EnvMapLoader) Load(path string) {
	l.wg.Add(1)
	l.pool.SubmitTask(worker.Task{
		ID: int(l.taskID.Add(1)),
		Do: func() (any, error) {
			defer l.wg.Done()

			start := time.Now()
			img, err := DecodeImage(path)
			if err != nil {
				l.logger.Errorf("envmap: %v", err)
				return nil, err
			}
			env := &EnvMap{Path: path, Image: img, Version: l.version.Add(1)}
			l.current.Store(env)
			l.logger.Infof("envmap: loaded %s %dx%d in %v", path, img.Bounds().Dx(), img.Bounds().Dy(), time.Since(start))
			return env, nil
		},
	})
}

// Wait blocks until every queued load has finished.
func (l *EnvMapLoader) Wait() {
	l.wg.Wait()
}

// Current is the latest loaded map, nil until one succeeds.
func (l *EnvMapLoader) Current() *EnvMap {
	return l.current.Load()
}

type EnvMapModule struct {
	Path    string
	Workers int
}

func (m EnvMapModule) Install(app *App, cmd *Commands) {
	loader := NewEnvMapLoader(m.Workers, app.Logger())
	cmd.AddResources(loader)
	if m.Path != "" {
		loader.Load(m.Path)
	}
}
