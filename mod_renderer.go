package marcher

import (
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/marcher/rt/gpu"
	"github.com/gekko3d/marcher/rt/sdf"
)

var errNoFrame = errors.New("no frame in progress")

var clearColor = wgpu.Color{R: 0, G: 0, B: 0, A: 1}

type drawSlot struct {
	buf   *wgpu.Buffer
	group *wgpu.BindGroup
}

type drawItem struct {
	mesh     *meshBuffers
	material *Material
	slot     int
}

// Renderer draws the rasterized scene into the depth targets, then blends,
// marches and overlays text onto the swapchain.
type Renderer struct {
	MotionBlur float32

	gpu       *GpuState
	pipelines *gpu.Pipelines

	normal  *gpu.Target
	sticky  *gpu.Target
	blend   *gpu.Target
	history *gpu.Target

	cameraBuf *wgpu.Buffer
	marchBuf  *wgpu.Buffer
	lightsBuf *wgpu.Buffer
	blendBuf  *wgpu.Buffer
	saveBuf   *wgpu.Buffer
	textBuf   *wgpu.Buffer

	cameraGroup       *wgpu.BindGroup
	marchUniformGroup *wgpu.BindGroup
	blendGroup        *wgpu.BindGroup
	saveGroup         *wgpu.BindGroup
	marchTextureGroup *wgpu.BindGroup
	textGroup         *wgpu.BindGroup
	bindingsDirty     bool

	env        *wgpu.Texture
	envView    *wgpu.TextureView
	envVersion uint64

	overlay   *TextOverlay
	atlas     *wgpu.Texture
	atlasView *wgpu.TextureView
	textCount uint32

	meshes map[AssetId]*meshBuffers
	slots  []drawSlot
	draws  []drawItem

	encoder *wgpu.CommandEncoder
	logger  Logger
}

func NewRenderer(gs *GpuState, motionBlur float32, logger Logger) (*Renderer, error) {
	if logger == nil {
		logger = NewNopLogger()
	}
	r := &Renderer{
		MotionBlur: motionBlur,
		gpu:        gs,
		meshes:     make(map[AssetId]*meshBuffers),
		logger:     logger,
	}
	if err := r.init(); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init() error {
	var err error
	device := r.gpu.Device
	if r.pipelines, err = gpu.NewPipelines(device, r.gpu.Format()); err != nil {
		return fmt.Errorf("pipelines: %w", err)
	}

	w, h := r.gpu.Config.Width, r.gpu.Config.Height
	if r.normal, err = gpu.NewTarget(device, "normal", w, h, true); err != nil {
		return err
	}
	if r.sticky, err = gpu.NewTarget(device, "sticky", w, h, true); err != nil {
		return err
	}
	if r.blend, err = gpu.NewTarget(device, "blend", w, h, false); err != nil {
		return err
	}
	if r.history, err = gpu.NewTarget(device, "history", w, h, false); err != nil {
		return err
	}

	uniforms := []struct {
		label string
		buf   **wgpu.Buffer
		size  int
	}{
		{"raster camera", &r.cameraBuf, gpu.RasterCameraSize},
		{"march", &r.marchBuf, gpu.MarchSize},
		{"lights", &r.lightsBuf, gpu.LightsSize},
		{"blend params", &r.blendBuf, gpu.BlendParamsSize},
		{"save params", &r.saveBuf, gpu.BlendParamsSize},
	}
	for _, u := range uniforms {
		if err := r.gpu.WriteBuffer(u.label, u.buf, make([]byte, u.size), wgpu.BufferUsageUniform); err != nil {
			return err
		}
	}

	if r.cameraGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "raster camera",
		Layout: r.pipelines.CameraLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.cameraBuf, Size: gpu.RasterCameraSize},
		},
	}); err != nil {
		return fmt.Errorf("camera bind group: %w", err)
	}
	if r.marchUniformGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "march uniforms",
		Layout: r.pipelines.MarchUniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.marchBuf, Size: gpu.MarchSize},
			{Binding: 1, Buffer: r.lightsBuf, Size: gpu.LightsSize},
		},
	}); err != nil {
		return fmt.Errorf("march bind group: %w", err)
	}

	// black until an environment map arrives
	black := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if r.env, r.envView, err = createRGBATexture(r.gpu, "envmap", black); err != nil {
		return err
	}

	if r.overlay, err = NewTextOverlay(16); err != nil {
		return err
	}
	if r.atlas, r.atlasView, err = createAlphaTexture(r.gpu, "glyph atlas", r.overlay.AtlasImage); err != nil {
		return err
	}
	if r.textGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "text",
		Layout: r.pipelines.TextLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: r.atlasView},
			{Binding: 1, Sampler: r.pipelines.Sampler},
		},
	}); err != nil {
		return fmt.Errorf("text bind group: %w", err)
	}

	return r.rebuildBindings()
}

// Ready reports whether every GPU resource of a frame exists.
func (r *Renderer) Ready() bool {
	return r != nil && r.gpu != nil && r.pipelines != nil &&
		r.normal != nil && r.sticky != nil && r.blend != nil && r.history != nil &&
		r.marchUniformGroup != nil && r.marchTextureGroup != nil
}

// rebuildBindings recreates the bind groups that reference target or
// environment views.
func (r *Renderer) rebuildBindings() error {
	for _, g := range []*wgpu.BindGroup{r.blendGroup, r.saveGroup, r.marchTextureGroup} {
		if g != nil {
			g.Release()
		}
	}
	r.blendGroup, r.saveGroup, r.marchTextureGroup = nil, nil, nil

	device := r.gpu.Device
	var err error
	if r.blendGroup, err = r.blendBindGroup("blend", r.normal.ColorView, r.history.ColorView, r.blendBuf); err != nil {
		return err
	}
	if r.saveGroup, err = r.blendBindGroup("save", r.blend.ColorView, r.blend.ColorView, r.saveBuf); err != nil {
		return err
	}
	if r.marchTextureGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "march textures",
		Layout: r.pipelines.MarchTextureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: r.blend.ColorView},
			{Binding: 1, TextureView: r.normal.DepthView},
			{Binding: 2, TextureView: r.sticky.DepthView},
			{Binding: 3, TextureView: r.envView},
			{Binding: 4, Sampler: r.pipelines.Sampler},
		},
	}); err != nil {
		return fmt.Errorf("march texture bind group: %w", err)
	}
	r.bindingsDirty = false
	return nil
}

func (r *Renderer) blendBindGroup(label string, current, history *wgpu.TextureView, params *wgpu.Buffer) (*wgpu.BindGroup, error) {
	g, err := r.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: r.pipelines.BlendLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: current},
			{Binding: 1, TextureView: history},
			{Binding: 2, Sampler: r.pipelines.Sampler},
			{Binding: 3, Buffer: params, Size: gpu.BlendParamsSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s bind group: %w", label, err)
	}
	return g, nil
}

// Resize follows the framebuffer: the swapchain and every target.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.gpu.Resize(width, height)
	for _, t := range []*gpu.Target{r.normal, r.sticky, r.blend, r.history} {
		changed, err := t.Resize(r.gpu.Device, uint32(width), uint32(height))
		if err != nil {
			r.logger.Errorf("renderer: resizing %s: %v", t.Label, err)
			continue
		}
		if changed {
			r.bindingsDirty = true
		}
	}
	r.logger.Debugf("renderer: resized to %dx%d", width, height)
}

func (r *Renderer) ensureSlots(n int) error {
	for len(r.slots) < n {
		var s drawSlot
		if err := r.gpu.WriteBuffer("draw", &s.buf, make([]byte, gpu.DrawSize), wgpu.BufferUsageUniform); err != nil {
			return err
		}
		g, err := r.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   "draw",
			Layout:  r.pipelines.DrawLayout,
			Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: s.buf, Size: gpu.DrawSize}},
		})
		if err != nil {
			s.buf.Release()
			return fmt.Errorf("draw bind group: %w", err)
		}
		s.group = g
		r.slots = append(r.slots, s)
	}
	return nil
}

func (r *Renderer) meshBuffers(mesh *Mesh) (*meshBuffers, error) {
	if b, ok := r.meshes[mesh.Id]; ok && b.version == mesh.Version {
		return b, nil
	} else if ok {
		b.Release()
		delete(r.meshes, mesh.Id)
	}
	b, err := createMeshBuffers(mesh, r.gpu.Device)
	if err != nil {
		return nil, err
	}
	r.meshes[mesh.Id] = b
	return b, nil
}

// collect uploads the per-draw uniforms of every renderable. Avatar
// bodies are skipped while the camera sits inside them.
func (r *Renderer) collect(cmd *Commands, hideAvatar bool) error {
	r.draws = r.draws[:0]
	skip := make(map[EntityId]bool)
	if hideAvatar {
		MakeQuery1[AvatarComponent](cmd).Map(func(eid EntityId, _ *AvatarComponent) bool {
			skip[eid] = true
			return true
		})
	}

	var firstErr error
	n := 0
	MakeQuery2[TransformComponent, RenderableComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, rc *RenderableComponent) bool {
		if rc.Mesh == nil || rc.Material == nil {
			return true
		}
		if skip[eid] {
			return true
		}
		mb, err := r.meshBuffers(rc.Mesh)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return true
		}
		if err := r.ensureSlots(n + 1); err != nil {
			firstErr = err
			return false
		}
		d := gpu.Draw{Model: tr.Matrix(), Color: rc.Material.Color}
		r.gpu.Queue.WriteBuffer(r.slots[n].buf, 0, d.Bytes())
		r.draws = append(r.draws, drawItem{mesh: mb, material: rc.Material, slot: n})
		n++
		return true
	})
	return firstErr
}

func rasterCamera(camera *Camera, lights *SceneLights) gpu.RasterCamera {
	u := gpu.RasterCamera{ViewProj: camera.ViewProjection()}
	if dirs := lights.Directional(); len(dirs) > 0 {
		u.LightDirection = dirs[0].Direction
		u.LightIntensity = dirs[0].Intensity
	}
	u.Ambient = sdf.AmbientColor(lights.Ambient())
	return u
}

// beginFrame opens the command encoder the depth passes record into.
func (r *Renderer) beginFrame(camera *Camera, lights *SceneLights) error {
	if r.bindingsDirty {
		if err := r.rebuildBindings(); err != nil {
			return err
		}
	}
	cam := rasterCamera(camera, lights)
	r.gpu.Queue.WriteBuffer(r.cameraBuf, 0, cam.Bytes())

	encoder, err := r.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	r.encoder = encoder
	return nil
}

func (r *Renderer) abortFrame() {
	if r.encoder != nil {
		r.encoder.Release()
		r.encoder = nil
	}
}

// RenderDepth rasterizes every collected draw into the layer's target.
// The pipeline is picked per material, so depth write is read at record
// time.
func (r *Renderer) RenderDepth(layer DepthLayer) error {
	if r.encoder == nil {
		return errNoFrame
	}
	target := r.normal
	if layer == DepthSticky {
		target = r.sticky
	}

	pass := r.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  layer.String(),
		ColorAttachments:       []wgpu.RenderPassColorAttachment{target.ColorAttachment(clearColor)},
		DepthStencilAttachment: target.DepthAttachment(),
	})
	pass.SetBindGroup(0, r.cameraGroup, nil)
	for _, d := range r.draws {
		if d.material.DepthWrite {
			pass.SetPipeline(r.pipelines.RasterDepthWrite)
		} else {
			pass.SetPipeline(r.pipelines.RasterNoDepthWrite)
		}
		pass.SetBindGroup(1, r.slots[d.slot].group, nil)
		pass.SetVertexBuffer(0, d.mesh.vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(d.mesh.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(d.mesh.count, 1, 0, 0, 0)
	}
	return pass.End()
}

// swapEnvMap replaces the environment texture when a newer map loaded.
func (r *Renderer) swapEnvMap(loader *EnvMapLoader) {
	if loader == nil {
		return
	}
	env := loader.Current()
	if env == nil || env.Version == r.envVersion {
		return
	}
	tex, view, err := createRGBATexture(r.gpu, "envmap", env.Image)
	r.envVersion = env.Version
	if err != nil {
		r.logger.Errorf("renderer: envmap %s: %v", env.Path, err)
		return
	}
	r.envView.Release()
	r.env.Release()
	r.env, r.envView = tex, view
	r.bindingsDirty = true
}

func fullscreenPass(encoder *wgpu.CommandEncoder, label string, view *wgpu.TextureView, load wgpu.LoadOp, pipeline *wgpu.RenderPipeline, groups ...*wgpu.BindGroup) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearColor,
		}},
	})
	pass.SetPipeline(pipeline)
	for i, g := range groups {
		pass.SetBindGroup(uint32(i), g, nil)
	}
	pass.Draw(3, 1, 0, 0)
	return pass.End()
}

// endFrame runs blend, save, ray march and text, then presents.
func (r *Renderer) endFrame(rm *RayMarcher, items []TextItem) error {
	encoder := r.encoder
	if encoder == nil {
		return errNoFrame
	}
	defer r.abortFrame()

	march := rm.March.Bytes()
	r.gpu.Queue.WriteBuffer(r.marchBuf, 0, march)
	r.gpu.Queue.WriteBuffer(r.lightsBuf, 0, rm.Lights.Bytes())
	blend := gpu.BlendParams{MixRatio: r.MotionBlur, Opacity: 1}
	r.gpu.Queue.WriteBuffer(r.blendBuf, 0, blend.Bytes())
	save := gpu.BlendParams{MixRatio: 0, Opacity: 1}
	r.gpu.Queue.WriteBuffer(r.saveBuf, 0, save.Bytes())

	r.textCount = 0
	if len(items) > 0 {
		verts := r.overlay.BuildVertices(items, int(r.gpu.Config.Width), int(r.gpu.Config.Height))
		if len(verts) > 0 {
			if err := r.gpu.WriteBuffer("text vertices", &r.textBuf, wgpu.ToBytes(verts), wgpu.BufferUsageVertex); err != nil {
				return err
			}
			r.textCount = uint32(len(verts))
		}
	}

	if err := fullscreenPass(encoder, "blend", r.blend.ColorView, wgpu.LoadOpClear, r.pipelines.Blend, r.blendGroup); err != nil {
		return fmt.Errorf("blend pass: %w", err)
	}
	if err := fullscreenPass(encoder, "save", r.history.ColorView, wgpu.LoadOpClear, r.pipelines.Blend, r.saveGroup); err != nil {
		return fmt.Errorf("save pass: %w", err)
	}

	next, err := r.gpu.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("surface texture: %w", err)
	}
	defer next.Release()
	view, err := next.CreateView(nil)
	if err != nil {
		return fmt.Errorf("surface view: %w", err)
	}
	defer view.Release()

	if err := fullscreenPass(encoder, "raymarch", view, wgpu.LoadOpClear, r.pipelines.Raymarch, r.marchUniformGroup, r.marchTextureGroup); err != nil {
		return fmt.Errorf("raymarch pass: %w", err)
	}

	if r.textCount > 0 {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "text",
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:    view,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			}},
		})
		pass.SetPipeline(r.pipelines.Text)
		pass.SetBindGroup(0, r.textGroup, nil)
		pass.SetVertexBuffer(0, r.textBuf, 0, wgpu.WholeSize)
		pass.Draw(r.textCount, 1, 0, 0)
		if err := pass.End(); err != nil {
			return fmt.Errorf("text pass: %w", err)
		}
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finishing frame: %w", err)
	}
	defer cmd.Release()
	r.gpu.Queue.Submit(cmd)
	r.gpu.Surface.Present()
	return nil
}

func (r *Renderer) Release() {
	r.abortFrame()
	for _, s := range r.slots {
		s.group.Release()
		s.buf.Release()
	}
	r.slots = nil
	for id, b := range r.meshes {
		b.Release()
		delete(r.meshes, id)
	}
	for _, g := range []*wgpu.BindGroup{r.cameraGroup, r.marchUniformGroup, r.blendGroup, r.saveGroup, r.marchTextureGroup, r.textGroup} {
		if g != nil {
			g.Release()
		}
	}
	for _, b := range []*wgpu.Buffer{r.cameraBuf, r.marchBuf, r.lightsBuf, r.blendBuf, r.saveBuf, r.textBuf} {
		if b != nil {
			b.Release()
		}
	}
	for _, v := range []*wgpu.TextureView{r.envView, r.atlasView} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range []*wgpu.Texture{r.env, r.atlas} {
		if t != nil {
			t.Release()
		}
	}
	for _, t := range []*gpu.Target{r.normal, r.sticky, r.blend, r.history} {
		if t != nil {
			t.Release()
		}
	}
	if r.pipelines != nil {
		r.pipelines.Release()
		r.pipelines = nil
	}
}

// RendererModule creates the GPU device on the window and draws every
// frame in the Render stage. Install after RaymarchModule.
type RendererModule struct {
	MotionBlur float32
}

func (m RendererModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, "marcher")

	ws, ok := Resource[WindowState](app)
	if !ok {
		panic("RendererModule requires PlatformWindowModule")
	}
	rm, ok := Resource[RayMarcher](app)
	if !ok {
		panic("RendererModule requires RaymarchModule")
	}

	gs, err := createGpuState(ws)
	if err != nil {
		panic(err)
	}
	app.OnShutdown(gs.Release)

	renderer, err := NewRenderer(gs, m.MotionBlur, app.Logger())
	if err != nil {
		panic(err)
	}
	app.OnShutdown(renderer.Release)

	rm.SetRenderer(renderer)
	if viewport, ok := Resource[Viewport](app); ok {
		viewport.OnResize(renderer.Resize)
	}
	cmd.AddResources(gs, renderer)
	app.Logger().Infof("renderer: %v surface %dx%d", gs.Format(), gs.Config.Width, gs.Config.Height)

	app.UseSystem(
		System(renderSystem).
			InStage(Render).
			RunAlways(),
	)
}

func renderSystem(cmd *Commands, r *Renderer, rm *RayMarcher, tick *TickData, camera *Camera, lights *SceneLights) {
	if !r.Ready() {
		panic(errUninitializedRenderer)
	}
	app := cmd.App()
	logger := app.Logger()

	r.swapEnvMap(optionalResource[EnvMapLoader](app))

	hideAvatar := false
	if ctrl, ok := Resource[CharacterController](app); ok {
		hideAvatar = ctrl.FirstPerson()
	}
	if err := r.collect(cmd, hideAvatar); err != nil {
		logger.Errorf("renderer: %v", err)
	}
	if err := r.beginFrame(camera, lights); err != nil {
		logger.Errorf("renderer: %v", err)
		return
	}
	if err := rm.Update(tick.Timestamp); err != nil {
		r.abortFrame()
		logger.Errorf("renderer: %v", err)
		return
	}

	var items []TextItem
	if stats, ok := Resource[Stats](app); ok {
		items = stats.Items()
	}
	if err := r.endFrame(rm, items); err != nil {
		logger.Errorf("renderer: %v", err)
	}
}

func optionalResource[T any](app *App) *T {
	res, _ := Resource[T](app)
	return res
}
