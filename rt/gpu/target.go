package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	ColorFormat = wgpu.TextureFormatRGBA8Unorm
	DepthFormat = wgpu.TextureFormatDepth32Float
)

// Target is an offscreen colour attachment with an optional sampled depth
// attachment, sized to the viewport.
type Target struct {
	Label  string
	Width  uint32
	Height uint32

	Color     *wgpu.Texture
	ColorView *wgpu.TextureView
	Depth     *wgpu.Texture
	DepthView *wgpu.TextureView
}

func NewTarget(device *wgpu.Device, label string, width, height uint32, withDepth bool) (*Target, error) {
	t := &Target{Label: label}
	if err := t.allocate(device, width, height, withDepth); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (t *Target) allocate(device *wgpu.Device, width, height uint32, withDepth bool) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%s: empty size %dx%d", t.Label, width, height)
	}
	t.Width, t.Height = width, height
	size := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	var err error
	t.Color, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         t.Label + " color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("%s color texture: %w", t.Label, err)
	}
	if t.ColorView, err = t.Color.CreateView(nil); err != nil {
		return fmt.Errorf("%s color view: %w", t.Label, err)
	}

	if !withDepth {
		return nil
	}
	t.Depth, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         t.Label + " depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("%s depth texture: %w", t.Label, err)
	}
	if t.DepthView, err = t.Depth.CreateView(nil); err != nil {
		return fmt.Errorf("%s depth view: %w", t.Label, err)
	}
	return nil
}

// Resize reallocates the attachments when the size changed and reports
// whether it did. Views handed out before are invalid afterwards.
func (t *Target) Resize(device *wgpu.Device, width, height uint32) (bool, error) {
	if width == t.Width && height == t.Height {
		return false, nil
	}
	withDepth := t.Depth != nil
	t.Release()
	return true, t.allocate(device, width, height, withDepth)
}

// ColorAttachment clears to clear and stores.
func (t *Target) ColorAttachment(clear wgpu.Color) wgpu.RenderPassColorAttachment {
	return wgpu.RenderPassColorAttachment{
		View:       t.ColorView,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clear,
	}
}

// DepthAttachment clears to the far plane and keeps the result for
// sampling.
func (t *Target) DepthAttachment() *wgpu.RenderPassDepthStencilAttachment {
	if t.DepthView == nil {
		return nil
	}
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            t.DepthView,
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}
}

func (t *Target) Release() {
	if t.DepthView != nil {
		t.DepthView.Release()
		t.DepthView = nil
	}
	if t.Depth != nil {
		t.Depth.Release()
		t.Depth = nil
	}
	if t.ColorView != nil {
		t.ColorView.Release()
		t.ColorView = nil
	}
	if t.Color != nil {
		t.Color.Release()
		t.Color = nil
	}
}
