package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/marcher/rt/shaders"
)

// Vertex is the raster vertex layout.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// TextVertex is one corner of a glyph quad in clip space.
type TextVertex struct {
	Position [2]float32
	UV       [2]float32
	Color    [4]float32
}

// Pipelines holds every render pipeline of a frame with its explicit
// bind group layouts.
type Pipelines struct {
	// RasterDepthWrite and RasterNoDepthWrite draw scene meshes; the sticky
	// layer picks the second one for excluded materials.
	RasterDepthWrite   *wgpu.RenderPipeline
	RasterNoDepthWrite *wgpu.RenderPipeline
	Blend              *wgpu.RenderPipeline
	Raymarch           *wgpu.RenderPipeline
	Text               *wgpu.RenderPipeline

	CameraLayout       *wgpu.BindGroupLayout
	DrawLayout         *wgpu.BindGroupLayout
	BlendLayout        *wgpu.BindGroupLayout
	MarchUniformLayout *wgpu.BindGroupLayout
	MarchTextureLayout *wgpu.BindGroupLayout
	TextLayout         *wgpu.BindGroupLayout

	Sampler *wgpu.Sampler

	releasers []interface{ Release() }
}

func uniformEntry(binding uint32, visibility wgpu.ShaderStage, size uint64) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: size,
		},
	}
}

func textureEntry(binding uint32, sampleType wgpu.TextureSampleType) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageFragment,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    sampleType,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

func samplerEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageFragment,
		Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
	}
}

func (p *Pipelines) layout(device *wgpu.Device, label string, entries ...wgpu.BindGroupLayoutEntry) (*wgpu.BindGroupLayout, error) {
	l, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	p.releasers = append(p.releasers, l)
	return l, nil
}

func (p *Pipelines) module(device *wgpu.Device, label, code string) (*wgpu.ShaderModule, error) {
	m, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", label, err)
	}
	return m, nil
}

var alphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

func (p *Pipelines) pipeline(device *wgpu.Device, desc *wgpu.RenderPipelineDescriptor, layouts ...*wgpu.BindGroupLayout) (*wgpu.RenderPipeline, error) {
	pl, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("%s layout: %w", desc.Label, err)
	}
	p.releasers = append(p.releasers, pl)
	desc.Layout = pl
	desc.Multisample = wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF}

	rp, err := device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", desc.Label, err)
	}
	p.releasers = append(p.releasers, rp)
	return rp, nil
}

// NewPipelines compiles every program. Offscreen passes render to
// ColorFormat, the final passes to surfaceFormat.
func NewPipelines(device *wgpu.Device, surfaceFormat wgpu.TextureFormat) (*Pipelines, error) {
	p := &Pipelines{}
	if err := p.build(device, surfaceFormat); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *Pipelines) build(device *wgpu.Device, surfaceFormat wgpu.TextureFormat) error {
	var err error
	p.Sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	p.releasers = append(p.releasers, p.Sampler)

	if p.CameraLayout, err = p.layout(device, "raster camera",
		uniformEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, RasterCameraSize)); err != nil {
		return err
	}
	if p.DrawLayout, err = p.layout(device, "raster draw",
		uniformEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, DrawSize)); err != nil {
		return err
	}
	if p.BlendLayout, err = p.layout(device, "blend",
		textureEntry(0, wgpu.TextureSampleTypeFloat),
		textureEntry(1, wgpu.TextureSampleTypeFloat),
		samplerEntry(2),
		uniformEntry(3, wgpu.ShaderStageFragment, BlendParamsSize)); err != nil {
		return err
	}
	if p.MarchUniformLayout, err = p.layout(device, "march uniforms",
		uniformEntry(0, wgpu.ShaderStageFragment, MarchSize),
		uniformEntry(1, wgpu.ShaderStageFragment, LightsSize)); err != nil {
		return err
	}
	if p.MarchTextureLayout, err = p.layout(device, "march textures",
		textureEntry(0, wgpu.TextureSampleTypeFloat),
		textureEntry(1, wgpu.TextureSampleTypeDepth),
		textureEntry(2, wgpu.TextureSampleTypeDepth),
		textureEntry(3, wgpu.TextureSampleTypeFloat),
		samplerEntry(4)); err != nil {
		return err
	}
	if p.TextLayout, err = p.layout(device, "text",
		textureEntry(0, wgpu.TextureSampleTypeFloat),
		samplerEntry(1)); err != nil {
		return err
	}

	raster, err := p.module(device, "raster", shaders.RasterWGSL)
	if err != nil {
		return err
	}
	defer raster.Release()
	for _, depthWrite := range []bool{true, false} {
		rp, err := p.pipeline(device, &wgpu.RenderPipelineDescriptor{
			Label: fmt.Sprintf("raster depthWrite=%t", depthWrite),
			Vertex: wgpu.VertexState{
				Module:     raster,
				EntryPoint: "vs_main",
				Buffers: []wgpu.VertexBufferLayout{{
					ArrayStride: uint64(unsafe.Sizeof(Vertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					},
				}},
			},
			Fragment: &wgpu.FragmentState{
				Module:     raster,
				EntryPoint: "fs_main",
				Targets:    []wgpu.ColorTargetState{{Format: ColorFormat, WriteMask: wgpu.ColorWriteMaskAll}},
			},
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  wgpu.CullModeNone,
			},
			DepthStencil: &wgpu.DepthStencilState{
				Format:            DepthFormat,
				DepthWriteEnabled: depthWrite,
				DepthCompare:      wgpu.CompareFunctionLess,
				StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
				StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			},
		}, p.CameraLayout, p.DrawLayout)
		if err != nil {
			return err
		}
		if depthWrite {
			p.RasterDepthWrite = rp
		} else {
			p.RasterNoDepthWrite = rp
		}
	}

	blend, err := p.module(device, "blend", shaders.BlendWGSL)
	if err != nil {
		return err
	}
	defer blend.Release()
	if p.Blend, err = p.pipeline(device, &wgpu.RenderPipelineDescriptor{
		Label:     "blend",
		Vertex:    wgpu.VertexState{Module: blend, EntryPoint: "vs_main"},
		Fragment:  &wgpu.FragmentState{Module: blend, EntryPoint: "fs_main", Targets: []wgpu.ColorTargetState{{Format: ColorFormat, WriteMask: wgpu.ColorWriteMaskAll}}},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList},
	}, p.BlendLayout); err != nil {
		return err
	}

	march, err := p.module(device, "raymarch", shaders.Raymarch(MaxLights))
	if err != nil {
		return err
	}
	defer march.Release()
	if p.Raymarch, err = p.pipeline(device, &wgpu.RenderPipelineDescriptor{
		Label:     "raymarch",
		Vertex:    wgpu.VertexState{Module: march, EntryPoint: "vs_main"},
		Fragment:  &wgpu.FragmentState{Module: march, EntryPoint: "fs_main", Targets: []wgpu.ColorTargetState{{Format: surfaceFormat, WriteMask: wgpu.ColorWriteMaskAll}}},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList},
	}, p.MarchUniformLayout, p.MarchTextureLayout); err != nil {
		return err
	}

	text, err := p.module(device, "text", shaders.TextWGSL)
	if err != nil {
		return err
	}
	defer text.Release()
	if p.Text, err = p.pipeline(device, &wgpu.RenderPipelineDescriptor{
		Label: "text",
		Vertex: wgpu.VertexState{
			Module:     text,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(TextVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment:  &wgpu.FragmentState{Module: text, EntryPoint: "fs_main", Targets: []wgpu.ColorTargetState{{Format: surfaceFormat, Blend: alphaBlend, WriteMask: wgpu.ColorWriteMaskAll}}},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList},
	}, p.TextLayout); err != nil {
		return err
	}
	return nil
}

func (p *Pipelines) Release() {
	for i := len(p.releasers) - 1; i >= 0; i-- {
		p.releasers[i].Release()
	}
	p.releasers = nil
}
