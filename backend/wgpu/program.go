//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/present"
)

type shaderModule struct {
	stage  present.ShaderStage
	module hal.ShaderModule // nil when creation failed
}

// program is a linked render pipeline. Every field except uniforms may
// be nil after a failed link; DrawIndexed then reports errNoPipeline.
type program struct {
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	uniformBuf hal.Buffer

	uniforms [uniformBlockSize]byte
}

func (p *program) setUniform(offset int, vs ...float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(p.uniforms[offset+i*4:], math.Float32bits(v))
	}
}

// compileWGSL translates WGSL to SPIR-V words with naga.
func compileWGSL(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// CompileShader creates a shader module from src.WGSL. A naga failure
// yields a failed status; the HAL then receives the WGSL text itself.
func (d *Device) CompileShader(stage present.ShaderStage, src present.ShaderSource) (present.ShaderID, present.ShaderStatus, error) {
	if src.WGSL == "" {
		return 0, present.ShaderStatus{}, fmt.Errorf("wgpu: %s shader has no WGSL source", stage)
	}

	status := present.ShaderStatus{OK: true}
	source := hal.ShaderSource{WGSL: src.WGSL}
	if words, err := compileWGSL(src.WGSL); err != nil {
		status = present.ShaderStatus{Log: "naga: " + err.Error()}
	} else {
		source = hal.ShaderSource{SPIRV: words}
	}

	label := "present_" + stage.String()
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: source,
	})
	if err != nil {
		status.OK = false
		if status.Log != "" {
			status.Log += "\n"
		}
		status.Log += err.Error()
		module = nil
	}

	id := present.ShaderID(d.newID())
	d.shaders[id] = &shaderModule{stage: stage, module: module}
	return id, status, nil
}

// DeleteShader implements present.Device.
func (d *Device) DeleteShader(id present.ShaderID) {
	s, ok := d.shaders[id]
	if !ok {
		return
	}
	if s.module != nil {
		d.device.DestroyShaderModule(s.module)
	}
	delete(d.shaders, id)
}

// LinkProgram builds the presentation pipeline from a vertex and a
// fragment module. Failures are returned as a failed status with a
// program handle that cannot draw.
func (d *Device) LinkProgram(vsID, fsID present.ShaderID) (present.ProgramID, present.ShaderStatus, error) {
	vs, ok := d.shaders[vsID]
	if !ok {
		return 0, present.ShaderStatus{}, fmt.Errorf("wgpu: link: vertex shader %d: %w", vsID, errBadHandle)
	}
	fs, ok := d.shaders[fsID]
	if !ok {
		return 0, present.ShaderStatus{}, fmt.Errorf("wgpu: link: fragment shader %d: %w", fsID, errBadHandle)
	}

	p := &program{}
	status := present.ShaderStatus{OK: true}
	if err := d.buildPipeline(p, vs, fs); err != nil {
		d.destroyProgram(p)
		p = &program{}
		status = present.ShaderStatus{Log: err.Error()}
	}

	id := present.ProgramID(d.newID())
	d.programs[id] = p
	return id, status, nil
}

func (d *Device) buildPipeline(p *program, vs, fs *shaderModule) error {
	if vs.stage != present.VertexStage || fs.stage != present.FragmentStage {
		return fmt.Errorf("shader stages do not match (%s, %s)", vs.stage, fs.stage)
	}
	if vs.module == nil || fs.module == nil {
		return fmt.Errorf("shader module unavailable")
	}

	var err error
	// Bind group layout:
	//   Binding 0: Params uniform (vertex + fragment)
	//   Binding 1: frame texture (fragment)
	//   Binding 2: sampler (fragment)
	p.layout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "present_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "present_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	p.pipeline, err = d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "present_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     vs.module,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: present.QuadStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: locPosition},
					{Format: gputypes.VertexFormatFloat32x2, Offset: present.QuadTexCoordOffset, ShaderLocation: locTexCoord},
				},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     fs.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    d.format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}

	p.uniformBuf, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "present_params",
		Size:  uniformBlockSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	return nil
}

// DeleteProgram implements present.Device.
func (d *Device) DeleteProgram(id present.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	d.destroyProgram(p)
	delete(d.programs, id)
	if d.current == p {
		d.current = nil
	}
}

func (d *Device) destroyProgram(p *program) {
	if p.uniformBuf != nil {
		d.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.pipeline != nil {
		d.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		d.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
}
