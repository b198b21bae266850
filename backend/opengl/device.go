// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package opengl

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/present"
)

// Device implements present.Device with OpenGL 3.3 core calls. GL object
// names are used as handles directly; GL never hands out name 0.
type Device struct {
	vao          uint32
	swapInterval int
}

var _ present.Device = (*Device)(nil)

func newDevice(swapInterval int) *Device {
	return &Device{swapInterval: swapInterval}
}

// Init loads GL entry points for the current context and creates the
// vertex array object core profiles require for attribute state.
func (d *Device) Init() (present.AdapterInfo, error) {
	if err := gl.Init(); err != nil {
		return present.AdapterInfo{}, fmt.Errorf("opengl: init: %w", err)
	}
	if d.vao == 0 {
		gl.GenVertexArrays(1, &d.vao)
	}
	gl.Disable(gl.DEPTH_TEST)
	glfw.SwapInterval(d.swapInterval)

	info := present.AdapterInfo{
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
	}
	present.Logger().Debug("opengl: context initialized",
		"vendor", info.Vendor, "renderer", info.Renderer, "version", info.Version)
	return info, nil
}

func (d *Device) SetSwapInterval(interval int) error {
	d.swapInterval = interval
	glfw.SwapInterval(interval)
	return nil
}

func (d *Device) CompileShader(stage present.ShaderStage, src present.ShaderSource) (present.ShaderID, present.ShaderStatus, error) {
	if src.GLSL == "" {
		return 0, present.ShaderStatus{}, fmt.Errorf("opengl: no GLSL source for %v shader", stage)
	}
	typ := uint32(gl.VERTEX_SHADER)
	if stage == present.FragmentStage {
		typ = gl.FRAGMENT_SHADER
	}
	sh := gl.CreateShader(typ)
	if sh == 0 {
		return 0, present.ShaderStatus{}, fmt.Errorf("opengl: glCreateShader(%v): %w", stage, d.Err())
	}

	csrc, free := gl.Strs(src.GLSL + "\x00")
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status, logLen int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
	var log string
	if logLen > 1 {
		buf := make([]byte, logLen)
		gl.GetShaderInfoLog(sh, logLen, nil, &buf[0])
		log = trimInfoLog(buf)
	}
	return present.ShaderID(sh), present.ShaderStatus{OK: status == gl.TRUE, Log: log}, nil
}

func (d *Device) LinkProgram(vs, fs present.ShaderID) (present.ProgramID, present.ShaderStatus, error) {
	prog := gl.CreateProgram()
	if prog == 0 {
		return 0, present.ShaderStatus{}, fmt.Errorf("opengl: glCreateProgram: %w", d.Err())
	}
	gl.AttachShader(prog, uint32(vs))
	gl.AttachShader(prog, uint32(fs))
	gl.LinkProgram(prog)

	var status, logLen int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
	var log string
	if logLen > 1 {
		buf := make([]byte, logLen)
		gl.GetProgramInfoLog(prog, logLen, nil, &buf[0])
		log = trimInfoLog(buf)
	}
	return present.ProgramID(prog), present.ShaderStatus{OK: status == gl.TRUE, Log: log}, nil
}

func (d *Device) AttribLocation(p present.ProgramID, name string) int32 {
	return gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) UniformLocation(p present.ProgramID, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) DeleteShader(s present.ShaderID)   { gl.DeleteShader(uint32(s)) }
func (d *Device) DeleteProgram(p present.ProgramID) { gl.DeleteProgram(uint32(p)) }

func (d *Device) CreateBuffer(kind present.BufferKind, data []byte) (present.BufferID, error) {
	if len(data) == 0 {
		return 0, errors.New("opengl: empty buffer")
	}
	target := bufferTarget(kind)
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("opengl: glGenBuffers: %w", d.Err())
	}
	gl.BindBuffer(target, id)
	gl.BufferData(target, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(target, 0)
	return present.BufferID(id), nil
}

func (d *Device) DeleteBuffer(b present.BufferID) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func (d *Device) CreateTexture(filter present.Filter) (present.TextureID, error) {
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("opengl: glGenTextures: %w", d.Err())
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	setFilter(filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return present.TextureID(id), nil
}

func (d *Device) SetTextureFilter(t present.TextureID, filter present.Filter) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	setFilter(filter)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func setFilter(filter present.Filter) {
	minFilter, magFilter := filterParams(filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
}

// filterParams returns the MIN and MAG filters for filter. Linear
// minification samples the mip chain GenerateMipmap rebuilds each frame.
func filterParams(filter present.Filter) (minFilter, magFilter int32) {
	if filter == present.FilterLinear {
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	}
	return gl.NEAREST, gl.NEAREST
}

// AllocTexture allocates RGBA8 storage. Pixels arrive as packed
// 0xAARRGGBB words, which is BGRA with UNSIGNED_INT_8_8_8_8_REV.
func (d *Device) AllocTexture(t present.TextureID, width, height int) error {
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0,
		gl.BGRA, gl.UNSIGNED_INT_8_8_8_8_REV, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := d.Err(); err != nil {
		return fmt.Errorf("opengl: allocate %dx%d texture: %w", width, height, err)
	}
	return nil
}

func (d *Device) UpdateTexture(t present.TextureID, width, height int, pixels []uint32) error {
	if len(pixels) < width*height || width <= 0 || height <= 0 {
		return present.ErrInvalidDimensions
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height),
		gl.BGRA, gl.UNSIGNED_INT_8_8_8_8_REV, gl.Ptr(&pixels[0]))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := d.Err(); err != nil {
		return fmt.Errorf("opengl: update texture: %w", err)
	}
	return nil
}

func (d *Device) GenerateMipmap(t present.TextureID) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (d *Device) DeleteTexture(t present.TextureID) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// UseProgram also binds the device's vertex array object, and unbinds it
// with program 0, so attribute state never leaks into other GL users.
func (d *Device) UseProgram(p present.ProgramID) {
	gl.UseProgram(uint32(p))
	if p != 0 {
		gl.BindVertexArray(d.vao)
	} else {
		gl.BindVertexArray(0)
	}
}

func (d *Device) Uniform1i(loc int32, v int32)      { gl.Uniform1i(loc, v) }
func (d *Device) Uniform1f(loc int32, v float32)    { gl.Uniform1f(loc, v) }
func (d *Device) Uniform2f(loc int32, x, y float32) { gl.Uniform2f(loc, x, y) }

func (d *Device) BindTexture(unit int, t present.TextureID) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *Device) BindBuffer(kind present.BufferKind, b present.BufferID) {
	gl.BindBuffer(bufferTarget(kind), uint32(b))
}

func (d *Device) EnableAttrib(loc int32)  { gl.EnableVertexAttribArray(uint32(loc)) }
func (d *Device) DisableAttrib(loc int32) { gl.DisableVertexAttribArray(uint32(loc)) }

func (d *Device) AttribPointer(loc int32, size, stride, offset int) {
	gl.VertexAttribPointer(uint32(loc), int32(size), gl.FLOAT, false, int32(stride), gl.PtrOffset(offset))
}

func (d *Device) DrawIndexed(count int) {
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(0))
}

// Err drains the GL error queue and returns the first error, if any.
func (d *Device) Err() error {
	var first uint32
	// A lost context can report errors forever; bound the drain.
	for range 16 {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first == 0 {
		return nil
	}
	return &GLError{Code: first}
}

func bufferTarget(kind present.BufferKind) uint32 {
	if kind == present.IndexBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}
