package present

import (
	_ "embed"
	"encoding/binary"
	"math"
)

//go:embed shaders/present.vert
var vertexShaderGLSL string

//go:embed shaders/present.frag
var fragmentShaderGLSL string

//go:embed shaders/present.wgsl
var presentShaderWGSL string

// Shader sources for both stages of the presentation program. The WGSL
// module holds both entry points (vs_main, fs_main).
var (
	VertexShader   = ShaderSource{GLSL: vertexShaderGLSL, WGSL: presentShaderWGSL}
	FragmentShader = ShaderSource{GLSL: fragmentShaderGLSL, WGSL: presentShaderWGSL}
)

// Attribute and uniform names shared by every shader language. WebGPU
// devices map them onto fixed locations and uniform block offsets.
const (
	AttribPosition    = "aPos"
	AttribTexCoord    = "aUv"
	UniformTexture    = "uTex"
	UniformTexel      = "uTexel"
	UniformSharpen    = "uSharpen"
	UniformSaturation = "uSaturation"
)

// Full-screen quad layout: x, y, u, v per vertex. Texture row 0 maps to
// the top of the surface.
const (
	QuadFloatsPerVertex = 4
	QuadStride          = QuadFloatsPerVertex * 4
	QuadTexCoordOffset  = 2 * 4
	QuadIndexCount      = 6
)

var quadVertices = [...]float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	1, 1, 1, 0,
	-1, 1, 0, 0,
}

var quadIndices = [...]uint32{0, 1, 2, 2, 3, 0}

// quadVertexBytes returns the quad vertices as little-endian float32s.
func quadVertexBytes() []byte {
	b := make([]byte, 0, len(quadVertices)*4)
	for _, v := range quadVertices {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// quadIndexBytes returns the quad indices as little-endian uint32s.
func quadIndexBytes() []byte {
	b := make([]byte, 0, len(quadIndices)*4)
	for _, i := range quadIndices {
		b = binary.LittleEndian.AppendUint32(b, i)
	}
	return b
}
