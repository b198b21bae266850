//go:build !nogpu

package wgpu

import "github.com/gogpu/present/backend"

func init() {
	backend.Register(backend.WebGPU, Factory())
}
