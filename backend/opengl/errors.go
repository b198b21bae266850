// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package opengl

import (
	"bytes"
	"fmt"
	"strings"
)

// GL error codes, from the OpenGL 3.3 core specification.
const (
	codeInvalidEnum                 = 0x0500
	codeInvalidValue                = 0x0501
	codeInvalidOperation            = 0x0502
	codeOutOfMemory                 = 0x0505
	codeInvalidFramebufferOperation = 0x0506
)

// GLError is an error code reported by glGetError.
type GLError struct {
	Code uint32
}

func (e *GLError) Error() string {
	return "opengl: " + glErrorString(e.Code)
}

func glErrorString(code uint32) string {
	switch code {
	case codeInvalidEnum:
		return "GL_INVALID_ENUM"
	case codeInvalidValue:
		return "GL_INVALID_VALUE"
	case codeInvalidOperation:
		return "GL_INVALID_OPERATION"
	case codeOutOfMemory:
		return "GL_OUT_OF_MEMORY"
	case codeInvalidFramebufferOperation:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return fmt.Sprintf("GL error 0x%04X", code)
	}
}

// trimInfoLog converts a NUL-terminated driver log to a string.
func trimInfoLog(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
