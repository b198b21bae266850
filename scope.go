package present

import "fmt"

// WithContext makes the surface's context current, runs fn with its
// device and releases the context on every exit path. A panic inside fn
// is returned as a *GPUError instead of propagating.
func WithContext(s Surface, fn func(Device) error) (err error) {
	if s == nil {
		return ErrNilSurface
	}
	d, err := s.MakeCurrent()
	if err != nil {
		return gpuError("acquire context", err)
	}
	defer s.ReleaseCurrent()
	defer func() {
		if r := recover(); r != nil {
			err = &GPUError{Op: "context scope", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn(d)
}
