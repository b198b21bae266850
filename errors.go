package present

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrInvalidDimensions is returned when a frame has non-positive size or
	// a pixel slice shorter than width*height.
	ErrInvalidDimensions = errors.New("present: invalid frame dimensions")

	// ErrNilSurface is returned when a presenter is used without a surface.
	ErrNilSurface = errors.New("present: nil surface")

	// ErrNoSurfaceFactory is returned when a Manager needs a surface but was
	// built without a SurfaceFactory.
	ErrNoSurfaceFactory = errors.New("present: no surface factory")
)

// GPUError reports a failed GPU operation. Op names the step that failed,
// for example "acquire context" or "link program".
type GPUError struct {
	Op  string
	Err error
}

func (e *GPUError) Error() string {
	return fmt.Sprintf("present: %s: %v", e.Op, e.Err)
}

func (e *GPUError) Unwrap() error { return e.Err }

func gpuError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *GPUError
	if errors.As(err, &ge) {
		return err
	}
	return &GPUError{Op: op, Err: err}
}
