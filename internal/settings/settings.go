// Package settings loads the presentation settings of the demo host from
// a TOML file and watches it for changes.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings are the host-side switches that drive a present.Manager.
type Settings struct {
	// Enabled requests the GPU presentation path. Toggling it drives the
	// manager lifecycle.
	Enabled                 bool    `toml:"enabled"`
	LinearFilter            bool    `toml:"linear_filter"`
	VSync                   bool    `toml:"vsync"`
	SkipUploadWhenUnfocused bool    `toml:"skip_upload_when_unfocused"`
	Debug                   bool    `toml:"debug"`
	Sharpen                 float32 `toml:"sharpen"`
	Saturation              float32 `toml:"saturation"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Enabled:                 true,
		VSync:                   true,
		SkipUploadWhenUnfocused: true,
		Saturation:              1,
	}
}

// Validate reports settings the presenter cannot use.
func (s Settings) Validate() error {
	for name, v := range map[string]float32{"sharpen": s.Sharpen, "saturation": s.Saturation} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("settings: %s is not finite", name)
		}
	}
	if s.Saturation < 0 {
		return fmt.Errorf("settings: saturation %v is negative", s.Saturation)
	}
	return nil
}

// Decode reads TOML from r on top of the defaults. Unknown keys are an
// error.
func Decode(r io.Reader) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("settings: %s", strict.String())
		}
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads the settings file at path. A missing file yields Default.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Save writes s to path as TOML.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // settings are not secret
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
