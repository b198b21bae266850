package present

import "log/slog"

// Option configures a Manager during creation.
//
// Example:
//
//	m := present.NewManager(factory,
//	    present.WithLinearFilter(true),
//	    present.WithDebug(true),
//	)
type Option func(*options)

type options struct {
	logger                  *slog.Logger
	debug                   bool
	linearFilter            bool
	vsync                   bool
	skipUploadWhenUnfocused bool
	glMajor, glMinor        int
}

func defaultOptions() options {
	return options{
		vsync:                   true,
		skipUploadWhenUnfocused: true,
		glMajor:                 3,
		glMinor:                 3,
	}
}

// WithLogger sets the logger used by the manager and its presenter.
// Without it the package logger from Logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDebug enables per-frame timing and GPU identification logs at
// debug level.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithLinearFilter selects linear (true) or nearest (false) sampling.
// Default is nearest.
func WithLinearFilter(enabled bool) Option {
	return func(o *options) {
		o.linearFilter = enabled
	}
}

// WithVSync sets the initial swap interval to 1 (true) or 0. Default true.
func WithVSync(enabled bool) Option {
	return func(o *options) {
		o.vsync = enabled
	}
}

// WithSkipUploadWhenUnfocused skips texture uploads while the host is
// unfocused. Default true.
func WithSkipUploadWhenUnfocused(enabled bool) Option {
	return func(o *options) {
		o.skipUploadWhenUnfocused = enabled
	}
}

// WithGLVersion sets the context version requested from the surface
// factory. Default 3.3.
func WithGLVersion(major, minor int) Option {
	return func(o *options) {
		o.glMajor = major
		o.glMinor = minor
	}
}

// PresenterOption configures a Presenter.
type PresenterOption func(*presenterOptions)

type presenterOptions struct {
	logger       *slog.Logger
	debug        bool
	linearFilter bool
}

// WithPresenterLogger sets the presenter's logger.
func WithPresenterLogger(l *slog.Logger) PresenterOption {
	return func(o *presenterOptions) {
		o.logger = l
	}
}

// WithPresenterDebug enables debug timing logs in the presenter.
func WithPresenterDebug(enabled bool) PresenterOption {
	return func(o *presenterOptions) {
		o.debug = enabled
	}
}

// WithPresenterLinearFilter sets the initial sampling filter.
func WithPresenterLinearFilter(enabled bool) PresenterOption {
	return func(o *presenterOptions) {
		o.linearFilter = enabled
	}
}
