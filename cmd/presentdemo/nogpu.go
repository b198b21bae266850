//go:build nogpu

package main

import (
	"errors"
	"log/slog"

	"github.com/gogpu/present/internal/settings"
)

var errNoGPU = errors.New("presentdemo: built with the nogpu tag")

func runGL(demoOptions, settings.Settings, *slog.Logger) error      { return errNoGPU }
func runHeadless(demoOptions, settings.Settings, *slog.Logger) error { return errNoGPU }
