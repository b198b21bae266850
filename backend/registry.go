package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/present"
)

// Backend names.
const (
	OpenGL = "gl"
	WebGPU = "wgpu"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered.
var ErrBackendNotAvailable = errors.New("backend: not available")

// registry holds registered surface factories.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]present.SurfaceFactory)
	// Priority order for backend selection (first available wins).
	// A window-backed OpenGL context is preferred over headless WebGPU.
	backendPriority = []string{OpenGL, WebGPU}
)

// Register registers a surface factory with the given name.
// If a factory with the same name is already registered, it is replaced.
// A nil factory unregisters name.
func Register(name string, factory present.SurfaceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		delete(factories, name)
		return
	}
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns the factory registered under name.
func Get(name string) (present.SurfaceFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory, nil
}

// Default returns the best available factory and its name based on
// priority, falling back to the first registered name in sorted order.
func Default() (string, present.SurfaceFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := factories[name]; ok {
			return name, factory, nil
		}
	}

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", nil, ErrBackendNotAvailable
	}
	sort.Strings(names)
	return names[0], factories[names[0]], nil
}
