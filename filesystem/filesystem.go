// Package filesystem provides a swappable afero backend for every file touched by the application.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active afero.Afero instance.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the native operating system backend.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs switches to a volatile in-memory backend, used by tests.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// IsMem reports whether the in-memory backend is active.
// Components that must hand real paths to external processes check it.
func IsMem() bool {
	_, ok := backend.Fs.(*afero.MemMapFs)
	return ok
}
