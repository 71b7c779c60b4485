// Package platform provides the exclusive resources the coordinator arbitrates.
package platform

import (
	"context"
	"fmt"

	"github.com/playcore/playcore/constant"
)

// Lock is an acquire/release platform resource.
type Lock interface {
	Name() string
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// NewWakeLock returns the display wake lock for backend, or nil for "none".
func NewWakeLock(backend string) (Lock, error) {
	switch backend {
	case constant.WakeBackendNone, "":
		return nil, nil
	case constant.WakeBackendDBus:
		return newScreenSaver()
	default:
		return nil, fmt.Errorf("unknown wake backend %q", backend)
	}
}
