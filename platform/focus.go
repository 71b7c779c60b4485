package platform

import (
	"context"
	"sync"
)

// Focus is a process-local audio focus. Desktop platforms have no system
// focus arbiter, so loss only happens through Revoke.
type Focus struct {
	mu        sync.Mutex
	held      bool
	listeners []func()
}

func NewFocus() *Focus {
	return &Focus{}
}

func (f *Focus) Name() string {
	return "audio-focus"
}

func (f *Focus) Acquire(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = true
	return nil
}

func (f *Focus) Release(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = false
	return nil
}

func (f *Focus) Held() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held
}

// OnLoss registers fn to run when focus is revoked.
func (f *Focus) OnLoss(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Revoke takes focus away and notifies listeners asynchronously.
// It reports whether focus was held.
func (f *Focus) Revoke() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.held {
		return false
	}
	f.held = false
	for _, fn := range f.listeners {
		go fn()
	}
	return true
}
