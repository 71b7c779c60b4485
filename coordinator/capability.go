package coordinator

import "context"

//go:generate mockgen -destination=mock_capability_test.go -package=coordinator . Capability

// Capability is an exclusive platform resource such as audio focus or a
// display wake lock. Only the Coordinator calls Acquire and Release.
type Capability interface {
	Name() string
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// LossNotifier is implemented by capabilities the platform can revoke.
// The callback may run on any goroutine but never from inside Acquire or
// Release, and it may arrive after the capability was acquired again. Held
// reports the platform's current view so such late notices can be told apart.
type LossNotifier interface {
	OnLoss(func())
	Held() bool
}
