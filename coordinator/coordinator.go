// Package coordinator aggregates playback across sessions and arbitrates
// audio focus and the display wake lock.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/playcore/playcore/event"
	"github.com/playcore/playcore/log"
)

// capabilityTimeout bounds a single Acquire or Release call.
const capabilityTimeout = 2 * time.Second

// Delta is one transition's change to the global counters.
// Wants flags say which capabilities the transitioning session requests.
type Delta struct {
	Playing         int
	Playable        int
	WantsAudioFocus bool
	WantsWake       bool
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Playing == 0 && d.Playable == 0
}

// Snapshot is a consistent view of the coordinator.
type Snapshot struct {
	Playing        int
	Playable       int
	FocusWanted    int
	WakeWanted     int
	AudioFocusHeld bool
	WakeHeld       bool
}

type Coordinator struct {
	mu sync.Mutex

	playing     int
	playable    int
	focusWanted int
	wakeWanted  int

	focus     Capability
	wake      Capability
	focusHeld bool
	wakeHeld  bool

	sink *event.Sink
}

// New returns a coordinator over the given capabilities. Either may be nil,
// in which case that capability is never held.
func New(focus, wake Capability) *Coordinator {
	c := &Coordinator{
		focus: focus,
		wake:  wake,
		sink:  event.NewSink(),
	}

	if n, ok := focus.(LossNotifier); ok {
		n.OnLoss(c.OnAudioFocusLost)
	}

	return c
}

// Sink carries coordinator-level events such as audioFocusLost.
func (c *Coordinator) Sink() *event.Sink {
	return c.sink
}

// ApplyDelta folds one transition into the counters and re-evaluates both capabilities.
func (c *Coordinator) ApplyDelta(d Delta) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playing = clamp("playing", c.playing+d.Playing)
	c.playable = clamp("playable", c.playable+d.Playable)
	if d.WantsAudioFocus {
		c.focusWanted = clamp("focus", c.focusWanted+d.Playing)
	}
	if d.WantsWake {
		c.wakeWanted = clamp("wake", c.wakeWanted+d.Playing)
	}

	c.focusHeld = c.reconcile(c.focus, c.focusWanted > 0, c.focusHeld)
	c.wakeHeld = c.reconcile(c.wake, c.wakeWanted > 0, c.wakeHeld)
}

// reconcile acquires or releases capability so that it is held exactly when wanted
// and returns the new held state. Callers hold c.mu.
func (c *Coordinator) reconcile(capability Capability, want, held bool) bool {
	if capability == nil || want == held {
		return held
	}

	ctx, cancel := context.WithTimeout(context.Background(), capabilityTimeout)
	defer cancel()

	if want {
		if err := capability.Acquire(ctx); err != nil {
			log.WithField("capability", capability.Name()).Warnf("acquire failed: %s", err)
			return false
		}
		log.WithField("capability", capability.Name()).Debug("acquired")
		return true
	}

	if err := capability.Release(ctx); err != nil {
		log.WithField("capability", capability.Name()).Warnf("release failed: %s", err)
	}
	log.WithField("capability", capability.Name()).Debug("released")
	return false
}

func clamp(counter string, v int) int {
	if v < 0 {
		log.WithField("counter", counter).Errorf("counter went negative (%d), clamping to zero", v)
		return 0
	}
	return v
}

// OnAudioFocusLost records that the platform revoked focus and publishes
// audioFocusLost. Sessions keep their state; the next delta that still
// wants focus acquires it again. A notice that arrives after focus was
// acquired again is stale and ignored.
func (c *Coordinator) OnAudioFocusLost() {
	c.mu.Lock()
	if n, ok := c.focus.(LossNotifier); ok && n.Held() {
		c.mu.Unlock()
		log.Debug("stale audio focus loss ignored")
		return
	}
	c.focusHeld = false
	c.mu.Unlock()

	log.Info("audio focus lost")
	c.sink.Emit(event.Event{Payload: event.AudioFocusLost{}})
}

// Snapshot returns the current counters and held flags.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Playing:        c.playing,
		Playable:       c.playable,
		FocusWanted:    c.focusWanted,
		WakeWanted:     c.wakeWanted,
		AudioFocusHeld: c.focusHeld,
		WakeHeld:       c.wakeHeld,
	}
}

// Shutdown releases whatever is still held.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.focusHeld = c.reconcile(c.focus, false, c.focusHeld)
	c.wakeHeld = c.reconcile(c.wake, false, c.wakeHeld)
}
