// Package session drives one engine instance through the playback state
// machine.
//
// Host commands and engine callbacks are both messages on the session's
// inbox and are applied one at a time, in arrival order. A transition, its
// coordinator delta and its events happen within a single message.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/playcore/playcore/coordinator"
	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/errs"
	"github.com/playcore/playcore/event"
	"github.com/playcore/playcore/log"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

// DefaultReleaseTimeout bounds the engine destroy call when Options leave it unset.
const DefaultReleaseTimeout = 3 * time.Second

// Coordinator receives one delta per transition.
type Coordinator interface {
	ApplyDelta(coordinator.Delta)
}

// Resolver turns a host URI into an engine target.
type Resolver interface {
	Resolve(ctx context.Context, uri string) (string, error)
}

// Recorder remembers the last position of a source.
type Recorder interface {
	Record(source string, position int64)
}

type Options struct {
	// Factory creates the engine. A nil Factory makes a placeholder session
	// that accepts every command and does nothing.
	Factory     engine.Factory
	Coordinator Coordinator
	// Resolver is the host context for SetSource. Without it SetSource fails
	// with resource_unavailable.
	Resolver Resolver
	Recorder Recorder

	ReleaseTimeout    time.Duration
	RequestAudioFocus bool
	RequestScreenOn   bool
}

// Geometry is the video shape last reported by the engine.
type Geometry struct {
	Width    int
	Height   int
	SarNum   int
	SarDen   int
	Rotation int
}

type Session struct {
	id     int64
	sink   *event.Sink
	coord  Coordinator
	opts   Options
	logger *logrus.Entry
	inbox  *inbox

	current atomic.Int32

	// Owned by the inbox goroutine.
	eng        engine.Engine
	state      State
	source     string
	surface    mo.Option[engine.Surface]
	geometry   Geometry
	wantsFocus bool
	wantsWake  bool
	// Wants captured when the session last entered Started, so the matching
	// decrement targets the same capabilities.
	activeFocus bool
	activeWake  bool
}

type noopCoordinator struct{}

func (noopCoordinator) ApplyDelta(coordinator.Delta) {}

// New creates session id and, unless opts.Factory is nil, its engine.
// Engine creation failures are reported as resource_unavailable.
func New(ctx context.Context, id int64, opts Options) (*Session, error) {
	if opts.ReleaseTimeout <= 0 {
		opts.ReleaseTimeout = DefaultReleaseTimeout
	}

	s := &Session{
		id:         id,
		sink:       event.NewSink(),
		coord:      opts.Coordinator,
		opts:       opts,
		logger:     log.Session(id),
		inbox:      newInbox(),
		state:      Idle,
		geometry:   Geometry{Rotation: -1},
		wantsFocus: opts.RequestAudioFocus,
		wantsWake:  opts.RequestScreenOn,
	}
	if s.coord == nil {
		s.coord = noopCoordinator{}
	}

	if opts.Factory == nil {
		s.logger.Debug("placeholder session created")
		return s, nil
	}

	// The factory honours ctx; waiting on it here could orphan a created engine.
	err := s.do(context.Background(), "create", func() error {
		eng, err := opts.Factory.New(ctx, s)
		if err != nil {
			return errs.Unavailable("create", err)
		}
		s.eng = eng

		for _, opt := range engine.Defaults {
			if err := eng.SetOption(ctx, opt); err != nil {
				s.logger.Warnf("default option %s=%s rejected: %s", opt.Name, opt.Value, err)
			}
		}
		return nil
	})
	if err != nil {
		s.inbox.close()
		return nil, err
	}

	s.logger.WithField("engine", opts.Factory.Name()).Debug("session created")
	return s, nil
}

func (s *Session) ID() int64 {
	return s.id
}

// State returns the most recently applied state. It may lag queued messages.
func (s *Session) State() State {
	return State(s.current.Load())
}

// Placeholder reports whether the session has no engine.
func (s *Session) Placeholder() bool {
	return s.opts.Factory == nil
}

func (s *Session) Sink() *event.Sink {
	return s.sink
}

// AttachConsumer flushes buffered events to c and delivers later ones live.
func (s *Session) AttachConsumer(c event.Consumer) {
	s.sink.Attach(c)
}

func (s *Session) DetachConsumer() {
	s.sink.Detach()
}

// Claims on a queued command; whoever moves it off pending decides its fate.
const (
	pending int32 = iota
	running
	abandoned
)

// do runs fn on the inbox and waits for its result or for ctx. A command
// whose caller gave up before its turn is skipped, so a timed out command
// has no effect. Once fn has started the caller waits for it.
func (s *Session) do(ctx context.Context, op string, fn func() error) error {
	var claim atomic.Int32
	result := make(chan error, 1)
	pushed := s.inbox.push(func() {
		if !claim.CompareAndSwap(pending, running) {
			return
		}
		result <- fn()
	})
	if !pushed {
		return errs.Invalid(op, "session %d released", s.id)
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		if claim.CompareAndSwap(pending, abandoned) {
			s.logger.Debugf("%s abandoned before its turn", op)
			return errs.Timeout(op, "waiting for session %d: %s", s.id, ctx.Err())
		}
		return <-result
	}
}

// command runs fn on the inbox after rejecting End. Placeholder sessions
// skip fn and succeed.
func (s *Session) command(ctx context.Context, op string, fn func() error) error {
	return s.do(ctx, op, func() error {
		if s.state == End {
			return errs.Invalid(op, "session %d released", s.id)
		}
		if s.eng == nil {
			return nil
		}
		return fn()
	})
}

// require rejects the command unless the session is in one of states.
func (s *Session) require(op string, states ...State) error {
	if s.state.in(states...) {
		return nil
	}
	return errs.Invalid(op, "not allowed in %s", s.state)
}

// transition moves to state to and applies its one coordinator delta.
// Callers run on the inbox.
func (s *Session) transition(to State) {
	from := s.state
	if from == to {
		return
	}

	s.state = to
	s.current.Store(int32(to))

	var d coordinator.Delta
	switch {
	case to.playing() && !from.playing():
		s.activeFocus, s.activeWake = s.wantsFocus, s.wantsWake
		d.Playing = 1
	case !to.playing() && from.playing():
		d.Playing = -1
	}
	switch {
	case to.playable() && !from.playable():
		d.Playable = 1
	case !to.playable() && from.playable():
		d.Playable = -1
	}
	d.WantsAudioFocus = s.activeFocus
	d.WantsWake = s.activeWake

	s.coord.ApplyDelta(d)

	s.logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("state changed")
	s.emit(event.StateChanged{NewState: int(to), State: to.String()})
}

func (s *Session) emit(p event.Payload) {
	s.sink.Emit(event.Event{SessionID: s.id, Payload: p})
}
