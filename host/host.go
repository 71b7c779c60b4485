// Package host is the surface an embedding application talks to: sessions
// are addressed by id and every failure carries a code.
package host

import (
	"context"

	"github.com/playcore/playcore/coordinator"
	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/errs"
	"github.com/playcore/playcore/event"
	"github.com/playcore/playcore/log"
	"github.com/playcore/playcore/registry"
	"github.com/playcore/playcore/session"
)

// Options wire a Host. Focus and Wake may be nil.
type Options struct {
	Factory  engine.Factory
	Focus    coordinator.Capability
	Wake     coordinator.Capability
	Resolver session.Resolver
	Recorder session.Recorder

	Session session.Options
}

type Host struct {
	registry    *registry.Registry
	coordinator *coordinator.Coordinator
}

// New builds a host with its own coordinator and registry.
func New(opts Options) *Host {
	coord := coordinator.New(opts.Focus, opts.Wake)

	sessionOpts := opts.Session
	sessionOpts.Factory = opts.Factory
	sessionOpts.Coordinator = coord
	sessionOpts.Resolver = opts.Resolver
	sessionOpts.Recorder = opts.Recorder

	return &Host{
		registry:    registry.New(sessionOpts),
		coordinator: coord,
	}
}

// Reply converts a command result into the (code, message) pair reported to
// the embedding application. A nil error has an empty code.
func Reply(err error) (code, message string) {
	if err == nil {
		return "", ""
	}
	return string(errs.Code(err)), err.Error()
}

func (h *Host) Coordinator() *coordinator.Coordinator {
	return h.coordinator
}

// Create registers a new session and returns its id.
func (h *Host) Create(ctx context.Context) (int64, error) {
	return h.registry.Create(ctx)
}

// CreateWith is Create with explicit audio focus and screen-on requests.
func (h *Host) CreateWith(ctx context.Context, requestAudioFocus, requestScreenOn bool) (int64, error) {
	return h.registry.CreateWith(ctx, requestAudioFocus, requestScreenOn)
}

func (h *Host) Release(ctx context.Context, id int64) error {
	return h.registry.Release(ctx, id)
}

// Session returns the live session id.
func (h *Host) Session(id int64) (*session.Session, error) {
	return h.registry.Get(id)
}

// Sessions returns the live ids in ascending order.
func (h *Host) Sessions() []int64 {
	return h.registry.IDs()
}

func (h *Host) with(id int64, fn func(*session.Session) error) error {
	s, err := h.registry.Get(id)
	if err != nil {
		return err
	}
	return fn(s)
}

func (h *Host) SetSource(ctx context.Context, id int64, uri string) error {
	return h.with(id, func(s *session.Session) error { return s.SetSource(ctx, uri) })
}

func (h *Host) PrepareAsync(ctx context.Context, id int64) error {
	return h.with(id, func(s *session.Session) error { return s.PrepareAsync(ctx) })
}

func (h *Host) Start(ctx context.Context, id int64) error {
	return h.with(id, func(s *session.Session) error { return s.Start(ctx) })
}

func (h *Host) Pause(ctx context.Context, id int64) error {
	return h.with(id, func(s *session.Session) error { return s.Pause(ctx) })
}

func (h *Host) Stop(ctx context.Context, id int64) error {
	return h.with(id, func(s *session.Session) error { return s.Stop(ctx) })
}

func (h *Host) Reset(ctx context.Context, id int64) error {
	return h.with(id, func(s *session.Session) error { return s.Reset(ctx) })
}

func (h *Host) SeekTo(ctx context.Context, id int64, ms int64) error {
	return h.with(id, func(s *session.Session) error { return s.SeekTo(ctx, ms) })
}

func (h *Host) SetVolume(ctx context.Context, id int64, left, right float64) error {
	return h.with(id, func(s *session.Session) error { return s.SetVolume(ctx, left, right) })
}

func (h *Host) SetLoopCount(ctx context.Context, id int64, count int) error {
	return h.with(id, func(s *session.Session) error { return s.SetLoopCount(ctx, count) })
}

func (h *Host) SetSpeed(ctx context.Context, id int64, speed float64) error {
	return h.with(id, func(s *session.Session) error { return s.SetSpeed(ctx, speed) })
}

func (h *Host) CurrentPosition(ctx context.Context, id int64) (pos int64, err error) {
	err = h.with(id, func(s *session.Session) error {
		pos, err = s.CurrentPosition(ctx)
		return err
	})
	return pos, err
}

func (h *Host) Duration(ctx context.Context, id int64) (d int64, err error) {
	err = h.with(id, func(s *session.Session) error {
		d, err = s.Duration(ctx)
		return err
	})
	return d, err
}

func (h *Host) VideoWidth(ctx context.Context, id int64) (w int, err error) {
	err = h.with(id, func(s *session.Session) error {
		w, err = s.VideoWidth(ctx)
		return err
	})
	return w, err
}

func (h *Host) VideoHeight(ctx context.Context, id int64) (height int, err error) {
	err = h.with(id, func(s *session.Session) error {
		height, err = s.VideoHeight(ctx)
		return err
	})
	return height, err
}

// SetOption applies a categorised option. Host category keys configure the
// session; the rest reach the engine.
func (h *Host) SetOption(ctx context.Context, id int64, category engine.Category, name, value string) error {
	opt := engine.Option{Category: category, Name: name, Value: value}
	return h.with(id, func(s *session.Session) error { return s.SetOption(ctx, opt) })
}

// AttachSurface gives session id a render target; nil detaches it.
func (h *Host) AttachSurface(ctx context.Context, id int64, surface engine.Surface) error {
	return h.with(id, func(s *session.Session) error { return s.AttachSurface(ctx, surface) })
}

func (h *Host) AttachConsumer(id int64, c event.Consumer) error {
	return h.with(id, func(s *session.Session) error {
		s.AttachConsumer(c)
		return nil
	})
}

func (h *Host) DetachConsumer(id int64) error {
	return h.with(id, func(s *session.Session) error {
		s.DetachConsumer()
		return nil
	})
}

// AttachCoordinatorConsumer receives process-wide events such as audioFocusLost.
func (h *Host) AttachCoordinatorConsumer(c event.Consumer) {
	h.coordinator.Sink().Attach(c)
}

// ReleaseAll tears down every session and then drops any capability still
// held. It is called when the embedding application goes away.
func (h *Host) ReleaseAll(ctx context.Context) error {
	err := h.registry.ReleaseAll(ctx)
	h.coordinator.Shutdown()
	if err != nil {
		log.Warnf("release all: %s", err)
	}
	return err
}

// Probe verifies that the configured engine backend can be used.
func (h *Host) Probe(ctx context.Context) error {
	return h.registry.Probe(ctx)
}
