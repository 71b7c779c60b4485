package session

import (
	"context"
	"errors"
	"strconv"

	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/errs"
	"github.com/samber/mo"
)

// Host option names accepted with engine.CategoryHost.
const (
	HostRequestAudioFocus = "request-audiofocus"
	HostRequestScreenOn   = "request-screenon"
)

// SetSource resolves uri and hands it to the engine. Allowed in every state but End.
func (s *Session) SetSource(ctx context.Context, uri string) error {
	const op = "setSource"
	return s.command(ctx, op, func() error {
		if s.opts.Resolver == nil {
			return errs.Unavailable(op, errors.New("no host context to resolve sources"))
		}

		target, err := s.opts.Resolver.Resolve(ctx, uri)
		if err != nil {
			if errs.Code(err) != "" {
				return err
			}
			return errs.Unavailable(op, err)
		}

		if err := s.eng.SetSource(ctx, target); err != nil {
			return errs.Engine(op, err)
		}

		s.source = uri
		s.transition(Initialized)
		return nil
	})
}

func (s *Session) PrepareAsync(ctx context.Context) error {
	const op = "prepareAsync"
	return s.command(ctx, op, func() error {
		if err := s.require(op, Initialized); err != nil {
			return err
		}
		if err := s.eng.Prepare(ctx); err != nil {
			return errs.Engine(op, err)
		}
		s.transition(Preparing)
		return nil
	})
}

func (s *Session) Start(ctx context.Context) error {
	const op = "start"
	return s.command(ctx, op, func() error {
		if err := s.require(op, Prepared, Paused, Completed); err != nil {
			return err
		}
		if err := s.eng.Start(ctx); err != nil {
			return errs.Engine(op, err)
		}
		s.transition(Started)
		return nil
	})
}

func (s *Session) Pause(ctx context.Context) error {
	const op = "pause"
	return s.command(ctx, op, func() error {
		if err := s.require(op, Started); err != nil {
			return err
		}
		if err := s.eng.Pause(ctx); err != nil {
			return errs.Engine(op, err)
		}
		s.transition(Paused)
		return nil
	})
}

func (s *Session) Stop(ctx context.Context) error {
	const op = "stop"
	return s.command(ctx, op, func() error {
		if err := s.require(op, Prepared, Started, Paused, Completed); err != nil {
			return err
		}
		s.recordPosition(ctx)
		if err := s.eng.Stop(ctx); err != nil {
			return errs.Engine(op, err)
		}
		s.transition(Stopped)
		return nil
	})
}

// Reset returns the session to Idle and forgets source and geometry.
func (s *Session) Reset(ctx context.Context) error {
	const op = "reset"
	return s.command(ctx, op, func() error {
		if err := s.eng.Reset(ctx); err != nil {
			return errs.Engine(op, err)
		}
		s.source = ""
		s.geometry = Geometry{Rotation: -1}
		s.transition(Idle)
		return nil
	})
}

// SeekTo forwards a seek. A completed session moves to Paused once the engine
// accepts the seek; a rejected seek leaves it Completed.
func (s *Session) SeekTo(ctx context.Context, ms int64) error {
	const op = "seekTo"
	return s.command(ctx, op, func() error {
		if err := s.require(op, Prepared, Started, Paused, Completed); err != nil {
			return err
		}
		if err := s.eng.SeekTo(ctx, ms); err != nil {
			return errs.Engine(op, err)
		}
		if s.state == Completed {
			s.transition(Paused)
		}
		return nil
	})
}

// forward runs a pure engine call; it changes no state.
func (s *Session) forward(ctx context.Context, op string, fn func() error) error {
	return s.command(ctx, op, func() error {
		if err := fn(); err != nil {
			return errs.Engine(op, err)
		}
		return nil
	})
}

func (s *Session) SetVolume(ctx context.Context, left, right float64) error {
	return s.forward(ctx, "setVolume", func() error {
		return s.eng.SetVolume(ctx, left, right)
	})
}

func (s *Session) SetLoopCount(ctx context.Context, count int) error {
	return s.forward(ctx, "setLoopCount", func() error {
		return s.eng.SetLoopCount(ctx, count)
	})
}

func (s *Session) SetSpeed(ctx context.Context, speed float64) error {
	return s.forward(ctx, "setSpeed", func() error {
		return s.eng.SetSpeed(ctx, speed)
	})
}

func (s *Session) CurrentPosition(ctx context.Context) (int64, error) {
	var pos int64
	err := s.forward(ctx, "currentPosition", func() (err error) {
		pos, err = s.eng.CurrentPosition(ctx)
		return err
	})
	return pos, err
}

func (s *Session) Duration(ctx context.Context) (int64, error) {
	var d int64
	err := s.forward(ctx, "duration", func() (err error) {
		d, err = s.eng.Duration(ctx)
		return err
	})
	return d, err
}

func (s *Session) VideoWidth(ctx context.Context) (int, error) {
	w, _, err := s.videoSize(ctx, "videoWidth")
	return w, err
}

func (s *Session) VideoHeight(ctx context.Context) (int, error) {
	_, h, err := s.videoSize(ctx, "videoHeight")
	return h, err
}

func (s *Session) videoSize(ctx context.Context, op string) (w, h int, err error) {
	err = s.forward(ctx, op, func() (err error) {
		w, h, err = s.eng.VideoSize(ctx)
		return err
	})
	return w, h, err
}

// SetOption applies an option. Host options configure the session itself,
// also on placeholder sessions; other categories go to the engine.
func (s *Session) SetOption(ctx context.Context, opt engine.Option) error {
	const op = "setOption"
	if opt.Category != engine.CategoryHost {
		return s.forward(ctx, op, func() error {
			return s.eng.SetOption(ctx, opt)
		})
	}

	return s.do(ctx, op, func() error {
		if s.state == End {
			return errs.Invalid(op, "session %d released", s.id)
		}

		n, err := strconv.Atoi(opt.Value)
		if err != nil {
			s.logger.Warnf("host option %s: %q is not an integer, ignored", opt.Name, opt.Value)
			return nil
		}

		switch opt.Name {
		case HostRequestAudioFocus:
			s.wantsFocus = n == 1
		case HostRequestScreenOn:
			s.wantsWake = n == 1
		default:
			s.logger.Debugf("host option %s ignored", opt.Name)
		}
		return nil
	})
}

// AttachSurface hands a render target to the engine. A nil surface detaches
// the current one without releasing it.
func (s *Session) AttachSurface(ctx context.Context, surface engine.Surface) error {
	const op = "attachSurface"
	return s.do(ctx, op, func() error {
		if s.state == End {
			return errs.Invalid(op, "session %d released", s.id)
		}
		if s.eng != nil {
			if err := s.eng.SetSurface(ctx, surface); err != nil {
				return errs.Engine(op, err)
			}
		}
		if surface == nil {
			s.surface = mo.None[engine.Surface]()
		} else {
			s.surface = mo.Some(surface)
		}
		return nil
	})
}

// Geometry returns the last reported video shape.
func (s *Session) Geometry(ctx context.Context) (Geometry, error) {
	var g Geometry
	err := s.do(ctx, "geometry", func() error {
		g = s.geometry
		return nil
	})
	return g, err
}

// Source returns the uri given to the last successful SetSource.
func (s *Session) Source(ctx context.Context) (string, error) {
	var src string
	err := s.do(ctx, "source", func() error {
		src = s.source
		return nil
	})
	return src, err
}

func (s *Session) recordPosition(ctx context.Context) {
	if s.opts.Recorder == nil || s.source == "" || !s.state.playable() {
		return
	}
	pos, err := s.eng.CurrentPosition(ctx)
	if err != nil {
		s.logger.Warnf("position for history: %s", err)
		return
	}
	s.opts.Recorder.Record(s.source, pos)
}
