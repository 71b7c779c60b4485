package session

import (
	"context"

	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/event"
)

// OnCallback queues an engine callback. It never blocks.
func (s *Session) OnCallback(cb engine.Callback) {
	if !s.inbox.push(func() { s.handle(cb) }) {
		s.logger.Debugf("callback %T after release discarded", cb)
	}
}

// handle applies one engine callback on the inbox.
func (s *Session) handle(cb engine.Callback) {
	if s.state.terminal() {
		s.logger.Debugf("callback %T in %s discarded", cb, s.state)
		return
	}

	switch c := cb.(type) {
	case engine.Prepared:
		if s.state != Preparing {
			s.stale(cb)
			return
		}
		s.onPrepared()

	case engine.Completed:
		if !s.state.in(Started, Paused, Prepared) {
			s.stale(cb)
			return
		}
		s.transition(Completed)
		s.emit(event.Completed{})

	case engine.BufferingUpdate:
		s.emit(event.BufferingUpdate{Percent: c.Percent})

	case engine.SeekComplete:
		s.emit(event.SeekComplete{Position: c.Position})

	case engine.Error:
		s.logger.Warnf("engine error what=%d extra=%d in %s", c.What, c.Extra, s.state)
		s.transition(Error)
		s.emit(event.Error{Code: c.What, Extra: c.Extra})

	case engine.VideoSizeChanged:
		s.geometry.Width = c.Width
		s.geometry.Height = c.Height
		s.geometry.SarNum = c.SarNum
		s.geometry.SarDen = c.SarDen
		s.emitGeometry()

	case engine.Info:
		switch c.What {
		case engine.InfoRotationChanged:
			s.geometry.Rotation = c.Extra
			s.emitGeometry()
		default:
			s.logger.Debugf("engine info what=%d extra=%d", c.What, c.Extra)
		}

	default:
		s.logger.Warnf("unknown callback %T discarded", cb)
	}
}

func (s *Session) onPrepared() {
	ctx := context.Background()

	duration, err := s.eng.Duration(ctx)
	if err != nil {
		s.logger.Warnf("duration on prepared: %s", err)
	}

	if s.geometry.Width == 0 && s.geometry.Height == 0 {
		if w, h, err := s.eng.VideoSize(ctx); err == nil {
			s.geometry.Width, s.geometry.Height = w, h
		}
	}

	s.transition(Prepared)
	s.emit(event.Prepared{
		Duration: duration,
		Width:    s.geometry.Width,
		Height:   s.geometry.Height,
	})
}

func (s *Session) emitGeometry() {
	g := s.geometry
	s.emit(event.VideoSizeChanged{
		Width:    g.Width,
		Height:   g.Height,
		SarNum:   g.SarNum,
		SarDen:   g.SarDen,
		Rotation: g.Rotation,
	})
}

func (s *Session) stale(cb engine.Callback) {
	s.logger.Debugf("stale callback %T in %s discarded", cb, s.state)
}
