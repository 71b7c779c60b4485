package session

import (
	"context"
	"errors"
	"time"

	"github.com/playcore/playcore/errs"
)

// Release ends the session: the engine is destroyed within the release
// timeout, the surface is released, the coordinator is reconciled and the
// sink is discarded. Local cleanup always completes. Releasing twice is a no-op.
func (s *Session) Release(ctx context.Context) error {
	const op = "release"

	result := make(chan error, 1)
	if !s.inbox.push(func() { result <- s.release(op) }) {
		return nil
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return errs.Timeout(op, "waiting for session %d: %s", s.id, ctx.Err())
	}
}

// release runs on the inbox and closes it.
func (s *Session) release(op string) error {
	if s.state == End {
		return nil
	}

	var err error
	if s.eng != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ReleaseTimeout)
		s.recordPosition(ctx)
		err = s.destroy(ctx, op)
		cancel()
	}

	if surface, ok := s.surface.Get(); ok {
		surface.Release()
	}

	s.transition(End)
	dropped := s.sink.Discard()
	s.inbox.close()

	s.logger.WithField("dropped_events", dropped).Debug("session released")
	return err
}

// destroy detaches the surface and destroys the engine, giving up when ctx expires.
func (s *Session) destroy(ctx context.Context, op string) error {
	_, attached := s.surface.Get()
	done := make(chan error, 1)
	go func() {
		if attached {
			if err := s.eng.SetSurface(ctx, nil); err != nil {
				s.logger.Warnf("detach surface: %s", err)
			}
		}
		done <- s.eng.Destroy(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Errorf("engine destroy exceeded %s", s.opts.ReleaseTimeout)
		return errs.Timeout(op, "engine destroy exceeded %s", s.opts.ReleaseTimeout.Round(time.Millisecond))
	default:
		s.logger.Errorf("engine destroy: %s", err)
		return errs.Engine(op, err)
	}
}
