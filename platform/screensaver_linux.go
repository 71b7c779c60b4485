//go:build linux

package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/playcore/playcore/constant"
)

const (
	screenSaverBusName    = "org.freedesktop.ScreenSaver"
	screenSaverObjectPath = "/org/freedesktop/ScreenSaver"
	screenSaverInterface  = "org.freedesktop.ScreenSaver"
)

// ScreenSaver inhibits the session screensaver over D-Bus.
type ScreenSaver struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	cookie uint32
	held   bool
}

func newScreenSaver() (Lock, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &ScreenSaver{conn: conn}, nil
}

func (s *ScreenSaver) Name() string {
	return "screensaver-inhibit"
}

func (s *ScreenSaver) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held {
		return nil
	}

	var cookie uint32
	err := s.conn.Object(screenSaverBusName, dbus.ObjectPath(screenSaverObjectPath)).
		CallWithContext(ctx, screenSaverInterface+".Inhibit", 0, constant.Playcore, "media playback").
		Store(&cookie)
	if err != nil {
		return fmt.Errorf("inhibit screensaver: %w", err)
	}

	s.cookie = cookie
	s.held = true
	return nil
}

func (s *ScreenSaver) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.held {
		return nil
	}

	call := s.conn.Object(screenSaverBusName, dbus.ObjectPath(screenSaverObjectPath)).
		CallWithContext(ctx, screenSaverInterface+".UnInhibit", 0, s.cookie)
	s.held = false
	if call.Err != nil {
		return fmt.Errorf("uninhibit screensaver: %w", call.Err)
	}
	return nil
}
