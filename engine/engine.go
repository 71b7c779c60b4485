// Package engine describes the decoding engine a session drives.
//
// Engines are opaque: they accept primitive commands and report progress
// through Callback values handed to the Listener given at creation. A
// Listener must never block, since engines may call it from any goroutine,
// including from inside a command.
package engine

import (
	"context"
	"fmt"
)

// Category scopes an option. Host options configure the session itself and
// never reach the engine.
type Category int

const (
	CategoryHost   Category = 0
	CategoryFormat Category = 1
	CategoryCodec  Category = 2
	CategorySws    Category = 3
	CategoryPlayer Category = 4
)

func (c Category) String() string {
	switch c {
	case CategoryHost:
		return "host"
	case CategoryFormat:
		return "format"
	case CategoryCodec:
		return "codec"
	case CategorySws:
		return "sws"
	case CategoryPlayer:
		return "player"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Defaults are applied as player options to every new engine handle.
var Defaults = []Option{
	{Category: CategoryPlayer, Name: "enable-position-notify", Value: "1"},
	{Category: CategoryPlayer, Name: "start-on-prepared", Value: "0"},
}

type Option struct {
	Category Category
	Name     string
	Value    string
}

// Surface is a host-owned render target. Sessions hold it without owning it
// and call Release once when the session ends.
type Surface interface {
	Handle() string
	Release()
}

// Engine is one decoder instance.
type Engine interface {
	SetSource(ctx context.Context, target string) error
	Prepare(ctx context.Context) error
	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	SeekTo(ctx context.Context, ms int64) error

	CurrentPosition(ctx context.Context) (int64, error)
	Duration(ctx context.Context) (int64, error)
	VideoSize(ctx context.Context) (width, height int, err error)

	SetVolume(ctx context.Context, left, right float64) error
	SetLoopCount(ctx context.Context, count int) error
	SetSpeed(ctx context.Context, speed float64) error
	SetOption(ctx context.Context, opt Option) error
	SetSurface(ctx context.Context, s Surface) error

	// Destroy frees the instance. No callbacks follow a successful Destroy.
	Destroy(ctx context.Context) error
}

// Listener receives engine callbacks.
type Listener interface {
	OnCallback(Callback)
}

type ListenerFunc func(Callback)

func (f ListenerFunc) OnCallback(c Callback) { f(c) }

// Factory creates engines of one backend.
type Factory interface {
	Name() string
	// Available checks the backend can be loaded at all, without creating a session.
	Available(ctx context.Context) error
	New(ctx context.Context, l Listener) (Engine, error)
}
