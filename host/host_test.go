package host

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/playcore/playcore/constant"
	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/engine/memory"
	"github.com/playcore/playcore/errs"
	"github.com/playcore/playcore/event"
	"github.com/playcore/playcore/platform"
	"github.com/playcore/playcore/session"
	. "github.com/smartystreets/goconvey/convey"
)

type passthrough struct{}

func (passthrough) Resolve(_ context.Context, uri string) (string, error) { return uri, nil }

func newHost(focus *platform.Focus, mem memory.Options) *Host {
	return New(Options{
		Factory:  memory.NewFactory(mem),
		Focus:    focus,
		Resolver: passthrough{},
		Session:  session.Options{RequestAudioFocus: true},
	})
}

// events collects a session's events on a channel.
func events(h *Host, id int64) chan event.Event {
	ch := make(chan event.Event, 64)
	So(h.AttachConsumer(id, event.ConsumerFunc(func(e event.Event) { ch <- e })), ShouldBeNil)
	return ch
}

func await(ch chan event.Event, name string) bool {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Payload.Name() == name {
				return true
			}
		case <-timeout:
			return false
		}
	}
}

func playing(ctx context.Context, h *Host) int64 {
	id, err := h.Create(ctx)
	So(err, ShouldBeNil)
	ch := events(h, id)
	So(h.SetSource(ctx, id, "https://example.com/a.mp4"), ShouldBeNil)
	So(h.PrepareAsync(ctx, id), ShouldBeNil)
	So(await(ch, "prepared"), ShouldBeTrue)
	So(h.Start(ctx, id), ShouldBeNil)
	return id
}

func TestHost(t *testing.T) {
	ctx := context.Background()

	Convey("Given a host over the memory engine", t, func() {
		focus := platform.NewFocus()
		h := newHost(focus, memory.Options{Duration: 60_000, Width: 640, Height: 360})

		Convey("Unknown ids fail with not_found", func() {
			err := h.Start(ctx, 999)
			So(errs.Is(err, errs.NotFound), ShouldBeTrue)

			code, msg := Reply(err)
			So(code, ShouldEqual, "not_found")
			So(msg, ShouldContainSubstring, "999")

			_, err = h.Duration(ctx, 999)
			So(errs.Is(err, errs.NotFound), ShouldBeTrue)
			So(errs.Is(h.Release(ctx, 999), errs.NotFound), ShouldBeTrue)
			So(errs.Is(h.DetachConsumer(999), errs.NotFound), ShouldBeTrue)
		})

		Convey("Ids are distinct and listed in order", func() {
			a, err := h.Create(ctx)
			So(err, ShouldBeNil)
			b, err := h.Create(ctx)
			So(err, ShouldBeNil)
			So(b, ShouldBeGreaterThan, a)
			So(h.Sessions(), ShouldResemble, []int64{a, b})
		})

		Convey("A playing session holds audio focus", func() {
			id := playing(ctx, h)
			So(focus.Held(), ShouldBeTrue)
			So(h.Coordinator().Snapshot().Playing, ShouldEqual, 1)

			pos, err := h.CurrentPosition(ctx, id)
			So(err, ShouldBeNil)
			So(pos, ShouldBeGreaterThanOrEqualTo, 0)

			w, err := h.VideoWidth(ctx, id)
			So(err, ShouldBeNil)
			So(w, ShouldEqual, 640)
			height, err := h.VideoHeight(ctx, id)
			So(err, ShouldBeNil)
			So(height, ShouldEqual, 360)

			Convey("and gives it back on pause", func() {
				So(h.Pause(ctx, id), ShouldBeNil)
				So(focus.Held(), ShouldBeFalse)
				So(h.Coordinator().Snapshot().Playable, ShouldEqual, 1)
			})

			Convey("and keeps it while another session plays", func() {
				other := playing(ctx, h)
				So(h.Release(ctx, id), ShouldBeNil)
				So(focus.Held(), ShouldBeTrue)
				So(h.Release(ctx, other), ShouldBeNil)
				So(focus.Held(), ShouldBeFalse)
			})

			Convey("and stopping sessions one by one reconciles focus", func() {
				other := playing(ctx, h)
				So(h.Coordinator().Snapshot().Playing, ShouldEqual, 2)

				So(h.Stop(ctx, id), ShouldBeNil)
				So(h.Coordinator().Snapshot().Playing, ShouldEqual, 1)
				So(focus.Held(), ShouldBeTrue)

				So(h.Stop(ctx, other), ShouldBeNil)
				So(h.Coordinator().Snapshot().Playing, ShouldEqual, 0)
				So(h.Coordinator().Snapshot().Playable, ShouldEqual, 0)
				So(focus.Held(), ShouldBeFalse)
			})

			Convey("and a revoked focus is reported on the coordinator sink", func() {
				lost := make(chan event.Event, 1)
				h.AttachCoordinatorConsumer(event.ConsumerFunc(func(e event.Event) { lost <- e }))
				So(focus.Revoke(), ShouldBeTrue)

				select {
				case e := <-lost:
					So(e.Payload, ShouldResemble, event.AudioFocusLost{})
				case <-time.After(2 * time.Second):
					So("audioFocusLost", ShouldBeEmpty)
				}

				s, err := h.Session(id)
				So(err, ShouldBeNil)
				So(s.State(), ShouldEqual, session.Started)
			})
		})

		Convey("The host option turns the focus request off", func() {
			id, err := h.Create(ctx)
			So(err, ShouldBeNil)
			So(h.SetOption(ctx, id, engine.CategoryHost, session.HostRequestAudioFocus, "0"), ShouldBeNil)

			ch := events(h, id)
			So(h.SetSource(ctx, id, "https://example.com/a.mp4"), ShouldBeNil)
			So(h.PrepareAsync(ctx, id), ShouldBeNil)
			So(await(ch, "prepared"), ShouldBeTrue)
			So(h.Start(ctx, id), ShouldBeNil)
			So(focus.Held(), ShouldBeFalse)
			So(h.Coordinator().Snapshot().Playing, ShouldEqual, 1)
		})

		Convey("Invalid transitions carry invalid_state", func() {
			id, err := h.Create(ctx)
			So(err, ShouldBeNil)
			code, _ := Reply(h.Start(ctx, id))
			So(code, ShouldEqual, "invalid_state")
		})

		Convey("A released id is gone", func() {
			id, err := h.Create(ctx)
			So(err, ShouldBeNil)
			So(h.Release(ctx, id), ShouldBeNil)
			So(errs.Is(h.Release(ctx, id), errs.NotFound), ShouldBeTrue)
			So(errs.Is(h.Start(ctx, id), errs.NotFound), ShouldBeTrue)
		})

		Convey("ReleaseAll empties the host and drops focus", func() {
			playing(ctx, h)
			playing(ctx, h)
			So(h.ReleaseAll(ctx), ShouldBeNil)
			So(h.Sessions(), ShouldBeEmpty)
			So(focus.Held(), ShouldBeFalse)
			So(h.Coordinator().Snapshot().Playing, ShouldEqual, 0)
		})

		Convey("Probe succeeds and leaves no session behind", func() {
			So(h.Probe(ctx), ShouldBeNil)
			So(h.Sessions(), ShouldBeEmpty)
		})
	})

	Convey("Probe reports an unavailable backend", t, func() {
		h := newHost(platform.NewFocus(), memory.Options{UnavailableError: errors.New("no libmpv")})
		code, msg := Reply(h.Probe(ctx))
		So(code, ShouldEqual, "resource_unavailable")
		So(msg, ShouldContainSubstring, "no libmpv")
	})

	Convey("Reply of success is empty", t, func() {
		code, msg := Reply(nil)
		So(code, ShouldBeEmpty)
		So(msg, ShouldBeEmpty)
	})
}

func TestFactoryFor(t *testing.T) {
	Convey("Known engines resolve by name", t, func() {
		for _, name := range Engines {
			f, err := FactoryFor(name)
			So(err, ShouldBeNil)
			So(f.Name(), ShouldEqual, name)
		}
	})

	Convey("Unknown engines are rejected", t, func() {
		_, err := FactoryFor("vlc")
		So(err, ShouldNotBeNil)
	})

	Convey("The memory engine is always available", t, func() {
		f, err := FactoryFor(constant.EngineMemory)
		So(err, ShouldBeNil)
		So(f.Available(context.Background()), ShouldBeNil)
	})
}

// interleave drives random commands over several sessions and checks after
// every step that the playing counter and focus match the session states.
func interleave(ctx context.Context, h *Host, focus *platform.Focus, rng *rand.Rand, steps int) {
	prepared := make(map[int64]chan struct{})
	var live []int64

	for step := 0; step < steps; step++ {
		if len(live) == 0 || rng.Intn(8) == 0 {
			id, err := h.Create(ctx)
			So(err, ShouldBeNil)
			ch := make(chan struct{}, 1)
			So(h.AttachConsumer(id, event.ConsumerFunc(func(e event.Event) {
				if e.Payload.Name() == "prepared" {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			})), ShouldBeNil)
			prepared[id] = ch
			live = append(live, id)
			continue
		}

		i := rng.Intn(len(live))
		id := live[i]
		switch rng.Intn(6) {
		case 0, 1:
			select {
			case <-prepared[id]:
			default:
			}
			if h.SetSource(ctx, id, "https://example.com/a.mp4") == nil && h.PrepareAsync(ctx, id) == nil {
				select {
				case <-prepared[id]:
				case <-time.After(2 * time.Second):
					So("prepared", ShouldBeEmpty)
				}
			}
		case 2:
			_ = h.Start(ctx, id)
		case 3:
			_ = h.Pause(ctx, id)
		case 4:
			_ = h.Stop(ctx, id)
		case 5:
			if rng.Intn(3) == 0 {
				So(h.Release(ctx, id), ShouldBeNil)
				delete(prepared, id)
				live = append(live[:i], live[i+1:]...)
			} else {
				_ = h.Start(ctx, id)
			}
		}

		var started int
		for _, other := range live {
			s, err := h.Session(other)
			So(err, ShouldBeNil)
			if s.State() == session.Started {
				started++
			}
		}
		snap := h.Coordinator().Snapshot()
		So(snap.Playing, ShouldEqual, started)
		So(focus.Held(), ShouldEqual, started > 0)
	}

	So(h.ReleaseAll(ctx), ShouldBeNil)
	So(h.Coordinator().Snapshot().Playing, ShouldEqual, 0)
	So(focus.Held(), ShouldBeFalse)
}

func TestInterleavedSessions(t *testing.T) {
	ctx := context.Background()

	for _, seed := range []int64{1, 7, 42, 2024} {
		Convey(fmt.Sprintf("Random commands with seed %d keep focus in step with playing sessions", seed), t, func() {
			focus := platform.NewFocus()
			h := newHost(focus, memory.Options{})
			interleave(ctx, h, focus, rand.New(rand.NewSource(seed)), 120)
		})
	}
}
