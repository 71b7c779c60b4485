package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playcore/playcore/engine"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeMPV answers IPC requests on a unix socket with reply(command).
type fakeMPV struct {
	path     string
	ln       net.Listener
	accepted atomic.Int32
	reply    func(command []any) (data any, errText string)
	// before is written ahead of every reply, to simulate broadcast events.
	before []string
}

func newFakeMPV(t *testing.T) *fakeMPV {
	dir, err := os.MkdirTemp("", "pc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	f := &fakeMPV{path: path, ln: ln}
	go f.serve()
	return f
}

func (f *fakeMPV) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.accepted.Add(1)
		go f.handle(conn)
	}
}

func (f *fakeMPV) handle(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd ipcCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			return
		}
		for _, line := range f.before {
			conn.Write([]byte(line + "\n"))
		}
		data, errText := f.reply(cmd.Command)
		if errText == "" {
			errText = "success"
		}
		out, _ := json.Marshal(map[string]any{"data": data, "error": errText, "request_id": cmd.RequestID})
		conn.Write(append(out, '\n'))
	}
}

func TestIPC(t *testing.T) {
	ctx := context.Background()

	Convey("Given an mpv socket", t, func() {
		fake := newFakeMPV(t)

		Convey("Replies are matched past broadcast events", func() {
			fake.before = []string{`{"event":"playback-restart"}`}
			var got atomic.Value
			fake.reply = func(command []any) (any, string) {
				got.Store(command)
				return 12.5, ""
			}

			e := &Engine{socketPath: fake.path}
			pos, err := e.CurrentPosition(ctx)
			So(err, ShouldBeNil)
			So(pos, ShouldEqual, 12_500)
			So(got.Load(), ShouldResemble, []any{"get_property", "time-pos"})
		})

		Convey("Unavailable properties read as zero without retries", func() {
			fake.reply = func([]any) (any, string) { return nil, "property unavailable" }

			e := &Engine{socketPath: fake.path}
			d, err := e.Duration(ctx)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 0)
			So(fake.accepted.Load(), ShouldEqual, 1)
		})

		Convey("mpv errors are returned as is", func() {
			fake.reply = func([]any) (any, string) { return nil, "invalid parameter" }

			_, err := sendCommand(ctx, fake.path, "set_property", "speed", -1)
			var replyErr *mpvError
			So(errors.As(err, &replyErr), ShouldBeTrue)
			So(fake.accepted.Load(), ShouldEqual, 1)
		})

		Convey("Commands carry the mapped values", func() {
			var mu sync.Mutex
			var got [][]any
			fake.reply = func(command []any) (any, string) {
				mu.Lock()
				got = append(got, command)
				mu.Unlock()
				return nil, ""
			}

			e := &Engine{socketPath: fake.path, translator: newTranslator()}
			So(e.SetVolume(ctx, 0.5, 1), ShouldBeNil)
			So(e.SetLoopCount(ctx, 3), ShouldBeNil)
			So(e.SeekTo(ctx, 1500), ShouldBeNil)
			So(e.SetOption(ctx, engine.Option{Category: engine.CategoryFormat, Name: "probesize", Value: "32"}), ShouldBeNil)
			So(e.SetOption(ctx, engine.Defaults[0]), ShouldBeNil)

			mu.Lock()
			defer mu.Unlock()
			So(got, ShouldHaveLength, 4)
			So(got[0], ShouldResemble, []any{"set_property", "volume", 75.0})
			So(got[1], ShouldResemble, []any{"set_property", "loop-file", "2"})
			So(got[2], ShouldResemble, []any{"seek", 1.5, "absolute"})
			So(got[3], ShouldResemble, []any{"change-list", "demuxer-lavf-o", "append", "probesize=32"})
		})

		Convey("Prepare needs a source", func() {
			e := &Engine{socketPath: fake.path, translator: newTranslator()}
			So(e.Prepare(ctx), ShouldNotBeNil)
		})
	})

	Convey("A missing socket fails after the retries", t, func() {
		_, err := sendCommand(ctx, filepath.Join(os.TempDir(), "playcore-missing.sock"), "get_property", "pid")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "after 3 attempts")
	})
}

func TestEventListener(t *testing.T) {
	Convey("Given an mpv socket that pushes events", t, func() {
		dir, err := os.MkdirTemp("", "pc")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "events.sock")

		ln, err := net.Listen("unix", path)
		So(err, ShouldBeNil)
		defer ln.Close()

		observed := make(chan string, 4)
		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			scanner := bufio.NewScanner(conn)
			for i := 0; i < len(observedProperties) && scanner.Scan(); i++ {
				observed <- scanner.Text()
			}
			conn.Write([]byte(`{"event":"file-loaded"}` + "\n"))
			conn.Write([]byte(`{"event":"property-change","id":2,"name":"video-params","data":{"w":1920,"h":1080,"par":1.0,"rotate":90}}` + "\n"))
			conn.Write([]byte(`{"event":"end-file","reason":"eof"}` + "\n"))
			time.Sleep(200 * time.Millisecond)
		}()

		got := make(chan engine.Callback, 8)
		el := newEventListener(path, newTranslator(), func(cb engine.Callback) { got <- cb })
		So(el.start(context.Background()), ShouldBeNil)
		defer el.stop()

		Convey("Properties are observed on the event connection", func() {
			So(<-observed, ShouldContainSubstring, "cache-buffering-state")
			So(<-observed, ShouldContainSubstring, "video-params")
		})

		Convey("Events arrive as callbacks in order", func() {
			var cbs []engine.Callback
			timeout := time.After(2 * time.Second)
			for len(cbs) < 4 {
				select {
				case cb := <-got:
					cbs = append(cbs, cb)
				case <-timeout:
					So(len(cbs), ShouldEqual, 4)
					return
				}
			}
			So(cbs[0], ShouldResemble, engine.Prepared{})
			So(cbs[1], ShouldResemble, engine.VideoSizeChanged{Width: 1920, Height: 1080, SarNum: 1, SarDen: 1})
			So(cbs[2], ShouldResemble, engine.Info{What: engine.InfoRotationChanged, Extra: 90})
			So(cbs[3], ShouldResemble, engine.Completed{})
		})
	})
}

func TestTranslate(t *testing.T) {
	Convey("Given a translator", t, func() {
		tr := newTranslator()

		Convey("end-file maps by reason", func() {
			So(tr.translate(ipcMessage{Event: "end-file", Reason: "eof"}), ShouldResemble, []engine.Callback{engine.Completed{}})
			So(tr.translate(ipcMessage{Event: "end-file", Reason: "error", FileError: "loading failed"}), ShouldResemble, []engine.Callback{engine.Error{What: engine.ErrorIO}})
			So(tr.translate(ipcMessage{Event: "end-file", Reason: "stop"}), ShouldBeEmpty)
		})

		Convey("playback-restart completes only an expected seek", func() {
			So(tr.translate(ipcMessage{Event: "playback-restart"}), ShouldBeEmpty)
			tr.expectSeek(4_000)
			So(tr.translate(ipcMessage{Event: "playback-restart"}), ShouldResemble, []engine.Callback{engine.SeekComplete{Position: 4_000}})
			So(tr.translate(ipcMessage{Event: "playback-restart"}), ShouldBeEmpty)
		})

		Convey("Buffering percentages are forwarded", func() {
			msg := ipcMessage{Event: "property-change", Name: "cache-buffering-state", Data: json.RawMessage("42")}
			So(tr.translate(msg), ShouldResemble, []engine.Callback{engine.BufferingUpdate{Percent: 42}})
		})

		Convey("Unchanged video params are suppressed", func() {
			msg := ipcMessage{Event: "property-change", Name: "video-params", Data: json.RawMessage(`{"w":640,"h":480,"par":1.5,"rotate":0}`)}
			first := tr.translate(msg)
			So(first, ShouldHaveLength, 2)
			So(first[0], ShouldResemble, engine.VideoSizeChanged{Width: 640, Height: 480, SarNum: 3, SarDen: 2})
			So(tr.translate(msg), ShouldBeEmpty)
		})

		Convey("Null video params are ignored", func() {
			msg := ipcMessage{Event: "property-change", Name: "video-params", Data: json.RawMessage("null")}
			So(tr.translate(msg), ShouldBeEmpty)
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("loopValue converts play counts", t, func() {
		So(loopValue(0), ShouldEqual, "inf")
		So(loopValue(1), ShouldEqual, "no")
		So(loopValue(4), ShouldEqual, "3")
	})

	Convey("spawnArgs starts mpv idle and paused on the socket", t, func() {
		args := spawnArgs("/tmp/x.sock")
		So(args, ShouldContain, "--input-ipc-server=/tmp/x.sock")
		So(args, ShouldContain, "--idle=yes")
		So(args, ShouldContain, "--pause=yes")
	})

	Convey("Available fails for a missing executable", t, func() {
		f := NewFactory("/nonexistent/mpv-binary", time.Second)
		So(f.Available(context.Background()), ShouldNotBeNil)
		_, err := f.New(context.Background(), engine.ListenerFunc(func(engine.Callback) {}))
		So(err, ShouldNotBeNil)
	})
}
