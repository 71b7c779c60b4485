// Package mpv drives an mpv process over its JSON IPC socket.
package mpv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playcore/playcore/constant"
	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/log"
	"github.com/playcore/playcore/where"
)

const socketPollDelay = 100 * time.Millisecond

// Factory spawns one idle mpv process per engine.
type Factory struct {
	// Path is the mpv executable, looked up in PATH when it has no separator.
	Path string
	// SocketWait bounds how long New waits for the IPC socket.
	SocketWait time.Duration
}

func NewFactory(path string, socketWait time.Duration) *Factory {
	return &Factory{Path: path, SocketWait: socketWait}
}

func (f *Factory) Name() string {
	return constant.EngineMPV
}

func (f *Factory) Available(context.Context) error {
	if _, err := exec.LookPath(f.Path); err != nil {
		return fmt.Errorf("mpv executable %q: %w", f.Path, err)
	}
	return nil
}

func (f *Factory) New(ctx context.Context, l engine.Listener) (engine.Engine, error) {
	path, err := exec.LookPath(f.Path)
	if err != nil {
		return nil, fmt.Errorf("mpv executable %q: %w", f.Path, err)
	}

	e := &Engine{
		socketPath: filepath.Join(where.Sockets(), "mpv-"+uuid.NewString()+".sock"),
		listener:   l,
		translator: newTranslator(),
		exited:     make(chan struct{}),
	}

	e.cmd = exec.Command(path, spawnArgs(e.socketPath)...)
	e.cmd.SysProcAttr = sysProcAttr()
	e.cmd.Stdout = nil
	e.cmd.Stderr = nil
	e.cmd.Stdin = nil

	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = e.cmd.Wait()
		close(e.exited)
	}()

	wait := f.SocketWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := e.waitForSocket(waitCtx); err != nil {
		log.Warnf("killing mpv: socket never became ready")
		_ = killProcess(e.cmd)
		_ = os.Remove(e.socketPath)
		return nil, fmt.Errorf("mpv socket not ready: %w", err)
	}

	e.events = newEventListener(e.socketPath, e.translator, l.OnCallback)
	if err := e.events.start(waitCtx); err != nil {
		_ = killProcess(e.cmd)
		_ = os.Remove(e.socketPath)
		return nil, err
	}

	go e.watch()
	return e, nil
}

// spawnArgs keeps the user's mpv.conf in charge of rendering; only IPC
// and idle behaviour are forced.
func spawnArgs(socketPath string) []string {
	return []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=no",
		"--pause=yes",
	}
}

// Engine is one mpv process.
type Engine struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	listener   engine.Listener
	events     *eventListener
	translator *translator

	mu         sync.Mutex
	target     string
	destroying bool
}

// watch reports an unexpected exit as a server-died error.
func (e *Engine) watch() {
	<-e.exited

	e.mu.Lock()
	destroying := e.destroying
	e.mu.Unlock()

	if !destroying {
		log.WithField("socket", e.socketPath).Warn("mpv exited unexpectedly")
		e.listener.OnCallback(engine.Error{What: engine.ErrorServer})
	}
}

func (e *Engine) waitForSocket(ctx context.Context) error {
	for {
		select {
		case <-e.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		case <-ctx.Done():
			return fmt.Errorf("socket %s: %w", e.socketPath, ctx.Err())
		case <-time.After(socketPollDelay):
		}

		conn, err := net.Dial("unix", e.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
}

func (e *Engine) send(ctx context.Context, command ...any) (json.RawMessage, error) {
	return sendCommand(ctx, e.socketPath, command...)
}

func (e *Engine) set(ctx context.Context, property string, value any) error {
	_, err := e.send(ctx, "set_property", property, value)
	return err
}

// float reads a numeric property; properties of unloaded media read as zero.
func (e *Engine) float(ctx context.Context, property string) (float64, error) {
	data, err := e.send(ctx, "get_property", property)
	if errors.Is(err, errPropertyUnavailable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("property %s: %w", property, err)
	}
	return v, nil
}

func (e *Engine) SetSource(_ context.Context, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.target = target
	return nil
}

// Prepare loads the target paused; mpv reports file-loaded once it can play.
func (e *Engine) Prepare(ctx context.Context) error {
	e.mu.Lock()
	target := e.target
	e.mu.Unlock()

	if target == "" {
		return fmt.Errorf("no source set")
	}
	e.translator.reset()
	if err := e.set(ctx, "pause", true); err != nil {
		return err
	}
	_, err := e.send(ctx, "loadfile", target, "replace")
	return err
}

func (e *Engine) Start(ctx context.Context) error {
	return e.set(ctx, "pause", false)
}

func (e *Engine) Pause(ctx context.Context) error {
	return e.set(ctx, "pause", true)
}

func (e *Engine) Stop(ctx context.Context) error {
	_, err := e.send(ctx, "stop")
	return err
}

func (e *Engine) Reset(ctx context.Context) error {
	if _, err := e.send(ctx, "stop"); err != nil {
		return err
	}
	e.translator.reset()

	e.mu.Lock()
	e.target = ""
	e.mu.Unlock()
	return nil
}

func (e *Engine) SeekTo(ctx context.Context, ms int64) error {
	e.translator.expectSeek(ms)
	_, err := e.send(ctx, "seek", float64(ms)/1000, "absolute")
	return err
}

func (e *Engine) CurrentPosition(ctx context.Context) (int64, error) {
	v, err := e.float(ctx, "time-pos")
	return int64(v * 1000), err
}

func (e *Engine) Duration(ctx context.Context) (int64, error) {
	v, err := e.float(ctx, "duration")
	return int64(v * 1000), err
}

func (e *Engine) VideoSize(ctx context.Context) (int, int, error) {
	w, err := e.float(ctx, "width")
	if err != nil {
		return 0, 0, err
	}
	h, err := e.float(ctx, "height")
	if err != nil {
		return 0, 0, err
	}
	return int(w), int(h), nil
}

// SetVolume maps the per-channel gains onto mpv's single 0-100 volume.
func (e *Engine) SetVolume(ctx context.Context, left, right float64) error {
	return e.set(ctx, "volume", (left+right)/2*100)
}

func (e *Engine) SetLoopCount(ctx context.Context, count int) error {
	return e.set(ctx, "loop-file", loopValue(count))
}

// loopValue converts a total play count into mpv's extra repeats; zero or
// less loops forever.
func loopValue(count int) string {
	switch {
	case count <= 0:
		return "inf"
	case count == 1:
		return "no"
	default:
		return strconv.Itoa(count - 1)
	}
}

func (e *Engine) SetSpeed(ctx context.Context, speed float64) error {
	return e.set(ctx, "speed", speed)
}

// SetOption maps decoder option categories onto mpv's lavf and lavc option
// lists. Player options set the mpv property of the same name, except the
// position and autostart switches: mpv notifies positions anyway and is
// always spawned paused.
func (e *Engine) SetOption(ctx context.Context, opt engine.Option) error {
	switch opt.Category {
	case engine.CategoryFormat:
		_, err := e.send(ctx, "change-list", "demuxer-lavf-o", "append", opt.Name+"="+opt.Value)
		return err
	case engine.CategoryCodec:
		_, err := e.send(ctx, "change-list", "vd-lavc-o", "append", opt.Name+"="+opt.Value)
		return err
	case engine.CategoryPlayer:
		switch opt.Name {
		case "enable-position-notify", "start-on-prepared":
			return nil
		}
		return e.set(ctx, opt.Name, opt.Value)
	default:
		return fmt.Errorf("option category %s not supported by mpv", opt.Category)
	}
}

// SetSurface embeds the video into the given window id.
func (e *Engine) SetSurface(ctx context.Context, s engine.Surface) error {
	if s == nil {
		return e.set(ctx, "wid", -1)
	}
	wid, err := strconv.ParseInt(s.Handle(), 10, 64)
	if err != nil {
		return fmt.Errorf("surface handle %q is not a window id", s.Handle())
	}
	return e.set(ctx, "wid", wid)
}

// Destroy quits mpv, killing it when it does not exit in time.
func (e *Engine) Destroy(ctx context.Context) error {
	e.mu.Lock()
	if e.destroying {
		e.mu.Unlock()
		return nil
	}
	e.destroying = true
	e.mu.Unlock()

	e.events.stop()
	_, _ = e.send(ctx, "quit")

	var err error
	select {
	case <-e.exited:
	case <-ctx.Done():
		err = ctx.Err()
		_ = killProcess(e.cmd)
	}

	_ = os.Remove(e.socketPath)
	return err
}
