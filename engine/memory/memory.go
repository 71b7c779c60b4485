// Package memory is an in-process engine that plays nothing but behaves
// like one: callbacks arrive from its own goroutine, position advances with
// the wall clock, and failures or latency can be scripted.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playcore/playcore/constant"
	"github.com/playcore/playcore/engine"
)

// Options script the behaviour of every engine a Factory creates.
type Options struct {
	// Duration in milliseconds. Playback completes on its own when it is reached.
	Duration int64
	Width    int
	Height   int

	PrepareDelay time.Duration
	// PrepareError makes Prepare end in an error callback instead of Prepared.
	PrepareError *engine.Error
	DestroyDelay time.Duration

	CreateError      error
	UnavailableError error
	// Fail maps operation names such as "start" or "seek" to the error they return.
	Fail map[string]error
}

type Factory struct {
	opts Options

	mu      sync.Mutex
	engines []*Engine
}

func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts}
}

func (f *Factory) Name() string {
	return constant.EngineMemory
}

func (f *Factory) Available(context.Context) error {
	return f.opts.UnavailableError
}

func (f *Factory) New(_ context.Context, l engine.Listener) (engine.Engine, error) {
	if f.opts.CreateError != nil {
		return nil, f.opts.CreateError
	}

	e := newEngine(f.opts, l)

	f.mu.Lock()
	f.engines = append(f.engines, e)
	f.mu.Unlock()

	return e, nil
}

// Engines returns every engine created so far, oldest first.
func (f *Factory) Engines() []*Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Engine(nil), f.engines...)
}

// Last returns the most recently created engine or nil.
func (f *Factory) Last() *Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

type Engine struct {
	opts     Options
	listener engine.Listener

	queue chan engine.Callback
	done  chan struct{}
	wg    sync.WaitGroup

	mu        sync.Mutex
	calls     []string
	options   []engine.Option
	fail      map[string]error
	target    string
	prepared  bool
	playing   bool
	position  int64
	resumedAt time.Time
	speed     float64
	volume    float64
	loops     int
	plays     int
	surface   engine.Surface
	completer *time.Timer
	destroyed bool
}

func newEngine(opts Options, l engine.Listener) *Engine {
	fail := make(map[string]error, len(opts.Fail))
	for op, err := range opts.Fail {
		fail[op] = err
	}

	e := &Engine{
		opts:     opts,
		listener: l,
		queue:    make(chan engine.Callback, 64),
		done:     make(chan struct{}),
		fail:     fail,
		speed:    1,
		volume:   1,
		loops:    1,
	}

	e.wg.Add(1)
	go e.loop()
	return e
}

func (e *Engine) loop() {
	defer e.wg.Done()
	for {
		select {
		case cb := <-e.queue:
			e.listener.OnCallback(cb)
		case <-e.done:
			return
		}
	}
}

// Emit injects a callback as if the decoder reported it.
func (e *Engine) Emit(cb engine.Callback) {
	select {
	case e.queue <- cb:
	case <-e.done:
	}
}

// SetFail changes the scripted error of op. A nil err clears it.
func (e *Engine) SetFail(op string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.fail, op)
		return
	}
	e.fail[op] = err
}

// Calls returns the operation names received so far.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// Options returns every option set on the engine, including defaults.
func (e *Engine) Options() []engine.Option {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.Option(nil), e.options...)
}

func (e *Engine) Target() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) Destroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

func (e *Engine) Surface() engine.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

// record logs op and returns its scripted failure. Callers hold e.mu.
func (e *Engine) record(op string) error {
	if e.destroyed {
		return fmt.Errorf("memory engine: %s after destroy", op)
	}
	e.calls = append(e.calls, op)
	return e.fail[op]
}

// positionLocked returns the playback position in milliseconds.
func (e *Engine) positionLocked() int64 {
	pos := e.position
	if e.playing {
		pos += int64(float64(time.Since(e.resumedAt).Milliseconds()) * e.speed)
	}
	if e.opts.Duration > 0 && pos > e.opts.Duration {
		pos = e.opts.Duration
	}
	return pos
}

func (e *Engine) haltLocked() {
	e.position = e.positionLocked()
	e.playing = false
	if e.completer != nil {
		e.completer.Stop()
		e.completer = nil
	}
}

func (e *Engine) scheduleCompletionLocked() {
	if e.opts.Duration <= 0 {
		return
	}
	remaining := time.Duration(float64(e.opts.Duration-e.position)/e.speed) * time.Millisecond
	e.completer = time.AfterFunc(remaining, func() {
		e.mu.Lock()
		if !e.playing || e.destroyed {
			e.mu.Unlock()
			return
		}
		e.plays++
		if e.loops <= 0 || e.plays < e.loops {
			e.position = 0
			e.resumedAt = time.Now()
			e.scheduleCompletionLocked()
			e.mu.Unlock()
			return
		}
		e.position = e.opts.Duration
		e.playing = false
		e.completer = nil
		e.mu.Unlock()
		e.Emit(engine.Completed{})
	})
}

func (e *Engine) SetSource(_ context.Context, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("setSource"); err != nil {
		return err
	}
	e.target = target
	return nil
}

func (e *Engine) Prepare(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("prepare"); err != nil {
		return err
	}

	deliver := func() {
		if e.opts.PrepareError != nil {
			e.Emit(*e.opts.PrepareError)
			return
		}
		e.mu.Lock()
		e.prepared = true
		e.mu.Unlock()
		if e.opts.Width > 0 && e.opts.Height > 0 {
			e.Emit(engine.VideoSizeChanged{Width: e.opts.Width, Height: e.opts.Height, SarNum: 1, SarDen: 1})
		}
		e.Emit(engine.Prepared{})
	}

	if e.opts.PrepareDelay > 0 {
		time.AfterFunc(e.opts.PrepareDelay, deliver)
	} else {
		go deliver()
	}
	return nil
}

func (e *Engine) Start(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("start"); err != nil {
		return err
	}
	if e.playing {
		return nil
	}
	if e.opts.Duration > 0 && e.position >= e.opts.Duration {
		e.position = 0
		e.plays = 0
	}
	e.playing = true
	e.resumedAt = time.Now()
	e.scheduleCompletionLocked()
	return nil
}

func (e *Engine) Pause(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("pause"); err != nil {
		return err
	}
	e.haltLocked()
	return nil
}

func (e *Engine) Stop(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("stop"); err != nil {
		return err
	}
	e.haltLocked()
	e.position = 0
	e.plays = 0
	return nil
}

func (e *Engine) Reset(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("reset"); err != nil {
		return err
	}
	e.haltLocked()
	e.position = 0
	e.prepared = false
	e.target = ""
	return nil
}

func (e *Engine) SeekTo(_ context.Context, ms int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("seek"); err != nil {
		return err
	}

	wasPlaying := e.playing
	e.haltLocked()
	if ms < 0 {
		ms = 0
	}
	if e.opts.Duration > 0 && ms > e.opts.Duration {
		ms = e.opts.Duration
	}
	e.position = ms
	if wasPlaying {
		e.playing = true
		e.resumedAt = time.Now()
		e.scheduleCompletionLocked()
	}

	go e.Emit(engine.SeekComplete{Position: ms})
	return nil
}

func (e *Engine) CurrentPosition(context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fail["position"]; err != nil {
		return 0, err
	}
	return e.positionLocked(), nil
}

func (e *Engine) Duration(context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fail["duration"]; err != nil {
		return 0, err
	}
	if !e.prepared {
		return 0, nil
	}
	return e.opts.Duration, nil
}

func (e *Engine) VideoSize(context.Context) (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared {
		return 0, 0, nil
	}
	return e.opts.Width, e.opts.Height, nil
}

func (e *Engine) SetVolume(_ context.Context, left, right float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("volume"); err != nil {
		return err
	}
	e.volume = (left + right) / 2
	return nil
}

func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Engine) SetLoopCount(_ context.Context, count int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("loop"); err != nil {
		return err
	}
	e.loops = count
	return nil
}

func (e *Engine) SetSpeed(_ context.Context, speed float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("speed"); err != nil {
		return err
	}
	if speed <= 0 {
		return fmt.Errorf("memory engine: speed must be positive, got %v", speed)
	}
	wasPlaying := e.playing
	e.haltLocked()
	e.speed = speed
	if wasPlaying {
		e.playing = true
		e.resumedAt = time.Now()
		e.scheduleCompletionLocked()
	}
	return nil
}

func (e *Engine) SetOption(_ context.Context, opt engine.Option) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("option"); err != nil {
		return err
	}
	e.options = append(e.options, opt)
	return nil
}

func (e *Engine) SetSurface(_ context.Context, s engine.Surface) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("surface"); err != nil {
		return err
	}
	e.surface = s
	return nil
}

func (e *Engine) Destroy(ctx context.Context) error {
	e.mu.Lock()
	if err := e.record("destroy"); err != nil {
		e.mu.Unlock()
		return err
	}
	e.haltLocked()
	e.destroyed = true
	delay := e.opts.DestroyDelay
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
