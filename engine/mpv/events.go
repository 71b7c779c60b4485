package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"sync"

	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/log"
	"github.com/samber/mo"
)

// observedProperties are subscribed on the event connection.
var observedProperties = []struct {
	id   int
	name string
}{
	{1, "cache-buffering-state"},
	{2, "video-params"},
}

// eventListener reads mpv events from a persistent connection and turns
// them into engine callbacks.
type eventListener struct {
	socketPath string
	translator *translator
	deliver    func(engine.Callback)

	mu        sync.Mutex
	conn      net.Conn
	done      chan struct{}
	listening bool
	stopping  bool
}

func newEventListener(socketPath string, t *translator, deliver func(engine.Callback)) *eventListener {
	return &eventListener{
		socketPath: socketPath,
		translator: t,
		deliver:    deliver,
		done:       make(chan struct{}),
	}
}

// start subscribes to the observed properties on its own connection, since
// mpv scopes observe_property to the client that sent it.
func (el *eventListener) start(ctx context.Context) error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for _, prop := range observedProperties {
		payload, err := json.Marshal(ipcCommand{Command: []any{"observe_property", prop.id, prop.name}})
		if err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(conn)

	log.WithField("socket", el.socketPath).Debug("mpv event listener started")
	return nil
}

func (el *eventListener) stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}
	el.stopping = true
	el.conn.Close()
	el.mu.Unlock()

	<-el.done
}

func (el *eventListener) readLoop(conn net.Conn) {
	defer func() {
		el.mu.Lock()
		el.listening = false
		el.mu.Unlock()
		close(el.done)
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil || msg.Event == "" {
			continue
		}
		for _, cb := range el.translator.translate(msg) {
			el.deliver(cb)
		}
	}

	el.mu.Lock()
	stopping := el.stopping
	el.mu.Unlock()
	if !stopping {
		log.WithField("socket", el.socketPath).Warnf("mpv event listener ended: %v", scanner.Err())
	}
}

type videoParams struct {
	W      int     `json:"w"`
	H      int     `json:"h"`
	Par    float64 `json:"par"`
	Rotate int     `json:"rotate"`
}

// translator maps mpv events onto engine callbacks. It tracks the pending
// seek and the last video shape so repeats are suppressed.
type translator struct {
	mu          sync.Mutex
	pendingSeek mo.Option[int64]
	video       videoParams
	rotation    int
}

func newTranslator() *translator {
	return &translator{rotation: -1}
}

// expectSeek marks that the next playback-restart completes a seek to ms.
func (t *translator) expectSeek(ms int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pendingSeek = mo.Some(ms)
}

func (t *translator) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pendingSeek = mo.None[int64]()
	t.video = videoParams{}
	t.rotation = -1
}

func (t *translator) translate(msg ipcMessage) []engine.Callback {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.Event {
	case "file-loaded":
		return []engine.Callback{engine.Prepared{}}

	case "end-file":
		switch msg.Reason {
		case "eof":
			return []engine.Callback{engine.Completed{}}
		case "error":
			log.Warnf("mpv end-file error: %s", msg.FileError)
			return []engine.Callback{engine.Error{What: engine.ErrorIO}}
		}

	case "playback-restart":
		if pos, ok := t.pendingSeek.Get(); ok {
			t.pendingSeek = mo.None[int64]()
			return []engine.Callback{engine.SeekComplete{Position: pos}}
		}

	case "property-change":
		return t.property(msg)
	}

	return nil
}

func (t *translator) property(msg ipcMessage) []engine.Callback {
	switch msg.Name {
	case "cache-buffering-state":
		var percent int
		if err := json.Unmarshal(msg.Data, &percent); err != nil {
			return nil
		}
		return []engine.Callback{engine.BufferingUpdate{Percent: percent}}

	case "video-params":
		var p videoParams
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.W == 0 || p.H == 0 {
			return nil
		}

		var out []engine.Callback
		if p.W != t.video.W || p.H != t.video.H || p.Par != t.video.Par {
			num, den := ratio(p.Par)
			out = append(out, engine.VideoSizeChanged{Width: p.W, Height: p.H, SarNum: num, SarDen: den})
		}
		if p.Rotate != t.rotation {
			t.rotation = p.Rotate
			out = append(out, engine.Info{What: engine.InfoRotationChanged, Extra: p.Rotate})
		}
		t.video = p
		return out
	}

	return nil
}

// ratio approximates a pixel aspect ratio as a reduced fraction.
func ratio(par float64) (int, int) {
	if par <= 0 {
		return 1, 1
	}
	num, den := int(math.Round(par*1000)), 1000
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
