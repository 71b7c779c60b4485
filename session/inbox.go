package session

import "sync"

// inbox is an unbounded FIFO drained by a single goroutine. Pushing never
// blocks, so engines may deliver callbacks from inside a command.
type inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []func()
	closed bool
	done   chan struct{}
}

func newInbox() *inbox {
	b := &inbox{done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// push enqueues fn and reports false once the inbox is closed.
func (b *inbox) push(fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.items = append(b.items, fn)
	b.cond.Signal()
	return true
}

// close stops accepting work. Queued items still run.
func (b *inbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Signal()
}

func (b *inbox) run() {
	defer close(b.done)

	for {
		b.mu.Lock()
		for len(b.items) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.items) == 0 {
			b.mu.Unlock()
			return
		}
		fn := b.items[0]
		b.items[0] = nil
		b.items = b.items[1:]
		b.mu.Unlock()

		fn()
	}
}
