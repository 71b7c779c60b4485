package event

import "sync"

// Consumer receives delivered events.
// Consume runs with the sink locked and must not call back into the same sink.
type Consumer interface {
	Consume(Event)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(Event)

func (f ConsumerFunc) Consume(e Event) { f(e) }

// Sink is an ordered buffer between producers and an attachable consumer.
//
// While no consumer is attached events queue up. Attach delivers the queue
// in order before any later event. Emit, Attach and Detach are mutually
// exclusive, so an event racing an attach lands either in the flush or after it.
type Sink struct {
	mu        sync.Mutex
	pending   []Event
	consumer  Consumer
	discarded bool
}

func NewSink() *Sink {
	return &Sink{}
}

// Emit delivers e to the consumer, or queues it when detached.
// Events emitted after Discard are dropped.
func (s *Sink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.discarded:
	case s.consumer == nil:
		s.pending = append(s.pending, e)
	default:
		s.consumer.Consume(e)
	}
}

// Attach flushes queued events to c and then delivers live.
// Attaching replaces any previous consumer; a nil c detaches.
func (s *Sink) Attach(c Consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discarded {
		return
	}

	s.consumer = c
	if c == nil {
		return
	}

	for _, e := range s.pending {
		c.Consume(e)
	}
	s.pending = nil
}

// Detach reverts to buffering. Delivered events are never replayed.
func (s *Sink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumer = nil
}

// Discard drops the queue and the consumer for good and returns how many
// queued events were lost.
func (s *Sink) Discard() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.pending)
	s.pending = nil
	s.consumer = nil
	s.discarded = true
	return dropped
}

// Pending returns the number of queued events.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Attached reports whether a consumer is live.
func (s *Sink) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumer != nil
}
