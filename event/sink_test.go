package event

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	events []Event
}

func (r *recorder) Consume(e Event) { r.events = append(r.events, e) }

func seq(n int) Event {
	return Event{SessionID: 1, Payload: BufferingUpdate{Percent: n}}
}

func percents(events []Event) []int {
	out := make([]int, 0, len(events))
	for _, e := range events {
		out = append(out, e.Payload.(BufferingUpdate).Percent)
	}
	return out
}

func TestSink(t *testing.T) {
	Convey("Given a detached sink", t, func() {
		sink := NewSink()

		Convey("Emitted events are buffered", func() {
			sink.Emit(seq(1))
			sink.Emit(seq(2))
			So(sink.Pending(), ShouldEqual, 2)
			So(sink.Attached(), ShouldBeFalse)
		})

		Convey("Attach flushes in order, then delivers live", func() {
			sink.Emit(seq(1))
			sink.Emit(seq(2))
			sink.Emit(seq(3))

			rec := &recorder{}
			sink.Attach(rec)
			So(percents(rec.events), ShouldResemble, []int{1, 2, 3})
			So(sink.Pending(), ShouldEqual, 0)

			sink.Emit(seq(4))
			So(percents(rec.events), ShouldResemble, []int{1, 2, 3, 4})
		})

		Convey("Detach buffers again without replaying delivered events", func() {
			first := &recorder{}
			sink.Attach(first)
			sink.Emit(seq(1))
			sink.Detach()
			sink.Emit(seq(2))
			sink.Emit(seq(3))

			second := &recorder{}
			sink.Attach(second)
			So(percents(first.events), ShouldResemble, []int{1})
			So(percents(second.events), ShouldResemble, []int{2, 3})
		})

		Convey("Attaching nil detaches", func() {
			rec := &recorder{}
			sink.Attach(rec)
			sink.Attach(nil)
			sink.Emit(seq(1))
			So(rec.events, ShouldBeEmpty)
			So(sink.Pending(), ShouldEqual, 1)
		})

		Convey("ConsumerFunc adapts a closure", func() {
			var got []Event
			sink.Emit(seq(9))
			sink.Attach(ConsumerFunc(func(e Event) { got = append(got, e) }))
			So(percents(got), ShouldResemble, []int{9})
		})

		Convey("Discard drops the queue and later events", func() {
			sink.Emit(seq(1))
			sink.Emit(seq(2))
			So(sink.Discard(), ShouldEqual, 2)

			rec := &recorder{}
			sink.Attach(rec)
			sink.Emit(seq(3))
			So(rec.events, ShouldBeEmpty)
			So(sink.Pending(), ShouldEqual, 0)
			So(sink.Attached(), ShouldBeFalse)
		})
	})

	Convey("Given concurrent producers racing an attach", t, func() {
		const producers, perProducer = 8, 200
		sink := NewSink()
		rec := &recorder{}

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					sink.Emit(Event{SessionID: int64(p), Payload: BufferingUpdate{Percent: i}})
				}
			}(p)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Attach(rec)
		}()
		wg.Wait()
		sink.Attach(rec)

		Convey("Every event arrives exactly once and in per-producer order", func() {
			So(len(rec.events), ShouldEqual, producers*perProducer)

			next := make(map[int64]int)
			ordered := true
			for _, e := range rec.events {
				if e.Payload.(BufferingUpdate).Percent != next[e.SessionID] {
					ordered = false
				}
				next[e.SessionID]++
			}
			So(ordered, ShouldBeTrue)
			for p := 0; p < producers; p++ {
				So(next[int64(p)], ShouldEqual, perProducer)
			}
		})
	})
}
