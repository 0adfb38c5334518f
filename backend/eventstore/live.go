package eventstore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/furisto/agentcore/internal/pubsub"
)

// liveEvent wraps Event so it satisfies pubsub.Event[T], letting MemoryStore
// fan a stream's appends out to any readers attached while it is still
// generating — the same live-fanout shape the teacher's event.Bus gives
// task events, applied here to one EventStore stream instead of a whole
// task's lifecycle.
type liveEvent struct{ Event }

func (liveEvent) Event() {}

// Subscribe attaches a live listener to streamID and returns a channel of
// every Event appended to it from this point on, plus an unsubscribe func.
// It complements Read: a caller typically reads the backlog once via Read,
// then Subscribes to keep receiving events appended after that point.
func (s *MemoryStore) Subscribe(streamID string, bufferSize int) (<-chan Event, func()) {
	ch, sub := pubsub.SubscribeChannel[liveEvent](s.bus, bufferSize, func(e liveEvent) bool {
		return e.StreamID == streamID
	})

	out := make(chan Event, bufferSize)
	go func() {
		defer close(out)
		for e := range ch {
			out <- e.Event
		}
	}()

	return out, sub.Unsubscribe
}

func newEventBus() *pubsub.Bus {
	return pubsub.NewBus(prometheus.NewRegistry())
}
