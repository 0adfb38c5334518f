package eventstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/maypok86/otter"
	"k8s.io/client-go/util/workqueue"

	"github.com/furisto/agentcore/internal/pubsub"
)

type streamState struct {
	mu        sync.Mutex
	events    []Event
	status    Status
	lastTouch time.Time
}

// MemoryStore is the in-memory EventStore backend: a TTL-bounded cache of
// per-stream state (via the otter cache the teacher reaches for in
// backend/agent/message_hub.go but never finishes), with a delaying work
// queue driving reconciliation the same way the teacher's
// backend/agent/agent_runtime.go Runtime.queue drives task reconciliation.
// The queue's sweep does the one thing otter's own TTL eviction cannot: a
// stream still StatusGenerating when its ttl lapses without being touched
// again is abandoned (its owning Agent.Run goroutine died or lost its
// context without ever reaching MarkCompleted/MarkFailed), and is flipped
// to StatusFailed before its entry is dropped, so a concurrent reader's
// Status call observes a terminal state instead of the stream silently
// going absent. Durability is not required for this backend; an expired,
// non-abandoned stream thereafter reads as absent.
type MemoryStore struct {
	cache otter.Cache[string, *streamState]
	ttl   time.Duration
	queue workqueue.TypedDelayingInterface[string]
	done  chan struct{}
	bus   *pubsub.Bus
}

// NewMemoryStore builds a store whose streams are evicted ttl after their
// last Append/MarkCompleted/MarkFailed.
func NewMemoryStore(capacity int, ttl time.Duration) (*MemoryStore, error) {
	cache, err := otter.MustBuilder[string, *streamState](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}

	s := &MemoryStore{
		cache: cache,
		ttl:   ttl,
		queue: workqueue.NewTypedDelayingQueue[string](),
		done:  make(chan struct{}),
		bus:   newEventBus(),
	}
	go s.sweepLoop()
	return s, nil
}

func (s *MemoryStore) sweepLoop() {
	for {
		streamID, shutdown := s.queue.Get()
		if shutdown {
			return
		}
		s.reconcile(streamID)
		s.queue.Done(streamID)
	}
}

// reconcile is invoked ttl after the most recent touch(streamID) that was
// still pending when it was scheduled. A touch since then moves lastTouch
// forward, in which case this sweep was premature and reschedules itself
// for the remaining time rather than acting. Otherwise the stream has gone
// ttl without activity. A stream still StatusGenerating at that point is
// abandoned: it is flipped to StatusFailed and given one further ttl window
// before eviction, so a Status call in that window observes the failure
// instead of the stream having silently gone absent. Any other status is
// already terminal and is dropped immediately.
func (s *MemoryStore) reconcile(streamID string) {
	state, found := s.cache.Get(streamID)
	if !found {
		return
	}

	state.mu.Lock()
	remaining := s.ttl - time.Since(state.lastTouch)
	if remaining > 0 {
		state.mu.Unlock()
		s.queue.AddAfter(streamID, remaining)
		return
	}

	if state.status == StatusGenerating {
		state.status = StatusFailed
		state.lastTouch = time.Now()
		state.mu.Unlock()
		s.queue.AddAfter(streamID, s.ttl)
		pubsub.Publish(s.bus, liveEvent{Event{StreamID: streamID, Kind: KindError, Ts: time.Now()}})
		return
	}
	state.mu.Unlock()
	s.cache.Delete(streamID)
}

func (s *MemoryStore) touch(streamID string, state *streamState) {
	state.mu.Lock()
	state.lastTouch = time.Now()
	state.mu.Unlock()
	s.cache.Set(streamID, state)
	s.queue.AddAfter(streamID, s.ttl)
}

func (s *MemoryStore) entry(streamID string, create bool) *streamState {
	state, found := s.cache.Get(streamID)
	if found || !create {
		if !found {
			return nil
		}
		return state
	}
	state = &streamState{status: StatusGenerating}
	s.touch(streamID, state)
	return state
}

func (s *MemoryStore) Append(ctx context.Context, streamID string, kind Kind, data json.RawMessage) (int64, error) {
	state := s.entry(streamID, true)
	state.mu.Lock()
	id := int64(len(state.events)) + 1
	event := Event{ID: id, StreamID: streamID, Kind: kind, Data: data, Ts: time.Now()}
	state.events = append(state.events, event)
	state.mu.Unlock()

	s.touch(streamID, state)
	pubsub.Publish(s.bus, liveEvent{event})
	return id, nil
}

func (s *MemoryStore) Read(ctx context.Context, streamID string, afterID int64) ([]Event, error) {
	state := s.entry(streamID, false)
	if state == nil {
		return nil, nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	var out []Event
	for _, e := range state.events {
		if e.ID > afterID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) Status(ctx context.Context, streamID string) (Status, error) {
	state := s.entry(streamID, false)
	if state == nil {
		return StatusAbsent, nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.status, nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, streamID string) error {
	state := s.entry(streamID, true)
	state.mu.Lock()
	state.status = StatusCompleted
	state.mu.Unlock()
	s.touch(streamID, state)
	return nil
}

func (s *MemoryStore) MarkFailed(ctx context.Context, streamID string) error {
	state := s.entry(streamID, true)
	state.mu.Lock()
	state.status = StatusFailed
	state.mu.Unlock()
	s.touch(streamID, state)
	return nil
}

// Close stops the eviction sweep goroutine and the live-fanout bus.
func (s *MemoryStore) Close() {
	s.queue.ShutDown()
	s.cache.Close()
	s.bus.Close()
}
