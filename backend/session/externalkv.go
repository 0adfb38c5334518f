package session

import (
	"context"
	"time"

	"github.com/maypok86/otter"

	"github.com/furisto/agentcore/backend/provider"
)

type externalKVEntry struct {
	messages  []provider.Message
	usage     Usage
	createdAt time.Time
	updatedAt time.Time
}

// ExternalKVBackend stands in for a real external K/V store (e.g. Redis)
// behind the Backend interface: a TTL-bounded cache, same shape as the
// EventStore's in-memory backend, built on the otter cache the teacher
// reaches for in backend/agent/message_hub.go.
type ExternalKVBackend struct {
	cache otter.Cache[string, *externalKVEntry]
}

// NewExternalKVBackend builds a TTL-bounded cache of the given capacity;
// entries not touched within ttl are evicted and behave as never saved.
func NewExternalKVBackend(capacity int, ttl time.Duration) (*ExternalKVBackend, error) {
	cache, err := otter.MustBuilder[string, *externalKVEntry](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}
	return &ExternalKVBackend{cache: cache}, nil
}

func (b *ExternalKVBackend) entry(sessionID string, create bool) *externalKVEntry {
	e, found := b.cache.Get(sessionID)
	if found || !create {
		if !found {
			return nil
		}
		return e
	}
	now := time.Now()
	e = &externalKVEntry{createdAt: now, updatedAt: now}
	b.cache.Set(sessionID, e)
	return e
}

func (b *ExternalKVBackend) Load(ctx context.Context, sessionID string) ([]provider.Message, error) {
	e := b.entry(sessionID, false)
	if e == nil {
		return nil, nil
	}
	return append([]provider.Message(nil), e.messages...), nil
}

func (b *ExternalKVBackend) Save(ctx context.Context, sessionID string, messages []provider.Message) error {
	e := b.entry(sessionID, true)
	e.messages = append([]provider.Message(nil), messages...)
	e.updatedAt = time.Now()
	b.cache.Set(sessionID, e)
	return nil
}

func (b *ExternalKVBackend) Reset(ctx context.Context, sessionID string) error {
	return b.Save(ctx, sessionID, nil)
}

func (b *ExternalKVBackend) ListSessions(ctx context.Context) ([]Summary, error) {
	var out []Summary
	b.cache.Range(func(sessionID string, e *externalKVEntry) bool {
		out = append(out, Summary{ID: sessionID, CreatedAt: e.createdAt, UpdatedAt: e.updatedAt, MessageCount: len(e.messages)})
		return true
	})
	return out, nil
}

func (b *ExternalKVBackend) Delete(ctx context.Context, sessionID string) error {
	if _, found := b.cache.Get(sessionID); !found {
		return &NotFoundError{SessionID: sessionID}
	}
	b.cache.Delete(sessionID)
	return nil
}

func (b *ExternalKVBackend) LoadUsage(ctx context.Context, sessionID string) (Usage, error) {
	e := b.entry(sessionID, false)
	if e == nil {
		return Usage{}, nil
	}
	return e.usage, nil
}

func (b *ExternalKVBackend) SaveUsage(ctx context.Context, sessionID string, usage Usage) error {
	e := b.entry(sessionID, true)
	e.usage = usage
	e.updatedAt = time.Now()
	b.cache.Set(sessionID, e)
	return nil
}

func (b *ExternalKVBackend) ResetUsage(ctx context.Context, sessionID string) error {
	return b.SaveUsage(ctx, sessionID, Usage{})
}

func (b *ExternalKVBackend) Close() {
	b.cache.Close()
}
