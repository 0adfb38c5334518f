package session

import (
	"context"
	"sync"
	"time"

	"github.com/furisto/agentcore/backend/provider"
)

// MemoryBackend is a process-local Backend, guarded the same way the
// teacher's event.Bus guards its subscriber map: one RWMutex over a plain
// map, read locked on lookups, write locked on mutation.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

type memorySession struct {
	messages  []provider.Message
	usage     Usage
	createdAt time.Time
	updatedAt time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]*memorySession)}
}

func (b *MemoryBackend) entry(sessionID string, create bool) *memorySession {
	b.mu.RLock()
	s, exists := b.sessions[sessionID]
	b.mu.RUnlock()
	if exists || !create {
		return s
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if s, exists = b.sessions[sessionID]; exists {
		return s
	}
	now := time.Now()
	s = &memorySession{createdAt: now, updatedAt: now}
	b.sessions[sessionID] = s
	return s
}

func (b *MemoryBackend) Load(ctx context.Context, sessionID string) ([]provider.Message, error) {
	s := b.entry(sessionID, false)
	if s == nil {
		return nil, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]provider.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (b *MemoryBackend) Save(ctx context.Context, sessionID string, messages []provider.Message) error {
	s := b.entry(sessionID, true)
	b.mu.Lock()
	defer b.mu.Unlock()
	s.messages = append([]provider.Message(nil), messages...)
	s.updatedAt = time.Now()
	return nil
}

func (b *MemoryBackend) Reset(ctx context.Context, sessionID string) error {
	s := b.entry(sessionID, true)
	b.mu.Lock()
	defer b.mu.Unlock()
	s.messages = nil
	s.updatedAt = time.Now()
	return nil
}

func (b *MemoryBackend) ListSessions(ctx context.Context) ([]Summary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Summary, 0, len(b.sessions))
	for id, s := range b.sessions {
		out = append(out, Summary{ID: id, CreatedAt: s.createdAt, UpdatedAt: s.updatedAt, MessageCount: len(s.messages)})
	}
	return out, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.sessions[sessionID]; !exists {
		return &NotFoundError{SessionID: sessionID}
	}
	delete(b.sessions, sessionID)
	return nil
}

func (b *MemoryBackend) LoadUsage(ctx context.Context, sessionID string) (Usage, error) {
	s := b.entry(sessionID, false)
	if s == nil {
		return Usage{}, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return s.usage, nil
}

func (b *MemoryBackend) SaveUsage(ctx context.Context, sessionID string, usage Usage) error {
	s := b.entry(sessionID, true)
	b.mu.Lock()
	defer b.mu.Unlock()
	s.usage = usage
	s.updatedAt = time.Now()
	return nil
}

func (b *MemoryBackend) ResetUsage(ctx context.Context, sessionID string) error {
	return b.SaveUsage(ctx, sessionID, Usage{})
}
