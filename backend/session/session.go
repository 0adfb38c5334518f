// Package session implements the SessionBackend: durable per-session
// message history and usage accounting, with in-memory, SQLite and
// external-KV-style implementations behind one interface.
package session

import (
	"context"
	"time"

	"github.com/furisto/agentcore/backend/provider"
)

// Usage is the durable per-session token ledger.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}

// Summary is one row of ListSessions.
type Summary struct {
	ID           string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// NotFoundError is returned by Delete for an id that has no stored
// session. Load and LoadUsage return empty values for such an id, and
// Reset creates it.
type NotFoundError struct{ SessionID string }

func (e *NotFoundError) Error() string { return "session not found: " + e.SessionID }

// Backend is the SessionBackend contract of spec.md §4.6. Implementations
// must make load/save/delete safe under concurrent callers for distinct
// session ids; same-id concurrency is the caller's responsibility.
type Backend interface {
	Load(ctx context.Context, sessionID string) ([]provider.Message, error)
	Save(ctx context.Context, sessionID string, messages []provider.Message) error
	Reset(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, sessionID string) error

	LoadUsage(ctx context.Context, sessionID string) (Usage, error)
	SaveUsage(ctx context.Context, sessionID string, usage Usage) error
	ResetUsage(ctx context.Context, sessionID string) error
}
