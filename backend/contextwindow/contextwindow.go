// Package contextwindow implements the ContextManager: usage tracking
// against a model's context window and the two-phase compaction algorithm
// (tool-result truncation, then LLM summarization) of spec.md §4.5.
package contextwindow

import (
	"sync"

	"github.com/furisto/agentcore/backend/provider"
)

const (
	// DefaultThreshold is the compact_threshold default of spec.md §6.
	DefaultThreshold = 0.8
	// DefaultKeepLastTurnPairs is the number of recent turn-pairs (K)
	// phase 2 always keeps verbatim, unsummarized.
	DefaultKeepLastTurnPairs = 4
	// TruncatedPlaceholder is the literal text every truncated tool_result
	// is replaced with. Part of the behavior contract: must match byte for
	// byte across implementations.
	TruncatedPlaceholder = "[compacted: tool result omitted]"
)

// Manager tracks the most recently reported Usage and decides when
// compaction should trigger, per spec.md §4.5.
type Manager struct {
	mu            sync.Mutex
	usage         provider.Usage
	contextWindow int
	threshold     float64
	keepLastN     int
}

func NewManager(contextWindow int, threshold float64) *Manager {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Manager{contextWindow: contextWindow, threshold: threshold, keepLastN: DefaultKeepLastTurnPairs}
}

// RecordUsage updates the tracked Usage with the Provider's latest report.
func (m *Manager) RecordUsage(u provider.Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = u
}

// CurrentTokens is input + cache_creation + cache_read + output.
func (m *Manager) CurrentTokens() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTokensLocked()
}

func (m *Manager) currentTokensLocked() int64 {
	u := m.usage
	return u.InputTokens + u.CacheWriteTokens + u.CacheReadTokens + u.OutputTokens
}

// UsagePercent is current_tokens / context_window.
func (m *Manager) UsagePercent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contextWindow <= 0 {
		return 0
	}
	return float64(m.currentTokensLocked()) / float64(m.contextWindow)
}

// ShouldCompact reports whether usage_percent has crossed the configured
// threshold. Checked before every Provider call inside the Agent loop.
func (m *Manager) ShouldCompact() bool {
	return m.UsagePercent() >= m.threshold
}
