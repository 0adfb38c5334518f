package provider

import "sync"

// UsageMonitor accumulates Usage across turns for a session and reports a
// running cost estimate, ported from the original implementation's
// usage_monitor.py. It tracks totals only; it never throttles or plans
// around cost.
type UsageMonitor struct {
	mu     sync.Mutex
	model  string
	totals Usage
}

func NewUsageMonitor(model string) *UsageMonitor {
	return &UsageMonitor{model: model}
}

func (m *UsageMonitor) Record(usage Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.InputTokens += usage.InputTokens
	m.totals.OutputTokens += usage.OutputTokens
	m.totals.CacheWriteTokens += usage.CacheWriteTokens
	m.totals.CacheReadTokens += usage.CacheReadTokens
}

func (m *UsageMonitor) Totals() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

func (m *UsageMonitor) EstimatedCostUSD() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return EstimateCostUSD(m.model, m.totals)
}
