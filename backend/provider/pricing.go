package provider

// ModelPricing is one row of the static model pricing table consulted by
// the ContextManager for context-window defaults and by the usage ledger
// for cost estimation.
type ModelPricing struct {
	InputUSDPerMTok  float64
	OutputUSDPerMTok float64
	ContextWindow    int
}

// PricingTable is the static model_id -> pricing mapping. It is not
// refreshed at runtime; callers needing current pricing should override
// entries before constructing an Agent.
var PricingTable = map[string]ModelPricing{
	"claude-opus-4-20250514":     {InputUSDPerMTok: 15.00, OutputUSDPerMTok: 75.00, ContextWindow: 200_000},
	"claude-sonnet-4-20250514":   {InputUSDPerMTok: 3.00, OutputUSDPerMTok: 15.00, ContextWindow: 200_000},
	"claude-3-5-haiku-20241022":  {InputUSDPerMTok: 0.80, OutputUSDPerMTok: 4.00, ContextWindow: 200_000},
	"gpt-4o":                     {InputUSDPerMTok: 2.50, OutputUSDPerMTok: 10.00, ContextWindow: 128_000},
	"gpt-4o-mini":                {InputUSDPerMTok: 0.15, OutputUSDPerMTok: 0.60, ContextWindow: 128_000},
	"deepseek-chat":              {InputUSDPerMTok: 0.27, OutputUSDPerMTok: 1.10, ContextWindow: 64_000},
	"deepseek-reasoner":          {InputUSDPerMTok: 0.55, OutputUSDPerMTok: 2.19, ContextWindow: 64_000},
}

// ContextWindowFor returns the configured model's context window, or the
// fallback if the model is not in PricingTable.
func ContextWindowFor(model string, fallback int) int {
	if p, ok := PricingTable[model]; ok {
		return p.ContextWindow
	}
	return fallback
}

// EstimateCostUSD applies PricingTable to a Usage, following the teacher's
// cost formula: input and output tokens priced at their own
// per-million-token rates. Cache-write and cache-read tokens are billed at
// the input rate, matching every pack provider's own cache pricing
// convention.
func EstimateCostUSD(model string, usage Usage) float64 {
	p, ok := PricingTable[model]
	if !ok {
		return 0
	}
	const million = 1_000_000.0
	return float64(usage.InputTokens)*p.InputUSDPerMTok/million +
		float64(usage.OutputTokens)*p.OutputUSDPerMTok/million +
		float64(usage.CacheWriteTokens)*p.InputUSDPerMTok/million +
		float64(usage.CacheReadTokens)*p.InputUSDPerMTok/million
}
