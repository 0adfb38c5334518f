package config

import (
	"time"

	"github.com/furisto/agentcore/backend/agent"
	"github.com/furisto/agentcore/backend/contextwindow"
	"github.com/furisto/agentcore/backend/provider"
	"github.com/furisto/agentcore/backend/sandbox"
	"github.com/furisto/agentcore/backend/secret"
	"github.com/furisto/agentcore/backend/tool"
	"github.com/furisto/agentcore/resilience"
)

// ResolveAPIKey fills cfg.APIKey from sp if it is still empty, using the
// secret.ProviderAPIKeySecret(cfg.Kind) key convention. A caller that
// already has the key inline (e.g. from an env var) can skip this.
func ResolveAPIKey(cfg *ProviderConfig, sp secret.Provider) error {
	if cfg.APIKey != "" || sp == nil {
		return nil
	}
	key, err := sp.Get(secret.ProviderAPIKeySecret(string(cfg.Kind)))
	if err != nil {
		return err
	}
	cfg.APIKey = key
	return nil
}

func retryConfigOption(cfg ProviderConfig) provider.Option {
	return provider.WithRetryConfig(&resilience.RetryConfig{
		MaxAttempts:  uint(cfg.MaxRetries) + 1,
		InitialDelay: cfg.RetryInitialDelay,
		MaxDelay:     10 * cfg.RetryInitialDelay * time.Duration(cfg.MaxRetries+1),
	})
}

// BuildAgent constructs the Provider named by cfg.Provider.Kind and an
// Agent bound to it, applying every default AgentCoreConfig/ProviderConfig/
// ToolRegistryOptions field spec.md §6 names. Callers still supply
// component-specific capabilities (ToolRegistry contents, SkillRegistry,
// SessionBackend, EventStore, Sandbox) via extra agent.Option values.
func BuildAgent(cfg AgentCoreConfig, sb sandbox.Sandbox, extra ...agent.Option) (*agent.Agent, provider.Provider, error) {
	prov, err := BuildProvider(cfg.Provider)
	if err != nil {
		return nil, nil, err
	}

	registry := tool.NewRegistry(tool.Options{MaxResultChars: cfg.Tools.MaxResultChars})

	window := cfg.ContextWindow
	if window == 0 {
		window = provider.ContextWindowFor(cfg.Provider.Model, 200_000)
	}

	opts := append([]agent.Option{
		agent.WithProvider(prov),
		agent.WithToolRegistry(registry),
		agent.WithSystemPrompt(cfg.SystemPrompt),
		agent.WithMaxIterations(cfg.MaxIterations),
		agent.WithMaxTokens(cfg.Provider.MaxTokens),
		agent.WithModel(cfg.Provider.Model),
		agent.WithContextManager(contextwindow.NewManager(window, cfg.CompactThreshold)),
		agent.WithSandbox(sb),
	}, extra...)

	return agent.New(opts...), prov, nil
}
