// Package config is the public configuration surface of spec.md §6:
// ProviderConfig, AgentCoreConfig and ToolRegistryOptions, plus a Build
// helper that wires a config value into a constructed Agent.
package config

import (
	"fmt"
	"time"

	"github.com/furisto/agentcore/backend/agent"
	"github.com/furisto/agentcore/backend/provider"
	"github.com/furisto/agentcore/backend/tool"
)

// ProviderKind selects which concrete Provider backend ProviderConfig binds
// to. Out-of-pack backends are not a goal of this repository.
type ProviderKind string

const (
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOpenAI    ProviderKind = "openai"
	ProviderDeepSeek  ProviderKind = "deepseek"
)

// ProviderConfig configures one concrete Provider backend, per spec.md §6.
type ProviderConfig struct {
	Kind                ProviderKind
	Model               string
	APIKey              string
	MaxTokens           int
	Timeout             time.Duration
	EnablePromptCaching bool
	MaxRetries          int
	RetryInitialDelay   time.Duration
}

// DefaultProviderConfig fills in spec.md §6's defaults for every field
// Kind/Model/APIKey don't determine.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxTokens:           8192,
		Timeout:             60 * time.Second,
		EnablePromptCaching: true,
		MaxRetries:          3,
		RetryInitialDelay:   time.Second,
	}
}

// AgentCoreConfig configures an Agent end to end, per spec.md §6.
type AgentCoreConfig struct {
	Provider         ProviderConfig
	SystemPrompt     string
	MaxIterations    int
	CompactThreshold float64
	ContextWindow    int // 0 means "look up from Provider.Model"
	Tools            ToolRegistryOptions
}

// DefaultAgentCoreConfig fills in spec.md §6's defaults for every field
// beyond Provider/SystemPrompt.
func DefaultAgentCoreConfig() AgentCoreConfig {
	return AgentCoreConfig{
		Provider:         DefaultProviderConfig(),
		MaxIterations:    agent.DefaultMaxIterations,
		CompactThreshold: 0.8,
		Tools:            DefaultToolRegistryOptions(),
	}
}

// ToolRegistryOptions configures ToolRegistry, per spec.md §6.
type ToolRegistryOptions struct {
	MaxResultChars int
}

func DefaultToolRegistryOptions() ToolRegistryOptions {
	return ToolRegistryOptions{MaxResultChars: tool.DefaultMaxResultChars}
}

// BuildProvider constructs the concrete Provider named by cfg.Kind, wiring
// its retry/prompt-caching knobs into provider.Option the way every
// concrete backend's constructor expects.
func BuildProvider(cfg ProviderConfig, opts ...provider.Option) (provider.Provider, error) {
	options := append([]provider.Option{
		provider.WithPromptCaching(cfg.EnablePromptCaching),
		retryConfigOption(cfg),
	}, opts...)

	switch cfg.Kind {
	case ProviderAnthropic, "":
		return provider.NewAnthropicProvider(cfg.APIKey, cfg.Model, options...)
	case ProviderOpenAI:
		return provider.NewOpenAIProvider(cfg.APIKey, cfg.Model, options...)
	case ProviderDeepSeek:
		return provider.NewDeepSeekProvider(cfg.APIKey, cfg.Model, options...)
	default:
		return nil, fmt.Errorf("config: unknown provider kind %q", cfg.Kind)
	}
}
