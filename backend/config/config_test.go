package config

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/furisto/agentcore/backend/secret"
)

func TestDefaultAgentCoreConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultAgentCoreConfig()

	if cfg.MaxIterations != 25 {
		t.Errorf("MaxIterations = %d, want 25", cfg.MaxIterations)
	}
	if cfg.CompactThreshold != 0.8 {
		t.Errorf("CompactThreshold = %v, want 0.8", cfg.CompactThreshold)
	}
	if cfg.Provider.MaxTokens != 8192 {
		t.Errorf("Provider.MaxTokens = %d, want 8192", cfg.Provider.MaxTokens)
	}
	if cfg.Provider.MaxRetries != 3 {
		t.Errorf("Provider.MaxRetries = %d, want 3", cfg.Provider.MaxRetries)
	}
	if !cfg.Provider.EnablePromptCaching {
		t.Error("Provider.EnablePromptCaching = false, want true")
	}
	if cfg.Tools.MaxResultChars != 50_000 {
		t.Errorf("Tools.MaxResultChars = %d, want 50000", cfg.Tools.MaxResultChars)
	}
}

func TestBuildProviderRejectsUnknownKind(t *testing.T) {
	cfg := DefaultProviderConfig()
	cfg.Kind = "made-up"
	cfg.APIKey = "key"
	cfg.Model = "model"

	if _, err := BuildProvider(cfg); err == nil {
		t.Fatal("BuildProvider() error = nil, want error for unknown kind")
	}
}

func TestBuildProviderRejectsMissingAPIKey(t *testing.T) {
	cfg := DefaultProviderConfig()
	cfg.Kind = ProviderAnthropic
	cfg.Model = "claude-sonnet-4-20250514"

	if _, err := BuildProvider(cfg); err == nil {
		t.Fatal("BuildProvider() error = nil, want error for missing API key")
	}
}

func TestResolveAPIKeyLeavesInlineKeyUntouched(t *testing.T) {
	cfg := ProviderConfig{Kind: ProviderAnthropic, APIKey: "sk-inline"}
	fp, err := secret.NewFileProvider("/secrets", afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}
	if err := fp.Set(secret.ProviderAPIKeySecret(string(ProviderAnthropic)), "sk-from-store"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := ResolveAPIKey(&cfg, fp); err != nil {
		t.Fatalf("ResolveAPIKey() error = %v", err)
	}
	if cfg.APIKey != "sk-inline" {
		t.Fatalf("APIKey = %q, want the inline key left untouched", cfg.APIKey)
	}
}

func TestResolveAPIKeyFillsEmptyKeyFromProvider(t *testing.T) {
	cfg := ProviderConfig{Kind: ProviderAnthropic}
	fp, err := secret.NewFileProvider("/secrets", afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}
	if err := fp.Set(secret.ProviderAPIKeySecret(string(ProviderAnthropic)), "sk-from-store"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := ResolveAPIKey(&cfg, fp); err != nil {
		t.Fatalf("ResolveAPIKey() error = %v", err)
	}
	if cfg.APIKey != "sk-from-store" {
		t.Fatalf("APIKey = %q, want sk-from-store", cfg.APIKey)
	}
}

func TestResolveAPIKeyWithNilProviderIsNoop(t *testing.T) {
	cfg := ProviderConfig{Kind: ProviderAnthropic}
	if err := ResolveAPIKey(&cfg, nil); err != nil {
		t.Fatalf("ResolveAPIKey() error = %v", err)
	}
	if cfg.APIKey != "" {
		t.Fatalf("APIKey = %q, want empty with a nil secret.Provider", cfg.APIKey)
	}
}

func TestResolveAPIKeyPropagatesNotFound(t *testing.T) {
	cfg := ProviderConfig{Kind: ProviderAnthropic}
	fp, err := secret.NewFileProvider("/secrets", afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}

	if err := ResolveAPIKey(&cfg, fp); err == nil {
		t.Fatal("ResolveAPIKey() error = nil, want error when no key is stored")
	}
}
