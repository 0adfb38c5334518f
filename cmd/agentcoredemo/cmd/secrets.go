package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/furisto/agentcore/backend/config"
	"github.com/furisto/agentcore/backend/secret"
)

// resolveAPIKeyFromSecretStore is the fallback root.go reaches for once
// --api-key and $ANTHROPIC_API_KEY are both empty: the OS keychain first,
// then a file-backed store under the user's config directory, via
// config.ResolveAPIKey's secret.ProviderAPIKeySecret key convention.
func resolveAPIKeyFromSecretStore(providerKind string) (string, error) {
	cfg := config.ProviderConfig{Kind: config.ProviderKind(providerKind)}

	if err := config.ResolveAPIKey(&cfg, secret.NewKeyringProvider()); err == nil && cfg.APIKey != "" {
		return cfg.APIKey, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	fp, err := secret.NewFileProvider(filepath.Join(dir, "agentcore", "secrets"), afero.NewOsFs())
	if err != nil {
		return "", err
	}
	if err := config.ResolveAPIKey(&cfg, fp); err != nil {
		return "", err
	}
	return cfg.APIKey, nil
}
