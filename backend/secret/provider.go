package secret

// Provider defines the interface for secret storage backends.
type Provider interface {
	// Get retrieves a secret by key.
	Get(key string) (string, error)

	// Set stores a secret with the given key.
	Set(key string, value string) error

	// Delete removes a secret by key.
	Delete(key string) error
}

// ProviderAPIKeySecret is the key ProviderConfig.APIKey is resolved from
// when a caller wants it sourced from a Provider instead of passed inline.
func ProviderAPIKeySecret(providerKind string) string {
	return "provider_api_key:" + providerKind
}
