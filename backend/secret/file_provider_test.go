package secret

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestFileProviderRoundTrip(t *testing.T) {
	fp, err := NewFileProvider("/secrets", afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}

	if err := fp.Set("provider_api_key:anthropic", "sk-test"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := fp.Get("provider_api_key:anthropic")
	if err != nil || value != "sk-test" {
		t.Fatalf("Get() = %q, %v, want sk-test, nil", value, err)
	}

	if err := fp.Delete("provider_api_key:anthropic"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := fp.Get("provider_api_key:anthropic"); !errors.Is(err, &ErrSecretNotFound{}) {
		t.Fatalf("Get() after delete error = %v, want ErrSecretNotFound", err)
	}
}
