package session

import (
	"context"
	"testing"

	"github.com/furisto/agentcore/backend/provider"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqliteBackend, err := OpenSQLiteBackend(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteBackend() error = %v", err)
	}
	t.Cleanup(func() { sqliteBackend.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": sqliteBackend,
	}
}

func TestBackendSaveLoadRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			messages := []provider.Message{
				{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock{Text: "hi"}}},
				{Role: provider.RoleAssistant, Content: []provider.ContentBlock{
					provider.ToolUseBlock{ID: "t1", Name: "read_file", Input: []byte(`{"path":"a.py"}`)},
				}},
			}

			if err := b.Save(ctx, "s1", messages); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := b.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Load() returned %d messages, want 2", len(got))
			}
			toolUse, ok := got[1].Content[0].(provider.ToolUseBlock)
			if !ok || toolUse.ID != "t1" || string(toolUse.Input) != `{"path":"a.py"}` {
				t.Fatalf("Load() tool_use.input did not round-trip: %+v", got[1].Content[0])
			}
		})
	}
}

func TestBackendSessionIsolation(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			must(t, b.Save(ctx, "a", []provider.Message{{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock{Text: "a"}}}}))
			must(t, b.Save(ctx, "b", []provider.Message{{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock{Text: "b"}}}}))

			must(t, b.Delete(ctx, "a"))

			bMessages, err := b.Load(ctx, "b")
			if err != nil || len(bMessages) != 1 {
				t.Fatalf("Delete(a) must not affect session b, got %v, %v", bMessages, err)
			}
		})
	}
}

func TestBackendDeleteCascadesUsage(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			must(t, b.Save(ctx, "s1", []provider.Message{{Role: provider.RoleUser}}))
			must(t, b.SaveUsage(ctx, "s1", Usage{InputTokens: 10}))
			must(t, b.Delete(ctx, "s1"))

			usage, err := b.LoadUsage(ctx, "s1")
			if err != nil {
				t.Fatalf("LoadUsage() after delete error = %v", err)
			}
			if usage.InputTokens != 0 {
				t.Fatalf("LoadUsage() after delete = %+v, want zero value", usage)
			}
		})
	}
}

func TestBackendDeleteUnknownSessionFails(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := b.Delete(context.Background(), "missing")
			if _, ok := err.(*NotFoundError); !ok {
				t.Fatalf("Delete() error = %v, want *NotFoundError", err)
			}
		})
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
