package tool

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeMCPClient struct {
	server string
	tools  []MCPToolSpec
	calls  []string
}

func (f *fakeMCPClient) ServerName() string { return f.server }

func (f *fakeMCPClient) ListTools(ctx context.Context) ([]MCPToolSpec, error) {
	return f.tools, nil
}

func (f *fakeMCPClient) CallTool(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	f.calls = append(f.calls, name)
	return TextResult("called " + name), nil
}

func (f *fakeMCPClient) Close() error { return nil }

func TestRegisterMCPToolsPrefixesNameAndTagsSource(t *testing.T) {
	r := NewRegistry()
	client := &fakeMCPClient{
		server: "weather",
		tools: []MCPToolSpec{
			{Name: "forecast", Description: "get the forecast", InputSchema: json.RawMessage(`{"type":"object"}`)},
		},
	}

	if err := RegisterMCPTools(context.Background(), r, client); err != nil {
		t.Fatalf("RegisterMCPTools() error = %v", err)
	}

	defs := r.Definitions()
	var found *Definition
	for i := range defs {
		if defs[i].Name == "weather__forecast" {
			found = &defs[i]
		}
	}
	if found == nil {
		t.Fatalf("expected tool %q to be registered, got %+v", "weather__forecast", defs)
	}
	if found.Source != SourceMCP {
		t.Fatalf("Source = %q, want %q", found.Source, SourceMCP)
	}

	result := r.Execute(context.Background(), Call{ID: "1", Name: "weather__forecast", Input: json.RawMessage(`{}`)})
	if result.IsError || result.Text != "called forecast" {
		t.Fatalf("Execute() = %+v, want text %q", result, "called forecast")
	}
	if len(client.calls) != 1 || client.calls[0] != "forecast" {
		t.Fatalf("client.calls = %v, want [forecast] (unprefixed name dispatched back to call_tool)", client.calls)
	}
}

func TestRegisterMCPToolsDuplicateNameFails(t *testing.T) {
	r := NewRegistry()
	client := &fakeMCPClient{server: "weather", tools: []MCPToolSpec{{Name: "forecast"}}}

	if err := RegisterMCPTools(context.Background(), r, client); err != nil {
		t.Fatalf("first RegisterMCPTools() error = %v", err)
	}
	err := RegisterMCPTools(context.Background(), r, client)
	if _, ok := err.(*DuplicateToolError); !ok {
		t.Fatalf("RegisterMCPTools() error = %v, want *DuplicateToolError", err)
	}
}
