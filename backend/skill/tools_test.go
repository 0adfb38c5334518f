package skill

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/furisto/agentcore/backend/sandbox"
	"github.com/furisto/agentcore/backend/tool"
)

type fakeSandbox struct {
	lastCommand string
	result      sandbox.ExecResult
}

func (f *fakeSandbox) ValidatePath(relative string) (string, error) { return relative, nil }

func (f *fakeSandbox) Exec(ctx context.Context, command, cwd string, timeout time.Duration) (sandbox.ExecResult, error) {
	f.lastCommand = command
	return f.result, nil
}

func TestBindToolsToRegistersSkillScriptTaggedSource(t *testing.T) {
	reg := NewRegistry()
	must(t, reg.Register(&Skill{
		Name:        "weather",
		Description: "weather lookups",
		Location:    "/skills/weather/SKILL.md",
		Tools: []ToolSpec{
			{Name: "lookup_weather", Description: "look up the weather", Script: "lookup.sh"},
		},
	}))

	sb := &fakeSandbox{result: sandbox.ExecResult{ExitCode: 0, Stdout: "sunny"}}
	tools := tool.NewRegistry()
	if err := reg.BindToolsTo(tools, sb); err != nil {
		t.Fatalf("BindToolsTo() error = %v", err)
	}

	var found *tool.Definition
	for _, d := range tools.Definitions() {
		if d.Name == "lookup_weather" {
			d := d
			found = &d
		}
	}
	if found == nil {
		t.Fatalf("expected lookup_weather to be registered")
	}
	if found.Source != tool.SourceSkill {
		t.Fatalf("Source = %q, want %q", found.Source, tool.SourceSkill)
	}

	result := tools.Execute(context.Background(), tool.Call{ID: "1", Name: "lookup_weather", Input: json.RawMessage(`{"city":"nyc"}`)})
	if result.IsError || result.Text != "sunny" {
		t.Fatalf("Execute() = %+v, want text %q", result, "sunny")
	}
	if sb.lastCommand == "" {
		t.Fatalf("expected Exec to be called with a command")
	}
}

func TestBindToolsToWithNilSandboxErrorsOnExecute(t *testing.T) {
	reg := NewRegistry()
	must(t, reg.Register(&Skill{
		Name:        "weather",
		Description: "weather lookups",
		Location:    "/skills/weather/SKILL.md",
		Tools:       []ToolSpec{{Name: "lookup_weather", Script: "lookup.sh"}},
	}))

	tools := tool.NewRegistry()
	if err := reg.BindToolsTo(tools, nil); err != nil {
		t.Fatalf("BindToolsTo() error = %v", err)
	}

	result := tools.Execute(context.Background(), tool.Call{ID: "1", Name: "lookup_weather", Input: json.RawMessage(`{}`)})
	if !result.IsError {
		t.Fatalf("Execute() with nil Sandbox should fail, got %+v", result)
	}
}
