package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/furisto/agentcore/backend/eventstore"
	"github.com/furisto/agentcore/backend/provider"
	"github.com/furisto/agentcore/backend/session"
	"github.com/furisto/agentcore/backend/skill"
	"github.com/furisto/agentcore/backend/tool"
)

func TestNewRegistersCreateSubagentByDefault(t *testing.T) {
	ag := New(WithProvider(&scriptedProvider{}), WithSessionBackend(session.NewMemoryBackend()))

	var found *tool.Definition
	for _, d := range ag.tools.Definitions() {
		if d.Name == SubagentToolName {
			d := d
			found = &d
		}
	}
	if found == nil {
		t.Fatalf("expected %q to be registered by New()", SubagentToolName)
	}
	if found.Source != tool.SourceSubagent {
		t.Fatalf("Source = %q, want %q", found.Source, tool.SourceSubagent)
	}
}

func TestCreateSubagentDelegatesAndReturnsChildFinalText(t *testing.T) {
	taskInput, _ := json.Marshal(subagentInput{Task: "summarize the README"})

	prov := &scriptedProvider{responses: []scriptedResponse{
		// Parent: delegate to a subagent.
		{final: provider.StreamFinal{
			StopReason:    provider.StopReasonToolUse,
			ContentBlocks: []provider.ContentBlock{provider.ToolUseBlock{ID: "t1", Name: SubagentToolName, Input: taskInput}},
		}},
		// Child: runs to completion inside the create_subagent handler.
		{deltas: []string{"the README says hello"}, final: provider.StreamFinal{StopReason: provider.StopReasonEndTurn}},
		// Parent: resumes after the tool result and finishes.
		{deltas: []string{"done"}, final: provider.StreamFinal{StopReason: provider.StopReasonEndTurn}},
	}}

	ag := New(WithProvider(prov), WithSkillRegistry(skill.NewRegistry()), WithSessionBackend(session.NewMemoryBackend()))

	seq, err := ag.StreamMessage(context.Background(), UserInput{Text: "please delegate this"}, "s1", "")
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}
	events := collect(t, seq)
	kinds := eventKinds(events)

	if kinds[0] != eventstore.KindToolCall || kinds[1] != eventstore.KindToolCall {
		t.Fatalf("events = %v, want tool_call(started), tool_call(completed), ...", kinds)
	}
	if kinds[len(kinds)-1] != eventstore.KindDone {
		t.Fatalf("events = %v, want trailing done", kinds)
	}

	history, _ := ag.sessions.Load(context.Background(), "s1")
	toolResult, ok := history[2].Content[0].(provider.ToolResultBlock)
	if !ok || toolResult.ToolUseID != "t1" {
		t.Fatalf("history[2] = %+v, want tool_result paired with tool_use id t1", history[2])
	}
	text, ok := toolResult.Content[0].(provider.TextBlock)
	if !ok || text.Text != "the README says hello" {
		t.Fatalf("tool_result content = %+v, want the child agent's final text", toolResult.Content)
	}
}

func TestCreateSubagentRejectsEmptyTask(t *testing.T) {
	toolInput, _ := json.Marshal(subagentInput{Task: "   "})
	prov := &scriptedProvider{responses: []scriptedResponse{
		{final: provider.StreamFinal{
			StopReason:    provider.StopReasonToolUse,
			ContentBlocks: []provider.ContentBlock{provider.ToolUseBlock{ID: "t1", Name: SubagentToolName, Input: toolInput}},
		}},
		{deltas: []string{"ok"}, final: provider.StreamFinal{StopReason: provider.StopReasonEndTurn}},
	}}

	ag := New(WithProvider(prov), WithSkillRegistry(skill.NewRegistry()), WithSessionBackend(session.NewMemoryBackend()))

	seq, err := ag.StreamMessage(context.Background(), UserInput{Text: "delegate an empty task"}, "s1", "")
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}
	_ = collect(t, seq)
	history, _ := ag.sessions.Load(context.Background(), "s1")

	toolResult, ok := history[2].Content[0].(provider.ToolResultBlock)
	if !ok || !toolResult.IsError {
		t.Fatalf("history[2] = %+v, want an error tool_result for an empty task", history[2])
	}
}

func TestNewChildAgentOmitsCreateSubagentToPreventRecursion(t *testing.T) {
	parent := New(WithProvider(&scriptedProvider{}), WithSessionBackend(session.NewMemoryBackend()))
	child := newChildAgent(parent)

	for _, d := range child.tools.Definitions() {
		if d.Name == SubagentToolName {
			t.Fatalf("child agent must not carry %q, got it registered", SubagentToolName)
		}
	}
}
