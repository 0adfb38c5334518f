package contextwindow

import (
	"context"
	"iter"
	"strings"
	"testing"

	"github.com/furisto/agentcore/backend/provider"
)

type stubProvider struct {
	createText string
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) Stream(ctx context.Context, messages []provider.Message, system string, tools []provider.ToolDefinition, maxTokens int) (iter.Seq2[provider.StreamChunk, error], error) {
	return nil, nil
}
func (s *stubProvider) Create(ctx context.Context, messages []provider.Message, system string, tools []provider.ToolDefinition, maxTokens int) (*provider.StreamFinal, error) {
	return &provider.StreamFinal{
		ContentBlocks: []provider.ContentBlock{provider.TextBlock{Text: s.createText}},
		StopReason:    provider.StopReasonEndTurn,
	}, nil
}
func (s *stubProvider) CountTokens(ctx context.Context, messages []provider.Message, system string, tools []provider.ToolDefinition) (int, error) {
	return provider.ApproximateTokenCount(messages, system, tools), nil
}

func toolRound(id, toolName, result string) []provider.Message {
	return []provider.Message{
		{Role: provider.RoleAssistant, Content: []provider.ContentBlock{
			provider.ToolUseBlock{ID: id, Name: toolName, Input: []byte(`{}`)},
		}},
		{Role: provider.RoleUser, Content: []provider.ContentBlock{
			provider.ToolResultBlock{ToolUseID: id, Content: []provider.ContentBlock{provider.TextBlock{Text: result}}},
		}},
	}
}

func TestTruncateToolResultsKeepsLastTurnPairVerbatim(t *testing.T) {
	var history []provider.Message
	history = append(history, toolRound("1", "read_file", "old result")...)
	history = append(history, toolRound("2", "read_file", "newest result")...)

	truncated, out := truncateToolResults(history)
	if truncated != 1 {
		t.Fatalf("truncateToolResults() truncated = %d, want 1", truncated)
	}

	first := out[1].Content[0].(provider.ToolResultBlock)
	if text := first.Content[0].(provider.TextBlock).Text; text != TruncatedPlaceholder {
		t.Fatalf("first tool_result content = %q, want placeholder", text)
	}

	last := out[3].Content[0].(provider.ToolResultBlock)
	if text := last.Content[0].(provider.TextBlock).Text; text != "newest result" {
		t.Fatalf("last tool_result content = %q, want verbatim", text)
	}
}

func TestTruncateToolResultsPreservesToolUsePairing(t *testing.T) {
	var history []provider.Message
	history = append(history, toolRound("1", "read_file", "a")...)
	history = append(history, toolRound("2", "read_file", "b")...)

	_, out := truncateToolResults(history)
	for i := 0; i < len(out); i += 2 {
		toolUse := out[i].Content[0].(provider.ToolUseBlock)
		toolResult := out[i+1].Content[0].(provider.ToolResultBlock)
		if toolUse.ID != toolResult.ToolUseID {
			t.Fatalf("pairing broken at index %d: %q != %q", i, toolUse.ID, toolResult.ToolUseID)
		}
	}
}

func TestSafeSplitPointNeverSplitsAToolPair(t *testing.T) {
	var history []provider.Message
	for i := 0; i < 6; i++ {
		history = append(history, toolRound(strings_itoa(i), "t", "r")...)
	}

	split := safeSplitPoint(history, 3)
	if split%2 != 0 {
		t.Fatalf("safeSplitPoint() = %d, must land on a tool_use/tool_result boundary", split)
	}
}

func TestCompactSummarizationReplacesEarlyHistoryWithTwoTurns(t *testing.T) {
	var history []provider.Message
	for i := 0; i < 10; i++ {
		history = append(history, toolRound(strings_itoa(i), "t", "result content "+strings_itoa(i))...)
	}

	m := NewManager(100, 0.1)
	prov := &stubProvider{createText: "summary text"}

	out, events, err := Compact(context.Background(), history, prov, "base", m)
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("Compact() produced no events")
	}

	foundSummary := false
	for _, msg := range out {
		if msg.Role == provider.RoleUser {
			if text, ok := msg.Content[0].(provider.TextBlock); ok && strings.Contains(text.Text, "summary text") {
				foundSummary = true
			}
		}
	}
	if !foundSummary {
		t.Fatalf("Compact() output missing summary turn: %+v", out)
	}
}

func strings_itoa(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	return string(digits[i/10]) + string(digits[i%10])
}
