package contextwindow

import (
	"context"
	"strings"

	"github.com/furisto/agentcore/backend/provider"
)

// summarizerSystemPrompt is fixed and model-agnostic: part of the behavior
// contract, since it affects token counts and test determinism.
const summarizerSystemPrompt = "Summarize the conversation so far preserving: user goals, key facts discovered, and pending tasks. Omit tool chatter and full file contents."

// Phase identifies which half of the two-phase algorithm produced a
// CompactEvent.
type Phase string

const (
	PhaseTruncate  Phase = "truncate"
	PhaseSummarize Phase = "summarize"
)

// CompactEvent mirrors the wire-level `compact` event payload of spec.md §6.
type CompactEvent struct {
	Phase        Phase
	BeforeTokens int
	AfterTokens  int
}

// Compact runs phase 1 (tool-result truncation) and, if that alone didn't
// bring usage below the threshold, phase 2 (LLM summarization via
// provider.Create) over history. It returns the (possibly replaced)
// history and the CompactEvents to emit, in order.
func Compact(ctx context.Context, history []provider.Message, prov provider.Provider, systemPrompt string, m *Manager) ([]provider.Message, []CompactEvent, error) {
	before := provider.ApproximateTokenCount(history, systemPrompt, nil)
	initial := before

	truncated, phase1History := truncateToolResults(history)
	if truncated > 0 {
		after := provider.ApproximateTokenCount(phase1History, systemPrompt, nil)
		event := CompactEvent{Phase: PhaseTruncate, BeforeTokens: before, AfterTokens: after}
		if percentOf(after, m.contextWindow) < m.threshold {
			return phase1History, []CompactEvent{event}, nil
		}
		history = phase1History
		before = after
	}

	summarized, summary, err := summarize(ctx, history, prov, m.keepLastN)
	if err != nil {
		return history, nil, err
	}
	if summary == nil {
		// Not enough history to safely summarize; phase 1's truncation (if
		// any) is the whole result.
		if truncated > 0 {
			after := provider.ApproximateTokenCount(history, systemPrompt, nil)
			return history, []CompactEvent{{Phase: PhaseTruncate, BeforeTokens: initial, AfterTokens: after}}, nil
		}
		return history, nil, nil
	}

	after := provider.ApproximateTokenCount(summarized, systemPrompt, nil)
	events := []CompactEvent{{Phase: PhaseSummarize, BeforeTokens: before, AfterTokens: after}}
	return summarized, events, nil
}

func percentOf(tokens, contextWindow int) float64 {
	if contextWindow <= 0 {
		return 0
	}
	return float64(tokens) / float64(contextWindow)
}

// truncateToolResults walks history oldest->newest and replaces every
// tool_result block's content with TruncatedPlaceholder, except those
// belonging to the last turn-pair. The matching tool_use blocks are kept
// verbatim so the pairing invariant holds.
func truncateToolResults(history []provider.Message) (int, []provider.Message) {
	resultTurns := turnsWithToolResult(history)
	if len(resultTurns) == 0 {
		return 0, history
	}

	lastTurn := resultTurns[len(resultTurns)-1]
	out := make([]provider.Message, len(history))
	copy(out, history)

	truncatedCount := 0
	for _, idx := range resultTurns {
		if idx == lastTurn {
			continue
		}
		msg := out[idx]
		content := make([]provider.ContentBlock, len(msg.Content))
		copy(content, msg.Content)
		for i, block := range content {
			result, ok := block.(provider.ToolResultBlock)
			if !ok {
				continue
			}
			if isAlreadyTruncated(result) {
				continue
			}
			result.Content = []provider.ContentBlock{provider.TextBlock{Text: TruncatedPlaceholder}}
			content[i] = result
			truncatedCount++
		}
		msg.Content = content
		out[idx] = msg
	}

	return truncatedCount, out
}

func isAlreadyTruncated(result provider.ToolResultBlock) bool {
	return len(result.Content) == 1 && result.Content[0] == provider.ContentBlock(provider.TextBlock{Text: TruncatedPlaceholder})
}

func turnsWithToolResult(history []provider.Message) []int {
	var indices []int
	for i, msg := range history {
		if msg.Role != provider.RoleUser {
			continue
		}
		for _, block := range msg.Content {
			if block.Type() == provider.BlockTypeToolResult {
				indices = append(indices, i)
				break
			}
		}
	}
	return indices
}

// summarize implements phase 2: find a safe split point that never splits
// a tool_use/tool_result pair, summarize everything before it via
// Provider.Create, and replace that prefix with exactly two synthetic
// turns. Returns (nil, nil) if there isn't enough history to summarize.
func summarize(ctx context.Context, history []provider.Message, prov provider.Provider, keepLastN int) ([]provider.Message, *string, error) {
	splitPoint := safeSplitPoint(history, keepLastN*2)
	if splitPoint < 2 {
		return nil, nil, nil
	}

	early := history[:splitPoint]
	recent := history[splitPoint:]

	summaryRequest := []provider.Message{
		{Role: provider.RoleUser, Content: []provider.ContentBlock{
			provider.TextBlock{Text: formatForSummary(early)},
		}},
	}

	final, err := prov.Create(ctx, summaryRequest, summarizerSystemPrompt, nil, 2048)
	if err != nil {
		return nil, nil, err
	}

	var summary strings.Builder
	for _, block := range final.ContentBlocks {
		if text, ok := block.(provider.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}
	summaryText := summary.String()

	replaced := []provider.Message{
		{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock{Text: "[Conversation summary] " + summaryText}}},
		{Role: provider.RoleAssistant, Content: []provider.ContentBlock{provider.TextBlock{Text: "Understood. Continuing."}}},
	}
	result := append(replaced, recent...)
	return result, &summaryText, nil
}

// safeSplitPoint mirrors original_source/src/agent_core/compact.py's
// _find_safe_split_point: start keepLastN messages from the end, then step
// backward while the split lands on a tool_result turn, so that turn is
// never separated from the tool_use turn before it.
func safeSplitPoint(history []provider.Message, keepLastN int) int {
	if len(history) <= keepLastN {
		return 0
	}

	split := len(history) - keepLastN
	for split > 0 {
		msg := history[split]
		if msg.Role == provider.RoleUser && hasBlockType(msg, provider.BlockTypeToolResult) {
			split--
			continue
		}
		break
	}
	return split
}

func hasBlockType(msg provider.Message, t provider.ContentBlockType) bool {
	for _, block := range msg.Content {
		if block.Type() == t {
			return true
		}
	}
	return false
}

func formatForSummary(messages []provider.Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		for _, block := range msg.Content {
			switch b := block.(type) {
			case provider.TextBlock:
				sb.WriteString(b.Text)
			case provider.ToolUseBlock:
				sb.WriteString("[called tool: " + b.Name + "]")
			case provider.ToolResultBlock:
				sb.WriteString(formatToolResultPreview(b))
			}
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func formatToolResultPreview(result provider.ToolResultBlock) string {
	var text strings.Builder
	for _, block := range result.Content {
		if t, ok := block.(provider.TextBlock); ok {
			text.WriteString(t.Text)
		}
	}
	content := text.String()
	if content == TruncatedPlaceholder {
		return TruncatedPlaceholder
	}
	preview := content
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return "[tool result: " + preview + "...]"
}
