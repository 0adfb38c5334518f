package provider

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ApproximateTokenCount estimates a token count for backends that don't
// expose a precise count_tokens endpoint. It NFC-normalizes the text first
// so multi-byte and combining-character sequences count consistently, then
// approximates at roughly 4 characters per token, the same rule of thumb
// the original token_counter.py uses.
func ApproximateTokenCount(messages []Message, system string, tools []ToolDefinition) int {
	var sb strings.Builder
	sb.WriteString(system)
	for _, msg := range messages {
		for _, block := range msg.Content {
			writeBlockText(&sb, block)
		}
	}
	for _, tool := range tools {
		sb.WriteString(tool.Name)
		sb.WriteString(tool.Description)
		sb.Write(tool.InputSchema)
	}

	normalized := norm.NFC.String(sb.String())
	chars := 0
	for _, r := range normalized {
		if !unicode.IsSpace(r) {
			chars++
		}
	}
	if chars == 0 {
		return 0
	}
	return (chars + 3) / 4
}

func writeBlockText(sb *strings.Builder, block ContentBlock) {
	switch b := block.(type) {
	case TextBlock:
		sb.WriteString(b.Text)
	case ToolUseBlock:
		sb.WriteString(b.Name)
		sb.Write(b.Input)
	case ToolResultBlock:
		for _, inner := range b.Content {
			writeBlockText(sb, inner)
		}
	}
}
