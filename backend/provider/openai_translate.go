package provider

import (
	"encoding/json"

	"github.com/openai/openai-go"
)

func translateToOpenAI(message Message) []openai.ChatCompletionMessageParamUnion {
	var text string
	var toolResults []openai.ChatCompletionMessageParamUnion
	var toolUses []openai.ChatCompletionMessageToolCallParam

	for _, block := range message.Content {
		switch b := block.(type) {
		case TextBlock:
			text += b.Text
		case ToolUseBlock:
			toolUses = append(toolUses, openai.ChatCompletionMessageToolCallParam{
				ID:   openai.F(b.ID),
				Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
				Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      openai.F(b.Name),
					Arguments: openai.F(string(b.Input)),
				}),
			})
		case ToolResultBlock:
			var resultText string
			for _, inner := range b.Content {
				if t, ok := inner.(TextBlock); ok {
					resultText += t.Text
				}
			}
			toolResults = append(toolResults, openai.ToolMessage(b.ToolUseID, resultText))
		}
	}

	var out []openai.ChatCompletionMessageParamUnion
	switch message.Role {
	case RoleUser:
		if text != "" {
			out = append(out, openai.UserMessage(text))
		}
		out = append(out, toolResults...)
	case RoleAssistant:
		if len(toolUses) > 0 {
			out = append(out, openai.ChatCompletionAssistantMessageParam{
				Role:      openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
				Content:   openai.F([]openai.ChatCompletionAssistantMessageParamContentUnion{openai.TextPart(text)}),
				ToolCalls: openai.F(toolUses),
			})
		} else {
			out = append(out, openai.AssistantMessage(text))
		}
	}
	return out
}

func translateFromOpenAI(choices []openai.ChatCompletionChoice) []ContentBlock {
	if len(choices) == 0 {
		return nil
	}
	msg := choices[0].Message

	var blocks []ContentBlock
	if msg.Content != "" {
		blocks = append(blocks, TextBlock{Text: msg.Content})
	}
	for _, call := range msg.ToolCalls {
		blocks = append(blocks, ToolUseBlock{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: json.RawMessage(call.Function.Arguments),
		})
	}
	return blocks
}

func finishReason(choices []openai.ChatCompletionChoice) string {
	if len(choices) == 0 {
		return ""
	}
	return string(choices[0].FinishReason)
}

func translateOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "tool_calls":
		return StopReasonToolUse
	case "length":
		return StopReasonMaxTokens
	default:
		return StopReasonEndTurn
	}
}

func rawSchemaToMap(schema json.RawMessage) map[string]any {
	if len(schema) == 0 {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(schema, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}
