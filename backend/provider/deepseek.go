package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	deepseek "github.com/cohesion-org/deepseek-go"
)

// DeepSeekProvider talks to the DeepSeek chat-completions API via the
// community deepseek-go client. Unlike the Anthropic/OpenAI SDKs this one
// uses plain request/response structs rather than a param-builder
// convention, so translation is simpler but tool-calling support is
// best-effort against what the backend actually returns.
type DeepSeekProvider struct {
	client *deepseek.Client
	opts   *Options
	model  string
}

func NewDeepSeekProvider(apiKey, model string, opts ...Option) (*DeepSeekProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek: API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("deepseek: model is required")
	}

	options := DefaultOptions("deepseek")
	for _, opt := range opts {
		opt(options)
	}

	return &DeepSeekProvider{
		client: deepseek.NewClient(apiKey),
		opts:   options,
		model:  model,
	}, nil
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) Stream(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (iter.Seq2[StreamChunk, error], error) {
	request := p.buildRequest(messages, system, tools, maxTokens)
	request.Stream = true

	return func(yield func(StreamChunk, error) bool) {
		final, err := withRetry(ctx, p.Name(), p.opts, func(ctx context.Context) (*StreamFinal, error) {
			stream, err := p.client.CreateChatCompletionStream(ctx, &request)
			if err != nil {
				return nil, p.parseError(err)
			}
			defer stream.Close()

			var text strings.Builder
			var usage deepseek.Usage
			for {
				chunk, err := stream.Recv()
				if err != nil {
					break
				}
				for _, choice := range chunk.Choices {
					textDelta := choice.Delta.Content
					if textDelta != "" {
						text.WriteString(textDelta)
						if !yield(StreamChunk{TextDelta: textDelta}, nil) {
							return nil, context.Canceled
						}
					}
				}
				if chunk.Usage != nil {
					usage = *chunk.Usage
				}
			}

			return &StreamFinal{
				ContentBlocks: []ContentBlock{TextBlock{Text: text.String()}},
				StopReason:    StopReasonEndTurn,
				Usage: Usage{
					InputTokens:  int64(usage.PromptTokens),
					OutputTokens: int64(usage.CompletionTokens),
				},
			}, nil
		})
		if err != nil {
			yield(StreamChunk{}, err)
			return
		}
		yield(StreamChunk{Final: final}, nil)
	}, nil
}

func (p *DeepSeekProvider) Create(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (*StreamFinal, error) {
	request := p.buildRequest(messages, system, tools, maxTokens)

	return withRetry(ctx, p.Name(), p.opts, func(ctx context.Context) (*StreamFinal, error) {
		response, err := p.client.CreateChatCompletion(ctx, &request)
		if err != nil {
			return nil, p.parseError(err)
		}
		if len(response.Choices) == 0 {
			return &StreamFinal{StopReason: StopReasonEndTurn}, nil
		}

		choice := response.Choices[0]
		var blocks []ContentBlock
		if choice.Message.Content != "" {
			blocks = append(blocks, TextBlock{Text: choice.Message.Content})
		}
		for _, call := range choice.Message.ToolCalls {
			blocks = append(blocks, ToolUseBlock{
				ID:    call.ID,
				Name:  call.Function.Name,
				Input: json.RawMessage(call.Function.Arguments),
			})
		}

		return &StreamFinal{
			ContentBlocks: blocks,
			StopReason:    deepSeekStopReason(choice.FinishReason),
			Usage: Usage{
				InputTokens:  int64(response.Usage.PromptTokens),
				OutputTokens: int64(response.Usage.CompletionTokens),
			},
		}, nil
	})
}

func (p *DeepSeekProvider) CountTokens(ctx context.Context, messages []Message, system string, tools []ToolDefinition) (int, error) {
	return ApproximateTokenCount(messages, system, tools), nil
}

func (p *DeepSeekProvider) buildRequest(messages []Message, system string, tools []ToolDefinition, maxTokens int) deepseek.ChatCompletionRequest {
	chatMessages := make([]deepseek.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		chatMessages = append(chatMessages, deepseek.ChatCompletionMessage{
			Role:    deepseek.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, message := range messages {
		chatMessages = append(chatMessages, translateToDeepSeek(message)...)
	}

	request := deepseek.ChatCompletionRequest{
		Model:     p.model,
		Messages:  chatMessages,
		MaxTokens: maxTokens,
	}

	for _, tool := range tools {
		request.Tools = append(request.Tools, deepseek.Tool{
			Type: "function",
			Function: deepseek.Function{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  rawSchemaToMap(tool.InputSchema),
			},
		})
	}

	return request
}

func translateToDeepSeek(message Message) []deepseek.ChatCompletionMessage {
	role := deepseek.ChatMessageRoleUser
	if message.Role == RoleAssistant {
		role = deepseek.ChatMessageRoleAssistant
	}

	var out []deepseek.ChatCompletionMessage
	var text string
	for _, block := range message.Content {
		switch b := block.(type) {
		case TextBlock:
			text += b.Text
		case ToolResultBlock:
			var resultText string
			for _, inner := range b.Content {
				if t, ok := inner.(TextBlock); ok {
					resultText += t.Text
				}
			}
			out = append(out, deepseek.ChatCompletionMessage{
				Role:       deepseek.ChatMessageRoleTool,
				Content:    resultText,
				ToolCallID: b.ToolUseID,
			})
		}
	}
	if text != "" {
		out = append([]deepseek.ChatCompletionMessage{{Role: role, Content: text}}, out...)
	}
	return out
}

func deepSeekStopReason(reason string) StopReason {
	switch reason {
	case "tool_calls":
		return StopReasonToolUse
	case "length":
		return StopReasonMaxTokens
	default:
		return StopReasonEndTurn
	}
}

func (p *DeepSeekProvider) parseError(err error) error {
	return NewError(p.Name(), ErrorKindConnection, err)
}
