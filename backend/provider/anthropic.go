package provider

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider talks to the Anthropic Messages API. It is the primary,
// fully wired Provider implementation.
type AnthropicProvider struct {
	client  *anthropic.Client
	opts    *Options
	model   string
}

// NewAnthropicProvider constructs a Provider bound to a fixed model id
// (e.g. "claude-sonnet-4-20250514"); Stream/Create/CountTokens all invoke
// that model.
func NewAnthropicProvider(apiKey, model string, opts ...Option) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic: model is required")
	}

	options := DefaultOptions("anthropic")
	for _, opt := range opts {
		opt(options)
	}

	clientOptions := []option.RequestOption{option.WithAPIKey(apiKey)}

	return &AnthropicProvider{
		client: anthropic.NewClient(clientOptions...),
		opts:   options,
		model:  model,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Stream(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (iter.Seq2[StreamChunk, error], error) {
	request, err := p.buildRequest(messages, system, tools, maxTokens)
	if err != nil {
		return nil, err
	}

	return func(yield func(StreamChunk, error) bool) {
		final, err := withRetry(ctx, p.Name(), p.opts, func(ctx context.Context) (*StreamFinal, error) {
			stream := p.client.Messages.NewStreaming(ctx, request)
			defer stream.Close()

			accumulated := anthropic.Message{}
			for stream.Next() {
				event := stream.Current()
				if err := accumulated.Accumulate(event); err != nil {
					return nil, p.parseError(err)
				}

				if delta, ok := event.Delta.(anthropic.ContentBlockDeltaEventDelta); ok && delta.Text != "" {
					if !yield(StreamChunk{TextDelta: delta.Text}, nil) {
						return nil, context.Canceled
					}
				}
			}
			if stream.Err() != nil {
				return nil, p.parseError(stream.Err())
			}

			return &StreamFinal{
				ContentBlocks: translateFromAnthropic(accumulated.Content),
				StopReason:    translateStopReason(string(accumulated.StopReason)),
				Usage: Usage{
					InputTokens:      accumulated.Usage.InputTokens,
					OutputTokens:     accumulated.Usage.OutputTokens,
					CacheWriteTokens: accumulated.Usage.CacheCreationInputTokens,
					CacheReadTokens:  accumulated.Usage.CacheReadInputTokens,
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

func (p *AnthropicProvider) Create(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (*StreamFinal, error) {
	request, err := p.buildRequest(messages, system, tools, maxTokens)
	if err != nil {
		return nil, err
	}

	return withRetry(ctx, p.Name(), p.opts, func(ctx context.Context) (*StreamFinal, error) {
		msg, err := p.client.Messages.New(ctx, request)
		if err != nil {
			return nil, p.parseError(err)
		}
		return &StreamFinal{
			ContentBlocks: translateFromAnthropic(msg.Content),
			StopReason:    translateStopReason(string(msg.StopReason)),
			Usage: Usage{
				InputTokens:      msg.Usage.InputTokens,
				OutputTokens:     msg.Usage.OutputTokens,
				CacheWriteTokens: msg.Usage.CacheCreationInputTokens,
				CacheReadTokens:  msg.Usage.CacheReadInputTokens,
			},
		}, nil
	})
}

func (p *AnthropicProvider) CountTokens(ctx context.Context, messages []Message, system string, tools []ToolDefinition) (int, error) {
	anthropicMessages, err := p.transformMessages(messages)
	if err != nil {
		return 0, err
	}
	anthropicTools, err := p.transformTools(tools)
	if err != nil {
		return 0, err
	}

	count, err := withRetry(ctx, p.Name(), p.opts, func(ctx context.Context) (*anthropic.MessageTokensCount, error) {
		return p.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
			Model: anthropic.F(anthropic.Model(p.model)),
			System: anthropic.F[anthropic.MessageCountTokensParamsSystemUnion](
				anthropic.MessageCountTokensParamsSystemArray{anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(system),
				}},
			),
			Messages: anthropic.F(anthropicMessages),
			Tools:    anthropic.F(toCountTokensTools(anthropicTools)),
		})
	})
	if err != nil {
		return ApproximateTokenCount(messages, system, tools), nil
	}
	return int(count.InputTokens), nil
}

func (p *AnthropicProvider) buildRequest(messages []Message, system string, tools []ToolDefinition, maxTokens int) (anthropic.MessageNewParams, error) {
	anthropicMessages, err := p.transformMessages(messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	anthropicTools, err := p.transformTools(tools)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	systemBlock := anthropic.TextBlockParam{
		Type: anthropic.F(anthropic.TextBlockParamTypeText),
		Text: anthropic.F(system),
	}
	if p.opts.EnablePromptCaching {
		systemBlock.CacheControl = anthropic.F(anthropic.CacheControlEphemeralParam{
			Type: anthropic.F(anthropic.CacheControlEphemeralTypeEphemeral),
		})
	}

	request := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(p.model)),
		MaxTokens: anthropic.F(int64(maxTokens)),
		System:    anthropic.F([]anthropic.TextBlockParam{systemBlock}),
		Messages:  anthropic.F(anthropicMessages),
	}

	if len(anthropicTools) > 0 {
		request.ToolChoice = anthropic.F(anthropic.ToolChoiceUnionParam(anthropic.ToolChoiceAutoParam{
			Type: anthropic.F(anthropic.ToolChoiceAutoTypeAuto),
		}))
		request.Tools = anthropic.F(anthropicTools)
	}

	return request, nil
}

// transformMessages mirrors the teacher's cache-control placement: the
// ephemeral marker lands on the last content block of the last user
// message and of the second-to-last user message, so the prefix up to
// (but not including) the newest turn stays cacheable.
func (p *AnthropicProvider) transformMessages(messages []Message) ([]anthropic.MessageParam, error) {
	lastUserIdx, secondToLastUserIdx := -1, -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			if lastUserIdx == -1 {
				lastUserIdx = i
			} else if secondToLastUserIdx == -1 {
				secondToLastUserIdx = i
				break
			}
		}
	}

	result := make([]anthropic.MessageParam, len(messages))
	for i, message := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, len(message.Content))
		cacheableTurn := p.opts.EnablePromptCaching && (i == lastUserIdx || i == secondToLastUserIdx)

		for j, block := range message.Content {
			isLastBlock := j == len(message.Content)-1
			switch b := block.(type) {
			case TextBlock:
				tb := anthropic.NewTextBlock(b.Text)
				if cacheableTurn && isLastBlock {
					tb.CacheControl = anthropic.F(anthropic.CacheControlEphemeralParam{
						Type: anthropic.F(anthropic.CacheControlEphemeralTypeEphemeral),
					})
				}
				blocks[j] = tb
			case ImageBlock:
				blocks[j] = anthropic.NewImageBlockBase64(b.MediaType, b.Data)
			case ToolUseBlock:
				blocks[j] = anthropic.NewToolUseBlockParam(b.ID, b.Name, b.Input)
			case ToolResultBlock:
				text := ""
				isError := b.IsError
				for _, inner := range b.Content {
					if t, ok := inner.(TextBlock); ok {
						text += t.Text
					}
				}
				trb := anthropic.NewToolResultBlock(b.ToolUseID, text, isError)
				if cacheableTurn && isLastBlock {
					trb.CacheControl = anthropic.F(anthropic.CacheControlEphemeralParam{
						Type: anthropic.F(anthropic.CacheControlEphemeralTypeEphemeral),
					})
				}
				blocks[j] = trb
			}
		}

		switch message.Role {
		case RoleUser:
			result[i] = anthropic.NewUserMessage(blocks...)
		case RoleAssistant:
			result[i] = anthropic.NewAssistantMessage(blocks...)
		}
	}

	return result, nil
}

func (p *AnthropicProvider) transformTools(tools []ToolDefinition) ([]anthropic.ToolUnionUnionParam, error) {
	var result []anthropic.ToolUnionUnionParam
	for i, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        anthropic.F(tool.Name),
			Description: anthropic.F(tool.Description),
			InputSchema: anthropic.F(any(tool.InputSchema)),
		}
		if p.opts.EnablePromptCaching && i == len(tools)-1 {
			toolParam.CacheControl = anthropic.F(anthropic.CacheControlEphemeralParam{
				Type: anthropic.F(anthropic.CacheControlEphemeralTypeEphemeral),
			})
		}
		result = append(result, toolParam)
	}
	return result, nil
}

func toCountTokensTools(tools []anthropic.ToolUnionUnionParam) []anthropic.MessageCountTokensToolUnionParam {
	result := make([]anthropic.MessageCountTokensToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = tool.(anthropic.MessageCountTokensToolUnionParam)
	}
	return result
}

func translateFromAnthropic(blocks []anthropic.ContentBlock) []ContentBlock {
	result := make([]ContentBlock, 0, len(blocks))
	for _, block := range blocks {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			result = append(result, TextBlock{Text: b.Text})
		case anthropic.ToolUseBlock:
			result = append(result, ToolUseBlock{ID: b.ID, Name: b.Name, Input: b.Input})
		}
	}
	return result
}

func translateStopReason(reason string) StopReason {
	switch reason {
	case "tool_use":
		return StopReasonToolUse
	case "max_tokens":
		return StopReasonMaxTokens
	default:
		return StopReasonEndTurn
	}
}

// parseError normalizes an anthropic-sdk-go error into the shared taxonomy,
// honoring a provider-directed Retry-After header same as the teacher's
// own parseError.
func (p *AnthropicProvider) parseError(err error) error {
	if err == nil {
		return nil
	}
	if ctxErr, ok := err.(interface{ Timeout() bool }); ok && ctxErr.Timeout() {
		return NewError(p.Name(), ErrorKindTimeout, err)
	}

	var apiErr *anthropic.Error
	if e, ok := err.(*anthropic.Error); ok {
		apiErr = e
	}
	if apiErr == nil {
		return NewError(p.Name(), ErrorKindConnection, err)
	}

	kind := ErrorKindUnknown
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		kind = ErrorKindAuth
	case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == 422:
		kind = ErrorKindBadRequest
	case apiErr.StatusCode == http.StatusTooManyRequests:
		kind = ErrorKindRateLimit
	case apiErr.StatusCode == 529:
		kind = ErrorKindServer
	case apiErr.StatusCode >= 500:
		kind = ErrorKindServer
	}

	pe := NewError(p.Name(), kind, err)
	if retryAfter := apiErr.Response.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, parseErr := parseSeconds(retryAfter); parseErr == nil {
			pe.RetryAfter = seconds
		}
	}
	return pe
}
