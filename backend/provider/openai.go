package provider

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider talks to the OpenAI Chat Completions API. It exercises the
// same ToolDefinition/Usage/ErrorKind surface as AnthropicProvider so the
// Agent never special-cases a backend.
type OpenAIProvider struct {
	client *openai.Client
	opts   *Options
	model  string
}

func NewOpenAIProvider(apiKey, model string, opts ...Option) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}

	options := DefaultOptions("openai")
	for _, opt := range opts {
		opt(options)
	}

	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		opts:   options,
		model:  model,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (iter.Seq2[StreamChunk, error], error) {
	params := p.buildParams(messages, system, tools, maxTokens)

	return func(yield func(StreamChunk, error) bool) {
		final, err := withRetry(ctx, p.Name(), p.opts, func(ctx context.Context) (*StreamFinal, error) {
			stream := p.client.Chat.Completions.NewStreaming(ctx, params)
			defer stream.Close()

			acc := openai.ChatCompletionAccumulator{}
			for stream.Next() {
				chunk := stream.Current()
				acc.AddChunk(chunk)

				for _, choice := range chunk.Choices {
					if choice.Delta.Content != "" {
						if !yield(StreamChunk{TextDelta: choice.Delta.Content}, nil) {
							return nil, context.Canceled
						}
					}
				}
			}
			if stream.Err() != nil {
				return nil, p.parseError(stream.Err())
			}

			return &StreamFinal{
				ContentBlocks: translateFromOpenAI(acc.Choices),
				StopReason:    translateOpenAIFinishReason(finishReason(acc.Choices)),
				Usage: Usage{
					InputTokens:  acc.Usage.PromptTokens,
					OutputTokens: acc.Usage.CompletionTokens,
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

func (p *OpenAIProvider) Create(ctx context.Context, messages []Message, system string, tools []ToolDefinition, maxTokens int) (*StreamFinal, error) {
	params := p.buildParams(messages, system, tools, maxTokens)

	return withRetry(ctx, p.Name(), p.opts, func(ctx context.Context) (*StreamFinal, error) {
		completion, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, p.parseError(err)
		}
		return &StreamFinal{
			ContentBlocks: translateFromOpenAI(completion.Choices),
			StopReason:    translateOpenAIFinishReason(finishReason(completion.Choices)),
			Usage: Usage{
				InputTokens:  completion.Usage.PromptTokens,
				OutputTokens: completion.Usage.CompletionTokens,
			},
		}, nil
	})
}

func (p *OpenAIProvider) CountTokens(ctx context.Context, messages []Message, system string, tools []ToolDefinition) (int, error) {
	// The OpenAI chat API has no server-side token-counting endpoint; fall
	// back to the shared local approximation.
	return ApproximateTokenCount(messages, system, tools), nil
}

func (p *OpenAIProvider) buildParams(messages []Message, system string, tools []ToolDefinition, maxTokens int) openai.ChatCompletionNewParams {
	chatMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		chatMessages = append(chatMessages, openai.SystemMessage(system))
	}

	for _, message := range messages {
		chatMessages = append(chatMessages, translateToOpenAI(message)...)
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.F(p.model),
		Messages:  openai.F(chatMessages),
		MaxTokens: openai.F(int64(maxTokens)),
	}

	if len(tools) > 0 {
		openaiTools := make([]openai.ChatCompletionToolParam, len(tools))
		for i, tool := range tools {
			openaiTools[i] = openai.ChatCompletionToolParam{
				Type: openai.F(openai.ChatCompletionToolTypeFunction),
				Function: openai.F(openai.FunctionDefinitionParam{
					Name:        openai.F(tool.Name),
					Description: openai.F(tool.Description),
					Parameters:  openai.F(openai.FunctionParameters(rawSchemaToMap(tool.InputSchema))),
				}),
			}
		}
		params.Tools = openai.F(openaiTools)
	}

	return params
}

func (p *OpenAIProvider) parseError(err error) error {
	var apiErr *openai.Error
	if e, ok := err.(*openai.Error); ok {
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
