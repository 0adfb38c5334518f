// Package provider implements the model-provider abstraction: a normalized
// streaming/non-streaming chat interface over Anthropic, OpenAI and DeepSeek,
// with a shared error taxonomy, retry policy and prompt-cache wiring.
package provider

import "encoding/json"

// MessageRole identifies who produced a Message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn of a conversation passed to a Provider.
type Message struct {
	Role    MessageRole    `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlockType discriminates the concrete type behind ContentBlock.
type ContentBlockType string

const (
	BlockTypeText       ContentBlockType = "text"
	BlockTypeImage      ContentBlockType = "image"
	BlockTypeDocument    ContentBlockType = "document"
	BlockTypeToolUse    ContentBlockType = "tool_use"
	BlockTypeToolResult ContentBlockType = "tool_result"
)

// ContentBlock is the closed set of content block variants a Message can
// carry. Concrete types are TextBlock, ImageBlock, DocumentBlock,
// ToolUseBlock and ToolResultBlock.
type ContentBlock interface {
	Type() ContentBlockType
}

type TextBlock struct {
	Text string `json:"text"`
}

func (TextBlock) Type() ContentBlockType { return BlockTypeText }

// ImageBlock carries either base64 image data or a URL source, never both.
// Size is enforced by the caller at the input boundary (images <= 20 MB,
// base64 source only).
type ImageBlock struct {
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

func (ImageBlock) Type() ContentBlockType { return BlockTypeImage }

// DocumentBlock carries base64 document data (e.g. PDF). Size is enforced by
// the caller at the input boundary (PDFs <= 32 MB).
type DocumentBlock struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
	Name      string `json:"name,omitempty"`
}

func (DocumentBlock) Type() ContentBlockType { return BlockTypeDocument }

type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

func (ToolUseBlock) Type() ContentBlockType { return BlockTypeToolUse }

type ToolResultBlock struct {
	ToolUseID string         `json:"tool_use_id"`
	Content   []ContentBlock `json:"content"`
	IsError   bool           `json:"is_error,omitempty"`
}

func (ToolResultBlock) Type() ContentBlockType { return BlockTypeToolResult }

// Usage reports token accounting for a single Provider call.
type Usage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	CacheWriteTokens int64 `json:"cache_write_tokens"`
	CacheReadTokens  int64 `json:"cache_read_tokens"`
}

// StopReason explains why a Provider stopped generating.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonToolUse   StopReason = "tool_use"
	StopReasonMaxTokens StopReason = "max_tokens"
)

// StreamFinal is the terminal value of a Stream call, and the sole return
// value of a Create call.
type StreamFinal struct {
	ContentBlocks []ContentBlock `json:"content_blocks"`
	StopReason    StopReason     `json:"stop_reason"`
	Usage         Usage          `json:"usage"`
}

// ToolDefinition is a provider-agnostic tool schema, translated by each
// concrete Provider into its own wire format.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// StreamChunk is one element yielded by Stream before the terminal
// StreamFinal: either a text delta or the final value.
type StreamChunk struct {
	TextDelta string
	Final     *StreamFinal
}

// RetryNotification is emitted through a RetryCallback before a retriable
// error is retried.
type RetryNotification struct {
	Attempt    int
	MaxRetries int
	ErrorKind  ErrorKind
}
