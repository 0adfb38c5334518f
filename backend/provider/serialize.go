package provider

import (
	"encoding/json"
	"fmt"
)

// wireBlock is the discriminated-union wire shape every ContentBlock
// round-trips through. SessionBackend and EventStore implementations that
// need to persist a Message use MarshalMessages/UnmarshalMessages rather
// than reinventing content-block JSON.
type wireBlock struct {
	Type ContentBlockType `json:"type"`

	Text string `json:"text,omitempty"`

	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
	Name      string `json:"name,omitempty"`

	ID    string          `json:"id,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	ToolUseID string      `json:"tool_use_id,omitempty"`
	Content   []wireBlock `json:"content,omitempty"`
	IsError   bool        `json:"is_error,omitempty"`
}

func toWireBlock(b ContentBlock) wireBlock {
	switch v := b.(type) {
	case TextBlock:
		return wireBlock{Type: BlockTypeText, Text: v.Text}
	case ImageBlock:
		return wireBlock{Type: BlockTypeImage, MediaType: v.MediaType, Data: v.Data, URL: v.URL}
	case DocumentBlock:
		return wireBlock{Type: BlockTypeDocument, MediaType: v.MediaType, Data: v.Data, Name: v.Name}
	case ToolUseBlock:
		return wireBlock{Type: BlockTypeToolUse, ID: v.ID, Name: v.Name, Input: v.Input}
	case ToolResultBlock:
		content := make([]wireBlock, len(v.Content))
		for i, c := range v.Content {
			content[i] = toWireBlock(c)
		}
		return wireBlock{Type: BlockTypeToolResult, ToolUseID: v.ToolUseID, Content: content, IsError: v.IsError}
	default:
		return wireBlock{Type: BlockTypeText, Text: fmt.Sprintf("%v", b)}
	}
}

func fromWireBlock(w wireBlock) (ContentBlock, error) {
	switch w.Type {
	case BlockTypeText:
		return TextBlock{Text: w.Text}, nil
	case BlockTypeImage:
		return ImageBlock{MediaType: w.MediaType, Data: w.Data, URL: w.URL}, nil
	case BlockTypeDocument:
		return DocumentBlock{MediaType: w.MediaType, Data: w.Data, Name: w.Name}, nil
	case BlockTypeToolUse:
		return ToolUseBlock{ID: w.ID, Name: w.Name, Input: w.Input}, nil
	case BlockTypeToolResult:
		content := make([]ContentBlock, len(w.Content))
		for i, c := range w.Content {
			block, err := fromWireBlock(c)
			if err != nil {
				return nil, err
			}
			content[i] = block
		}
		return ToolResultBlock{ToolUseID: w.ToolUseID, Content: content, IsError: w.IsError}, nil
	default:
		return nil, fmt.Errorf("unknown content block type %q", w.Type)
	}
}

// MarshalMessage serializes one Message's content blocks losslessly,
// including tool_use.input's arbitrary JSON and tool_result's is_error flag.
func MarshalMessage(m Message) ([]byte, error) {
	blocks := make([]wireBlock, len(m.Content))
	for i, b := range m.Content {
		blocks[i] = toWireBlock(b)
	}
	return json.Marshal(struct {
		Role    MessageRole `json:"role"`
		Content []wireBlock `json:"content"`
	}{Role: m.Role, Content: blocks})
}

// UnmarshalMessage is the inverse of MarshalMessage.
func UnmarshalMessage(data []byte) (Message, error) {
	var wire struct {
		Role    MessageRole `json:"role"`
		Content []wireBlock `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Message{}, err
	}
	content := make([]ContentBlock, len(wire.Content))
	for i, w := range wire.Content {
		block, err := fromWireBlock(w)
		if err != nil {
			return Message{}, err
		}
		content[i] = block
	}
	return Message{Role: wire.Role, Content: content}, nil
}
