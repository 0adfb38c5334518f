// Package agent implements the Agent loop: compaction, prompt composition,
// the Provider call, tool fan-out and the iteration cap of spec.md §4.1,
// plus the built-in SubagentTool of spec.md §4.8.
package agent

import (
	"encoding/json"
	"strings"

	"github.com/furisto/agentcore/backend/eventstore"
	"github.com/furisto/agentcore/backend/provider"
)

// UserInput is either plain text or a mixed list of content blocks, per
// spec.md §4.1's stream_message contract.
type UserInput struct {
	Text   string
	Blocks []provider.ContentBlock
}

func (u UserInput) toContentBlocks() []provider.ContentBlock {
	if len(u.Blocks) > 0 {
		return u.Blocks
	}
	return []provider.ContentBlock{provider.TextBlock{Text: u.Text}}
}

func (u UserInput) isEmpty() bool {
	return len(u.Blocks) == 0 && strings.TrimSpace(u.Text) == ""
}

// InvalidInputError is raised before any Provider call for empty text
// input (after whitespace trim) with no content blocks.
type InvalidInputError struct{}

func (InvalidInputError) Error() string { return "stream_message: empty user input" }

// Event is one element of StreamMessage's event sequence, matching the
// wire-level event vocabulary of spec.md §6. Kind is reused from the
// eventstore package so the two stay in lockstep.
type Event struct {
	Kind eventstore.Kind
	Data json.RawMessage
}

// ToolCallStatus is the status field of a tool_call event.
type ToolCallStatus string

const (
	ToolCallStarted   ToolCallStatus = "started"
	ToolCallCompleted ToolCallStatus = "completed"
	ToolCallFailed    ToolCallStatus = "failed"
)

type ToolCallData struct {
	Name    string         `json:"name"`
	Status  ToolCallStatus `json:"status"`
	Summary string         `json:"summary"`
	Error   string         `json:"error,omitempty"`
}

type RetryData struct {
	Attempt    int    `json:"attempt"`
	MaxRetries int    `json:"max_retries"`
	ErrorKind  string `json:"error_kind"`
}

type CompactData struct {
	Phase        string `json:"phase"`
	BeforeTokens int    `json:"before_tokens"`
	AfterTokens  int    `json:"after_tokens"`
}

type ErrorData struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func mustMarshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
