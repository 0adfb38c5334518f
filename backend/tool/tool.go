// Package tool implements the ToolRegistry: typed tool registration with
// JSON-Schema reflection, concurrent execute_many, and result pagination.
package tool

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/furisto/agentcore/backend/provider"
)

// Source identifies how a tool definition reached the registry.
type Source string

const (
	SourceNative   Source = "native"
	SourceMCP      Source = "mcp"
	SourceSkill    Source = "skill"
	SourceSubagent Source = "subagent"
)

// Result is what a handler returns: either a plain string (subject to
// pagination) or a list of content blocks (passed through verbatim, never
// paginated).
type Result struct {
	Text   string
	Blocks []provider.ContentBlock
}

func TextResult(text string) Result { return Result{Text: text} }
func BlockResult(blocks ...provider.ContentBlock) Result { return Result{Blocks: blocks} }

func (r Result) isBlockResult() bool { return r.Blocks != nil }

// Handler is the generic, type-safe signature a tool author writes
// against; NewTool adapts it into the registry's opaque json.RawMessage
// handler by JSON-decoding the raw input into T. The reflected input schema
// is published to the model; the input is not validated against it.
type Handler[T any] func(ctx context.Context, input T) (Result, error)

// Definition is what ends up registered: a name, description, reflected
// input schema, source tag and an opaque handler taking raw JSON input.
type Definition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Source      Source
	Handler     func(ctx context.Context, rawInput json.RawMessage) (Result, error)
}

// NewTool reflects T's JSON Schema via invopop/jsonschema and wraps handler
// into a Definition ready for Registry.Register. T's zero value must be
// JSON-unmarshalable from the arguments the model will send.
func NewTool[T any](name, description string, handler Handler[T]) Definition {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var zero T
	reflected := reflector.Reflect(&zero)
	schema := map[string]any{
		"type":       "object",
		"properties": reflected.Properties,
	}
	if len(reflected.Required) > 0 {
		schema["required"] = reflected.Required
	}
	schemaJSON, _ := json.Marshal(schema)

	return Definition{
		Name:        name,
		Description: description,
		InputSchema: schemaJSON,
		Source:      SourceNative,
		Handler: func(ctx context.Context, rawInput json.RawMessage) (Result, error) {
			var input T
			if len(rawInput) > 0 {
				if err := json.Unmarshal(rawInput, &input); err != nil {
					return Result{}, err
				}
			}
			return handler(ctx, input)
		},
	}
}
