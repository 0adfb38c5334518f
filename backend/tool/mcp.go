package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// MCPClient is the capability an MCPToolAdapter consumes: a connection to a
// single already-running MCP server. Discovering or establishing that
// connection is the caller's responsibility — the core only ever consumes
// an MCPClient, it never dials one itself.
type MCPClient interface {
	ServerName() string
	ListTools(ctx context.Context) ([]MCPToolSpec, error)
	CallTool(ctx context.Context, name string, args json.RawMessage) (Result, error)
	Close() error
}

// MCPToolSpec is one tool entry returned by MCPClient.ListTools.
type MCPToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// RegisterMCPTools lists client's tools and registers each against reg,
// prefixed "<server_name>__" and tagged SourceMCP, dispatching execute back
// through client.CallTool. A name collision — two servers exposing the same
// prefixed name, or the same client registered twice — surfaces as the
// registry's own DuplicateToolError; registration stops at the first
// failure, leaving any tools already registered from this client in place.
func RegisterMCPTools(ctx context.Context, reg *Registry, client MCPClient) error {
	tools, err := client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("tool: list_tools on %q: %w", client.ServerName(), err)
	}

	prefix := client.ServerName() + "__"
	for _, spec := range tools {
		spec := spec
		def := Definition{
			Name:        prefix + spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
			Source:      SourceMCP,
			Handler: func(ctx context.Context, rawInput json.RawMessage) (Result, error) {
				return client.CallTool(ctx, spec.Name, rawInput)
			},
		}
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}
