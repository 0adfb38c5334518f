package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/furisto/agentcore/backend/contextwindow"
	"github.com/furisto/agentcore/backend/eventstore"
	"github.com/furisto/agentcore/backend/provider"
	"github.com/furisto/agentcore/backend/sandbox"
	"github.com/furisto/agentcore/backend/session"
	"github.com/furisto/agentcore/backend/skill"
	"github.com/furisto/agentcore/backend/tool"
)

// Agent drives the stream_message loop of spec.md §4.1: compaction check,
// prompt compose, Provider call, terminal decision, tool fan-out, repeat
// until end_turn or the iteration cap.
type Agent struct {
	provider       provider.Provider
	tools          *tool.Registry
	skills         *skill.Registry
	sessions       session.Backend
	events         eventstore.Store
	contextManager *contextwindow.Manager
	sandbox        sandbox.Sandbox
	systemPrompt   string
	maxIterations  int
	maxTokens      int

	retryNotifications chan provider.RetryNotification
}

// Sandbox returns the capability object shared with tool handlers and
// inherited by subagents, or nil if none was configured.
func (a *Agent) Sandbox() sandbox.Sandbox { return a.sandbox }

func New(opts ...Option) *Agent {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxIterations <= 0 {
		options.MaxIterations = DefaultMaxIterations
	}
	if options.MaxTokens <= 0 {
		options.MaxTokens = DefaultMaxTokens
	}
	if options.ContextManager == nil {
		window := provider.ContextWindowFor(options.Model, 200_000)
		options.ContextManager = contextwindow.NewManager(window, contextwindow.DefaultThreshold)
	}

	ag := &Agent{
		provider:           options.Provider,
		tools:              options.Tools,
		skills:             options.Skills,
		sessions:           options.Sessions,
		events:             options.Events,
		contextManager:     options.ContextManager,
		sandbox:            options.Sandbox,
		systemPrompt:       options.SystemPrompt,
		maxIterations:      options.MaxIterations,
		maxTokens:          options.MaxTokens,
		retryNotifications: make(chan provider.RetryNotification, 16),
	}

	if ag.tools != nil && !options.DisableSubagentTool {
		// Best-effort: a caller who pre-registered their own create_subagent
		// under options.Tools keeps it, rather than this failing New().
		_ = ag.tools.Register(NewSubagentTool(ag))
	}

	return ag
}

// NotifyRetry has the exact shape of provider.WithRetryCallback's argument.
// Wire it in at Provider construction time so the Agent can surface the
// Provider's internal retries as `retry` events:
//
//	ag := agent.New(...)
//	prov, err := provider.NewAnthropicProvider(key, model, provider.WithRetryCallback(ag.NotifyRetry))
func (a *Agent) NotifyRetry(ctx context.Context, n provider.RetryNotification) {
	select {
	case a.retryNotifications <- n:
	default:
	}
}

func (a *Agent) drainRetryEvents(emit func(Event) bool) bool {
	for {
		select {
		case n := <-a.retryNotifications:
			if !emit(Event{Kind: eventstore.KindRetry, Data: mustMarshal(RetryData{
				Attempt:    n.Attempt,
				MaxRetries: n.MaxRetries,
				ErrorKind:  string(n.ErrorKind),
			})}) {
				return false
			}
		default:
			return true
		}
	}
}

// StreamMessage is the Agent's sole public entry point. It validates
// user_input synchronously (an InvalidInputError aborts before any
// Provider call, leaving history untouched) and otherwise returns a lazy
// sequence of Events the caller pulls at its own pace.
func (a *Agent) StreamMessage(ctx context.Context, input UserInput, sessionID string, streamID string) (iter.Seq2[Event, error], error) {
	if input.isEmpty() {
		return nil, InvalidInputError{}
	}

	history, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history = append(history, provider.Message{Role: provider.RoleUser, Content: input.toContentBlocks()})

	return func(yield func(Event, error) bool) {
		a.runLoop(ctx, sessionID, streamID, history, yield)
	}, nil
}

func (a *Agent) emit(streamID string, event Event, yield func(Event, error) bool) bool {
	if streamID != "" && a.events != nil {
		_, _ = a.events.Append(context.Background(), streamID, event.Kind, event.Data)
	}
	return yield(event, nil)
}

func (a *Agent) runLoop(ctx context.Context, sessionID, streamID string, history []provider.Message, yield func(Event, error) bool) {
	for iteration := 0; iteration < a.maxIterations; iteration++ {
		if ctx.Err() != nil {
			a.handleCancellation(ctx, sessionID, streamID, history, yield)
			return
		}

		if a.contextManager.ShouldCompact() {
			compacted, events, err := contextwindow.Compact(ctx, history, a.provider, a.systemPrompt, a.contextManager)
			if err != nil {
				a.fail(ctx, sessionID, streamID, history, err, yield)
				return
			}
			if compacted != nil {
				history = compacted
			}
			for _, e := range events {
				if !a.emit(streamID, Event{Kind: eventstore.KindCompact, Data: mustMarshal(CompactData{
					Phase:        string(e.Phase),
					BeforeTokens: e.BeforeTokens,
					AfterTokens:  e.AfterTokens,
				})}, yield) {
					return
				}
			}
		}

		system := a.skills.Compose(a.systemPrompt)
		tools := a.providerTools()

		stream, err := a.provider.Stream(ctx, history, system, tools, a.maxTokens)
		if !a.drainRetryEvents(func(e Event) bool { return a.emit(streamID, e, yield) }) {
			return
		}
		if err != nil {
			a.handleProviderError(ctx, sessionID, streamID, history, err, yield)
			return
		}

		assistantText := strings.Builder{}
		var final *provider.StreamFinal
		preambleEmitted := false
		sawText := false
		streamErr := error(nil)

		for chunk, chunkErr := range stream {
			if chunkErr != nil {
				streamErr = chunkErr
				break
			}
			if chunk.Final != nil {
				final = chunk.Final
				break
			}
			if chunk.TextDelta != "" {
				sawText = true
				assistantText.WriteString(chunk.TextDelta)
				if !a.emit(streamID, Event{Kind: eventstore.KindToken, Data: mustMarshal(chunk.TextDelta)}, yield) {
					return
				}
			}
		}

		if !a.drainRetryEvents(func(e Event) bool { return a.emit(streamID, e, yield) }) {
			return
		}

		if streamErr != nil {
			if sawText {
				history = append(history, provider.Message{
					Role:    provider.RoleAssistant,
					Content: []provider.ContentBlock{provider.TextBlock{Text: assistantText.String()}},
				})
				_ = a.sessions.Save(ctx, sessionID, history)
			}
			a.handleProviderError(ctx, sessionID, streamID, history, streamErr, yield)
			return
		}

		if final == nil {
			a.fail(ctx, sessionID, streamID, history, fmt.Errorf("provider stream ended without a final value"), yield)
			return
		}

		a.contextManager.RecordUsage(final.Usage)

		var toolUses []provider.ToolUseBlock
		for _, block := range final.ContentBlocks {
			if toolUse, ok := block.(provider.ToolUseBlock); ok {
				if !preambleEmitted && sawText {
					if !a.emit(streamID, Event{Kind: eventstore.KindPreambleEnd}, yield) {
						return
					}
					preambleEmitted = true
				}
				toolUses = append(toolUses, toolUse)
			}
		}

		assistantTurn := provider.Message{Role: provider.RoleAssistant, Content: final.ContentBlocks}
		history = append(history, assistantTurn)

		if final.StopReason != provider.StopReasonToolUse || len(toolUses) == 0 {
			if err := a.sessions.Save(ctx, sessionID, history); err != nil {
				a.fail(ctx, sessionID, streamID, history, err, yield)
				return
			}
			a.done(ctx, sessionID, streamID, yield)
			return
		}

		resultTurn, ok := a.runToolTurn(ctx, streamID, toolUses, yield)
		if !ok {
			return
		}
		history = append(history, resultTurn)

		if err := a.sessions.Save(ctx, sessionID, history); err != nil {
			a.fail(ctx, sessionID, streamID, history, err, yield)
			return
		}
	}

	history = append(history, provider.Message{
		Role:    provider.RoleAssistant,
		Content: []provider.ContentBlock{provider.TextBlock{Text: "[max iterations reached]"}},
	})
	_ = a.sessions.Save(ctx, sessionID, history)
	a.done(ctx, sessionID, streamID, yield)
}

// runToolTurn fans tool_use blocks out concurrently via tool.Registry's
// own errgroup-backed ExecuteMany, then assembles the aggregated
// tool_result user turn in tool_use order regardless of completion order.
func (a *Agent) runToolTurn(ctx context.Context, streamID string, toolUses []provider.ToolUseBlock, yield func(Event, error) bool) (provider.Message, bool) {
	calls := make([]tool.Call, len(toolUses))
	for i, tu := range toolUses {
		calls[i] = tool.Call{ID: tu.ID, Name: tu.Name, Input: tu.Input}
	}

	for _, tu := range toolUses {
		if !a.emit(streamID, Event{Kind: eventstore.KindToolCall, Data: mustMarshal(ToolCallData{
			Name: tu.Name, Status: ToolCallStarted, Summary: summarizeCall(tu.Name, tu.Input),
		})}, yield) {
			return provider.Message{}, false
		}
	}

	results := a.tools.ExecuteMany(ctx, calls)

	blocks := make([]provider.ContentBlock, len(results))
	for i, result := range results {
		status := ToolCallCompleted
		var errMsg string
		if result.IsError {
			status = ToolCallFailed
			errMsg = result.Message
		}
		if !a.emit(streamID, Event{Kind: eventstore.KindToolCall, Data: mustMarshal(ToolCallData{
			Name: toolUses[i].Name, Status: status, Summary: summarizeCall(toolUses[i].Name, toolUses[i].Input), Error: errMsg,
		})}, yield) {
			return provider.Message{}, false
		}

		var content []provider.ContentBlock
		switch {
		case result.Blocks != nil:
			content = result.Blocks
		case result.IsError:
			content = []provider.ContentBlock{provider.TextBlock{Text: result.Message}}
		default:
			content = []provider.ContentBlock{provider.TextBlock{Text: result.Text}}
		}
		blocks[i] = provider.ToolResultBlock{ToolUseID: result.ID, Content: content, IsError: result.IsError}
	}

	return provider.Message{Role: provider.RoleUser, Content: blocks}, true
}

// summarizeCall renders a one-line "name key=val ..." label for a tool_call
// event. gjson.ParseBytes walks the raw input in source field order, unlike a
// decoded map[string]any whose iteration order is random — the summary would
// otherwise flicker between calls with the same input.
func summarizeCall(name string, input json.RawMessage) string {
	parsed := gjson.ParseBytes(input)
	if !parsed.IsObject() {
		return name
	}
	var parts []string
	parsed.ForEach(func(key, value gjson.Result) bool {
		parts = append(parts, fmt.Sprintf("%s=%s", key.String(), value.String()))
		return true
	})
	if len(parts) == 0 {
		return name
	}
	return name + " " + strings.Join(parts, " ")
}

func (a *Agent) providerTools() []provider.ToolDefinition {
	defs := a.tools.Definitions()
	out := make([]provider.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = provider.ToolDefinition{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema}
	}
	return out
}

func (a *Agent) done(ctx context.Context, sessionID, streamID string, yield func(Event, error) bool) {
	a.emit(streamID, Event{Kind: eventstore.KindDone}, yield)
	if streamID != "" && a.events != nil {
		_ = a.events.MarkCompleted(ctx, streamID)
	}
}

func (a *Agent) fail(ctx context.Context, sessionID, streamID string, history []provider.Message, err error, yield func(Event, error) bool) {
	if streamID != "" && a.events != nil {
		_ = a.events.MarkFailed(ctx, streamID)
	}
	a.emit(streamID, Event{Kind: eventstore.KindError, Data: mustMarshal(ErrorData{Type: "error", Message: err.Error()})}, yield)
}

// handleProviderError implements spec.md §7's Provider* row: a
// non-retriable (or retries-exhausted) error emits a single error event
// and terminates the loop without further history changes beyond whatever
// partial assistant text the caller already appended.
func (a *Agent) handleProviderError(ctx context.Context, sessionID, streamID string, history []provider.Message, err error, yield func(Event, error) bool) {
	kind := "error"
	if pe := provider.AsError(a.provider.Name(), err); pe != nil {
		kind = string(pe.Kind)
	}
	if streamID != "" && a.events != nil {
		_ = a.events.MarkFailed(ctx, streamID)
	}
	a.emit(streamID, Event{Kind: eventstore.KindError, Data: mustMarshal(ErrorData{Type: kind, Message: err.Error()})}, yield)
}

// handleCancellation implements spec.md §5's cancellation contract: cancel
// the in-flight call (the ctx the caller stopped pulling against already
// propagates that), persist any partial history, and mark the stream
// failed — without re-raising.
func (a *Agent) handleCancellation(ctx context.Context, sessionID, streamID string, history []provider.Message, yield func(Event, error) bool) {
	saveCtx := context.Background()
	_ = a.sessions.Save(saveCtx, sessionID, history)
	if streamID != "" && a.events != nil {
		_ = a.events.MarkFailed(saveCtx, streamID)
	}
}
