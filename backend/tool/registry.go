package tool

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/furisto/agentcore/backend/provider"
)

// DefaultMaxResultChars is the threshold past which a string result is
// paginated, absent an explicit Options.MaxResultChars.
const DefaultMaxResultChars = 50_000

// Options configures a Registry. MaxResultChars also becomes the page size
// once a result is paginated.
type Options struct {
	MaxResultChars int
}

func DefaultOptions() Options {
	return Options{MaxResultChars: DefaultMaxResultChars}
}

// DuplicateToolError is raised at registration time when a tool name is
// already registered.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// Call is one requested tool invocation, as produced by a model's tool_use
// block.
type Call struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// CallResult is the outcome of executing one Call. Handler failures never
// escalate: they are captured here as IsError with a human-readable
// Message, matching the ToolResultBlock the Agent appends to history.
type CallResult struct {
	ID      string
	Text    string
	Blocks  []provider.ContentBlock
	IsError bool
	Message string
}

// Registry is the ToolRegistry: name-unique registration, concurrent
// execute_many, and character-window pagination for oversized string
// results.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	pages *paginationStore
}

func NewRegistry(opts ...Options) *Registry {
	options := DefaultOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	if options.MaxResultChars <= 0 {
		options.MaxResultChars = DefaultMaxResultChars
	}

	r := &Registry{
		defs:  make(map[string]Definition),
		pages: newPaginationStore(options.MaxResultChars),
	}
	r.registerReadMore()
	return r
}

// Register enforces name uniqueness; re-registering a name fails with
// DuplicateToolError. Re-registration is never silently accepted, even to
// replace a native tool with an MCP or skill tool of the same name.
func (r *Registry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}
	r.defs[def.Name] = def
	return nil
}

// Definitions returns every registered tool's schema, for use building a
// Provider's tool list.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		result = append(result, def)
	}
	return result
}

// Execute runs one tool call. It never returns a Go error: a handler
// failure and an unknown tool name both become an IsError CallResult
// instead. A handler that panics is recovered here,
// the same way the teacher's event.Bus.processWorkItem guards a handler
// call, and surfaces as an IsError result instead of crashing the process.
func (r *Registry) Execute(ctx context.Context, call Call) (res CallResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "panic in tool handler",
				"tool", call.Name,
				"error", rec,
				"stack", string(debug.Stack()),
			)
			res = CallResult{ID: call.ID, IsError: true, Message: fmt.Sprintf("tool %q panicked: %v", call.Name, rec)}
		}
	}()

	r.mu.RLock()
	def, exists := r.defs[call.Name]
	r.mu.RUnlock()

	if !exists {
		return CallResult{ID: call.ID, IsError: true, Message: fmt.Sprintf("unknown tool %q", call.Name)}
	}

	result, err := def.Handler(ctx, call.Input)
	if err != nil {
		return CallResult{ID: call.ID, IsError: true, Message: err.Error()}
	}

	if result.isBlockResult() {
		return CallResult{ID: call.ID, Blocks: result.Blocks}
	}

	return CallResult{ID: call.ID, Text: r.pages.paginate(result.Text)}
}

// ExecuteMany runs every call concurrently and returns results in the
// input order, so the model sees a stable, predictable ordering even
// though execution itself is unordered. Each goroutine additionally guards
// itself so a panic recovered one call late (e.g. during Execute's own
// deferred bookkeeping) still can't take the whole fan-out down with it.
func (r *Registry) ExecuteMany(ctx context.Context, calls []Call) []CallResult {
	results := make([]CallResult, len(calls))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		group.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.ErrorContext(groupCtx, "panic in ExecuteMany call",
						"tool", call.Name,
						"error", rec,
						"stack", string(debug.Stack()),
					)
					results[i] = CallResult{ID: call.ID, IsError: true, Message: fmt.Sprintf("tool %q panicked: %v", call.Name, rec)}
				}
			}()
			results[i] = r.Execute(groupCtx, call)
			return nil
		})
	}
	_ = group.Wait()

	return results
}

// ClearPaginationStore removes every scratch entry. Entries otherwise live
// for the registry's lifetime; there is no TTL.
func (r *Registry) ClearPaginationStore() {
	r.pages.clear()
}

func (r *Registry) registerReadMore() {
	r.defs["read_more"] = Definition{
		Name:        "read_more",
		Description: "Retrieve another page of a previously paginated tool result.",
		Source:      SourceNative,
		Handler: func(ctx context.Context, rawInput json.RawMessage) (Result, error) {
			var input struct {
				ResultID string `json:"result_id"`
				Page     int    `json:"page"`
			}
			if err := json.Unmarshal(rawInput, &input); err != nil {
				return Result{}, err
			}
			page, err := r.pages.page(input.ResultID, input.Page)
			if err != nil {
				return TextResult(fmt.Sprintf("error: %s", err.Error())), nil
			}
			return TextResult(page), nil
		},
	}
}

func newRandomID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
