package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/furisto/agentcore/backend/eventstore"
	"github.com/furisto/agentcore/backend/session"
	"github.com/furisto/agentcore/backend/skill"
	"github.com/furisto/agentcore/backend/tool"
)

// SubagentToolName is the built-in tool name of spec.md §4.8.
const SubagentToolName = "create_subagent"

const subagentSystemPrompt = "You are a subagent completing a single delegated task. Work it to completion and report your final result as plain text."

type subagentInput struct {
	Task string `json:"task"`
}

// NewSubagentTool builds the create_subagent tool definition bound to a
// parent Agent's Provider and tool registry, following the
// spawn/run/return-result shape of backend/tool/subtask/spawn.go, minus
// the teacher's durable task-queue and event-bus machinery: a subagent
// here runs synchronously inside the parent's tool call.
func NewSubagentTool(parent *Agent) tool.Definition {
	def := tool.NewTool("create_subagent", "Delegate a task to a child agent that runs to completion and returns only its final answer.",
		func(ctx context.Context, input subagentInput) (tool.Result, error) {
			if strings.TrimSpace(input.Task) == "" {
				return tool.Result{}, errEmptyTask
			}

			child := newChildAgent(parent)
			seq, err := child.StreamMessage(ctx, UserInput{Text: input.Task}, "subagent", "")
			if err != nil {
				return tool.Result{}, err
			}

			var finalText strings.Builder
			for event, err := range seq {
				if err != nil {
					return tool.Result{}, err
				}
				if event.Kind == eventstore.KindToken {
					var delta string
					if unmarshalErr := json.Unmarshal(event.Data, &delta); unmarshalErr == nil {
						finalText.WriteString(delta)
					}
				}
			}

			return tool.TextResult(finalText.String()), nil
		})
	def.Source = tool.SourceSubagent
	return def
}

// newChildAgent inherits the parent's Provider and toolset minus
// create_subagent (one level of recursion only), with its own empty,
// independent conversation history.
func newChildAgent(parent *Agent) *Agent {
	childTools := tool.NewRegistry()
	for _, def := range parent.tools.Definitions() {
		if def.Name == SubagentToolName {
			continue
		}
		_ = childTools.Register(def)
	}

	return New(
		WithProvider(parent.provider),
		WithToolRegistry(childTools),
		WithSkillRegistry(skill.NewRegistry()),
		WithSessionBackend(session.NewMemoryBackend()),
		WithSandbox(parent.sandbox),
		WithSystemPrompt(subagentSystemPrompt),
		WithMaxIterations(parent.maxIterations),
		WithMaxTokens(parent.maxTokens),
		WithoutSubagentTool(),
	)
}

var errEmptyTask = InvalidTaskError{}

// InvalidTaskError is raised when create_subagent is invoked with an
// empty task.
type InvalidTaskError struct{}

func (InvalidTaskError) Error() string { return "create_subagent: task must not be empty" }
