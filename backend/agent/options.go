package agent

import (
	"github.com/furisto/agentcore/backend/contextwindow"
	"github.com/furisto/agentcore/backend/eventstore"
	"github.com/furisto/agentcore/backend/provider"
	"github.com/furisto/agentcore/backend/sandbox"
	"github.com/furisto/agentcore/backend/session"
	"github.com/furisto/agentcore/backend/skill"
	"github.com/furisto/agentcore/backend/tool"
)

// DefaultMaxIterations is spec.md §6's AgentCoreConfig.max_iterations
// default.
const DefaultMaxIterations = 25

// DefaultMaxTokens is spec.md §6's ProviderConfig.max_tokens default.
const DefaultMaxTokens = 8192

// Options configures an Agent, following the functional-options shape the
// teacher's agent.go skeleton used for its own AgentOptions.
type Options struct {
	Provider       provider.Provider
	Tools          *tool.Registry
	Skills         *skill.Registry
	Sessions       session.Backend
	Events         eventstore.Store
	ContextManager *contextwindow.Manager
	Sandbox        sandbox.Sandbox
	SystemPrompt   string
	MaxIterations  int
	MaxTokens      int
	Model          string
	// DisableSubagentTool skips auto-registering create_subagent (spec.md
	// §4.8) onto the tool registry. newChildAgent sets this so a subagent
	// cannot itself spawn another one.
	DisableSubagentTool bool
}

type Option func(*Options)

func WithProvider(p provider.Provider) Option     { return func(o *Options) { o.Provider = p } }
func WithToolRegistry(r *tool.Registry) Option    { return func(o *Options) { o.Tools = r } }
func WithSkillRegistry(r *skill.Registry) Option  { return func(o *Options) { o.Skills = r } }
func WithSessionBackend(b session.Backend) Option { return func(o *Options) { o.Sessions = b } }
func WithEventStore(s eventstore.Store) Option    { return func(o *Options) { o.Events = s } }
func WithContextManager(m *contextwindow.Manager) Option {
	return func(o *Options) { o.ContextManager = m }
}
func WithSandbox(s sandbox.Sandbox) Option  { return func(o *Options) { o.Sandbox = s } }
func WithSystemPrompt(prompt string) Option { return func(o *Options) { o.SystemPrompt = prompt } }
func WithMaxIterations(n int) Option        { return func(o *Options) { o.MaxIterations = n } }
func WithMaxTokens(n int) Option            { return func(o *Options) { o.MaxTokens = n } }
func WithModel(model string) Option         { return func(o *Options) { o.Model = model } }

// WithoutSubagentTool disables the create_subagent auto-registration New
// otherwise performs.
func WithoutSubagentTool() Option { return func(o *Options) { o.DisableSubagentTool = true } }

// DefaultOptions fills in every Options field that has a sane zero-config
// default, including an empty tool registry; Provider still must be
// supplied by the caller.
func DefaultOptions() Options {
	return Options{
		Tools:         tool.NewRegistry(),
		Skills:        skill.NewRegistry(),
		Sessions:      session.NewMemoryBackend(),
		MaxIterations: DefaultMaxIterations,
		MaxTokens:     DefaultMaxTokens,
	}
}
