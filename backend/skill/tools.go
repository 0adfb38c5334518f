package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"al.essio.dev/pkg/shellescape"

	"github.com/furisto/agentcore/backend/sandbox"
	"github.com/furisto/agentcore/backend/tool"
)

// BindToolsTo registers every tool bundled by every registered skill against
// reg, tagged tool.SourceSkill per spec.md §4.3. Binding happens for every
// registered skill regardless of activation state — skill.Tools are
// capabilities the model can reach for directly, independent of whether the
// skill's full instructions have been activated into the prompt — mirroring
// how registrations are expected to occur once at construction time (spec.md
// §5). sb executes each tool's bundled script; a skill with no Tools
// registers nothing. With a nil sb the tools are still registered, and
// executing one returns an error.
func (r *Registry) BindToolsTo(reg *tool.Registry, sb sandbox.Sandbox) error {
	r.mu.RLock()
	skills := make([]*Skill, 0, len(r.skills))
	for _, s := range r.skills {
		skills = append(skills, s)
	}
	r.mu.RUnlock()

	for _, s := range skills {
		skillDir := filepath.Dir(s.Location)
		for _, spec := range s.Tools {
			spec := spec
			schema, err := json.Marshal(spec.InputSchema)
			if err != nil {
				return fmt.Errorf("skill %q: tool %q: %w", s.Name, spec.Name, err)
			}

			def := tool.Definition{
				Name:        spec.Name,
				Description: spec.Description,
				InputSchema: schema,
				Source:      tool.SourceSkill,
				Handler: func(ctx context.Context, rawInput json.RawMessage) (tool.Result, error) {
					return runSkillTool(ctx, sb, skillDir, spec, rawInput)
				},
			}
			if err := reg.Register(def); err != nil {
				return err
			}
		}
	}
	return nil
}

func runSkillTool(ctx context.Context, sb sandbox.Sandbox, skillDir string, spec ToolSpec, rawInput json.RawMessage) (tool.Result, error) {
	if sb == nil {
		return tool.Result{}, fmt.Errorf("skill tool %q: no Sandbox configured", spec.Name)
	}

	scriptPath := filepath.Join(skillDir, spec.Script)
	command := scriptPath + " " + shellescape.Quote(string(rawInput))

	result, err := sb.Exec(ctx, command, "", 0)
	if err != nil {
		return tool.Result{}, err
	}
	if result.ExitCode != 0 {
		return tool.TextResult(result.Stderr), nil
	}
	return tool.TextResult(result.Stdout), nil
}
