// Package skill implements the two-phase SkillRegistry: a lightweight
// listing of every known skill for the system prompt, and the full
// instructions body for whichever skills have been activated.
package skill

import "path/filepath"

type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Instructions is the full body of SKILL.md below the frontmatter.
	// It is only surfaced once the skill is activated.
	Instructions string `yaml:"-"`
	// DisableModelInvocation hides the skill from both the listing and
	// the activated block, for skills meant to be invoked only by an
	// explicit host-side decision.
	DisableModelInvocation bool       `yaml:"disable_model_invocation"`
	Location               string     `yaml:"-"`
	Scope                  SkillScope `yaml:"-"`
	// Tools lists scripts this skill bundles alongside SKILL.md, exposed to
	// the model as ordinary tools once Registry.BindToolsTo runs.
	Tools []ToolSpec `yaml:"tools"`
}

// ToolSpec describes one tool a skill bundles: Script is a path relative to
// the skill's own directory (the directory containing SKILL.md), executed
// through a Sandbox with the tool's raw JSON input shell-escaped as its sole
// command-line argument.
type ToolSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Script      string         `yaml:"script"`
	InputSchema map[string]any `yaml:"input_schema"`
}

type SkillScope string

const (
	SkillScopeRepo   SkillScope = "repo"
	SkillScopeUser   SkillScope = "user"
	SkillScopeSystem SkillScope = "system"
)

type DiscoveryPath struct {
	Pattern    string
	Scope      SkillScope
	IsRelative bool
}

// DefaultDiscoveryPaths lists the on-disk locations searched by Discoverer,
// in the same repo/user/system scope ordering the host resolves name
// collisions with (first match under a given name wins).
func DefaultDiscoveryPaths(userConfigDir string) []DiscoveryPath {
	paths := []DiscoveryPath{
		{Pattern: ".agentcore/skills", Scope: SkillScopeRepo, IsRelative: true},
		{Pattern: ".claude/skills", Scope: SkillScopeRepo, IsRelative: true},
	}

	if userConfigDir != "" {
		paths = append(paths, DiscoveryPath{
			Pattern:    filepath.Join(userConfigDir, "agentcore", "skills"),
			Scope:      SkillScopeUser,
			IsRelative: false,
		})
	}

	paths = append(paths, DiscoveryPath{Pattern: "/etc/agentcore/skills", Scope: SkillScopeSystem, IsRelative: false})
	return paths
}

const (
	SkillFileName        = "SKILL.md"
	MaxNameLength        = 64
	MaxDescriptionLength = 1024
	MinDescriptionLength = 1
)
