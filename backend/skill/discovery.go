package skill

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Discoverer walks DefaultDiscoveryPaths to load Skill values from
// SKILL.md files on disk, for hosts that want a filesystem-backed skill
// library instead of (or in addition to) programmatic registration.
type Discoverer struct {
	fs            afero.Fs
	userConfigDir string
	parser        *Parser
}

func NewDiscoverer(fs afero.Fs, userConfigDir string) *Discoverer {
	return &Discoverer{fs: fs, userConfigDir: userConfigDir, parser: NewParser()}
}

// Discover returns every valid skill found under the default discovery
// paths, relative to cwd's enclosing git root for repo-scoped paths. First
// match under a given name wins (repo scope is searched before user and
// system scope).
func (d *Discoverer) Discover(cwd string) ([]*Skill, error) {
	repoRoot := findGitRoot(d.fs, cwd)
	seen := make(map[string]*Skill)

	for _, dp := range DefaultDiscoveryPaths(d.userConfigDir) {
		searchPath := d.resolvePath(dp, repoRoot)
		if searchPath == "" {
			continue
		}

		found, err := d.discoverInPath(searchPath, dp.Scope)
		if err != nil {
			continue
		}
		for _, s := range found {
			if _, exists := seen[s.Name]; !exists {
				seen[s.Name] = s
			}
		}
	}

	result := make([]*Skill, 0, len(seen))
	for _, s := range seen {
		result = append(result, s)
	}
	return result, nil
}

func (d *Discoverer) resolvePath(dp DiscoveryPath, repoRoot string) string {
	if dp.IsRelative {
		return filepath.Join(repoRoot, dp.Pattern)
	}
	return dp.Pattern
}

func (d *Discoverer) discoverInPath(basePath string, scope SkillScope) ([]*Skill, error) {
	exists, err := afero.DirExists(d.fs, basePath)
	if err != nil || !exists {
		return nil, err
	}

	entries, err := afero.ReadDir(d.fs, basePath)
	if err != nil {
		return nil, err
	}

	var skills []*Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		skillDir := filepath.Join(basePath, entry.Name())
		skillFile := filepath.Join(skillDir, SkillFileName)

		content, err := afero.ReadFile(d.fs, skillFile)
		if err != nil {
			continue
		}

		s, err := d.parser.Parse(content, skillFile)
		if err != nil {
			continue
		}
		if err := d.parser.Validate(s); err != nil {
			continue
		}

		s.Scope = scope
		skills = append(skills, s)
	}

	return skills, nil
}

// findGitRoot walks up from startPath looking for a .git directory,
// falling back to startPath itself when none is found.
func findGitRoot(fs afero.Fs, startPath string) string {
	current := startPath
	for {
		exists, err := afero.DirExists(fs, filepath.Join(current, ".git"))
		if err == nil && exists {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current || !strings.HasPrefix(parent, "/") {
			return startPath
		}
		current = parent
	}
}
