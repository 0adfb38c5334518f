package skill

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DuplicateSkillError is raised at registration time when a skill name is
// already registered.
type DuplicateSkillError struct {
	Name string
}

func (e *DuplicateSkillError) Error() string {
	return fmt.Sprintf("skill %q is already registered", e.Name)
}

// NotFoundError is raised by Activate/Deactivate/Get for an unknown name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("skill %q is not registered", e.Name)
}

// Registry is the in-memory, two-phase SkillRegistry: Phase 1 always
// contributes a bulleted listing of every visible skill to the system
// prompt; Phase 2 contributes the full instructions body of whichever
// skills have been activated.
type Registry struct {
	mu        sync.RWMutex
	skills    map[string]*Skill
	activated map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		skills:    make(map[string]*Skill),
		activated: make(map[string]bool),
	}
}

func (r *Registry) Register(s *Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[s.Name]; exists {
		return &DuplicateSkillError{Name: s.Name}
	}
	r.skills[s.Name] = s
	return nil
}

func (r *Registry) Activate(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[name]; !exists {
		return &NotFoundError{Name: name}
	}
	r.activated[name] = true
	return nil
}

func (r *Registry) Deactivate(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[name]; !exists {
		return &NotFoundError{Name: name}
	}
	delete(r.activated, name)
	return nil
}

func (r *Registry) List() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Skill, 0, len(r.skills))
	for _, s := range r.skills {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (r *Registry) Get(name string) (*Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.skills[name]
	if !exists {
		return nil, &NotFoundError{Name: name}
	}
	return s, nil
}

// Compose builds the final system prompt: base_prompt unchanged when the
// registry is empty of visible skills and nothing is activated; otherwise
// base_prompt, then a "Available skills:" listing of every non-hidden
// skill, then a "---" delimiter, then the concatenated instructions of
// every activated skill.
func (r *Registry) Compose(basePrompt string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var listed []*Skill
	for _, s := range r.skills {
		if !s.DisableModelInvocation {
			listed = append(listed, s)
		}
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].Name < listed[j].Name })

	var activatedNames []string
	for name := range r.activated {
		if s, exists := r.skills[name]; exists && !s.DisableModelInvocation {
			activatedNames = append(activatedNames, name)
		}
	}
	sort.Strings(activatedNames)

	if len(listed) == 0 && len(activatedNames) == 0 {
		return basePrompt
	}

	var sb strings.Builder
	sb.WriteString(basePrompt)

	sb.WriteString("\nAvailable skills:\n")
	for _, s := range listed {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Name, s.Description)
	}

	sb.WriteString("---\n")
	for _, name := range activatedNames {
		sb.WriteString(r.skills[name].Instructions)
		sb.WriteString("\n")
	}

	return sb.String()
}
