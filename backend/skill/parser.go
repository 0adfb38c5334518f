package skill

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingName        = errors.New("skill name is required")
	ErrMissingDescription = errors.New("skill description is required")
	ErrNameTooLong        = fmt.Errorf("skill name must not exceed %d characters", MaxNameLength)
	ErrDescriptionTooLong = fmt.Errorf("skill description must not exceed %d characters", MaxDescriptionLength)
	ErrInvalidNameFormat  = errors.New("skill name must be lowercase alphanumeric with hyphens only")
	ErrNoFrontmatter      = errors.New("SKILL.md must contain YAML frontmatter delimited by ---")
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse splits SKILL.md into its YAML frontmatter (Name, Description,
// DisableModelInvocation) and the markdown body, which becomes
// Skill.Instructions.
func (p *Parser) Parse(content []byte, location string) (*Skill, error) {
	frontmatter, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var s Skill
	if err := yaml.Unmarshal(frontmatter, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}

	s.Instructions = string(bytes.TrimSpace(body))
	s.Location = location
	return &s, nil
}

func (p *Parser) Validate(s *Skill) error {
	if s.Name == "" {
		return ErrMissingName
	}
	if len(s.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !namePattern.MatchString(s.Name) {
		return ErrInvalidNameFormat
	}
	if s.Description == "" {
		return ErrMissingDescription
	}
	if len(s.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func splitFrontmatter(content []byte) (frontmatter, body []byte, err error) {
	content = bytes.TrimSpace(content)

	if !bytes.HasPrefix(content, []byte("---")) {
		return nil, nil, ErrNoFrontmatter
	}
	rest := content[3:]

	endIndex := bytes.Index(rest, []byte("\n---"))
	if endIndex == -1 {
		return nil, nil, ErrNoFrontmatter
	}

	frontmatter = bytes.TrimSpace(rest[:endIndex])
	if len(frontmatter) == 0 {
		return nil, nil, ErrNoFrontmatter
	}

	after := rest[endIndex+len("\n---"):]
	if nl := bytes.IndexByte(after, '\n'); nl != -1 {
		body = after[nl+1:]
	}

	return frontmatter, body, nil
}
