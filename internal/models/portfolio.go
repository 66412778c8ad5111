package models

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// Portfolio is the hand-authored content the page is rendered from. The same content is serialized
// into the chat assistant's system instruction, so it is read once at startup and never mutated.
type Portfolio struct {
	Profile    Profile      `yaml:"profile" json:"profile"`
	Projects   []Project    `yaml:"projects" json:"projects"`
	Experience []Experience `yaml:"experience" json:"experience"`
	Skills     []Skill      `yaml:"skills" json:"skills"`
}

// Profile holds the personal information shown in the hero section.
type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Title       string `yaml:"title" json:"title"`
	Location    string `yaml:"location" json:"location"`
	Email       string `yaml:"email" json:"email"`
	GitHub      string `yaml:"github" json:"github"`
	LinkedIn    string `yaml:"linkedin" json:"linkedin"`
	Bio         string `yaml:"bio" json:"bio"`
	ExtendedBio string `yaml:"extendedBio" json:"extendedBio"`
}

// Project is a single entry of the project gallery.
type Project struct {
	ID              string   `yaml:"id" json:"id"`
	Title           string   `yaml:"title" json:"title"`
	Description     string   `yaml:"description" json:"description"`
	LongDescription string   `yaml:"longDescription" json:"longDescription"`
	Image           string   `yaml:"image" json:"image"`
	Tags            []string `yaml:"tags" json:"tags"`
	Link            string   `yaml:"link" json:"link"`
	GitHub          string   `yaml:"github,omitempty" json:"github,omitempty"`
}

// Experience is a single position on the experience timeline.
type Experience struct {
	ID          string   `yaml:"id" json:"id"`
	Company     string   `yaml:"company" json:"company"`
	Role        string   `yaml:"role" json:"role"`
	Period      string   `yaml:"period" json:"period"`
	Description []string `yaml:"description" json:"description"`
}

// Skill is a single entry of the skills grid. Level is a percentage between 0 and 100.
type Skill struct {
	Name     string        `yaml:"name" json:"name"`
	Level    int           `yaml:"level" json:"level"`
	Category SkillCategory `yaml:"category" json:"category"`
}

// SkillCategory groups skills in the skills grid.
type SkillCategory string

// SkillGroup is the skills of one category, in the order they were authored.
type SkillGroup struct {
	Category SkillCategory
	Skills   []Skill
}

const (
	SkillCategoryFrontend   SkillCategory = "Frontend"
	SkillCategoryBackend    SkillCategory = "Backend"
	SkillCategoryTools      SkillCategory = "Tools"
	SkillCategorySoftSkills SkillCategory = "Soft Skills"
)

// SkillCategories lists the known categories in display order.
var SkillCategories = []SkillCategory{
	SkillCategoryFrontend,
	SkillCategoryBackend,
	SkillCategoryTools,
	SkillCategorySoftSkills,
}

// LoadPortfolio decodes a YAML portfolio document and validates it.
func LoadPortfolio(r io.Reader) (Portfolio, error) {
	var p Portfolio
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return Portfolio{}, fmt.Errorf("failed to decode portfolio: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

// Validate reports the first structural problem found in the portfolio content.
func (p Portfolio) Validate() error {
	if p.Profile.Name == "" {
		return errors.New("portfolio profile name is required")
	}
	for _, s := range p.Skills {
		if s.Name == "" {
			return errors.New("skill name is required")
		}
		if s.Level < 0 || s.Level > 100 {
			return fmt.Errorf("skill %s: level must be between 0 and 100, got %d", s.Name, s.Level)
		}
		if !s.Category.valid() {
			return fmt.Errorf("skill %s: unknown category %q", s.Name, s.Category)
		}
	}
	for _, pr := range p.Projects {
		if pr.Title == "" {
			return fmt.Errorf("project %s: title is required", pr.ID)
		}
	}
	return nil
}

// SkillsByCategory groups the skills by category following SkillCategories order. Categories without
// skills are left out.
func (p Portfolio) SkillsByCategory() []SkillGroup {
	var groups []SkillGroup
	for _, c := range SkillCategories {
		var skills []Skill
		for _, s := range p.Skills {
			if s.Category == c {
				skills = append(skills, s)
			}
		}
		if len(skills) == 0 {
			continue
		}
		groups = append(groups, SkillGroup{Category: c, Skills: skills})
	}
	return groups
}

func (c SkillCategory) valid() bool {
	return slices.Contains(SkillCategories, c)
}
