package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/MegaGrindStone/portfolio-web/internal/models"
)

var instructionTemplate = template.Must(template.New("instruction").Parse(`
You are the AI Personal Assistant for {{.Name}}'s professional portfolio.
Your goal is to answer questions about {{.Name}}'s skills, projects, and work experience in a professional, helpful, and concise manner.

Context:
- Name: {{.Name}}
- Title: {{.Title}}
- Bio: {{.Bio}}
- Projects: {{.Projects}}
- Experience: {{.Experience}}
- Skills: {{.Skills}}

Guidelines:
1. Be polite and professional.
2. If you don't know the answer, suggest contacting {{.Name}} via the contact form.
3. Keep responses relatively short (under 100 words).
4. Do not make up facts. Only use the provided context.
5. If someone asks for a resume, mention it's available upon request through the contact form.
`))

type instructionData struct {
	Name       string
	Title      string
	Bio        string
	Projects   string
	Experience string
	Skills     string
}

// BuildInstruction serializes the portfolio into the system instruction sent with every completion
// request. Projects, experience and skills are embedded as compact JSON.
func BuildInstruction(p models.Portfolio) (string, error) {
	bio := p.Profile.ExtendedBio
	if bio == "" {
		bio = p.Profile.Bio
	}

	data := instructionData{
		Name:  p.Profile.Name,
		Title: p.Profile.Title,
		Bio:   bio,
	}

	var err error
	if data.Projects, err = compactJSON(p.Projects); err != nil {
		return "", fmt.Errorf("failed to encode projects: %w", err)
	}
	if data.Experience, err = compactJSON(p.Experience); err != nil {
		return "", fmt.Errorf("failed to encode experience: %w", err)
	}
	if data.Skills, err = compactJSON(p.Skills); err != nil {
		return "", fmt.Errorf("failed to encode skills: %w", err)
	}

	var sb strings.Builder
	if err := instructionTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute instruction template: %w", err)
	}
	return sb.String(), nil
}

// DefaultGreeting is the seeded first message of every transcript when none is configured.
func DefaultGreeting(p models.Portfolio) string {
	name := p.Profile.Name
	if first, _, ok := strings.Cut(name, " "); ok {
		name = first
	}
	return fmt.Sprintf("Hi! I'm %s's AI assistant. Ask me anything about their experience, skills, or projects!", name)
}

func compactJSON[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
