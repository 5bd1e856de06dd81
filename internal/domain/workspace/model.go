package workspace

import (
	"time"

	"github.com/ganot/appforge/internal/domain/project"
)

// View is the state a client renders. It mirrors the active project, except
// after a history selection, which replaces the generation fields in memory
// only.
type View struct {
	WorkspaceID       string            `json:"workspace_id"`
	ProjectID         string            `json:"project_id,omitempty"`
	Name              string            `json:"name,omitempty"`
	Prompt            string            `json:"prompt"`
	Language          string            `json:"language"`
	Code              string            `json:"code"`
	SetupInstructions string            `json:"setup_instructions,omitempty"`
	Explanation       string            `json:"explanation,omitempty"`
	Messages          []project.Message `json:"messages"`
	Version           int64             `json:"version,omitempty"`
	UpdatedAt         *time.Time        `json:"updated_at,omitempty"`
}

func (v View) clone() View {
	v.Messages = append([]project.Message{}, v.Messages...)
	if v.UpdatedAt != nil {
		t := *v.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}

func viewOf(workspaceID string, p *project.Project) View {
	updated := p.UpdatedAt
	return View{
		WorkspaceID:       workspaceID,
		ProjectID:         p.ID,
		Name:              p.Name,
		Prompt:            p.Prompt,
		Language:          string(p.Language),
		Code:              p.Code,
		SetupInstructions: p.SetupInstructions,
		Explanation:       p.Explanation,
		Messages:          append([]project.Message{}, p.ChatHistory...),
		Version:           p.Version,
		UpdatedAt:         &updated,
	}
}

// absorb refreshes the fields patch touched from the stored project.
func (v *View) absorb(p *project.Project, patch project.Patch) {
	if patch.Name != nil {
		v.Name = p.Name
	}
	if patch.Language != nil {
		v.Language = string(p.Language)
	}
	if patch.Code != nil {
		v.Code = p.Code
	}
	if patch.Prompt != nil {
		v.Prompt = p.Prompt
	}
	if patch.SetupInstructions != nil {
		v.SetupInstructions = p.SetupInstructions
	}
	if patch.Explanation != nil {
		v.Explanation = p.Explanation
	}
	v.Messages = append([]project.Message{}, p.ChatHistory...)
	v.Version = p.Version
	updated := p.UpdatedAt
	v.UpdatedAt = &updated
}
