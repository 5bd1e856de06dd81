package generation

import (
	"context"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
)

// ChatRequest is sent to the chat collaborator.
type ChatRequest struct {
	Provider credential.Provider `json:"provider"`
	Message  string              `json:"message"`
	APIKey   string              `json:"api_key"`
}

// ChatResponse is free text that may embed one fenced code block.
type ChatResponse struct {
	Response string `json:"response"`
}

// CodeRequest is sent to the code-generation collaborator.
type CodeRequest struct {
	Provider credential.Provider `json:"-"`
	APIKey   string              `json:"api_key"`
	Prompt   string              `json:"prompt"`
	Language string              `json:"language"`
}

// CodeResponse carries separable generation fields.
type CodeResponse struct {
	Code              string `json:"code"`
	SetupInstructions string `json:"setup_instructions,omitempty"`
	Explanation       string `json:"explanation,omitempty"`
}

// ChatCollaborator talks to an AI provider in chat form.
type ChatCollaborator interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// CodeCollaborator asks an AI provider for code.
type CodeCollaborator interface {
	GenerateCode(ctx context.Context, req CodeRequest) (CodeResponse, error)
}

// Vault looks up provider keys.
type Vault interface {
	Get(ctx context.Context, provider credential.Provider) (string, bool, error)
}

// Ledger records finished generations.
type Ledger interface {
	Append(ctx context.Context, draft history.Draft) (history.Entry, error)
}

// ProjectWriter applies a patch to the project named by the ticket. It
// returns ErrStaleResponse, writing nothing, when the ticket no longer
// matches the active project.
type ProjectWriter interface {
	Apply(ctx context.Context, ticket Ticket, patch project.Patch) (*project.Project, error)
}
