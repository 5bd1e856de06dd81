package generation

import (
	"fmt"
	"strings"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
)

// Mode selects which collaborator serves a request.
type Mode string

const (
	// ModeGenerate uses the code-generation collaborator.
	ModeGenerate Mode = "generate"
	// ModeChat uses the chat collaborator.
	ModeChat Mode = "chat"
)

// LanguageContext describes the project a prompt is about.
type LanguageContext struct {
	Type        string `json:"type"`
	Framework   string `json:"framework,omitempty"`
	Description string `json:"description,omitempty"`
}

// Compose prepends the context block to prompt. With a nil context the
// prompt is returned unchanged.
func Compose(lc *LanguageContext, prompt string) string {
	if lc == nil {
		return prompt
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project Context:\nType: %s\n", lc.Type)
	if lc.Framework != "" {
		fmt.Fprintf(&b, "Framework: %s\n", lc.Framework)
	}
	if lc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", lc.Description)
	}
	fmt.Fprintf(&b, "\nUser Query: %s", prompt)
	return b.String()
}

// Ticket tags an in-flight request with the project that was active when it
// was submitted. Epoch identifies the activation; it changes whenever the
// active project does.
type Ticket struct {
	ProjectID string
	Epoch     uint64
}

// HasProject reports whether a project was active at submission.
func (t Ticket) HasProject() bool { return t.ProjectID != "" }

// Request is one generation submission.
type Request struct {
	Ticket   Ticket
	Mode     Mode
	Provider credential.Provider
	// Prompt is the raw user input. It is what gets displayed and stored.
	Prompt   string
	Language string
	Context  *LanguageContext
}

// Outcome is the normalised result of either collaborator.
//
// From the code-generation collaborator: Code is the first fenced block of
// the returned code (or the whole code when unfenced), SetupInstructions and
// Explanation are copied, Text is the explanation.
// From the chat collaborator: Code is the first fenced block of the response
// (empty when none), Explanation and Text are the full response.
type Outcome struct {
	Mode              Mode             `json:"mode"`
	Code              string           `json:"code"`
	SetupInstructions string           `json:"setup_instructions,omitempty"`
	Explanation       string           `json:"explanation,omitempty"`
	Text              string           `json:"text"`
	Project           *project.Project `json:"project,omitempty"`
	History           *history.Entry   `json:"history,omitempty"`
	Discarded         bool             `json:"discarded"`
}

// Patch returns the project write for this outcome.
func (o Outcome) Patch(req Request) project.Patch {
	code := o.Code
	prompt := req.Prompt
	setup := o.SetupInstructions
	explanation := o.Explanation
	patch := project.Patch{
		Code:              &code,
		Prompt:            &prompt,
		SetupInstructions: &setup,
		Explanation:       &explanation,
	}
	if lang := project.Language(req.Language); lang != project.LanguageNone && lang.Valid() {
		patch.Language = &lang
	}
	return patch
}
