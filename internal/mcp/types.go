package mcp

import (
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/workspace"
)

type SetCredentialParams struct {
	Provider string `json:"provider" jsonschema:"AI provider: openai, anthropic or grok"`
	Key      string `json:"key" jsonschema:"API key for the provider"`
}

type EmptyParams struct{}

type CreateProjectParams struct {
	Name     string `json:"name" jsonschema:"Project display name"`
	Language string `json:"language,omitempty" jsonschema:"Initial language: web3, ai or fullstack"`
}

type ProjectIDParams struct {
	ID string `json:"id" jsonschema:"Project ID"`
}

type OpenProjectParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project ID or resume token (omit for a blank workspace)"`
}

type GenerateCodeParams struct {
	Provider string                      `json:"provider" jsonschema:"AI provider: openai, anthropic or grok"`
	Prompt   string                      `json:"prompt" jsonschema:"What to build"`
	Language string                      `json:"language,omitempty" jsonschema:"Target language category"`
	Mode     string                      `json:"mode,omitempty" jsonschema:"generate (default) or chat"`
	Context  *generation.LanguageContext `json:"context,omitempty" jsonschema:"Project context prepended to the prompt"`
}

type ChatParams struct {
	Provider string                      `json:"provider" jsonschema:"AI provider: openai, anthropic or grok"`
	Message  string                      `json:"message" jsonschema:"Chat message"`
	Context  *generation.LanguageContext `json:"context,omitempty" jsonschema:"Project context prepended to the message"`
}

type HistoryIDParams struct {
	ID string `json:"id" jsonschema:"History entry ID"`
}

type RunTerminalParams struct {
	Command string `json:"command" jsonschema:"Command line, e.g. help or install lodash"`
}

type DeployParams struct {
	Platform string `json:"platform" jsonschema:"netlify or vercel"`
	SiteName string `json:"site_name" jsonschema:"Site or project name on the platform"`
	Token    string `json:"token" jsonschema:"Platform access token"`
}

type GetRecentActivityParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Only this project"`
	Type      string `json:"type,omitempty" jsonschema:"Only this activity type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum entries (default 20)"`
}

type OpenProjectResult struct {
	Workspace workspace.View `json:"workspace"`
	NotFound  bool           `json:"not_found,omitempty"`
}
