package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `appforge generates application code with your own AI provider keys and keeps it in projects.

Core concepts:
- Credential: one API key per provider (openai, anthropic, grok). Set it before generating.
- Project: named container for code, the last prompt and a chat log.
- Workspace: your view of at most one active project. Every write to the project goes through it.
- History: the 50 most recent generations, kept even when no project is open.

Default workflow:
1) set_credential once per provider.
2) list_projects, then open_project(project_id) or create_project + open_project.
3) generate_code(provider, prompt) or chat(provider, message).
4) select_history(id) to look at an older result; it is not saved until the next generation.

Switching projects while a generation is running is safe: the late result goes to history only and is reported as discarded.

Transport notes:
- HTTP: the workspace is named by the X-Workspace-Id header, or the Mcp-Session-Id header.
- Stdio: pass _meta.workspace_id to use more than one workspace.

Docs:
- appforge://docs/guide
- appforge://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "appforge://docs/guide",
		Name:        "docs_guide",
		Title:       "appforge usage guide",
		Description: "Projects, workspaces and generation in a few paragraphs.",
		Content: `# appforge guide

## Generation

generate_code asks the provider for JSON with code, setup_instructions and
explanation. The first fenced block of the code is kept. The result is always
added to history. If a project was active when you sent the prompt, and is
still active when the answer arrives, the project is updated too.

chat sends a message with the active project's context. If the reply contains
a fenced code block, that block replaces the project's code. Both the message
and the reply are appended to the project's chat log.

## Language context

Pass context {type, framework, description} to either tool to prepend a
project description to the prompt. type is one of web3, ai, fullstack.

## Terminal

run_terminal is a simulation. It never executes anything.
`,
	},
	{
		URI:         "appforge://docs/errors",
		Name:        "docs_errors",
		Title:       "appforge error codes",
		Description: "Error codes returned by tools and how to recover.",
		Content: `# Error codes

- MISSING_CREDENTIAL: set_credential for the provider, then retry.
- COLLABORATOR_FAILURE: the provider call failed. Nothing was written. Retry.
- PROJECT_NOT_FOUND: list_projects for valid ids.
- HISTORY_NOT_FOUND: list_history for valid ids.
- NO_ACTIVE_PROJECT: open_project first (chat and deploy need one).
- NOTHING_TO_DEPLOY: generate code first.
- CONFLICT: the project changed underneath; reopen it and retry.
- UNKNOWN_PROVIDER: use openai, anthropic or grok.
- UNAUTHORIZED / NO_IDENTITY: sign in again.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
