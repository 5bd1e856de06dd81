package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/domain/workspace"
	"github.com/ganot/appforge/internal/terminal"
	"github.com/ganot/appforge/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type tools struct {
	svc transport.Services
}

func registerTools(server *sdkmcp.Server, svc transport.Services) {
	t := &tools{svc: svc}

	// Credentials
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_credential",
		Description: "Store the API key for an AI provider. Keys are never returned.",
	}, t.setCredential)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_credentials",
		Description: "Show which providers have a key, with masked previews",
	}, t.listCredentials)

	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List your projects, most recently updated first",
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create an empty project",
	}, t.createProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project and its chat log",
	}, t.deleteProject)

	// Workspace
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "open_project",
		Description: "Make a project active in this workspace. A missing id leaves the workspace blank and sets not_found.",
	}, t.openProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "close_project",
		Description: "Deactivate the current project. Responses still in flight will only reach history.",
	}, t.closeProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_workspace",
		Description: "Show the active project, code and messages of this workspace",
	}, t.getWorkspace)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_code",
		Description: "Generate code from a prompt. The result is stored in history and, if a project is active, in the project.",
	}, t.generateCode)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "chat",
		Description: "Send a chat message about the active project. A fenced code block in the reply replaces the project code.",
	}, t.chat)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "select_history",
		Description: "Load a history entry into the workspace view without saving it",
	}, t.selectHistory)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "deploy",
		Description: "Publish the workspace code to Netlify or Vercel",
	}, t.deploy)

	// History, activity, terminal
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_history",
		Description: "List the 50 most recent generations, newest first",
	}, t.listHistory)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent workspace events such as generations, opens and discarded responses",
	}, t.getRecentActivity)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "run_terminal",
		Description: "Run a simulated terminal command (help, clear, install <pkg>, start, build, deploy)",
	}, t.runTerminal)
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func (t *tools) coordinator(ctx context.Context) (*workspace.Coordinator, error) {
	owner, err := getOwner(ctx)
	if err != nil {
		return nil, err
	}
	return t.svc.Workspaces.Acquire(owner, getWorkspaceID(ctx)), nil
}

func (t *tools) setCredential(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetCredentialParams) (*sdkmcp.CallToolResult, any, error) {
	provider, err := credential.ParseProvider(in.Provider)
	if err != nil {
		return nil, nil, mapError(err)
	}
	if err := t.svc.Credentials.Set(ctx, provider, in.Key); err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(map[string]any{"provider": provider, "configured": true})
}

func (t *tools) listCredentials(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	statuses, err := t.svc.Credentials.Statuses(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(map[string]any{"credentials": statuses})
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	owner, err := getOwner(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	projects, err := t.svc.Projects.List(ctx, owner)
	if err != nil {
		return nil, nil, mapError(err)
	}
	summaries := make([]project.ProjectSummary, 0, len(projects))
	for i := range projects {
		summaries = append(summaries, projects[i].Summary())
	}
	return jsonResult(map[string]any{"projects": summaries})
}

func (t *tools) createProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateProjectParams) (*sdkmcp.CallToolResult, any, error) {
	owner, err := getOwner(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	proj, err := t.svc.Projects.Create(ctx, owner, project.CreateRequest{
		Name:     in.Name,
		Language: project.Language(in.Language),
	})
	if err != nil {
		return nil, nil, mapError(err)
	}
	t.svc.Activity.Record(ctx, owner, &activity.ActivityEntry{
		ProjectID:    proj.ID,
		ActivityType: activity.TypeProjectCreated,
		Summary:      fmt.Sprintf("Created %q", proj.Name),
		Version:      proj.Version,
	})
	return jsonResult(proj)
}

func (t *tools) deleteProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, any, error) {
	owner, err := getOwner(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	if err := t.svc.Projects.Delete(ctx, owner, in.ID); err != nil {
		return nil, nil, mapError(err)
	}
	t.svc.Activity.Record(ctx, owner, &activity.ActivityEntry{
		ProjectID:    in.ID,
		ActivityType: activity.TypeProjectDeleted,
		Summary:      "Deleted project",
	})
	return jsonResult(map[string]any{"id": in.ID, "deleted": true})
}

func (t *tools) openProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in OpenProjectParams) (*sdkmcp.CallToolResult, any, error) {
	coord, err := t.coordinator(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	view, err := coord.Open(ctx, in.ProjectID)
	if errors.Is(err, project.ErrProjectNotFound) {
		return jsonResult(OpenProjectResult{Workspace: view, NotFound: true})
	}
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(OpenProjectResult{Workspace: view})
}

func (t *tools) closeProject(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	coord, err := t.coordinator(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	coord.Close()
	return jsonResult(coord.View())
}

func (t *tools) getWorkspace(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	coord, err := t.coordinator(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(coord.View())
}

func (t *tools) generateCode(ctx context.Context, _ *sdkmcp.CallToolRequest, in GenerateCodeParams) (*sdkmcp.CallToolResult, any, error) {
	provider, err := credential.ParseProvider(in.Provider)
	if err != nil {
		return nil, nil, mapError(err)
	}
	coord, err := t.coordinator(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	outcome, err := coord.Generate(ctx, workspace.GenerateInput{
		Mode:     generation.Mode(in.Mode),
		Provider: provider,
		Prompt:   in.Prompt,
		Language: in.Language,
		Context:  in.Context,
	})
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(map[string]any{"outcome": outcome, "workspace": coord.View()})
}

func (t *tools) chat(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChatParams) (*sdkmcp.CallToolResult, any, error) {
	provider, err := credential.ParseProvider(in.Provider)
	if err != nil {
		return nil, nil, mapError(err)
	}
	coord, err := t.coordinator(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	reply, err := coord.SendChat(ctx, provider, in.Message, in.Context)
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(map[string]any{"reply": reply, "workspace": coord.View()})
}

func (t *tools) selectHistory(ctx context.Context, _ *sdkmcp.CallToolRequest, in HistoryIDParams) (*sdkmcp.CallToolResult, any, error) {
	coord, err := t.coordinator(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	view, err := coord.SelectHistory(ctx, in.ID)
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(view)
}

func (t *tools) deploy(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeployParams) (*sdkmcp.CallToolResult, any, error) {
	coord, err := t.coordinator(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	res, err := coord.Deploy(ctx, deploy.Platform(in.Platform), in.SiteName, in.Token)
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(res)
}

func (t *tools) listHistory(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	entries, err := t.svc.History.List(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(map[string]any{"history": entries})
}

func (t *tools) getRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, any, error) {
	owner, err := getOwner(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}
	opts := activity.ListActivityOptions{ProjectID: in.ProjectID, Limit: in.Limit}
	if in.Type != "" {
		at := activity.ActivityType(in.Type)
		opts.ActivityType = &at
	}
	entries, err := t.svc.Activity.GetRecentActivity(ctx, owner, opts)
	if err != nil {
		return nil, nil, mapError(err)
	}
	return jsonResult(map[string]any{"activity": entries})
}

func (t *tools) runTerminal(_ context.Context, _ *sdkmcp.CallToolRequest, in RunTerminalParams) (*sdkmcp.CallToolResult, any, error) {
	return jsonResult(terminal.Interpret(in.Command))
}
