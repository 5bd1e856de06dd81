// Package app assembles the domain services shared by the server, the CLI
// and the test harness.
package app

import (
	"io"
	"log/slog"

	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/domain/workspace"
	"github.com/ganot/appforge/internal/provider"
	"github.com/ganot/appforge/internal/sqlite"
	"github.com/ganot/appforge/internal/transport"
)

// Options selects the collaborators. DB is required.
type Options struct {
	DB *sqlite.DB
	// History overrides the SQLite ledger, e.g. with the Redis store.
	History      history.Repository
	Collaborator provider.Collaborator
	Deployer     deploy.Deployer
	Logger       *slog.Logger
}

// App holds the wired services.
type App struct {
	DB          *sqlite.DB
	Credentials *credential.Service
	History     *history.Service
	Projects    *project.Service
	Activity    *activity.Service
	Generation  *generation.Service
	Workspaces  *workspace.Registry
}

// New wires the services over opts.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	historyRepo := opts.History
	if historyRepo == nil {
		historyRepo = sqlite.NewHistoryRepository(opts.DB)
	}
	collaborator := opts.Collaborator
	if collaborator == nil {
		collaborator = provider.NewClient(provider.Options{Logger: logger})
	}
	deployer := opts.Deployer
	if deployer == nil {
		deployer = deploy.NewClient(nil)
	}

	a := &App{
		DB:          opts.DB,
		Credentials: credential.NewService(sqlite.NewCredentialRepository(opts.DB), logger),
		History:     history.NewService(historyRepo, logger),
		Projects:    project.NewService(sqlite.NewProjectRepository(opts.DB), logger),
		Activity:    activity.NewService(sqlite.NewActivityRepository(opts.DB), logger),
	}
	a.Generation = generation.NewService(a.Credentials, collaborator, collaborator, a.History, logger)
	a.Workspaces = workspace.NewRegistry(workspace.Dependencies{
		Projects:   a.Projects,
		History:    a.History,
		Generator:  a.Generation,
		Deployer:   deployer,
		Activities: a.Activity,
	}, logger)
	return a
}

// Services returns the REST and MCP view of the app. github may be nil.
func (a *App) Services(github transport.Exchanger) transport.Services {
	svc := transport.Services{
		Credentials: a.Credentials,
		History:     a.History,
		Projects:    a.Projects,
		Activity:    a.Activity,
		Workspaces:  a.Workspaces,
	}
	if github != nil {
		svc.GitHub = github
	}
	return svc
}
