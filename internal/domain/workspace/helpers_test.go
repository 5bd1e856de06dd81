package workspace_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/domain/workspace"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/sqlite"
	"github.com/stretchr/testify/require"
)

var owner = identity.NewOwnerID("dev@example.com")

// stubProvider answers both collaborator shapes. When gate is set, calls
// block until it is closed.
type stubProvider struct {
	mu       sync.Mutex
	code     generation.CodeResponse
	chat     string
	err      error
	gate     chan struct{}
	started  chan struct{}
	calls    int
	lastChat generation.ChatRequest
	lastCode generation.CodeRequest
}

func (s *stubProvider) wait(ctx context.Context) error {
	s.mu.Lock()
	s.calls++
	gate, started := s.gate, s.started
	s.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubProvider) Chat(ctx context.Context, req generation.ChatRequest) (generation.ChatResponse, error) {
	if err := s.wait(ctx); err != nil {
		return generation.ChatResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChat = req
	return generation.ChatResponse{Response: s.chat}, s.err
}

func (s *stubProvider) GenerateCode(ctx context.Context, req generation.CodeRequest) (generation.CodeResponse, error) {
	if err := s.wait(ctx); err != nil {
		return generation.CodeResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCode = req
	return s.code, s.err
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubDeployer struct {
	got deploy.Request
}

func (d *stubDeployer) Deploy(_ context.Context, req deploy.Request) (deploy.Result, error) {
	d.got = req
	return deploy.Result{Platform: req.Platform, URL: "https://" + req.SiteName + ".example.app"}, nil
}

type env struct {
	projects   *project.Service
	history    *history.Service
	vault      *credential.Service
	activities *activity.Service
	provider   *stubProvider
	deployer   *stubDeployer
	registry   *workspace.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())

	e := &env{
		projects:   project.NewService(sqlite.NewProjectRepository(db), nil),
		history:    history.NewService(sqlite.NewHistoryRepository(db), nil),
		vault:      credential.NewService(sqlite.NewCredentialRepository(db), nil),
		activities: activity.NewService(sqlite.NewActivityRepository(db), nil),
		provider:   &stubProvider{},
		deployer:   &stubDeployer{},
	}
	gen := generation.NewService(e.vault, e.provider, e.provider, e.history, nil)
	e.registry = workspace.NewRegistry(workspace.Dependencies{
		Projects:   e.projects,
		History:    e.history,
		Generator:  gen,
		Deployer:   e.deployer,
		Activities: e.activities,
	}, nil)
	return e
}

func (e *env) createProject(t *testing.T, name string) *project.Project {
	t.Helper()
	proj, err := e.projects.Create(context.Background(), owner, project.CreateRequest{Name: name})
	require.NoError(t, err)
	return proj
}

func (e *env) resolve(t *testing.T, id string) *project.Project {
	t.Helper()
	proj, err := e.projects.Resolve(context.Background(), owner, id)
	require.NoError(t, err)
	return proj
}

func (e *env) historyLen(t *testing.T) int {
	t.Helper()
	entries, err := e.history.List(context.Background())
	require.NoError(t, err)
	return len(entries)
}

func patchCode(code string) project.Patch {
	return project.Patch{Code: &code}
}
