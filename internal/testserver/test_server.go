// Package testserver runs the full HTTP surface over an in-memory database
// and a scripted AI provider.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ganot/appforge/internal/app"
	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/mcp"
	"github.com/ganot/appforge/internal/sqlite"
	"github.com/ganot/appforge/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	App      *app.App
	Provider *StubProvider
	Deployer *StubDeployer
	Token    string
	Email    string
	resolver *identity.APIKeyResolver
}

func New(t *testing.T, token, email string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	stub := &StubProvider{}
	deployer := &StubDeployer{}
	a := app.New(app.Options{DB: db, Collaborator: stub, Deployer: deployer})
	resolver := identity.NewAPIKeyResolver(db.DB)
	services := a.Services(nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      resolver,
		AuthEnabled:   true,
		TransportMode: mcp.TransportHTTP,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)

	server := httptest.NewServer(transport.NewServer(services, transport.AuthMiddleware(resolver), mcpHandler, nil))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		App:      a,
		Provider: stub,
		Deployer: deployer,
		Token:    token,
		Email:    email,
		resolver: resolver,
	}

	require.NoError(t, ts.AddAPIKey(token, email))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another caller.
func (ts *TestServer) AddAPIKey(token, email string) error {
	return ts.resolver.Register(context.Background(), token, identity.Identity{Email: email, Name: email})
}

// StubProvider answers every request with the scripted response.
type StubProvider struct {
	mu    sync.Mutex
	code  generation.CodeResponse
	chat  string
	err   error
	calls int
}

// SetCode scripts the next code-generation answers.
func (s *StubProvider) SetCode(resp generation.CodeResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = resp
}

// SetChat scripts the next chat answers.
func (s *StubProvider) SetChat(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = text
}

// SetErr makes every call fail with err.
func (s *StubProvider) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many requests reached the provider.
func (s *StubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StubProvider) Chat(_ context.Context, _ generation.ChatRequest) (generation.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return generation.ChatResponse{Response: s.chat}, s.err
}

func (s *StubProvider) GenerateCode(_ context.Context, _ generation.CodeRequest) (generation.CodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.code, s.err
}

// StubDeployer pretends every deployment succeeds.
type StubDeployer struct{}

func (StubDeployer) Deploy(_ context.Context, req deploy.Request) (deploy.Result, error) {
	return deploy.Result{Platform: req.Platform, URL: "https://" + req.SiteName + ".example.app"}, nil
}
