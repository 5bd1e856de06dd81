// Package transport serves the REST API.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/domain/workspace"
	"github.com/ganot/appforge/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CredentialService defines vault operations needed by the API.
type CredentialService interface {
	Set(ctx context.Context, provider credential.Provider, key string) error
	Statuses(ctx context.Context) ([]credential.Status, error)
}

// HistoryService defines ledger reads needed by the API.
type HistoryService interface {
	List(ctx context.Context) ([]history.Entry, error)
}

// ProjectService defines project operations needed by the API.
type ProjectService interface {
	Create(ctx context.Context, owner identity.OwnerID, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context, owner identity.OwnerID) ([]project.Project, error)
	Resolve(ctx context.Context, owner identity.OwnerID, id string) (*project.Project, error)
	Update(ctx context.Context, owner identity.OwnerID, id string, patch project.Patch) (*project.Project, error)
	Delete(ctx context.Context, owner identity.OwnerID, id string) error
}

// ActivityService defines activity operations needed by the API.
type ActivityService interface {
	Record(ctx context.Context, owner identity.OwnerID, entry *activity.ActivityEntry)
	GetRecentActivity(ctx context.Context, owner identity.OwnerID, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Workspaces hands out coordinators per (owner, workspace id).
type Workspaces interface {
	Acquire(owner identity.OwnerID, id string) *workspace.Coordinator
	Lookup(owner identity.OwnerID, id string) (*workspace.Coordinator, error)
}

// Exchanger turns an OAuth code into an identity.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (identity.Identity, error)
}

// Services contains everything the API serves.
type Services struct {
	Credentials CredentialService
	History     HistoryService
	Projects    ProjectService
	Activity    ActivityService
	Workspaces  Workspaces
	GitHub      Exchanger
}

// Server wires HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewServer creates the HTTP router. auth guards every /api/v1 route except
// the OAuth exchange; mcp, when set, is mounted at /mcp behind the same
// guard.
func NewServer(svc Services, auth func(http.Handler) http.Handler, mcp http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Post("/api/v1/auth/github", srv.handleGitHubAuth)

	r.Group(func(r chi.Router) {
		if auth != nil {
			r.Use(auth)
		}
		r.Use(WorkspaceMiddleware)

		if mcp != nil {
			r.Handle("/mcp", mcp)
			r.Handle("/mcp/*", mcp)
		}

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/credentials", srv.handleListCredentials)
			r.Put("/credentials/{provider}", srv.handleSetCredential)

			r.Get("/history", srv.handleListHistory)
			r.Get("/activity", srv.handleListActivity)
			r.Post("/terminal", srv.handleTerminal)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", srv.handleListProjects)
				r.Post("/", srv.handleCreateProject)
				r.Get("/{id}", srv.handleGetProject)
				r.Patch("/{id}", srv.handleUpdateProject)
				r.Delete("/{id}", srv.handleDeleteProject)
			})

			r.Route("/workspace", func(r chi.Router) {
				r.Get("/", srv.handleGetWorkspace)
				r.Post("/open", srv.handleOpenWorkspace)
				r.Post("/close", srv.handleCloseWorkspace)
				r.Post("/generate", srv.handleGenerate)
				r.Post("/chat", srv.handleChat)
				r.Post("/history/{id}/select", srv.handleSelectHistory)
				r.Post("/deploy", srv.handleDeploy)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// fail writes err and logs anything that maps to a server error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := MapError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, apiErr.Status, map[string]*APIError{"error": apiErr})
}

func owner(r *http.Request) identity.OwnerID {
	o, _ := identity.OwnerFromContext(r.Context())
	return o
}
