package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/terminal"
	"github.com/go-chi/chi/v5"
)

type setCredentialBody struct {
	Key string `json:"key"`
}

func (s *Server) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	provider, err := credential.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body setCredentialBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Credentials.Set(r.Context(), provider, body.Key); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.svc.Credentials.Statuses(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": statuses})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.History.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.ListActivityOptions{ProjectID: q.Get("project_id")}
	if t := q.Get("type"); t != "" {
		at := activity.ActivityType(t)
		opts.ActivityType = &at
	}
	if id, ok := WorkspaceIDFromContext(r.Context()); ok && q.Get("scope") == "workspace" {
		opts.WorkspaceID = &id
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			s.fail(w, r, badRequest("invalid limit %q", l))
			return
		}
		opts.Limit = n
	}

	entries, err := s.svc.Activity.GetRecentActivity(r.Context(), owner(r), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

type terminalBody struct {
	Command string `json:"command"`
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	var body terminalBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, terminal.Interpret(body.Command))
}

type createProjectBody struct {
	Name     string           `json:"name"`
	Language project.Language `json:"language,omitempty"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body createProjectBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	proj, err := s.svc.Projects.Create(r.Context(), owner(r), project.CreateRequest{Name: body.Name, Language: body.Language})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.svc.Activity.Record(r.Context(), owner(r), &activity.ActivityEntry{
		ProjectID:    proj.ID,
		ActivityType: activity.TypeProjectCreated,
		Summary:      fmt.Sprintf("Created %q", proj.Name),
		Version:      proj.Version,
	})
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.List(r.Context(), owner(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	summaries := make([]project.ProjectSummary, 0, len(projects))
	for i := range projects {
		summaries = append(summaries, projects[i].Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": summaries})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.svc.Projects.Resolve(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

type updateProjectBody struct {
	Name              *string `json:"name,omitempty"`
	Language          *string `json:"language,omitempty"`
	Code              *string `json:"code,omitempty"`
	Prompt            *string `json:"prompt,omitempty"`
	SetupInstructions *string `json:"setup_instructions,omitempty"`
	Explanation       *string `json:"explanation,omitempty"`
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var body updateProjectBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	patch := project.Patch{
		Name:              body.Name,
		Code:              body.Code,
		Prompt:            body.Prompt,
		SetupInstructions: body.SetupInstructions,
		Explanation:       body.Explanation,
	}
	if body.Language != nil {
		lang := project.Language(strings.TrimSpace(*body.Language))
		patch.Language = &lang
	}

	proj, err := s.svc.Projects.Update(r.Context(), owner(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if proj == nil {
		s.fail(w, r, project.ErrProjectNotFound)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Projects.Delete(r.Context(), owner(r), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.svc.Activity.Record(r.Context(), owner(r), &activity.ActivityEntry{
		ProjectID:    id,
		ActivityType: activity.TypeProjectDeleted,
		Summary:      "Deleted project",
	})
	w.WriteHeader(http.StatusNoContent)
}

type githubAuthBody struct {
	Code string `json:"code"`
}

func (s *Server) handleGitHubAuth(w http.ResponseWriter, r *http.Request) {
	if s.svc.GitHub == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]*APIError{"error": {Code: "NOT_CONFIGURED", Message: "GitHub sign-in is not configured"}})
		return
	}
	var body githubAuthBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		s.fail(w, r, badRequest("code is required"))
		return
	}
	ident, err := s.svc.GitHub.Exchange(r.Context(), body.Code)
	if err != nil {
		s.logger.Warn("github exchange failed", "error", err)
		s.fail(w, r, fmt.Errorf("github exchange: %w", errUnauthorizedExchange(err)))
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

func errUnauthorizedExchange(err error) error {
	if errors.Is(err, identity.ErrNoEmail) {
		return err
	}
	return identity.ErrUnauthorized
}
