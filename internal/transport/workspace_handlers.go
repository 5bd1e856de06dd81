package transport

import (
	"errors"
	"net/http"

	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/chat"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/domain/workspace"
	"github.com/go-chi/chi/v5"
)

// coordinator returns the caller's workspace, creating it when the request
// names none. The id is echoed in X-Workspace-Id so clients can keep it.
func (s *Server) coordinator(w http.ResponseWriter, r *http.Request) *workspace.Coordinator {
	id, _ := WorkspaceIDFromContext(r.Context())
	coord := s.svc.Workspaces.Acquire(owner(r), id)
	w.Header().Set(WorkspaceHeader, coord.ID())
	return coord
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	id, ok := WorkspaceIDFromContext(r.Context())
	if !ok {
		s.fail(w, r, workspace.ErrWorkspaceNotFound)
		return
	}
	coord, err := s.svc.Workspaces.Lookup(owner(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set(WorkspaceHeader, coord.ID())
	writeJSON(w, http.StatusOK, coord.View())
}

type openBody struct {
	ProjectID string `json:"project_id"`
}

type openResponse struct {
	View     workspace.View `json:"workspace"`
	NotFound bool           `json:"not_found,omitempty"`
}

func (s *Server) handleOpenWorkspace(w http.ResponseWriter, r *http.Request) {
	var body openBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	coord := s.coordinator(w, r)

	view, err := coord.Open(r.Context(), body.ProjectID)
	if errors.Is(err, project.ErrProjectNotFound) {
		writeJSON(w, http.StatusOK, openResponse{View: view, NotFound: true})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, openResponse{View: view})
}

func (s *Server) handleCloseWorkspace(w http.ResponseWriter, r *http.Request) {
	coord := s.coordinator(w, r)
	coord.Close()
	writeJSON(w, http.StatusOK, coord.View())
}

type generateBody struct {
	Mode     generation.Mode             `json:"mode,omitempty"`
	Provider string                      `json:"provider"`
	Prompt   string                      `json:"prompt"`
	Language string                      `json:"language,omitempty"`
	Context  *generation.LanguageContext `json:"context,omitempty"`
}

type generateResponse struct {
	Outcome   generation.Outcome `json:"outcome"`
	Workspace workspace.View     `json:"workspace"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	provider, err := credential.ParseProvider(body.Provider)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	coord := s.coordinator(w, r)

	outcome, err := coord.Generate(r.Context(), workspace.GenerateInput{
		Mode:     body.Mode,
		Provider: provider,
		Prompt:   body.Prompt,
		Language: body.Language,
		Context:  body.Context,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Outcome: outcome, Workspace: coord.View()})
}

type chatBody struct {
	Provider string                      `json:"provider"`
	Message  string                      `json:"message"`
	Context  *generation.LanguageContext `json:"context,omitempty"`
}

type chatResponse struct {
	Reply     chat.Reply     `json:"reply"`
	Workspace workspace.View `json:"workspace"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	provider, err := credential.ParseProvider(body.Provider)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	coord := s.coordinator(w, r)

	reply, err := coord.SendChat(r.Context(), provider, body.Message, body.Context)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Workspace: coord.View()})
}

func (s *Server) handleSelectHistory(w http.ResponseWriter, r *http.Request) {
	coord := s.coordinator(w, r)
	view, err := coord.SelectHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type deployBody struct {
	Platform deploy.Platform `json:"platform"`
	SiteName string          `json:"site_name"`
	Token    string          `json:"token"`
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var body deployBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	coord := s.coordinator(w, r)

	res, err := coord.Deploy(r.Context(), body.Platform, body.SiteName, body.Token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
