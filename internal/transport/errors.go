package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/chat"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/domain/workspace"
	"github.com/ganot/appforge/internal/identity"
)

// APIError is the error body returned by the REST and MCP surfaces.
type APIError struct {
	Status       int    `json:"-"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to API errors. Unknown errors become
// INTERNAL without leaking their text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var genErr *generation.Error
	switch {
	case errors.Is(err, identity.ErrUnauthorized), errors.Is(err, identity.ErrNoEmail):
		return &APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "missing or invalid credentials", RecoveryHint: "Sign in again"}
	case errors.Is(err, project.ErrNoIdentity):
		return &APIError{Status: http.StatusUnauthorized, Code: "NO_IDENTITY", Message: "sign in to manage projects", RecoveryHint: "Sign in first"}
	case errors.Is(err, generation.ErrMissingCredential):
		msg := "no API key for the selected provider"
		if errors.As(err, &genErr) {
			msg = fmt.Sprintf("please set your %s API key first", genErr.Provider)
		}
		return &APIError{Status: http.StatusPreconditionFailed, Code: "MISSING_CREDENTIAL", Message: msg, RecoveryHint: "Store a key with PUT /api/v1/credentials/{provider}"}
	case errors.Is(err, generation.ErrCollaboratorFailure):
		return &APIError{Status: http.StatusBadGateway, Code: "COLLABORATOR_FAILURE", Message: "failed to generate code, please try again", RecoveryHint: "Retry; check the provider key if it keeps failing"}
	case errors.Is(err, deploy.ErrDeployFailed):
		return &APIError{Status: http.StatusBadGateway, Code: "DEPLOY_FAILED", Message: "deployment failed", RecoveryHint: "Check the platform token and site name"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "List projects to find a valid id"}
	case errors.Is(err, history.ErrEntryNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "HISTORY_NOT_FOUND", Message: "history entry not found", RecoveryHint: "List history to find a valid id"}
	case errors.Is(err, workspace.ErrWorkspaceNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "WORKSPACE_NOT_FOUND", Message: "workspace not found", RecoveryHint: "Open a project to start a workspace"}
	case errors.Is(err, project.ErrConflict):
		return &APIError{Status: http.StatusConflict, Code: "CONFLICT", Message: "project modified by another writer", RecoveryHint: "Reload the project and retry"}
	case errors.Is(err, workspace.ErrNoActiveProject), errors.Is(err, chat.ErrUnbound):
		return &APIError{Status: http.StatusConflict, Code: "NO_ACTIVE_PROJECT", Message: "no project is open in this workspace", RecoveryHint: "Open a project first"}
	case errors.Is(err, workspace.ErrNothingToDeploy):
		return &APIError{Status: http.StatusConflict, Code: "NOTHING_TO_DEPLOY", Message: "generate code before deploying", RecoveryHint: "Generate code first"}
	case errors.Is(err, credential.ErrUnknownProvider):
		return &APIError{Status: http.StatusBadRequest, Code: "UNKNOWN_PROVIDER", Message: "unknown provider", RecoveryHint: "Use openai, anthropic or grok"}
	case errors.Is(err, deploy.ErrUnsupportedPlatform):
		return &APIError{Status: http.StatusBadRequest, Code: "UNSUPPORTED_PLATFORM", Message: "unsupported deployment platform", RecoveryHint: "Use netlify or vercel"}
	case errors.Is(err, chat.ErrEmptyMessage):
		return &APIError{Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: "message is empty"}
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, credential.ErrInvalidInput),
		errors.Is(err, generation.ErrInvalidInput),
		errors.Is(err, deploy.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, errBadRequest):
		return &APIError{Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: "internal error"}
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := MapError(err)
	writeJSON(w, apiErr.Status, map[string]*APIError{"error": apiErr})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
