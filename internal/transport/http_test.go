package transport_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/testserver"
	"github.com/ganot/appforge/internal/transport"
	"github.com/stretchr/testify/require"
)

type client struct {
	t         *testing.T
	ts        *testserver.TestServer
	token     string
	workspace string
}

func newClient(t *testing.T) *client {
	ts := testserver.New(t, "token", "dev@example.com")
	return &client{t: t, ts: ts, token: ts.Token}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.ts.Server.URL+path, reader)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.workspace != "" {
		req.Header.Set(transport.WorkspaceHeader, c.workspace)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *client) decode(data []byte, v any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(data, v), string(data))
}

func (c *client) errorCode(data []byte) string {
	c.t.Helper()
	var body struct {
		Error transport.APIError `json:"error"`
	}
	c.decode(data, &body)
	return body.Error.Code
}

func (c *client) createProject(name string) project.Project {
	c.t.Helper()
	resp, data := c.do(http.MethodPost, "/api/v1/projects", map[string]any{"name": name})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, string(data))
	var proj project.Project
	c.decode(data, &proj)
	return proj
}

func TestHTTPServer_Health(t *testing.T) {
	c := newClient(t)
	c.token = ""

	resp, data := c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(data))
}

func TestHTTPServer_RequiresAuth(t *testing.T) {
	c := newClient(t)
	c.token = ""

	resp, data := c.do(http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "UNAUTHORIZED", c.errorCode(data))

	c.token = "wrong"
	resp, _ = c.do(http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_Credentials(t *testing.T) {
	c := newClient(t)

	resp, data := c.do(http.MethodPut, "/api/v1/credentials/openai", map[string]any{"key": "sk-secret-1234"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(data))

	resp, data = c.do(http.MethodGet, "/api/v1/credentials", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, string(data), "sk-secret-1234")
	require.Contains(t, string(data), "1234")

	resp, data = c.do(http.MethodPut, "/api/v1/credentials/bogus", map[string]any{"key": "x"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "UNKNOWN_PROVIDER", c.errorCode(data))
}

func TestHTTPServer_ProjectCRUD(t *testing.T) {
	c := newClient(t)

	created := c.createProject("demo")
	require.NotEmpty(t, created.ID)
	require.Equal(t, int64(1), created.Version)

	resp, data := c.do(http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Projects []project.ProjectSummary `json:"projects"`
	}
	c.decode(data, &list)
	require.Len(t, list.Projects, 1)
	require.Equal(t, "demo", list.Projects[0].Name)

	resp, data = c.do(http.MethodPatch, "/api/v1/projects/"+created.ID, map[string]any{"name": "renamed", "code": "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var updated project.Project
	c.decode(data, &updated)
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, "x", updated.Code)
	require.Greater(t, updated.Version, created.Version)

	resp, _ = c.do(http.MethodDelete, "/api/v1/projects/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = c.do(http.MethodGet, "/api/v1/projects/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "PROJECT_NOT_FOUND", c.errorCode(data))
}

func TestHTTPServer_ProjectsAreScopedToOwner(t *testing.T) {
	c := newClient(t)
	proj := c.createProject("mine")

	require.NoError(t, c.ts.AddAPIKey("other", "other@example.com"))
	c.token = "other"

	resp, _ := c.do(http.MethodGet, "/api/v1/projects/"+proj.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_GenerateIntoProject(t *testing.T) {
	c := newClient(t)
	c.ts.Provider.SetCode(generation.CodeResponse{Code: "```js\nfunction sort(){}\n```", Explanation: "sorts"})
	proj := c.createProject("demo")

	resp, data := c.do(http.MethodPost, "/api/v1/workspace/generate", map[string]any{"provider": "openai", "prompt": "sort"})
	require.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	require.Equal(t, "MISSING_CREDENTIAL", c.errorCode(data))
	require.Zero(t, c.ts.Provider.Calls())

	resp, _ = c.do(http.MethodPut, "/api/v1/credentials/openai", map[string]any{"key": "sk-test"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = c.do(http.MethodPost, "/api/v1/workspace/open", map[string]any{"project_id": proj.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	c.workspace = resp.Header.Get(transport.WorkspaceHeader)
	require.NotEmpty(t, c.workspace)

	resp, data = c.do(http.MethodPost, "/api/v1/workspace/generate", map[string]any{"provider": "openai", "prompt": "sort an array"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var gen struct {
		Outcome generation.Outcome `json:"outcome"`
	}
	c.decode(data, &gen)
	require.Equal(t, "function sort(){}", gen.Outcome.Code)

	resp, data = c.do(http.MethodGet, "/api/v1/projects/"+proj.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored project.Project
	c.decode(data, &stored)
	require.Equal(t, "function sort(){}", stored.Code)
	require.Equal(t, "sort an array", stored.Prompt)

	resp, data = c.do(http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(data), "sort an array")

	resp, data = c.do(http.MethodGet, "/api/v1/activity?type=code_generated", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(data), proj.ID)
}

func TestHTTPServer_CollaboratorFailure(t *testing.T) {
	c := newClient(t)
	c.ts.Provider.SetErr(errors.New("boom"))
	resp, _ := c.do(http.MethodPut, "/api/v1/credentials/grok", map[string]any{"key": "xai-key"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data := c.do(http.MethodPost, "/api/v1/workspace/generate", map[string]any{"provider": "grok", "prompt": "p"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, "COLLABORATOR_FAILURE", c.errorCode(data))
	require.NotContains(t, string(data), "boom")
}

func TestHTTPServer_OpenMissingProject(t *testing.T) {
	c := newClient(t)

	resp, data := c.do(http.MethodPost, "/api/v1/workspace/open", map[string]any{"project_id": "nope"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		NotFound  bool `json:"not_found"`
		Workspace struct {
			ProjectID string `json:"project_id"`
		} `json:"workspace"`
	}
	c.decode(data, &body)
	require.True(t, body.NotFound)
	require.Empty(t, body.Workspace.ProjectID)
}

func TestHTTPServer_ChatNeedsProject(t *testing.T) {
	c := newClient(t)
	resp, _ := c.do(http.MethodPut, "/api/v1/credentials/anthropic", map[string]any{"key": "k"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data := c.do(http.MethodPost, "/api/v1/workspace/chat", map[string]any{"provider": "anthropic", "message": "hi"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "NO_ACTIVE_PROJECT", c.errorCode(data))
}

func TestHTTPServer_GetUnknownWorkspace(t *testing.T) {
	c := newClient(t)

	resp, data := c.do(http.MethodGet, "/api/v1/workspace", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "WORKSPACE_NOT_FOUND", c.errorCode(data))

	c.workspace = "never-created"
	resp, _ = c.do(http.MethodGet, "/api/v1/workspace", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_Terminal(t *testing.T) {
	c := newClient(t)

	resp, data := c.do(http.MethodPost, "/api/v1/terminal", map[string]any{"command": "install lodash"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(data), "lodash")
}

func TestHTTPServer_RejectsUnknownFields(t *testing.T) {
	c := newClient(t)

	resp, data := c.do(http.MethodPost, "/api/v1/projects", map[string]any{"name": "x", "extra": true})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "INVALID_INPUT", c.errorCode(data))
}
