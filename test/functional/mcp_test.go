package functional_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/testserver"
	"github.com/ganot/appforge/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// headerTransport adds the bearer token and workspace id to every request.
type headerTransport struct {
	token     string
	workspace string
}

func (h headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	if h.workspace != "" {
		req.Header.Set(transport.WorkspaceHeader, h.workspace)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func ownerOf(email string) identity.OwnerID {
	return identity.NewOwnerID(email)
}

func connectHTTP(t *testing.T, ts *testserver.TestServer, token, workspace string) (*sdkmcp.ClientSession, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "http-test", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: headerTransport{token: token, workspace: workspace}},
	}, nil)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = session.Close() })
	return session, nil
}

func callJSON(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text := res.Content[0].(*sdkmcp.TextContent).Text
	require.False(t, res.IsError, text)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text), out), text)
	}
}

func TestHTTPFunctional_RejectsMissingToken(t *testing.T) {
	ts := testserver.New(t, "token", "dev@example.com")

	_, err := connectHTTP(t, ts, "", "")
	require.Error(t, err)
}

func TestHTTPFunctional_WorkspaceAcrossRequests(t *testing.T) {
	ts := testserver.New(t, "token", "dev@example.com")
	ts.Provider.SetCode(generation.CodeResponse{Code: "contract Token {}", SetupInstructions: "npx hardhat compile"})

	session, err := connectHTTP(t, ts, ts.Token, "ws-1")
	require.NoError(t, err)

	callJSON(t, session, "set_credential", map[string]any{"provider": "anthropic", "key": "sk-ant"}, nil)

	var proj struct {
		ID string `json:"id"`
	}
	callJSON(t, session, "create_project", map[string]any{"name": "Token", "language": "web3"}, &proj)
	callJSON(t, session, "open_project", map[string]any{"project_id": proj.ID}, nil)
	callJSON(t, session, "generate_code", map[string]any{"provider": "anthropic", "prompt": "erc20"}, nil)

	// The REST surface sees the same workspace through the header.
	coord, err := ts.App.Workspaces.Lookup(ownerOf("dev@example.com"), "ws-1")
	require.NoError(t, err)
	view := coord.View()
	require.Equal(t, proj.ID, view.ProjectID)
	require.Equal(t, "contract Token {}", view.Code)
	require.Equal(t, "npx hardhat compile", view.SetupInstructions)

	stored, err := ts.App.Projects.Resolve(context.Background(), ownerOf("dev@example.com"), proj.ID)
	require.NoError(t, err)
	require.Equal(t, "contract Token {}", stored.Code)
}

func TestHTTPFunctional_OwnersAreIsolated(t *testing.T) {
	ts := testserver.New(t, "token", "dev@example.com")
	require.NoError(t, ts.AddAPIKey("other-token", "other@example.com"))

	mine, err := connectHTTP(t, ts, ts.Token, "")
	require.NoError(t, err)
	theirs, err := connectHTTP(t, ts, "other-token", "")
	require.NoError(t, err)

	callJSON(t, mine, "create_project", map[string]any{"name": "Private"}, nil)

	var list struct {
		Projects []json.RawMessage `json:"projects"`
	}
	callJSON(t, theirs, "list_projects", nil, &list)
	require.Empty(t, list.Projects)
	callJSON(t, mine, "list_projects", nil, &list)
	require.Len(t, list.Projects, 1)
}
