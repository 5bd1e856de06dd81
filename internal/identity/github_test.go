package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganot/appforge/internal/identity"
	"github.com/stretchr/testify/require"
)

func newGitHubStub(t *testing.T, emails []map[string]any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_abc", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer gho_abc", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{"login": "octocat", "company": "GitHub"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubExchanger_Exchange(t *testing.T) {
	srv := newGitHubStub(t, []map[string]any{
		{"email": "secondary@example.com", "primary": false},
		{"email": "octo@example.com", "primary": true},
	})
	ex := identity.NewGitHubExchanger("id", "secret").WithEndpoints(srv.URL+"/login/oauth/access_token", srv.URL)

	ident, err := ex.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "octo@example.com", ident.Email)
	require.Equal(t, "octocat", ident.Name)
	require.Equal(t, "GitHub", ident.Company)
	require.Equal(t, "gho_abc", ident.Token)
}

func TestGitHubExchanger_Failures(t *testing.T) {
	srv := newGitHubStub(t, []map[string]any{{"email": "x@example.com", "primary": false}})
	ex := identity.NewGitHubExchanger("id", "secret").WithEndpoints(srv.URL+"/login/oauth/access_token", srv.URL)
	ctx := context.Background()

	_, err := ex.Exchange(ctx, "")
	require.ErrorIs(t, err, identity.ErrUnauthorized)

	_, err = ex.Exchange(ctx, "bad-code")
	require.ErrorIs(t, err, identity.ErrUnauthorized)

	_, err = ex.Exchange(ctx, "good-code")
	require.ErrorIs(t, err, identity.ErrNoEmail)
}
