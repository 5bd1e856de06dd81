package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganot/appforge/internal/identity"
	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokens map[string]identity.Identity
	err    error
}

func (r *testResolver) Resolve(_ context.Context, token string) (identity.Identity, error) {
	if r.err != nil {
		return identity.Identity{}, r.err
	}
	ident, ok := r.tokens[token]
	if !ok {
		return identity.Identity{}, identity.ErrUnauthorized
	}
	return ident, nil
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokens: map[string]identity.Identity{"token": {Email: "Dev@Example.com"}}}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "Dev@Example.com", ident.Email)

		owner, ok := identity.OwnerFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "dev@example.com", owner.String())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	resolver := &testResolver{err: errors.New("invalid")}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	handler := AuthMiddleware(&testResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_IdentityWithoutEmail(t *testing.T) {
	resolver := &testResolver{tokens: map[string]identity.Identity{"token": {Name: "nobody"}}}
	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaticIdentityMiddleware(t *testing.T) {
	handler := StaticIdentityMiddleware(identity.Identity{Email: "local@appforge.dev"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := identity.OwnerFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "local@appforge.dev", owner.String())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWorkspaceMiddleware(t *testing.T) {
	var got string
	var present bool
	handler := WorkspaceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = WorkspaceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(WorkspaceHeader, " ws-1 ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, present)
	require.Equal(t, "ws-1", got)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, present)
}
