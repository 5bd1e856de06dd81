package identity_test

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/ganot/appforge/internal/identity"
	"github.com/stretchr/testify/require"
)

func TestNewOwnerID_Normalizes(t *testing.T) {
	a := identity.NewOwnerID("  Dev@Example.COM ")
	b := identity.NewOwnerID("dev@example.com")
	require.Equal(t, a, b)
	require.Equal(t, "dev@example.com", a.String())
	require.False(t, a.IsZero())
	require.True(t, identity.OwnerID{}.IsZero())
	require.True(t, identity.NewOwnerID("   ").IsZero())
}

func TestOwnerContext(t *testing.T) {
	ctx := context.Background()
	_, ok := identity.OwnerFromContext(ctx)
	require.False(t, ok)

	owner := identity.NewOwnerID("a@b.c")
	got, ok := identity.OwnerFromContext(identity.WithOwner(ctx, owner))
	require.True(t, ok)
	require.Equal(t, owner, got)

	_, ok = identity.OwnerFromContext(identity.WithOwner(ctx, identity.OwnerID{}))
	require.False(t, ok)
}

func TestStaticResolver(t *testing.T) {
	r := identity.StaticResolver{Identity: identity.Identity{Email: "local@appforge", Name: "Local"}}
	ident, err := r.Resolve(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, "local@appforge", ident.Owner().String())

	_, err = identity.StaticResolver{}.Resolve(context.Background(), "")
	require.ErrorIs(t, err, identity.ErrNoEmail)
}

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseResolver(t *testing.T) {
	ctx := context.Background()

	r := identity.NewFirebaseResolver(fakeVerifier{token: &auth.Token{
		UID:    "uid-1",
		Claims: map[string]interface{}{"email": "Someone@Example.com"},
	}})
	ident, err := r.Resolve(ctx, "id-token")
	require.NoError(t, err)
	require.Equal(t, "Someone@Example.com", ident.Email)
	require.Equal(t, "Someone@Example.com", ident.Name)
	require.Equal(t, "someone@example.com", ident.Owner().String())

	_, err = r.Resolve(ctx, "")
	require.ErrorIs(t, err, identity.ErrUnauthorized)

	r = identity.NewFirebaseResolver(fakeVerifier{err: errors.New("expired")})
	_, err = r.Resolve(ctx, "id-token")
	require.ErrorIs(t, err, identity.ErrUnauthorized)

	r = identity.NewFirebaseResolver(fakeVerifier{token: &auth.Token{Claims: map[string]interface{}{}}})
	_, err = r.Resolve(ctx, "id-token")
	require.ErrorIs(t, err, identity.ErrNoEmail)
}
